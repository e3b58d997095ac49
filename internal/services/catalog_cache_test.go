package services

import (
	"testing"
	"time"

	"github.com/lantern-eats/api/internal/domain"
)

func TestMenuCacheExpiry(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	cache := NewMenuCache(
		WithMenuTTL(time.Minute),
		WithMenuClock(func() time.Time { return now }),
	)

	cache.StoreCategories([]domain.Category{{ID: "cat-1", Name: "Mains"}})

	if _, ok := cache.Categories(); !ok {
		t.Fatal("expected cache hit before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Categories(); ok {
		t.Fatal("expected cache miss after expiry")
	}
}

func TestMenuCacheKeysDishesByFilter(t *testing.T) {
	cache := NewMenuCache()
	featured := true

	cache.StoreDishes(DishFilter{Category: "cat-1"}, []domain.Dish{{ID: "dish-1"}})

	if _, ok := cache.Dishes(DishFilter{Category: "cat-2"}); ok {
		t.Fatal("expected miss for different category filter")
	}
	if _, ok := cache.Dishes(DishFilter{Category: "cat-1", Featured: &featured}); ok {
		t.Fatal("expected miss for different featured filter")
	}
	if dishes, ok := cache.Dishes(DishFilter{Category: "cat-1"}); !ok || len(dishes) != 1 {
		t.Fatalf("expected hit for matching filter, got ok=%t len=%d", ok, len(dishes))
	}
}

func TestMenuCacheInvalidate(t *testing.T) {
	cache := NewMenuCache()
	cache.StoreCategories([]domain.Category{{ID: "cat-1"}})
	cache.StoreDishes(DishFilter{}, []domain.Dish{{ID: "dish-1"}})

	cache.Invalidate()

	if _, ok := cache.Categories(); ok {
		t.Fatal("expected categories dropped")
	}
	if _, ok := cache.Dishes(DishFilter{}); ok {
		t.Fatal("expected dishes dropped")
	}
}

func TestMenuCacheReturnsCopies(t *testing.T) {
	cache := NewMenuCache()
	cache.StoreCategories([]domain.Category{{ID: "cat-1", Name: "Mains"}})

	first, _ := cache.Categories()
	first[0].Name = "mutated"

	second, _ := cache.Categories()
	if second[0].Name != "Mains" {
		t.Fatalf("cache entry was mutated through returned slice: %q", second[0].Name)
	}
}

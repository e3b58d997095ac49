package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lantern-eats/api/internal/domain"
)

const defaultMenuTTL = 5 * time.Minute

// MenuCache is an in-process read-through cache for menu listings. Entries
// expire after the configured TTL and the whole cache is invalidated on any
// catalog mutation.
type MenuCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	categories *menuCacheEntry[[]domain.Category]
	dishes     map[string]*menuCacheEntry[[]domain.Dish]
}

type menuCacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// MenuCacheOption customises cache behaviour.
type MenuCacheOption func(*MenuCache)

// WithMenuTTL overrides the entry lifetime.
func WithMenuTTL(ttl time.Duration) MenuCacheOption {
	return func(c *MenuCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMenuClock injects a custom clock, primarily for tests.
func WithMenuClock(now func() time.Time) MenuCacheOption {
	return func(c *MenuCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMenuCache constructs the cache.
func NewMenuCache(opts ...MenuCacheOption) *MenuCache {
	cache := &MenuCache{
		ttl:    defaultMenuTTL,
		now:    time.Now,
		dishes: make(map[string]*menuCacheEntry[[]domain.Dish]),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}
	return cache
}

// Categories returns the cached category list when fresh.
func (c *MenuCache) Categories() ([]domain.Category, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.categories == nil || c.now().After(c.categories.expiresAt) {
		c.categories = nil
		return nil, false
	}
	return cloneCategories(c.categories.value), true
}

// StoreCategories caches the category list.
func (c *MenuCache) StoreCategories(categories []domain.Category) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.categories = &menuCacheEntry[[]domain.Category]{
		value:     cloneCategories(categories),
		expiresAt: c.now().Add(c.ttl),
	}
}

// Dishes returns the cached dish list for the filter when fresh.
func (c *MenuCache) Dishes(filter DishFilter) ([]domain.Dish, bool) {
	if c == nil {
		return nil, false
	}
	key := dishCacheKey(filter)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.dishes[key]
	if !ok || c.now().After(entry.expiresAt) {
		delete(c.dishes, key)
		return nil, false
	}
	return cloneDishes(entry.value), true
}

// StoreDishes caches the dish list under the filter key.
func (c *MenuCache) StoreDishes(filter DishFilter, dishes []domain.Dish) {
	if c == nil {
		return
	}
	key := dishCacheKey(filter)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.dishes[key] = &menuCacheEntry[[]domain.Dish]{
		value:     cloneDishes(dishes),
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate drops every cached entry.
func (c *MenuCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.categories = nil
	c.dishes = make(map[string]*menuCacheEntry[[]domain.Dish])
}

func dishCacheKey(filter DishFilter) string {
	featured := "any"
	if filter.Featured != nil {
		featured = fmt.Sprintf("%t", *filter.Featured)
	}
	return strings.TrimSpace(filter.Category) + "|" + featured
}

func cloneCategories(categories []domain.Category) []domain.Category {
	if categories == nil {
		return nil
	}
	out := make([]domain.Category, len(categories))
	copy(out, categories)
	return out
}

func cloneDishes(dishes []domain.Dish) []domain.Dish {
	if dishes == nil {
		return nil
	}
	out := make([]domain.Dish, len(dishes))
	copy(out, dishes)
	return out
}

package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/lantern-eats/api/internal/domain"
	pfirestore "github.com/lantern-eats/api/internal/platform/firestore"
	"github.com/lantern-eats/api/internal/repositories"
)

const dishCollection = "dishes"

// DishRepository persists dishes in Firestore.
type DishRepository struct {
	base *pfirestore.BaseRepository[dishDocument]
}

// NewDishRepository constructs a Firestore-backed dish repository.
func NewDishRepository(provider *pfirestore.Provider) (*DishRepository, error) {
	if provider == nil {
		return nil, errors.New("dish repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[dishDocument](provider, dishCollection, nil, nil)
	return &DishRepository{base: base}, nil
}

// Insert creates the dish document.
func (r *DishRepository) Insert(ctx context.Context, dish domain.Dish) error {
	if r == nil || r.base == nil {
		return errors.New("dish repository not initialised")
	}
	if strings.TrimSpace(dish.ID) == "" {
		return errors.New("dish id is required")
	}
	_, err := r.base.Create(ctx, dish.ID, fromDomainDish(dish))
	return err
}

// Update replaces the dish document.
func (r *DishRepository) Update(ctx context.Context, dish domain.Dish) error {
	if r == nil || r.base == nil {
		return errors.New("dish repository not initialised")
	}
	if strings.TrimSpace(dish.ID) == "" {
		return errors.New("dish id is required")
	}
	_, err := r.base.Set(ctx, dish.ID, fromDomainDish(dish))
	return err
}

// Delete removes the dish document.
func (r *DishRepository) Delete(ctx context.Context, dishID string) error {
	if r == nil || r.base == nil {
		return errors.New("dish repository not initialised")
	}
	_, err := r.base.Delete(ctx, dishID, firestore.Exists)
	return err
}

// FindByID loads a dish by document ID.
func (r *DishRepository) FindByID(ctx context.Context, dishID string) (domain.Dish, error) {
	if r == nil || r.base == nil {
		return domain.Dish{}, errors.New("dish repository not initialised")
	}
	doc, err := r.base.Get(ctx, dishID)
	if err != nil {
		return domain.Dish{}, err
	}
	return toDomainDish(doc.ID, doc.Data), nil
}

// FindByIDs loads the given dishes keyed by ID. Missing IDs are absent from the
// result rather than reported as errors.
func (r *DishRepository) FindByIDs(ctx context.Context, dishIDs []string) (map[string]domain.Dish, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("dish repository not initialised")
	}

	dishes := make(map[string]domain.Dish, len(dishIDs))
	seen := make(map[string]struct{}, len(dishIDs))
	for _, id := range dishIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		doc, err := r.base.Get(ctx, id)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				continue
			}
			return nil, err
		}
		dishes[doc.ID] = toDomainDish(doc.ID, doc.Data)
	}
	return dishes, nil
}

// List returns dishes matching the filter ordered by name.
func (r *DishRepository) List(ctx context.Context, filter repositories.DishListFilter) ([]domain.Dish, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("dish repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if categoryID := strings.TrimSpace(filter.CategoryID); categoryID != "" {
			q = q.Where("categoryId", "==", categoryID)
		}
		if filter.Featured != nil {
			q = q.Where("featured", "==", *filter.Featured)
		}
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	dishes := make([]domain.Dish, 0, len(docs))
	for _, doc := range docs {
		dishes = append(dishes, toDomainDish(doc.ID, doc.Data))
	}
	return dishes, nil
}

// Count returns the total number of dishes.
func (r *DishRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("dish repository not initialised")
	}
	return r.base.Count(ctx, nil)
}

// CountByCategory returns the number of dishes assigned to the category.
func (r *DishRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("dish repository not initialised")
	}
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return 0, nil
	}
	return r.base.Count(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("categoryId", "==", categoryID)
	})
}

type dishDocument struct {
	Name          string    `firestore:"name"`
	Description   string    `firestore:"description"`
	Price         int64     `firestore:"price"`
	OriginalPrice *int64    `firestore:"originalPrice,omitempty"`
	CategoryID    string    `firestore:"categoryId"`
	Image         string    `firestore:"image"`
	Featured      bool      `firestore:"featured"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func toDomainDish(id string, doc dishDocument) domain.Dish {
	dish := domain.Dish{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Price:       doc.Price,
		CategoryID:  doc.CategoryID,
		Image:       doc.Image,
		Featured:    doc.Featured,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.OriginalPrice != nil {
		value := *doc.OriginalPrice
		dish.OriginalPrice = &value
	}
	return dish
}

func fromDomainDish(dish domain.Dish) dishDocument {
	doc := dishDocument{
		Name:        strings.TrimSpace(dish.Name),
		Description: strings.TrimSpace(dish.Description),
		Price:       dish.Price,
		CategoryID:  strings.TrimSpace(dish.CategoryID),
		Image:       strings.TrimSpace(dish.Image),
		Featured:    dish.Featured,
		CreatedAt:   dish.CreatedAt.UTC(),
		UpdatedAt:   dish.UpdatedAt.UTC(),
	}
	if dish.OriginalPrice != nil {
		value := *dish.OriginalPrice
		doc.OriginalPrice = &value
	}
	return doc
}

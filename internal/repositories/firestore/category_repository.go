package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/lantern-eats/api/internal/domain"
	pfirestore "github.com/lantern-eats/api/internal/platform/firestore"
)

const categoryCollection = "categories"

// CategoryRepository persists menu categories in Firestore.
type CategoryRepository struct {
	base *pfirestore.BaseRepository[categoryDocument]
}

// NewCategoryRepository constructs a Firestore-backed category repository.
func NewCategoryRepository(provider *pfirestore.Provider) (*CategoryRepository, error) {
	if provider == nil {
		return nil, errors.New("category repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[categoryDocument](provider, categoryCollection, nil, nil)
	return &CategoryRepository{base: base}, nil
}

// Insert creates the category document.
func (r *CategoryRepository) Insert(ctx context.Context, category domain.Category) error {
	if r == nil || r.base == nil {
		return errors.New("category repository not initialised")
	}
	if strings.TrimSpace(category.ID) == "" {
		return errors.New("category id is required")
	}
	_, err := r.base.Create(ctx, category.ID, fromDomainCategory(category))
	return err
}

// Update replaces the category document.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	if r == nil || r.base == nil {
		return errors.New("category repository not initialised")
	}
	if strings.TrimSpace(category.ID) == "" {
		return errors.New("category id is required")
	}
	_, err := r.base.Set(ctx, category.ID, fromDomainCategory(category))
	return err
}

// Delete removes the category document.
func (r *CategoryRepository) Delete(ctx context.Context, categoryID string) error {
	if r == nil || r.base == nil {
		return errors.New("category repository not initialised")
	}
	_, err := r.base.Delete(ctx, categoryID, firestore.Exists)
	return err
}

// FindByID loads a category by document ID.
func (r *CategoryRepository) FindByID(ctx context.Context, categoryID string) (domain.Category, error) {
	if r == nil || r.base == nil {
		return domain.Category{}, errors.New("category repository not initialised")
	}
	doc, err := r.base.Get(ctx, categoryID)
	if err != nil {
		return domain.Category{}, err
	}
	return toDomainCategory(doc.ID, doc.Data), nil
}

// FindByName loads a category by its unique name.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (domain.Category, error) {
	if r == nil || r.base == nil {
		return domain.Category{}, errors.New("category repository not initialised")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, pfirestore.NewNotFoundError("categories.find", errors.New("name is empty"))
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("name", "==", name).Limit(1)
	})
	if err != nil {
		return domain.Category{}, err
	}
	if len(docs) == 0 {
		return domain.Category{}, pfirestore.NewNotFoundError("categories.find", errors.New("category not found"))
	}
	return toDomainCategory(docs[0].ID, docs[0].Data), nil
}

// ListAll returns every category ordered by name.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("category repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, toDomainCategory(doc.ID, doc.Data))
	}
	return categories, nil
}

type categoryDocument struct {
	Name      string    `firestore:"name"`
	Image     string    `firestore:"image"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func toDomainCategory(id string, doc categoryDocument) domain.Category {
	return domain.Category{
		ID:        id,
		Name:      doc.Name,
		Image:     doc.Image,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func fromDomainCategory(category domain.Category) categoryDocument {
	return categoryDocument{
		Name:      strings.TrimSpace(category.Name),
		Image:     strings.TrimSpace(category.Image),
		CreatedAt: category.CreatedAt.UTC(),
		UpdatedAt: category.UpdatedAt.UTC(),
	}
}

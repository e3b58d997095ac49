package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/repositories"
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Categories  repositories.CategoryRepository
	Dishes      repositories.DishRepository
	Cache       *MenuCache
	Clock       func() time.Time
	IDGenerator func() string
}

type catalogService struct {
	categories repositories.CategoryRepository
	dishes     repositories.DishRepository
	cache      *MenuCache
	clock      func() time.Time
	newID      func() string
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Categories == nil {
		return nil, errors.New("catalog service: category repository is required")
	}
	if deps.Dishes == nil {
		return nil, errors.New("catalog service: dish repository is required")
	}
	if deps.IDGenerator == nil {
		return nil, errors.New("catalog service: id generator is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &catalogService{
		categories: deps.Categories,
		dishes:     deps.Dishes,
		cache:      deps.Cache,
		clock:      func() time.Time { return clock().UTC() },
		newID:      deps.IDGenerator,
	}, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if cached, ok := s.cache.Categories(); ok {
		return cached, nil
	}

	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.StoreCategories(categories)
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return domain.Category{}, fmt.Errorf("%w: category id is required", ErrInvalidInput)
	}

	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if isNotFound(err) {
			return domain.Category{}, ErrCategoryNotFound
		}
		return domain.Category{}, err
	}
	return category, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, actor Actor, cmd CategoryCommand) (domain.Category, error) {
	if err := authorize(actor, opCategoryManage); err != nil {
		return domain.Category{}, err
	}

	name, err := normalizeCategoryName(cmd.Name)
	if err != nil {
		return domain.Category{}, err
	}

	if _, err := s.categories.FindByName(ctx, name); err == nil {
		return domain.Category{}, ErrCategoryNameTaken
	} else if !isNotFound(err) {
		return domain.Category{}, err
	}

	now := s.clock()
	category := domain.Category{
		ID:        s.newID(),
		Name:      name,
		Image:     strings.TrimSpace(cmd.Image),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categories.Insert(ctx, category); err != nil {
		if isConflict(err) {
			return domain.Category{}, ErrCategoryNameTaken
		}
		return domain.Category{}, err
	}

	s.cache.Invalidate()
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, actor Actor, categoryID string, cmd CategoryCommand) (domain.Category, error) {
	if err := authorize(actor, opCategoryManage); err != nil {
		return domain.Category{}, err
	}

	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return domain.Category{}, err
	}

	name, err := normalizeCategoryName(cmd.Name)
	if err != nil {
		return domain.Category{}, err
	}

	if name != category.Name {
		if existing, err := s.categories.FindByName(ctx, name); err == nil && existing.ID != category.ID {
			return domain.Category{}, ErrCategoryNameTaken
		} else if err != nil && !isNotFound(err) {
			return domain.Category{}, err
		}
	}

	category.Name = name
	if image := strings.TrimSpace(cmd.Image); image != "" {
		category.Image = image
	}
	category.UpdatedAt = s.clock()

	if err := s.categories.Update(ctx, category); err != nil {
		return domain.Category{}, err
	}

	s.cache.Invalidate()
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, actor Actor, categoryID string) error {
	if err := authorize(actor, opCategoryManage); err != nil {
		return err
	}

	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	// Deleting a category with dishes would strand them without a menu section.
	count, err := s.dishes.CountByCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d dishes assigned", ErrCategoryInUse, count)
	}

	if err := s.categories.Delete(ctx, category.ID); err != nil {
		if isNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}

	s.cache.Invalidate()
	return nil
}

func (s *catalogService) ListDishes(ctx context.Context, filter DishFilter) ([]domain.Dish, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	if strings.EqualFold(filter.Category, "all") {
		filter.Category = ""
	}
	filter.Search = strings.TrimSpace(filter.Search)

	// Search results are not cached; free-text terms would grow the key
	// space without bound.
	if filter.Search == "" {
		if cached, ok := s.cache.Dishes(filter); ok {
			return cached, nil
		}
	}

	categoryID, err := s.resolveCategory(ctx, filter.Category)
	if err != nil {
		return nil, err
	}

	dishes, err := s.dishes.List(ctx, repositories.DishListFilter{
		CategoryID: categoryID,
		Featured:   filter.Featured,
	})
	if err != nil {
		return nil, err
	}

	if filter.Search != "" {
		return filterDishesBySearch(dishes, filter.Search), nil
	}
	s.cache.StoreDishes(filter, dishes)
	return dishes, nil
}

// resolveCategory maps a category id or name to the category id. Empty input
// means unscoped.
func (s *catalogService) resolveCategory(ctx context.Context, category string) (string, error) {
	if category == "" {
		return "", nil
	}

	found, err := s.categories.FindByID(ctx, category)
	if err == nil {
		return found.ID, nil
	}
	if !isNotFound(err) {
		return "", err
	}

	found, err = s.categories.FindByName(ctx, category)
	if err != nil {
		if isNotFound(err) {
			return "", ErrCategoryNotFound
		}
		return "", err
	}
	return found.ID, nil
}

const maxCategoryNameLen = 50

func normalizeCategoryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return "", fmt.Errorf("%w: category name exceeds %d characters", ErrInvalidInput, maxCategoryNameLen)
	}
	return name, nil
}

// filterDishesBySearch keeps dishes whose name or description contains the
// term, case-insensitively.
func filterDishesBySearch(dishes []domain.Dish, term string) []domain.Dish {
	term = strings.ToLower(term)
	matched := make([]domain.Dish, 0, len(dishes))
	for _, dish := range dishes {
		if strings.Contains(strings.ToLower(dish.Name), term) ||
			strings.Contains(strings.ToLower(dish.Description), term) {
			matched = append(matched, dish)
		}
	}
	return matched
}

func (s *catalogService) GetDish(ctx context.Context, dishID string) (domain.Dish, error) {
	dishID = strings.TrimSpace(dishID)
	if dishID == "" {
		return domain.Dish{}, fmt.Errorf("%w: dish id is required", ErrInvalidInput)
	}

	dish, err := s.dishes.FindByID(ctx, dishID)
	if err != nil {
		if isNotFound(err) {
			return domain.Dish{}, ErrDishNotFound
		}
		return domain.Dish{}, err
	}
	return dish, nil
}

func (s *catalogService) CreateDish(ctx context.Context, actor Actor, cmd DishCommand) (domain.Dish, error) {
	if err := authorize(actor, opDishManage); err != nil {
		return domain.Dish{}, err
	}
	if err := s.validateDishCommand(ctx, cmd); err != nil {
		return domain.Dish{}, err
	}

	now := s.clock()
	dish := domain.Dish{
		ID:            s.newID(),
		Name:          strings.TrimSpace(cmd.Name),
		Description:   strings.TrimSpace(cmd.Description),
		Price:         cmd.Price,
		OriginalPrice: cloneInt64(cmd.OriginalPrice),
		CategoryID:    strings.TrimSpace(cmd.CategoryID),
		Image:         strings.TrimSpace(cmd.Image),
		Featured:      cmd.Featured,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.dishes.Insert(ctx, dish); err != nil {
		return domain.Dish{}, err
	}

	s.cache.Invalidate()
	return dish, nil
}

func (s *catalogService) UpdateDish(ctx context.Context, actor Actor, dishID string, cmd DishCommand) (domain.Dish, error) {
	if err := authorize(actor, opDishManage); err != nil {
		return domain.Dish{}, err
	}

	dish, err := s.GetDish(ctx, dishID)
	if err != nil {
		return domain.Dish{}, err
	}
	if err := s.validateDishCommand(ctx, cmd); err != nil {
		return domain.Dish{}, err
	}

	dish.Name = strings.TrimSpace(cmd.Name)
	dish.Description = strings.TrimSpace(cmd.Description)
	dish.Price = cmd.Price
	dish.OriginalPrice = cloneInt64(cmd.OriginalPrice)
	dish.CategoryID = strings.TrimSpace(cmd.CategoryID)
	dish.Featured = cmd.Featured
	if image := strings.TrimSpace(cmd.Image); image != "" {
		dish.Image = image
	}
	dish.UpdatedAt = s.clock()

	if err := s.dishes.Update(ctx, dish); err != nil {
		return domain.Dish{}, err
	}

	s.cache.Invalidate()
	return dish, nil
}

func (s *catalogService) DeleteDish(ctx context.Context, actor Actor, dishID string) error {
	if err := authorize(actor, opDishManage); err != nil {
		return err
	}

	dish, err := s.GetDish(ctx, dishID)
	if err != nil {
		return err
	}

	if err := s.dishes.Delete(ctx, dish.ID); err != nil {
		if isNotFound(err) {
			return ErrDishNotFound
		}
		return err
	}

	s.cache.Invalidate()
	return nil
}

func (s *catalogService) validateDishCommand(ctx context.Context, cmd DishCommand) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return fmt.Errorf("%w: dish name is required", ErrInvalidInput)
	}
	if cmd.Price <= 0 {
		return fmt.Errorf("%w: dish price must be positive", ErrInvalidInput)
	}
	if cmd.OriginalPrice != nil && *cmd.OriginalPrice <= 0 {
		return fmt.Errorf("%w: original price must be positive", ErrInvalidInput)
	}

	categoryID := strings.TrimSpace(cmd.CategoryID)
	if categoryID == "" {
		return fmt.Errorf("%w: category id is required", ErrInvalidInput)
	}
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		if isNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

package repositories

import (
	"context"
	"time"

	"github.com/lantern-eats/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UserRepository persists account records.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) error
	FindByID(ctx context.Context, userID string) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Count(ctx context.Context) (int64, error)
	// CountNonAdmin counts accounts whose role is not admin.
	CountNonAdmin(ctx context.Context) (int64, error)
}

// CategoryRepository persists menu categories. Category names are unique.
type CategoryRepository interface {
	Insert(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, categoryID string) error
	FindByID(ctx context.Context, categoryID string) (domain.Category, error)
	FindByName(ctx context.Context, name string) (domain.Category, error)
	ListAll(ctx context.Context) ([]domain.Category, error)
}

// DishRepository persists dishes.
type DishRepository interface {
	Insert(ctx context.Context, dish domain.Dish) error
	Update(ctx context.Context, dish domain.Dish) error
	Delete(ctx context.Context, dishID string) error
	FindByID(ctx context.Context, dishID string) (domain.Dish, error)
	FindByIDs(ctx context.Context, dishIDs []string) (map[string]domain.Dish, error)
	List(ctx context.Context, filter DishListFilter) ([]domain.Dish, error)
	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
}

// DishListFilter narrows dish listings.
type DishListFilter struct {
	CategoryID string
	Featured   *bool
}

// OrderRepository persists orders and their line item snapshots.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus mutates only the status and updatedAt fields.
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error
	// UpdateStatusIfCurrent transitions to the new status only when the stored
	// status is one of the allowed current values, atomically. A conflict error
	// is returned when the precondition fails.
	UpdateStatusIfCurrent(ctx context.Context, orderID string, allowed []domain.OrderStatus, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error)
	// UpdatePaymentStatus mutates only the payment status and updatedAt fields.
	UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, updatedAt time.Time) error
	// ListCreatedSince returns orders created at or after the given instant.
	ListCreatedSince(ctx context.Context, since time.Time) ([]domain.Order, error)
}

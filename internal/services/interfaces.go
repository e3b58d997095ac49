package services

import (
	"context"
	"time"

	"github.com/lantern-eats/api/internal/domain"
)

// Actor identifies the authenticated principal invoking a service operation.
type Actor struct {
	UserID string
	Role   domain.Role
}

// AuthService manages account registration, login and profile lookups.
type AuthService interface {
	Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error)
	Login(ctx context.Context, cmd LoginCommand) (AuthResult, error)
	Profile(ctx context.Context, userID string) (domain.User, error)
}

// RegisterCommand carries the inputs for account creation.
type RegisterCommand struct {
	Username string
	Email    string
	Password string
	Role     string
}

// LoginCommand carries the login credentials. Identifier is matched against
// the email when it contains "@" and against the username otherwise.
type LoginCommand struct {
	Identifier string
	Password   string
}

// AuthResult bundles the issued token with the authenticated account.
type AuthResult struct {
	Token string
	User  domain.User
}

// CatalogService manages menu categories and dishes.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, categoryID string) (domain.Category, error)
	CreateCategory(ctx context.Context, actor Actor, cmd CategoryCommand) (domain.Category, error)
	UpdateCategory(ctx context.Context, actor Actor, categoryID string, cmd CategoryCommand) (domain.Category, error)
	DeleteCategory(ctx context.Context, actor Actor, categoryID string) error

	ListDishes(ctx context.Context, filter DishFilter) ([]domain.Dish, error)
	GetDish(ctx context.Context, dishID string) (domain.Dish, error)
	CreateDish(ctx context.Context, actor Actor, cmd DishCommand) (domain.Dish, error)
	UpdateDish(ctx context.Context, actor Actor, dishID string, cmd DishCommand) (domain.Dish, error)
	DeleteDish(ctx context.Context, actor Actor, dishID string) error
}

// CategoryCommand carries category mutation inputs.
type CategoryCommand struct {
	Name  string
	Image string
}

// DishCommand carries dish mutation inputs. Prices are minor units.
type DishCommand struct {
	Name          string
	Description   string
	Price         int64
	OriginalPrice *int64
	CategoryID    string
	Image         string
	Featured      bool
}

// DishFilter narrows dish listings. Category accepts a category id or name;
// "all" and "" leave the listing unscoped. Search applies a case-insensitive
// substring match over dish name and description.
type DishFilter struct {
	Category string
	Featured *bool
	Search   string
}

// OrderService implements the order lifecycle.
type OrderService interface {
	Create(ctx context.Context, actor Actor, cmd CreateOrderCommand) (domain.Order, error)
	Get(ctx context.Context, actor Actor, orderID string) (OrderDetails, error)
	ListMine(ctx context.Context, actor Actor) ([]domain.Order, error)
	ListAll(ctx context.Context, actor Actor) ([]OrderDetails, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID string, status string) (domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, actor Actor, orderID string, status string) (domain.Order, error)
	Cancel(ctx context.Context, actor Actor, orderID string) (domain.Order, error)
	Delete(ctx context.Context, actor Actor, orderID string) error
}

// CreateOrderCommand carries order creation inputs. Client prices are
// advisory; the stored dish price is authoritative and any mismatch rejects
// the order.
type CreateOrderCommand struct {
	Items    []CreateOrderItem
	Delivery domain.DeliveryInfo
}

// CreateOrderItem is one requested line.
type CreateOrderItem struct {
	DishID   string
	Quantity int
	Price    int64
}

// OrderDetails joins an order with the slim identity of its owner for
// merchant and admin listings.
type OrderDetails struct {
	Order domain.Order
	User  *domain.OrderUser
}

// DashboardService aggregates business statistics for merchant dashboards.
type DashboardService interface {
	Stats(ctx context.Context, actor Actor) (DashboardStats, error)
}

// DashboardStats is the aggregate snapshot rendered by the dashboard.
// TodayRevenue and the series count paid, non-cancelled orders only;
// TotalUsers excludes admin accounts.
type DashboardStats struct {
	TodayOrderCount int
	TodayRevenue    int64
	TotalDishes     int64
	TotalUsers      int64
	RevenueSeries   []RevenuePoint
	TopDishes       []TopDish
}

// RevenuePoint is one day of paid revenue, labelled MM-DD.
type RevenuePoint struct {
	Day     string
	Revenue int64
}

// TopDish ranks a dish by total quantity sold.
type TopDish struct {
	DishID   string
	Name     string
	Quantity int
}

// OrderEvent describes an order lifecycle change published to interested consumers.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId"`
	Status      string    `json:"status,omitempty"`
	TotalAmount int64     `json:"totalAmount,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Order event types.
const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status.changed"
)

// OrderEventPublisher delivers order events to a broker. Implementations must
// tolerate concurrent use.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) (string, error)
}

// TokenIssuer signs access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

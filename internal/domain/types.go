package domain

import (
	"strings"
	"time"
)

// Role is the closed set of principal roles recognised by the API.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

// ParseRole normalises a raw role string into a Role, reporting whether it is valid.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleMerchant:
		return RoleMerchant, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// OrderStatus enumerates the order fulfilment states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus validates a raw status value against the closed enum.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case OrderStatusPending:
		return OrderStatusPending, true
	case OrderStatusProcessing:
		return OrderStatusProcessing, true
	case OrderStatusShipping:
		return OrderStatusShipping, true
	case OrderStatusCompleted:
		return OrderStatusCompleted, true
	case OrderStatusCancelled:
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}

// PaymentStatus enumerates the order payment states.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ParsePaymentStatus validates a raw payment status value against the closed enum.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentStatusPending:
		return PaymentStatusPending, true
	case PaymentStatusPaid:
		return PaymentStatusPaid, true
	case PaymentStatusRefunded:
		return PaymentStatusRefunded, true
	default:
		return "", false
	}
}

// User is an account known to the identity service.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Category groups dishes on the menu. Names are unique.
type Category struct {
	ID        string
	Name      string
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Dish is a menu entry. Price is the single source of truth for order pricing;
// client-supplied prices are advisory only.
type Dish struct {
	ID            string
	Name          string
	Description   string
	Price         int64
	OriginalPrice *int64
	CategoryID    string
	Image         string
	Featured      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderLineItem is an immutable snapshot of a purchased dish taken at order
// creation time. It never changes even if the underlying dish is later
// repriced or deleted.
type OrderLineItem struct {
	DishID   string
	Name     string
	Image    string
	Quantity int
	Price    int64
}

// DeliveryInfo captures the destination recorded on an order. Immutable after creation.
type DeliveryInfo struct {
	Address    string
	City       string
	PostalCode string
	Country    string
}

// Order is the core aggregate. TotalAmount is derived from the line items and
// never independently mutated.
type Order struct {
	ID            string
	UserID        string
	Items         []OrderLineItem
	TotalAmount   int64
	Delivery      DeliveryInfo
	Status        OrderStatus
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Total recomputes the sum of line totals. Persisted TotalAmount must equal it
// at creation time.
func (o Order) Total() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// OrderUser is the slim identity projection attached to orders for merchant
// and admin listings.
type OrderUser struct {
	ID       string
	Username string
	Email    string
}

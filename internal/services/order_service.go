package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/repositories"
)

const maxOrderItems = 50

// cancellableStatuses are the states from which a cancellation may proceed.
var cancellableStatuses = []domain.OrderStatus{
	domain.OrderStatusPending,
	domain.OrderStatusProcessing,
}

// OrderServiceDeps bundles constructor inputs for the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Dishes      repositories.DishRepository
	Users       repositories.UserRepository
	Publisher   OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders    repositories.OrderRepository
	dishes    repositories.DishRepository
	users     repositories.UserRepository
	publisher OrderEventPublisher
	clock     func() time.Time
	newID     func() string
	log       func(ctx context.Context, event string, fields map[string]any)
}

// NewOrderService constructs the order service with the supplied dependencies.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Dishes == nil {
		return nil, errors.New("order service: dish repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user repository is required")
	}
	if deps.IDGenerator == nil {
		return nil, errors.New("order service: id generator is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logFn := deps.Logger
	if logFn == nil {
		logFn = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:    deps.Orders,
		dishes:    deps.Dishes,
		users:     deps.Users,
		publisher: deps.Publisher,
		clock:     func() time.Time { return clock().UTC() },
		newID:     deps.IDGenerator,
		log:       logFn,
	}, nil
}

// Create validates the requested lines against the stored dishes, snapshots
// them, and persists the order. Only customers place orders; the stored dish
// price is authoritative and any divergence from the client price rejects the
// whole order.
func (s *orderService) Create(ctx context.Context, actor Actor, cmd CreateOrderCommand) (domain.Order, error) {
	if err := authorize(actor, opOrderCreate); err != nil {
		return domain.Order{}, err
	}
	if strings.TrimSpace(actor.UserID) == "" {
		return domain.Order{}, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return domain.Order{}, ErrOrderEmpty
	}
	if len(cmd.Items) > maxOrderItems {
		return domain.Order{}, fmt.Errorf("%w: at most %d items per order", ErrInvalidInput, maxOrderItems)
	}
	if err := validateDelivery(cmd.Delivery); err != nil {
		return domain.Order{}, err
	}

	dishIDs := make([]string, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		if strings.TrimSpace(item.DishID) == "" {
			return domain.Order{}, fmt.Errorf("%w: item dish id is required", ErrInvalidInput)
		}
		if item.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: item quantity must be positive", ErrInvalidInput)
		}
		dishIDs = append(dishIDs, item.DishID)
	}

	dishes, err := s.dishes.FindByIDs(ctx, dishIDs)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	items := make([]domain.OrderLineItem, 0, len(cmd.Items))
	for _, requested := range cmd.Items {
		dish, ok := dishes[strings.TrimSpace(requested.DishID)]
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: dish %s", ErrDishUnavailable, requested.DishID)
		}
		if requested.Price != dish.Price {
			return domain.Order{}, fmt.Errorf("%w: %s is priced at %d", ErrPriceMismatch, dish.Name, dish.Price)
		}
		items = append(items, domain.OrderLineItem{
			DishID:   dish.ID,
			Name:     dish.Name,
			Image:    dish.Image,
			Quantity: requested.Quantity,
			Price:    dish.Price,
		})
	}

	order := domain.Order{
		ID:            s.newID(),
		UserID:        actor.UserID,
		Items:         items,
		Delivery:      trimDelivery(cmd.Delivery),
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.TotalAmount = order.Total()

	if err := s.orders.Insert(ctx, order); err != nil {
		return domain.Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        OrderEventCreated,
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		OccurredAt:  now,
	})
	return order, nil
}

// Get loads a single order. Customers may only read their own orders;
// merchants and admins may read any order and receive the owner details.
func (s *orderService) Get(ctx context.Context, actor Actor, orderID string) (OrderDetails, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return OrderDetails{}, err
	}

	switch actor.Role {
	case domain.RoleMerchant, domain.RoleAdmin:
		return OrderDetails{Order: order, User: s.lookupOwner(ctx, order.UserID)}, nil
	default:
		if order.UserID != actor.UserID {
			return OrderDetails{}, ErrForbidden
		}
		return OrderDetails{Order: order}, nil
	}
}

// ListMine returns the customer's own orders; staff use ListAll instead.
func (s *orderService) ListMine(ctx context.Context, actor Actor) ([]domain.Order, error) {
	if err := authorize(actor, opOrderViewOwn); err != nil {
		return nil, err
	}
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	return s.orders.ListByUser(ctx, actor.UserID)
}

// ListAll returns every order with owner details for staff views.
func (s *orderService) ListAll(ctx context.Context, actor Actor) ([]OrderDetails, error) {
	if err := authorize(actor, opOrderViewAll); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]*domain.OrderUser, len(orders))
	details := make([]OrderDetails, 0, len(orders))
	for _, order := range orders {
		owner, seen := owners[order.UserID]
		if !seen {
			owner = s.lookupOwner(ctx, order.UserID)
			owners[order.UserID] = owner
		}
		details = append(details, OrderDetails{Order: order, User: owner})
	}
	return details, nil
}

// UpdateStatus sets the fulfilment status to any member of the status enum.
func (s *orderService) UpdateStatus(ctx context.Context, actor Actor, orderID string, status string) (domain.Order, error) {
	if err := authorize(actor, opOrderSetStatus); err != nil {
		return domain.Order{}, err
	}

	parsed, ok := domain.ParseOrderStatus(status)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	if err := s.orders.UpdateStatus(ctx, order.ID, parsed, now); err != nil {
		if isNotFound(err) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, err
	}

	previous := order.Status
	order.Status = parsed
	order.UpdatedAt = now

	s.publishEvent(ctx, OrderEvent{
		Type:       OrderEventStatusChanged,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(parsed),
		OccurredAt: now,
	})
	s.log(ctx, "order.status.updated", map[string]any{
		"order_id": order.ID,
		"from":     string(previous),
		"to":       string(parsed),
	})
	return order, nil
}

// UpdatePaymentStatus sets the payment status to any member of the payment enum.
func (s *orderService) UpdatePaymentStatus(ctx context.Context, actor Actor, orderID string, status string) (domain.Order, error) {
	if err := authorize(actor, opOrderSetPayment); err != nil {
		return domain.Order{}, err
	}

	parsed, ok := domain.ParsePaymentStatus(status)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	if err := s.orders.UpdatePaymentStatus(ctx, order.ID, parsed, now); err != nil {
		if isNotFound(err) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, err
	}

	order.PaymentStatus = parsed
	order.UpdatedAt = now
	return order, nil
}

// Cancel transitions the order to cancelled when its current status permits.
// Only the owning customer may cancel; the precondition is enforced atomically
// against the stored status.
func (s *orderService) Cancel(ctx context.Context, actor Actor, orderID string) (domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if actor.Role != domain.RoleCustomer || order.UserID != actor.UserID {
		return domain.Order{}, ErrForbidden
	}

	now := s.clock()
	updated, err := s.orders.UpdateStatusIfCurrent(ctx, order.ID, cancellableStatuses, domain.OrderStatusCancelled, now)
	if err != nil {
		switch {
		case isConflict(err):
			return domain.Order{}, ErrOrderNotCancellable
		case isNotFound(err):
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:       OrderEventStatusChanged,
		OrderID:    updated.ID,
		UserID:     updated.UserID,
		Status:     string(domain.OrderStatusCancelled),
		OccurredAt: now,
	})
	return updated, nil
}

// Delete hard-deletes the order record. Admin only.
func (s *orderService) Delete(ctx context.Context, actor Actor, orderID string) error {
	if err := authorize(actor, opOrderDelete); err != nil {
		return err
	}

	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	if err := s.orders.Delete(ctx, orderID); err != nil {
		if isNotFound(err) {
			return ErrOrderNotFound
		}
		return err
	}
	s.log(ctx, "order.deleted", map[string]any{"order_id": orderID})
	return nil
}

func (s *orderService) load(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	return order, nil
}

func (s *orderService) lookupOwner(ctx context.Context, userID string) *domain.OrderUser {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		// Listings stay usable when the owning account has been removed.
		s.log(ctx, "order.owner.lookup_failed", map[string]any{"user_id": userID, "error": err.Error()})
		return nil
	}
	return &domain.OrderUser{ID: user.ID, Username: user.Username, Email: user.Email}
}

// publishEvent delivers the event when a publisher is configured. Failures
// are logged, never surfaced to the caller.
func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.log(ctx, "order.event.publish_failed", map[string]any{
			"type":     event.Type,
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
	}
}

func validateDelivery(delivery domain.DeliveryInfo) error {
	fields := []struct {
		name  string
		value string
	}{
		{"address", delivery.Address},
		{"city", delivery.City},
		{"postal code", delivery.PostalCode},
		{"country", delivery.Country},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: delivery %s is required", ErrInvalidInput, field.name)
		}
	}
	return nil
}

func trimDelivery(delivery domain.DeliveryInfo) domain.DeliveryInfo {
	return domain.DeliveryInfo{
		Address:    strings.TrimSpace(delivery.Address),
		City:       strings.TrimSpace(delivery.City),
		PostalCode: strings.TrimSpace(delivery.PostalCode),
		Country:    strings.TrimSpace(delivery.Country),
	}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lantern-eats/api/internal/domain"
)

var testClock = func() time.Time {
	return time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC)
}

func newTestOrderService(t *testing.T, orders *stubOrderRepo, dishes *stubDishRepo, users *stubUserRepo, publisher OrderEventPublisher) OrderService {
	t.Helper()
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:      orders,
		Dishes:      dishes,
		Users:       users,
		Publisher:   publisher,
		Clock:       testClock,
		IDGenerator: sequentialIDs("order"),
	})
	if err != nil {
		t.Fatalf("NewOrderService returned error: %v", err)
	}
	return svc
}

func testDishes() *stubDishRepo {
	return newStubDishRepo(
		domain.Dish{ID: "dish-1", Name: "Pad Thai", Image: "pad-thai.jpg", Price: 1250, CategoryID: "cat-1"},
		domain.Dish{ID: "dish-2", Name: "Green Curry", Image: "green-curry.jpg", Price: 1400, CategoryID: "cat-1"},
	)
}

func validDelivery() domain.DeliveryInfo {
	return domain.DeliveryInfo{Address: "1 Lantern Way", City: "Springfield", PostalCode: "12345", Country: "US"}
}

func TestOrderServiceCreateSnapshotsItems(t *testing.T) {
	orders := newStubOrderRepo()
	publisher := &stubPublisher{}
	svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), publisher)

	order, err := svc.Create(context.Background(), Actor{UserID: "user-1", Role: domain.RoleCustomer}, CreateOrderCommand{
		Items: []CreateOrderItem{
			{DishID: "dish-1", Quantity: 2, Price: 1250},
			{DishID: "dish-2", Quantity: 1, Price: 1400},
		},
		Delivery: validDelivery(),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if order.TotalAmount != 2*1250+1400 {
		t.Fatalf("expected total %d, got %d", 2*1250+1400, order.TotalAmount)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected pending payment status, got %s", order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Items))
	}
	if order.Items[0].Name != "Pad Thai" || order.Items[0].Image != "pad-thai.jpg" {
		t.Fatalf("expected snapshot of dish fields, got %+v", order.Items[0])
	}

	if len(publisher.events) != 1 || publisher.events[0].Type != OrderEventCreated {
		t.Fatalf("expected one order.created event, got %+v", publisher.events)
	}

	stored, err := orders.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("order was not persisted: %v", err)
	}
	if stored.TotalAmount != order.TotalAmount {
		t.Fatalf("persisted total %d differs from returned %d", stored.TotalAmount, order.TotalAmount)
	}
}

func TestOrderServiceCreateRequiresCustomerRole(t *testing.T) {
	orders := newStubOrderRepo()
	svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

	cmd := CreateOrderCommand{
		Items:    []CreateOrderItem{{DishID: "dish-1", Quantity: 1, Price: 1250}},
		Delivery: validDelivery(),
	}
	for _, actor := range []Actor{
		{UserID: "staff-1", Role: domain.RoleMerchant},
		{UserID: "admin-1", Role: domain.RoleAdmin},
	} {
		if _, err := svc.Create(context.Background(), actor, cmd); !errors.Is(err, ErrForbidden) {
			t.Fatalf("role %s: expected ErrForbidden, got %v", actor.Role, err)
		}
	}
	if orders.count() != 0 {
		t.Fatalf("expected nothing persisted, got %d orders", orders.count())
	}
}

func TestOrderServiceListMineRequiresCustomerRole(t *testing.T) {
	svc := newTestOrderService(t, newStubOrderRepo(), testDishes(), newStubUserRepo(), nil)

	if _, err := svc.ListMine(context.Background(), Actor{UserID: "staff-1", Role: domain.RoleMerchant}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestOrderServiceCreateRequiresCompleteDelivery(t *testing.T) {
	svc := newTestOrderService(t, newStubOrderRepo(), testDishes(), newStubUserRepo(), nil)
	customer := Actor{UserID: "user-1", Role: domain.RoleCustomer}

	cases := []struct {
		name   string
		mutate func(*domain.DeliveryInfo)
	}{
		{"missing address", func(d *domain.DeliveryInfo) { d.Address = "" }},
		{"missing city", func(d *domain.DeliveryInfo) { d.City = "" }},
		{"missing postal code", func(d *domain.DeliveryInfo) { d.PostalCode = "" }},
		{"missing country", func(d *domain.DeliveryInfo) { d.Country = " " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delivery := validDelivery()
			tc.mutate(&delivery)

			_, err := svc.Create(context.Background(), customer, CreateOrderCommand{
				Items:    []CreateOrderItem{{DishID: "dish-1", Quantity: 1, Price: 1250}},
				Delivery: delivery,
			})
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestOrderServiceCreateRejectsPriceMismatch(t *testing.T) {
	svc := newTestOrderService(t, newStubOrderRepo(), testDishes(), newStubUserRepo(), nil)

	_, err := svc.Create(context.Background(), Actor{UserID: "user-1", Role: domain.RoleCustomer}, CreateOrderCommand{
		Items:    []CreateOrderItem{{DishID: "dish-1", Quantity: 1, Price: 999}},
		Delivery: validDelivery(),
	})
	if !errors.Is(err, ErrPriceMismatch) {
		t.Fatalf("expected ErrPriceMismatch, got %v", err)
	}
}

func TestOrderServiceCreateRejectsUnknownDish(t *testing.T) {
	svc := newTestOrderService(t, newStubOrderRepo(), testDishes(), newStubUserRepo(), nil)

	_, err := svc.Create(context.Background(), Actor{UserID: "user-1", Role: domain.RoleCustomer}, CreateOrderCommand{
		Items:    []CreateOrderItem{{DishID: "dish-404", Quantity: 1, Price: 1000}},
		Delivery: validDelivery(),
	})
	if !errors.Is(err, ErrDishUnavailable) {
		t.Fatalf("expected ErrDishUnavailable, got %v", err)
	}
}

func TestOrderServiceCreateRejectsEmptyOrder(t *testing.T) {
	svc := newTestOrderService(t, newStubOrderRepo(), testDishes(), newStubUserRepo(), nil)

	_, err := svc.Create(context.Background(), Actor{UserID: "user-1", Role: domain.RoleCustomer}, CreateOrderCommand{
		Delivery: validDelivery(),
	})
	if !errors.Is(err, ErrOrderEmpty) {
		t.Fatalf("expected ErrOrderEmpty, got %v", err)
	}
}

func TestOrderServiceGetForbidsForeignOrdersForCustomers(t *testing.T) {
	orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending})
	svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

	if _, err := svc.Get(context.Background(), Actor{UserID: "user-2", Role: domain.RoleCustomer}, "order-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign order, got %v", err)
	}

	details, err := svc.Get(context.Background(), Actor{UserID: "user-1", Role: domain.RoleCustomer}, "order-1")
	if err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if details.Order.ID != "order-1" {
		t.Fatalf("expected order-1, got %s", details.Order.ID)
	}
}

func TestOrderServiceGetAttachesOwnerForStaff(t *testing.T) {
	orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending})
	users := newStubUserRepo(domain.User{ID: "user-1", Username: "alice", Email: "alice@example.com"})
	svc := newTestOrderService(t, orders, testDishes(), users, nil)

	details, err := svc.Get(context.Background(), Actor{UserID: "staff-1", Role: domain.RoleMerchant}, "order-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if details.User == nil || details.User.Username != "alice" {
		t.Fatalf("expected owner details attached, got %+v", details.User)
	}
}

func TestOrderServiceListAllRequiresStaffRole(t *testing.T) {
	svc := newTestOrderService(t, newStubOrderRepo(), testDishes(), newStubUserRepo(), nil)

	if _, err := svc.ListAll(context.Background(), Actor{UserID: "user-1", Role: domain.RoleCustomer}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestOrderServiceUpdateStatus(t *testing.T) {
	orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending})
	publisher := &stubPublisher{}
	svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), publisher)
	staff := Actor{UserID: "staff-1", Role: domain.RoleMerchant}

	t.Run("accepts any enum member", func(t *testing.T) {
		order, err := svc.UpdateStatus(context.Background(), staff, "order-1", "shipping")
		if err != nil {
			t.Fatalf("UpdateStatus returned error: %v", err)
		}
		if order.Status != domain.OrderStatusShipping {
			t.Fatalf("expected shipping, got %s", order.Status)
		}
		if len(publisher.events) != 1 || publisher.events[0].Type != OrderEventStatusChanged {
			t.Fatalf("expected status changed event, got %+v", publisher.events)
		}
	})

	t.Run("rejects values outside the enum", func(t *testing.T) {
		if _, err := svc.UpdateStatus(context.Background(), staff, "order-1", "teleported"); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
	})

	t.Run("rejects customers", func(t *testing.T) {
		customer := Actor{UserID: "user-1", Role: domain.RoleCustomer}
		if _, err := svc.UpdateStatus(context.Background(), customer, "order-1", "completed"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestOrderServiceUpdatePaymentStatus(t *testing.T) {
	orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending})
	svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

	order, err := svc.UpdatePaymentStatus(context.Background(), Actor{UserID: "staff-1", Role: domain.RoleAdmin}, "order-1", "paid")
	if err != nil {
		t.Fatalf("UpdatePaymentStatus returned error: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", order.PaymentStatus)
	}

	if _, err := svc.UpdatePaymentStatus(context.Background(), Actor{UserID: "staff-1", Role: domain.RoleAdmin}, "order-1", "chargeback"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if _, err := svc.UpdatePaymentStatus(context.Background(), Actor{UserID: "staff-2", Role: domain.RoleMerchant}, "order-1", "refunded"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for merchant, got %v", err)
	}
}

func TestOrderServiceCancel(t *testing.T) {
	customer := Actor{UserID: "user-1", Role: domain.RoleCustomer}

	t.Run("cancels pending orders", func(t *testing.T) {
		orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending})
		svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

		order, err := svc.Cancel(context.Background(), customer, "order-1")
		if err != nil {
			t.Fatalf("Cancel returned error: %v", err)
		}
		if order.Status != domain.OrderStatusCancelled {
			t.Fatalf("expected cancelled, got %s", order.Status)
		}
	})

	t.Run("rejects shipping orders", func(t *testing.T) {
		orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusShipping})
		svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

		if _, err := svc.Cancel(context.Background(), customer, "order-1"); !errors.Is(err, ErrOrderNotCancellable) {
			t.Fatalf("expected ErrOrderNotCancellable, got %v", err)
		}
	})

	t.Run("rejects completed orders", func(t *testing.T) {
		orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusCompleted})
		svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

		if _, err := svc.Cancel(context.Background(), customer, "order-1"); !errors.Is(err, ErrOrderNotCancellable) {
			t.Fatalf("expected ErrOrderNotCancellable, got %v", err)
		}
	})

	t.Run("forbids foreign orders regardless of status", func(t *testing.T) {
		orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-2", Status: domain.OrderStatusPending})
		svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

		if _, err := svc.Cancel(context.Background(), customer, "order-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("forbids staff roles", func(t *testing.T) {
		orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-2", Status: domain.OrderStatusProcessing})
		svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

		if _, err := svc.Cancel(context.Background(), Actor{UserID: "staff-1", Role: domain.RoleAdmin}, "order-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestOrderServiceDelete(t *testing.T) {
	admin := Actor{UserID: "staff-1", Role: domain.RoleAdmin}

	t.Run("admin hard-deletes the order", func(t *testing.T) {
		orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusCompleted})
		svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

		if err := svc.Delete(context.Background(), admin, "order-1"); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if _, err := orders.FindByID(context.Background(), "order-1"); err == nil {
			t.Fatal("expected order to be removed")
		}
	})

	t.Run("rejects merchants and customers", func(t *testing.T) {
		orders := newStubOrderRepo(domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending})
		svc := newTestOrderService(t, orders, testDishes(), newStubUserRepo(), nil)

		if err := svc.Delete(context.Background(), Actor{UserID: "staff-1", Role: domain.RoleMerchant}, "order-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden for merchant, got %v", err)
		}
		if err := svc.Delete(context.Background(), Actor{UserID: "user-1", Role: domain.RoleCustomer}, "order-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden for customer, got %v", err)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		svc := newTestOrderService(t, newStubOrderRepo(), testDishes(), newStubUserRepo(), nil)

		if err := svc.Delete(context.Background(), admin, "order-404"); !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestOrderServiceLifecycleFlow(t *testing.T) {
	orders := newStubOrderRepo()
	dishes := newStubDishRepo(
		domain.Dish{ID: "dish-pork", Name: "Braised Pork", Price: 58, CategoryID: "cat-1"},
		domain.Dish{ID: "dish-cola", Name: "Cola", Price: 8, CategoryID: "cat-2"},
	)
	svc := newTestOrderService(t, orders, dishes, newStubUserRepo(), nil)
	customer := Actor{UserID: "user-1", Role: domain.RoleCustomer}
	merchant := Actor{UserID: "staff-1", Role: domain.RoleMerchant}

	order, err := svc.Create(context.Background(), customer, CreateOrderCommand{
		Items: []CreateOrderItem{
			{DishID: "dish-pork", Quantity: 2, Price: 58},
			{DishID: "dish-cola", Quantity: 1, Price: 8},
		},
		Delivery: validDelivery(),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if order.TotalAmount != 124 {
		t.Fatalf("expected total 124, got %d", order.TotalAmount)
	}

	details, err := svc.Get(context.Background(), customer, order.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if details.Order.Status != domain.OrderStatusPending || details.Order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected fresh order pending/pending, got %s/%s", details.Order.Status, details.Order.PaymentStatus)
	}

	if _, err := svc.UpdateStatus(context.Background(), merchant, order.ID, "shipping"); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	// Once the merchant ships, the customer can no longer back out.
	if _, err := svc.Cancel(context.Background(), customer, order.ID); !errors.Is(err, ErrOrderNotCancellable) {
		t.Fatalf("expected ErrOrderNotCancellable after shipping, got %v", err)
	}
}

func TestOrderServiceCreateSucceedsWhenPublisherFails(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("broker down")}
	svc := newTestOrderService(t, newStubOrderRepo(), testDishes(), newStubUserRepo(), publisher)

	if _, err := svc.Create(context.Background(), Actor{UserID: "user-1", Role: domain.RoleCustomer}, CreateOrderCommand{
		Items:    []CreateOrderItem{{DishID: "dish-1", Quantity: 1, Price: 1250}},
		Delivery: validDelivery(),
	}); err != nil {
		t.Fatalf("expected create to succeed despite publish failure, got %v", err)
	}
}

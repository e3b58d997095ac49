package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/lantern-eats/api/internal/domain"
	pfirestore "github.com/lantern-eats/api/internal/platform/firestore"
)

const orderCollection = "orders"

// OrderRepository persists orders and their line item snapshots in Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{base: base, provider: provider}, nil
}

// Insert creates the order document.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}
	_, err := r.base.Create(ctx, order.ID, fromDomainOrder(order))
	return err
}

// Delete hard-deletes the order document, failing when it does not exist.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order id is required")
	}
	_, err := r.base.Delete(ctx, orderID, firestore.Exists)
	return err
}

// FindByID loads an order by document ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(doc.ID, doc.Data), nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return toDomainOrders(docs), nil
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return toDomainOrders(docs), nil
}

// UpdateStatus mutates only the status and updatedAt fields.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	_, err := r.base.Update(ctx, orderID, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	return err
}

// UpdatePaymentStatus mutates only the payment status and updatedAt fields.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, updatedAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	_, err := r.base.Update(ctx, orderID, []firestore.Update{
		{Path: "paymentStatus", Value: string(status)},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	return err
}

// UpdateStatusIfCurrent transitions the order to the new status inside a
// transaction, only when the stored status is one of the allowed values.
func (r *OrderRepository) UpdateStatusIfCurrent(ctx context.Context, orderID string, allowed []domain.OrderStatus, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}

	var updated domain.Order
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef, err := r.base.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		doc, err := r.base.Decode(ctx, snap)
		if err != nil {
			return err
		}

		current, _ := domain.ParseOrderStatus(doc.Data.Status)
		if !statusIn(current, allowed) {
			return pfirestore.NewConflictError("orders.updateStatusIfCurrent",
				fmt.Errorf("order status %q does not permit transition to %q", current, status))
		}

		if err := tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: string(status)},
			{Path: "updatedAt", Value: updatedAt.UTC()},
		}); err != nil {
			return err
		}

		updated = toDomainOrder(doc.ID, doc.Data)
		updated.Status = status
		updated.UpdatedAt = updatedAt.UTC()
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// ListCreatedSince returns orders created at or after the given instant, newest first.
func (r *OrderRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("createdAt", ">=", since.UTC()).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return toDomainOrders(docs), nil
}

func statusIn(status domain.OrderStatus, allowed []domain.OrderStatus) bool {
	for _, candidate := range allowed {
		if status == candidate {
			return true
		}
	}
	return false
}

type orderDocument struct {
	UserID        string              `firestore:"userId"`
	Items         []orderItemDocument `firestore:"items"`
	TotalAmount   int64               `firestore:"totalAmount"`
	Delivery      deliveryDocument    `firestore:"deliveryInfo"`
	Status        string              `firestore:"status"`
	PaymentStatus string              `firestore:"paymentStatus"`
	CreatedAt     time.Time           `firestore:"createdAt"`
	UpdatedAt     time.Time           `firestore:"updatedAt"`
}

type orderItemDocument struct {
	DishID   string `firestore:"dishId"`
	Name     string `firestore:"name"`
	Image    string `firestore:"image"`
	Quantity int    `firestore:"quantity"`
	Price    int64  `firestore:"price"`
}

type deliveryDocument struct {
	Address    string `firestore:"address"`
	City       string `firestore:"city"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
}

func toDomainOrders(docs []pfirestore.Document[orderDocument]) []domain.Order {
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc.ID, doc.Data))
	}
	return orders
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	status, _ := domain.ParseOrderStatus(doc.Status)
	paymentStatus, _ := domain.ParsePaymentStatus(doc.PaymentStatus)

	items := make([]domain.OrderLineItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.OrderLineItem{
			DishID:   item.DishID,
			Name:     item.Name,
			Image:    item.Image,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return domain.Order{
		ID:          id,
		UserID:      doc.UserID,
		Items:       items,
		TotalAmount: doc.TotalAmount,
		Delivery: domain.DeliveryInfo{
			Address:    doc.Delivery.Address,
			City:       doc.Delivery.City,
			PostalCode: doc.Delivery.PostalCode,
			Country:    doc.Delivery.Country,
		},
		Status:        status,
		PaymentStatus: paymentStatus,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func fromDomainOrder(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			DishID:   item.DishID,
			Name:     item.Name,
			Image:    item.Image,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return orderDocument{
		UserID:      strings.TrimSpace(order.UserID),
		Items:       items,
		TotalAmount: order.TotalAmount,
		Delivery: deliveryDocument{
			Address:    strings.TrimSpace(order.Delivery.Address),
			City:       strings.TrimSpace(order.Delivery.City),
			PostalCode: strings.TrimSpace(order.Delivery.PostalCode),
			Country:    strings.TrimSpace(order.Delivery.Country),
		},
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt.UTC(),
		UpdatedAt:     order.UpdatedAt.UTC(),
	}
}

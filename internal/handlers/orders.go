package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/platform/httpx"
	"github.com/lantern-eats/api/internal/services"
)

// OrderHandlers serves the order lifecycle endpoints. Every route requires
// authentication; customer-only and staff-only routes additionally enforce
// role middleware.
type OrderHandlers struct {
	orders          services.OrderService
	requireAuth     func(http.Handler) http.Handler
	requireCustomer func(http.Handler) http.Handler
	requireStaff    func(http.Handler) http.Handler
}

// NewOrderHandlers constructs the order handlers.
func NewOrderHandlers(orders services.OrderService, requireAuth, requireCustomer, requireStaff func(http.Handler) http.Handler) *OrderHandlers {
	return &OrderHandlers{
		orders:          orders,
		requireAuth:     requireAuth,
		requireCustomer: requireCustomer,
		requireStaff:    requireStaff,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.requireAuth != nil {
		r.Use(h.requireAuth)
	}

	r.Get("/{orderID}", h.getOrder)

	r.Group(func(customer chi.Router) {
		if h.requireCustomer != nil {
			customer.Use(h.requireCustomer)
		}
		customer.Post("/", h.createOrder)
		customer.Get("/myorders", h.listMyOrders)
		customer.Patch("/{orderID}/cancel", h.cancelOrder)
	})

	r.Group(func(staff chi.Router) {
		if h.requireStaff != nil {
			staff.Use(h.requireStaff)
		}
		staff.Get("/", h.listAllOrders)
		staff.Put("/{orderID}/status", h.updateStatus)
		staff.Put("/{orderID}/paymentStatus", h.updatePaymentStatus)
		staff.Delete("/{orderID}", h.deleteOrder)
	})
}

type createOrderPayload struct {
	Items    []orderItemRequestPayload `json:"items"`
	Delivery deliveryPayload           `json:"deliveryInfo"`
}

type orderItemRequestPayload struct {
	DishID   string `json:"dishId"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type deliveryPayload struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type statusUpdatePayload struct {
	Status string `json:"status"`
}

type orderPayload struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	Items         []orderItemPayload `json:"items"`
	TotalAmount   int64              `json:"totalAmount"`
	Delivery      deliveryPayload    `json:"deliveryInfo"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"paymentStatus"`
	CreatedAt     string             `json:"createdAt,omitempty"`
	UpdatedAt     string             `json:"updatedAt,omitempty"`
	User          *orderUserPayload  `json:"user,omitempty"`
}

type orderItemPayload struct {
	DishID   string `json:"dishId"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type orderUserPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var payload createOrderPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	items := make([]services.CreateOrderItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, services.CreateOrderItem{
			DishID:   item.DishID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	order, err := h.orders.Create(ctx, actor, services.CreateOrderCommand{
		Items: items,
		Delivery: domain.DeliveryInfo{
			Address:    payload.Delivery.Address,
			City:       payload.Delivery.City,
			PostalCode: payload.Delivery.PostalCode,
			Country:    payload.Delivery.Country,
		},
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order, nil))
}

func (h *OrderHandlers) listMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	orders, err := h.orders.ListMine(ctx, actor)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order, nil))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": payload})
}

func (h *OrderHandlers) listAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	details, err := h.orders.ListAll(ctx, actor)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(details))
	for _, detail := range details {
		payload = append(payload, buildOrderPayload(detail.Order, detail.User))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": payload})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	details, err := h.orders.Get(ctx, actor, chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(details.Order, details.User))
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	order, err := h.orders.Cancel(ctx, actor, chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order, nil))
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	if err := h.orders.Delete(ctx, actor, chi.URLParam(r, "orderID")); err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	h.applyStatusUpdate(w, r, func(ctx context.Context, actor services.Actor, orderID, status string) (domain.Order, error) {
		return h.orders.UpdateStatus(ctx, actor, orderID, status)
	})
}

func (h *OrderHandlers) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	h.applyStatusUpdate(w, r, func(ctx context.Context, actor services.Actor, orderID, status string) (domain.Order, error) {
		return h.orders.UpdatePaymentStatus(ctx, actor, orderID, status)
	})
}

func (h *OrderHandlers) applyStatusUpdate(w http.ResponseWriter, r *http.Request, apply func(context.Context, services.Actor, string, string) (domain.Order, error)) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var payload statusUpdatePayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	order, err := apply(ctx, actor, chi.URLParam(r, "orderID"), payload.Status)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order, nil))
}

func buildOrderPayload(order domain.Order, owner *domain.OrderUser) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			DishID:   item.DishID,
			Name:     item.Name,
			Image:    item.Image,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	payload := orderPayload{
		ID:          order.ID,
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		Delivery: deliveryPayload{
			Address:    order.Delivery.Address,
			City:       order.Delivery.City,
			PostalCode: order.Delivery.PostalCode,
			Country:    order.Delivery.Country,
		},
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     formatTime(order.CreatedAt),
		UpdatedAt:     formatTime(order.UpdatedAt),
	}
	if owner != nil {
		payload.User = &orderUserPayload{
			ID:       owner.ID,
			Username: owner.Username,
			Email:    owner.Email,
		}
	}
	return payload
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrOrderEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "insufficient role", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrDishUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("dish_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrPriceMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("price_mismatch", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInvalidStatus):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_status", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotCancellable):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_cancellable", "order status does not permit cancellation", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/platform/httpx"
	"github.com/lantern-eats/api/internal/services"
)

// DishHandlers serves the dish endpoints. Reads are public, mutations require
// a staff role.
type DishHandlers struct {
	catalog      services.CatalogService
	requireStaff []func(http.Handler) http.Handler
}

// NewDishHandlers constructs the dish handlers.
func NewDishHandlers(catalog services.CatalogService, requireStaff ...func(http.Handler) http.Handler) *DishHandlers {
	return &DishHandlers{catalog: catalog, requireStaff: requireStaff}
}

// Routes registers the /dishes endpoints.
func (h *DishHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listDishes)
	r.Get("/{dishID}", h.getDish)

	r.Group(func(staff chi.Router) {
		for _, mw := range h.requireStaff {
			if mw != nil {
				staff.Use(mw)
			}
		}
		staff.Post("/", h.createDish)
		staff.Put("/{dishID}", h.updateDish)
		staff.Delete("/{dishID}", h.deleteDish)
	})
}

type dishRequestPayload struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Price         int64  `json:"price"`
	OriginalPrice *int64 `json:"originalPrice,omitempty"`
	CategoryID    string `json:"categoryId"`
	Image         string `json:"image,omitempty"`
	Featured      bool   `json:"featured,omitempty"`
}

type dishPayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Price         int64  `json:"price"`
	OriginalPrice *int64 `json:"originalPrice,omitempty"`
	CategoryID    string `json:"categoryId"`
	Image         string `json:"image,omitempty"`
	Featured      bool   `json:"featured"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

func (h *DishHandlers) listDishes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	filter := services.DishFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "featured must be a boolean", http.StatusBadRequest))
			return
		}
		filter.Featured = &featured
	}

	dishes, err := h.catalog.ListDishes(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]dishPayload, 0, len(dishes))
	for _, dish := range dishes {
		payload = append(payload, buildDishPayload(dish))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"dishes": payload})
}

func (h *DishHandlers) getDish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	dish, err := h.catalog.GetDish(ctx, chi.URLParam(r, "dishID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildDishPayload(dish))
}

func (h *DishHandlers) createDish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var payload dishRequestPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	dish, err := h.catalog.CreateDish(ctx, actor, buildDishCommand(payload))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildDishPayload(dish))
}

func (h *DishHandlers) updateDish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var payload dishRequestPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	dish, err := h.catalog.UpdateDish(ctx, actor, chi.URLParam(r, "dishID"), buildDishCommand(payload))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildDishPayload(dish))
}

func (h *DishHandlers) deleteDish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	if err := h.catalog.DeleteDish(ctx, actor, chi.URLParam(r, "dishID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusNoContent, nil)
}

func buildDishCommand(payload dishRequestPayload) services.DishCommand {
	return services.DishCommand{
		Name:          payload.Name,
		Description:   payload.Description,
		Price:         payload.Price,
		OriginalPrice: payload.OriginalPrice,
		CategoryID:    payload.CategoryID,
		Image:         payload.Image,
		Featured:      payload.Featured,
	}
}

func buildDishPayload(dish domain.Dish) dishPayload {
	return dishPayload{
		ID:            dish.ID,
		Name:          dish.Name,
		Description:   dish.Description,
		Price:         dish.Price,
		OriginalPrice: dish.OriginalPrice,
		CategoryID:    dish.CategoryID,
		Image:         dish.Image,
		Featured:      dish.Featured,
		CreatedAt:     formatTime(dish.CreatedAt),
		UpdatedAt:     formatTime(dish.UpdatedAt),
	}
}

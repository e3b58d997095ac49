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

// CategoryHandlers serves the menu category endpoints. Reads are public,
// mutations are admin territory.
type CategoryHandlers struct {
	catalog      services.CatalogService
	requireAdmin []func(http.Handler) http.Handler
}

// NewCategoryHandlers constructs the category handlers.
func NewCategoryHandlers(catalog services.CatalogService, requireAdmin ...func(http.Handler) http.Handler) *CategoryHandlers {
	return &CategoryHandlers{catalog: catalog, requireAdmin: requireAdmin}
}

// Routes registers the /categories endpoints.
func (h *CategoryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listCategories)
	r.Get("/{categoryID}", h.getCategory)

	r.Group(func(admin chi.Router) {
		for _, mw := range h.requireAdmin {
			if mw != nil {
				admin.Use(mw)
			}
		}
		admin.Post("/", h.createCategory)
		admin.Put("/{categoryID}", h.updateCategory)
		admin.Delete("/{categoryID}", h.deleteCategory)
	})
}

type categoryRequestPayload struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type categoryPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func (h *CategoryHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]categoryPayload, 0, len(categories))
	for _, category := range categories {
		payload = append(payload, buildCategoryPayload(category))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"categories": payload})
}

func (h *CategoryHandlers) getCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	category, err := h.catalog.GetCategory(ctx, chi.URLParam(r, "categoryID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCategoryPayload(category))
}

func (h *CategoryHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var payload categoryRequestPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	category, err := h.catalog.CreateCategory(ctx, actor, services.CategoryCommand{
		Name:  payload.Name,
		Image: payload.Image,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildCategoryPayload(category))
}

func (h *CategoryHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var payload categoryRequestPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	category, err := h.catalog.UpdateCategory(ctx, actor, chi.URLParam(r, "categoryID"), services.CategoryCommand{
		Name:  payload.Name,
		Image: payload.Image,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCategoryPayload(category))
}

func (h *CategoryHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	if err := h.catalog.DeleteCategory(ctx, actor, chi.URLParam(r, "categoryID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusNoContent, nil)
}

func buildCategoryPayload(category domain.Category) categoryPayload {
	return categoryPayload{
		ID:        category.ID,
		Name:      category.Name,
		Image:     category.Image,
		CreatedAt: formatTime(category.CreatedAt),
		UpdatedAt: formatTime(category.UpdatedAt),
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "insufficient role", http.StatusForbidden))
	case errors.Is(err, services.ErrCategoryNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("category_not_found", "category not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCategoryNameTaken):
		httpx.WriteError(ctx, w, httpx.NewError("category_name_taken", "category name already in use", http.StatusConflict))
	case errors.Is(err, services.ErrCategoryInUse):
		httpx.WriteError(ctx, w, httpx.NewError("category_in_use", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrDishNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("dish_not_found", "dish not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}

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

// AuthHandlers serves registration, login and profile endpoints.
type AuthHandlers struct {
	auth        services.AuthService
	requireAuth func(http.Handler) http.Handler
}

// NewAuthHandlers constructs the auth handlers.
func NewAuthHandlers(auth services.AuthService, requireAuth func(http.Handler) http.Handler) *AuthHandlers {
	return &AuthHandlers{auth: auth, requireAuth: requireAuth}
}

// Routes registers the /auth endpoints.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(authed chi.Router) {
		if h.requireAuth != nil {
			authed.Use(h.requireAuth)
		}
		authed.Get("/me", h.profile)
	})
}

type registerPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type authResponsePayload struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload registerPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.auth.Register(ctx, services.RegisterCommand{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	})
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildAuthResponse(result))
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload loginPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.auth.Login(ctx, services.LoginCommand{
		Identifier: payload.Identifier,
		Password:   payload.Password,
	})
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildAuthResponse(result))
}

func (h *AuthHandlers) profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service unavailable", http.StatusServiceUnavailable))
		return
	}

	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	user, err := h.auth.Profile(ctx, actor.UserID)
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildUserPayload(user))
}

func buildAuthResponse(result services.AuthResult) authResponsePayload {
	return authResponsePayload{
		Token: result.Token,
		User:  buildUserPayload(result.User),
	}
}

func buildUserPayload(user domain.User) userPayload {
	return userPayload{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: formatTime(user.CreatedAt),
	}
}

func writeAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid credentials", http.StatusUnauthorized))
	case errors.Is(err, services.ErrAccountExists):
		httpx.WriteError(ctx, w, httpx.NewError("account_exists", "an account with these details already exists", http.StatusConflict))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("auth_error", "failed to process auth request", http.StatusInternalServerError))
	}
}

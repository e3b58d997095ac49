package handlers

import (
	"context"
	"net/http"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/platform/auth"
	"github.com/lantern-eats/api/internal/services"
)

// identityMiddleware injects a fixed identity, standing in for token
// verification in tests.
func identityMiddleware(identity auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), &identity)))
		})
	}
}

func requireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	return auth.RequireRoles(roles...)
}

type stubAuthService struct {
	registerResult services.AuthResult
	registerErr    error
	registerCmd    services.RegisterCommand

	loginResult services.AuthResult
	loginErr    error
	loginCmd    services.LoginCommand

	profileUser domain.User
	profileErr  error
	profileID   string
}

func (s *stubAuthService) Register(_ context.Context, cmd services.RegisterCommand) (services.AuthResult, error) {
	s.registerCmd = cmd
	return s.registerResult, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, cmd services.LoginCommand) (services.AuthResult, error) {
	s.loginCmd = cmd
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) Profile(_ context.Context, userID string) (domain.User, error) {
	s.profileID = userID
	return s.profileUser, s.profileErr
}

type stubCatalogService struct {
	categories []domain.Category
	category   domain.Category
	dishes     []domain.Dish
	dish       domain.Dish
	err        error

	lastFilter      services.DishFilter
	lastDishCmd     services.DishCommand
	lastCategoryCmd services.CategoryCommand
	deletedID       string
}

func (s *stubCatalogService) ListCategories(context.Context) ([]domain.Category, error) {
	return s.categories, s.err
}

func (s *stubCatalogService) GetCategory(context.Context, string) (domain.Category, error) {
	return s.category, s.err
}

func (s *stubCatalogService) CreateCategory(_ context.Context, _ services.Actor, cmd services.CategoryCommand) (domain.Category, error) {
	s.lastCategoryCmd = cmd
	return s.category, s.err
}

func (s *stubCatalogService) UpdateCategory(_ context.Context, _ services.Actor, _ string, cmd services.CategoryCommand) (domain.Category, error) {
	s.lastCategoryCmd = cmd
	return s.category, s.err
}

func (s *stubCatalogService) DeleteCategory(_ context.Context, _ services.Actor, categoryID string) error {
	s.deletedID = categoryID
	return s.err
}

func (s *stubCatalogService) ListDishes(_ context.Context, filter services.DishFilter) ([]domain.Dish, error) {
	s.lastFilter = filter
	return s.dishes, s.err
}

func (s *stubCatalogService) GetDish(context.Context, string) (domain.Dish, error) {
	return s.dish, s.err
}

func (s *stubCatalogService) CreateDish(_ context.Context, _ services.Actor, cmd services.DishCommand) (domain.Dish, error) {
	s.lastDishCmd = cmd
	return s.dish, s.err
}

func (s *stubCatalogService) UpdateDish(_ context.Context, _ services.Actor, _ string, cmd services.DishCommand) (domain.Dish, error) {
	s.lastDishCmd = cmd
	return s.dish, s.err
}

func (s *stubCatalogService) DeleteDish(_ context.Context, _ services.Actor, dishID string) error {
	s.deletedID = dishID
	return s.err
}

type stubOrderService struct {
	order   domain.Order
	details services.OrderDetails
	mine    []domain.Order
	all     []services.OrderDetails
	err     error

	lastActor   services.Actor
	lastOrderID string
	lastStatus  string
	lastCreate  services.CreateOrderCommand
}

func (s *stubOrderService) Create(_ context.Context, actor services.Actor, cmd services.CreateOrderCommand) (domain.Order, error) {
	s.lastActor = actor
	s.lastCreate = cmd
	return s.order, s.err
}

func (s *stubOrderService) Get(_ context.Context, actor services.Actor, orderID string) (services.OrderDetails, error) {
	s.lastActor = actor
	s.lastOrderID = orderID
	return s.details, s.err
}

func (s *stubOrderService) ListMine(_ context.Context, actor services.Actor) ([]domain.Order, error) {
	s.lastActor = actor
	return s.mine, s.err
}

func (s *stubOrderService) ListAll(_ context.Context, actor services.Actor) ([]services.OrderDetails, error) {
	s.lastActor = actor
	return s.all, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, actor services.Actor, orderID, status string) (domain.Order, error) {
	s.lastActor = actor
	s.lastOrderID = orderID
	s.lastStatus = status
	return s.order, s.err
}

func (s *stubOrderService) UpdatePaymentStatus(_ context.Context, actor services.Actor, orderID, status string) (domain.Order, error) {
	s.lastActor = actor
	s.lastOrderID = orderID
	s.lastStatus = status
	return s.order, s.err
}

func (s *stubOrderService) Cancel(_ context.Context, actor services.Actor, orderID string) (domain.Order, error) {
	s.lastActor = actor
	s.lastOrderID = orderID
	return s.order, s.err
}

func (s *stubOrderService) Delete(_ context.Context, actor services.Actor, orderID string) error {
	s.lastActor = actor
	s.lastOrderID = orderID
	return s.err
}

type stubDashboardService struct {
	stats services.DashboardStats
	err   error
}

func (s *stubDashboardService) Stats(context.Context, services.Actor) (services.DashboardStats, error) {
	return s.stats, s.err
}

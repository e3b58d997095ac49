package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/repositories"
)

type stubRepoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return "stub repository error"
}

func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

var (
	errStubNotFound = stubRepoError{notFound: true}
	errStubConflict = stubRepoError{conflict: true}
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newStubUserRepo(users ...domain.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *stubUserRepo) Insert(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return errStubConflict
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, userID string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.User{}, errStubNotFound
	}
	return user, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, errStubNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, errStubNotFound
}

func (r *stubUserRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *stubUserRepo) CountNonAdmin(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, user := range r.users {
		if user.Role != domain.RoleAdmin {
			count++
		}
	}
	return count, nil
}

type stubCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]domain.Category
}

func newStubCategoryRepo(categories ...domain.Category) *stubCategoryRepo {
	repo := &stubCategoryRepo{categories: make(map[string]domain.Category)}
	for _, category := range categories {
		repo.categories[category.ID] = category
	}
	return repo
}

func (r *stubCategoryRepo) Insert(_ context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.ID]; ok {
		return errStubConflict
	}
	r.categories[category.ID] = category
	return nil
}

func (r *stubCategoryRepo) Update(_ context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.ID]; !ok {
		return errStubNotFound
	}
	r.categories[category.ID] = category
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[categoryID]; !ok {
		return errStubNotFound
	}
	delete(r.categories, categoryID)
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, categoryID string) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[categoryID]
	if !ok {
		return domain.Category{}, errStubNotFound
	}
	return category, nil
}

func (r *stubCategoryRepo) FindByName(_ context.Context, name string) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, category := range r.categories {
		if category.Name == name {
			return category, nil
		}
	}
	return domain.Category{}, errStubNotFound
}

func (r *stubCategoryRepo) ListAll(context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Category, 0, len(r.categories))
	for _, category := range r.categories {
		out = append(out, category)
	}
	return out, nil
}

type stubDishRepo struct {
	mu        sync.Mutex
	dishes    map[string]domain.Dish
	listCalls int
}

func newStubDishRepo(dishes ...domain.Dish) *stubDishRepo {
	repo := &stubDishRepo{dishes: make(map[string]domain.Dish)}
	for _, dish := range dishes {
		repo.dishes[dish.ID] = dish
	}
	return repo
}

func (r *stubDishRepo) Insert(_ context.Context, dish domain.Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dishes[dish.ID]; ok {
		return errStubConflict
	}
	r.dishes[dish.ID] = dish
	return nil
}

func (r *stubDishRepo) Update(_ context.Context, dish domain.Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dishes[dish.ID]; !ok {
		return errStubNotFound
	}
	r.dishes[dish.ID] = dish
	return nil
}

func (r *stubDishRepo) Delete(_ context.Context, dishID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dishes[dishID]; !ok {
		return errStubNotFound
	}
	delete(r.dishes, dishID)
	return nil
}

func (r *stubDishRepo) FindByID(_ context.Context, dishID string) (domain.Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dish, ok := r.dishes[dishID]
	if !ok {
		return domain.Dish{}, errStubNotFound
	}
	return dish, nil
}

func (r *stubDishRepo) FindByIDs(_ context.Context, dishIDs []string) (map[string]domain.Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.Dish)
	for _, id := range dishIDs {
		if dish, ok := r.dishes[id]; ok {
			out[id] = dish
		}
	}
	return out, nil
}

func (r *stubDishRepo) List(_ context.Context, filter repositories.DishListFilter) ([]domain.Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++

	out := make([]domain.Dish, 0, len(r.dishes))
	for _, dish := range r.dishes {
		if filter.CategoryID != "" && dish.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Featured != nil && dish.Featured != *filter.Featured {
			continue
		}
		out = append(out, dish)
	}
	return out, nil
}

func (r *stubDishRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.dishes)), nil
}

func (r *stubDishRepo) CountByCategory(_ context.Context, categoryID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, dish := range r.dishes {
		if dish.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newStubOrderRepo(orders ...domain.Order) *stubOrderRepo {
	repo := &stubOrderRepo{orders: make(map[string]domain.Order)}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (r *stubOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func (r *stubOrderRepo) Insert(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; ok {
		return errStubConflict
	}
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) Delete(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[orderID]; !ok {
		return errStubNotFound
	}
	delete(r.orders, orderID)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, errStubNotFound
	}
	return order, nil
}

func (r *stubOrderRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) ListAll(context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		out = append(out, order)
	}
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return errStubNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	r.orders[orderID] = order
	return nil
}

func (r *stubOrderRepo) UpdateStatusIfCurrent(_ context.Context, orderID string, allowed []domain.OrderStatus, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, errStubNotFound
	}
	permitted := false
	for _, candidate := range allowed {
		if order.Status == candidate {
			permitted = true
			break
		}
	}
	if !permitted {
		return domain.Order{}, errStubConflict
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	r.orders[orderID] = order
	return order, nil
}

func (r *stubOrderRepo) UpdatePaymentStatus(_ context.Context, orderID string, status domain.PaymentStatus, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return errStubNotFound
	}
	order.PaymentStatus = status
	order.UpdatedAt = updatedAt
	r.orders[orderID] = order
	return nil
}

func (r *stubOrderRepo) ListCreatedSince(_ context.Context, since time.Time) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, order := range r.orders {
		if !order.CreatedAt.Before(since) {
			out = append(out, order)
		}
	}
	return out, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
}

func (p *stubPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "msg-1", nil
}

type stubTokenIssuer struct{ token string }

func (s stubTokenIssuer) Issue(domain.User) (string, error) {
	if s.token == "" {
		return "token", nil
	}
	return s.token, nil
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

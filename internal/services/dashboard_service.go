package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/repositories"
)

const revenueSeriesDays = 7

// DashboardServiceDeps bundles constructor inputs for the dashboard service.
type DashboardServiceDeps struct {
	Orders repositories.OrderRepository
	Dishes repositories.DishRepository
	Users  repositories.UserRepository
	Clock  func() time.Time
}

type dashboardService struct {
	orders repositories.OrderRepository
	dishes repositories.DishRepository
	users  repositories.UserRepository
	clock  func() time.Time
}

// NewDashboardService constructs the dashboard service with the supplied dependencies.
func NewDashboardService(deps DashboardServiceDeps) (DashboardService, error) {
	if deps.Orders == nil {
		return nil, errors.New("dashboard service: order repository is required")
	}
	if deps.Dishes == nil {
		return nil, errors.New("dashboard service: dish repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("dashboard service: user repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &dashboardService{
		orders: deps.Orders,
		dishes: deps.Dishes,
		users:  deps.Users,
		clock:  func() time.Time { return clock().UTC() },
	}, nil
}

// Stats aggregates the dashboard snapshot:
//   - today's order count, cancelled orders excluded
//   - today's revenue over paid, non-cancelled orders
//   - dish total and non-admin user total
//   - a zero-filled 7-day paid revenue series labelled MM-DD, oldest day first
//   - the five dishes with the highest total quantity across paid orders
func (s *dashboardService) Stats(ctx context.Context, actor Actor) (DashboardStats, error) {
	if err := authorize(actor, opDashboardView); err != nil {
		return DashboardStats{}, err
	}

	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	totalDishes, err := s.dishes.Count(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	totalUsers, err := s.users.CountNonAdmin(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	now := s.clock()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	seriesStart := startOfToday.AddDate(0, 0, -(revenueSeriesDays - 1))

	stats := DashboardStats{
		TotalDishes:   totalDishes,
		TotalUsers:    totalUsers,
		RevenueSeries: make([]RevenuePoint, revenueSeriesDays),
	}
	for i := range stats.RevenueSeries {
		day := seriesStart.AddDate(0, 0, i)
		stats.RevenueSeries[i] = RevenuePoint{Day: day.Format("01-02")}
	}

	quantities := make(map[string]*TopDish)
	for _, order := range orders {
		created := order.CreatedAt.UTC()
		cancelled := order.Status == domain.OrderStatusCancelled

		if !created.Before(startOfToday) && !cancelled {
			stats.TodayOrderCount++
		}

		if cancelled || order.PaymentStatus != domain.PaymentStatusPaid {
			continue
		}

		if !created.Before(startOfToday) {
			stats.TodayRevenue += order.TotalAmount
		}
		if !created.Before(seriesStart) {
			index := int(created.Sub(seriesStart).Hours() / 24)
			if index >= 0 && index < revenueSeriesDays {
				stats.RevenueSeries[index].Revenue += order.TotalAmount
			}
		}

		for _, item := range order.Items {
			entry, ok := quantities[item.DishID]
			if !ok {
				entry = &TopDish{DishID: item.DishID, Name: item.Name}
				quantities[item.DishID] = entry
			}
			entry.Quantity += item.Quantity
		}
	}

	top := make([]TopDish, 0, len(quantities))
	for _, entry := range quantities {
		top = append(top, *entry)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > 5 {
		top = top[:5]
	}
	stats.TopDishes = top

	return stats, nil
}

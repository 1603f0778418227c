package service

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	dashboardFeaturedLimit = 6
	dashboardLatestOrders  = 5
)

// Dashboard holds the staff landing page aggregates
type Dashboard struct {
	TotalRevenue  decimal.Decimal   `json:"total_revenue"`
	PendingOrders int               `json:"pending_orders"`
	LowStock      []*domain.Product `json:"low_stock"`
	Featured      []*domain.Product `json:"featured"`
	LatestOrders  []*domain.Order   `json:"latest_orders"`
}

func (d Dashboard) MarshalJSON() ([]byte, error) {
	type dashboard Dashboard
	return json.Marshal(struct {
		dashboard
		TotalRevenue string `json:"total_revenue"`
	}{dashboard(d), domain.FormatMoney(d.TotalRevenue)})
}

type DashboardService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	productRepo       repository.ProductRepository
	orderRepo         repository.OrderRepository
	lowStockThreshold int
}

// NewDashboardService creates a new instance of DashboardService
func NewDashboardService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	lowStockThreshold int,
) DashboardService {
	return &dashboardService{
		productRepo:       productRepo,
		orderRepo:         orderRepo,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *dashboardService) Dashboard(ctx context.Context) (*Dashboard, error) {
	revenue, err := s.orderRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.orderRepo.CountByStatus(ctx, domain.OrderStatusPending)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.productRepo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}

	featured, err := s.productRepo.List(ctx, repository.ProductFilter{
		ActiveOnly:   true,
		FeaturedOnly: true,
		Limit:        dashboardFeaturedLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}

	latest, err := s.orderRepo.List(ctx, repository.OrderFilter{Limit: dashboardLatestOrders})
	if err != nil {
		return nil, fmt.Errorf("failed to list latest orders: %w", err)
	}
	if err := s.orderRepo.LoadItems(ctx, latest); err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalRevenue:  revenue,
		PendingOrders: pending,
		LowStock:      lowStock,
		Featured:      featured,
		LatestOrders:  latest,
	}, nil
}

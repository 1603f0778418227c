package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// OrderListPage is the staff order list with the filter echoed back
type OrderListPage struct {
	Orders         []*domain.Order       `json:"orders"`
	StatusChoices  []domain.StatusChoice `json:"status_choices"`
	SelectedStatus domain.OrderStatus    `json:"selected_status"`
	Query          string                `json:"query"`
}

// OrderUpdateInput is the staff order form
type OrderUpdateInput struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	Notes  string `json:"notes"`
}

// OrderService is the staff view of placed orders
type OrderService interface {
	// List ignores a status filter that is not a known status.
	List(ctx context.Context, status, query string) (*OrderListPage, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, id int64, input OrderUpdateInput) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) List(ctx context.Context, status, query string) (*OrderListPage, error) {
	selected := domain.OrderStatus(strings.TrimSpace(status))
	if !selected.Valid() {
		selected = ""
	}
	query = strings.TrimSpace(query)

	orders, err := s.orderRepo.List(ctx, repository.OrderFilter{
		Status: selected,
		Query:  query,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &OrderListPage{
		Orders:         orders,
		StatusChoices:  domain.OrderStatusChoices,
		SelectedStatus: selected,
		Query:          query,
	}, nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// Update sets status and notes; every other order field is frozen.
func (s *orderService) Update(ctx context.Context, id int64, input OrderUpdateInput) (*domain.Order, error) {
	input.Status = strings.TrimSpace(input.Status)
	if err := validateStruct(&input).errOrNil(); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, domain.OrderStatus(input.Status), strings.TrimSpace(input.Notes)); err != nil {
		return nil, err
	}

	return s.orderRepo.FindByID(ctx, id)
}

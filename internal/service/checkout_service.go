package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	emptyCartMessage   = "Your cart is empty. Add a few styles first!"
	orderPlacedMessage = "Order placed! We will keep you posted on the delivery."
)

// ShippingInfo is the checkout form
type ShippingInfo struct {
	CustomerName string `json:"customer_name" validate:"required,max=150"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Phone        string `json:"phone" validate:"required,max=20"`
	Address      string `json:"address" validate:"required,max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	PostalCode   string `json:"postal_code" validate:"required,max=20"`
	Notes        string `json:"notes"`
}

func (i *ShippingInfo) normalize() {
	i.CustomerName = strings.TrimSpace(i.CustomerName)
	i.Email = strings.TrimSpace(i.Email)
	i.Phone = strings.TrimSpace(i.Phone)
	i.Address = strings.TrimSpace(i.Address)
	i.City = strings.TrimSpace(i.City)
	i.State = strings.TrimSpace(i.State)
	i.PostalCode = strings.TrimSpace(i.PostalCode)
	i.Notes = strings.TrimSpace(i.Notes)
}

// CheckoutPreview is what the customer sees before submitting shipping info
type CheckoutPreview struct {
	Lines    []domain.CartLine `json:"lines"`
	Totals   Totals            `json:"totals"`
	TaxRate  decimal.Decimal   `json:"tax_rate"`
	Messages []session.Message `json:"messages"`
}

// CheckoutService turns a visitor's cart into a persisted order
type CheckoutService interface {
	Preview(ctx context.Context, sessionID string) (*CheckoutPreview, error)
	// PlaceOrder refuses with a *TotalsChangedError when expectedTotal is set
	// and no longer matches the live total.
	PlaceOrder(ctx context.Context, sessionID string, info ShippingInfo, expectedTotal *decimal.Decimal) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

type checkoutService struct {
	orderRepo  repository.OrderRepository
	carts      CartService
	sessions   session.Store
	calculator *Calculator
	logger     *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	carts CartService,
	sessions session.Store,
	calculator *Calculator,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo:  orderRepo,
		carts:      carts,
		sessions:   sessions,
		calculator: calculator,
		logger:     logger,
	}
}

// Preview returns ErrEmptyCart, with a warning queued, when nothing in the
// cart can be bought.
func (s *checkoutService) Preview(ctx context.Context, sessionID string) (*CheckoutPreview, error) {
	sess, lines, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	preview := &CheckoutPreview{
		Lines:    lines,
		Totals:   s.calculator.Totals(lines),
		TaxRate:  s.calculator.TaxRate(),
		Messages: sess.PopMessages(),
	}

	if len(preview.Messages) > 0 {
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	return preview, nil
}

func (s *checkoutService) PlaceOrder(
	ctx context.Context,
	sessionID string,
	info ShippingInfo,
	expectedTotal *decimal.Decimal,
) (*domain.Order, error) {
	sess, lines, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	info.normalize()
	if err := validateStruct(&info).errOrNil(); err != nil {
		return nil, err
	}

	totals := s.calculator.Totals(lines)
	if expectedTotal != nil && !expectedTotal.Equal(totals.Total) {
		return nil, &TotalsChangedError{Current: totals}
	}

	order := &domain.Order{
		CustomerName: info.CustomerName,
		Email:        info.Email,
		Phone:        info.Phone,
		Address:      info.Address,
		City:         info.City,
		State:        info.State,
		PostalCode:   info.PostalCode,
		Notes:        info.Notes,
		Status:       domain.OrderStatusPending,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		Items:        make([]domain.OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       line.Product.Price,
		})
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
	)

	sess.Cart.Clear()
	sess.AddMessage(session.LevelSuccess, orderPlacedMessage)
	if err := s.sessions.Save(ctx, sess); err != nil {
		// The order is already committed.
		s.logger.Error("Failed to clear cart after checkout",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}

	return order, nil
}

func (s *checkoutService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// loadCart materializes the cart, queueing the empty-cart warning when
// there is nothing to buy.
func (s *checkoutService) loadCart(ctx context.Context, sessionID string) (*session.Session, []domain.CartLine, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}

	lines, err := s.carts.Lines(ctx, sess.Cart)
	if err != nil {
		return nil, nil, err
	}

	if len(lines) == 0 {
		sess.AddMessage(session.LevelWarning, emptyCartMessage)
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, nil, fmt.Errorf("failed to save session: %w", err)
		}
		return nil, nil, ErrEmptyCart
	}

	return sess, lines, nil
}

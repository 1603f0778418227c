package service

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"
)

// CartView is the cart page: materialized lines, totals and pending messages.
type CartView struct {
	Lines    []domain.CartLine `json:"lines"`
	Totals   Totals            `json:"totals"`
	Count    int               `json:"count"`
	Messages []session.Message `json:"messages"`
}

// CartService manages the per-visitor cart ledger kept in the session
type CartService interface {
	View(ctx context.Context, sessionID string) (*CartView, error)
	Add(ctx context.Context, sessionID string, productID int64, qty int) error
	Update(ctx context.Context, sessionID string, productID int64, qty int) error
	Remove(ctx context.Context, sessionID string, productID int64) error
	Clear(ctx context.Context, sessionID string) error
	// Count is the number of units in the ledger, inactive products included.
	Count(ctx context.Context, sessionID string) (int, error)
	// Lines joins the ledger against active products, ordered by name.
	Lines(ctx context.Context, cart domain.Cart) ([]domain.CartLine, error)
	// Flash drains the visitor's queued messages.
	Flash(ctx context.Context, sessionID string) ([]session.Message, error)
}

type cartService struct {
	productRepo repository.ProductRepository
	sessions    session.Store
	calculator  *Calculator
}

// NewCartService creates a new instance of CartService
func NewCartService(
	productRepo repository.ProductRepository,
	sessions session.Store,
	calculator *Calculator,
) CartService {
	return &cartService{
		productRepo: productRepo,
		sessions:    sessions,
		calculator:  calculator,
	}
}

func (s *cartService) View(ctx context.Context, sessionID string) (*CartView, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	lines, err := s.Lines(ctx, sess.Cart)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		Lines:    lines,
		Totals:   s.calculator.Totals(lines),
		Count:    sess.Cart.Count(),
		Messages: sess.PopMessages(),
	}

	if len(view.Messages) > 0 {
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	return view, nil
}

// Add accumulates qty (at least 1) of an active product
func (s *cartService) Add(ctx context.Context, sessionID string, productID int64, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return repository.ErrProductNotFound
	}

	return s.mutate(ctx, sessionID, func(sess *session.Session) {
		sess.Cart.Add(productID, qty)
		sess.AddMessage(session.LevelSuccess, fmt.Sprintf("Added %s to your bag.", product.Name))
	})
}

// Update overwrites the quantity; qty <= 0 removes the line. Inactive
// products may still be updated so visitors can drop them.
func (s *cartService) Update(ctx context.Context, sessionID string, productID int64, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}

	return s.mutate(ctx, sessionID, func(sess *session.Session) {
		sess.Cart.Set(productID, qty)
		sess.AddMessage(session.LevelInfo, "Cart updated.")
	})
}

func (s *cartService) Remove(ctx context.Context, sessionID string, productID int64) error {
	return s.mutate(ctx, sessionID, func(sess *session.Session) {
		sess.Cart.Remove(productID)
		sess.AddMessage(session.LevelInfo, "Item removed from cart.")
	})
}

func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	return s.mutate(ctx, sessionID, func(sess *session.Session) {
		sess.Cart.Clear()
		sess.AddMessage(session.LevelInfo, "Cart cleared.")
	})
}

func (s *cartService) Count(ctx context.Context, sessionID string) (int, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to load session: %w", err)
	}
	return sess.Cart.Count(), nil
}

func (s *cartService) Lines(ctx context.Context, cart domain.Cart) ([]domain.CartLine, error) {
	if cart.IsEmpty() {
		return []domain.CartLine{}, nil
	}

	products, err := s.productRepo.FindActiveByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	return cart.Materialize(products), nil
}

func (s *cartService) Flash(ctx context.Context, sessionID string) ([]session.Message, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	messages := sess.PopMessages()
	if len(messages) == 0 {
		return messages, nil
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return messages, nil
}

// checkQuantity rejects a requested quantity above the per-line cap
func checkQuantity(qty int) error {
	if qty > domain.MaxLineQuantity {
		return fieldError("quantity", fmt.Sprintf("Ensure this value is less than or equal to %d", domain.MaxLineQuantity))
	}
	return nil
}

func (s *cartService) mutate(ctx context.Context, sessionID string, apply func(*session.Session)) error {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	apply(sess)

	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

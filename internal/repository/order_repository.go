package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderFilter narrows staff order listings. Zero values mean "no filter".
type OrderFilter struct {
	Status domain.OrderStatus
	Query  string
	Limit  int
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Create persists the order, its items and the matching stock decrements
	// in one transaction.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	LoadItems(ctx context.Context, orders []*domain.Order) error
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, notes string) error
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, status domain.OrderStatus) (int, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, customer_name, email, phone, address, city, state, postal_code, notes,
		       status, subtotal, tax, total, created_at, updated_at`

func scanOrder(s scanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := s.Scan(
		&order.ID,
		&order.CustomerName,
		&order.Email,
		&order.Phone,
		&order.Address,
		&order.City,
		&order.State,
		&order.PostalCode,
		&order.Notes,
		&order.Status,
		&order.Subtotal,
		&order.Tax,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Create inserts the order row, one row per item, and decrements each
// product's stock clamped at zero. Either all of it commits or none of it.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	orderQuery := `
		INSERT INTO orders (customer_name, email, phone, address, city, state, postal_code, notes,
		                    status, subtotal, tax, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowContext(
		ctx,
		orderQuery,
		order.CustomerName,
		order.Email,
		order.Phone,
		order.Address,
		order.City,
		order.State,
		order.PostalCode,
		order.Notes,
		order.Status,
		order.Subtotal,
		order.Tax,
		order.Total,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	stockQuery := `
		UPDATE products
		SET stock = GREATEST(stock - $2, 0)
		WHERE id = $1
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		err = tx.QueryRowContext(ctx, itemQuery, order.ID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			if isForeignKeyViolation(err, "fk_order_items_product") {
				err = ErrProductNotFound
				return err
			}
			return fmt.Errorf("failed to create order item: %w", err)
		}

		var result sql.Result
		result, err = tx.ExecContext(ctx, stockQuery, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		var rowsAffected int64
		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			err = ErrProductNotFound
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := "SELECT " + orderColumns + "\n\t\tFROM orders\n\t\tWHERE id = $1"

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.LoadItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// List retrieves orders newest first. Items are not loaded.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf("(customer_name ILIKE $%d OR email ILIKE $%d)", argIndex, argIndex))
		args = append(args, containsPattern(q))
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + orderColumns + "\n\t\tFROM orders" + whereClause + "\n\t\tORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf("\n\t\tLIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// LoadItems fills Items on each order with a single query, items ordered by
// product name.
func (r *orderRepository) LoadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]interface{}, 0, len(orders))
	for i, order := range orders {
		order.Items = []domain.OrderItem{}
		byID[order.ID] = order
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, order.ID)
	}

	query := fmt.Sprintf(`
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (%s)
		ORDER BY p.name ASC, oi.id ASC
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

// UpdateStatus sets status and notes, the only staff-editable order fields
func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, notes string) error {
	query := `
		UPDATE orders
		SET status = $2, notes = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, notes)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// TotalRevenue sums order totals, excluding cancelled orders
func (r *orderRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> $1`

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, domain.OrderStatusCancelled).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return total, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context, status domain.OrderStatus) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE status = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

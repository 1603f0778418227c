package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductSlugTaken  = errors.New("product with this slug already exists")
	ErrProductReferenced = errors.New("product is referenced by existing order items")
)

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID   *int64
	Query        string
	ActiveOnly   bool
	FeaturedOnly bool
	ExcludeID    int64
	Limit        int
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindActiveBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindActiveByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error)
	HasOrderItems(ctx context.Context, id int64) (bool, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `
		p.id, p.category_id, c.name, p.name, p.slug, p.description, p.price, p.stock,
		p.image_url, p.is_active, p.featured, p.colorway, p.sizes, p.created_at, p.updated_at`

const productFrom = `
		FROM products p
		JOIN categories c ON c.id = p.category_id`

func scanProduct(s scanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := s.Scan(
		&product.ID,
		&product.CategoryID,
		&product.CategoryName,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.ImageURL,
		&product.IsActive,
		&product.Featured,
		&product.Colorway,
		&product.Sizes,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Create inserts a new product and fills in its generated id and timestamps
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (category_id, name, slug, description, price, stock, image_url,
		                      is_active, featured, colorway, sizes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Stock,
		product.ImageURL,
		product.IsActive,
		product.Featured,
		product.Colorway,
		product.Sizes,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return classifyProductWriteError("create", err)
	}

	return nil
}

// Update overwrites every editable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET category_id = $2, name = $3, slug = $4, description = $5, price = $6, stock = $7,
		    image_url = $8, is_active = $9, featured = $10, colorway = $11, sizes = $12
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Stock,
		product.ImageURL,
		product.IsActive,
		product.Featured,
		product.Colorway,
		product.Sizes,
	).Scan(&product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return classifyProductWriteError("update", err)
	}

	return nil
}

func classifyProductWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err, "products_slug_key"):
		return ErrProductSlugTaken
	case isForeignKeyViolation(err, "fk_products_category"):
		return ErrCategoryNotFound
	default:
		return fmt.Errorf("failed to %s product: %w", op, err)
	}
}

// Delete removes a product. Products referenced by order items are protected
// by a RESTRICT foreign key and yield ErrProductReferenced.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err, "fk_order_items_product") {
			return ErrProductReferenced
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID regardless of its active flag
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := "SELECT" + productColumns + productFrom + "\n\t\tWHERE p.id = $1"

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindActiveBySlug retrieves an active product by slug
func (r *productRepository) FindActiveBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := "SELECT" + productColumns + productFrom + "\n\t\tWHERE p.slug = $1 AND p.is_active = TRUE"

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by slug: %w", err)
	}

	return product, nil
}

// FindActiveByIDs returns the active products among ids, ordered by name.
// Unknown and inactive ids are silently absent from the result.
func (r *productRepository) FindActiveByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf("SELECT%s%s\n\t\tWHERE p.is_active = TRUE AND p.id IN (%s)\n\t\tORDER BY p.name ASC, p.id ASC",
		productColumns, productFrom, strings.Join(placeholders, ", "))

	return r.queryProducts(ctx, query, args...)
}

// List retrieves products matching the filter, ordered by name
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.ActiveOnly {
		conditions = append(conditions, "p.is_active = TRUE")
	}
	if filter.FeaturedOnly {
		conditions = append(conditions, "p.featured = TRUE")
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf("p.name ILIKE $%d", argIndex))
		args = append(args, containsPattern(q))
		argIndex++
	}
	if filter.ExcludeID != 0 {
		conditions = append(conditions, fmt.Sprintf("p.id <> $%d", argIndex))
		args = append(args, filter.ExcludeID)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT" + productColumns + productFrom + whereClause + "\n\t\tORDER BY p.name ASC, p.id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf("\n\t\tLIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	return r.queryProducts(ctx, query, args...)
}

// ListLowStock returns active products whose stock is below threshold
func (r *productRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	query := "SELECT" + productColumns + productFrom +
		"\n\t\tWHERE p.is_active = TRUE AND p.stock < $1\n\t\tORDER BY p.name ASC, p.id ASC"

	return r.queryProducts(ctx, query, threshold)
}

// HasOrderItems reports whether any order item references the product
func (r *productRepository) HasOrderItems(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check order item references: %w", err)
	}

	return exists, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	homeFeaturedLimit = 4
	relatedLimit      = 4
)

// maxPrice is the exclusive upper bound of a DECIMAL(8,2) column.
var maxPrice = decimal.NewFromInt(1000000)

// HomeFilter is the storefront query string
type HomeFilter struct {
	CategoryID *int64
	Query      string
}

// HomePage is the storefront landing view
type HomePage struct {
	Categories       []*domain.Category `json:"categories"`
	Products         []*domain.Product  `json:"products"`
	Featured         []*domain.Product  `json:"featured"`
	SelectedCategory *int64             `json:"selected_category"`
	Query            string             `json:"query"`
}

// ProductPage is a product with up to four related products from its category
type ProductPage struct {
	Product *domain.Product   `json:"product"`
	Related []*domain.Product `json:"related"`
}

// ProductInput is the staff product form
type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=150"`
	CategoryID  int64            `json:"category_id" validate:"required,gt=0"`
	Slug        string           `json:"slug" validate:"max=50"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       int              `json:"stock" validate:"gte=0,lte=2147483647"`
	ImageURL    string           `json:"image_url" validate:"omitempty,url,max=200"`
	IsActive    *bool            `json:"is_active"`
	Featured    bool             `json:"featured"`
	Colorway    string           `json:"colorway" validate:"max=100"`
	Sizes       string           `json:"sizes" validate:"max=120"`
}

// CategoryInput is the staff category form
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
}

// ProductForm is the metadata a product create/edit form needs
type ProductForm struct {
	Product    *domain.Product    `json:"product,omitempty"`
	Categories []*domain.Category `json:"categories"`
}

// CatalogService serves storefront browsing and staff catalog maintenance
type CatalogService interface {
	Home(ctx context.Context, filter HomeFilter) (*HomePage, error)
	ProductDetail(ctx context.Context, slug string) (*ProductPage, error)

	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error)

	ProductForm(ctx context.Context, productID int64) (*ProductForm, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error)
	// DeleteProduct refuses with ErrProductProtected while order items
	// reference the product.
	DeleteProduct(ctx context.Context, id int64) error
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *catalogService) Home(ctx context.Context, filter HomeFilter) (*HomePage, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	query := strings.TrimSpace(filter.Query)
	products, err := s.productRepo.List(ctx, repository.ProductFilter{
		CategoryID: filter.CategoryID,
		Query:      query,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	featured := []*domain.Product{}
	for _, p := range products {
		if len(featured) == homeFeaturedLimit {
			break
		}
		if p.Featured {
			featured = append(featured, p)
		}
	}

	return &HomePage{
		Categories:       categories,
		Products:         products,
		Featured:         featured,
		SelectedCategory: filter.CategoryID,
		Query:            query,
	}, nil
}

func (s *catalogService) ProductDetail(ctx context.Context, slug string) (*ProductPage, error) {
	product, err := s.productRepo.FindActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	categoryID := product.CategoryID
	related, err := s.productRepo.List(ctx, repository.ProductFilter{
		CategoryID: &categoryID,
		ActiveOnly: true,
		ExcludeID:  product.ID,
		Limit:      relatedLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list related products: %w", err)
	}

	return &ProductPage{Product: product, Related: related}, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(&input).errOrNil(); err != nil {
		return nil, err
	}

	category := &domain.Category{
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, fieldError("name", "Category with this name already exists")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// ProductForm returns the categories to choose from, plus the product when
// productID is non-zero.
func (s *catalogService) ProductForm(ctx context.Context, productID int64) (*ProductForm, error) {
	form := &ProductForm{}

	if productID != 0 {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		form.Product = product
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	form.Categories = categories

	return form, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{}
	if err := s.applyInput(ctx, product, input); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, mapProductWriteError(err)
	}

	return s.productRepo.FindByID(ctx, product.ID)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyInput(ctx, product, input); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, mapProductWriteError(err)
	}

	return s.productRepo.FindByID(ctx, product.ID)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return err
	}

	referenced, err := s.productRepo.HasOrderItems(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return ErrProductProtected
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductReferenced) {
			return ErrProductProtected
		}
		return err
	}

	return nil
}

// applyInput validates input and copies it onto product. A blank slug is
// derived from the name. An omitted is_active means true for a new product
// and leaves an existing one unchanged.
func (s *catalogService) applyInput(ctx context.Context, product *domain.Product, input ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Slug = strings.TrimSpace(input.Slug)
	input.ImageURL = strings.TrimSpace(input.ImageURL)

	verr := validateStruct(&input)

	if input.Price != nil && (input.Price.IsNegative() || input.Price.GreaterThanOrEqual(maxPrice)) {
		verr.Add("price", "Enter a price between 0 and 999999.99")
	} else if input.Price != nil && !input.Price.Equal(input.Price.Round(2)) {
		verr.Add("price", "Ensure that there are no more than 2 decimal places")
	}

	slug := domain.ProductSlug(input.Slug, input.Name)
	if slug == "" && input.Name != "" {
		verr.Add("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens")
	}

	if input.CategoryID > 0 {
		if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
			if !errors.Is(err, repository.ErrCategoryNotFound) {
				return fmt.Errorf("failed to check category: %w", err)
			}
			verr.Add("category_id", "Select a valid choice")
		}
	}

	if err := verr.errOrNil(); err != nil {
		return err
	}

	product.Name = input.Name
	product.CategoryID = input.CategoryID
	product.Slug = slug
	product.Description = strings.TrimSpace(input.Description)
	product.Price = *input.Price
	product.Stock = input.Stock
	product.ImageURL = input.ImageURL
	switch {
	case input.IsActive != nil:
		product.IsActive = *input.IsActive
	case product.ID == 0:
		product.IsActive = true
	}
	product.Featured = input.Featured
	product.Colorway = strings.TrimSpace(input.Colorway)
	product.Sizes = strings.TrimSpace(input.Sizes)

	return nil
}

func mapProductWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrProductSlugTaken):
		return fieldError("slug", "Product with this slug already exists")
	case errors.Is(err, repository.ErrCategoryNotFound):
		return fieldError("category_id", "Select a valid choice")
	default:
		return err
	}
}

package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID           int64           `json:"id" db:"id"`
	CategoryID   int64           `json:"category_id" db:"category_id"`
	CategoryName string          `json:"category_name,omitempty" db:"category_name"`
	Name         string          `json:"name" db:"name"`
	Slug         string          `json:"slug" db:"slug"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Stock        int             `json:"stock" db:"stock"`
	ImageURL     string          `json:"image_url" db:"image_url"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	Featured     bool            `json:"featured" db:"featured"`
	Colorway     string          `json:"colorway" db:"colorway"`
	Sizes        string          `json:"sizes" db:"sizes"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// AvailableSizes splits the comma separated size list, dropping blanks.
func (p *Product) AvailableSizes() []string {
	sizes := []string{}
	for _, size := range strings.Split(p.Sizes, ",") {
		if s := strings.TrimSpace(size); s != "" {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// Category represents a product category
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

package service

import (
	"encoding/json"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Totals is the priced summary of a set of cart lines
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// MarshalJSON writes every amount with two fraction digits
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"subtotal": domain.FormatMoney(t.Subtotal),
		"tax":      domain.FormatMoney(t.Tax),
		"total":    domain.FormatMoney(t.Total),
	})
}

// Calculator prices cart lines. The cart view, the checkout page and order
// persistence all share one instance so they cannot disagree.
type Calculator struct {
	taxRate decimal.Decimal
}

func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{taxRate: taxRate}
}

func (c *Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Totals sums line totals and applies tax rounded half-up to cents.
func (c *Calculator) Totals(lines []domain.CartLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}

	tax := subtotal.Mul(c.taxRate).Round(2)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

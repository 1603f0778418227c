package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the units of one product in a cart
const MaxLineQuantity = 9999

// Cart is the per-visitor ledger of product id to quantity. Every stored
// quantity is in [1, MaxLineQuantity]; a product that is not in the cart
// has no key.
type Cart map[int64]int

// NewCart returns an empty ledger
func NewCart() Cart {
	return make(Cart)
}

// Add accumulates qty for productID. Quantities below 1 count as 1 and the
// sum saturates at MaxLineQuantity.
func (c Cart) Add(productID int64, qty int) {
	if qty < 1 {
		qty = 1
	}
	if qty > MaxLineQuantity-c[productID] {
		c[productID] = MaxLineQuantity
		return
	}
	c[productID] += qty
}

// Set overwrites the quantity; qty <= 0 removes the entry and larger values
// are capped at MaxLineQuantity.
func (c Cart) Set(productID int64, qty int) {
	if qty <= 0 {
		delete(c, productID)
		return
	}
	if qty > MaxLineQuantity {
		qty = MaxLineQuantity
	}
	c[productID] = qty
}

func (c Cart) Remove(productID int64) {
	delete(c, productID)
}

func (c Cart) Clear() {
	for id := range c {
		delete(c, id)
	}
}

// Quantity returns 0 for products not in the cart
func (c Cart) Quantity(productID int64) int {
	return c[productID]
}

// Count is the total number of units in the cart.
func (c Cart) Count() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// ProductIDs returns the keys in ascending order
func (c Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CartLine is a cart entry joined against the live catalog
type CartLine struct {
	Product   *Product        `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Materialize joins the ledger against products, which must already be
// filtered to active ones and ordered for display. Products not in the
// ledger and ledger entries without a product are skipped.
func (c Cart) Materialize(products []*Product) []CartLine {
	lines := []CartLine{}
	for _, p := range products {
		qty := c[p.ID]
		if qty <= 0 {
			continue
		}
		lines = append(lines, CartLine{
			Product:   p,
			Quantity:  qty,
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return lines
}

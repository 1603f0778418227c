package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with exactly two fraction digits, the way
// prices are shown to customers.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MarshalJSON writes price as a fixed two-place string
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price string `json:"price"`
	}{product(p), FormatMoney(p.Price)})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type order Order
	return json.Marshal(struct {
		order
		Subtotal string `json:"subtotal"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	}{order(o), FormatMoney(o.Subtotal), FormatMoney(o.Tax), FormatMoney(o.Total)})
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type orderItem OrderItem
	return json.Marshal(struct {
		orderItem
		Price     string `json:"price"`
		LineTotal string `json:"line_total"`
	}{orderItem(i), FormatMoney(i.Price), FormatMoney(i.LineTotal())})
}

func (l CartLine) MarshalJSON() ([]byte, error) {
	type cartLine CartLine
	return json.Marshal(struct {
		cartLine
		LineTotal string `json:"line_total"`
	}{cartLine(l), FormatMoney(l.LineTotal)})
}

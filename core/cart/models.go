package cart

import "github.com/shopspring/decimal"

// Line is one product entry in the cart. Name and prices are captured when the
// product is first added and are not re-synced with the catalog.
type Line struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Quantity      int              `json:"quantity"`
}

// UnitPrice is the effective price of one unit.
func (l Line) UnitPrice() decimal.Decimal {
	return EffectivePrice(l.Price, l.DiscountPrice)
}

// Subtotal is UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	if l.DiscountPrice != nil {
		dp := *l.DiscountPrice
		l.DiscountPrice = &dp
	}
	return l
}

// Candidate is a product about to be added to the cart.
type Candidate struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
}

// Snapshot is an immutable view of the cart at one point in time.
type Snapshot struct {
	Items      []Line          `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (s Snapshot) IsEmpty() bool { return len(s.Items) == 0 }

// EffectivePrice returns discount when it is set and lower than price, else price.
func EffectivePrice(price decimal.Decimal, discount *decimal.Decimal) decimal.Decimal {
	if discount != nil && discount.LessThan(price) {
		return *discount
	}
	return price
}

func totalItems(lines []Line) int {
	var n int
	for _, l := range lines {
		n = addQuantity(n, l.Quantity)
	}
	return n
}

func totalPrice(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.clone()
	}
	return out
}

func linesEqual(a, b []Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Name != y.Name || x.Quantity != y.Quantity || !x.Price.Equal(y.Price) {
			return false
		}
		if (x.DiscountPrice == nil) != (y.DiscountPrice == nil) {
			return false
		}
		if x.DiscountPrice != nil && !x.DiscountPrice.Equal(*y.DiscountPrice) {
			return false
		}
	}
	return true
}

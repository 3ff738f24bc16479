package cart

import "github.com/shopspring/decimal"

type (
	// Enrichment is the catalog data shown next to a cart line.
	Enrichment struct {
		Sessions int    `json:"sessions"`
		Duration string `json:"duration"`
		Category string `json:"category"`
	}

	// PlanSource resolves enrichment data by product id.
	PlanSource interface {
		Enrichment(id string) (Enrichment, bool)
	}

	ViewLine struct {
		Line
		UnitPrice decimal.Decimal `json:"unitPrice"`
		Subtotal  decimal.Decimal `json:"subtotal"`
		Plan      *Enrichment     `json:"plan,omitempty"`
	}

	View struct {
		Items      []ViewLine      `json:"items"`
		TotalItems int             `json:"totalItems"`
		TotalPrice decimal.Decimal `json:"totalPrice"`
	}
)

// Enrich joins lines with the catalog. Lines whose id is unknown to plans keep
// their captured name and prices and get no enrichment.
func Enrich(lines []Line, plans PlanSource) []ViewLine {
	out := make([]ViewLine, 0, len(lines))
	for _, l := range lines {
		vl := ViewLine{Line: l.clone(), UnitPrice: l.UnitPrice(), Subtotal: l.Subtotal()}
		if plans != nil {
			if en, ok := plans.Enrichment(l.ID); ok {
				vl.Plan = &en
			}
		}
		out = append(out, vl)
	}
	return out
}

// NewView builds the enriched view of a snapshot.
func NewView(snap Snapshot, plans PlanSource) View {
	return View{
		Items:      Enrich(snap.Items, plans),
		TotalItems: snap.TotalItems,
		TotalPrice: snap.TotalPrice,
	}
}

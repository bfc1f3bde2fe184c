package discountgrid

import "github.com/shopspring/decimal"

// Tier is one year band of a progressive discount policy
type Tier struct {
	Percentage decimal.Decimal `json:"percentage"`
	Label      string          `json:"label"`
}

// Grid is a named, tiered discount policy. Tier 1 covers billed months 1-12,
// tier 2 months 13-24 and tier 3 everything beyond. Grids are read only
// collaborators, immutable for the duration of a run.
type Grid struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
	Default bool   `json:"default"`
	Tier1   Tier   `json:"tier_1"`
	Tier2   Tier   `json:"tier_2"`
	Tier3   Tier   `json:"tier_3"`
}

// TierFor returns the tier applicable to the given billed month index
// (1-based: the month being billed, not elapsed months).
func (g *Grid) TierFor(month int) Tier {
	switch {
	case month <= 12:
		return g.Tier1
	case month <= 24:
		return g.Tier2
	default:
		return g.Tier3
	}
}

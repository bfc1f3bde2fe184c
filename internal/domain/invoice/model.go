package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GroupState tracks an invoice group through a run. Any failure before
// StateSubmitted aborts the group with no side effects; a failure after it is
// reported but the external invoice is not rolled back (at-least-once).
type GroupState string

const (
	StatePending   GroupState = "pending"
	StateSubmitted GroupState = "submitted"
	StateFinalized GroupState = "finalized"
	StatePersisted GroupState = "persisted"
	StateFailed    GroupState = "failed"
)

// LineItem is one billed subscription inside a draft invoice. DiscountAmount
// and NetAmount are already rounded to 2 decimal places.
type LineItem struct {
	SubscriptionID string          `json:"subscription_id"`
	ItemID         string          `json:"item_id"`
	Label          string          `json:"label"`
	Unit           string          `json:"unit"`
	Quantity       int             `json:"quantity"`
	UnitAmount     decimal.Decimal `json:"unit_amount"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	DiscountLabel  string          `json:"discount_label,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

// HasDiscount reports whether this line should emit a negative discount line
func (li *LineItem) HasDiscount() bool {
	return li.DiscountPct.IsPositive() && li.DiscountAmount.IsPositive() && li.DiscountLabel != ""
}

// Draft is one invoice to be created in the billing platform, combining all
// line items of a single client for a single target billing month.
type Draft struct {
	ClientID    string     `json:"client_id"`
	TargetMonth string     `json:"target_month"` // YYYY-MM
	Reference   string     `json:"reference"`
	Subject     string     `json:"subject"`
	Lines       []LineItem `json:"lines"`
}

// Total returns the sum of net line amounts
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range d.Lines {
		total = total.Add(li.NetAmount)
	}
	return total
}

// IdempotencyReference derives the retry-safe reference for a draft keyed by
// (client, target month).
func IdempotencyReference(clientID, targetMonth string) string {
	return fmt.Sprintf("%s:%s", clientID, targetMonth)
}

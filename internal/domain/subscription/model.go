package subscription

import (
	"strings"
	"time"

	ierr "github.com/billhive/subsync/internal/errors"
	"github.com/shopspring/decimal"
)

// Subscription is a recurring billable service record as stored in the
// tabular data store. Records are created and edited externally; this system
// only ever advances the two counters after a successful invoice creation.
type Subscription struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	ClientID             string          `json:"client_id"`
	ItemID               string          `json:"item_id"`
	Price                decimal.Decimal `json:"price"`
	StartDate            time.Time       `json:"start_date"`
	MonthsBilled         int             `json:"months_billed"`
	RemainingOccurrences int             `json:"remaining_occurrences"`
	DiscountGridID       string          `json:"discount_grid_id,omitempty"`
	ApplyDiscount        bool            `json:"apply_discount"`
}

// Validate checks the fields required to bill this record. It returns a
// missing data error naming every invalid field so the record can be skipped
// with a useful warning.
func (s *Subscription) Validate() error {
	var missing []string

	if s.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if s.ItemID == "" {
		missing = append(missing, "item_id")
	}
	if s.StartDate.IsZero() {
		missing = append(missing, "start_date")
	}
	if !s.Price.IsPositive() {
		missing = append(missing, "price")
	}
	if s.MonthsBilled < 0 {
		missing = append(missing, "months_billed")
	}
	if s.RemainingOccurrences < 0 {
		missing = append(missing, "remaining_occurrences")
	}

	if len(missing) > 0 {
		details := make(map[string]any, len(missing))
		for _, f := range missing {
			details[f] = "missing or invalid"
		}
		return ierr.NewError("subscription record has missing or invalid fields: " + strings.Join(missing, ", ")).
			WithHint("Fix the record in the data store and rerun").
			WithReportableDetails(details).
			Mark(ierr.ErrMissingData)
	}
	return nil
}

// HasDiscountGrid reports whether the record references a specific grid
func (s *Subscription) HasDiscountGrid() bool {
	return s.DiscountGridID != ""
}

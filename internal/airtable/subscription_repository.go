package airtable

import (
	"context"
	"encoding/json"
	"time"

	"github.com/billhive/subsync/internal/domain/subscription"
	ierr "github.com/billhive/subsync/internal/errors"
	"github.com/shopspring/decimal"
)

// eligibleFormula is the billing prefilter pushed down to the store: records
// in the subscription category with occurrences left and a start date.
const eligibleFormula = "AND({Catégorie} = 'Abonnement', {Occurrences restantes} > 0, {Date de début} != '')"

const startDateLayout = "2006-01-02"

// SubscriptionRepository implements subscription.Repository on the services table
type SubscriptionRepository struct {
	client *Client
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(client *Client) *SubscriptionRepository {
	return &SubscriptionRepository{client: client}
}

// ListEligible returns all eligible subscription records, decoded into typed
// records. Malformed rows are rejected at this boundary with a warning; the
// remaining rows are still returned.
func (r *SubscriptionRepository) ListEligible(ctx context.Context) ([]*subscription.Subscription, error) {
	records, err := r.client.listRecords(ctx, r.client.config.TableName, eligibleFormula)
	if err != nil {
		return nil, err
	}

	subs := make([]*subscription.Subscription, 0, len(records))
	for _, rec := range records {
		sub, err := decodeSubscription(rec)
		if err != nil {
			r.client.log.Warnw("skipping malformed subscription record",
				"record_id", rec.ID, "error", err)
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// UpdateCounters patches the post-invoice counters on one record and stamps
// the last synchronization time.
func (r *SubscriptionRepository) UpdateCounters(ctx context.Context, id string, monthsBilled, remainingOccurrences int) error {
	return r.client.patchRecord(ctx, r.client.config.TableName, id, map[string]any{
		"Mois facturés":            monthsBilled,
		"Occurrences restantes":    remainingOccurrences,
		"Dernière synchronisation": time.Now().Format(time.RFC3339),
	})
}

func decodeSubscription(rec record) (*subscription.Subscription, error) {
	var fields serviceFields
	if err := json.Unmarshal(rec.Fields, &fields); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode subscription fields").
			Mark(ierr.ErrMissingData)
	}

	sub := &subscription.Subscription{
		ID:                   rec.ID,
		Name:                 fields.Name,
		ClientID:             fields.ClientID.String(),
		ItemID:               fields.ItemID.String(),
		Price:                decimal.NewFromFloat(fields.Price),
		MonthsBilled:         fields.MonthsBilled,
		RemainingOccurrences: fields.Remaining,
		// Absent checkbox means the progressive discount applies
		ApplyDiscount: fields.ApplyDiscount == nil || *fields.ApplyDiscount,
	}

	if len(fields.GridIDs) > 0 {
		sub.DiscountGridID = fields.GridIDs[0]
	}

	if fields.StartDate != "" {
		start, err := time.Parse(startDateLayout, fields.StartDate)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Invalid start date %q", fields.StartDate).
				Mark(ierr.ErrMissingData)
		}
		sub.StartDate = start
	}

	return sub, nil
}

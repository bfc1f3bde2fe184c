package subscription

import "context"

// Repository provides access to subscription records in the external store
type Repository interface {
	// ListEligible returns all records matching the billing prefilter:
	// subscription category, remaining occurrences > 0, start date present.
	ListEligible(ctx context.Context) ([]*Subscription, error)

	// UpdateCounters persists the post-invoice counters for one record
	UpdateCounters(ctx context.Context, id string, monthsBilled, remainingOccurrences int) error
}

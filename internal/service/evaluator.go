package service

import (
	"context"
	"fmt"
	"time"

	"github.com/billhive/subsync/internal/domain/subscription"
	"github.com/billhive/subsync/internal/logger"
	"github.com/billhive/subsync/internal/types"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Decision is the outcome of evaluating one subscription for the current
// cycle. Computed fresh each run, never persisted.
type Decision struct {
	Subscription  *subscription.Subscription
	Due           bool
	ElapsedMonths int
	// BillMonth is the 1-based month index being billed this run. Only the
	// next unbilled month is ever billed, even when in arrears.
	BillMonth int
	// Backlog is the number of further unbilled months deferred to later runs
	Backlog        int
	TargetMonth    string // YYYY-MM
	DiscountPct    decimal.Decimal
	DiscountLabel  string
	DiscountAmount decimal.Decimal
	NetAmount      decimal.Decimal
}

// Evaluator decides, per subscription, whether the current cycle is due and
// computes the discounted line amount.
type Evaluator struct {
	resolver *GridResolver
	log      *logger.Logger
	// clock is injectable so tests can pin "now" to specific billing dates
	clock func() time.Time
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(resolver *GridResolver, log *logger.Logger, clock func() time.Time) *Evaluator {
	if clock == nil {
		clock = time.Now
	}
	return &Evaluator{
		resolver: resolver,
		log:      log,
		clock:    clock,
	}
}

// Evaluate produces a billing decision for one subscription record. A missing
// data error means the record must be skipped; any other outcome is a valid
// decision, due or not.
func (e *Evaluator) Evaluate(ctx context.Context, sub *subscription.Subscription) (*Decision, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	now := e.clock()
	elapsed := types.ElapsedMonths(sub.StartDate, now)

	decision := &Decision{
		Subscription:  sub,
		ElapsedMonths: elapsed,
		NetAmount:     sub.Price.Round(2),
	}

	if elapsed <= sub.MonthsBilled {
		return decision, nil
	}

	decision.Due = true
	decision.BillMonth = sub.MonthsBilled + 1
	decision.Backlog = elapsed - decision.BillMonth
	decision.TargetMonth = types.FormatYearMonth(
		types.AddClampedDate(sub.StartDate, 0, decision.BillMonth, 0))

	if decision.Backlog > 0 {
		e.log.Warnw("subscription is in arrears, billing a single month and deferring the rest",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"bill_month", decision.BillMonth,
			"backlog_months", decision.Backlog)
	}

	pct, label := e.resolveDiscount(ctx, sub, decision.BillMonth)
	if pct.IsPositive() && label != "" {
		decision.DiscountPct = pct
		decision.DiscountLabel = label
		decision.DiscountAmount = sub.Price.Mul(pct).Div(oneHundred).Round(2)
		decision.NetAmount = sub.Price.Sub(decision.DiscountAmount).Round(2)
	}

	return decision, nil
}

// resolveDiscount returns the discount percentage and line label for the
// month being billed. Zero percentage or an empty label disable the discount
// line entirely.
func (e *Evaluator) resolveDiscount(ctx context.Context, sub *subscription.Subscription, billMonth int) (decimal.Decimal, string) {
	if !sub.ApplyDiscount {
		return decimal.Zero, ""
	}

	grid, ok := e.resolver.Resolve(ctx, sub)
	if !ok {
		return decimal.Zero, ""
	}

	tier := grid.TierFor(billMonth)
	label := tier.Label
	if label == "" && tier.Percentage.IsPositive() && grid.Name != "" {
		label = fmt.Sprintf("%s (-%s%%)", grid.Name, tier.Percentage.Round(0).String())
	}
	return tier.Percentage, label
}

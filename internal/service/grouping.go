package service

import (
	"fmt"
	"sort"

	"github.com/billhive/subsync/internal/domain/invoice"
	"github.com/billhive/subsync/internal/logger"
	"github.com/samber/lo"
)

// GroupKey identifies one grouped invoice: all due subscriptions of a client
// for the same target billing month end up on a single invoice.
type GroupKey struct {
	ClientID    string
	TargetMonth string // YYYY-MM
}

// Group is one invoice-to-be, moving through the
// pending -> submitted -> finalized -> persisted states during a run.
type Group struct {
	Key       GroupKey
	Decisions []*Decision
	State     invoice.GroupState
	InvoiceID string
	Err       error
}

// GroupDecisions partitions due decisions into invoice groups keyed by
// (client, target month). Every due decision lands in exactly one group;
// groups are returned in a deterministic order.
func GroupDecisions(decisions []*Decision) []*Group {
	due := lo.Filter(decisions, func(d *Decision, _ int) bool { return d.Due })

	grouped := lo.GroupBy(due, func(d *Decision) GroupKey {
		return GroupKey{
			ClientID:    d.Subscription.ClientID,
			TargetMonth: d.TargetMonth,
		}
	})

	groups := make([]*Group, 0, len(grouped))
	for key, ds := range grouped {
		groups = append(groups, &Group{
			Key:       key,
			Decisions: ds,
			State:     invoice.StatePending,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Key.ClientID != groups[j].Key.ClientID {
			return groups[i].Key.ClientID < groups[j].Key.ClientID
		}
		return groups[i].Key.TargetMonth < groups[j].Key.TargetMonth
	})
	return groups
}

// BuildDraft assembles the draft invoice for a group. Lines failing record
// validation are skipped with a warning and the draft proceeds with the
// remaining valid lines; it also returns the decisions actually billed. A
// group producing zero valid lines yields a nil draft.
func (g *Group) BuildDraft(log *logger.Logger) (*invoice.Draft, []*Decision) {
	var billed []*Decision
	lines := make([]invoice.LineItem, 0, len(g.Decisions))

	for _, d := range g.Decisions {
		sub := d.Subscription
		if err := sub.Validate(); err != nil {
			log.Warnw("skipping invalid line in invoice group",
				"client_id", g.Key.ClientID,
				"target_month", g.Key.TargetMonth,
				"subscription_id", sub.ID,
				"error", err)
			continue
		}

		label := sub.Name
		if label == "" {
			label = "Service"
		}

		lines = append(lines, invoice.LineItem{
			SubscriptionID: sub.ID,
			ItemID:         sub.ItemID,
			Label:          label,
			Unit:           "mois",
			Quantity:       1,
			UnitAmount:     sub.Price.Round(2),
			DiscountPct:    d.DiscountPct,
			DiscountLabel:  d.DiscountLabel,
			DiscountAmount: d.DiscountAmount,
			NetAmount:      d.NetAmount,
		})
		billed = append(billed, d)
	}

	if len(lines) == 0 {
		return nil, nil
	}

	subject := fmt.Sprintf("Abonnements mensuels - %s", g.Key.TargetMonth)
	if len(lines) == 1 {
		subject = fmt.Sprintf("Abonnement mensuel - %s", lines[0].Label)
	}

	return &invoice.Draft{
		ClientID:    g.Key.ClientID,
		TargetMonth: g.Key.TargetMonth,
		Reference:   invoice.IdempotencyReference(g.Key.ClientID, g.Key.TargetMonth),
		Subject:     subject,
		Lines:       lines,
	}, billed
}

package service

import (
	"context"
	"time"

	"github.com/billhive/subsync/internal/config"
	"github.com/billhive/subsync/internal/domain/invoice"
	"github.com/billhive/subsync/internal/domain/subscription"
	"github.com/billhive/subsync/internal/logger"
	"github.com/oklog/ulid/v2"
)

// Summary is the tabulated result of one synchronization run
type Summary struct {
	RunID    string
	DryRun   bool
	Eligible int
	Due      int
	NotDue   int
	Invalid  int
	Backlog  int

	GroupsTotal   int
	Created       int
	Validated     int
	Persisted     int
	Skipped       int
	Failed        int
	Subscriptions int
}

// SyncService orchestrates one end to end billing run:
// fetch -> evaluate -> group -> submit -> finalize -> persist -> report.
type SyncService struct {
	log       *logger.Logger
	cfg       *config.Configuration
	subs      subscription.Repository
	gateway   invoice.Gateway
	evaluator *Evaluator
	clock     func() time.Time
}

// NewSyncService creates a new SyncService
func NewSyncService(
	cfg *config.Configuration,
	log *logger.Logger,
	subs subscription.Repository,
	resolver *GridResolver,
	gateway invoice.Gateway,
	clock func() time.Time,
) *SyncService {
	if clock == nil {
		clock = time.Now
	}
	return &SyncService{
		log:       log,
		cfg:       cfg,
		subs:      subs,
		gateway:   gateway,
		evaluator: NewEvaluator(resolver, log, clock),
		clock:     clock,
	}
}

// Run executes one synchronization run. Per record and per group failures are
// isolated and reported in the summary; only a failure to fetch the records
// at all is returned as an error.
func (s *SyncService) Run(ctx context.Context) (*Summary, error) {
	runID := ulid.Make().String()
	log := s.log.With("run_id", runID)

	summary := &Summary{
		RunID:  runID,
		DryRun: s.cfg.Sync.DryRun,
	}

	log.Infow("starting subscription invoice synchronization", "dry_run", summary.DryRun)

	subs, err := s.subs.ListEligible(ctx)
	if err != nil {
		return nil, err
	}
	summary.Eligible = len(subs)

	if len(subs) == 0 {
		log.Infow("no eligible subscriptions to bill")
		return summary, nil
	}

	var due []*Decision
	for _, sub := range subs {
		decision, err := s.evaluator.Evaluate(ctx, sub)
		if err != nil {
			summary.Invalid++
			log.Warnw("skipping subscription with missing data",
				"subscription_id", sub.ID, "name", sub.Name, "error", err)
			continue
		}
		if !decision.Due {
			summary.NotDue++
			log.Debugw("no billing due",
				"subscription_id", sub.ID,
				"elapsed_months", decision.ElapsedMonths,
				"months_billed", sub.MonthsBilled)
			continue
		}
		if decision.Backlog > 0 {
			summary.Backlog++
		}
		due = append(due, decision)
	}
	summary.Due = len(due)

	groups := GroupDecisions(due)
	summary.GroupsTotal = len(groups)

	for _, group := range groups {
		s.processGroup(ctx, log, group, summary)
	}

	s.report(log, summary)
	return summary, nil
}

// processGroup runs one group through submit, finalize and counter
// persistence. A failure here never stops the remaining groups.
func (s *SyncService) processGroup(ctx context.Context, log *logger.Logger, group *Group, summary *Summary) {
	glog := log.With("client_id", group.Key.ClientID, "target_month", group.Key.TargetMonth)

	draft, billed := group.BuildDraft(log)
	if draft == nil {
		glog.Warnw("dropping invoice group with no valid lines")
		return
	}

	if s.cfg.Sync.DryRun {
		summary.Skipped++
		summary.Subscriptions += len(billed)
		glog.Infow("dry-run: would create invoice",
			"reference", draft.Reference,
			"lines", len(draft.Lines),
			"total", draft.Total().StringFixed(2))
		return
	}

	invoiceID, err := s.gateway.CreateInvoice(ctx, draft)
	if err != nil {
		group.State = invoice.StateFailed
		group.Err = err
		summary.Failed++
		glog.Errorw("invoice creation failed", "error", err)
		return
	}
	group.InvoiceID = invoiceID
	group.State = invoice.StateSubmitted
	summary.Created++
	glog.Infow("invoice created",
		"invoice_id", invoiceID,
		"lines", len(draft.Lines),
		"total", draft.Total().StringFixed(2))

	// From here on the external invoice exists; later failures are reported
	// but never rolled back, and the counters are still advanced so a rerun
	// does not bill the same month twice.
	if s.cfg.Sync.Finalize {
		if err := s.gateway.FinalizeInvoice(ctx, invoiceID, s.clock()); err != nil {
			glog.Errorw("invoice finalization failed, invoice left in draft", "error", err)
		} else {
			group.State = invoice.StateFinalized
			summary.Validated++

			if s.cfg.Sync.SendEmail {
				if err := s.gateway.SendInvoiceEmail(ctx, invoiceID); err != nil {
					glog.Warnw("invoice email sending failed", "error", err)
				}
			}
		}
	}

	persisted := true
	for _, d := range billed {
		sub := d.Subscription
		remaining := sub.RemainingOccurrences - 1
		if remaining < 0 {
			remaining = 0
		}
		if err := s.subs.UpdateCounters(ctx, sub.ID, sub.MonthsBilled+1, remaining); err != nil {
			persisted = false
			glog.Errorw("counter update failed, record will be re-evaluated next run",
				"subscription_id", sub.ID, "error", err)
		}
	}
	if persisted {
		group.State = invoice.StatePersisted
		summary.Persisted++
	}
	summary.Subscriptions += len(billed)
}

func (s *SyncService) report(log *logger.Logger, summary *Summary) {
	log.Infow("synchronization run finished",
		"eligible", summary.Eligible,
		"due", summary.Due,
		"not_due", summary.NotDue,
		"invalid", summary.Invalid,
		"backlog", summary.Backlog,
		"groups", summary.GroupsTotal,
		"created", summary.Created,
		"validated", summary.Validated,
		"persisted", summary.Persisted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"subscriptions_billed", summary.Subscriptions,
		"dry_run", summary.DryRun)
}

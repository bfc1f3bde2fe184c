package service

import (
	"testing"
	"time"

	"github.com/billhive/subsync/internal/domain/discountgrid"
	"github.com/billhive/subsync/internal/domain/subscription"
	ierr "github.com/billhive/subsync/internal/errors"
	"github.com/billhive/subsync/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SyncServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *SyncService
}

func TestSyncService(t *testing.T) {
	suite.Run(t, new(SyncServiceSuite))
}

func (s *SyncServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.SetNow(time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC))
	s.rebuildService()
}

func (s *SyncServiceSuite) rebuildService() {
	resolver := NewGridResolver(s.GetStores().GridStore, s.GetCache(), s.GetLogger())
	s.service = NewSyncService(
		s.GetConfig(),
		s.GetLogger(),
		s.GetStores().SubscriptionStore,
		resolver,
		s.GetGateway(),
		s.Clock(),
	)
}

func (s *SyncServiceSuite) seedGrid() {
	s.GetStores().GridStore.Create(&discountgrid.Grid{
		ID:      "grd_default",
		Name:    "Offre de lancement",
		Active:  true,
		Default: true,
		Tier1:   discountgrid.Tier{Percentage: decimal.NewFromInt(20)},
		Tier2:   discountgrid.Tier{Percentage: decimal.NewFromInt(10)},
		Tier3:   discountgrid.Tier{Percentage: decimal.NewFromInt(5)},
	})
}

func (s *SyncServiceSuite) seedSubscription(id, clientID string, price int64) {
	s.GetStores().SubscriptionStore.Create(&subscription.Subscription{
		ID:                   id,
		Name:                 "Service " + id,
		ClientID:             clientID,
		ItemID:               "100",
		Price:                decimal.NewFromInt(price),
		StartDate:            time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthsBilled:         0,
		RemainingOccurrences: 12,
		ApplyDiscount:        true,
	})
}

func (s *SyncServiceSuite) TestRunBillsAndPersists() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.seedSubscription("rec002", "12345", 80)

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	s.Equal(2, summary.Eligible)
	s.Equal(2, summary.Due)
	s.Equal(1, summary.GroupsTotal)
	s.Equal(1, summary.Created)
	s.Equal(1, summary.Validated)
	s.Equal(1, summary.Persisted)
	s.Equal(0, summary.Failed)
	s.Equal(2, summary.Subscriptions)

	// one invoice, two item lines, each with its own discount
	gateway := s.GetGateway()
	s.Require().Len(gateway.Created, 1)
	draft := gateway.Created[0]
	s.Equal("12345", draft.ClientID)
	s.Equal("2025-02", draft.TargetMonth)
	s.Len(draft.Lines, 2)
	s.Len(gateway.Finalized, 1)

	// counters advanced on both records
	store := s.GetStores().SubscriptionStore
	s.Len(store.Updates, 2)
	sub, ok := store.Get("rec001")
	s.Require().True(ok)
	s.Equal(1, sub.MonthsBilled)
	s.Equal(11, sub.RemainingOccurrences)
}

func (s *SyncServiceSuite) TestRunGroupsByClient() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.seedSubscription("rec002", "12345", 80)
	s.seedSubscription("rec003", "67890", 120)

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	s.Equal(2, summary.GroupsTotal)
	s.Equal(2, summary.Created)
	s.Len(s.GetGateway().Created, 2)
}

func (s *SyncServiceSuite) TestDryRunWritesNothing() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.GetConfig().Sync.DryRun = true
	s.rebuildService()

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	s.True(summary.DryRun)
	s.Equal(1, summary.Skipped)
	s.Equal(0, summary.Created)
	s.Empty(s.GetGateway().Created)
	s.Empty(s.GetStores().SubscriptionStore.Updates)
}

func (s *SyncServiceSuite) TestGroupFailureIsIsolated() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.seedSubscription("rec002", "67890", 120)
	s.GetGateway().CreateErrFor["12345"] = ierr.NewError("upstream rejected invoice").Mark(ierr.ErrHTTPClient)

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	s.Equal(1, summary.Failed)
	s.Equal(1, summary.Created)
	s.Require().Len(s.GetGateway().Created, 1)
	s.Equal("67890", s.GetGateway().Created[0].ClientID)

	// the failed client's record keeps its counters
	sub, ok := s.GetStores().SubscriptionStore.Get("rec001")
	s.Require().True(ok)
	s.Equal(0, sub.MonthsBilled)
	s.Equal(12, sub.RemainingOccurrences)
}

func (s *SyncServiceSuite) TestInvalidRecordIsSkipped() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.GetStores().SubscriptionStore.Create(&subscription.Subscription{
		ID:                   "rec_bad",
		Name:                 "No client",
		ItemID:               "100",
		Price:                decimal.NewFromInt(10),
		StartDate:            time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		RemainingOccurrences: 3,
	})

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	s.Equal(2, summary.Eligible)
	s.Equal(1, summary.Invalid)
	s.Equal(1, summary.Created)
}

func (s *SyncServiceSuite) TestFinalizeFailureStillPersistsCounters() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.GetGateway().FinalizeErr = ierr.NewError("validation endpoint down").Mark(ierr.ErrHTTPClient)

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	s.Equal(1, summary.Created)
	s.Equal(0, summary.Validated)
	// the invoice exists upstream, so the month must not be billed again
	s.Equal(1, summary.Persisted)
	s.Len(s.GetStores().SubscriptionStore.Updates, 1)
}

func (s *SyncServiceSuite) TestCounterFailureReportedNotPersisted() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.GetStores().SubscriptionStore.UpdateErr = ierr.NewError("store down").Mark(ierr.ErrHTTPClient)

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	s.Equal(1, summary.Created)
	s.Equal(0, summary.Persisted)
}

func (s *SyncServiceSuite) TestEmailSentWhenEnabled() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.GetConfig().Sync.SendEmail = true
	s.rebuildService()

	_, err := s.service.Run(s.GetContext())
	s.NoError(err)
	s.Len(s.GetGateway().Emailed, 1)
}

func (s *SyncServiceSuite) TestEmailFailureIsWarningOnly() {
	s.seedGrid()
	s.seedSubscription("rec001", "12345", 50)
	s.GetConfig().Sync.SendEmail = true
	s.rebuildService()
	s.GetGateway().SendErr = ierr.NewError("mail endpoint down").Mark(ierr.ErrHTTPClient)

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	// the send failure never demotes the group or blocks persistence
	s.Equal(1, summary.Created)
	s.Equal(1, summary.Validated)
	s.Equal(1, summary.Persisted)
	s.Equal(0, summary.Failed)
	s.Empty(s.GetGateway().Emailed)

	sub, ok := s.GetStores().SubscriptionStore.Get("rec001")
	s.Require().True(ok)
	s.Equal(1, sub.MonthsBilled)
	s.Equal(11, sub.RemainingOccurrences)
}

func (s *SyncServiceSuite) TestNoEligibleSubscriptions() {
	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)
	s.Equal(0, summary.Eligible)
	s.Equal(0, summary.GroupsTotal)
}

func (s *SyncServiceSuite) TestArrearsCountedInSummary() {
	s.seedGrid()
	s.SetNow(time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC))
	s.rebuildService()
	s.seedSubscription("rec001", "12345", 50)

	summary, err := s.service.Run(s.GetContext())
	s.NoError(err)

	s.Equal(1, summary.Backlog)
	// only one month billed despite four elapsed
	s.Require().Len(s.GetStores().SubscriptionStore.Updates, 1)
	s.Equal(1, s.GetStores().SubscriptionStore.Updates[0].MonthsBilled)
}

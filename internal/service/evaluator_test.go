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

type EvaluatorSuite struct {
	testutil.BaseServiceTestSuite
	evaluator *Evaluator
}

func TestEvaluator(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	resolver := NewGridResolver(s.GetStores().GridStore, s.GetCache(), s.GetLogger())
	s.evaluator = NewEvaluator(resolver, s.GetLogger(), s.Clock())
}

func (s *EvaluatorSuite) defaultGrid() {
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

func (s *EvaluatorSuite) sub(start time.Time, monthsBilled int) *subscription.Subscription {
	return &subscription.Subscription{
		ID:                   "rec001",
		Name:                 "Hébergement Standard",
		ClientID:             "12345",
		ItemID:               "100",
		Price:                decimal.NewFromInt(100),
		StartDate:            start,
		MonthsBilled:         monthsBilled,
		RemainingOccurrences: 12,
		ApplyDiscount:        true,
	}
}

func (s *EvaluatorSuite) TestFirstMonthDue() {
	s.defaultGrid()
	s.SetNow(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))

	decision, err := s.evaluator.Evaluate(s.GetContext(), s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 0))
	s.NoError(err)
	s.True(decision.Due)
	s.Equal(1, decision.ElapsedMonths)
	s.Equal(1, decision.BillMonth)
	s.Equal(0, decision.Backlog)
	s.Equal("2025-02", decision.TargetMonth)
	s.True(decision.DiscountPct.Equal(decimal.NewFromInt(20)))
	s.Equal("20.00", decision.DiscountAmount.StringFixed(2))
	s.Equal("80.00", decision.NetAmount.StringFixed(2))
}

func (s *EvaluatorSuite) TestArrearsBillSingleMonth() {
	s.defaultGrid()
	s.SetNow(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))

	decision, err := s.evaluator.Evaluate(s.GetContext(), s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 0))
	s.NoError(err)
	s.True(decision.Due)
	s.Equal(4, decision.ElapsedMonths)
	// only the next single month is billed; three months stay in backlog
	s.Equal(1, decision.BillMonth)
	s.Equal(3, decision.Backlog)
	s.Equal("2025-02", decision.TargetMonth)
}

func (s *EvaluatorSuite) TestNotDueWhenUpToDate() {
	s.defaultGrid()
	s.SetNow(time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC))

	decision, err := s.evaluator.Evaluate(s.GetContext(), s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 1))
	s.NoError(err)
	s.False(decision.Due)
	s.Equal(0, decision.Backlog)
}

func (s *EvaluatorSuite) TestTierTwoAfterTwelveBilledMonths() {
	s.defaultGrid()
	s.SetNow(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))

	decision, err := s.evaluator.Evaluate(s.GetContext(), s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 12))
	s.NoError(err)
	s.True(decision.Due)
	s.Equal(13, decision.BillMonth)
	s.True(decision.DiscountPct.Equal(decimal.NewFromInt(10)))
}

func (s *EvaluatorSuite) TestNoGridMeansNoDiscountLine() {
	s.SetNow(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))

	decision, err := s.evaluator.Evaluate(s.GetContext(), s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 0))
	s.NoError(err)
	s.True(decision.Due)
	s.True(decision.DiscountPct.IsZero())
	s.Empty(decision.DiscountLabel)
	s.Equal("100.00", decision.NetAmount.StringFixed(2))
}

func (s *EvaluatorSuite) TestDiscountFlagOff() {
	s.defaultGrid()
	s.SetNow(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))

	sub := s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 0)
	sub.ApplyDiscount = false

	decision, err := s.evaluator.Evaluate(s.GetContext(), sub)
	s.NoError(err)
	s.True(decision.DiscountPct.IsZero())
	s.Equal("100.00", decision.NetAmount.StringFixed(2))
}

func (s *EvaluatorSuite) TestDiscountLabelFromGridName() {
	s.defaultGrid()
	s.SetNow(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))

	decision, err := s.evaluator.Evaluate(s.GetContext(), s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 0))
	s.NoError(err)
	s.Equal("Offre de lancement (-20%)", decision.DiscountLabel)
}

func (s *EvaluatorSuite) TestMissingDataRejected() {
	s.SetNow(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))

	sub := s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 0)
	sub.ClientID = ""
	sub.Price = decimal.Zero

	_, err := s.evaluator.Evaluate(s.GetContext(), sub)
	s.Error(err)
	s.True(ierr.IsMissingData(err))
}

func (s *EvaluatorSuite) TestRoundingReconstructsPrice() {
	price := decimal.NewFromFloat(99.99)
	tolerance := decimal.NewFromFloat(0.01)

	for _, pct := range []int64{0, 10, 20, 50, 100} {
		discount := price.Mul(decimal.NewFromInt(pct)).Div(oneHundred).Round(2)
		net := price.Sub(discount).Round(2)
		diff := discount.Add(net).Sub(price).Abs()
		s.True(diff.LessThanOrEqual(tolerance), "pct %d: diff %s", pct, diff)
	}
}

func (s *EvaluatorSuite) TestEvaluationIsIdempotent() {
	s.defaultGrid()
	s.SetNow(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))

	sub := s.sub(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 2)

	first, err := s.evaluator.Evaluate(s.GetContext(), sub)
	s.NoError(err)
	second, err := s.evaluator.Evaluate(s.GetContext(), sub)
	s.NoError(err)

	s.Equal(first.Due, second.Due)
	s.Equal(first.BillMonth, second.BillMonth)
	s.Equal(first.TargetMonth, second.TargetMonth)
	s.True(first.DiscountAmount.Equal(second.DiscountAmount))
	s.True(first.NetAmount.Equal(second.NetAmount))
}

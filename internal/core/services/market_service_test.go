package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ledgertycoon/ledger_tycoon/internal/adapters/state/memory"
	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
)

type MarketServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *portssvc.ServiceContainer
	store     *memory.Store
	productID string
}

func (s *MarketServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	container, store := newTestContainer()
	s.svc = container
	s.store = store

	s.productID = uuid.NewString()
	err := store.SaveProduct(s.ctx, domain.Product{
		ProductID: s.productID,
		SKU:       "WIDGET-001",
		Name:      "Widget",
		BaseCost:  decimal.NewFromInt(10),
		BasePrice: decimal.NewFromInt(20),
	})
	s.Require().NoError(err)
}

func (s *MarketServiceTestSuite) TestSetPrice() {
	companyID := uuid.NewString()
	ps, err := s.svc.Market.SetPrice(s.ctx, companyID, s.productID, decimal.NewFromInt(18))
	s.Require().NoError(err)
	s.True(ps.Price.Equal(decimal.NewFromInt(18)))

	// Repricing keeps the accumulated sales counters.
	ps.UnitsSold = 40
	ps.Revenue = decimal.NewFromInt(720)
	s.Require().NoError(s.store.SavePriceState(s.ctx, *ps))

	ps, err = s.svc.Market.SetPrice(s.ctx, companyID, s.productID, decimal.NewFromInt(19))
	s.Require().NoError(err)
	s.Equal(int64(40), ps.UnitsSold)
}

func (s *MarketServiceTestSuite) TestSetPrice_BelowBaseCostRejected() {
	_, err := s.svc.Market.SetPrice(s.ctx, uuid.NewString(), s.productID, decimal.NewFromInt(9))
	s.ErrorIs(err, apperrors.ErrInvalidPrice)

	_, err = s.svc.Market.SetPrice(s.ctx, uuid.NewString(), s.productID, decimal.Zero)
	s.ErrorIs(err, apperrors.ErrInvalidPrice)
}

func (s *MarketServiceTestSuite) TestTotalDemand_Deterministic() {
	// Variation is zero in the test config, so demand is exactly the base.
	total, notes, err := s.svc.Market.TotalDemand(s.ctx, s.productID, 2)
	s.Require().NoError(err)
	s.Equal(int64(1000), total)
	s.Empty(notes)
}

func (s *MarketServiceTestSuite) TestTotalDemand_Seasonality() {
	// WIDGET-001 peaks in July at x1.25.
	total, notes, err := s.svc.Market.TotalDemand(s.ctx, s.productID, 7)
	s.Require().NoError(err)
	s.Equal(int64(1250), total)
	s.Len(notes, 1)
}

func (s *MarketServiceTestSuite) TestTotalDemand_EconomicConditions() {
	err := s.store.SaveCondition(s.ctx, domain.MarketCondition{
		ConditionID: uuid.NewString(),
		Kind:        domain.Recession,
		Intensity:   0.80,
		MonthsLeft:  3,
	})
	s.Require().NoError(err)

	total, _, err := s.svc.Market.TotalDemand(s.ctx, s.productID, 2)
	s.Require().NoError(err)
	s.Equal(int64(800), total)
}

func (s *MarketServiceTestSuite) TestAllocateDemand_SumsExactly() {
	offers := []domain.Offer{
		{CompanyID: "a", Price: decimal.NewFromInt(17), BrandEquity: 0.9},
		{CompanyID: "b", Price: decimal.NewFromInt(20), BrandEquity: 1.0},
		{CompanyID: "c", Price: decimal.NewFromInt(25), BrandEquity: 1.2},
	}
	alloc := s.svc.Market.AllocateDemand(1000, offers)

	var sum int64
	for _, units := range alloc {
		sum += units
	}
	s.Equal(int64(1000), sum, "allocations must sum to total demand exactly")
	s.Greater(alloc["a"], alloc["c"], "cheaper offer outsells pricier one at equal-ish equity")
}

func (s *MarketServiceTestSuite) TestAllocateDemand_TieBreaksToLowestCompanyID() {
	offers := []domain.Offer{
		{CompanyID: "b", Price: decimal.NewFromInt(20), BrandEquity: 1.0},
		{CompanyID: "a", Price: decimal.NewFromInt(20), BrandEquity: 1.0},
	}
	// Equal scores split 0.5/0.5; the single leftover unit goes to "a".
	alloc := s.svc.Market.AllocateDemand(3, offers)
	s.Equal(int64(2), alloc["a"])
	s.Equal(int64(1), alloc["b"])
}

func (s *MarketServiceTestSuite) TestAllocateDemand_EdgeCases() {
	s.Empty(s.svc.Market.AllocateDemand(100, nil))

	offers := []domain.Offer{{CompanyID: "a", Price: decimal.NewFromInt(20), BrandEquity: 1.0}}
	alloc := s.svc.Market.AllocateDemand(0, offers)
	s.Equal(int64(0), alloc["a"])

	// Zero brand equity earns no share.
	offers = append(offers, domain.Offer{CompanyID: "b", Price: decimal.NewFromInt(20), BrandEquity: 0})
	alloc = s.svc.Market.AllocateDemand(100, offers)
	s.Equal(int64(100), alloc["a"])
	s.Equal(int64(0), alloc["b"])
}

func (s *MarketServiceTestSuite) TestCostModifier() {
	modifier, err := s.svc.Market.CostModifier(s.ctx, s.productID)
	s.Require().NoError(err)
	s.InDelta(1.0, modifier, 1e-9)

	err = s.store.SaveCondition(s.ctx, domain.MarketCondition{
		ConditionID: uuid.NewString(),
		Kind:        domain.SupplyDisruption,
		Intensity:   1.25,
		ProductID:   s.productID,
		MonthsLeft:  3,
	})
	s.Require().NoError(err)

	modifier, err = s.svc.Market.CostModifier(s.ctx, s.productID)
	s.Require().NoError(err)
	s.InDelta(1.25, modifier, 1e-9)

	// Disruptions on other products do not apply.
	modifier, err = s.svc.Market.CostModifier(s.ctx, uuid.NewString())
	s.Require().NoError(err)
	s.InDelta(1.0, modifier, 1e-9)
}

func (s *MarketServiceTestSuite) TestRefreshConditions_DisabledProbabilities() {
	triggered, err := s.svc.Market.RefreshConditions(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Empty(triggered, "zero probabilities never trigger conditions")
}

func (s *MarketServiceTestSuite) TestDecayConditions() {
	err := s.store.SaveCondition(s.ctx, domain.MarketCondition{
		ConditionID: uuid.NewString(),
		Kind:        domain.EconomicBoom,
		Intensity:   1.25,
		MonthsLeft:  1,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Market.DecayConditions(s.ctx))

	active, err := s.svc.Market.ActiveConditions(s.ctx)
	s.Require().NoError(err)
	s.Empty(active, "a condition at one month left expires on decay")
}

func TestMarketServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MarketServiceTestSuite))
}

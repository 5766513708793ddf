package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/services"
)

func testViews() (services.CompanyView, services.ProductView) {
	cv := services.CompanyView{
		Company: domain.Company{
			CompanyID:   "bot-1",
			Name:        "Bot One",
			Personality: domain.Balanced,
			BrandEquity: 1.0,
			Memory:      domain.NewStrategyMemory(),
		},
		Cash: decimal.NewFromInt(50000),
	}
	pv := services.ProductView{
		Product: domain.Product{
			ProductID: "prod-1",
			SKU:       "WIDGET-001",
			BaseCost:  decimal.NewFromInt(10),
			BasePrice: decimal.NewFromInt(20),
		},
		OnHand:       0,
		CurrentPrice: decimal.NewFromInt(20),
		Forecast:     100,
		ReorderQty:   100,
		CostModifier: 1.0,
	}
	return cv, pv
}

func TestStrategyFor(t *testing.T) {
	assert.Equal(t, domain.Aggressive, services.StrategyFor(domain.Aggressive).Personality())
	assert.Equal(t, domain.Premium, services.StrategyFor(domain.Premium).Personality())
	assert.Equal(t, domain.Conservative, services.StrategyFor(domain.Conservative).Personality())
	assert.Equal(t, domain.Balanced, services.StrategyFor(domain.Balanced).Personality())
	assert.Equal(t, domain.Balanced, services.StrategyFor("UNKNOWN").Personality(), "unknown personalities fall back to balanced")
}

func TestStrategies_PriceOrdering(t *testing.T) {
	cv, pv := testViews()

	aggressive := services.StrategyFor(domain.Aggressive).DecideNextTurn(cv, pv)
	balanced := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)
	premium := services.StrategyFor(domain.Premium).DecideNextTurn(cv, pv)

	assert.True(t, aggressive.Price.LessThan(balanced.Price))
	assert.True(t, balanced.Price.LessThan(premium.Price))
	assert.True(t, aggressive.Price.GreaterThanOrEqual(pv.Product.BaseCost), "no strategy prices below base cost")

	assert.True(t, aggressive.Price.Equal(decimal.NewFromInt(17)))
	assert.True(t, balanced.Price.Equal(decimal.NewFromInt(20)))
	assert.True(t, premium.Price.Equal(decimal.NewFromInt(25)))
}

func TestStrategies_Deterministic(t *testing.T) {
	cv, pv := testViews()
	strategy := services.StrategyFor(domain.Aggressive)

	first := strategy.DecideNextTurn(cv, pv)
	second := strategy.DecideNextTurn(cv, pv)

	assert.True(t, first.Price.Equal(second.Price))
	assert.Equal(t, first.PurchaseQty, second.PurchaseQty)
}

func TestStrategies_WACAnchorsPrice(t *testing.T) {
	cv, pv := testViews()
	pv.WAC = decimal.NewFromInt(14)

	decision := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)

	// The balanced markup doubles the average cost of the stock on hand, not
	// the catalog price.
	assert.True(t, decision.Price.Equal(decimal.NewFromInt(28)), "got %s", decision.Price)
}

func TestStrategies_CostFloorUnderDisruption(t *testing.T) {
	cv, pv := testViews()
	pv.WAC = decimal.NewFromInt(10) // stock bought before the disruption
	pv.Product.BaseCost = decimal.NewFromInt(16)
	pv.CostModifier = 1.25 // replacement unit cost 20

	decision := services.StrategyFor(domain.Aggressive).DecideNextTurn(cv, pv)

	// 1.70 * 10 = 17 would sell below what restocking costs now, so the
	// margin floor lifts it to 20 * 1.15 = 23.
	assert.True(t, decision.Price.Equal(decimal.NewFromInt(23)), "got %s", decision.Price)
}

func TestStrategies_DownwardShareTrendPullsTowardCompetitors(t *testing.T) {
	personalities := []domain.Personality{
		domain.Aggressive, domain.Balanced, domain.Premium, domain.Conservative,
	}
	for _, p := range personalities {
		cv, pv := testViews()
		baseline := services.StrategyFor(p).DecideNextTurn(cv, pv)

		pv.ShareTrend = -0.5
		pv.CompetitorAvgPrice = decimal.NewFromInt(15)
		adjusted := services.StrategyFor(p).DecideNextTurn(cv, pv)

		assert.True(t, adjusted.Price.LessThan(baseline.Price),
			"%s: %s not below baseline %s", p, adjusted.Price, baseline.Price)
		assert.True(t, adjusted.Price.GreaterThanOrEqual(pv.Product.BaseCost), "%s prices below base cost", p)
	}

	// Exact for balanced: base 20 pulled halfway toward the 15 average.
	cv, pv := testViews()
	pv.ShareTrend = -0.5
	pv.CompetitorAvgPrice = decimal.NewFromInt(15)
	decision := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)
	assert.True(t, decision.Price.Equal(decimal.NewFromFloat(17.5)), "got %s", decision.Price)
}

func TestStrategies_StrongShareDriftsTowardCeiling(t *testing.T) {
	personalities := []domain.Personality{
		domain.Aggressive, domain.Balanced, domain.Premium, domain.Conservative,
	}
	for _, p := range personalities {
		cv, pv := testViews()
		baseline := services.StrategyFor(p).DecideNextTurn(cv, pv)

		pv.ShareTrend = 0.5
		adjusted := services.StrategyFor(p).DecideNextTurn(cv, pv)

		assert.True(t, adjusted.Price.GreaterThan(baseline.Price),
			"%s: %s not above baseline %s", p, adjusted.Price, baseline.Price)
	}

	// Exact for balanced: base 20 drifts a quarter of the way to ceiling 23.
	cv, pv := testViews()
	pv.ShareTrend = 0.5
	decision := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)
	assert.True(t, decision.Price.Equal(decimal.NewFromFloat(20.75)), "got %s", decision.Price)
}

func TestStrategies_FlatShareLeavesPriceAlone(t *testing.T) {
	cv, pv := testViews()
	baseline := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)

	pv.ShareTrend = 0
	pv.CompetitorAvgPrice = decimal.NewFromInt(15)
	flat := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)

	assert.True(t, flat.Price.Equal(baseline.Price),
		"a flat trend must not move the price: %s vs %s", flat.Price, baseline.Price)
}

func TestStrategies_StockoutMemoryRaisesPriceAndOrder(t *testing.T) {
	cv, pv := testViews()
	baseline := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)

	cv.Company.Memory.Stockouts[pv.Product.ProductID] = 3
	adjusted := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)

	assert.True(t, adjusted.Price.GreaterThan(baseline.Price))
	assert.Greater(t, adjusted.PurchaseQty, baseline.PurchaseQty)
}

func TestStrategies_RegretMemoryRaisesPrice(t *testing.T) {
	cv, pv := testViews()
	baseline := services.StrategyFor(domain.Premium).DecideNextTurn(cv, pv)

	cv.Company.Memory.PricingRegret[pv.Product.ProductID] = decimal.NewFromInt(250)
	adjusted := services.StrategyFor(domain.Premium).DecideNextTurn(cv, pv)

	assert.True(t, adjusted.Price.GreaterThan(baseline.Price))
}

func TestStrategies_WasteMemoryShrinksOrder(t *testing.T) {
	cv, pv := testViews()
	baseline := services.StrategyFor(domain.Conservative).DecideNextTurn(cv, pv)

	cv.Company.Memory.InventoryWaste[pv.Product.ProductID] = 1
	adjusted := services.StrategyFor(domain.Conservative).DecideNextTurn(cv, pv)

	assert.Less(t, adjusted.PurchaseQty, baseline.PurchaseQty)
}

func TestStrategies_OrderCappedByCash(t *testing.T) {
	cv, pv := testViews()
	cv.Cash = decimal.NewFromInt(250) // affords 25 units at cost 10

	decision := services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)
	assert.Equal(t, int64(25), decision.PurchaseQty)

	cv.Cash = decimal.Zero
	decision = services.StrategyFor(domain.Balanced).DecideNextTurn(cv, pv)
	assert.Equal(t, int64(0), decision.PurchaseQty)
}

package services

import (
	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
)

// Canonical policy thresholds shared by all bot strategies.
const (
	// stockoutBias is the stockout count per product beyond which a bot
	// over-orders and nudges its price up.
	stockoutBias = 2
	// wasteStockRatio is the on-hand-to-forecast ratio beyond which stock
	// counts as waste.
	wasteStockRatio = 3.0
	// priceStep is the relative price adjustment applied on a stockout or
	// regret signal.
	priceStep = 0.05
	// shareTrendTrigger is the relative change in units sold across the last
	// two turns beyond which a strategy reacts to its market-share trend.
	shareTrendTrigger = 0.10
	// competitorPull is how far a shrinking share drags the price toward the
	// competitor average.
	competitorPull = 0.50
	// ceilingDrift is how far a growing share drifts the price toward the
	// personality ceiling.
	ceilingDrift = 0.25
)

// regretTrigger is the accumulated pricing regret beyond which a bot raises
// its price.
var regretTrigger = decimal.NewFromInt(200)

// CompanyView is the read-only company state a strategy sees.
type CompanyView struct {
	Company domain.Company
	Cash    decimal.Decimal
}

// ProductView is the read-only per-product state a strategy sees.
type ProductView struct {
	Product      domain.Product
	OnHand       int64
	WAC          decimal.Decimal
	CurrentPrice decimal.Decimal
	Forecast     float64
	ReorderQty   int64
	CostModifier float64
	// ShareTrend is the relative change in units sold between the last two
	// recorded turns; zero until two turns of history exist.
	ShareTrend float64
	// CompetitorAvgPrice is the mean standing offer price of the other
	// companies; zero when the company is alone in the market.
	CompetitorAvgPrice decimal.Decimal
}

// Decision is a strategy's output for one product.
type Decision struct {
	Price       decimal.Decimal
	PurchaseQty int64
}

// Strategy decides a bot company's price and purchase order for one product.
// Implementations must be deterministic: same views and memory, same
// decision.
type Strategy interface {
	Personality() domain.Personality
	DecideNextTurn(cv CompanyView, pv ProductView) Decision
}

// StrategyFor returns the strategy object for a personality, defaulting to
// balanced for anything unknown.
func StrategyFor(p domain.Personality) Strategy {
	switch p {
	case domain.Aggressive:
		return aggressiveStrategy{}
	case domain.Premium:
		return premiumStrategy{}
	case domain.Conservative:
		return conservativeStrategy{}
	default:
		return balancedStrategy{}
	}
}

// unitCost is the effective per-unit purchase cost a bot plans with: the
// product's base cost under the current supply modifier.
func unitCost(pv ProductView) decimal.Decimal {
	return pv.Product.BaseCost.Mul(decimal.NewFromFloat(pv.CostModifier))
}

// costBasis is the per-unit cost a strategy prices over: the weighted average
// cost of the stock on hand when there is any, otherwise the replacement cost
// under the current supply modifier.
func costBasis(pv ProductView) decimal.Decimal {
	if pv.WAC.IsPositive() {
		return pv.WAC
	}
	return unitCost(pv)
}

// floorAtBaseCost keeps a candidate price at or above the product's base
// cost, which is the minimum the pricing validation accepts.
func floorAtBaseCost(price decimal.Decimal, pv ProductView) decimal.Decimal {
	if price.LessThan(pv.Product.BaseCost) {
		return pv.Product.BaseCost
	}
	return price
}

// applyShareTrend nudges a candidate price by the market-share trend: a
// shrinking share pulls it toward the competitor average, a growing share
// drifts it toward the personality's ceiling.
func applyShareTrend(price, ceiling decimal.Decimal, pv ProductView) decimal.Decimal {
	switch {
	case pv.ShareTrend <= -shareTrendTrigger && pv.CompetitorAvgPrice.IsPositive():
		return price.Add(pv.CompetitorAvgPrice.Sub(price).Mul(decimal.NewFromFloat(competitorPull)))
	case pv.ShareTrend >= shareTrendTrigger && ceiling.GreaterThan(price):
		return price.Add(ceiling.Sub(price).Mul(decimal.NewFromFloat(ceilingDrift)))
	}
	return price
}

// applyMemorySignals adjusts a candidate price for the memory record: repeat
// stockouts mean demand outran supply at this price, accumulated regret means
// the product was left underpriced while selling out.
func applyMemorySignals(price decimal.Decimal, memory domain.StrategyMemory, productID string) decimal.Decimal {
	up := decimal.NewFromFloat(1 + priceStep)
	if memory.Stockouts[productID] > stockoutBias {
		price = price.Mul(up)
	}
	if memory.PricingRegret[productID].GreaterThan(regretTrigger) {
		price = price.Mul(up)
	}
	return price
}

// decidePrice runs the shared pricing pipeline: the personality's base
// multiplier over the cost basis, the share-trend nudge, a margin floor over
// replacement cost, then the memory signals.
func decidePrice(cv CompanyView, pv ProductView, baseMul, ceilingMul, floorMul float64) decimal.Decimal {
	basis := costBasis(pv)
	price := basis.Mul(decimal.NewFromFloat(baseMul))
	price = applyShareTrend(price, basis.Mul(decimal.NewFromFloat(ceilingMul)), pv)
	if minimum := unitCost(pv).Mul(decimal.NewFromFloat(floorMul)); price.LessThan(minimum) {
		price = minimum
	}
	price = applyMemorySignals(price, cv.Company.Memory, pv.Product.ProductID)
	return floorAtBaseCost(price.Round(2), pv)
}

// orderQuantity sizes a purchase order from the reorder recommendation,
// biased up after repeat stockouts, down after recorded waste, and capped by
// available cash.
func orderQuantity(cv CompanyView, pv ProductView, orderFactor float64, productID string) int64 {
	factor := orderFactor
	if cv.Company.Memory.Stockouts[productID] > stockoutBias {
		factor *= 1.25
	}
	if cv.Company.Memory.InventoryWaste[productID] > 0 {
		factor *= 0.80
	}
	qty := int64(float64(pv.ReorderQty) * factor)
	if qty <= 0 {
		return 0
	}
	cost := unitCost(pv)
	if !cost.IsPositive() {
		return qty
	}
	affordable := cv.Cash.Div(cost).IntPart()
	if qty > affordable {
		qty = affordable
	}
	if qty < 0 {
		qty = 0
	}
	return qty
}

// aggressiveStrategy runs a thin margin over cost and chases volume.
type aggressiveStrategy struct{}

func (aggressiveStrategy) Personality() domain.Personality { return domain.Aggressive }

func (aggressiveStrategy) DecideNextTurn(cv CompanyView, pv ProductView) Decision {
	return Decision{
		Price:       decidePrice(cv, pv, 1.70, 1.90, 1.15),
		PurchaseQty: orderQuantity(cv, pv, 1.10, pv.Product.ProductID),
	}
}

// balancedStrategy doubles its cost basis, a moderate retail margin.
type balancedStrategy struct{}

func (balancedStrategy) Personality() domain.Personality { return domain.Balanced }

func (balancedStrategy) DecideNextTurn(cv CompanyView, pv ProductView) Decision {
	return Decision{
		Price:       decidePrice(cv, pv, 2.00, 2.30, 1.40),
		PurchaseQty: orderQuantity(cv, pv, 1.00, pv.Product.ProductID),
	}
}

// premiumStrategy prices high and accepts lower volume.
type premiumStrategy struct{}

func (premiumStrategy) Personality() domain.Personality { return domain.Premium }

func (premiumStrategy) DecideNextTurn(cv CompanyView, pv ProductView) Decision {
	return Decision{
		Price:       decidePrice(cv, pv, 2.50, 3.00, 1.80),
		PurchaseQty: orderQuantity(cv, pv, 0.80, pv.Product.ProductID),
	}
}

// conservativeStrategy keeps a safe margin and deep stock.
type conservativeStrategy struct{}

func (conservativeStrategy) Personality() domain.Personality { return domain.Conservative }

func (conservativeStrategy) DecideNextTurn(cv CompanyView, pv ProductView) Decision {
	return Decision{
		Price:       decidePrice(cv, pv, 2.10, 2.40, 1.50),
		PurchaseQty: orderQuantity(cv, pv, 1.30, pv.Product.ProductID),
	}
}

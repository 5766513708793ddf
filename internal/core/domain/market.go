package domain

import "github.com/shopspring/decimal"

// PriceState is a company's current offer for one product plus this turn's
// realized sales. UnitsSold and Revenue are reset at the start of each turn.
type PriceState struct {
	CompanyID string          `json:"companyID"`
	ProductID string          `json:"productID"`
	Price     decimal.Decimal `json:"price"`
	UnitsSold int64           `json:"unitsSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// MarketRecord is the per-turn market history row for one company/product.
// DemandAllocated is the raw demand assigned by the allocator; UnitsSold may
// be lower when a stockout capped fulfillment.
type MarketRecord struct {
	CompanyID       string          `json:"companyID"`
	ProductID       string          `json:"productID"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Price           decimal.Decimal `json:"price"`
	UnitsSold       int64           `json:"unitsSold"`
	Revenue         decimal.Decimal `json:"revenue"`
	DemandAllocated int64           `json:"demandAllocated"`
}

// ConditionKind classifies an active market condition.
type ConditionKind string

const (
	EconomicBoom     ConditionKind = "ECONOMIC_BOOM"
	Recession        ConditionKind = "RECESSION"
	SupplyDisruption ConditionKind = "SUPPLY_DISRUPTION"
)

// MarketCondition is a temporary economy- or product-wide modifier. Boom and
// recession scale total demand; supply disruptions scale a product's unit
// cost. MonthsLeft is decremented at the end of each turn and the condition
// expires at zero.
type MarketCondition struct {
	ConditionID string        `json:"conditionID"`
	Kind        ConditionKind `json:"kind"`
	Intensity   float64       `json:"intensity"` // multiplier, e.g. 1.25 or 0.80
	ProductID   string        `json:"productID"` // empty for economy-wide conditions
	MonthsLeft  int           `json:"monthsLeft"`
	Description string        `json:"description"`
}

// Offer is one company's standing offer for a product, as seen by the demand
// allocator. Price is always positive here: pricing validation rejects
// non-positive prices upstream.
type Offer struct {
	CompanyID   string
	Price       decimal.Decimal
	BrandEquity float64
}

// DemandAllocation maps company ID to integer units allocated for one product.
type DemandAllocation map[string]int64

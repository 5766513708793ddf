package domain

import "github.com/shopspring/decimal"

// InventoryPosition tracks on-hand quantity and weighted-average cost for one
// company/product pair. Quantity never goes negative: sales are capped at the
// quantity on hand by construction.
type InventoryPosition struct {
	CompanyID string          `json:"companyID"`
	ProductID string          `json:"productID"`
	Quantity  int64           `json:"quantity"`
	WAC       decimal.Decimal `json:"wac"`
}

// Value returns quantity x WAC.
func (p InventoryPosition) Value() decimal.Decimal {
	return p.WAC.Mul(decimal.NewFromInt(p.Quantity))
}

// SaleResult reports the outcome of fulfilling a sale request. A shortfall is
// a simulated outcome (stockout), never an error.
type SaleResult struct {
	Requested int64           `json:"requested"`
	Fulfilled int64           `json:"fulfilled"`
	Shortfall int64           `json:"shortfall"`
	COGS      decimal.Decimal `json:"cogs"` // fulfilled x WAC at time of sale
	WAC       decimal.Decimal `json:"wac"`
}

// Stockout reports whether the request exceeded the quantity on hand.
func (r SaleResult) Stockout() bool {
	return r.Shortfall > 0
}

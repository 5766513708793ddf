package domain

import "github.com/shopspring/decimal"

// Product is one entry of the catalog shared by all companies. BaseCost is
// the market purchase cost before supply-chain modifiers; BasePrice is the
// suggested retail price used to seed price states.
type Product struct {
	ProductID string          `json:"productID"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	BaseCost  decimal.Decimal `json:"baseCost"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

package domain

import (
	"github.com/shopspring/decimal"
)

// Personality is a fixed behavioral archetype governing a bot company's
// pricing and ordering heuristics.
type Personality string

const (
	Aggressive   Personality = "AGGRESSIVE"   // low margin, high volume
	Balanced     Personality = "BALANCED"     // medium margin, medium volume
	Premium      Personality = "PREMIUM"      // high margin, low volume
	Conservative Personality = "CONSERVATIVE" // cautious margin, deep stock
)

// adaptationLogCap bounds the adaptation history kept per company.
const adaptationLogCap = 20

// Adaptation records one strategy adjustment a bot made and why.
type Adaptation struct {
	Month  int    `json:"month"`
	Year   int    `json:"year"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// StrategyMemory is the structured record of a bot's past mistakes. Keys are
// product IDs. The shape is fixed so invariants stay checkable; it is never a
// free-form map.
type StrategyMemory struct {
	Stockouts      map[string]int             `json:"stockouts"`
	PricingRegret  map[string]decimal.Decimal `json:"pricingRegret"`
	InventoryWaste map[string]int             `json:"inventoryWaste"`
	Adaptations    []Adaptation               `json:"adaptations"`
}

// NewStrategyMemory returns an empty, fully initialized memory record.
func NewStrategyMemory() StrategyMemory {
	return StrategyMemory{
		Stockouts:      make(map[string]int),
		PricingRegret:  make(map[string]decimal.Decimal),
		InventoryWaste: make(map[string]int),
		Adaptations:    make([]Adaptation, 0, adaptationLogCap),
	}
}

// RecordAdaptation appends to the adaptation log, dropping the oldest entry
// once the cap is reached.
func (m *StrategyMemory) RecordAdaptation(a Adaptation) {
	m.Adaptations = append(m.Adaptations, a)
	if len(m.Adaptations) > adaptationLogCap {
		m.Adaptations = m.Adaptations[len(m.Adaptations)-adaptationLogCap:]
	}
}

// Clone returns a deep copy of the memory record.
func (m StrategyMemory) Clone() StrategyMemory {
	out := StrategyMemory{
		Stockouts:      make(map[string]int, len(m.Stockouts)),
		PricingRegret:  make(map[string]decimal.Decimal, len(m.PricingRegret)),
		InventoryWaste: make(map[string]int, len(m.InventoryWaste)),
		Adaptations:    make([]Adaptation, len(m.Adaptations)),
	}
	for k, v := range m.Stockouts {
		out.Stockouts[k] = v
	}
	for k, v := range m.PricingRegret {
		out.PricingRegret[k] = v
	}
	for k, v := range m.InventoryWaste {
		out.InventoryWaste[k] = v
	}
	copy(out.Adaptations, m.Adaptations)
	return out
}

// Company is one competitor in the game. Bots carry a personality and a
// strategy memory; the player company has neither consulted.
type Company struct {
	CompanyID     string             `json:"companyID"`
	Name          string             `json:"name"`
	IsPlayer      bool               `json:"isPlayer"`
	BrandEquity   float64            `json:"brandEquity"` // demand-share multiplier, >= 0
	Personality   Personality        `json:"personality"`
	Memory        StrategyMemory     `json:"memory"`
	RiskModifiers map[string]float64 `json:"riskModifiers"`
	Flags         map[string]bool    `json:"flags"`
	Bankrupt      bool               `json:"bankrupt"`
}

// Clone returns a deep copy of the company.
func (c Company) Clone() Company {
	out := c
	out.Memory = c.Memory.Clone()
	out.RiskModifiers = make(map[string]float64, len(c.RiskModifiers))
	for k, v := range c.RiskModifiers {
		out.RiskModifiers[k] = v
	}
	out.Flags = make(map[string]bool, len(c.Flags))
	for k, v := range c.Flags {
		out.Flags[k] = v
	}
	return out
}

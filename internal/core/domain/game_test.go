package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
)

func TestGameState_AdvanceMonth(t *testing.T) {
	state := domain.GameState{Month: 11, Year: 1}

	state.AdvanceMonth()
	assert.Equal(t, 12, state.Month)
	assert.Equal(t, 1, state.Year)

	state.AdvanceMonth()
	assert.Equal(t, 1, state.Month)
	assert.Equal(t, 2, state.Year)
}

func TestAccountType_DebitNormal(t *testing.T) {
	assert.True(t, domain.Asset.DebitNormal())
	assert.True(t, domain.Expense.DebitNormal())
	assert.False(t, domain.Liability.DebitNormal())
	assert.False(t, domain.Equity.DebitNormal())
	assert.False(t, domain.Revenue.DebitNormal())
}

func TestInventoryPosition_Value(t *testing.T) {
	pos := domain.InventoryPosition{Quantity: 150, WAC: decimal.NewFromInt(12)}
	assert.True(t, pos.Value().Equal(decimal.NewFromInt(1800)))
}

func TestStrategyMemory_AdaptationLogIsBounded(t *testing.T) {
	memory := domain.NewStrategyMemory()
	for i := 0; i < 30; i++ {
		memory.RecordAdaptation(domain.Adaptation{Month: i%12 + 1, Year: i/12 + 1, Reason: "pricing regret"})
	}
	assert.Len(t, memory.Adaptations, 20)
	assert.Equal(t, 11, memory.Adaptations[0].Month, "oldest entries drop first")
}

func TestStrategyMemory_CloneIsDeep(t *testing.T) {
	memory := domain.NewStrategyMemory()
	memory.Stockouts["p1"] = 2
	memory.PricingRegret["p1"] = decimal.NewFromInt(100)

	clone := memory.Clone()
	clone.Stockouts["p1"] = 99
	clone.PricingRegret["p1"] = decimal.NewFromInt(999)

	assert.Equal(t, 2, memory.Stockouts["p1"])
	assert.True(t, memory.PricingRegret["p1"].Equal(decimal.NewFromInt(100)))
}

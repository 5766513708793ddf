// Package services defines the facades the core engines expose to the turn
// scheduler and to the HTTP boundary.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
)

// LedgerSvcFacade posts balanced transactions and answers balance queries.
type LedgerSvcFacade interface {
	InitializeChartOfAccounts(ctx context.Context, companyID string) ([]domain.Account, error)
	RecordCapitalInvestment(ctx context.Context, companyID string, amount decimal.Decimal) error
	// PostTransaction validates and commits atomically; it fails with
	// apperrors.ErrUnbalancedTransaction and leaves state untouched when the
	// entries do not balance.
	PostTransaction(ctx context.Context, companyID string, date time.Time, description string, entries []dto.TransactionEntryRequest) (*domain.Transaction, error)
	GetAccount(ctx context.Context, companyID, code string) (*domain.Account, error)
	GetTrialBalance(ctx context.Context, companyID string) ([]domain.TrialBalanceRow, error)
	ListTransactions(ctx context.Context, companyID string) ([]domain.Transaction, error)
	CashBalance(ctx context.Context, companyID string) (decimal.Decimal, error)
	NetWorth(ctx context.Context, companyID string) (decimal.Decimal, error)
	NetIncome(ctx context.Context, companyID string) (decimal.Decimal, error)
}

// InventorySvcFacade owns quantity and weighted-average-cost tracking.
type InventorySvcFacade interface {
	// PurchaseInventory fails with apperrors.ErrInvalidQuantity when quantity
	// is not positive; on success the WAC is recomputed and a balanced
	// purchase transaction is posted.
	PurchaseInventory(ctx context.Context, companyID, productID string, quantity int64, unitCost decimal.Decimal) (*domain.InventoryPosition, error)
	// RecordSale caps fulfillment at the quantity on hand and posts COGS for
	// the fulfilled units. A shortfall is reported in the result, not as an
	// error.
	RecordSale(ctx context.Context, companyID, productID string, requested int64) (*domain.SaleResult, error)
	GetInventory(ctx context.Context, companyID string) ([]domain.InventoryPosition, error)
	ForecastDemand(ctx context.Context, companyID, productID string) (float64, error)
	SafetyStock(ctx context.Context, companyID, productID string) (float64, error)
	ReorderQuantity(ctx context.Context, companyID, productID string) (int64, error)
}

// MarketSvcFacade computes demand and owns pricing state.
type MarketSvcFacade interface {
	// SetPrice fails with apperrors.ErrInvalidPrice when price is below the
	// product's base cost.
	SetPrice(ctx context.Context, companyID, productID string, price decimal.Decimal) (*domain.PriceState, error)
	ListPrices(ctx context.Context, companyID string) ([]domain.PriceState, error)
	// TotalDemand is the configured demand curve for one product in a month:
	// base demand x seasonality x economic conditions x bounded variation.
	TotalDemand(ctx context.Context, productID string, month int) (int64, []string, error)
	// AllocateDemand splits total demand across offers by brand-weighted
	// price attractiveness with largest-remainder rounding; the allocations
	// sum to totalDemand exactly.
	AllocateDemand(totalDemand int64, offers []domain.Offer) domain.DemandAllocation
	// CostModifier is the active supply-disruption multiplier for a product.
	CostModifier(ctx context.Context, productID string) (float64, error)
	// RefreshConditions rolls for new market conditions and returns the ones
	// triggered this turn.
	RefreshConditions(ctx context.Context, month, year int) ([]domain.MarketCondition, error)
	DecayConditions(ctx context.Context) error
	ActiveConditions(ctx context.Context) ([]domain.MarketCondition, error)
}

// BotSvcFacade runs one bot company's decisions for the turn.
type BotSvcFacade interface {
	DecideTurn(ctx context.Context, companyID string, month, year int) ([]string, error)
}

// EventSvcFacade owns decision events from definition to resolution.
type EventSvcFacade interface {
	CreateEvent(ctx context.Context, ev domain.DecisionEvent) (*domain.DecisionEvent, error)
	// ResolveEvent fails with apperrors.ErrEventNotFoundOrExpired when the
	// event is missing or already resolved.
	ResolveEvent(ctx context.Context, eventID, choiceID string) (*domain.DecisionEvent, error)
	// ResolveExpired applies the default choice of every pending event whose
	// deadline has passed, exactly once each.
	ResolveExpired(ctx context.Context, month, year int) ([]string, error)
	ListPending(ctx context.Context) ([]domain.DecisionEvent, error)
}

// TurnSvcFacade orchestrates the fixed monthly sequence.
type TurnSvcFacade interface {
	// AdvanceTurn fails with apperrors.ErrConcurrentTurn when a turn is
	// already running, and with apperrors.ErrGameLogic (after a full
	// rollback) when an invariant is violated mid-turn.
	AdvanceTurn(ctx context.Context) (*domain.TurnSummary, error)
	CurrentState(ctx context.Context) (*domain.GameState, error)
}

// ReportingSvcFacade produces financial statements and snapshots.
type ReportingSvcFacade interface {
	BalanceSheet(ctx context.Context, companyID string) (*domain.BalanceSheet, error)
	IncomeStatement(ctx context.Context, companyID string) (*domain.IncomeStatement, error)
	KeyMetrics(ctx context.Context, companyID string) (*domain.KeyMetrics, error)
	RecordSnapshots(ctx context.Context, month, year int) ([]string, error)
	Snapshots(ctx context.Context, companyID string) ([]domain.FinancialSnapshot, error)
}

// GameSvcFacade bootstraps a fresh game into an empty store.
type GameSvcFacade interface {
	InitializeGame(ctx context.Context) (*domain.Company, error)
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// ServiceContainer holds all the services of one game session.
type ServiceContainer struct {
	Ledger    LedgerSvcFacade
	Inventory InventorySvcFacade
	Market    MarketSvcFacade
	Bot       BotSvcFacade
	Event     EventSvcFacade
	Turn      TurnSvcFacade
	Reporting ReportingSvcFacade
	Game      GameSvcFacade
}

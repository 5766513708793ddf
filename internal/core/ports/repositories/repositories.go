// Package repositories defines the storage ports the core services depend
// on. The simulation session runs on the in-memory adapter; the pgsql adapter
// implements the same ports over the persisted schema.
package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
)

// AccountRepository stores the chart of accounts per company.
type AccountRepository interface {
	SaveAccounts(ctx context.Context, accounts []domain.Account) error
	// FindAccountByCode returns apperrors.ErrNotFound when absent.
	FindAccountByCode(ctx context.Context, companyID, code string) (*domain.Account, error)
	ListAccountsByCompany(ctx context.Context, companyID string) ([]domain.Account, error)
}

// TransactionRepository stores committed transactions. SaveTransaction
// appends the transaction with all of its journal entries and applies the
// signed balance changes to the affected accounts atomically: all lines and
// balance updates, or none.
type TransactionRepository interface {
	SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal) error
	ListTransactionsByCompany(ctx context.Context, companyID string) ([]domain.Transaction, error)
}

// CompanyRepository stores companies. ListCompanies returns ascending
// company-ID order; every deterministic iteration in the engine relies on it.
type CompanyRepository interface {
	SaveCompany(ctx context.Context, company domain.Company) error
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
	ListCompanies(ctx context.Context) ([]domain.Company, error)
}

// ProductRepository stores the shared product catalog. ListProducts returns
// ascending SKU order.
type ProductRepository interface {
	SaveProduct(ctx context.Context, product domain.Product) error
	FindProductByID(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// InventoryRepository stores per-company, per-product positions.
type InventoryRepository interface {
	// FindPosition returns apperrors.ErrNotFound when no position exists yet.
	FindPosition(ctx context.Context, companyID, productID string) (*domain.InventoryPosition, error)
	SavePosition(ctx context.Context, pos domain.InventoryPosition) error
	ListPositionsByCompany(ctx context.Context, companyID string) ([]domain.InventoryPosition, error)
}

// PriceRepository stores current offers and per-turn sales counters.
type PriceRepository interface {
	FindPriceState(ctx context.Context, companyID, productID string) (*domain.PriceState, error)
	SavePriceState(ctx context.Context, ps domain.PriceState) error
	// ListPricesByProduct returns ascending company-ID order.
	ListPricesByProduct(ctx context.Context, productID string) ([]domain.PriceState, error)
	ListPricesByCompany(ctx context.Context, companyID string) ([]domain.PriceState, error)
}

// MarketHistoryRepository stores per-turn market records.
type MarketHistoryRepository interface {
	SaveMarketRecord(ctx context.Context, rec domain.MarketRecord) error
	// ListRecentRecords returns up to limit records, newest first.
	ListRecentRecords(ctx context.Context, companyID, productID string, limit int) ([]domain.MarketRecord, error)
	// AverageAllocated returns the mean allocated demand for a product across
	// all companies and turns; ok is false when there is no history at all.
	AverageAllocated(ctx context.Context, productID string) (avg float64, ok bool, err error)
}

// ConditionRepository stores active market conditions.
type ConditionRepository interface {
	SaveCondition(ctx context.Context, cond domain.MarketCondition) error
	ListActiveConditions(ctx context.Context) ([]domain.MarketCondition, error)
	// DecayConditions decrements MonthsLeft on every active condition and
	// removes the ones that reach zero.
	DecayConditions(ctx context.Context) error
}

// EventRepository stores decision events. Resolved events are archived
// read-only; SaveEvent on a resolved event only ever happens through the
// event service's resolution path.
type EventRepository interface {
	SaveEvent(ctx context.Context, ev domain.DecisionEvent) error
	FindEventByID(ctx context.Context, eventID string) (*domain.DecisionEvent, error)
	ListPendingEvents(ctx context.Context) ([]domain.DecisionEvent, error)
}

// SnapshotRepository stores end-of-turn financial snapshots.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snap domain.FinancialSnapshot) error
	ListSnapshotsByCompany(ctx context.Context, companyID string) ([]domain.FinancialSnapshot, error)
}

// GameStateRepository stores the simulated calendar.
type GameStateRepository interface {
	GetState(ctx context.Context) (*domain.GameState, error)
	SaveState(ctx context.Context, state domain.GameState) error
}

// UnitOfWork runs fn all-or-nothing: when fn returns an error, every change
// made through the store inside fn is discarded. The turn scheduler wraps an
// entire turn in one unit of work so a mid-turn invariant violation never
// leaves a partial turn behind.
type UnitOfWork interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// GameStore aggregates every port a game session needs.
type GameStore interface {
	AccountRepository
	TransactionRepository
	CompanyRepository
	ProductRepository
	InventoryRepository
	PriceRepository
	MarketHistoryRepository
	ConditionRepository
	EventRepository
	SnapshotRepository
	GameStateRepository
	UnitOfWork
}

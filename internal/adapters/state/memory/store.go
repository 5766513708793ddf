// Package memory implements the game store ports in process memory. One
// Store instance holds one game session; all access is guarded by a single
// RWMutex so every method is atomic and reads never observe a mid-commit
// ledger.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
)

// Store is the in-memory game store.
type Store struct {
	mu sync.RWMutex
	// txMu serializes units of work so a rollback can never clobber a
	// concurrently committed one.
	txMu sync.Mutex
	s    state
}

type state struct {
	accounts     map[string]domain.Account // keyed by account ID
	accountCodes map[string]string         // companyID/code -> account ID
	transactions []domain.Transaction
	companies    map[string]domain.Company
	products     map[string]domain.Product
	inventory    map[string]domain.InventoryPosition // companyID/productID
	prices       map[string]domain.PriceState        // companyID/productID
	history      []domain.MarketRecord
	conditions   map[string]domain.MarketCondition
	events       map[string]domain.DecisionEvent
	snapshots    []domain.FinancialSnapshot
	game         domain.GameState
	hasGame      bool
}

// NewStore returns an empty game store.
func NewStore() *Store {
	return &Store{s: newState()}
}

func newState() state {
	return state{
		accounts:     make(map[string]domain.Account),
		accountCodes: make(map[string]string),
		companies:    make(map[string]domain.Company),
		products:     make(map[string]domain.Product),
		inventory:    make(map[string]domain.InventoryPosition),
		prices:       make(map[string]domain.PriceState),
		conditions:   make(map[string]domain.MarketCondition),
		events:       make(map[string]domain.DecisionEvent),
	}
}

var _ portsrepo.GameStore = (*Store)(nil)

func pairKey(companyID, productID string) string {
	return companyID + "/" + productID
}

// --- AccountRepository ---

func (st *Store) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, acc := range accounts {
		codeKey := pairKey(acc.CompanyID, acc.Code)
		if existingID, ok := st.s.accountCodes[codeKey]; ok && existingID != acc.AccountID {
			return fmt.Errorf("%w: account code %s for company %s", apperrors.ErrDuplicate, acc.Code, acc.CompanyID)
		}
	}
	for _, acc := range accounts {
		st.s.accounts[acc.AccountID] = acc
		st.s.accountCodes[pairKey(acc.CompanyID, acc.Code)] = acc.AccountID
	}
	return nil
}

func (st *Store) FindAccountByCode(ctx context.Context, companyID, code string) (*domain.Account, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.s.accountCodes[pairKey(companyID, code)]
	if !ok {
		return nil, fmt.Errorf("%w: account %s for company %s", apperrors.ErrNotFound, code, companyID)
	}
	acc := st.s.accounts[id]
	return &acc, nil
}

func (st *Store) ListAccountsByCompany(ctx context.Context, companyID string) ([]domain.Account, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.Account, 0, 16)
	for _, acc := range st.s.accounts {
		if acc.CompanyID == companyID {
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// --- TransactionRepository ---

func (st *Store) SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	// Validate every touched account before mutating anything.
	for accountID := range balanceChanges {
		if _, ok := st.s.accounts[accountID]; !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
	}
	stored := txn
	stored.Entries = make([]domain.JournalEntry, len(txn.Entries))
	copy(stored.Entries, txn.Entries)
	st.s.transactions = append(st.s.transactions, stored)
	for accountID, change := range balanceChanges {
		acc := st.s.accounts[accountID]
		acc.Balance = acc.Balance.Add(change)
		st.s.accounts[accountID] = acc
	}
	return nil
}

func (st *Store) ListTransactionsByCompany(ctx context.Context, companyID string) ([]domain.Transaction, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.Transaction, 0, 32)
	for _, txn := range st.s.transactions {
		if txn.CompanyID == companyID {
			out = append(out, txn)
		}
	}
	return out, nil
}

// --- CompanyRepository ---

func (st *Store) SaveCompany(ctx context.Context, company domain.Company) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.companies[company.CompanyID] = company.Clone()
	return nil
}

func (st *Store) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	c, ok := st.s.companies[companyID]
	if !ok {
		return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
	}
	clone := c.Clone()
	return &clone, nil
}

func (st *Store) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.Company, 0, len(st.s.companies))
	for _, c := range st.s.companies {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out, nil
}

// --- ProductRepository ---

func (st *Store) SaveProduct(ctx context.Context, product domain.Product) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.products[product.ProductID] = product
	return nil
}

func (st *Store) FindProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	p, ok := st.s.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", apperrors.ErrNotFound, productID)
	}
	return &p, nil
}

func (st *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.Product, 0, len(st.s.products))
	for _, p := range st.s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// --- InventoryRepository ---

func (st *Store) FindPosition(ctx context.Context, companyID, productID string) (*domain.InventoryPosition, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	pos, ok := st.s.inventory[pairKey(companyID, productID)]
	if !ok {
		return nil, fmt.Errorf("%w: inventory position %s/%s", apperrors.ErrNotFound, companyID, productID)
	}
	return &pos, nil
}

func (st *Store) SavePosition(ctx context.Context, pos domain.InventoryPosition) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.inventory[pairKey(pos.CompanyID, pos.ProductID)] = pos
	return nil
}

func (st *Store) ListPositionsByCompany(ctx context.Context, companyID string) ([]domain.InventoryPosition, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.InventoryPosition, 0, 8)
	for _, pos := range st.s.inventory {
		if pos.CompanyID == companyID {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// --- PriceRepository ---

func (st *Store) FindPriceState(ctx context.Context, companyID, productID string) (*domain.PriceState, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ps, ok := st.s.prices[pairKey(companyID, productID)]
	if !ok {
		return nil, fmt.Errorf("%w: price state %s/%s", apperrors.ErrNotFound, companyID, productID)
	}
	return &ps, nil
}

func (st *Store) SavePriceState(ctx context.Context, ps domain.PriceState) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.prices[pairKey(ps.CompanyID, ps.ProductID)] = ps
	return nil
}

func (st *Store) ListPricesByProduct(ctx context.Context, productID string) ([]domain.PriceState, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.PriceState, 0, 8)
	for _, ps := range st.s.prices {
		if ps.ProductID == productID {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out, nil
}

func (st *Store) ListPricesByCompany(ctx context.Context, companyID string) ([]domain.PriceState, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.PriceState, 0, 8)
	for _, ps := range st.s.prices {
		if ps.CompanyID == companyID {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// --- MarketHistoryRepository ---

func (st *Store) SaveMarketRecord(ctx context.Context, rec domain.MarketRecord) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.history = append(st.s.history, rec)
	return nil
}

func (st *Store) ListRecentRecords(ctx context.Context, companyID, productID string, limit int) ([]domain.MarketRecord, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.MarketRecord, 0, limit)
	for _, rec := range st.s.history {
		if rec.CompanyID == companyID && rec.ProductID == productID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (st *Store) AverageAllocated(ctx context.Context, productID string) (float64, bool, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var sum, n int64
	for _, rec := range st.s.history {
		if rec.ProductID == productID {
			sum += rec.DemandAllocated
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(n), true, nil
}

// --- ConditionRepository ---

func (st *Store) SaveCondition(ctx context.Context, cond domain.MarketCondition) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.conditions[cond.ConditionID] = cond
	return nil
}

func (st *Store) ListActiveConditions(ctx context.Context) ([]domain.MarketCondition, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.MarketCondition, 0, len(st.s.conditions))
	for _, cond := range st.s.conditions {
		if cond.MonthsLeft > 0 {
			out = append(out, cond)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConditionID < out[j].ConditionID })
	return out, nil
}

func (st *Store) DecayConditions(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, cond := range st.s.conditions {
		cond.MonthsLeft--
		if cond.MonthsLeft <= 0 {
			delete(st.s.conditions, id)
			continue
		}
		st.s.conditions[id] = cond
	}
	return nil
}

// --- EventRepository ---

func (st *Store) SaveEvent(ctx context.Context, ev domain.DecisionEvent) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	stored := ev
	stored.Choices = make([]domain.EventChoice, len(ev.Choices))
	copy(stored.Choices, ev.Choices)
	st.s.events[ev.EventID] = stored
	return nil
}

func (st *Store) FindEventByID(ctx context.Context, eventID string) (*domain.DecisionEvent, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ev, ok := st.s.events[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", apperrors.ErrNotFound, eventID)
	}
	return &ev, nil
}

func (st *Store) ListPendingEvents(ctx context.Context) ([]domain.DecisionEvent, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.DecisionEvent, 0, len(st.s.events))
	for _, ev := range st.s.events {
		if ev.Status == domain.EventPending {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

// --- SnapshotRepository ---

func (st *Store) SaveSnapshot(ctx context.Context, snap domain.FinancialSnapshot) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.snapshots = append(st.s.snapshots, snap)
	return nil
}

func (st *Store) ListSnapshotsByCompany(ctx context.Context, companyID string) ([]domain.FinancialSnapshot, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]domain.FinancialSnapshot, 0, 12)
	for _, snap := range st.s.snapshots {
		if snap.CompanyID == companyID {
			out = append(out, snap)
		}
	}
	return out, nil
}

// --- GameStateRepository ---

func (st *Store) GetState(ctx context.Context) (*domain.GameState, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if !st.s.hasGame {
		return nil, fmt.Errorf("%w: game state", apperrors.ErrNotFound)
	}
	game := st.s.game
	return &game, nil
}

func (st *Store) SaveState(ctx context.Context, game domain.GameState) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.game = game
	st.s.hasGame = true
	return nil
}

// --- UnitOfWork ---

// RunAtomic snapshots the whole state, runs fn, and restores the snapshot
// when fn fails. Nested store calls inside fn lock normally.
func (st *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	st.txMu.Lock()
	defer st.txMu.Unlock()

	snapshot := st.snapshotState()
	if err := fn(ctx); err != nil {
		st.mu.Lock()
		st.s = snapshot
		st.mu.Unlock()
		return err
	}
	return nil
}

func (st *Store) snapshotState() state {
	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := newState()
	for k, v := range st.s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range st.s.accountCodes {
		snap.accountCodes[k] = v
	}
	snap.transactions = append([]domain.Transaction(nil), st.s.transactions...)
	for k, v := range st.s.companies {
		snap.companies[k] = v.Clone()
	}
	for k, v := range st.s.products {
		snap.products[k] = v
	}
	for k, v := range st.s.inventory {
		snap.inventory[k] = v
	}
	for k, v := range st.s.prices {
		snap.prices[k] = v
	}
	snap.history = append([]domain.MarketRecord(nil), st.s.history...)
	for k, v := range st.s.conditions {
		snap.conditions[k] = v
	}
	for k, v := range st.s.events {
		snap.events[k] = v
	}
	snap.snapshots = append([]domain.FinancialSnapshot(nil), st.s.snapshots...)
	snap.game = st.s.game
	snap.hasGame = st.s.hasGame
	return snap
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/middleware"
)

// chartTemplate is the standard chart of accounts every company starts with.
var chartTemplate = []struct {
	Code string
	Name string
	Type domain.AccountType
}{
	{domain.CodeCash, "Cash", domain.Asset},
	{domain.CodeAccountsReceivable, "Accounts Receivable", domain.Asset},
	{domain.CodeInventory, "Inventory", domain.Asset},
	{domain.CodeWarehouses, "Warehouses", domain.Asset},
	{domain.CodeAccountsPayable, "Accounts Payable", domain.Liability},
	{domain.CodeLoansPayable, "Loans Payable", domain.Liability},
	{domain.CodeOwnersCapital, "Owner's Capital", domain.Equity},
	{domain.CodeRetainedEarnings, "Retained Earnings", domain.Equity},
	{domain.CodeSalesRevenue, "Sales Revenue", domain.Revenue},
	{domain.CodeOtherIncome, "Other Income", domain.Revenue},
	{domain.CodeCOGS, "Cost of Goods Sold", domain.Expense},
	{domain.CodeRentExpense, "Rent Expense", domain.Expense},
	{domain.CodeMarketingExpense, "Marketing Expense", domain.Expense},
	{domain.CodeLogisticsExpense, "Logistics Expense", domain.Expense},
	{domain.CodeEventExpense, "Event Expense", domain.Expense},
}

// ledgerService provides double-entry bookkeeping over the account and
// transaction repositories.
type ledgerService struct {
	accountRepo portsrepo.AccountRepository
	txnRepo     portsrepo.TransactionRepository
	guard       *TurnGuard
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accountRepo portsrepo.AccountRepository, txnRepo portsrepo.TransactionRepository, guard *TurnGuard) portssvc.LedgerSvcFacade {
	return &ledgerService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		guard:       guard,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// InitializeChartOfAccounts creates the standard chart for a company with
// zero balances.
func (s *ledgerService) InitializeChartOfAccounts(ctx context.Context, companyID string) ([]domain.Account, error) {
	accounts := make([]domain.Account, len(chartTemplate))
	for i, tpl := range chartTemplate {
		accounts[i] = domain.Account{
			AccountID: uuid.NewString(),
			CompanyID: companyID,
			Code:      tpl.Code,
			Name:      tpl.Name,
			Type:      tpl.Type,
			Balance:   decimal.Zero,
		}
	}
	if err := s.accountRepo.SaveAccounts(ctx, accounts); err != nil {
		return nil, fmt.Errorf("failed to save chart of accounts: %w", err)
	}
	return accounts, nil
}

// RecordCapitalInvestment posts the opening capital: debit Cash, credit
// Owner's Capital.
func (s *ledgerService) RecordCapitalInvestment(ctx context.Context, companyID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: capital investment must be positive, got %s", apperrors.ErrValidation, amount)
	}
	_, err := s.PostTransaction(ctx, companyID, time.Time{}, "Initial capital investment", []dto.TransactionEntryRequest{
		{AccountCode: domain.CodeCash, Debit: amount},
		{AccountCode: domain.CodeOwnersCapital, Credit: amount},
	})
	return err
}

// validateEntries checks the posting request lines: at least two lines, every
// amount non-negative, exactly one side set per line, and total debits equal
// total credits.
func (s *ledgerService) validateEntries(entries []dto.TransactionEntryRequest) error {
	if len(entries) < 2 {
		return fmt.Errorf("%w: transaction requires at least two entries", apperrors.ErrValidation)
	}
	debits := decimal.Zero
	credits := decimal.Zero
	for i, e := range entries {
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			return fmt.Errorf("%w: entry %d has a negative amount", apperrors.ErrValidation, i)
		}
		hasDebit := e.Debit.IsPositive()
		hasCredit := e.Credit.IsPositive()
		if hasDebit == hasCredit {
			return fmt.Errorf("%w: entry %d must set exactly one of debit or credit", apperrors.ErrValidation, i)
		}
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits sum to %s, credits sum to %s", apperrors.ErrUnbalancedTransaction, debits, credits)
	}
	return nil
}

// signedChange returns the balance delta one journal line applies to its
// account under the normal-balance convention: debits increase debit-normal
// balances and decrease credit-normal balances, credits the other way round.
func signedChange(entry domain.JournalEntry, accountType domain.AccountType) decimal.Decimal {
	amount := entry.Debit
	if !entry.IsDebit() {
		amount = entry.Credit
	}
	if accountType.DebitNormal() != entry.IsDebit() {
		amount = amount.Neg()
	}
	return amount
}

// PostTransaction validates the entries and commits the transaction with its
// balance changes atomically. Nothing is written when validation fails.
func (s *ledgerService) PostTransaction(ctx context.Context, companyID string, date time.Time, description string, entries []dto.TransactionEntryRequest) (*domain.Transaction, error) {
	defer s.guard.Acquire(ctx)()
	logger := middleware.GetLoggerFromCtx(ctx)

	if description == "" {
		return nil, fmt.Errorf("%w: transaction description is required", apperrors.ErrValidation)
	}
	if err := s.validateEntries(entries); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		CompanyID:     companyID,
		Date:          date,
		Description:   description,
		Entries:       make([]domain.JournalEntry, len(entries)),
	}
	balanceChanges := make(map[string]decimal.Decimal, len(entries))
	for i, req := range entries {
		account, err := s.accountRepo.FindAccountByCode(ctx, companyID, req.AccountCode)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve account code %s: %w", req.AccountCode, err)
		}
		entry := domain.JournalEntry{
			EntryID:       uuid.NewString(),
			TransactionID: txn.TransactionID,
			AccountID:     account.AccountID,
			Debit:         req.Debit,
			Credit:        req.Credit,
		}
		txn.Entries[i] = entry
		balanceChanges[account.AccountID] = balanceChanges[account.AccountID].Add(signedChange(entry, account.Type))
	}

	if err := s.txnRepo.SaveTransaction(ctx, txn, balanceChanges); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	logger.Info("transaction posted",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("company_id", companyID),
		slog.String("description", description),
		slog.Int("entries", len(txn.Entries)),
	)
	return &txn, nil
}

// GetAccount returns one account by its chart code.
func (s *ledgerService) GetAccount(ctx context.Context, companyID, code string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByCode(ctx, companyID, code)
}

// GetTrialBalance lists every account with its balance placed in the debit or
// credit column per the normal-balance convention.
func (s *ledgerService) GetTrialBalance(ctx context.Context, companyID string) ([]domain.TrialBalanceRow, error) {
	accounts, err := s.accountRepo.ListAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	rows := make([]domain.TrialBalanceRow, len(accounts))
	for i, acc := range accounts {
		row := domain.TrialBalanceRow{
			AccountID: acc.AccountID,
			Code:      acc.Code,
			Name:      acc.Name,
			Type:      acc.Type,
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
		}
		// A negative stored balance flips the account to its off-normal column.
		switch {
		case acc.Type.DebitNormal() && !acc.Balance.IsNegative():
			row.Debit = acc.Balance
		case acc.Type.DebitNormal():
			row.Credit = acc.Balance.Neg()
		case !acc.Balance.IsNegative():
			row.Credit = acc.Balance
		default:
			row.Debit = acc.Balance.Neg()
		}
		rows[i] = row
	}
	return rows, nil
}

// ListTransactions returns a company's committed transactions, oldest first.
func (s *ledgerService) ListTransactions(ctx context.Context, companyID string) ([]domain.Transaction, error) {
	return s.txnRepo.ListTransactionsByCompany(ctx, companyID)
}

// CashBalance returns the Cash account balance.
func (s *ledgerService) CashBalance(ctx context.Context, companyID string) (decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, companyID, domain.CodeCash)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// NetWorth returns total assets minus total liabilities.
func (s *ledgerService) NetWorth(ctx context.Context, companyID string) (decimal.Decimal, error) {
	accounts, err := s.accountRepo.ListAccountsByCompany(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}
	net := decimal.Zero
	for _, acc := range accounts {
		switch acc.Type {
		case domain.Asset:
			net = net.Add(acc.Balance)
		case domain.Liability:
			net = net.Sub(acc.Balance)
		}
	}
	return net, nil
}

// NetIncome returns total revenue minus total expenses, cumulative over the
// life of the books.
func (s *ledgerService) NetIncome(ctx context.Context, companyID string) (decimal.Decimal, error) {
	accounts, err := s.accountRepo.ListAccountsByCompany(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}
	net := decimal.Zero
	for _, acc := range accounts {
		switch acc.Type {
		case domain.Revenue:
			net = net.Add(acc.Balance)
		case domain.Expense:
			net = net.Sub(acc.Balance)
		}
	}
	return net, nil
}

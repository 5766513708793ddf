package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a single line of a transaction affecting one account.
// Exactly one of Debit/Credit is nonzero; both are non-negative.
type JournalEntry struct {
	EntryID       string          `json:"entryID"`
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// IsDebit reports whether this line debits its account.
func (e JournalEntry) IsDebit() bool {
	return e.Debit.IsPositive()
}

// Transaction is a balanced, immutable financial event. Once committed it is
// never edited; corrections are new offsetting transactions.
type Transaction struct {
	TransactionID string         `json:"transactionID"`
	CompanyID     string         `json:"companyID"`
	Date          time.Time      `json:"date"`
	Description   string         `json:"description"`
	Entries       []JournalEntry `json:"entries"`
}

// TrialBalanceRow is one account line of a trial balance. Debit-normal
// balances appear in the Debit column, credit-normal balances in Credit.
type TrialBalanceRow struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

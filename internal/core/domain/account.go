package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// DebitNormal reports whether accounts of this type increase on the debit side.
// Asset and Expense accounts are debit-normal; Liability, Equity and Revenue
// accounts are credit-normal.
func (t AccountType) DebitNormal() bool {
	return t == Asset || t == Expense
}

// Account represents one account in a company's book. Balance is stored
// signed per the normal-balance convention: a debit to a debit-normal account
// increases the balance, a credit decreases it, and vice versa for
// credit-normal accounts.
type Account struct {
	AccountID string          `json:"accountID"`
	CompanyID string          `json:"companyID"`
	Code      string          `json:"code"` // e.g. "1000" for Cash
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
}

// Standard chart-of-accounts codes shared by every company.
const (
	CodeCash               = "1000"
	CodeAccountsReceivable = "1100"
	CodeInventory          = "1200"
	CodeWarehouses         = "1500"
	CodeAccountsPayable    = "2000"
	CodeLoansPayable       = "2100"
	CodeOwnersCapital      = "3000"
	CodeRetainedEarnings   = "3100"
	CodeSalesRevenue       = "4000"
	CodeOtherIncome        = "4100"
	CodeCOGS               = "5000"
	CodeRentExpense        = "5100"
	CodeMarketingExpense   = "5200"
	CodeLogisticsExpense   = "5300"
	CodeEventExpense       = "5400"
)

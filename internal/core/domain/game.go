package domain

import "github.com/shopspring/decimal"

// GameState holds the simulated calendar and the terminal flag.
type GameState struct {
	Month int  `json:"month"`
	Year  int  `json:"year"`
	Over  bool `json:"over"`
}

// AdvanceMonth increments the calendar, rolling month 12 into January of the
// next year.
func (s *GameState) AdvanceMonth() {
	s.Month++
	if s.Month > 12 {
		s.Month = 1
		s.Year++
	}
}

// TurnSummary is what AdvanceTurn returns to the caller: the month just
// processed, the human-readable log, any decision events still awaiting the
// player, and whether any company crossed the bankruptcy threshold.
type TurnSummary struct {
	Month     int             `json:"month"`
	Year      int             `json:"year"`
	Log       []string        `json:"log"`
	NewEvents []DecisionEvent `json:"newEvents"`
	GameOver  bool            `json:"gameOver"`
}

// FinancialSnapshot is the end-of-turn financial state of one company.
type FinancialSnapshot struct {
	CompanyID      string          `json:"companyID"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	Cash           decimal.Decimal `json:"cash"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
	TotalAssets    decimal.Decimal `json:"totalAssets"`
	NetWorth       decimal.Decimal `json:"netWorth"` // assets - liabilities
	NetIncome      decimal.Decimal `json:"netIncome"`
}

// AccountAmount is an account with its net amount for financial reports.
type AccountAmount struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceSheet groups account balances by statement section.
type BalanceSheet struct {
	Assets           []AccountAmount `json:"assets"`
	Liabilities      []AccountAmount `json:"liabilities"`
	Equity           []AccountAmount `json:"equity"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	Balanced         bool            `json:"balanced"`
}

// KeyMetrics is the headline financial health view of one company.
type KeyMetrics struct {
	Cash         decimal.Decimal `json:"cash"`
	NetWorth     decimal.Decimal `json:"netWorth"`
	ProfitMargin decimal.Decimal `json:"profitMargin"`
	ROI          decimal.Decimal `json:"roi"`
	DebtRatio    decimal.Decimal `json:"debtRatio"`
}

// IncomeStatement summarizes revenue and expense balances.
type IncomeStatement struct {
	Revenue       []AccountAmount `json:"revenue"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
	ProfitMargin  decimal.Decimal `json:"profitMargin"` // percent of revenue
}

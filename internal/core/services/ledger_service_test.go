package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ledgertycoon/ledger_tycoon/internal/adapters/state/memory"
	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
	"github.com/ledgertycoon/ledger_tycoon/internal/platform/config"
)

// newTestContainer builds a service container over a fresh in-memory store
// with deterministic simulation settings.
func newTestContainer() (*portssvc.ServiceContainer, *memory.Store) {
	cfg := config.DefaultSimulation()
	cfg.DemandVariation = 0
	cfg.EconomicEventProbability = 0
	cfg.DisruptionProbability = 0
	store := memory.NewStore()
	return services.NewServiceContainer(cfg, store), store
}

type LedgerServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *portssvc.ServiceContainer
	companyID string
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	container, store := newTestContainer()
	s.svc = container
	s.companyID = uuid.NewString()
	err := store.SaveCompany(s.ctx, domain.Company{
		CompanyID:     s.companyID,
		Name:          "Test Co",
		Memory:        domain.NewStrategyMemory(),
		RiskModifiers: map[string]float64{},
		Flags:         map[string]bool{},
	})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.InitializeChartOfAccounts(s.ctx, s.companyID)
	s.Require().NoError(err)
}

func (s *LedgerServiceTestSuite) TestChartOfAccounts() {
	cash, err := s.svc.Ledger.GetAccount(s.ctx, s.companyID, domain.CodeCash)
	s.Require().NoError(err)
	s.Equal(domain.Asset, cash.Type)
	s.True(cash.Balance.IsZero())

	revenue, err := s.svc.Ledger.GetAccount(s.ctx, s.companyID, domain.CodeSalesRevenue)
	s.Require().NoError(err)
	s.Equal(domain.Revenue, revenue.Type)

	_, err = s.svc.Ledger.GetAccount(s.ctx, s.companyID, "9999")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceTestSuite) TestRecordCapitalInvestment() {
	amount := decimal.NewFromInt(100000)
	s.Require().NoError(s.svc.Ledger.RecordCapitalInvestment(s.ctx, s.companyID, amount))

	cash, err := s.svc.Ledger.CashBalance(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.True(cash.Equal(amount), "cash should equal the invested amount, got %s", cash)

	capital, err := s.svc.Ledger.GetAccount(s.ctx, s.companyID, domain.CodeOwnersCapital)
	s.Require().NoError(err)
	s.True(capital.Balance.Equal(amount))

	netWorth, err := s.svc.Ledger.NetWorth(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.True(netWorth.Equal(amount))
}

func (s *LedgerServiceTestSuite) TestPostTransaction_Balanced() {
	s.Require().NoError(s.svc.Ledger.RecordCapitalInvestment(s.ctx, s.companyID, decimal.NewFromInt(1000)))

	txn, err := s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Buy shelving",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeWarehouses, Debit: decimal.NewFromInt(400)},
			{AccountCode: domain.CodeCash, Credit: decimal.NewFromInt(400)},
		})
	s.Require().NoError(err)
	s.Len(txn.Entries, 2)

	cash, err := s.svc.Ledger.CashBalance(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.True(cash.Equal(decimal.NewFromInt(600)))
}

func (s *LedgerServiceTestSuite) TestPostTransaction_UnbalancedRejected() {
	before, err := s.svc.Ledger.GetTrialBalance(s.ctx, s.companyID)
	s.Require().NoError(err)

	_, err = s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Broken entry",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeCash, Debit: decimal.NewFromInt(100)},
			{AccountCode: domain.CodeSalesRevenue, Credit: decimal.NewFromInt(90)},
		})
	s.ErrorIs(err, apperrors.ErrUnbalancedTransaction)

	after, err := s.svc.Ledger.GetTrialBalance(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.Equal(before, after, "a rejected transaction must not touch any balance")
}

func (s *LedgerServiceTestSuite) TestPostTransaction_EntryShapeValidation() {
	_, err := s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "One line",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeCash, Debit: decimal.NewFromInt(100)},
		})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Both sides set",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeCash, Debit: decimal.NewFromInt(100), Credit: decimal.NewFromInt(100)},
			{AccountCode: domain.CodeSalesRevenue, Credit: decimal.NewFromInt(100)},
		})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Negative amount",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeCash, Debit: decimal.NewFromInt(-100)},
			{AccountCode: domain.CodeSalesRevenue, Credit: decimal.NewFromInt(-100)},
		})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerServiceTestSuite) TestTrialBalance_DebitsEqualCredits() {
	s.Require().NoError(s.svc.Ledger.RecordCapitalInvestment(s.ctx, s.companyID, decimal.NewFromInt(50000)))
	_, err := s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Loan received",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeCash, Debit: decimal.NewFromInt(20000)},
			{AccountCode: domain.CodeLoansPayable, Credit: decimal.NewFromInt(20000)},
		})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Marketing campaign",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeMarketingExpense, Debit: decimal.NewFromInt(3000)},
			{AccountCode: domain.CodeCash, Credit: decimal.NewFromInt(3000)},
		})
	s.Require().NoError(err)

	rows, err := s.svc.Ledger.GetTrialBalance(s.ctx, s.companyID)
	s.Require().NoError(err)

	debits := decimal.Zero
	credits := decimal.Zero
	for _, row := range rows {
		debits = debits.Add(row.Debit)
		credits = credits.Add(row.Credit)
	}
	s.True(debits.Equal(credits), "trial balance must balance: debits %s, credits %s", debits, credits)

	netIncome, err := s.svc.Ledger.NetIncome(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.True(netIncome.Equal(decimal.NewFromInt(-3000)))
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

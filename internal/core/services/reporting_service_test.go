package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/dto"
)

type ReportingServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *portssvc.ServiceContainer
	companyID string
}

func (s *ReportingServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	container, store := newTestContainer()
	s.svc = container

	s.companyID = uuid.NewString()
	err := store.SaveCompany(s.ctx, domain.Company{
		CompanyID:     s.companyID,
		Name:          "Report Co",
		Memory:        domain.NewStrategyMemory(),
		RiskModifiers: map[string]float64{},
		Flags:         map[string]bool{},
	})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.InitializeChartOfAccounts(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Ledger.RecordCapitalInvestment(s.ctx, s.companyID, decimal.NewFromInt(50000)))

	// One sale and two expenses so both statement sides carry amounts.
	_, err = s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Cash sale",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeCash, Debit: decimal.NewFromInt(10000)},
			{AccountCode: domain.CodeSalesRevenue, Credit: decimal.NewFromInt(10000)},
		})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Rent",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeRentExpense, Debit: decimal.NewFromInt(5000)},
			{AccountCode: domain.CodeCash, Credit: decimal.NewFromInt(5000)},
		})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.PostTransaction(s.ctx, s.companyID, time.Now(), "Marketing",
		[]dto.TransactionEntryRequest{
			{AccountCode: domain.CodeMarketingExpense, Debit: decimal.NewFromInt(3000)},
			{AccountCode: domain.CodeCash, Credit: decimal.NewFromInt(3000)},
		})
	s.Require().NoError(err)
}

func (s *ReportingServiceTestSuite) TestBalanceSheet() {
	sheet, err := s.svc.Reporting.BalanceSheet(s.ctx, s.companyID)
	s.Require().NoError(err)

	s.True(sheet.Balanced, "assets %s vs liabilities+equity %s",
		sheet.TotalAssets, sheet.TotalLiabilities.Add(sheet.TotalEquity))
	s.True(sheet.TotalAssets.Equal(decimal.NewFromInt(52000)))
	s.True(sheet.TotalLiabilities.IsZero())

	// Open revenue and expense balances surface as a net income equity line.
	last := sheet.Equity[len(sheet.Equity)-1]
	s.Equal("Current Net Income", last.Name)
	s.True(last.Amount.Equal(decimal.NewFromInt(2000)))
}

func (s *ReportingServiceTestSuite) TestIncomeStatement() {
	stmt, err := s.svc.Reporting.IncomeStatement(s.ctx, s.companyID)
	s.Require().NoError(err)

	s.True(stmt.TotalRevenue.Equal(decimal.NewFromInt(10000)))
	s.True(stmt.TotalExpenses.Equal(decimal.NewFromInt(8000)))
	s.True(stmt.NetIncome.Equal(decimal.NewFromInt(2000)))
	s.True(stmt.ProfitMargin.Equal(decimal.NewFromInt(20)), "2000/10000 as a percentage, got %s", stmt.ProfitMargin)
}

func (s *ReportingServiceTestSuite) TestKeyMetrics() {
	metrics, err := s.svc.Reporting.KeyMetrics(s.ctx, s.companyID)
	s.Require().NoError(err)

	s.True(metrics.Cash.Equal(decimal.NewFromInt(52000)))
	s.True(metrics.NetWorth.Equal(decimal.NewFromInt(52000)))
	s.True(metrics.ROI.Equal(decimal.NewFromInt(4)), "2000/50000 as a percentage, got %s", metrics.ROI)
	s.True(metrics.DebtRatio.IsZero())
}

func (s *ReportingServiceTestSuite) TestRecordSnapshots() {
	ids, err := s.svc.Reporting.RecordSnapshots(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Equal([]string{s.companyID}, ids)

	snaps, err := s.svc.Reporting.Snapshots(s.ctx, s.companyID)
	s.Require().NoError(err)
	s.Require().Len(snaps, 1)
	s.Equal(1, snaps[0].Month)
	s.True(snaps[0].Cash.Equal(decimal.NewFromInt(52000)))
	s.True(snaps[0].NetIncome.Equal(decimal.NewFromInt(2000)))
	s.True(snaps[0].InventoryValue.IsZero())
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}

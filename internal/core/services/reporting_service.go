package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
)

var oneHundred = decimal.NewFromInt(100)

// reportingService derives financial statements from the account balances
// and records end-of-turn snapshots.
type reportingService struct {
	accountRepo   portsrepo.AccountRepository
	inventoryRepo portsrepo.InventoryRepository
	companyRepo   portsrepo.CompanyRepository
	snapshotRepo  portsrepo.SnapshotRepository
	ledgerSvc     portssvc.LedgerSvcFacade
}

// NewReportingService creates a new ReportingService.
func NewReportingService(
	accountRepo portsrepo.AccountRepository,
	inventoryRepo portsrepo.InventoryRepository,
	companyRepo portsrepo.CompanyRepository,
	snapshotRepo portsrepo.SnapshotRepository,
	ledgerSvc portssvc.LedgerSvcFacade,
) portssvc.ReportingSvcFacade {
	return &reportingService{
		accountRepo:   accountRepo,
		inventoryRepo: inventoryRepo,
		companyRepo:   companyRepo,
		snapshotRepo:  snapshotRepo,
		ledgerSvc:     ledgerSvc,
	}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// BalanceSheet groups the account balances into statement sections. Because
// revenue and expense accounts are never closed out mid-game, the running net
// income appears as an equity line so the sheet always balances.
func (s *reportingService) BalanceSheet(ctx context.Context, companyID string) (*domain.BalanceSheet, error) {
	accounts, err := s.accountRepo.ListAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	sheet := &domain.BalanceSheet{
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	netIncome := decimal.Zero
	for _, acc := range accounts {
		line := domain.AccountAmount{Code: acc.Code, Name: acc.Name, Amount: acc.Balance}
		switch acc.Type {
		case domain.Asset:
			sheet.Assets = append(sheet.Assets, line)
			sheet.TotalAssets = sheet.TotalAssets.Add(acc.Balance)
		case domain.Liability:
			sheet.Liabilities = append(sheet.Liabilities, line)
			sheet.TotalLiabilities = sheet.TotalLiabilities.Add(acc.Balance)
		case domain.Equity:
			sheet.Equity = append(sheet.Equity, line)
			sheet.TotalEquity = sheet.TotalEquity.Add(acc.Balance)
		case domain.Revenue:
			netIncome = netIncome.Add(acc.Balance)
		case domain.Expense:
			netIncome = netIncome.Sub(acc.Balance)
		}
	}
	sheet.Equity = append(sheet.Equity, domain.AccountAmount{Code: "", Name: "Current Net Income", Amount: netIncome})
	sheet.TotalEquity = sheet.TotalEquity.Add(netIncome)
	sheet.Balanced = sheet.TotalAssets.Equal(sheet.TotalLiabilities.Add(sheet.TotalEquity))
	return sheet, nil
}

// IncomeStatement summarizes cumulative revenue and expenses.
func (s *reportingService) IncomeStatement(ctx context.Context, companyID string) (*domain.IncomeStatement, error) {
	accounts, err := s.accountRepo.ListAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	stmt := &domain.IncomeStatement{
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, acc := range accounts {
		line := domain.AccountAmount{Code: acc.Code, Name: acc.Name, Amount: acc.Balance}
		switch acc.Type {
		case domain.Revenue:
			stmt.Revenue = append(stmt.Revenue, line)
			stmt.TotalRevenue = stmt.TotalRevenue.Add(acc.Balance)
		case domain.Expense:
			stmt.Expenses = append(stmt.Expenses, line)
			stmt.TotalExpenses = stmt.TotalExpenses.Add(acc.Balance)
		}
	}
	stmt.NetIncome = stmt.TotalRevenue.Sub(stmt.TotalExpenses)
	stmt.ProfitMargin = decimal.Zero
	if stmt.TotalRevenue.IsPositive() {
		stmt.ProfitMargin = stmt.NetIncome.Mul(oneHundred).DivRound(stmt.TotalRevenue, 2)
	}
	return stmt, nil
}

// KeyMetrics returns the headline financial health figures for a company.
// ProfitMargin and ROI are percentages; DebtRatio is liabilities over assets.
func (s *reportingService) KeyMetrics(ctx context.Context, companyID string) (*domain.KeyMetrics, error) {
	stmt, err := s.IncomeStatement(ctx, companyID)
	if err != nil {
		return nil, err
	}
	cash, err := s.ledgerSvc.CashBalance(ctx, companyID)
	if err != nil {
		return nil, err
	}
	netWorth, err := s.ledgerSvc.NetWorth(ctx, companyID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.ListAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	totalAssets := decimal.Zero
	totalLiabilities := decimal.Zero
	invested := decimal.Zero
	for _, acc := range accounts {
		switch {
		case acc.Type == domain.Asset:
			totalAssets = totalAssets.Add(acc.Balance)
		case acc.Type == domain.Liability:
			totalLiabilities = totalLiabilities.Add(acc.Balance)
		case acc.Code == domain.CodeOwnersCapital:
			invested = acc.Balance
		}
	}

	metrics := &domain.KeyMetrics{
		Cash:         cash,
		NetWorth:     netWorth,
		ProfitMargin: stmt.ProfitMargin,
		ROI:          decimal.Zero,
		DebtRatio:    decimal.Zero,
	}
	if invested.IsPositive() {
		metrics.ROI = stmt.NetIncome.Mul(oneHundred).DivRound(invested, 2)
	}
	if totalAssets.IsPositive() {
		metrics.DebtRatio = totalLiabilities.DivRound(totalAssets, 4)
	}
	return metrics, nil
}

// RecordSnapshots stores an end-of-turn snapshot for every company and
// returns the snapshotted company IDs.
func (s *reportingService) RecordSnapshots(ctx context.Context, month, year int) ([]string, error) {
	companies, err := s.companyRepo.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	var ids []string
	for _, company := range companies {
		cash, err := s.ledgerSvc.CashBalance(ctx, company.CompanyID)
		if err != nil {
			return nil, err
		}
		netWorth, err := s.ledgerSvc.NetWorth(ctx, company.CompanyID)
		if err != nil {
			return nil, err
		}
		netIncome, err := s.ledgerSvc.NetIncome(ctx, company.CompanyID)
		if err != nil {
			return nil, err
		}
		positions, err := s.inventoryRepo.ListPositionsByCompany(ctx, company.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list inventory: %w", err)
		}
		inventoryValue := decimal.Zero
		for _, pos := range positions {
			inventoryValue = inventoryValue.Add(pos.Value())
		}
		accounts, err := s.accountRepo.ListAccountsByCompany(ctx, company.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}
		totalAssets := decimal.Zero
		for _, acc := range accounts {
			if acc.Type == domain.Asset {
				totalAssets = totalAssets.Add(acc.Balance)
			}
		}

		snap := domain.FinancialSnapshot{
			CompanyID:      company.CompanyID,
			Month:          month,
			Year:           year,
			Cash:           cash,
			InventoryValue: inventoryValue,
			TotalAssets:    totalAssets,
			NetWorth:       netWorth,
			NetIncome:      netIncome,
		}
		if err := s.snapshotRepo.SaveSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
		ids = append(ids, company.CompanyID)
	}
	return ids, nil
}

// Snapshots lists a company's snapshot history.
func (s *reportingService) Snapshots(ctx context.Context, companyID string) ([]domain.FinancialSnapshot, error) {
	return s.snapshotRepo.ListSnapshotsByCompany(ctx, companyID)
}

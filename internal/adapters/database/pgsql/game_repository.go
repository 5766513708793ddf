package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
)

// SaveCompany upserts a company. The strategy memory, risk modifiers and
// flags persist as JSONB.
func (s *Store) SaveCompany(ctx context.Context, company domain.Company) error {
	memory, err := json.Marshal(company.Memory)
	if err != nil {
		return fmt.Errorf("failed to marshal strategy memory: %w", err)
	}
	riskModifiers, err := json.Marshal(company.RiskModifiers)
	if err != nil {
		return fmt.Errorf("failed to marshal risk modifiers: %w", err)
	}
	flags, err := json.Marshal(company.Flags)
	if err != nil {
		return fmt.Errorf("failed to marshal flags: %w", err)
	}

	_, err = s.q(ctx).Exec(ctx, `
		INSERT INTO companies (company_id, name, is_player, brand_equity, personality, memory, risk_modifiers, flags, bankrupt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id) DO UPDATE SET
			name = EXCLUDED.name,
			brand_equity = EXCLUDED.brand_equity,
			personality = EXCLUDED.personality,
			memory = EXCLUDED.memory,
			risk_modifiers = EXCLUDED.risk_modifiers,
			flags = EXCLUDED.flags,
			bankrupt = EXCLUDED.bankrupt;
	`, company.CompanyID, company.Name, company.IsPlayer, company.BrandEquity, company.Personality, memory, riskModifiers, flags, company.Bankrupt)
	if err != nil {
		return fmt.Errorf("failed to upsert company %s: %w", company.CompanyID, err)
	}
	return nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var company domain.Company
	var memory, riskModifiers, flags []byte
	err := row.Scan(&company.CompanyID, &company.Name, &company.IsPlayer, &company.BrandEquity,
		&company.Personality, &memory, &riskModifiers, &flags, &company.Bankrupt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(memory, &company.Memory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strategy memory: %w", err)
	}
	if err := json.Unmarshal(riskModifiers, &company.RiskModifiers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk modifiers: %w", err)
	}
	if err := json.Unmarshal(flags, &company.Flags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flags: %w", err)
	}
	return &company, nil
}

const companyColumns = `company_id, name, is_player, brand_equity, personality, memory, risk_modifiers, flags, bankrupt`

// FindCompanyByID returns one company.
func (s *Store) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE company_id = $1;`, companyID)
	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
		}
		return nil, fmt.Errorf("failed to query company: %w", err)
	}
	return company, nil
}

// ListCompanies lists all companies in ascending ID order.
func (s *Store) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := s.q(ctx).Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY company_id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		out = append(out, *company)
	}
	return out, rows.Err()
}

// SaveProduct upserts a catalog entry.
func (s *Store) SaveProduct(ctx context.Context, product domain.Product) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO products (product_id, sku, name, base_cost, base_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO UPDATE SET
			name = EXCLUDED.name,
			base_cost = EXCLUDED.base_cost,
			base_price = EXCLUDED.base_price;
	`, product.ProductID, product.SKU, product.Name, product.BaseCost, product.BasePrice)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.SKU, err)
	}
	return nil
}

// FindProductByID returns one catalog entry.
func (s *Store) FindProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := s.q(ctx).QueryRow(ctx, `
		SELECT product_id, sku, name, base_cost, base_price FROM products WHERE product_id = $1;
	`, productID).Scan(&p.ProductID, &p.SKU, &p.Name, &p.BaseCost, &p.BasePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %s", apperrors.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

// ListProducts lists the catalog in SKU order.
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.q(ctx).Query(ctx, `SELECT product_id, sku, name, base_cost, base_price FROM products ORDER BY sku;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ProductID, &p.SKU, &p.Name, &p.BaseCost, &p.BasePrice); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveSnapshot appends an end-of-turn snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.FinancialSnapshot) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO financial_snapshots (company_id, month, year, cash, inventory_value, total_assets, net_worth, net_income)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, snap.CompanyID, snap.Month, snap.Year, snap.Cash, snap.InventoryValue, snap.TotalAssets, snap.NetWorth, snap.NetIncome)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// ListSnapshotsByCompany lists a company's snapshots, oldest first.
func (s *Store) ListSnapshotsByCompany(ctx context.Context, companyID string) ([]domain.FinancialSnapshot, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT company_id, month, year, cash, inventory_value, total_assets, net_worth, net_income
		FROM financial_snapshots WHERE company_id = $1 ORDER BY year, month;
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.FinancialSnapshot
	for rows.Next() {
		var snap domain.FinancialSnapshot
		if err := rows.Scan(&snap.CompanyID, &snap.Month, &snap.Year, &snap.Cash, &snap.InventoryValue, &snap.TotalAssets, &snap.NetWorth, &snap.NetIncome); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// GetState returns the simulated calendar.
func (s *Store) GetState(ctx context.Context) (*domain.GameState, error) {
	var state domain.GameState
	err := s.q(ctx).QueryRow(ctx, `SELECT month, year, over FROM game_state WHERE id = 1;`).
		Scan(&state.Month, &state.Year, &state.Over)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: game state", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query game state: %w", err)
	}
	return &state, nil
}

// SaveState upserts the single game state row.
func (s *Store) SaveState(ctx context.Context, state domain.GameState) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO game_state (id, month, year, over)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET month = EXCLUDED.month, year = EXCLUDED.year, over = EXCLUDED.over;
	`, state.Month, state.Year, state.Over)
	if err != nil {
		return fmt.Errorf("failed to upsert game state: %w", err)
	}
	return nil
}

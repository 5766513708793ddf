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

// FindPosition returns one inventory position.
func (s *Store) FindPosition(ctx context.Context, companyID, productID string) (*domain.InventoryPosition, error) {
	var pos domain.InventoryPosition
	err := s.q(ctx).QueryRow(ctx, `
		SELECT company_id, product_id, quantity, wac
		FROM inventory_positions WHERE company_id = $1 AND product_id = $2;
	`, companyID, productID).Scan(&pos.CompanyID, &pos.ProductID, &pos.Quantity, &pos.WAC)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: inventory position %s/%s", apperrors.ErrNotFound, companyID, productID)
		}
		return nil, fmt.Errorf("failed to query inventory position: %w", err)
	}
	return &pos, nil
}

// SavePosition upserts an inventory position.
func (s *Store) SavePosition(ctx context.Context, pos domain.InventoryPosition) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO inventory_positions (company_id, product_id, quantity, wac)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity, wac = EXCLUDED.wac;
	`, pos.CompanyID, pos.ProductID, pos.Quantity, pos.WAC)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory position: %w", err)
	}
	return nil
}

// ListPositionsByCompany lists a company's positions.
func (s *Store) ListPositionsByCompany(ctx context.Context, companyID string) ([]domain.InventoryPosition, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT company_id, product_id, quantity, wac
		FROM inventory_positions WHERE company_id = $1 ORDER BY product_id;
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory positions: %w", err)
	}
	defer rows.Close()

	var out []domain.InventoryPosition
	for rows.Next() {
		var pos domain.InventoryPosition
		if err := rows.Scan(&pos.CompanyID, &pos.ProductID, &pos.Quantity, &pos.WAC); err != nil {
			return nil, fmt.Errorf("failed to scan inventory position: %w", err)
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

// FindPriceState returns one company's offer for a product.
func (s *Store) FindPriceState(ctx context.Context, companyID, productID string) (*domain.PriceState, error) {
	var ps domain.PriceState
	err := s.q(ctx).QueryRow(ctx, `
		SELECT company_id, product_id, price, units_sold, revenue
		FROM price_states WHERE company_id = $1 AND product_id = $2;
	`, companyID, productID).Scan(&ps.CompanyID, &ps.ProductID, &ps.Price, &ps.UnitsSold, &ps.Revenue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: price state %s/%s", apperrors.ErrNotFound, companyID, productID)
		}
		return nil, fmt.Errorf("failed to query price state: %w", err)
	}
	return &ps, nil
}

// SavePriceState upserts a price state.
func (s *Store) SavePriceState(ctx context.Context, ps domain.PriceState) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO price_states (company_id, product_id, price, units_sold, revenue)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, product_id) DO UPDATE SET
			price = EXCLUDED.price, units_sold = EXCLUDED.units_sold, revenue = EXCLUDED.revenue;
	`, ps.CompanyID, ps.ProductID, ps.Price, ps.UnitsSold, ps.Revenue)
	if err != nil {
		return fmt.Errorf("failed to upsert price state: %w", err)
	}
	return nil
}

// ListPricesByProduct lists all offers for a product in ascending company-ID
// order.
func (s *Store) ListPricesByProduct(ctx context.Context, productID string) ([]domain.PriceState, error) {
	return s.listPrices(ctx, `
		SELECT company_id, product_id, price, units_sold, revenue
		FROM price_states WHERE product_id = $1 ORDER BY company_id;
	`, productID)
}

// ListPricesByCompany lists one company's offers.
func (s *Store) ListPricesByCompany(ctx context.Context, companyID string) ([]domain.PriceState, error) {
	return s.listPrices(ctx, `
		SELECT company_id, product_id, price, units_sold, revenue
		FROM price_states WHERE company_id = $1 ORDER BY product_id;
	`, companyID)
}

func (s *Store) listPrices(ctx context.Context, query string, arg any) ([]domain.PriceState, error) {
	rows, err := s.q(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query price states: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceState
	for rows.Next() {
		var ps domain.PriceState
		if err := rows.Scan(&ps.CompanyID, &ps.ProductID, &ps.Price, &ps.UnitsSold, &ps.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan price state: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// SaveMarketRecord appends one market history row.
func (s *Store) SaveMarketRecord(ctx context.Context, rec domain.MarketRecord) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO market_history (company_id, product_id, month, year, price, units_sold, revenue, demand_allocated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, rec.CompanyID, rec.ProductID, rec.Month, rec.Year, rec.Price, rec.UnitsSold, rec.Revenue, rec.DemandAllocated)
	if err != nil {
		return fmt.Errorf("failed to insert market record: %w", err)
	}
	return nil
}

// ListRecentRecords returns up to limit records for the company/product,
// newest first.
func (s *Store) ListRecentRecords(ctx context.Context, companyID, productID string, limit int) ([]domain.MarketRecord, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT company_id, product_id, month, year, price, units_sold, revenue, demand_allocated
		FROM market_history
		WHERE company_id = $1 AND product_id = $2
		ORDER BY year DESC, month DESC
		LIMIT $3;
	`, companyID, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query market history: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketRecord
	for rows.Next() {
		var rec domain.MarketRecord
		if err := rows.Scan(&rec.CompanyID, &rec.ProductID, &rec.Month, &rec.Year, &rec.Price, &rec.UnitsSold, &rec.Revenue, &rec.DemandAllocated); err != nil {
			return nil, fmt.Errorf("failed to scan market record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AverageAllocated returns the mean allocated demand for a product across all
// companies and turns.
func (s *Store) AverageAllocated(ctx context.Context, productID string) (float64, bool, error) {
	var avg *float64
	err := s.q(ctx).QueryRow(ctx, `
		SELECT AVG(demand_allocated) FROM market_history WHERE product_id = $1;
	`, productID).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("failed to average market history: %w", err)
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

// SaveCondition upserts a market condition.
func (s *Store) SaveCondition(ctx context.Context, cond domain.MarketCondition) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO market_conditions (condition_id, kind, intensity, product_id, months_left, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (condition_id) DO UPDATE SET months_left = EXCLUDED.months_left;
	`, cond.ConditionID, cond.Kind, cond.Intensity, cond.ProductID, cond.MonthsLeft, cond.Description)
	if err != nil {
		return fmt.Errorf("failed to upsert market condition: %w", err)
	}
	return nil
}

// ListActiveConditions lists conditions with months remaining.
func (s *Store) ListActiveConditions(ctx context.Context) ([]domain.MarketCondition, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT condition_id, kind, intensity, product_id, months_left, description
		FROM market_conditions WHERE months_left > 0 ORDER BY condition_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query market conditions: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketCondition
	for rows.Next() {
		var cond domain.MarketCondition
		if err := rows.Scan(&cond.ConditionID, &cond.Kind, &cond.Intensity, &cond.ProductID, &cond.MonthsLeft, &cond.Description); err != nil {
			return nil, fmt.Errorf("failed to scan market condition: %w", err)
		}
		out = append(out, cond)
	}
	return out, rows.Err()
}

// DecayConditions decrements every active condition and removes expired ones.
func (s *Store) DecayConditions(ctx context.Context) error {
	q := s.q(ctx)
	if _, err := q.Exec(ctx, `UPDATE market_conditions SET months_left = months_left - 1;`); err != nil {
		return fmt.Errorf("failed to decay market conditions: %w", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM market_conditions WHERE months_left <= 0;`); err != nil {
		return fmt.Errorf("failed to purge expired market conditions: %w", err)
	}
	return nil
}

// SaveEvent upserts a decision event. Choices persist as JSONB.
func (s *Store) SaveEvent(ctx context.Context, ev domain.DecisionEvent) error {
	choices, err := json.Marshal(ev.Choices)
	if err != nil {
		return fmt.Errorf("failed to marshal event choices: %w", err)
	}
	_, err = s.q(ctx).Exec(ctx, `
		INSERT INTO decision_events (event_id, company_id, title, description, choices, default_choice_id, deadline_month, deadline_year, status, resolved_choice_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO UPDATE SET status = EXCLUDED.status, resolved_choice_id = EXCLUDED.resolved_choice_id;
	`, ev.EventID, ev.CompanyID, ev.Title, ev.Description, choices, ev.DefaultChoiceID, ev.DeadlineMonth, ev.DeadlineYear, ev.Status, ev.ResolvedChoiceID)
	if err != nil {
		return fmt.Errorf("failed to upsert decision event: %w", err)
	}
	return nil
}

func scanEvent(row pgx.Row) (*domain.DecisionEvent, error) {
	var ev domain.DecisionEvent
	var choices []byte
	err := row.Scan(&ev.EventID, &ev.CompanyID, &ev.Title, &ev.Description, &choices,
		&ev.DefaultChoiceID, &ev.DeadlineMonth, &ev.DeadlineYear, &ev.Status, &ev.ResolvedChoiceID)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(choices, &ev.Choices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event choices: %w", err)
	}
	return &ev, nil
}

const eventColumns = `event_id, company_id, title, description, choices, default_choice_id, deadline_month, deadline_year, status, resolved_choice_id`

// FindEventByID returns one decision event.
func (s *Store) FindEventByID(ctx context.Context, eventID string) (*domain.DecisionEvent, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+eventColumns+` FROM decision_events WHERE event_id = $1;`, eventID)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: event %s", apperrors.ErrNotFound, eventID)
		}
		return nil, fmt.Errorf("failed to query decision event: %w", err)
	}
	return ev, nil
}

// ListPendingEvents lists unresolved events in event-ID order.
func (s *Store) ListPendingEvents(ctx context.Context) ([]domain.DecisionEvent, error) {
	rows, err := s.q(ctx).Query(ctx, `SELECT `+eventColumns+` FROM decision_events WHERE status = $1 ORDER BY event_id;`, domain.EventPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision events: %w", err)
	}
	defer rows.Close()

	var out []domain.DecisionEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision event: %w", err)
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

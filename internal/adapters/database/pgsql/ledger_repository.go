package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
)

// SaveAccounts upserts a batch of accounts.
func (s *Store) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	q := s.q(ctx)
	batch := &pgx.Batch{}
	query := `
		INSERT INTO accounts (account_id, company_id, code, name, type, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO UPDATE SET balance = EXCLUDED.balance;
	`
	for _, acc := range accounts {
		batch.Queue(query, acc.AccountID, acc.CompanyID, acc.Code, acc.Name, acc.Type, acc.Balance)
	}
	br := q.SendBatch(ctx, batch)
	defer br.Close()
	for range accounts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
	}
	return nil
}

// FindAccountByCode returns one account by company and chart code.
func (s *Store) FindAccountByCode(ctx context.Context, companyID, code string) (*domain.Account, error) {
	query := `
		SELECT account_id, company_id, code, name, type, balance
		FROM accounts WHERE company_id = $1 AND code = $2;
	`
	var acc domain.Account
	err := s.q(ctx).QueryRow(ctx, query, companyID, code).
		Scan(&acc.AccountID, &acc.CompanyID, &acc.Code, &acc.Name, &acc.Type, &acc.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s for company %s", apperrors.ErrNotFound, code, companyID)
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &acc, nil
}

// ListAccountsByCompany lists a company's chart in code order.
func (s *Store) ListAccountsByCompany(ctx context.Context, companyID string) ([]domain.Account, error) {
	query := `
		SELECT account_id, company_id, code, name, type, balance
		FROM accounts WHERE company_id = $1 ORDER BY code;
	`
	rows, err := s.q(ctx).Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var acc domain.Account
		if err := rows.Scan(&acc.AccountID, &acc.CompanyID, &acc.Code, &acc.Name, &acc.Type, &acc.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

// SaveTransaction inserts the transaction with its journal entries and
// applies the balance changes, all inside one database transaction.
func (s *Store) SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal) error {
	return s.RunAtomic(ctx, func(ctx context.Context) error {
		q := s.q(ctx)

		_, err := q.Exec(ctx, `
			INSERT INTO transactions (transaction_id, company_id, date, description)
			VALUES ($1, $2, $3, $4);
		`, txn.TransactionID, txn.CompanyID, txn.Date, txn.Description)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
		}

		batch := &pgx.Batch{}
		entryQuery := `
			INSERT INTO journal_entries (entry_id, transaction_id, account_id, debit, credit)
			VALUES ($1, $2, $3, $4, $5);
		`
		for _, e := range txn.Entries {
			batch.Queue(entryQuery, e.EntryID, e.TransactionID, e.AccountID, e.Debit, e.Credit)
		}
		balanceQuery := `UPDATE accounts SET balance = balance + $1 WHERE account_id = $2;`
		accountIDs := make([]string, 0, len(balanceChanges))
		for accountID := range balanceChanges {
			accountIDs = append(accountIDs, accountID)
		}
		for _, accountID := range accountIDs {
			batch.Queue(balanceQuery, balanceChanges[accountID], accountID)
		}

		br := q.SendBatch(ctx, batch)
		defer br.Close()
		for range txn.Entries {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to insert journal entry: %w", err)
			}
		}
		for _, accountID := range accountIDs {
			tag, err := br.Exec()
			if err != nil {
				return fmt.Errorf("failed to update account balance: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
			}
		}
		return nil
	})
}

// ListTransactionsByCompany returns a company's transactions with their
// entries, oldest first.
func (s *Store) ListTransactionsByCompany(ctx context.Context, companyID string) ([]domain.Transaction, error) {
	q := s.q(ctx)
	rows, err := q.Query(ctx, `
		SELECT transaction_id, company_id, date, description
		FROM transactions WHERE company_id = $1 ORDER BY date, transaction_id;
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var txn domain.Transaction
		if err := rows.Scan(&txn.TransactionID, &txn.CompanyID, &txn.Date, &txn.Description); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		index[txn.TransactionID] = len(out)
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	entryRows, err := q.Query(ctx, `
		SELECT e.entry_id, e.transaction_id, e.account_id, e.debit, e.credit
		FROM journal_entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE t.company_id = $1;
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer entryRows.Close()
	for entryRows.Next() {
		var e domain.JournalEntry
		if err := entryRows.Scan(&e.EntryID, &e.TransactionID, &e.AccountID, &e.Debit, &e.Credit); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if i, ok := index[e.TransactionID]; ok {
			out[i].Entries = append(out[i].Entries, e)
		}
	}
	return out, entryRows.Err()
}

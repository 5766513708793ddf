package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
)

// TransactionEntryRequest is one journal line of a posting request. Exactly
// one of Debit/Credit must be nonzero; both must be non-negative.
type TransactionEntryRequest struct {
	AccountCode string          `json:"accountCode" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// PostTransactionRequest is the payload for posting a balanced transaction.
type PostTransactionRequest struct {
	Date        time.Time                 `json:"date"`
	Description string                    `json:"description" binding:"required"`
	Entries     []TransactionEntryRequest `json:"entries" binding:"required,min=2,dive"`
}

// TransactionResponse mirrors a committed transaction.
type TransactionResponse struct {
	TransactionID string                     `json:"transactionID"`
	Date          time.Time                  `json:"date"`
	Description   string                     `json:"description"`
	Entries       []TransactionEntryResponse `json:"entries"`
}

// TransactionEntryResponse is one committed journal line.
type TransactionEntryResponse struct {
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// ToTransactionResponse maps a domain transaction to its response shape.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	entries := make([]TransactionEntryResponse, len(txn.Entries))
	for i, e := range txn.Entries {
		entries[i] = TransactionEntryResponse{
			AccountID: e.AccountID,
			Debit:     e.Debit,
			Credit:    e.Credit,
		}
	}
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		Date:          txn.Date,
		Description:   txn.Description,
		Entries:       entries,
	}
}

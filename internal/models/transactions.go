package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDebit      TransactionType = "debit"
	TransactionRefund     TransactionType = "refund"
	TransactionCorrection TransactionType = "correction"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionDebit, TransactionRefund, TransactionCorrection:
		return true
	}
	return false
}

// Transaction is a ledger record. Amount is signed: debits are positive,
// refunds and corrections negative.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	TransactionType TransactionType `json:"transaction_type"`
	CategoryID      string          `json:"category_id,omitempty"`
	BudgetRef       string          `json:"budget_ref,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Reference       string          `json:"reference"`
	Description     string          `json:"description,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LedgerQuery selects transactions for a set of users in [From, To] whole
// days, optionally restricted to one category.
type LedgerQuery struct {
	UserIDs    []string
	From       Date
	To         Date
	CategoryID string
}

// Matches reports whether t falls inside the query window and category.
func (q LedgerQuery) Matches(t Transaction) bool {
	at := t.OccurredAt.UTC()
	if at.Before(q.From.Start()) || !at.Before(q.To.End()) {
		return false
	}
	if q.CategoryID != "" && t.CategoryID != q.CategoryID {
		return false
	}
	for _, id := range q.UserIDs {
		if id == t.UserID {
			return true
		}
	}
	return false
}

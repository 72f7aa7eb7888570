package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fintrack/internal/models"
)

func (s *SQLStore) RecordTransaction(ctx context.Context, tx models.Transaction) error {
	query := `INSERT INTO transactions (id, user_id, transaction_type, category_id, budget_ref, amount, reference, description, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		tx.ID, tx.UserID, string(tx.TransactionType), nullString(tx.CategoryID), nullString(tx.BudgetRef),
		tx.Amount, tx.Reference, tx.Description, formatTimestamp(tx.OccurredAt), formatTimestamp(tx.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the transactions matching q, oldest first.
func (s *SQLStore) ListTransactions(ctx context.Context, q models.LedgerQuery) ([]models.Transaction, error) {
	result := make([]models.Transaction, 0)
	if len(q.UserIDs) == 0 {
		return result, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, transaction_type, category_id, budget_ref, amount, reference, description, occurred_at, created_at
		FROM transactions WHERE user_id IN (`)
	sb.WriteString(placeholders(len(q.UserIDs)))
	sb.WriteString(`) AND occurred_at >= ? AND occurred_at < ?`)

	args := stringArgs(q.UserIDs)
	args = append(args, formatTimestamp(q.From.Start()), formatTimestamp(q.To.End()))

	if q.CategoryID != "" {
		sb.WriteString(` AND category_id = ?`)
		args = append(args, q.CategoryID)
	}
	sb.WriteString(` ORDER BY occurred_at, id`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t                     models.Transaction
			txType                string
			categoryID, budgetRef sql.NullString
			occurredAt, createdAt string
		)
		err := rows.Scan(&t.ID, &t.UserID, &txType, &categoryID, &budgetRef, &t.Amount, &t.Reference,
			&t.Description, &occurredAt, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		t.TransactionType = models.TransactionType(txType)
		t.CategoryID = categoryID.String
		t.BudgetRef = budgetRef.String
		if t.OccurredAt, err = parseTimestamp(occurredAt); err != nil {
			return nil, fmt.Errorf("parse occurred_at: %w", err)
		}
		if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

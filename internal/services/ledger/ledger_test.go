package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fintrack/internal/apperrors"
	"fintrack/internal/models"
	"fintrack/internal/repositories/store"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	if err := s.CreateCategory(context.Background(), models.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return New(s, s, Options{Now: func() time.Time { return fixedNow }}), s
}

func TestRecord_SignsByType(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		txType models.TransactionType
		want   string
	}{
		{models.TransactionDebit, "12.50"},
		{models.TransactionRefund, "-12.50"},
		{models.TransactionCorrection, "-12.50"},
	}
	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			tx, err := svc.Record(ctx, "u1", RecordInput{
				TransactionType: tt.txType,
				CategoryID:      "food",
				Amount:          decimal.RequireFromString("12.50"),
			})
			if err != nil {
				t.Fatalf("Record: %v", err)
			}
			if !tx.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("amount = %s, want %s", tx.Amount, tt.want)
			}
			if !strings.HasPrefix(tx.Reference, "TXN-20240610090000-") {
				t.Fatalf("reference = %q", tx.Reference)
			}
			if !tx.OccurredAt.Equal(fixedNow) {
				t.Fatalf("occurredAt = %v, want now", tx.OccurredAt)
			}
		})
	}
}

func TestRecord_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		name string
		in   RecordInput
	}{
		{name: "bad type", in: RecordInput{TransactionType: "credit", Amount: decimal.NewFromInt(1)}},
		{name: "zero amount", in: RecordInput{TransactionType: models.TransactionDebit}},
		{name: "negative amount", in: RecordInput{TransactionType: models.TransactionDebit, Amount: decimal.NewFromInt(-1)}},
		{name: "sub-cent amount", in: RecordInput{TransactionType: models.TransactionDebit, Amount: decimal.RequireFromString("0.001")}},
		{name: "unknown category", in: RecordInput{TransactionType: models.TransactionDebit, Amount: decimal.NewFromInt(1), CategoryID: "rent"}},
		{name: "long description", in: RecordInput{TransactionType: models.TransactionDebit, Amount: decimal.NewFromInt(1), Description: strings.Repeat("x", 256)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), "u1", tt.in)
			if !apperrors.Is(err, apperrors.KindValidation) {
				t.Fatalf("Record = %v, want VALIDATION", err)
			}
		})
	}
}

func TestListForUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	record := func(user string, at time.Time) {
		t.Helper()
		_, err := svc.Record(ctx, user, RecordInput{
			TransactionType: models.TransactionDebit,
			Amount:          decimal.NewFromInt(10),
			OccurredAt:      &at,
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	record("u1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	record("u1", time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC))
	record("u1", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	record("u2", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))

	txs, err := svc.ListForUser(ctx, "u1", models.Date{}, models.Date{})
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions for the current month, want 2", len(txs))
	}

	txs, err = svc.ListForUser(ctx, "u1", models.NewDate(2024, time.June, 1), models.NewDate(2024, time.July, 31))
	if err != nil || len(txs) != 3 {
		t.Fatalf("explicit range = %d, %v", len(txs), err)
	}

	_, err = svc.ListForUser(ctx, "u1", models.NewDate(2024, time.July, 1), models.NewDate(2024, time.June, 1))
	if !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("inverted range = %v, want VALIDATION", err)
	}

	_, err = svc.ListForUser(ctx, "u1", models.NewDate(2022, time.January, 1), models.NewDate(2024, time.June, 1))
	if !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("oversized range = %v, want VALIDATION", err)
	}
}

type failingStore struct{ err error }

func (f failingStore) RecordTransaction(context.Context, models.Transaction) error { return f.err }

func (f failingStore) ListTransactions(context.Context, models.LedgerQuery) ([]models.Transaction, error) {
	return nil, f.err
}

func TestStoreFailuresAreInternal(t *testing.T) {
	cause := errors.New("disk full")
	svc := New(failingStore{err: cause}, store.NewMemoryStore(), Options{Now: func() time.Time { return fixedNow }})
	ctx := context.Background()

	_, err := svc.Record(ctx, "u1", RecordInput{TransactionType: models.TransactionDebit, Amount: decimal.NewFromInt(1)})
	if !apperrors.Is(err, apperrors.KindInternal) || !errors.Is(err, cause) {
		t.Fatalf("Record = %v, want INTERNAL wrapping the store error", err)
	}

	_, err = svc.ListForUser(ctx, "u1", models.Date{}, models.Date{})
	if !apperrors.Is(err, apperrors.KindInternal) || !errors.Is(err, cause) {
		t.Fatalf("ListForUser = %v, want INTERNAL wrapping the store error", err)
	}
}

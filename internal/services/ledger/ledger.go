// Package ledger records the transactions group budgets are computed from.
package ledger

import (
	"context"
	"strings"
	"time"

	"fintrack/internal/apperrors"
	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	referencePrefix      = "TXN-"
	maxDescriptionLength = 255
	// maxListWindow bounds how many days one listing may span.
	maxListWindow = 366
)

type Store interface {
	RecordTransaction(ctx context.Context, tx models.Transaction) error
	ListTransactions(ctx context.Context, q models.LedgerQuery) ([]models.Transaction, error)
}

type CategoryReader interface {
	Exists(ctx context.Context, categoryID string) (bool, error)
}

// RecordInput is a transaction as a member submits it. Amount is always a
// positive magnitude; the type decides the sign stored in the ledger.
type RecordInput struct {
	TransactionType models.TransactionType `json:"transaction_type"`
	CategoryID      string                 `json:"category_id"`
	BudgetRef       string                 `json:"budget_ref"`
	Amount          decimal.Decimal        `json:"amount"`
	Description     string                 `json:"description"`
	OccurredAt      *time.Time             `json:"occurred_at"`
}

type Options struct {
	Now   func() time.Time
	NewID func() string
}

type Service struct {
	store      Store
	categories CategoryReader
	now        func() time.Time
	newID      func() string
}

func New(store Store, categories CategoryReader, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{store: store, categories: categories, now: opts.Now, newID: opts.NewID}
}

// SignedAmount applies the ledger sign convention: debits count toward
// spend, refunds and corrections reduce it.
func SignedAmount(t models.TransactionType, magnitude decimal.Decimal) decimal.Decimal {
	if t == models.TransactionDebit {
		return magnitude
	}
	return magnitude.Neg()
}

func (s *Service) Record(ctx context.Context, userID string, in RecordInput) (models.Transaction, error) {
	if !in.TransactionType.IsValid() {
		return models.Transaction{}, apperrors.New(apperrors.KindValidation, "transaction_type must be one of debit, refund or correction")
	}
	if !in.Amount.IsPositive() {
		return models.Transaction{}, apperrors.New(apperrors.KindValidation, "amount must be greater than zero")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return models.Transaction{}, apperrors.New(apperrors.KindValidation, "amount must have at most two decimal places")
	}
	in.Description = strings.TrimSpace(in.Description)
	if len(in.Description) > maxDescriptionLength {
		return models.Transaction{}, apperrors.New(apperrors.KindValidation, "description too long")
	}

	in.CategoryID = strings.TrimSpace(in.CategoryID)
	if in.CategoryID != "" {
		ok, err := s.categories.Exists(ctx, in.CategoryID)
		if err != nil {
			return models.Transaction{}, apperrors.Wrap(apperrors.KindUnavailable, "category service unavailable", err)
		}
		if !ok {
			return models.Transaction{}, apperrors.Newf(apperrors.KindValidation, "category %q does not exist", in.CategoryID)
		}
	}

	now := s.now()
	occurredAt := now
	if in.OccurredAt != nil {
		occurredAt = in.OccurredAt.UTC()
	}

	tx := models.Transaction{
		ID:              s.newID(),
		UserID:          userID,
		TransactionType: in.TransactionType,
		CategoryID:      in.CategoryID,
		BudgetRef:       strings.TrimSpace(in.BudgetRef),
		Amount:          SignedAmount(in.TransactionType, in.Amount),
		Reference:       services.GenerateReference(referencePrefix, now),
		Description:     in.Description,
		OccurredAt:      occurredAt.Truncate(time.Microsecond),
		CreatedAt:       now.Truncate(time.Microsecond),
	}
	if err := s.store.RecordTransaction(ctx, tx); err != nil {
		return models.Transaction{}, utils.ErrorHandler(err, "failed to record transaction")
	}

	utils.Logger.WithFields(logrus.Fields{
		"user_id":          userID,
		"transaction_id":   tx.ID,
		"transaction_type": tx.TransactionType,
	}).Info("transaction recorded")
	return tx, nil
}

// ListForUser returns userID's own transactions between from and to,
// inclusive. Zero dates default to the current calendar month.
func (s *Service) ListForUser(ctx context.Context, userID string, from, to models.Date) ([]models.Transaction, error) {
	today := models.DateOf(s.now())
	if from.IsZero() {
		from = models.NewDate(today.Year(), today.Month(), 1)
	}
	if to.IsZero() {
		to = models.DateOf(from.AddDate(0, 1, -1))
	}
	if to.Before(from) {
		return nil, apperrors.New(apperrors.KindValidation, "from must not be after to")
	}
	if to.Sub(from.Time) > maxListWindow*24*time.Hour {
		return nil, apperrors.Newf(apperrors.KindValidation, "date range must not exceed %d days", maxListWindow)
	}

	txs, err := s.store.ListTransactions(ctx, models.LedgerQuery{UserIDs: []string{userID}, From: from, To: to})
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to list transactions")
	}
	return txs, nil
}

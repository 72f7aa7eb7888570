package groupbudget

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/apperrors"
	"fintrack/internal/models"
	"fintrack/internal/repositories/store"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *store.MemoryStore
	svc   *Service
}

type fixtureOption func(*Deps, *Options)

func withLedger(l LedgerAccessor) fixtureOption {
	return func(d *Deps, _ *Options) { d.Ledger = l }
}

func withDirectory(dir UserDirectory) fixtureOption {
	return func(d *Deps, _ *Options) { d.Directory = dir }
}

func withCategories(c CategoryReader) fixtureOption {
	return func(d *Deps, _ *Options) { d.Categories = c }
}

func withTimeouts(ledger, directory time.Duration) fixtureOption {
	return func(_ *Deps, o *Options) {
		o.LedgerTimeout = ledger
		o.DirectoryTimeout = directory
	}
}

// newFixture seeds three users (u1 owner@, u2 a@, u3 carol@) and a food
// category into an in-memory store.
func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	users := []models.User{
		{ID: "u1", Name: "Owner One", Email: "owner@example.com"},
		{ID: "u2", Name: "Alice", Email: "a@example.com"},
		{ID: "u3", Name: "Carol", Email: "carol@example.com"},
	}
	for _, u := range users {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	if err := s.CreateCategory(ctx, models.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	var seq atomic.Int64
	deps := Deps{Store: s, Ledger: s, Directory: s, Categories: s}
	options := Options{
		Now:   func() time.Time { return fixedNow },
		NewID: func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	}
	for _, opt := range opts {
		opt(&deps, &options)
	}
	return &fixture{store: s, svc: New(deps, options)}
}

func juneInput() CreateInput {
	return CreateInput{
		Name:      "Household",
		Amount:    decimal.NewFromInt(1000000),
		Period:    models.PeriodMonthly,
		StartDate: models.NewDate(2024, time.June, 1),
		EndDate:   models.NewDate(2024, time.June, 30),
	}
}

func (f *fixture) createBudget(t *testing.T, ownerID string, in CreateInput) models.GroupBudgetView {
	t.Helper()
	res, err := f.svc.Budgets.Create(context.Background(), ownerID, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return res.Budget
}

// addMember invites email and accepts on its behalf.
func (f *fixture) addMember(t *testing.T, budgetID, inviterID, email string) {
	t.Helper()
	ctx := context.Background()
	inv, _, err := f.svc.Invitations.Invite(ctx, budgetID, inviterID, email)
	if err != nil {
		t.Fatalf("Invite(%s): %v", email, err)
	}
	if _, err := f.svc.Invitations.Respond(ctx, inv.ID, email, true); err != nil {
		t.Fatalf("Respond(%s): %v", email, err)
	}
}

func (f *fixture) record(t *testing.T, userID, category, amount string, at time.Time) {
	t.Helper()
	tx := models.Transaction{
		ID:              fmt.Sprintf("tx-%s-%d", userID, at.UnixNano()),
		UserID:          userID,
		TransactionType: models.TransactionDebit,
		CategoryID:      category,
		Amount:          decimal.RequireFromString(amount),
		Reference:       "REF",
		OccurredAt:      at,
		CreatedAt:       at,
	}
	if err := f.store.RecordTransaction(context.Background(), tx); err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
}

func assertKind(t *testing.T, err error, want apperrors.Kind) {
	t.Helper()
	if got := apperrors.KindOf(err); got != want {
		t.Fatalf("error kind = %q (%v), want %q", got, err, want)
	}
}

type failingLedger struct{ err error }

func (l failingLedger) ListTransactions(context.Context, models.LedgerQuery) ([]models.Transaction, error) {
	return nil, l.err
}

// blockingLedger waits until its context gives up.
type blockingLedger struct{}

func (blockingLedger) ListTransactions(ctx context.Context, _ models.LedgerQuery) ([]models.Transaction, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// supersetLedger ignores the query and returns everything it holds.
type supersetLedger struct{ txs []models.Transaction }

func (l supersetLedger) ListTransactions(context.Context, models.LedgerQuery) ([]models.Transaction, error) {
	return l.txs, nil
}

// countingDirectory wraps a directory and counts calls.
type countingDirectory struct {
	UserDirectory
	mu       sync.Mutex
	searches int
	results  []models.User
	failWith error
}

func (d *countingDirectory) Search(ctx context.Context, query string) ([]models.User, error) {
	d.mu.Lock()
	d.searches++
	d.mu.Unlock()
	if d.results != nil {
		return d.results, nil
	}
	return d.UserDirectory.Search(ctx, query)
}

func (d *countingDirectory) Lookup(ctx context.Context, ids []string) (map[string]models.User, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	return d.UserDirectory.Lookup(ctx, ids)
}

// aliasDirectory resolves the emails in alias as the email they map to.
type aliasDirectory struct {
	UserDirectory
	alias map[string]string
}

func (d aliasDirectory) Resolve(ctx context.Context, email string) (models.User, error) {
	if target, ok := d.alias[email]; ok {
		email = target
	}
	return d.UserDirectory.Resolve(ctx, email)
}

type blockingDirectory struct{ UserDirectory }

func (blockingDirectory) Resolve(ctx context.Context, _ string) (models.User, error) {
	<-ctx.Done()
	return models.User{}, ctx.Err()
}

type failingCategories struct{ err error }

func (c failingCategories) Exists(context.Context, string) (bool, error) { return false, c.err }

func (c failingCategories) Get(context.Context, string) (models.Category, error) {
	return models.Category{}, c.err
}

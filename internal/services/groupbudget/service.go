// Package groupbudget implements shared budgets: their lifecycle, the
// invitation handshake that grows their membership, and the spend computed
// from the members' ledger.
package groupbudget

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/apperrors"
	"fintrack/internal/models"
	"fintrack/internal/repositories/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fintrack/groupbudget")

const (
	defaultCollaboratorTimeout = 3 * time.Second
	defaultListConcurrency     = 4
)

type Deps struct {
	Store      Store
	Ledger     LedgerAccessor
	Directory  UserDirectory
	Categories CategoryReader
}

type Options struct {
	LedgerTimeout    time.Duration
	DirectoryTimeout time.Duration
	// ListConcurrency bounds how many budgets List computes spend for at once.
	ListConcurrency int
	Now             func() time.Time
	NewID           func() string
}

// Service bundles the three components over one set of dependencies and
// one per-budget lock table.
type Service struct {
	Budgets     *GroupBudgetManager
	Invitations *InvitationCoordinator
	Spend       *SpendAggregator
}

func New(deps Deps, opts Options) *Service {
	if opts.LedgerTimeout <= 0 {
		opts.LedgerTimeout = defaultCollaboratorTimeout
	}
	if opts.DirectoryTimeout <= 0 {
		opts.DirectoryTimeout = defaultCollaboratorTimeout
	}
	if opts.ListConcurrency <= 0 {
		opts.ListConcurrency = defaultListConcurrency
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	c := &core{
		store:      deps.Store,
		ledger:     deps.Ledger,
		directory:  deps.Directory,
		categories: deps.Categories,
		locks:      newBudgetLocks(),
		opts:       opts,
	}

	spend := &SpendAggregator{core: c}
	invitations := &InvitationCoordinator{core: c}
	budgets := &GroupBudgetManager{core: c, spend: spend, invitations: invitations}

	return &Service{Budgets: budgets, Invitations: invitations, Spend: spend}
}

type core struct {
	store      Store
	ledger     LedgerAccessor
	directory  UserDirectory
	categories CategoryReader
	locks      *budgetLocks
	opts       Options
}

func (c *core) now() time.Time {
	return c.opts.Now().UTC()
}

func (c *core) lock(ctx context.Context, budgetID string) (func(), error) {
	release, err := c.locks.acquire(ctx, budgetID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, "request cancelled while waiting for the group budget", err)
	}
	return release, nil
}

// loadSnapshot maps the storage sentinels of a budget read.
func (c *core) loadSnapshot(ctx context.Context, budgetID string) (models.GroupBudgetSnapshot, error) {
	snap, err := c.store.LoadGroupBudget(ctx, budgetID)
	if errors.Is(err, store.ErrNotFound) {
		return snap, apperrors.New(apperrors.KindNotFound, "group budget not found")
	}
	if err != nil {
		return snap, apperrors.Wrap(apperrors.KindInternal, "failed to load group budget", err)
	}
	return snap, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// resolveUser returns found=false when the directory does not know email.
func (c *core) resolveUser(ctx context.Context, email string) (user models.User, found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.DirectoryTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "directory.resolve")
	defer func() { endSpan(span, err) }()

	user, err = c.directory.Resolve(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, apperrors.Wrap(apperrors.KindUnavailable, "user directory unavailable", err)
	}
	return user, true, nil
}

func (c *core) searchUsers(ctx context.Context, query string) (users []models.User, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.DirectoryTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "directory.search")
	defer func() { endSpan(span, err) }()

	users, err = c.directory.Search(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, "user directory unavailable", err)
	}
	return users, nil
}

func (c *core) lookupUsers(ctx context.Context, ids []string) (users map[string]models.User, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.DirectoryTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "directory.lookup", trace.WithAttributes(attribute.Int("user.count", len(ids))))
	defer func() { endSpan(span, err) }()

	users, err = c.directory.Lookup(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, "user directory unavailable", err)
	}
	return users, nil
}

func (c *core) listTransactions(ctx context.Context, q models.LedgerQuery) (txs []models.Transaction, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.LedgerTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "ledger.list_transactions", trace.WithAttributes(attribute.Int("member.count", len(q.UserIDs))))
	defer func() { endSpan(span, err) }()

	txs, err = c.ledger.ListTransactions(ctx, q)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, "ledger unavailable", err)
	}
	return txs, nil
}

func (c *core) categoryExists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.DirectoryTimeout)
	defer cancel()

	ok, err := c.categories.Exists(ctx, id)
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindUnavailable, "category service unavailable", err)
	}
	return ok, nil
}

func (c *core) category(ctx context.Context, id string) (models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.DirectoryTimeout)
	defer cancel()

	cat, err := c.categories.Get(ctx, id)
	if err != nil {
		return models.Category{}, apperrors.Wrap(apperrors.KindUnavailable, "category service unavailable", err)
	}
	return cat, nil
}

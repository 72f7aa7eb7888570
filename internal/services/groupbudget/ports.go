package groupbudget

import (
	"context"
	"time"

	"fintrack/internal/models"
)

// Store persists budgets, members and invitations. Implementations report
// the sentinels of the store package (ErrNotFound, ErrNotPending,
// ErrDuplicateMember, ErrDuplicatePending). AcceptInvitation declines an
// invitation whose member already belongs to the budget and reports
// ErrDuplicateMember.
type Store interface {
	CreateGroupBudget(ctx context.Context, budget models.GroupBudget, owner models.GroupBudgetMember) error
	LoadGroupBudget(ctx context.Context, id string) (models.GroupBudgetSnapshot, error)
	ListGroupBudgetsForUser(ctx context.Context, userID string) ([]models.GroupBudgetSnapshot, error)
	DeleteGroupBudget(ctx context.Context, id string, at time.Time) error

	GetInvitation(ctx context.Context, id string) (models.GroupBudgetInvitation, error)
	FindPendingInvitation(ctx context.Context, budgetID, email string) (models.GroupBudgetInvitation, error)
	ListPendingInvitationsByEmail(ctx context.Context, email string) ([]models.GroupBudgetInvitation, error)
	CreateInvitation(ctx context.Context, inv models.GroupBudgetInvitation) error
	AcceptInvitation(ctx context.Context, invitationID string, at time.Time, member models.GroupBudgetMember) error
	CloseInvitation(ctx context.Context, invitationID string, status models.InvitationStatus, at time.Time) error
}

type LedgerAccessor interface {
	ListTransactions(ctx context.Context, q models.LedgerQuery) ([]models.Transaction, error)
}

// UserDirectory resolves users. Resolve reports store.ErrNotFound for an
// unknown email.
type UserDirectory interface {
	Search(ctx context.Context, query string) ([]models.User, error)
	Resolve(ctx context.Context, email string) (models.User, error)
	Lookup(ctx context.Context, ids []string) (map[string]models.User, error)
}

type CategoryReader interface {
	Exists(ctx context.Context, categoryID string) (bool, error)
	Get(ctx context.Context, categoryID string) (models.Category, error)
}

package groupbudget

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"fintrack/internal/apperrors"
	"fintrack/internal/models"
	"fintrack/internal/repositories/store"
	"fintrack/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
)

// CreateInput describes a new group budget. InviteEmails are invited
// best-effort after the budget exists.
type CreateInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Period       models.Period   `json:"period"`
	StartDate    models.Date     `json:"start_date"`
	EndDate      models.Date     `json:"end_date"`
	CategoryID   string          `json:"category_id"`
	InviteEmails []string        `json:"invite_emails"`
}

// SkippedInvite is an initial invite that could not be sent.
type SkippedInvite struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type CreateResult struct {
	Budget         models.GroupBudgetView `json:"budget"`
	SkippedInvites []SkippedInvite        `json:"skipped_invites"`
}

// GroupBudgetManager owns group budget and member rows.
type GroupBudgetManager struct {
	core        *core
	spend       *SpendAggregator
	invitations *InvitationCoordinator
}

func (m *GroupBudgetManager) validate(ctx context.Context, in *CreateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)

	if in.Name == "" {
		return apperrors.New(apperrors.KindValidation, "name is required")
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return apperrors.Newf(apperrors.KindValidation, "name must be at most %d characters", maxNameLength)
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return apperrors.Newf(apperrors.KindValidation, "description must be at most %d characters", maxDescriptionLength)
	}
	if !in.Amount.IsPositive() {
		return apperrors.New(apperrors.KindValidation, "amount must be greater than zero")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return apperrors.New(apperrors.KindValidation, "amount must have at most two decimal places")
	}
	if !in.Period.IsValid() {
		return apperrors.New(apperrors.KindValidation, "period must be one of daily, weekly or monthly")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return apperrors.New(apperrors.KindValidation, "start_date and end_date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return apperrors.New(apperrors.KindValidation, "start_date must not be after end_date")
	}

	if in.CategoryID != "" {
		ok, err := m.core.categoryExists(ctx, in.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Newf(apperrors.KindValidation, "category %q does not exist", in.CategoryID)
		}
	}
	return nil
}

// Create stores the budget with ownerID as its owner, then sends the initial
// invites. A failed invite never fails the create.
func (m *GroupBudgetManager) Create(ctx context.Context, ownerID string, in CreateInput) (CreateResult, error) {
	if ownerID == "" {
		return CreateResult{}, apperrors.New(apperrors.KindValidation, "owner is required")
	}
	if err := m.validate(ctx, &in); err != nil {
		return CreateResult{}, err
	}

	now := m.core.now()
	budget := models.GroupBudget{
		ID:          m.core.opts.NewID(),
		Name:        in.Name,
		Description: in.Description,
		Amount:      in.Amount,
		Period:      in.Period,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CategoryID:  in.CategoryID,
		CreatorID:   ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := models.GroupBudgetMember{
		GroupBudgetID: budget.ID,
		UserID:        ownerID,
		Role:          models.RoleOwner,
		JoinedAt:      now,
	}

	if err := m.core.store.CreateGroupBudget(ctx, budget, owner); err != nil {
		return CreateResult{}, apperrors.Wrap(apperrors.KindInternal, "failed to create group budget", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"group_budget_id": budget.ID,
		"owner_id":        ownerID,
	}).Info("group budget created")

	skipped := make([]SkippedInvite, 0)
	invitations := make([]models.GroupBudgetInvitation, 0)
	seen := make(map[string]struct{}, len(in.InviteEmails))
	for _, raw := range in.InviteEmails {
		email := models.NormalizeEmail(raw)
		if _, dup := seen[email]; dup {
			skipped = append(skipped, SkippedInvite{Email: raw, Reason: "duplicate email in request"})
			continue
		}
		seen[email] = struct{}{}

		inv, _, err := m.invitations.Invite(ctx, budget.ID, ownerID, raw)
		if err != nil {
			utils.Logger.WithFields(logrus.Fields{
				"group_budget_id": budget.ID,
				"kind":            apperrors.KindOf(err),
			}).WithError(err).Warn("initial invite skipped")
			skipped = append(skipped, SkippedInvite{Email: raw, Reason: apperrors.Message(err)})
			continue
		}
		invitations = append(invitations, inv)
	}

	snap := models.GroupBudgetSnapshot{
		Budget:      budget,
		Members:     []models.GroupBudgetMember{owner},
		Invitations: invitations,
	}
	views := m.buildViews(ctx, []models.GroupBudgetSnapshot{snap}, []SpendResult{{Spent: decimal.Zero}})
	return CreateResult{Budget: views[0], SkippedInvites: skipped}, nil
}

// List returns every live budget userID owns or belongs to, newest first,
// with spend freshly computed.
func (m *GroupBudgetManager) List(ctx context.Context, userID string) ([]models.GroupBudgetView, error) {
	snaps, err := m.core.store.ListGroupBudgetsForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list group budgets", err)
	}
	if len(snaps) == 0 {
		return []models.GroupBudgetView{}, nil
	}

	spends := make([]SpendResult, len(snaps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.core.opts.ListConcurrency)
	for i, snap := range snaps {
		g.Go(func() error {
			res, err := m.spend.ComputeSnapshot(gctx, snap)
			if err != nil {
				return err
			}
			spends[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m.buildViews(ctx, snaps, spends), nil
}

// Get returns one budget if userID is its creator or a member.
func (m *GroupBudgetManager) Get(ctx context.Context, id, userID string) (models.GroupBudgetView, error) {
	snap, err := m.core.loadSnapshot(ctx, id)
	if err != nil {
		return models.GroupBudgetView{}, err
	}
	if _, ok := snap.Member(userID); !ok && snap.Budget.CreatorID != userID {
		return models.GroupBudgetView{}, apperrors.New(apperrors.KindForbidden, "you do not have access to this group budget")
	}

	spend, err := m.spend.ComputeSnapshot(ctx, snap)
	if err != nil {
		return models.GroupBudgetView{}, err
	}
	return m.buildViews(ctx, []models.GroupBudgetSnapshot{snap}, []SpendResult{spend})[0], nil
}

// Delete removes the budget, its members and its pending invitations.
func (m *GroupBudgetManager) Delete(ctx context.Context, id, userID string) error {
	release, err := m.core.lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	snap, err := m.core.loadSnapshot(ctx, id)
	if err != nil {
		return err
	}
	if !snap.IsOwner(userID) {
		return apperrors.New(apperrors.KindForbidden, "only the owner can delete this group budget")
	}

	err = m.core.store.DeleteGroupBudget(ctx, id, m.core.now())
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.New(apperrors.KindNotFound, "group budget not found")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to delete group budget", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"group_budget_id": id,
		"owner_id":        userID,
	}).Info("group budget deleted")
	return nil
}

// buildViews attaches spend, progress and display names. Name lookups are
// best-effort: a directory or category failure leaves the names empty.
func (m *GroupBudgetManager) buildViews(ctx context.Context, snaps []models.GroupBudgetSnapshot, spends []SpendResult) []models.GroupBudgetView {
	var userIDs []string
	seenUser := make(map[string]struct{})
	addUser := func(id string) {
		if _, ok := seenUser[id]; !ok {
			seenUser[id] = struct{}{}
			userIDs = append(userIDs, id)
		}
	}
	for _, snap := range snaps {
		addUser(snap.Budget.CreatorID)
		for _, member := range snap.Members {
			addUser(member.UserID)
		}
	}

	users, err := m.core.lookupUsers(ctx, userIDs)
	if err != nil {
		utils.Logger.WithError(err).Warn("failed to look up member names")
		users = map[string]models.User{}
	}

	categories := make(map[string]*models.Category)
	views := make([]models.GroupBudgetView, 0, len(snaps))
	for i, snap := range snaps {
		b := snap.Budget
		view := models.GroupBudgetView{
			GroupBudget: b,
			Spent:       spends[i].Spent,
			Progress:    Progress(spends[i].Spent, b.Amount),
			CreatorName: users[b.CreatorID].Name,
			Members:     make([]models.MemberView, 0, len(snap.Members)),
			Invitations: snap.Invitations,
		}
		if view.Invitations == nil {
			view.Invitations = []models.GroupBudgetInvitation{}
		}
		for _, member := range snap.Members {
			u := users[member.UserID]
			view.Members = append(view.Members, models.MemberView{GroupBudgetMember: member, Name: u.Name, Email: u.Email})
		}

		if b.CategoryID != "" {
			cat, cached := categories[b.CategoryID]
			if !cached {
				c, err := m.core.category(ctx, b.CategoryID)
				if err != nil {
					utils.Logger.WithError(err).WithField("category_id", b.CategoryID).Warn("failed to load category")
				} else {
					cat = &c
				}
				categories[b.CategoryID] = cat
			}
			view.Category = cat
		}
		views = append(views, view)
	}
	return views
}

package groupbudget

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"fintrack/internal/apperrors"
	"fintrack/internal/models"
	"fintrack/internal/repositories/store"
	"fintrack/pkg/utils"

	"github.com/sirupsen/logrus"
)

const minSearchLength = 2

// InvitationCoordinator owns invitation rows and the membership created when
// one is accepted.
type InvitationCoordinator struct {
	core *core
}

type RespondResult struct {
	Invitation models.GroupBudgetInvitation `json:"invitation"`
	Member     *models.GroupBudgetMember    `json:"member,omitempty"`
}

// normalizeInviteEmail lower-cases and trims email and rejects anything
// that is not a bare address.
func normalizeInviteEmail(email string) (string, error) {
	normalized := models.NormalizeEmail(email)
	if normalized == "" {
		return "", apperrors.New(apperrors.KindValidation, "email is required")
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", apperrors.Newf(apperrors.KindValidation, "invalid email address %q", email)
	}
	return normalized, nil
}

// SearchUsers looks users up for an invite dialog. Short queries return
// nothing without touching the directory.
func (ic *InvitationCoordinator) SearchUsers(ctx context.Context, requesterID, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return []models.User{}, nil
	}

	users, err := ic.core.searchUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(users))
	result := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID == requesterID {
			continue
		}
		key := models.NormalizeEmail(u.Email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		u.Email = key
		result = append(result, u)
	}
	return result, nil
}

// Invite creates a pending invitation for email, or returns the one already
// pending. created reports whether a new invitation was stored.
func (ic *InvitationCoordinator) Invite(ctx context.Context, budgetID, inviterID, email string) (inv models.GroupBudgetInvitation, created bool, err error) {
	release, err := ic.core.lock(ctx, budgetID)
	if err != nil {
		return inv, false, err
	}
	defer release()

	snap, err := ic.core.loadSnapshot(ctx, budgetID)
	if err != nil {
		return inv, false, err
	}
	if _, ok := snap.Member(inviterID); !ok {
		return inv, false, apperrors.New(apperrors.KindForbidden, "only members can invite to this group budget")
	}

	normalized, err := normalizeInviteEmail(email)
	if err != nil {
		return inv, false, err
	}

	user, found, err := ic.core.resolveUser(ctx, normalized)
	if err != nil {
		return inv, false, err
	}
	if found {
		if _, ok := snap.Member(user.ID); ok {
			return inv, false, apperrors.New(apperrors.KindAlreadyMember, "user is already a member of this group budget")
		}
	}

	for _, existing := range snap.Invitations {
		if existing.InvitedEmail == normalized && existing.Status == models.InvitationPending {
			return existing, false, nil
		}
	}

	inv = models.GroupBudgetInvitation{
		ID:            ic.core.opts.NewID(),
		GroupBudgetID: budgetID,
		InvitedEmail:  normalized,
		InvitedBy:     inviterID,
		Status:        models.InvitationPending,
		InvitedAt:     ic.core.now(),
	}

	err = ic.core.store.CreateInvitation(ctx, inv)
	switch {
	case errors.Is(err, store.ErrDuplicatePending):
		// another process got there first
		existing, findErr := ic.core.store.FindPendingInvitation(ctx, budgetID, normalized)
		if findErr != nil {
			return models.GroupBudgetInvitation{}, false, apperrors.Wrap(apperrors.KindInternal, "failed to load pending invitation", findErr)
		}
		return existing, false, nil
	case errors.Is(err, store.ErrNotFound):
		return models.GroupBudgetInvitation{}, false, apperrors.New(apperrors.KindNotFound, "group budget not found")
	case err != nil:
		return models.GroupBudgetInvitation{}, false, apperrors.Wrap(apperrors.KindInternal, "failed to create invitation", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"group_budget_id": budgetID,
		"invitation_id":   inv.ID,
		"invited_by":      inviterID,
	}).Info("group budget invitation created")
	return inv, true, nil
}

// Respond accepts or declines an invitation on behalf of responderEmail.
// Accepting binds the email to a user at this moment.
func (ic *InvitationCoordinator) Respond(ctx context.Context, invitationID, responderEmail string, accept bool) (RespondResult, error) {
	inv, err := ic.getInvitation(ctx, invitationID)
	if err != nil {
		return RespondResult{}, err
	}

	release, err := ic.core.lock(ctx, inv.GroupBudgetID)
	if err != nil {
		return RespondResult{}, err
	}
	defer release()

	if inv, err = ic.getInvitation(ctx, invitationID); err != nil {
		return RespondResult{}, err
	}
	if inv.Status != models.InvitationPending {
		return RespondResult{}, apperrors.Newf(apperrors.KindInvalidState, "invitation is already %s", inv.Status)
	}
	if models.NormalizeEmail(responderEmail) != inv.InvitedEmail {
		return RespondResult{}, apperrors.New(apperrors.KindEmailMismatch, "invitation was sent to a different email")
	}

	now := ic.core.now()
	fields := logrus.Fields{
		"group_budget_id": inv.GroupBudgetID,
		"invitation_id":   inv.ID,
	}

	if !accept {
		if err := ic.core.store.CloseInvitation(ctx, inv.ID, models.InvitationDeclined, now); err != nil {
			return RespondResult{}, mapTransitionError(err)
		}
		inv.Status = models.InvitationDeclined
		inv.RespondedAt = &now
		utils.Logger.WithFields(fields).Info("group budget invitation declined")
		return RespondResult{Invitation: inv}, nil
	}

	user, found, err := ic.core.resolveUser(ctx, inv.InvitedEmail)
	if err != nil {
		return RespondResult{}, err
	}
	if !found {
		return RespondResult{}, apperrors.New(apperrors.KindUnknownUser, "no user is registered with this email")
	}

	member := models.GroupBudgetMember{
		GroupBudgetID: inv.GroupBudgetID,
		UserID:        user.ID,
		Role:          models.RoleMember,
		JoinedAt:      now,
	}
	if err := ic.core.store.AcceptInvitation(ctx, inv.ID, now, member); err != nil {
		return RespondResult{}, mapTransitionError(err)
	}

	inv.Status = models.InvitationAccepted
	inv.RespondedAt = &now
	fields["user_id"] = user.ID
	utils.Logger.WithFields(fields).Info("group budget invitation accepted")
	return RespondResult{Invitation: inv, Member: &member}, nil
}

// Revoke withdraws a pending invitation. Only the budget owner may revoke.
func (ic *InvitationCoordinator) Revoke(ctx context.Context, invitationID, ownerID string) (models.GroupBudgetInvitation, error) {
	inv, err := ic.getInvitation(ctx, invitationID)
	if err != nil {
		return inv, err
	}

	release, err := ic.core.lock(ctx, inv.GroupBudgetID)
	if err != nil {
		return inv, err
	}
	defer release()

	snap, err := ic.core.loadSnapshot(ctx, inv.GroupBudgetID)
	if err != nil {
		return inv, err
	}
	if !snap.IsOwner(ownerID) {
		return inv, apperrors.New(apperrors.KindForbidden, "only the owner can revoke invitations")
	}

	if inv, err = ic.getInvitation(ctx, invitationID); err != nil {
		return inv, err
	}
	if inv.Status != models.InvitationPending {
		return inv, apperrors.Newf(apperrors.KindInvalidState, "invitation is already %s", inv.Status)
	}

	now := ic.core.now()
	if err := ic.core.store.CloseInvitation(ctx, inv.ID, models.InvitationRevoked, now); err != nil {
		return inv, mapTransitionError(err)
	}
	inv.Status = models.InvitationRevoked
	inv.RespondedAt = &now

	utils.Logger.WithFields(logrus.Fields{
		"group_budget_id": inv.GroupBudgetID,
		"invitation_id":   inv.ID,
	}).Info("group budget invitation revoked")
	return inv, nil
}

// PendingFor lists the pending invitations addressed to email.
func (ic *InvitationCoordinator) PendingFor(ctx context.Context, email string) ([]models.GroupBudgetInvitation, error) {
	normalized := models.NormalizeEmail(email)
	if normalized == "" {
		return []models.GroupBudgetInvitation{}, nil
	}
	invs, err := ic.core.store.ListPendingInvitationsByEmail(ctx, normalized)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list invitations", err)
	}
	return invs, nil
}

func (ic *InvitationCoordinator) getInvitation(ctx context.Context, id string) (models.GroupBudgetInvitation, error) {
	inv, err := ic.core.store.GetInvitation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return inv, apperrors.New(apperrors.KindNotFound, "invitation not found")
	}
	if err != nil {
		return inv, apperrors.Wrap(apperrors.KindInternal, "failed to load invitation", err)
	}
	return inv, nil
}

func mapTransitionError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.New(apperrors.KindNotFound, "invitation not found")
	case errors.Is(err, store.ErrNotPending):
		return apperrors.New(apperrors.KindInvalidState, "invitation is no longer pending")
	case errors.Is(err, store.ErrDuplicateMember):
		return apperrors.New(apperrors.KindAlreadyMember, "user is already a member of this group budget; invitation declined")
	default:
		return apperrors.Wrap(apperrors.KindInternal, "failed to update invitation", err)
	}
}

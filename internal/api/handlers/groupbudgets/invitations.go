package groupbudgets

import (
	"net/http"

	"fintrack/internal/api/handlers"
	"fintrack/internal/models"
	"fintrack/pkg/utils"

	"github.com/sirupsen/logrus"
)

type inviteRequest struct {
	Email string `json:"email"`
}

type respondRequest struct {
	Accept *bool `json:"accept"`
}

func (h *Handler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodGet) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	users, err := h.svc.Invitations.SearchUsers(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, utils.Success("", users))
}

// InviteMemberHandler invites an email to a budget. Inviting an email that
// already has a pending invitation returns that invitation.
func (h *Handler) InviteMemberHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodPost) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if !handlers.DecodeBody(w, r, &req) {
		return
	}

	inv, created, err := h.svc.Invitations.Invite(r.Context(), r.PathValue("id"), userID, req.Email)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if !created {
		utils.WriteJSON(w, utils.Success("invitation already pending", inv))
		return
	}
	utils.WriteJSONStatus(w, http.StatusCreated, utils.Success("Invitation sent successfully", inv))
}

func (h *Handler) ListPendingInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodGet) {
		return
	}
	_, email, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	invitations, err := h.svc.Invitations.PendingFor(r.Context(), email)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if invitations == nil {
		invitations = []models.GroupBudgetInvitation{}
	}
	utils.WriteJSON(w, utils.Success("", invitations))
}

// RespondInvitationHandler accepts or declines an invitation sent to the
// caller's email. An accepted invitation also returns the joined budget.
func (h *Handler) RespondInvitationHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodPatch) {
		return
	}
	userID, email, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	var req respondRequest
	if !handlers.DecodeBody(w, r, &req) {
		return
	}
	if req.Accept == nil {
		utils.WriteError(w, "accept is required", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Invitations.Respond(r.Context(), r.PathValue("inviteId"), email, *req.Accept)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	data := map[string]interface{}{"invitation": result.Invitation}
	if result.Member == nil {
		utils.WriteJSON(w, utils.Success("Invitation declined", data))
		return
	}

	data["member"] = result.Member
	budget, err := h.svc.Budgets.Get(r.Context(), result.Invitation.GroupBudgetID, userID)
	if err != nil {
		utils.Logger.WithFields(logrus.Fields{
			"group_budget_id": result.Invitation.GroupBudgetID,
			"user_id":         userID,
			"error":           err.Error(),
		}).Warn("failed to load joined group budget")
	} else {
		data["group_budget"] = budget
	}
	utils.WriteJSON(w, utils.Success("Invitation accepted", data))
}

func (h *Handler) RevokeInvitationHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodDelete) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	inv, err := h.svc.Invitations.Revoke(r.Context(), r.PathValue("inviteId"), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, utils.Success("Invitation revoked", inv))
}

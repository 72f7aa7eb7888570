package routers

import (
	"net/http"

	"fintrack/internal/api/handlers/groupbudgets"
)

func groupBudgetsRouter(h *groupbudgets.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/group-budgets/create", h.CreateGroupBudgetHandler)

	mux.HandleFunc("/group-budgets/{$}", h.GetMyGroupBudgetsHandler)

	mux.HandleFunc("/group-budgets/{id}", h.GetGroupBudgetByIDHandler)

	mux.HandleFunc("/group-budgets/{id}/delete", h.DeleteGroupBudgetHandler)

	mux.HandleFunc("/group-budgets/{id}/invite", h.InviteMemberHandler)

	mux.HandleFunc("/group-budgets/users/search", h.SearchUsersHandler)

	mux.HandleFunc("/group-budgets/invitations/pending", h.ListPendingInvitationsHandler)

	mux.HandleFunc("/group-budgets/invitations/{inviteId}/respond", h.RespondInvitationHandler)

	mux.HandleFunc("/group-budgets/invitations/{inviteId}/revoke", h.RevokeInvitationHandler)

	return mux
}

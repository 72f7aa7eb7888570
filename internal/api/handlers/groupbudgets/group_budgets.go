package groupbudgets

import (
	"net/http"

	"fintrack/internal/api/handlers"
	"fintrack/internal/models"
	"fintrack/internal/services/groupbudget"
	"fintrack/pkg/utils"
)

type Handler struct {
	svc *groupbudget.Service
}

func NewHandler(svc *groupbudget.Service) *Handler {
	return &Handler{svc: svc}
}

// CreateGroupBudgetHandler creates a budget owned by the caller and sends
// any initial invitations.
func (h *Handler) CreateGroupBudgetHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodPost) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	var input groupbudget.CreateInput
	if !handlers.DecodeBody(w, r, &input) {
		return
	}

	result, err := h.svc.Budgets.Create(r.Context(), userID, input)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSONStatus(w, http.StatusCreated, utils.Success("Group budget created successfully", result))
}

func (h *Handler) GetMyGroupBudgetsHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodGet) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	budgets, err := h.svc.Budgets.List(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if len(budgets) == 0 {
		utils.WriteJSON(w, utils.Success("no group budget found for this user", []models.GroupBudgetView{}))
		return
	}
	utils.WriteJSON(w, utils.Success("", budgets))
}

func (h *Handler) GetGroupBudgetByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodGet) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	budget, err := h.svc.Budgets.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, utils.Success("", budget))
}

// DeleteGroupBudgetHandler removes a budget with its members and pending
// invitations. Owner only.
func (h *Handler) DeleteGroupBudgetHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodDelete) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.svc.Budgets.Delete(r.Context(), id, userID); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, utils.Success("Group budget deleted successfully", map[string]string{"id": id}))
}

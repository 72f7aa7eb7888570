package transactions

import (
	"net/http"

	"fintrack/internal/api/handlers"
	"fintrack/internal/models"
	"fintrack/internal/services/ledger"
	"fintrack/pkg/utils"
)

type Handler struct {
	ledger *ledger.Service
}

func NewHandler(l *ledger.Service) *Handler {
	return &Handler{ledger: l}
}

// CreateTransactionHandler records a transaction for the caller.
func (h *Handler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodPost) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	var input ledger.RecordInput
	if !handlers.DecodeBody(w, r, &input) {
		return
	}

	tx, err := h.ledger.Record(r.Context(), userID, input)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONStatus(w, http.StatusCreated, utils.Success("Transaction recorded successfully", tx))
}

// GetAllUserTransactions lists the caller's transactions between the from
// and to query dates, defaulting to the current month.
func (h *Handler) GetAllUserTransactions(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodGet) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	from, ok := handlers.DateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := handlers.DateParam(w, r, "to")
	if !ok {
		return
	}

	txs, err := h.ledger.ListForUser(r.Context(), userID, from, to)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if len(txs) == 0 {
		utils.WriteJSON(w, utils.Success("no transaction found for this user", []models.Transaction{}))
		return
	}
	utils.WriteJSON(w, utils.Success("", txs))
}

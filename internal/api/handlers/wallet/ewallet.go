package wallet

import (
	"net/http"
	"strconv"

	"fintrack/internal/api/handlers"
	"fintrack/internal/services/ewallet"
	"fintrack/pkg/utils"
)

type Handler struct {
	wallets *ewallet.Service
}

func NewHandler(wallets *ewallet.Service) *Handler {
	return &Handler{wallets: wallets}
}

func (h *Handler) ConnectEWalletHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodPost) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	var input ewallet.ConnectInput
	if !handlers.DecodeBody(w, r, &input) {
		return
	}

	account, err := h.wallets.Connect(r.Context(), userID, input)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONStatus(w, http.StatusCreated, utils.Success("E-wallet connected successfully", account))
}

func (h *Handler) GetEWalletAccountsHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodGet) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.wallets.Accounts(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, utils.Success("", accounts))
}

func (h *Handler) SyncEWalletHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodPost) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	result, err := h.wallets.Sync(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, utils.Success("E-wallet synced successfully", result))
}

func (h *Handler) DisconnectEWalletHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodDelete) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	account, err := h.wallets.Disconnect(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, utils.Success("E-wallet disconnected successfully", account))
}

// GetEWalletTransactionsHandler lists an account's provider transactions,
// bounded by the optional limit query parameter.
func (h *Handler) GetEWalletTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.AllowMethod(w, r, http.MethodGet) {
		return
	}
	userID, _, ok := handlers.CurrentUser(w, r)
	if !ok {
		return
	}

	limit := ewallet.DefaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.WriteError(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		limit = n
	}

	txs, err := h.wallets.Transactions(r.Context(), userID, r.PathValue("id"), limit)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, utils.Success("", txs))
}

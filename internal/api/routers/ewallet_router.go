package routers

import (
	"net/http"

	"fintrack/internal/api/handlers/wallet"
)

func eWalletRouter(h *wallet.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/ewallet/connect", h.ConnectEWalletHandler)

	mux.HandleFunc("/ewallet/accounts", h.GetEWalletAccountsHandler)

	mux.HandleFunc("/ewallet/sync/{id}", h.SyncEWalletHandler)

	mux.HandleFunc("/ewallet/disconnect/{id}", h.DisconnectEWalletHandler)

	mux.HandleFunc("/ewallet/transactions/{id}", h.GetEWalletTransactionsHandler)

	return mux
}

package routers

import (
	"net/http"

	"fintrack/internal/api/handlers/transactions"
)

func transactionsRouter(h *transactions.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/transactions/create", h.CreateTransactionHandler)

	mux.HandleFunc("/transactions/user", h.GetAllUserTransactions)

	return mux
}

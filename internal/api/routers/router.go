package routers

import (
	"net/http"

	"fintrack/internal/api/handlers/groupbudgets"
	"fintrack/internal/api/handlers/transactions"
	"fintrack/internal/api/handlers/wallet"
	"fintrack/pkg/utils"
)

type Handlers struct {
	GroupBudgets *groupbudgets.Handler
	Transactions *transactions.Handler
	EWallet      *wallet.Handler
}

func MainRouter(h Handlers) *http.ServeMux {

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, map[string]string{"status": "ok"})
	})

	gRouter := groupBudgetsRouter(h.GroupBudgets)
	mux.Handle("/group-budgets/", gRouter)

	tRouter := transactionsRouter(h.Transactions)
	mux.Handle("/transactions/", tRouter)

	eRouter := eWalletRouter(h.EWallet)
	mux.Handle("/ewallet/", eRouter)

	return mux
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EWalletAccount is a connected e-wallet. AccountNumber is masked whenever
// the account leaves the service.
type EWalletAccount struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	WalletName    string          `json:"wallet_name"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	LastSync      *time.Time      `json:"last_sync"`
	SyncFrequency string          `json:"sync_frequency"`
	IsActive      bool            `json:"is_active"`
	ConnectedAt   time.Time       `json:"connected_at"`
}

type EWalletSyncResult struct {
	Account            EWalletAccount `json:"account"`
	SyncedTransactions int            `json:"synced_transactions"`
}

// EWalletTransaction is a movement reported by the provider for one account.
type EWalletTransaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

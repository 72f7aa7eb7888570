// Package ewallet is a simulated e-wallet integration: accounts live in
// process memory and a sync draws a new balance instead of calling a
// provider.
package ewallet

import (
	"context"
	"encoding/hex"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"fintrack/internal/apperrors"
	"fintrack/internal/models"
	"fintrack/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

const (
	Currency      = "IDR"
	SyncFrequency = "daily"

	minSyncBalance   = 10000
	syncBalanceRange = 1000000000

	DefaultTransactionLimit = 20
	MaxTransactionLimit     = 100
)

var supportedWallets = []string{"GoPay", "ShopeePay", "DANA"}

type ConnectInput struct {
	WalletName    string           `json:"wallet_name"`
	AccountNumber string           `json:"account_number"`
	Balance       *decimal.Decimal `json:"balance"`
}

type Options struct {
	// FingerprintKey keys the blake2b hash used to detect an account being
	// connected twice. Keys longer than 64 bytes are hashed down.
	FingerprintKey []byte
	Now            func() time.Time
	NewID          func() string
	// RandInt64N returns a value in [0, n).
	RandInt64N func(n int64) int64
}

type account struct {
	models.EWalletAccount
	fingerprint string
}

type Service struct {
	mu       sync.Mutex
	accounts map[string]*account
	order    []string
	// byPrint indexes active accounts by fingerprint.
	byPrint map[string]string

	key        []byte
	now        func() time.Time
	newID      func() string
	randInt64N func(n int64) int64
}

func New(opts Options) *Service {
	key := opts.FingerprintKey
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.RandInt64N == nil {
		opts.RandInt64N = rand.Int64N
	}

	return &Service{
		accounts:   make(map[string]*account),
		byPrint:    make(map[string]string),
		key:        key,
		now:        opts.Now,
		newID:      opts.NewID,
		randInt64N: opts.RandInt64N,
	}
}

func normalizeAccountNumber(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

func validAccountNumber(s string) bool {
	if len(s) < 6 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MaskAccountNumber hides all but the last four digits.
func MaskAccountNumber(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func (s *Service) fingerprint(userID, walletName, accountNumber string) (string, error) {
	h, err := blake2b.New256(s.key)
	if err != nil {
		return "", err
	}
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(walletName)))
	h.Write([]byte{0})
	h.Write([]byte(accountNumber))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func masked(a *account) models.EWalletAccount {
	out := a.EWalletAccount
	out.AccountNumber = MaskAccountNumber(out.AccountNumber)
	if a.LastSync != nil {
		t := *a.LastSync
		out.LastSync = &t
	}
	return out
}

// Connect links a wallet account to userID.
func (s *Service) Connect(ctx context.Context, userID string, in ConnectInput) (models.EWalletAccount, error) {
	if err := ctx.Err(); err != nil {
		return models.EWalletAccount{}, err
	}

	walletName := strings.TrimSpace(in.WalletName)
	idx := slices.IndexFunc(supportedWallets, func(w string) bool { return strings.EqualFold(w, walletName) })
	if idx < 0 {
		return models.EWalletAccount{}, apperrors.Newf(apperrors.KindValidation, "wallet_name must be one of %s", strings.Join(supportedWallets, ", "))
	}
	walletName = supportedWallets[idx]

	number := normalizeAccountNumber(in.AccountNumber)
	if number == "" {
		return models.EWalletAccount{}, apperrors.New(apperrors.KindValidation, "account_number is required")
	}
	if !validAccountNumber(number) {
		return models.EWalletAccount{}, apperrors.New(apperrors.KindValidation, "account_number must be 6 to 20 digits")
	}

	balance := decimal.Zero
	if in.Balance != nil {
		if in.Balance.IsNegative() {
			return models.EWalletAccount{}, apperrors.New(apperrors.KindValidation, "balance cannot be negative")
		}
		balance = in.Balance.Round(2)
	}

	fp, err := s.fingerprint(userID, walletName, number)
	if err != nil {
		return models.EWalletAccount{}, apperrors.Wrap(apperrors.KindInternal, "failed to fingerprint account", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPrint[fp]; exists {
		return models.EWalletAccount{}, apperrors.New(apperrors.KindConflict, "this e-wallet account is already connected")
	}

	a := &account{
		EWalletAccount: models.EWalletAccount{
			ID:            s.newID(),
			UserID:        userID,
			WalletName:    walletName,
			AccountNumber: number,
			Balance:       balance,
			Currency:      Currency,
			SyncFrequency: SyncFrequency,
			IsActive:      true,
			ConnectedAt:   s.now(),
		},
		fingerprint: fp,
	}
	s.accounts[a.ID] = a
	s.order = append(s.order, a.ID)
	s.byPrint[fp] = a.ID

	utils.Logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"account_id":  a.ID,
		"wallet_name": walletName,
	}).Info("e-wallet connected")
	return masked(a), nil
}

// Accounts lists userID's active accounts in connection order.
func (s *Service) Accounts(ctx context.Context, userID string) ([]models.EWalletAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.EWalletAccount, 0)
	for _, id := range s.order {
		if a := s.accounts[id]; a.UserID == userID && a.IsActive {
			result = append(result, masked(a))
		}
	}
	return result, nil
}

// Sync refreshes one of userID's accounts.
func (s *Service) Sync(ctx context.Context, userID, accountID string) (models.EWalletSyncResult, error) {
	if err := ctx.Err(); err != nil {
		return models.EWalletSyncResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.ownedLocked(userID, accountID)
	if err != nil {
		return models.EWalletSyncResult{}, err
	}
	s.syncLocked(a)
	return models.EWalletSyncResult{Account: masked(a), SyncedTransactions: 0}, nil
}

// Disconnect deactivates one of userID's accounts. The same account may be
// connected again afterwards.
func (s *Service) Disconnect(ctx context.Context, userID, accountID string) (models.EWalletAccount, error) {
	if err := ctx.Err(); err != nil {
		return models.EWalletAccount{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.ownedLocked(userID, accountID)
	if err != nil {
		return models.EWalletAccount{}, err
	}
	a.IsActive = false
	delete(s.byPrint, a.fingerprint)

	utils.Logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": a.ID,
	}).Info("e-wallet disconnected")
	return masked(a), nil
}

// Transactions returns up to limit of the account's most recent provider
// transactions. A zero limit means DefaultTransactionLimit. Syncs never
// import transactions, so the list is always empty.
func (s *Service) Transactions(ctx context.Context, userID, accountID string, limit int) ([]models.EWalletTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 0 || limit > MaxTransactionLimit {
		return nil, apperrors.Newf(apperrors.KindValidation, "limit must be between 1 and %d", MaxTransactionLimit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedLocked(userID, accountID); err != nil {
		return nil, err
	}
	return make([]models.EWalletTransaction, 0), nil
}

// SyncAll refreshes every active account and reports how many were synced.
func (s *Service) SyncAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	synced := 0
	for _, id := range s.order {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		a := s.accounts[id]
		if !a.IsActive {
			continue
		}
		s.syncLocked(a)
		synced++
	}
	return synced, nil
}

// ownedLocked finds an active account belonging to userID.
func (s *Service) ownedLocked(userID, accountID string) (*account, error) {
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID || !a.IsActive {
		return nil, apperrors.New(apperrors.KindNotFound, "e-wallet account not found")
	}
	return a, nil
}

func (s *Service) syncLocked(a *account) {
	now := s.now()
	a.Balance = decimal.NewFromInt(minSyncBalance + s.randInt64N(syncBalanceRange))
	a.LastSync = &now
}

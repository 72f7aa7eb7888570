package cron

import (
	"context"
	"fmt"
	"time"

	"fintrack/pkg/utils"

	"github.com/robfig/cron/v3"
)

const syncTimeout = 2 * time.Minute

// WalletSyncer refreshes every active e-wallet account.
type WalletSyncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// StartCronJob schedules the e-wallet sync on schedule, a standard
// five-field cron expression, and starts the scheduler.
func StartCronJob(schedule string, wallets WalletSyncer) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		if err := SyncWallets(context.Background(), wallets); err != nil {
			utils.Logger.Errorf("Cron job failed to sync e-wallets: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule e-wallet sync job: %w", err)
	}

	c.Start()
	utils.Logger.Infof("Cron jobs started (e-wallet sync on %q)", schedule)
	return c, nil
}

func SyncWallets(ctx context.Context, wallets WalletSyncer) error {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	n, err := wallets.SyncAll(ctx)
	if err != nil {
		return err
	}
	utils.Logger.Infof("Synced %d e-wallet accounts", n)
	return nil
}

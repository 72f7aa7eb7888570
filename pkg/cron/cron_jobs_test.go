package cron

import (
	"context"
	"errors"
	"testing"
)

type fakeSyncer struct {
	calls int
	err   error
}

func (f *fakeSyncer) SyncAll(ctx context.Context) (int, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sync ran without a deadline")
	}
	return 3, f.err
}

func TestSyncWallets(t *testing.T) {
	s := &fakeSyncer{}
	if err := SyncWallets(context.Background(), s); err != nil {
		t.Fatalf("SyncWallets: %v", err)
	}
	if s.calls != 1 {
		t.Fatalf("SyncAll called %d times, want 1", s.calls)
	}

	s.err = errors.New("boom")
	if err := SyncWallets(context.Background(), s); !errors.Is(err, s.err) {
		t.Fatalf("SyncWallets = %v, want boom", err)
	}
}

func TestStartCronJob(t *testing.T) {
	c, err := StartCronJob("0 0 * * *", &fakeSyncer{})
	if err != nil {
		t.Fatalf("StartCronJob: %v", err)
	}
	defer c.Stop()
	if n := len(c.Entries()); n != 1 {
		t.Fatalf("scheduled %d jobs, want 1", n)
	}

	if _, err := StartCronJob("not a schedule", &fakeSyncer{}); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

package groupbudget

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		name   string
		spent  string
		amount string
		want   string
	}{
		{name: "nothing spent", spent: "0", amount: "1000", want: "0"},
		{name: "exact share", spent: "400000", amount: "1000000", want: "40"},
		{name: "rounded", spent: "1", amount: "3", want: "33.33"},
		{name: "rounded up", spent: "2", amount: "3", want: "66.67"},
		{name: "capped", spent: "1500", amount: "1000", want: "100"},
		{name: "negative spent", spent: "-10", amount: "1000", want: "0"},
		{name: "zero amount", spent: "10", amount: "0", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Progress(decimal.RequireFromString(tt.spent), decimal.RequireFromString(tt.amount))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("Progress(%s, %s) = %s, want %s", tt.spent, tt.amount, got, tt.want)
			}
		})
	}
}

func TestCompute_WindowCategoryAndMembers(t *testing.T) {
	f := newFixture(t)
	in := juneInput()
	in.CategoryID = "food"
	budget := f.createBudget(t, "u1", in)
	f.addMember(t, budget.ID, "u1", "a@example.com")

	f.record(t, "u1", "food", "100.25", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	f.record(t, "u2", "food", "50", time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC))
	f.record(t, "u2", "food", "-20.25", time.Date(2024, 6, 20, 8, 0, 0, 0, time.UTC))
	f.record(t, "u1", "food", "999", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	f.record(t, "u1", "food", "999", time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC))
	f.record(t, "u1", "travel", "999", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	f.record(t, "u3", "food", "999", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))

	res, err := f.svc.Spend.Compute(context.Background(), budget.ID)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !res.Spent.Equal(decimal.NewFromInt(130)) {
		t.Fatalf("spent = %s, want 130", res.Spent)
	}
	if res.Count != 3 || res.Clamped {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCompute_ClampsNegativeSum(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(t, "u1", juneInput())

	f.record(t, "u1", "", "25", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	f.record(t, "u1", "", "-100", time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC))

	res, err := f.svc.Spend.Compute(context.Background(), budget.ID)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !res.Spent.IsZero() || !res.Clamped || !res.Raw.Equal(decimal.NewFromInt(-75)) {
		t.Fatalf("unexpected result %+v", res)
	}

	view, err := f.svc.Budgets.Get(context.Background(), budget.ID, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !view.Spent.IsZero() || !view.Progress.IsZero() {
		t.Fatalf("spent = %s, progress = %s, want 0 and 0", view.Spent, view.Progress)
	}
}

func TestCompute_IgnoresSupersetFromLedger(t *testing.T) {
	in := juneInput()
	in.CategoryID = "food"
	ledger := supersetLedger{txs: []models.Transaction{
		{UserID: "u1", CategoryID: "food", Amount: decimal.NewFromInt(10), OccurredAt: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)},
		{UserID: "u1", CategoryID: "rent", Amount: decimal.NewFromInt(500), OccurredAt: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)},
		{UserID: "u7", CategoryID: "food", Amount: decimal.NewFromInt(500), OccurredAt: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)},
		{UserID: "u1", CategoryID: "food", Amount: decimal.NewFromInt(500), OccurredAt: time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)},
	}}
	f := newFixture(t, withLedger(ledger))
	budget := f.createBudget(t, "u1", in)

	res, err := f.svc.Spend.Compute(context.Background(), budget.ID)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !res.Spent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("spent = %s, want 10", res.Spent)
	}
}

func TestCompute_SpentNeverNegativeAndProgressBounded(t *testing.T) {
	amounts := [][]string{
		{"-1"},
		{"1", "-2", "0.5"},
		{"999999999.99", "1"},
		{"0.01"},
		{"-500", "500", "-0.01"},
	}

	for _, set := range amounts {
		f := newFixture(t)
		budget := f.createBudget(t, "u1", juneInput())
		for i, a := range set {
			f.record(t, "u1", "", a, time.Date(2024, 6, 1+i, 12, 0, 0, 0, time.UTC))
		}

		view, err := f.svc.Budgets.Get(context.Background(), budget.ID, "u1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if view.Spent.IsNegative() {
			t.Fatalf("spent %s < 0 for %v", view.Spent, set)
		}
		if view.Progress.IsNegative() || view.Progress.GreaterThan(decimal.NewFromInt(100)) {
			t.Fatalf("progress %s out of bounds for %v", view.Progress, set)
		}
	}
}

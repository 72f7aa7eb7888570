package groupbudget

import (
	"context"

	"fintrack/internal/models"
	"fintrack/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// SpendResult is the outcome of one spend computation. Raw is the signed
// sum before clamping and never leaves the service.
type SpendResult struct {
	Spent   decimal.Decimal
	Raw     decimal.Decimal
	Clamped bool
	Count   int
}

// SpendAggregator computes how much the members of a group budget have
// spent inside its window.
type SpendAggregator struct {
	core *core
}

// Compute loads the budget and computes its spend.
func (a *SpendAggregator) Compute(ctx context.Context, budgetID string) (SpendResult, error) {
	snap, err := a.core.loadSnapshot(ctx, budgetID)
	if err != nil {
		return SpendResult{}, err
	}
	return a.ComputeSnapshot(ctx, snap)
}

// ComputeSnapshot sums the signed amounts of every member transaction in
// [StartDate, EndDate] matching the budget category.
func (a *SpendAggregator) ComputeSnapshot(ctx context.Context, snap models.GroupBudgetSnapshot) (SpendResult, error) {
	b := snap.Budget
	q := models.LedgerQuery{
		UserIDs:    snap.MemberIDs(),
		From:       b.StartDate,
		To:         b.EndDate,
		CategoryID: b.CategoryID,
	}
	if len(q.UserIDs) == 0 {
		return SpendResult{Spent: decimal.Zero, Raw: decimal.Zero}, nil
	}

	txs, err := a.core.listTransactions(ctx, q)
	if err != nil {
		return SpendResult{}, err
	}

	raw := decimal.Zero
	count := 0
	for _, tx := range txs {
		// collaborators may return a superset
		if !q.Matches(tx) {
			continue
		}
		raw = raw.Add(tx.Amount)
		count++
	}

	result := SpendResult{Spent: raw, Raw: raw, Count: count}
	if raw.IsNegative() {
		result.Spent = decimal.Zero
		result.Clamped = true
		utils.Logger.WithFields(logrus.Fields{
			"group_budget_id": b.ID,
			"raw_spent":       raw.StringFixed(2),
		}).Debug("group budget spend clamped to zero")
	}
	return result, nil
}

// Progress is spent as a percentage of amount, capped at 100 and rounded
// to two decimals.
func Progress(spent, amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() || !spent.IsPositive() {
		return decimal.Zero
	}
	p := spent.Div(amount).Mul(hundred)
	if p.GreaterThan(hundred) {
		p = hundred
	}
	return p.Round(2)
}

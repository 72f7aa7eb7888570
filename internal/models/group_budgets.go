package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

type GroupBudget struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Period      Period          `json:"period"`
	StartDate   Date            `json:"start_date"`
	EndDate     Date            `json:"end_date"`
	CategoryID  string          `json:"category_id,omitempty"`
	CreatorID   string          `json:"creator_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// GroupBudgetSnapshot is a budget together with its members and invitations,
// read at a single point in time.
type GroupBudgetSnapshot struct {
	Budget      GroupBudget
	Members     []GroupBudgetMember
	Invitations []GroupBudgetInvitation
}

// Member returns the membership of userID, if any.
func (s GroupBudgetSnapshot) Member(userID string) (GroupBudgetMember, bool) {
	for _, m := range s.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return GroupBudgetMember{}, false
}

// MemberIDs returns the user ids of every member in join order.
func (s GroupBudgetSnapshot) MemberIDs() []string {
	ids := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// IsOwner reports whether userID is both the creator and the owner member.
func (s GroupBudgetSnapshot) IsOwner(userID string) bool {
	m, ok := s.Member(userID)
	return ok && m.Role == RoleOwner && s.Budget.CreatorID == userID
}

// GroupBudgetView is what callers receive: the stored budget plus its
// derived spend and denormalized names.
type GroupBudgetView struct {
	GroupBudget
	Spent       decimal.Decimal         `json:"spent"`
	Progress    decimal.Decimal         `json:"progress"`
	Category    *Category               `json:"category,omitempty"`
	CreatorName string                  `json:"creator_name,omitempty"`
	Members     []MemberView            `json:"members"`
	Invitations []GroupBudgetInvitation `json:"invitations"`
}

package models

import "time"

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

type GroupBudgetMember struct {
	GroupBudgetID string     `json:"group_budget_id"`
	UserID        string     `json:"user_id"`
	Role          MemberRole `json:"role"`
	JoinedAt      time.Time  `json:"joined_at"`
}

type MemberView struct {
	GroupBudgetMember
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

package models

import (
	"strings"
	"time"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationRevoked  InvitationStatus = "revoked"
)

func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationDeclined || s == InvitationRevoked
}

type GroupBudgetInvitation struct {
	ID            string           `json:"id"`
	GroupBudgetID string           `json:"group_budget_id"`
	InvitedEmail  string           `json:"invited_email"`
	InvitedBy     string           `json:"invited_by"`
	Status        InvitationStatus `json:"status"`
	InvitedAt     time.Time        `json:"invited_at"`
	RespondedAt   *time.Time       `json:"responded_at"`
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

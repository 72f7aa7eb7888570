// Package store persists group budgets, memberships, invitations and the
// collaborator data (ledger, users, categories) they are computed from.
package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrNotPending       = errors.New("invitation is no longer pending")
	ErrDuplicateMember  = errors.New("user is already a member of this group budget")
	ErrDuplicatePending = errors.New("a pending invitation already exists for this email")
	ErrDuplicateEmail   = errors.New("a user with this email already exists")
)

const timestampLayout = "2006-01-02 15:04:05.000000"

// searchLimit caps directory search results.
const searchLimit = 20

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999", s, time.UTC)
	if err != nil {
		// sqlite drivers may hand back RFC3339 for values written elsewhere
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

package groupbudget

import (
	"context"
	"sync"
	"testing"
	"time"

	"fintrack/internal/apperrors"
	"fintrack/internal/models"
)

func TestInvite_IsIdempotentWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budget := f.createBudget(t, "u1", juneInput())

	first, created, err := f.svc.Invitations.Invite(ctx, budget.ID, "u1", "carol@example.com")
	if err != nil || !created {
		t.Fatalf("first Invite = %v, created %v", err, created)
	}
	second, created, err := f.svc.Invitations.Invite(ctx, budget.ID, "u1", "  CAROL@example.com ")
	if err != nil {
		t.Fatalf("second Invite: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("second invite = %s (created %v), want %s", second.ID, created, first.ID)
	}

	view, err := f.svc.Budgets.Get(ctx, budget.ID, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Invitations) != 1 {
		t.Fatalf("got %d invitations, want exactly 1", len(view.Invitations))
	}
}

func TestInvite_AlreadyMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budget := f.createBudget(t, "u1", juneInput())
	f.addMember(t, budget.ID, "u1", "a@example.com")

	_, _, err := f.svc.Invitations.Invite(ctx, budget.ID, "u1", "a@example.com")
	assertKind(t, err, apperrors.KindAlreadyMember)

	view, err := f.svc.Budgets.Get(ctx, budget.ID, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Invitations) != 1 || view.Invitations[0].Status != models.InvitationAccepted {
		t.Fatalf("expected only the accepted invitation, got %+v", view.Invitations)
	}
}

func TestInvite_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budget := f.createBudget(t, "u1", juneInput())

	tests := []struct {
		name     string
		budgetID string
		inviter  string
		email    string
		want     apperrors.Kind
	}{
		{name: "malformed email", budgetID: budget.ID, inviter: "u1", email: "not-an-email", want: apperrors.KindValidation},
		{name: "display name form", budgetID: budget.ID, inviter: "u1", email: "Carol <carol@example.com>", want: apperrors.KindValidation},
		{name: "empty email", budgetID: budget.ID, inviter: "u1", email: "  ", want: apperrors.KindValidation},
		{name: "non-member inviter", budgetID: budget.ID, inviter: "u3", email: "carol@example.com", want: apperrors.KindForbidden},
		{name: "non-member inviter with malformed email", budgetID: budget.ID, inviter: "u3", email: "not-an-email", want: apperrors.KindForbidden},
		{name: "unknown budget with malformed email", budgetID: "missing", inviter: "u1", email: "not-an-email", want: apperrors.KindNotFound},
		{name: "unknown budget", budgetID: "missing", inviter: "u1", email: "carol@example.com", want: apperrors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Invitations.Invite(ctx, tt.budgetID, tt.inviter, tt.email)
			assertKind(t, err, tt.want)
		})
	}
}

func TestInvite_DirectoryTimeout(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(t, "u1", juneInput())

	f.svc = New(Deps{
		Store:      f.store,
		Ledger:     f.store,
		Directory:  blockingDirectory{UserDirectory: f.store},
		Categories: f.store,
	}, Options{DirectoryTimeout: 20 * time.Millisecond})

	_, _, err := f.svc.Invitations.Invite(context.Background(), budget.ID, "u1", "carol@example.com")
	assertKind(t, err, apperrors.KindUnavailable)

	pending, err := f.svc.Invitations.PendingFor(context.Background(), "carol@example.com")
	if err != nil || len(pending) != 0 {
		t.Fatalf("timed out invite left state behind: %v, %v", pending, err)
	}
}

func TestRespond_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budget := f.createBudget(t, "u1", juneInput())

	inv, _, err := f.svc.Invitations.Invite(ctx, budget.ID, "u1", "carol@example.com")
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}

	_, err = f.svc.Invitations.Respond(ctx, "missing", "carol@example.com", true)
	assertKind(t, err, apperrors.KindNotFound)

	_, err = f.svc.Invitations.Respond(ctx, inv.ID, "a@example.com", true)
	assertKind(t, err, apperrors.KindEmailMismatch)

	res, err := f.svc.Invitations.Respond(ctx, inv.ID, "Carol@Example.com", false)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if res.Invitation.Status != models.InvitationDeclined || res.Member != nil || res.Invitation.RespondedAt == nil {
		t.Fatalf("unexpected decline result %+v", res)
	}

	_, err = f.svc.Invitations.Respond(ctx, inv.ID, "carol@example.com", true)
	assertKind(t, err, apperrors.KindInvalidState)
}

func TestRespond_UnknownUserKeepsInvitationPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budget := f.createBudget(t, "u1", juneInput())

	inv, _, err := f.svc.Invitations.Invite(ctx, budget.ID, "u1", "ghost@example.com")
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}

	_, err = f.svc.Invitations.Respond(ctx, inv.ID, "ghost@example.com", true)
	assertKind(t, err, apperrors.KindUnknownUser)

	pending, err := f.svc.Invitations.PendingFor(ctx, "ghost@example.com")
	if err != nil || len(pending) != 1 || pending[0].ID != inv.ID {
		t.Fatalf("PendingFor = %v, %v", pending, err)
	}
}

func TestRespond_ExistingMemberDeclinesInvitation(t *testing.T) {
	alias := map[string]string{}
	f := newFixture(t, func(d *Deps, _ *Options) {
		d.Directory = aliasDirectory{UserDirectory: d.Directory, alias: alias}
	})
	ctx := context.Background()
	budget := f.createBudget(t, "u1", juneInput())
	f.addMember(t, budget.ID, "u1", "a@example.com")

	inv, _, err := f.svc.Invitations.Invite(ctx, budget.ID, "u1", "alice.work@example.com")
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	// the second address now belongs to Alice
	alias["alice.work@example.com"] = "a@example.com"

	_, err = f.svc.Invitations.Respond(ctx, inv.ID, "alice.work@example.com", true)
	assertKind(t, err, apperrors.KindAlreadyMember)

	got, err := f.store.GetInvitation(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvitation: %v", err)
	}
	if got.Status != models.InvitationDeclined || got.RespondedAt == nil {
		t.Fatalf("invitation = %+v, want declined", got)
	}

	pending, err := f.svc.Invitations.PendingFor(ctx, "alice.work@example.com")
	if err != nil || len(pending) != 0 {
		t.Fatalf("PendingFor = %v, %v, want none", pending, err)
	}

	view, err := f.svc.Budgets.Get(ctx, budget.ID, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Members) != 2 {
		t.Fatalf("members = %+v, want owner and Alice", view.Members)
	}

	_, err = f.svc.Invitations.Respond(ctx, inv.ID, "alice.work@example.com", true)
	assertKind(t, err, apperrors.KindInvalidState)
}

func TestRespond_ConcurrentAcceptCreatesOneMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budget := f.createBudget(t, "u1", juneInput())

	inv, _, err := f.svc.Invitations.Invite(ctx, budget.ID, "u1", "a@example.com")
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}

	const callers = 10
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		accepted     int
		invalidState int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Invitations.Respond(ctx, inv.ID, "a@example.com", true)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case apperrors.Is(err, apperrors.KindInvalidState):
				invalidState++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 || invalidState != callers-1 {
		t.Fatalf("accepted = %d, invalid state = %d", accepted, invalidState)
	}

	view, err := f.svc.Budgets.Get(ctx, budget.ID, "u2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(view.Members))
	}
	if f.svc.Invitations.core.locks.size() != 0 {
		t.Fatal("lock table not drained after all responses")
	}
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budget := f.createBudget(t, "u1", juneInput())
	f.addMember(t, budget.ID, "u1", "a@example.com")

	inv, _, err := f.svc.Invitations.Invite(ctx, budget.ID, "u2", "carol@example.com")
	if err != nil {
		t.Fatalf("Invite by member: %v", err)
	}

	_, err = f.svc.Invitations.Revoke(ctx, inv.ID, "u2")
	assertKind(t, err, apperrors.KindForbidden)

	_, err = f.svc.Invitations.Revoke(ctx, "missing", "u1")
	assertKind(t, err, apperrors.KindNotFound)

	revoked, err := f.svc.Invitations.Revoke(ctx, inv.ID, "u1")
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked.Status != models.InvitationRevoked || revoked.RespondedAt == nil {
		t.Fatalf("unexpected revoked invitation %+v", revoked)
	}

	_, err = f.svc.Invitations.Revoke(ctx, inv.ID, "u1")
	assertKind(t, err, apperrors.KindInvalidState)

	_, err = f.svc.Invitations.Respond(ctx, inv.ID, "carol@example.com", true)
	assertKind(t, err, apperrors.KindInvalidState)

	again, created, err := f.svc.Invitations.Invite(ctx, budget.ID, "u1", "carol@example.com")
	if err != nil || !created || again.ID == inv.ID {
		t.Fatalf("re-invite after revoke = %+v, created %v, %v", again, created, err)
	}
}

func TestSearchUsers(t *testing.T) {
	f := newFixture(t)
	dir := &countingDirectory{
		UserDirectory: f.store,
		results: []models.User{
			{ID: "u1", Name: "Owner One", Email: "owner@example.com"},
			{ID: "u2", Name: "Alice", Email: "A@example.com"},
			{ID: "u9", Name: "Alice Duplicate", Email: "a@example.com "},
			{ID: "u3", Name: "Carol", Email: "carol@example.com"},
		},
	}
	svc := New(Deps{Store: f.store, Ledger: f.store, Directory: dir, Categories: f.store}, Options{})
	ctx := context.Background()

	for _, q := range []string{"", " ", "a", "  a  "} {
		users, err := svc.Invitations.SearchUsers(ctx, "u1", q)
		if err != nil || len(users) != 0 {
			t.Fatalf("SearchUsers(%q) = %v, %v", q, users, err)
		}
	}
	if dir.searches != 0 {
		t.Fatalf("short queries reached the directory %d times", dir.searches)
	}

	users, err := svc.Invitations.SearchUsers(ctx, "u1", "example")
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if dir.searches != 1 {
		t.Fatalf("directory searched %d times, want 1", dir.searches)
	}
	if len(users) != 2 || users[0].ID != "u2" || users[0].Email != "a@example.com" || users[1].ID != "u3" {
		t.Fatalf("unexpected results %+v", users)
	}
}

func TestPendingFor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createBudget(t, "u1", juneInput())
	second := f.createBudget(t, "u2", juneInput())

	for _, b := range []struct{ id, inviter string }{{first.ID, "u1"}, {second.ID, "u2"}} {
		if _, _, err := f.svc.Invitations.Invite(ctx, b.id, b.inviter, "carol@example.com"); err != nil {
			t.Fatalf("Invite: %v", err)
		}
	}

	pending, err := f.svc.Invitations.PendingFor(ctx, "CAROL@example.com")
	if err != nil {
		t.Fatalf("PendingFor: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending invitations, want 2", len(pending))
	}

	none, err := f.svc.Invitations.PendingFor(ctx, "")
	if err != nil || len(none) != 0 {
		t.Fatalf("PendingFor(empty) = %v, %v", none, err)
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/models"
)

const budgetColumns = `id, name, description, amount, period, start_date, end_date, category_id, creator_id, created_at, updated_at`

const invitationColumns = `id, group_budget_id, invited_email, invited_by, status, invited_at, responded_at`

func (s *SQLStore) CreateGroupBudget(ctx context.Context, budget models.GroupBudget, owner models.GroupBudgetMember) error {
	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		query := `INSERT INTO group_budgets (` + budgetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, query,
			budget.ID, budget.Name, budget.Description, budget.Amount, string(budget.Period),
			budget.StartDate, budget.EndDate, nullString(budget.CategoryID), budget.CreatorID,
			formatTimestamp(budget.CreatedAt), formatTimestamp(budget.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert group budget: %w", err)
		}

		memberQuery := `INSERT INTO group_budget_members (group_budget_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`
		if _, err = tx.ExecContext(ctx, memberQuery, owner.GroupBudgetID, owner.UserID, string(owner.Role), formatTimestamp(owner.JoinedAt)); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) LoadGroupBudget(ctx context.Context, id string) (models.GroupBudgetSnapshot, error) {
	var snap models.GroupBudgetSnapshot
	err := s.withTx(ctx, s.readTxOptions(), func(tx *sql.Tx) error {
		var err error
		snap, err = loadSnapshot(ctx, tx, id)
		return err
	})
	return snap, err
}

func (s *SQLStore) ListGroupBudgetsForUser(ctx context.Context, userID string) ([]models.GroupBudgetSnapshot, error) {
	snapshots := make([]models.GroupBudgetSnapshot, 0)
	err := s.withTx(ctx, s.readTxOptions(), func(tx *sql.Tx) error {
		query := `SELECT DISTINCT b.id, b.created_at FROM group_budgets b
			LEFT JOIN group_budget_members m ON m.group_budget_id = b.id AND m.user_id = ?
			WHERE b.deleted_at IS NULL AND (b.creator_id = ? OR m.user_id IS NOT NULL)
			ORDER BY b.created_at DESC, b.id`
		rows, err := tx.QueryContext(ctx, query, userID, userID)
		if err != nil {
			return fmt.Errorf("list group budgets: %w", err)
		}

		var ids []string
		for rows.Next() {
			var id, createdAt string
			if err := rows.Scan(&id, &createdAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan group budget id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, id := range ids {
			snap, err := loadSnapshot(ctx, tx, id)
			if err != nil {
				return err
			}
			snapshots = append(snapshots, snap)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// DeleteGroupBudget tombstones the budget, removes its members and revokes
// whatever invitations were still pending, in one transaction.
func (s *SQLStore) DeleteGroupBudget(ctx context.Context, id string, at time.Time) error {
	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		ts := formatTimestamp(at)
		res, err := tx.ExecContext(ctx, `UPDATE group_budgets SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
		if err != nil {
			return fmt.Errorf("delete group budget: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}

		revoke := `UPDATE group_budget_invitations SET status = ?, pending_key = NULL, responded_at = ?
			WHERE group_budget_id = ? AND status = ?`
		if _, err = tx.ExecContext(ctx, revoke, string(models.InvitationRevoked), ts, id, string(models.InvitationPending)); err != nil {
			return fmt.Errorf("revoke pending invitations: %w", err)
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM group_budget_members WHERE group_budget_id = ?`, id); err != nil {
			return fmt.Errorf("delete group budget members: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) GetInvitation(ctx context.Context, id string) (models.GroupBudgetInvitation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM group_budget_invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupBudgetInvitation{}, ErrNotFound
	}
	return inv, err
}

func (s *SQLStore) FindPendingInvitation(ctx context.Context, budgetID, email string) (models.GroupBudgetInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM group_budget_invitations
		WHERE group_budget_id = ? AND invited_email = ? AND status = ?`
	row := s.db.QueryRowContext(ctx, query, budgetID, email, string(models.InvitationPending))
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupBudgetInvitation{}, ErrNotFound
	}
	return inv, err
}

func (s *SQLStore) ListPendingInvitationsByEmail(ctx context.Context, email string) ([]models.GroupBudgetInvitation, error) {
	query := `SELECT i.id, i.group_budget_id, i.invited_email, i.invited_by, i.status, i.invited_at, i.responded_at
		FROM group_budget_invitations i
		JOIN group_budgets b ON b.id = i.group_budget_id AND b.deleted_at IS NULL
		WHERE i.invited_email = ? AND i.status = ?
		ORDER BY i.invited_at, i.id`
	rows, err := s.db.QueryContext(ctx, query, email, string(models.InvitationPending))
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]models.GroupBudgetInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (s *SQLStore) CreateInvitation(ctx context.Context, inv models.GroupBudgetInvitation) error {
	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		if err := ensureLiveBudget(ctx, tx, inv.GroupBudgetID); err != nil {
			return err
		}

		var pendingKey sql.NullString
		if inv.Status == models.InvitationPending {
			pendingKey = nullString(inv.InvitedEmail)
		}

		query := `INSERT INTO group_budget_invitations (id, group_budget_id, invited_email, invited_by, status, pending_key, invited_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, query, inv.ID, inv.GroupBudgetID, inv.InvitedEmail, inv.InvitedBy,
			string(inv.Status), pendingKey, formatTimestamp(inv.InvitedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicatePending
			}
			return fmt.Errorf("insert invitation: %w", err)
		}
		return nil
	})
}

// AcceptInvitation marks the invitation accepted and inserts member in one
// transaction. Only one caller can win the status transition. If member
// already belongs to the budget the invitation is declined instead and
// ErrDuplicateMember is returned.
func (s *SQLStore) AcceptInvitation(ctx context.Context, invitationID string, at time.Time, member models.GroupBudgetMember) error {
	alreadyMember := false
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		var budgetID string
		err := tx.QueryRowContext(ctx, `SELECT group_budget_id FROM group_budget_invitations WHERE id = ?`, invitationID).Scan(&budgetID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load invitation: %w", err)
		}

		if err := ensureLiveBudget(ctx, tx, budgetID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrNotPending
			}
			return err
		}

		var members int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM group_budget_members WHERE group_budget_id = ? AND user_id = ?`,
			budgetID, member.UserID).Scan(&members)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}

		status := models.InvitationAccepted
		if members > 0 {
			status = models.InvitationDeclined
		}

		update := `UPDATE group_budget_invitations SET status = ?, pending_key = NULL, responded_at = ?
			WHERE id = ? AND status = ?`
		res, err := tx.ExecContext(ctx, update, string(status), formatTimestamp(at), invitationID, string(models.InvitationPending))
		if err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotPending
		}
		if members > 0 {
			alreadyMember = true
			return nil
		}

		insert := `INSERT INTO group_budget_members (group_budget_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`
		if _, err = tx.ExecContext(ctx, insert, budgetID, member.UserID, string(member.Role), formatTimestamp(member.JoinedAt)); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateMember
			}
			return fmt.Errorf("insert membership: %w", err)
		}
		return nil
	})
	if err == nil && alreadyMember {
		return ErrDuplicateMember
	}
	return err
}

func (s *SQLStore) CloseInvitation(ctx context.Context, invitationID string, status models.InvitationStatus, at time.Time) error {
	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		update := `UPDATE group_budget_invitations SET status = ?, pending_key = NULL, responded_at = ?
			WHERE id = ? AND status = ?`
		res, err := tx.ExecContext(ctx, update, string(status), formatTimestamp(at), invitationID, string(models.InvitationPending))
		if err != nil {
			return fmt.Errorf("close invitation: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}

		var exists int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM group_budget_invitations WHERE id = ?`, invitationID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check invitation: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrNotPending
	})
}

func ensureLiveBudget(ctx context.Context, q queryer, id string) error {
	var found int
	err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM group_budgets WHERE id = ? AND deleted_at IS NULL`, id).Scan(&found)
	if err != nil {
		return fmt.Errorf("check group budget: %w", err)
	}
	if found == 0 {
		return ErrNotFound
	}
	return nil
}

func loadSnapshot(ctx context.Context, q queryer, id string) (models.GroupBudgetSnapshot, error) {
	var snap models.GroupBudgetSnapshot

	row := q.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM group_budgets WHERE id = ? AND deleted_at IS NULL`, id)
	budget, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, ErrNotFound
	}
	if err != nil {
		return snap, err
	}
	snap.Budget = budget

	members, err := loadMembers(ctx, q, id)
	if err != nil {
		return snap, err
	}
	snap.Members = members

	rows, err := q.QueryContext(ctx, `SELECT `+invitationColumns+` FROM group_budget_invitations WHERE group_budget_id = ? ORDER BY invited_at, id`, id)
	if err != nil {
		return snap, fmt.Errorf("load invitations: %w", err)
	}
	defer rows.Close()

	snap.Invitations = make([]models.GroupBudgetInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return snap, err
		}
		snap.Invitations = append(snap.Invitations, inv)
	}
	return snap, rows.Err()
}

func loadMembers(ctx context.Context, q queryer, budgetID string) ([]models.GroupBudgetMember, error) {
	query := `SELECT group_budget_id, user_id, role, joined_at FROM group_budget_members
		WHERE group_budget_id = ? ORDER BY joined_at, user_id`
	rows, err := q.QueryContext(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	members := make([]models.GroupBudgetMember, 0)
	for rows.Next() {
		var (
			m        models.GroupBudgetMember
			role     string
			joinedAt string
		)
		if err := rows.Scan(&m.GroupBudgetID, &m.UserID, &role, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = models.MemberRole(role)
		if m.JoinedAt, err = parseTimestamp(joinedAt); err != nil {
			return nil, fmt.Errorf("parse joined_at: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(row scanner) (models.GroupBudget, error) {
	var (
		b                    models.GroupBudget
		period               string
		categoryID           sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.Amount, &period, &b.StartDate, &b.EndDate,
		&categoryID, &b.CreatorID, &createdAt, &updatedAt)
	if err != nil {
		return b, err
	}

	b.Period = models.Period(period)
	b.CategoryID = categoryID.String
	if b.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return b, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return b, fmt.Errorf("parse updated_at: %w", err)
	}
	return b, nil
}

func scanInvitation(row scanner) (models.GroupBudgetInvitation, error) {
	var (
		inv         models.GroupBudgetInvitation
		status      string
		invitedAt   string
		respondedAt sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.GroupBudgetID, &inv.InvitedEmail, &inv.InvitedBy, &status, &invitedAt, &respondedAt)
	if err != nil {
		return inv, err
	}

	inv.Status = models.InvitationStatus(status)
	if inv.InvitedAt, err = parseTimestamp(invitedAt); err != nil {
		return inv, fmt.Errorf("parse invited_at: %w", err)
	}
	if respondedAt.Valid {
		t, err := parseTimestamp(respondedAt.String)
		if err != nil {
			return inv, fmt.Errorf("parse responded_at: %w", err)
		}
		inv.RespondedAt = &t
	}
	return inv, nil
}

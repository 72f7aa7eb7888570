package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/models"
)

func (s *SQLStore) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, name, email) VALUES (?, ?, ?)`,
		u.ID, u.Name, models.NormalizeEmail(u.Email))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character,
// which both MySQL and SQLite accept in an ESCAPE clause.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func (s *SQLStore) Search(ctx context.Context, query string) ([]models.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email FROM users
		WHERE LOWER(name) LIKE ? ESCAPE '!' OR email LIKE ? ESCAPE '!'
		ORDER BY email LIMIT ?`, pattern, pattern, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLStore) Resolve(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email FROM users WHERE email = ?`, models.NormalizeEmail(email)).
		Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) Lookup(ctx context.Context, ids []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name, email FROM users WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := s.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result[u.ID] = u
	}
	return result, rows.Err()
}

func (s *SQLStore) CreateCategory(ctx context.Context, c models.Category) error {
	kind := c.Type
	if kind == "" {
		kind = "expense"
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name, type) VALUES (?, ?, ?)`, c.ID, c.Name, kind); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *SQLStore) Exists(ctx context.Context, categoryID string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM categories WHERE id = ?`, categoryID).Scan(&n); err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) Get(ctx context.Context, categoryID string) (models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `SELECT id, name, type FROM categories WHERE id = ?`, categoryID).
		Scan(&c.ID, &c.Name, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

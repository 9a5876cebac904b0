package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/a11ymon/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	res, err := r.q().ExecContext(ctx, `INSERT INTO users (display_name, email) VALUES (?, ?)`, u.DisplayName, u.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &models.ValidationError{Message: "email already in use", Fields: []string{"email"}}
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := r.q().QueryRowContext(ctx, `SELECT id, display_name, email FROM users WHERE id = ?`, id)
	var u models.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.q().QueryContext(ctx, `SELECT id, display_name, email FROM users ORDER BY display_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetSettings returns the single settings row, or empty settings before the
// first write.
func (r *SQLiteRepo) GetSettings(ctx context.Context) (*models.PlatformSettings, error) {
	row := r.q().QueryRowContext(ctx, `SELECT active_qa_auditor_id, updated FROM platform_settings WHERE id = 1`)
	var s models.PlatformSettings
	var updated int64
	if err := row.Scan(&s.ActiveQAAuditorID, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.PlatformSettings{}, nil
		}
		return nil, err
	}
	s.Updated = fromMillis(updated)
	return &s, nil
}

func (r *SQLiteRepo) UpdateSettings(ctx context.Context, s *models.PlatformSettings) error {
	if s == nil {
		return fmt.Errorf("settings is nil")
	}
	ms, ts := r.millis()
	if _, err := r.q().ExecContext(ctx, `INSERT INTO platform_settings (id, active_qa_auditor_id, updated) VALUES (1, ?, ?) ON CONFLICT(id) DO UPDATE SET active_qa_auditor_id = excluded.active_qa_auditor_id, updated = excluded.updated`,
		s.ActiveQAAuditorID, ms); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	s.Updated = ts
	return nil
}

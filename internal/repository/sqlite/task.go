package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/a11ymon/pkg/models"
)

const taskSelect = `SELECT id, type, date, case_id, user_id, description, read, created FROM tasks`

func scanTask(s rowScanner) (*models.Task, error) {
	var t models.Task
	var created int64
	if err := s.Scan(&t.ID, &t.Type, &t.Date, &t.CaseID, &t.UserID, &t.Description, &t.Read, &created); err != nil {
		return nil, err
	}
	t.Created = fromMillis(created)
	return &t, nil
}

// CreateTask inserts a task. A second unread reminder on the same case
// violates the one-unread-reminder index and is an invariant violation.
func (r *SQLiteRepo) CreateTask(ctx context.Context, t *models.Task) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("task is nil")
	}
	err := r.withTx(ctx, func(q querier) error {
		ms, ts := r.millis()
		res, err := q.ExecContext(ctx, `INSERT INTO tasks (type, date, case_id, user_id, description, read, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.Type, t.Date, t.CaseID, t.UserID, t.Description, t.Read, ms)
		if err != nil {
			if isUniqueViolation(err) {
				return &models.InvariantError{Invariant: "one unread reminder per case", Detail: fmt.Sprintf("case %d already has an unread reminder", t.CaseID)}
			}
			return fmt.Errorf("insert task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID, t.Created = id, ts
		r.recorder.Created(ctx, q, r.event(ctx, &t.CaseID, models.ContentTypeTask, id), t)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

func (r *SQLiteRepo) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return getTask(ctx, r.q(), id)
}

func getTask(ctx context.Context, q querier, id int64) (*models.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, taskSelect+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *SQLiteRepo) UpdateTask(ctx context.Context, t *models.Task) error {
	if t == nil {
		return fmt.Errorf("task is nil")
	}
	return r.withTx(ctx, func(q querier) error {
		before, err := getTask(ctx, q, t.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return models.ErrNotFound
		}
		if _, err := q.ExecContext(ctx, `UPDATE tasks SET date = ?, description = ?, read = ? WHERE id = ?`, t.Date, t.Description, t.Read, t.ID); err != nil {
			if isUniqueViolation(err) {
				return &models.InvariantError{Invariant: "one unread reminder per case", Detail: fmt.Sprintf("case %d already has an unread reminder", t.CaseID)}
			}
			return fmt.Errorf("update task: %w", err)
		}
		t.Type, t.CaseID, t.UserID, t.Created = before.Type, before.CaseID, before.UserID, before.Created
		r.recorder.Updated(ctx, q, r.event(ctx, &t.CaseID, models.ContentTypeTask, t.ID), before, t)
		return nil
	})
}

// ListTasks returns the user's stored tasks, unread only unless includeRead.
func (r *SQLiteRepo) ListTasks(ctx context.Context, userID int64, includeRead bool) ([]models.Task, error) {
	query := taskSelect + ` WHERE user_id = ?`
	if !includeRead {
		query += ` AND read = 0`
	}
	rows, err := r.q().QueryContext(ctx, query+` ORDER BY date, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UnreadReminder returns nil, nil when the case has no unread reminder.
func (r *SQLiteRepo) UnreadReminder(ctx context.Context, caseID int64) (*models.Task, error) {
	t, err := scanTask(r.q().QueryRowContext(ctx, taskSelect+` WHERE case_id = ? AND type = ? AND read = 0`, caseID, models.TaskReminder))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// SnoozedCaseIDs returns the cases whose unread reminder is dated after today.
func (r *SQLiteRepo) SnoozedCaseIDs(ctx context.Context, today models.Date) (map[int64]bool, error) {
	rows, err := r.q().QueryContext(ctx, `SELECT DISTINCT case_id FROM tasks WHERE type = ? AND read = 0 AND date > ?`, models.TaskReminder, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

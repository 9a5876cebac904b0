package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/a11ymon/pkg/models"
)

const correspondenceSelect = `SELECT id, case_id, id_within_case, type, status, message, notes, is_deleted, created FROM equality_body_correspondences`

func scanCorrespondence(s rowScanner) (*models.EqualityBodyCorrespondence, error) {
	var c models.EqualityBodyCorrespondence
	var created int64
	if err := s.Scan(&c.ID, &c.CaseID, &c.IDWithinCase, &c.Type, &c.Status, &c.Message, &c.Notes, &c.IsDeleted, &created); err != nil {
		return nil, err
	}
	c.Created = fromMillis(created)
	return &c, nil
}

// CreateCorrespondence numbers the item after the case's highest
// id_within_case. A clash on (case_id, id_within_case) is an invariant
// violation.
func (r *SQLiteRepo) CreateCorrespondence(ctx context.Context, c *models.EqualityBodyCorrespondence) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("correspondence is nil")
	}
	if c.Type == "" {
		c.Type = models.CorrespondenceQuestion
	}
	if c.Status == "" {
		c.Status = models.CorrespondenceUnresolved
	}
	err := r.withTx(ctx, func(q querier) error {
		var next int64
		if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(id_within_case), 0) + 1 FROM equality_body_correspondences WHERE case_id = ?`, c.CaseID).Scan(&next); err != nil {
			return fmt.Errorf("next id_within_case: %w", err)
		}
		ms, ts := r.millis()
		res, err := q.ExecContext(ctx, `INSERT INTO equality_body_correspondences (case_id, id_within_case, type, status, message, notes, is_deleted, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.CaseID, next, c.Type, c.Status, c.Message, c.Notes, c.IsDeleted, ms)
		if err != nil {
			if isUniqueViolation(err) {
				return &models.InvariantError{Invariant: "dense id_within_case", Detail: fmt.Sprintf("case %d: correspondence %d already exists", c.CaseID, next)}
			}
			return fmt.Errorf("insert correspondence: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID, c.IDWithinCase, c.Created = id, next, ts
		r.recorder.Created(ctx, q, r.event(ctx, &c.CaseID, models.ContentTypeCorrespondence, id), c)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (r *SQLiteRepo) GetCorrespondence(ctx context.Context, caseID, id int64) (*models.EqualityBodyCorrespondence, error) {
	return getCorrespondence(ctx, r.q(), caseID, id)
}

func getCorrespondence(ctx context.Context, q querier, caseID, id int64) (*models.EqualityBodyCorrespondence, error) {
	c, err := scanCorrespondence(q.QueryRowContext(ctx, correspondenceSelect+` WHERE case_id = ? AND id = ?`, caseID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// UpdateCorrespondence rewrites the mutable fields; id_within_case never changes.
func (r *SQLiteRepo) UpdateCorrespondence(ctx context.Context, c *models.EqualityBodyCorrespondence) error {
	if c == nil {
		return fmt.Errorf("correspondence is nil")
	}
	return r.withTx(ctx, func(q querier) error {
		before, err := getCorrespondence(ctx, q, c.CaseID, c.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return models.ErrNotFound
		}
		if _, err := q.ExecContext(ctx, `UPDATE equality_body_correspondences SET type = ?, status = ?, message = ?, notes = ?, is_deleted = ? WHERE id = ?`,
			c.Type, c.Status, c.Message, c.Notes, c.IsDeleted, c.ID); err != nil {
			return fmt.Errorf("update correspondence: %w", err)
		}
		c.IDWithinCase, c.Created = before.IDWithinCase, before.Created
		r.recorder.Updated(ctx, q, r.event(ctx, &c.CaseID, models.ContentTypeCorrespondence, c.ID), before, c)
		return nil
	})
}

func (r *SQLiteRepo) ListCorrespondence(ctx context.Context, caseID int64) ([]models.EqualityBodyCorrespondence, error) {
	return r.listCorrespondence(ctx, correspondenceSelect+` WHERE case_id = ? AND is_deleted = 0 ORDER BY id_within_case`, caseID)
}

// ListUnresolvedCorrespondence returns open items across the given cases.
func (r *SQLiteRepo) ListUnresolvedCorrespondence(ctx context.Context, caseIDs []int64) ([]models.EqualityBodyCorrespondence, error) {
	if len(caseIDs) == 0 {
		return nil, nil
	}
	marks, args := inArgs(caseIDs)
	args = append([]any{models.CorrespondenceUnresolved}, args...)
	return r.listCorrespondence(ctx, correspondenceSelect+` WHERE status = ? AND is_deleted = 0 AND case_id IN (`+marks+`) ORDER BY case_id, id_within_case`, args...)
}

func (r *SQLiteRepo) listCorrespondence(ctx context.Context, query string, args ...any) ([]models.EqualityBodyCorrespondence, error) {
	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EqualityBodyCorrespondence
	for rows.Next() {
		c, err := scanCorrespondence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/a11ymon/pkg/models"
)

func scanContact(s rowScanner) (*models.Contact, error) {
	var c models.Contact
	var created int64
	if err := s.Scan(&c.ID, &c.CaseID, &c.Name, &c.JobTitle, &c.Email, &c.Preferred, &c.IsDeleted, &created); err != nil {
		return nil, err
	}
	c.Created = fromMillis(created)
	return &c, nil
}

func (r *SQLiteRepo) CreateContact(ctx context.Context, c *models.Contact) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("contact is nil")
	}
	if c.Preferred == "" {
		c.Preferred = models.PreferredUnknown
	}
	err := r.withTx(ctx, func(q querier) error {
		ms, ts := r.millis()
		res, err := q.ExecContext(ctx, `INSERT INTO contacts (case_id, name, job_title, email, preferred, is_deleted, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.CaseID, c.Name, c.JobTitle, c.Email, c.Preferred, c.IsDeleted, ms)
		if err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID, c.Created = id, ts
		r.recorder.Created(ctx, q, r.event(ctx, &c.CaseID, models.ContentTypeContact, id), c)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (r *SQLiteRepo) GetContact(ctx context.Context, caseID, id int64) (*models.Contact, error) {
	return getContact(ctx, r.q(), caseID, id)
}

func getContact(ctx context.Context, q querier, caseID, id int64) (*models.Contact, error) {
	c, err := scanContact(q.QueryRowContext(ctx, `SELECT id, case_id, name, job_title, email, preferred, is_deleted, created FROM contacts WHERE case_id = ? AND id = ?`, caseID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *SQLiteRepo) UpdateContact(ctx context.Context, c *models.Contact) error {
	if c == nil {
		return fmt.Errorf("contact is nil")
	}
	return r.withTx(ctx, func(q querier) error {
		before, err := getContact(ctx, q, c.CaseID, c.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return models.ErrNotFound
		}
		if _, err := q.ExecContext(ctx, `UPDATE contacts SET name = ?, job_title = ?, email = ?, preferred = ?, is_deleted = ? WHERE id = ?`,
			c.Name, c.JobTitle, c.Email, c.Preferred, c.IsDeleted, c.ID); err != nil {
			return fmt.Errorf("update contact: %w", err)
		}
		c.Created = before.Created
		r.recorder.Updated(ctx, q, r.event(ctx, &c.CaseID, models.ContentTypeContact, c.ID), before, c)
		return nil
	})
}

// ListContacts returns the case's contacts that are not deleted.
func (r *SQLiteRepo) ListContacts(ctx context.Context, caseID int64) ([]models.Contact, error) {
	rows, err := r.q().QueryContext(ctx, `SELECT id, case_id, name, job_title, email, preferred, is_deleted, created FROM contacts WHERE case_id = ? AND is_deleted = 0 ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

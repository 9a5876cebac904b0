package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/a11ymon/pkg/models"
)

const retestSelect = `SELECT id, case_id, id_within_case, date_of_retest, retest_compliance_state, retest_notes, is_deleted, created FROM retests`

func scanRetest(s rowScanner) (*models.Retest, error) {
	var rt models.Retest
	var created int64
	if err := s.Scan(&rt.ID, &rt.CaseID, &rt.IDWithinCase, &rt.DateOfRetest, &rt.RetestComplianceState, &rt.RetestNotes, &rt.IsDeleted, &created); err != nil {
		return nil, err
	}
	rt.Created = fromMillis(created)
	return &rt, nil
}

func (r *SQLiteRepo) CreateRetest(ctx context.Context, rt *models.Retest) (int64, error) {
	if rt == nil {
		return 0, fmt.Errorf("retest is nil")
	}
	if rt.RetestComplianceState == "" {
		rt.RetestComplianceState = models.RetestNotKnown
	}
	err := r.withTx(ctx, func(q querier) error {
		var next int64
		if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(id_within_case), 0) + 1 FROM retests WHERE case_id = ?`, rt.CaseID).Scan(&next); err != nil {
			return fmt.Errorf("next id_within_case: %w", err)
		}
		ms, ts := r.millis()
		res, err := q.ExecContext(ctx, `INSERT INTO retests (case_id, id_within_case, date_of_retest, retest_compliance_state, retest_notes, is_deleted, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rt.CaseID, next, rt.DateOfRetest, rt.RetestComplianceState, rt.RetestNotes, rt.IsDeleted, ms)
		if err != nil {
			if isUniqueViolation(err) {
				return &models.InvariantError{Invariant: "dense id_within_case", Detail: fmt.Sprintf("case %d: retest %d already exists", rt.CaseID, next)}
			}
			return fmt.Errorf("insert retest: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rt.ID, rt.IDWithinCase, rt.Created = id, next, ts
		r.recorder.Created(ctx, q, r.event(ctx, &rt.CaseID, models.ContentTypeRetest, id), rt)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rt.ID, nil
}

func (r *SQLiteRepo) GetRetest(ctx context.Context, caseID, id int64) (*models.Retest, error) {
	return getRetest(ctx, r.q(), caseID, id)
}

func getRetest(ctx context.Context, q querier, caseID, id int64) (*models.Retest, error) {
	rt, err := scanRetest(q.QueryRowContext(ctx, retestSelect+` WHERE case_id = ? AND id = ?`, caseID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rt, nil
}

func (r *SQLiteRepo) UpdateRetest(ctx context.Context, rt *models.Retest) error {
	if rt == nil {
		return fmt.Errorf("retest is nil")
	}
	return r.withTx(ctx, func(q querier) error {
		before, err := getRetest(ctx, q, rt.CaseID, rt.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return models.ErrNotFound
		}
		if _, err := q.ExecContext(ctx, `UPDATE retests SET date_of_retest = ?, retest_compliance_state = ?, retest_notes = ?, is_deleted = ? WHERE id = ?`,
			rt.DateOfRetest, rt.RetestComplianceState, rt.RetestNotes, rt.IsDeleted, rt.ID); err != nil {
			return fmt.Errorf("update retest: %w", err)
		}
		rt.IDWithinCase, rt.Created = before.IDWithinCase, before.Created
		r.recorder.Updated(ctx, q, r.event(ctx, &rt.CaseID, models.ContentTypeRetest, rt.ID), before, rt)
		return nil
	})
}

func (r *SQLiteRepo) ListRetests(ctx context.Context, caseID int64) ([]models.Retest, error) {
	return r.listRetests(ctx, retestSelect+` WHERE case_id = ? AND is_deleted = 0 ORDER BY id_within_case`, caseID)
}

// ListIncompleteRetests returns retests still awaiting a compliance decision.
func (r *SQLiteRepo) ListIncompleteRetests(ctx context.Context, caseIDs []int64) ([]models.Retest, error) {
	if len(caseIDs) == 0 {
		return nil, nil
	}
	marks, args := inArgs(caseIDs)
	args = append([]any{models.RetestNotKnown}, args...)
	return r.listRetests(ctx, retestSelect+` WHERE retest_compliance_state = ? AND is_deleted = 0 AND case_id IN (`+marks+`) ORDER BY case_id, id_within_case`, args...)
}

func (r *SQLiteRepo) listRetests(ctx context.Context, query string, args ...any) ([]models.Retest, error) {
	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Retest
	for rows.Next() {
		rt, err := scanRetest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

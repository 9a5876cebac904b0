package sqlite

import (
	"context"

	"github.com/garnizeh/a11ymon/pkg/models"
)

// ListEvents returns the case's history oldest first.
func (r *SQLiteRepo) ListEvents(ctx context.Context, caseID int64) ([]models.EventHistory, error) {
	rows, err := r.q().QueryContext(ctx, `SELECT id, case_id, content_type, object_id, event_type, difference, created_by, created FROM event_history WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EventHistory
	for rows.Next() {
		var e models.EventHistory
		var created int64
		if err := rows.Scan(&e.ID, &e.CaseID, &e.ContentType, &e.ObjectID, &e.EventType, &e.Difference, &e.CreatedBy, &created); err != nil {
			return nil, err
		}
		e.Created = fromMillis(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Package history records one append-only event row for every create or
// update of a tracked entity.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/garnizeh/a11ymon/pkg/models"
)

// Separator joins the old and new values of a changed field.
const Separator = "\u00a0->\u00a0"

// Change is one parsed entry of an update difference.
type Change struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Snapshot returns the tracked field dictionary of an entity.
func Snapshot(v any) map[string]any {
	return models.TrackedFields(v)
}

// Diff returns the fields whose stringified values differ between before and
// after, each encoded as old + Separator + new. Equal snapshots give an
// empty map.
func Diff(before, after map[string]any) map[string]string {
	out := map[string]string{}
	for k, nv := range after {
		ov := models.Stringify(before[k])
		ns := models.Stringify(nv)
		if ov != ns {
			out[k] = ov + Separator + ns
		}
	}
	for k, ov := range before {
		if _, ok := after[k]; ok {
			continue
		}
		if s := models.Stringify(ov); s != "" {
			out[k] = s + Separator
		}
	}
	return out
}

// ParseDifference decodes an update difference back into old and new values,
// ordered by field name.
func ParseDifference(difference string) ([]Change, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(difference), &m); err != nil {
		return nil, fmt.Errorf("decode difference: %w", err)
	}
	out := make([]Change, 0, len(m))
	for k, v := range m {
		oldV, newV, ok := strings.Cut(v, Separator)
		if !ok {
			return nil, fmt.Errorf("field %s: missing separator", k)
		}
		out = append(out, Change{Field: k, Old: oldV, New: newV})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

// Execer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Recorder writes event_history rows. It never returns an error into the
// caller's write path: failures are logged and the surrounding write
// proceeds. Each insert runs inside a savepoint so a failed insert leaves the
// enclosing transaction usable.
type Recorder struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger, now: time.Now}
}

// Event identifies the mutated row.
type Event struct {
	CaseID      *int64
	ContentType string
	ObjectID    int64
	CreatedBy   *int64
}

// Created records the full tracked dictionary of a new entity.
func (r *Recorder) Created(ctx context.Context, ex Execer, ev Event, entity any) {
	b, err := json.Marshal(Snapshot(entity))
	if err != nil {
		r.fail(ev, models.EventCreate, err)
		return
	}
	r.insert(ctx, ex, ev, models.EventCreate, string(b))
}

// Updated records the changed tracked fields between before and after. An
// update that changes nothing is not recorded. It reports whether a row was
// attempted.
func (r *Recorder) Updated(ctx context.Context, ex Execer, ev Event, before, after any) bool {
	diff := Diff(Snapshot(before), Snapshot(after))
	if len(diff) == 0 {
		return false
	}
	b, err := json.Marshal(diff)
	if err != nil {
		r.fail(ev, models.EventUpdate, err)
		return true
	}
	r.insert(ctx, ex, ev, models.EventUpdate, string(b))
	return true
}

func (r *Recorder) insert(ctx context.Context, ex Execer, ev Event, typ models.EventType, difference string) {
	if _, err := ex.ExecContext(ctx, `SAVEPOINT event_history`); err != nil {
		r.fail(ev, typ, err)
		return
	}
	_, err := ex.ExecContext(ctx, `INSERT INTO event_history (case_id, content_type, object_id, event_type, difference, created_by, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.CaseID, ev.ContentType, ev.ObjectID, string(typ), difference, ev.CreatedBy, r.now().UTC().UnixMilli())
	if err != nil {
		r.fail(ev, typ, err)
		_, _ = ex.ExecContext(ctx, `ROLLBACK TO event_history`)
	}
	if _, err := ex.ExecContext(ctx, `RELEASE event_history`); err != nil {
		r.fail(ev, typ, err)
	}
}

func (r *Recorder) fail(ev Event, typ models.EventType, err error) {
	r.logger.Error("event history write failed",
		slog.String("content_type", ev.ContentType),
		slog.Int64("object_id", ev.ObjectID),
		slog.String("event_type", string(typ)),
		slog.String("error", err.Error()))
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/garnizeh/a11ymon/internal/db"
	"github.com/garnizeh/a11ymon/internal/history"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
// A repo returned to an InTx callback runs every statement in that
// transaction; otherwise each write opens its own.
type SQLiteRepo struct {
	conn     *db.DB
	tx       *sql.Tx
	logger   *slog.Logger
	recorder *history.Recorder
	now      func() time.Time
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.Store = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger, recorder: history.NewRecorder(logger), now: time.Now}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepo) q() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.GetConn()
}

// InTx runs fn with repositories bound to one transaction. Nested calls
// join the outer transaction.
func (r *SQLiteRepo) InTx(ctx context.Context, fn func(repository.Repos) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txRepo := *r
	txRepo.tx = tx
	if err := fn(&txRepo); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// withTx runs fn in the current transaction, or in a new one committed when
// fn succeeds.
func (r *SQLiteRepo) withTx(ctx context.Context, fn func(q querier) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) event(ctx context.Context, caseID *int64, contentType string, objectID int64) history.Event {
	ev := history.Event{CaseID: caseID, ContentType: contentType, ObjectID: objectID}
	if actor, ok := repository.ActorFrom(ctx); ok {
		ev.CreatedBy = &actor
	}
	return ev
}

func (r *SQLiteRepo) millis() (int64, time.Time) {
	t := r.now().UTC()
	ms := t.UnixMilli()
	return ms, time.UnixMilli(ms).UTC()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func inArgs(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

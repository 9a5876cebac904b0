package history_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/a11ymon/internal/history"
	"github.com/garnizeh/a11ymon/pkg/models"
)

func TestDiff_OnlyChangedFields(t *testing.T) {
	before := models.NewCase("Org", "https://org.example")
	after := before.Clone()
	after.Sector = "Health"
	after.ReportSentDate = models.MustDate("2024-03-01").Ptr()
	after.Version = 9

	diff := history.Diff(history.Snapshot(before), history.Snapshot(after))
	assert.Equal(t, map[string]string{
		"sector":           "" + history.Separator + "Health",
		"report_sent_date": "" + history.Separator + "2024-03-01",
	}, diff)
}

func TestDiff_EqualSnapshotsEmpty(t *testing.T) {
	c := models.NewCase("Org", "https://org.example")
	assert.Empty(t, history.Diff(history.Snapshot(c), history.Snapshot(c.Clone())))
}

func TestDiff_ClearedValue(t *testing.T) {
	before := models.NewCase("Org", "")
	before.AuditorID = new(int64)
	*before.AuditorID = 7
	after := before.Clone()
	after.AuditorID = nil

	diff := history.Diff(history.Snapshot(before), history.Snapshot(after))
	assert.Equal(t, "7"+history.Separator, diff["auditor_id"])
}

func TestParseDifference_RoundTrip(t *testing.T) {
	before := models.NewCase("Org", "https://org.example")
	after := before.Clone()
	after.OrganisationName = "Org -> renamed"
	after.IsDeactivated = true

	b, err := json.Marshal(history.Diff(history.Snapshot(before), history.Snapshot(after)))
	require.NoError(t, err)

	changes, err := history.ParseDifference(string(b))
	require.NoError(t, err)
	assert.Equal(t, []history.Change{
		{Field: "is_deactivated", Old: "false", New: "true"},
		{Field: "organisation_name", Old: "Org", New: "Org -> renamed"},
	}, changes)
}

func TestParseDifference_Invalid(t *testing.T) {
	_, err := history.ParseDifference(`not json`)
	require.Error(t, err)
	_, err = history.ParseDifference(`{"a":"no separator"}`)
	require.Error(t, err)
}

type execCall struct {
	query string
	args  []any
}

type fakeExec struct {
	calls  []execCall
	failOn string
}

func (f *fakeExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	if f.failOn != "" && bytes.Contains([]byte(query), []byte(f.failOn)) {
		return nil, errors.New("insert failed")
	}
	return nil, nil
}

func TestRecorder_UpdatedWritesInsideSavepoint(t *testing.T) {
	ex := &fakeExec{}
	r := history.NewRecorder(nil)
	caseID := int64(4)

	before := models.NewCase("Org", "")
	after := before.Clone()
	after.Sector = "Health"

	wrote := r.Updated(context.Background(), ex, history.Event{CaseID: &caseID, ContentType: models.ContentTypeCase, ObjectID: 4}, before, after)
	require.True(t, wrote)
	require.Len(t, ex.calls, 3)
	assert.Equal(t, "SAVEPOINT event_history", ex.calls[0].query)
	assert.Contains(t, ex.calls[1].query, "INSERT INTO event_history")
	assert.Equal(t, "RELEASE event_history", ex.calls[2].query)
	assert.Equal(t, string(models.EventUpdate), ex.calls[1].args[3])
}

func TestRecorder_NoChangeNoRow(t *testing.T) {
	ex := &fakeExec{}
	c := models.NewCase("Org", "")
	assert.False(t, history.NewRecorder(nil).Updated(context.Background(), ex, history.Event{}, c, c.Clone()))
	assert.Empty(t, ex.calls)
}

func TestRecorder_FailureLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ex := &fakeExec{failOn: "INSERT"}

	history.NewRecorder(logger).Created(context.Background(), ex, history.Event{ContentType: models.ContentTypeContact, ObjectID: 12}, &models.Contact{Name: "Pat"})

	require.Len(t, ex.calls, 4)
	assert.Equal(t, "ROLLBACK TO event_history", ex.calls[2].query)
	assert.Equal(t, "RELEASE event_history", ex.calls[3].query)
	assert.Contains(t, buf.String(), "event history write failed")
	assert.Contains(t, buf.String(), `"object_id":12`)
}

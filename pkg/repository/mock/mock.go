// Package mock provides in-memory read-side repositories for tests of the
// overdue surfacer and the task list.
package mock

import (
	"context"
	"slices"

	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// Store holds rows in slices. Errors set on it are returned by every call.
type Store struct {
	Cases          []*models.Case
	Tasks          []models.Task
	Correspondence []models.EqualityBodyCorrespondence
	Retests        []models.Retest
	Err            error
}

func New() *Store {
	return &Store{}
}

func (m *Store) AddCase(c *models.Case) *models.Case {
	if c.ID == 0 {
		c.ID = int64(len(m.Cases) + 1)
		c.CaseNumber = c.ID
	}
	m.Cases = append(m.Cases, c)
	return c
}

func (m *Store) AddTask(t models.Task) models.Task {
	if t.ID == 0 {
		t.ID = int64(len(m.Tasks) + 1)
	}
	m.Tasks = append(m.Tasks, t)
	return t
}

func (m *Store) ListCases(ctx context.Context, f repository.CaseFilter) ([]*models.Case, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.Case
	for _, c := range m.Cases {
		if f.AuditorID != nil && (c.AuditorID == nil || *c.AuditorID != *f.AuditorID) {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, c.Status) {
			continue
		}
		if c.IsDeactivated && !f.IncludeDeactivated {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *Store) SnoozedCaseIDs(ctx context.Context, today models.Date) (map[int64]bool, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := map[int64]bool{}
	for _, t := range m.Tasks {
		if t.Type == models.TaskReminder && !t.Read && t.Date.After(today) {
			out[t.CaseID] = true
		}
	}
	return out, nil
}

func (m *Store) ListTasks(ctx context.Context, userID int64, includeRead bool) ([]models.Task, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Task
	for _, t := range m.Tasks {
		if t.UserID == userID && (includeRead || !t.Read) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			t := m.Tasks[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (m *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Tasks {
		if m.Tasks[i].ID == t.ID {
			m.Tasks[i] = *t
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *Store) ListUnresolvedCorrespondence(ctx context.Context, caseIDs []int64) ([]models.EqualityBodyCorrespondence, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.EqualityBodyCorrespondence
	for _, c := range m.Correspondence {
		if c.Status == models.CorrespondenceUnresolved && !c.IsDeleted && slices.Contains(caseIDs, c.CaseID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Store) ListIncompleteRetests(ctx context.Context, caseIDs []int64) ([]models.Retest, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Retest
	for _, r := range m.Retests {
		if r.RetestComplianceState == models.RetestNotKnown && !r.IsDeleted && slices.Contains(caseIDs, r.CaseID) {
			out = append(out, r)
		}
	}
	return out, nil
}

package cases

import (
	"context"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/garnizeh/a11ymon/internal/overdue"
	"github.com/garnizeh/a11ymon/internal/tasks"
	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// Queues reads the overdue list and the task list against the store.
type Queues struct {
	svc      *Service
	surfacer *overdue.Surfacer
	builder  *tasks.Builder
}

func (s *Service) Queues(surfacer *overdue.Surfacer, link overdue.LinkFunc) *Queues {
	return &Queues{svc: s, surfacer: surfacer, builder: tasks.NewBuilder(surfacer, link)}
}

// Overdue lists overdue tasks for userID, or for every case when userID is nil.
func (q *Queues) Overdue(ctx context.Context, userID *int64) ([]overdue.Task, error) {
	today := q.svc.clock.Today()
	var err error
	var seq iter.Seq[overdue.Task]
	if userID != nil {
		seq, err = q.surfacer.ForUser(ctx, q.svc.store, *userID, today)
	} else {
		seq, err = q.surfacer.All(ctx, q.svc.store, today)
	}
	if err != nil {
		return nil, err
	}
	out := slices.Collect(seq)
	if out == nil {
		out = []overdue.Task{}
	}
	return out, nil
}

func (q *Queues) Tasks(ctx context.Context, userID int64, includeRead bool) ([]tasks.Item, error) {
	items, err := q.builder.List(ctx, q.svc.store, userID, q.svc.clock.Today(), includeRead)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []tasks.Item{}
	}
	return items, nil
}

func (q *Queues) MarkTaskRead(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	return tasks.MarkRead(ctx, q.svc.store, userID, taskID)
}

func (s *Service) GetSettings(ctx context.Context) (*models.PlatformSettings, error) {
	return s.store.GetSettings(ctx)
}

// UpdateSettings sets the active QA auditor. A nil id clears it.
func (s *Service) UpdateSettings(ctx context.Context, activeQAAuditorID *int64) (*models.PlatformSettings, error) {
	settings := &models.PlatformSettings{ActiveQAAuditorID: activeQAAuditorID}
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		if activeQAAuditorID != nil {
			u, err := r.GetUser(ctx, *activeQAAuditorID)
			if err != nil {
				return err
			}
			if u == nil {
				return &models.ValidationError{Message: "unknown user", Fields: []string{"active_qa_auditor_id"}}
			}
		}
		return r.UpdateSettings(ctx, settings)
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// QAQueue is the reports waiting for QA and who is reviewing them.
type QAQueue struct {
	ActiveQAAuditor *models.User   `json:"active_qa_auditor"`
	Cases           []*models.Case `json:"cases"`
}

// QAQueue reads the platform settings at request time.
func (s *Service) QAQueue(ctx context.Context) (*QAQueue, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := &QAQueue{Cases: []*models.Case{}}
	if settings.ActiveQAAuditorID != nil {
		u, err := s.store.GetUser(ctx, *settings.ActiveQAAuditorID)
		if err != nil {
			return nil, err
		}
		out.ActiveQAAuditor = u
	}
	cases, err := s.store.ListCases(ctx, repository.CaseFilter{Statuses: []models.Status{models.StatusReadyToQA}})
	if err != nil {
		return nil, err
	}
	if cases != nil {
		out.Cases = cases
	}
	return out, nil
}

// ExportReadiness returns the required export columns the case is missing.
func (s *Service) ExportReadiness(ctx context.Context, id int64) ([]string, error) {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	missing := s.gate.Missing(c)
	if missing == nil {
		missing = []string{}
	}
	return missing, nil
}

// ExportCSV writes the export columns of every case in the given statuses.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, statuses []models.Status) error {
	if len(statuses) == 0 {
		statuses = []models.Status{models.StatusCaseClosedWaitingToSend}
	}
	cases, err := s.store.ListCases(ctx, repository.CaseFilter{Statuses: statuses})
	if err != nil {
		return fmt.Errorf("list cases: %w", err)
	}
	return s.gate.WriteCSV(w, cases)
}

// ExportColumns lists the export column names in schedule order.
func (s *Service) ExportColumns() []string {
	cols := s.gate.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

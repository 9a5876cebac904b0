package cases

import (
	"context"
	"strings"

	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// SetReminder schedules the case's reminder for userID, replacing the date
// and description of an unread reminder already set on the case.
func (s *Service) SetReminder(ctx context.Context, caseID, userID int64, date models.Date, description string) (*models.Task, error) {
	if date.IsZero() {
		return nil, &models.ValidationError{Message: "reminder date is required", Fields: []string{"date"}}
	}
	if strings.TrimSpace(description) == "" {
		return nil, &models.ValidationError{Message: "reminder description is required", Fields: []string{"description"}}
	}
	var out *models.Task
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		if err := requireCase(ctx, r, caseID); err != nil {
			return err
		}
		existing, err := r.UnreadReminder(ctx, caseID)
		if err != nil {
			return err
		}
		if existing != nil && existing.UserID == userID {
			existing.Date = date
			existing.Description = description
			if err := r.UpdateTask(ctx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		}
		if existing != nil {
			// another user's reminder is superseded
			existing.Read = true
			if err := r.UpdateTask(ctx, existing); err != nil {
				return err
			}
		}
		t := &models.Task{Type: models.TaskReminder, Date: date, CaseID: caseID, UserID: userID, Description: description}
		if _, err := r.CreateTask(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetReminder returns the case's unread reminder, or models.ErrNotFound.
func (s *Service) GetReminder(ctx context.Context, caseID int64) (*models.Task, error) {
	t, err := s.store.UnreadReminder(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, models.ErrNotFound
	}
	return t, nil
}

// ClearReminder marks the case's unread reminder read.
func (s *Service) ClearReminder(ctx context.Context, caseID int64) error {
	return s.store.InTx(ctx, func(r repository.Repos) error {
		t, err := r.UnreadReminder(ctx, caseID)
		if err != nil {
			return err
		}
		if t == nil {
			return models.ErrNotFound
		}
		t.Read = true
		return r.UpdateTask(ctx, t)
	})
}

// Package cases is the write path of the case aggregate. Every update runs
// in one transaction: the caller's edit, the derived follow-up dates, the
// export readiness gate, the cached statuses and the notifications the edit
// triggers either all commit or none do.
package cases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/garnizeh/a11ymon/internal/clock"
	"github.com/garnizeh/a11ymon/internal/export"
	"github.com/garnizeh/a11ymon/internal/schedule"
	"github.com/garnizeh/a11ymon/internal/status"
	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

type Service struct {
	store     repository.Store
	scheduler *schedule.Scheduler
	gate      *export.Gate
	clock     clock.Clock
	logger    *slog.Logger
	grace     int
}

func New(store repository.Store, scheduler *schedule.Scheduler, gate *export.Gate, clk clock.Clock, logger *slog.Logger) *Service {
	if scheduler == nil {
		scheduler = schedule.New(schedule.DefaultOffsets())
	}
	if gate == nil {
		gate = export.NewGate(nil)
	}
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, scheduler: scheduler, gate: gate, clock: clk, logger: logger, grace: 7}
}

// WithOverdueGrace sets the days a sent chaser waits before the next action
// on it falls due. It should match the grace the overdue surfacer uses.
func (s *Service) WithOverdueGrace(days int) *Service {
	if days > 0 {
		s.grace = days
	}
	return s
}

func (s *Service) Today() models.Date { return s.clock.Today() }

// CreateCase persists a new case with its derived fields and compliance.
func (s *Service) CreateCase(ctx context.Context, c *models.Case) (*models.Case, error) {
	if c == nil {
		return nil, fmt.Errorf("case is nil")
	}
	if strings.TrimSpace(c.OrganisationName) == "" {
		return nil, &models.ValidationError{Message: "organisation name is required", Fields: []string{"organisation_name"}}
	}
	if c.Compliance == nil {
		c.Compliance = models.NewCompliance()
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	c.Domain = Domain(c.HomePageURL)
	c.CompletedDate = nil
	s.scheduler.Apply(nil, c)
	if c.CaseCompleted != models.CaseCompletedNoDecision {
		if c.CaseCompleted == models.CaseCompletedCompleteSend {
			if err := s.gate.Check(c); err != nil {
				return nil, err
			}
		}
		c.CompletedDate = s.clock.Today().Ptr()
	}
	status.Apply(c)

	if _, err := s.store.CreateCase(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	s.logger.Info("case created", "case_id", c.ID, "case_number", c.CaseNumber, "status", c.Status)
	return c, nil
}

// GetCase returns models.ErrNotFound for an unknown id.
func (s *Service) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (s *Service) ListCases(ctx context.Context, f repository.CaseFilter) ([]*models.Case, error) {
	return s.store.ListCases(ctx, f)
}

// UpdateCase applies mutate to the case observed at version and saves it. A
// version that is no longer current fails with models.ErrStaleWrite; a
// close-send the readiness gate rejects fails with the export blocked
// validation error. Either way nothing is saved.
func (s *Service) UpdateCase(ctx context.Context, id, version int64, mutate func(*models.Case) error) (*models.Case, error) {
	var out *models.Case
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		before, err := r.GetCase(ctx, id)
		if err != nil {
			return err
		}
		if before == nil {
			return models.ErrNotFound
		}
		if before.Version != version {
			return models.ErrStaleWrite
		}

		after := before.Clone()
		if err := mutate(after); err != nil {
			return err
		}
		if err := s.derive(before, after); err != nil {
			return err
		}
		if err := r.UpdateCase(ctx, after); err != nil {
			return err
		}
		if err := s.notify(ctx, r, before, after); err != nil {
			return err
		}
		out = after
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrStaleWrite):
			s.logger.Info("stale case update", "case_id", id, "version", version)
		case models.IsExportBlocked(err):
			s.logger.Warn("close-send blocked", "case_id", id, "error", err.Error())
		}
		return nil, err
	}
	return out, nil
}

// derive protects identity and derived fields from the edit, then recomputes
// them from after.
func (s *Service) derive(before, after *models.Case) error {
	after.ID = before.ID
	after.CaseNumber = before.CaseNumber
	after.Version = before.Version
	after.CreatedBy = before.CreatedBy
	after.Created = before.Created
	after.CompletedDate = before.CompletedDate
	if after.Compliance == nil {
		after.Compliance = before.Compliance
	}
	after.Compliance.ID, after.Compliance.CaseID = before.Compliance.ID, before.Compliance.CaseID
	if err := validate(after); err != nil {
		return err
	}

	if after.HomePageURL != before.HomePageURL {
		after.Domain = Domain(after.HomePageURL)
	}

	s.scheduler.Apply(before, after)
	if filled := s.scheduler.Fill(after); len(filled) > 0 {
		s.logger.Debug("due dates derived again", "case_id", after.ID, "fields", filled)
	}

	if after.CaseCompleted == models.CaseCompletedCompleteSend && before.CaseCompleted != models.CaseCompletedCompleteSend {
		if err := s.gate.Check(after); err != nil {
			return err
		}
	}
	if after.CompletedDate == nil && after.CaseCompleted != models.CaseCompletedNoDecision {
		after.CompletedDate = s.clock.Today().Ptr()
	}

	status.Apply(after)
	return nil
}

// validate rejects choice fields outside their enumerations.
func validate(c *models.Case) error {
	var bad []string
	check := func(ok bool, field string) {
		if !ok {
			bad = append(bad, field)
		}
	}
	check(c.EnforcementBody.Valid(), "enforcement_body")
	check(c.PSBLocation.Valid(), "psb_location")
	check(c.ReportReviewStatus.Valid(), "report_review_status")
	check(c.ReportApprovedStatus.Valid(), "report_approved_status")
	check(c.OrganisationResponse.Valid(), "organisation_response")
	check(c.IsReadyForFinalDecision.Valid(), "is_ready_for_final_decision")
	check(c.CaseCompleted.Valid(), "case_completed")
	check(c.EnforcementBodyPursuing.Valid(), "enforcement_body_pursuing")
	check(c.EnforcementBodyClosedCase.Valid(), "enforcement_body_closed_case")
	check(c.NoPSBContact.Valid(), "no_psb_contact")
	cp := c.Compliance
	check(cp.WebsiteComplianceStateInitial.Valid(), "compliance.website_compliance_state_initial")
	check(cp.StatementComplianceStateInitial.Valid(), "compliance.statement_compliance_state_initial")
	check(cp.WebsiteComplianceState12Week.Valid(), "compliance.website_compliance_state_12_week")
	check(cp.StatementComplianceState12Week.Valid(), "compliance.statement_compliance_state_12_week")
	if len(bad) > 0 {
		return &models.ValidationError{Message: "invalid choice", Fields: bad}
	}
	return nil
}

// notify writes the tasks an update triggers.
func (s *Service) notify(ctx context.Context, r repository.Repos, before, after *models.Case) error {
	if after.ReportApprovedStatus != models.ReportApproved || before.ReportApprovedStatus == models.ReportApproved || after.AuditorID == nil {
		return nil
	}
	t := &models.Task{
		Type:        models.TaskReportApproved,
		Date:        s.clock.Today(),
		CaseID:      after.ID,
		UserID:      *after.AuditorID,
		Description: fmt.Sprintf("Report for case #%d approved and ready to send", after.CaseNumber),
	}
	if _, err := r.CreateTask(ctx, t); err != nil {
		return fmt.Errorf("report approved task: %w", err)
	}
	return nil
}

// UpdateCompliance replaces the compliance decisions of the case.
func (s *Service) UpdateCompliance(ctx context.Context, id, version int64, cp models.Compliance) (*models.Case, error) {
	return s.UpdateCase(ctx, id, version, func(c *models.Case) error {
		next := cp
		c.Compliance = &next
		return nil
	})
}

// NextAction is the next time-based action on a case.
type NextAction struct {
	Status  models.Status `json:"status"`
	Action  string        `json:"action"`
	DueDate *models.Date  `json:"due_date"`
}

func (s *Service) NextAction(ctx context.Context, id int64) (*NextAction, error) {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	return &NextAction{Status: status.Derive(c), Action: status.NextAction(c), DueDate: status.NextActionDueDate(c, s.grace)}, nil
}

// History returns the case's event history oldest first.
func (s *Service) History(ctx context.Context, id int64) ([]models.EventHistory, error) {
	if _, err := s.GetCase(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if strings.TrimSpace(u.DisplayName) == "" || strings.TrimSpace(u.Email) == "" {
		return nil, &models.ValidationError{Message: "display name and email are required", Fields: []string{"display_name", "email"}}
	}
	if _, err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

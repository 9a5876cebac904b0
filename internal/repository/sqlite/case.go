package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// caseMutable lists the columns an update rewrites, in caseValues order.
var caseMutable = []string{
	"organisation_name", "home_page_url", "domain", "sector", "enforcement_body", "psb_location",
	"auditor_id", "reviewer_id", "audit_id", "report_id",
	"report_review_status", "report_approved_status",
	"report_sent_date", "report_acknowledged_date",
	"followup_week_1_due", "followup_week_1_sent", "followup_week_4_due", "followup_week_4_sent", "followup_week_12_due",
	"enable_correspondence_process", "seven_day_no_contact_email_sent_date",
	"one_week_chaser_due", "one_week_chaser_sent", "four_week_chaser_due", "four_week_chaser_sent",
	"twelve_week_update_requested_date", "twelve_week_1_week_chaser_due", "twelve_week_1_week_chaser_sent",
	"twelve_week_correspondence_acknowledged_date", "organisation_response",
	"is_ready_for_final_decision", "case_completed",
	"sent_to_enforcement_body_sent_date", "enforcement_body_pursuing", "enforcement_body_closed_case",
	"is_deactivated", "no_psb_contact", "status", "qa_status", "completed_date",
}

var (
	caseSelect = `SELECT id, case_number, ` + strings.Join(caseMutable, ", ") + `, version, created_by, created, updated FROM cases`
	caseInsert = `INSERT INTO cases (case_number, ` + strings.Join(caseMutable, ", ") + `, version, created_by, created, updated) VALUES (?, ` +
		strings.Repeat("?, ", len(caseMutable)) + `?, ?, ?, ?)`
	caseUpdate = `UPDATE cases SET ` + strings.Join(caseMutable, " = ?, ") + ` = ?, version = version + 1, updated = ? WHERE id = ? AND version = ?`
)

func caseValues(c *models.Case) []any {
	return []any{
		c.OrganisationName, c.HomePageURL, c.Domain, c.Sector, c.EnforcementBody, c.PSBLocation,
		c.AuditorID, c.ReviewerID, c.AuditID, c.ReportID,
		c.ReportReviewStatus, c.ReportApprovedStatus,
		c.ReportSentDate, c.ReportAcknowledgedDate,
		c.FollowupWeek1Due, c.FollowupWeek1Sent, c.FollowupWeek4Due, c.FollowupWeek4Sent, c.FollowupWeek12Due,
		c.EnableCorrespondenceProcess, c.SevenDayNoContactEmailSentDate,
		c.OneWeekChaserDue, c.OneWeekChaserSent, c.FourWeekChaserDue, c.FourWeekChaserSent,
		c.TwelveWeekUpdateRequestedDate, c.TwelveWeek1WeekChaserDue, c.TwelveWeek1WeekChaserSent,
		c.TwelveWeekCorrespondenceAcknowledgedDate, c.OrganisationResponse,
		c.IsReadyForFinalDecision, c.CaseCompleted,
		c.SentToEnforcementBodySentDate, c.EnforcementBodyPursuing, c.EnforcementBodyClosedCase,
		c.IsDeactivated, c.NoPSBContact, c.Status, c.QAStatus, c.CompletedDate,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(s rowScanner) (*models.Case, error) {
	var c models.Case
	var created, updated int64
	err := s.Scan(&c.ID, &c.CaseNumber,
		&c.OrganisationName, &c.HomePageURL, &c.Domain, &c.Sector, &c.EnforcementBody, &c.PSBLocation,
		&c.AuditorID, &c.ReviewerID, &c.AuditID, &c.ReportID,
		&c.ReportReviewStatus, &c.ReportApprovedStatus,
		&c.ReportSentDate, &c.ReportAcknowledgedDate,
		&c.FollowupWeek1Due, &c.FollowupWeek1Sent, &c.FollowupWeek4Due, &c.FollowupWeek4Sent, &c.FollowupWeek12Due,
		&c.EnableCorrespondenceProcess, &c.SevenDayNoContactEmailSentDate,
		&c.OneWeekChaserDue, &c.OneWeekChaserSent, &c.FourWeekChaserDue, &c.FourWeekChaserSent,
		&c.TwelveWeekUpdateRequestedDate, &c.TwelveWeek1WeekChaserDue, &c.TwelveWeek1WeekChaserSent,
		&c.TwelveWeekCorrespondenceAcknowledgedDate, &c.OrganisationResponse,
		&c.IsReadyForFinalDecision, &c.CaseCompleted,
		&c.SentToEnforcementBodySentDate, &c.EnforcementBodyPursuing, &c.EnforcementBodyClosedCase,
		&c.IsDeactivated, &c.NoPSBContact, &c.Status, &c.QAStatus, &c.CompletedDate,
		&c.Version, &c.CreatedBy, &created, &updated)
	if err != nil {
		return nil, err
	}
	c.Created = fromMillis(created)
	c.Updated = fromMillis(updated)
	return &c, nil
}

const complianceColumns = `website_compliance_state_initial, website_compliance_notes_initial, statement_compliance_state_initial, statement_compliance_notes_initial, website_compliance_state_12_week, website_compliance_notes_12_week, statement_compliance_state_12_week, statement_compliance_notes_12_week`

func complianceValues(cp *models.Compliance) []any {
	return []any{
		cp.WebsiteComplianceStateInitial, cp.WebsiteComplianceNotesInitial,
		cp.StatementComplianceStateInitial, cp.StatementComplianceNotesInitial,
		cp.WebsiteComplianceState12Week, cp.WebsiteComplianceNotes12Week,
		cp.StatementComplianceState12Week, cp.StatementComplianceNotes12Week,
	}
}

func scanCompliance(s rowScanner) (*models.Compliance, error) {
	var cp models.Compliance
	err := s.Scan(&cp.ID, &cp.CaseID,
		&cp.WebsiteComplianceStateInitial, &cp.WebsiteComplianceNotesInitial,
		&cp.StatementComplianceStateInitial, &cp.StatementComplianceNotesInitial,
		&cp.WebsiteComplianceState12Week, &cp.WebsiteComplianceNotes12Week,
		&cp.StatementComplianceState12Week, &cp.StatementComplianceNotes12Week)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// CreateCase inserts c with the next case number and its compliance row.
func (r *SQLiteRepo) CreateCase(ctx context.Context, c *models.Case) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("case is nil")
	}
	if c.Compliance == nil {
		c.Compliance = models.NewCompliance()
	}
	if c.CreatedBy == nil {
		if actor, ok := repository.ActorFrom(ctx); ok {
			c.CreatedBy = &actor
		}
	}

	err := r.withTx(ctx, func(q querier) error {
		var number int64
		row := q.QueryRowContext(ctx, `INSERT INTO sequences (name, value) VALUES ('case_number', 1) ON CONFLICT(name) DO UPDATE SET value = value + 1 RETURNING value`)
		if err := row.Scan(&number); err != nil {
			return fmt.Errorf("next case number: %w", err)
		}

		ms, ts := r.millis()
		args := append([]any{number}, caseValues(c)...)
		args = append(args, int64(1), c.CreatedBy, ms, ms)
		res, err := q.ExecContext(ctx, caseInsert, args...)
		if err != nil {
			return fmt.Errorf("insert case: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		cpRes, err := q.ExecContext(ctx, `INSERT INTO compliances (case_id, `+complianceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append([]any{id}, complianceValues(c.Compliance)...)...)
		if err != nil {
			return fmt.Errorf("insert compliance: %w", err)
		}
		cpID, err := cpRes.LastInsertId()
		if err != nil {
			return err
		}

		c.ID, c.CaseNumber, c.Version = id, number, 1
		c.Created, c.Updated = ts, ts
		c.Compliance.ID, c.Compliance.CaseID = cpID, id

		r.recorder.Created(ctx, q, r.event(ctx, &id, models.ContentTypeCase, id), c)
		r.recorder.Created(ctx, q, r.event(ctx, &id, models.ContentTypeCompliance, cpID), c.Compliance)
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.Debug("case created", "case_id", c.ID, "case_number", c.CaseNumber)
	return c.ID, nil
}

// GetCase returns nil, nil when the case does not exist.
func (r *SQLiteRepo) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	return r.getCase(ctx, r.q(), id)
}

func (r *SQLiteRepo) getCase(ctx context.Context, q querier, id int64) (*models.Case, error) {
	c, err := scanCase(q.QueryRowContext(ctx, caseSelect+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	cp, err := scanCompliance(q.QueryRowContext(ctx, `SELECT id, case_id, `+complianceColumns+` FROM compliances WHERE case_id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.InvariantError{Invariant: "case has compliance", Detail: fmt.Sprintf("case %d has no compliance row", id)}
		}
		return nil, err
	}
	c.Compliance = cp
	return c, nil
}

// UpdateCase writes c and its compliance when c.Version is the stored
// version, then bumps c.Version.
func (r *SQLiteRepo) UpdateCase(ctx context.Context, c *models.Case) error {
	if c == nil {
		return fmt.Errorf("case is nil")
	}

	var ts = c.Updated
	err := r.withTx(ctx, func(q querier) error {
		before, err := r.getCase(ctx, q, c.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return models.ErrNotFound
		}
		if before.Version != c.Version {
			return models.ErrStaleWrite
		}

		var ms int64
		ms, ts = r.millis()
		args := append(caseValues(c), ms, c.ID, c.Version)
		res, err := q.ExecContext(ctx, caseUpdate, args...)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrStaleWrite
		}

		if c.Compliance != nil {
			if _, err := q.ExecContext(ctx, `UPDATE compliances SET `+strings.ReplaceAll(complianceColumns, ",", " = ?,")+` = ? WHERE case_id = ?`,
				append(complianceValues(c.Compliance), c.ID)...); err != nil {
				return fmt.Errorf("update compliance: %w", err)
			}
			c.Compliance.ID, c.Compliance.CaseID = before.Compliance.ID, c.ID
		}

		r.recorder.Updated(ctx, q, r.event(ctx, &c.ID, models.ContentTypeCase, c.ID), before, c)
		if c.Compliance != nil {
			r.recorder.Updated(ctx, q, r.event(ctx, &c.ID, models.ContentTypeCompliance, before.Compliance.ID), before.Compliance, c.Compliance)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrStaleWrite) {
			r.logger.Info("stale case write rejected", "case_id", c.ID, "version", c.Version)
		}
		return err
	}
	c.Version++
	c.Updated = ts
	return nil
}

// ListCases returns matching cases with their compliance, ordered by id.
func (r *SQLiteRepo) ListCases(ctx context.Context, f repository.CaseFilter) ([]*models.Case, error) {
	var where []string
	var args []any
	if f.AuditorID != nil {
		where = append(where, "auditor_id = ?")
		args = append(args, *f.AuditorID)
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			marks[i] = "?"
			args = append(args, s)
		}
		where = append(where, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if !f.IncludeDeactivated {
		where = append(where, "is_deactivated = 0")
	}
	query := caseSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	q := r.q()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	ids := make([]int64, len(out))
	for i, c := range out {
		ids[i] = c.ID
	}
	byCase, err := r.compliancesFor(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range out {
		cp, ok := byCase[c.ID]
		if !ok {
			return nil, &models.InvariantError{Invariant: "case has compliance", Detail: fmt.Sprintf("case %d has no compliance row", c.ID)}
		}
		c.Compliance = cp
	}
	return out, nil
}

func (r *SQLiteRepo) compliancesFor(ctx context.Context, q querier, caseIDs []int64) (map[int64]*models.Compliance, error) {
	marks, args := inArgs(caseIDs)
	rows, err := q.QueryContext(ctx, `SELECT id, case_id, `+complianceColumns+` FROM compliances WHERE case_id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]*models.Compliance, len(caseIDs))
	for rows.Next() {
		cp, err := scanCompliance(rows)
		if err != nil {
			return nil, err
		}
		out[cp.CaseID] = cp
	}
	return out, rows.Err()
}

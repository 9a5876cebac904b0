package models

import "time"

// Domain models matching the database schema in db/migrations.

// User is an auditor, reviewer or other staff member. The core stores
// references to users and compares them by id.
type User struct {
	ID          int64  `json:"id" db:"id"`
	DisplayName string `json:"display_name" db:"display_name"`
	Email       string `json:"email" db:"email"`
}

// Case is one audit engagement against one public sector body website.
type Case struct {
	ID         int64 `json:"id" db:"id"`
	CaseNumber int64 `json:"case_number" db:"case_number"`

	OrganisationName string          `json:"organisation_name" db:"organisation_name"`
	HomePageURL      string          `json:"home_page_url" db:"home_page_url"`
	Domain           string          `json:"domain" db:"domain"`
	Sector           string          `json:"sector" db:"sector"`
	EnforcementBody  EnforcementBody `json:"enforcement_body" db:"enforcement_body"`
	PSBLocation      PSBLocation     `json:"psb_location" db:"psb_location"`

	AuditorID  *int64 `json:"auditor_id" db:"auditor_id"`
	ReviewerID *int64 `json:"reviewer_id" db:"reviewer_id"`
	AuditID    *int64 `json:"audit_id" db:"audit_id"`
	ReportID   *int64 `json:"report_id" db:"report_id"`

	ReportReviewStatus   YesNo                `json:"report_review_status" db:"report_review_status"`
	ReportApprovedStatus ReportApprovedStatus `json:"report_approved_status" db:"report_approved_status"`

	ReportSentDate         *Date `json:"report_sent_date" db:"report_sent_date"`
	ReportAcknowledgedDate *Date `json:"report_acknowledged_date" db:"report_acknowledged_date"`
	FollowupWeek1Due       *Date `json:"followup_week_1_due" db:"followup_week_1_due"`
	FollowupWeek1Sent      *Date `json:"followup_week_1_sent" db:"followup_week_1_sent"`
	FollowupWeek4Due       *Date `json:"followup_week_4_due" db:"followup_week_4_due"`
	FollowupWeek4Sent      *Date `json:"followup_week_4_sent" db:"followup_week_4_sent"`
	FollowupWeek12Due      *Date `json:"followup_week_12_due" db:"followup_week_12_due"`

	EnableCorrespondenceProcess    bool  `json:"enable_correspondence_process" db:"enable_correspondence_process"`
	SevenDayNoContactEmailSentDate *Date `json:"seven_day_no_contact_email_sent_date" db:"seven_day_no_contact_email_sent_date"`
	OneWeekChaserDue               *Date `json:"one_week_chaser_due" db:"one_week_chaser_due"`
	OneWeekChaserSent              *Date `json:"one_week_chaser_sent" db:"one_week_chaser_sent"`
	FourWeekChaserDue              *Date `json:"four_week_chaser_due" db:"four_week_chaser_due"`
	FourWeekChaserSent             *Date `json:"four_week_chaser_sent" db:"four_week_chaser_sent"`

	TwelveWeekUpdateRequestedDate            *Date                `json:"twelve_week_update_requested_date" db:"twelve_week_update_requested_date"`
	TwelveWeek1WeekChaserDue                 *Date                `json:"twelve_week_1_week_chaser_due" db:"twelve_week_1_week_chaser_due"`
	TwelveWeek1WeekChaserSent                *Date                `json:"twelve_week_1_week_chaser_sent" db:"twelve_week_1_week_chaser_sent"`
	TwelveWeekCorrespondenceAcknowledgedDate *Date                `json:"twelve_week_correspondence_acknowledged_date" db:"twelve_week_correspondence_acknowledged_date"`
	OrganisationResponse                     OrganisationResponse `json:"organisation_response" db:"organisation_response"`

	IsReadyForFinalDecision YesNo         `json:"is_ready_for_final_decision" db:"is_ready_for_final_decision"`
	CaseCompleted           CaseCompleted `json:"case_completed" db:"case_completed"`

	SentToEnforcementBodySentDate *Date                     `json:"sent_to_enforcement_body_sent_date" db:"sent_to_enforcement_body_sent_date"`
	EnforcementBodyPursuing       EnforcementBodyPursuing   `json:"enforcement_body_pursuing" db:"enforcement_body_pursuing"`
	EnforcementBodyClosedCase     EnforcementBodyClosedCase `json:"enforcement_body_closed_case" db:"enforcement_body_closed_case"`

	IsDeactivated bool  `json:"is_deactivated" db:"is_deactivated"`
	NoPSBContact  YesNo `json:"no_psb_contact" db:"no_psb_contact"`

	// Derived and cached on every write.
	Status        Status   `json:"status" db:"status"`
	QAStatus      QAStatus `json:"qa_status" db:"qa_status"`
	CompletedDate *Date    `json:"completed_date" db:"completed_date"`

	Version   int64     `json:"version" db:"version" history:"-"`
	CreatedBy *int64    `json:"created_by" db:"created_by"`
	Created   time.Time `json:"created" db:"created" history:"-"`
	Updated   time.Time `json:"updated" db:"updated" history:"-"`

	Compliance *Compliance `json:"compliance,omitempty" db:"-"`
}

// NewCase returns a case with every choice field at its default.
func NewCase(organisationName, homePageURL string) *Case {
	return &Case{
		OrganisationName:          organisationName,
		HomePageURL:               homePageURL,
		EnforcementBody:           EnforcementBodyEHRC,
		PSBLocation:               PSBLocationUnknown,
		ReportReviewStatus:        No,
		ReportApprovedStatus:      ReportApprovedNotStarted,
		OrganisationResponse:      OrganisationResponseNotApplicable,
		IsReadyForFinalDecision:   No,
		CaseCompleted:             CaseCompletedNoDecision,
		EnforcementBodyPursuing:   EnforcementBodyPursuingNo,
		EnforcementBodyClosedCase: EnforcementBodyClosedNo,
		NoPSBContact:              No,
		Compliance:                NewCompliance(),
	}
}

// Clone returns a deep copy of the case and its compliance.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	if c.Compliance != nil {
		cp := *c.Compliance
		out.Compliance = &cp
	}
	return &out
}

// Compliance holds the website and statement decisions for both test phases.
type Compliance struct {
	ID     int64 `json:"id" db:"id"`
	CaseID int64 `json:"case_id" db:"case_id"`

	WebsiteComplianceStateInitial   WebsiteCompliance   `json:"website_compliance_state_initial" db:"website_compliance_state_initial"`
	WebsiteComplianceNotesInitial   string              `json:"website_compliance_notes_initial" db:"website_compliance_notes_initial"`
	StatementComplianceStateInitial StatementCompliance `json:"statement_compliance_state_initial" db:"statement_compliance_state_initial"`
	StatementComplianceNotesInitial string              `json:"statement_compliance_notes_initial" db:"statement_compliance_notes_initial"`

	WebsiteComplianceState12Week   WebsiteCompliance   `json:"website_compliance_state_12_week" db:"website_compliance_state_12_week"`
	WebsiteComplianceNotes12Week   string              `json:"website_compliance_notes_12_week" db:"website_compliance_notes_12_week"`
	StatementComplianceState12Week StatementCompliance `json:"statement_compliance_state_12_week" db:"statement_compliance_state_12_week"`
	StatementComplianceNotes12Week string              `json:"statement_compliance_notes_12_week" db:"statement_compliance_notes_12_week"`
}

// NewCompliance returns undecided compliance for both phases.
func NewCompliance() *Compliance {
	return &Compliance{
		WebsiteComplianceStateInitial:   WebsiteComplianceUnknown,
		StatementComplianceStateInitial: StatementComplianceUnknown,
		WebsiteComplianceState12Week:    WebsiteComplianceUnknown,
		StatementComplianceState12Week:  StatementComplianceUnknown,
	}
}

// Contact is a person at the public sector body.
type Contact struct {
	ID        int64     `json:"id" db:"id"`
	CaseID    int64     `json:"case_id" db:"case_id"`
	Name      string    `json:"name" db:"name"`
	JobTitle  string    `json:"job_title" db:"job_title"`
	Email     string    `json:"email" db:"email"`
	Preferred Preferred `json:"preferred" db:"preferred"`
	IsDeleted bool      `json:"is_deleted" db:"is_deleted"`
	Created   time.Time `json:"created" db:"created" history:"-"`
}

// EqualityBodyCorrespondence is a question or retest request from the equality body.
type EqualityBodyCorrespondence struct {
	ID           int64                `json:"id" db:"id"`
	CaseID       int64                `json:"case_id" db:"case_id"`
	IDWithinCase int64                `json:"id_within_case" db:"id_within_case"`
	Type         CorrespondenceType   `json:"type" db:"type"`
	Status       CorrespondenceStatus `json:"status" db:"status"`
	Message      string               `json:"message" db:"message"`
	Notes        string               `json:"notes" db:"notes"`
	IsDeleted    bool                 `json:"is_deleted" db:"is_deleted"`
	Created      time.Time            `json:"created" db:"created" history:"-"`
}

// Retest is an equality body requested retest of the website.
type Retest struct {
	ID                    int64                 `json:"id" db:"id"`
	CaseID                int64                 `json:"case_id" db:"case_id"`
	IDWithinCase          int64                 `json:"id_within_case" db:"id_within_case"`
	DateOfRetest          *Date                 `json:"date_of_retest" db:"date_of_retest"`
	RetestComplianceState RetestComplianceState `json:"retest_compliance_state" db:"retest_compliance_state"`
	RetestNotes           string                `json:"retest_notes" db:"retest_notes"`
	IsDeleted             bool                  `json:"is_deleted" db:"is_deleted"`
	Created               time.Time             `json:"created" db:"created" history:"-"`
}

// Task is a persisted entry in a user's task list: QA comments, approved
// reports and reminders.
type Task struct {
	ID          int64     `json:"id" db:"id"`
	Type        TaskType  `json:"type" db:"type"`
	Date        Date      `json:"date" db:"date"`
	CaseID      int64     `json:"case_id" db:"case_id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Description string    `json:"description" db:"description"`
	Read        bool      `json:"read" db:"read"`
	Created     time.Time `json:"created" db:"created" history:"-"`
}

// EventHistory is an append-only record of one mutation of a tracked entity.
type EventHistory struct {
	ID          int64     `json:"id" db:"id"`
	CaseID      *int64    `json:"case_id" db:"case_id"`
	ContentType string    `json:"content_type" db:"content_type"`
	ObjectID    int64     `json:"object_id" db:"object_id"`
	EventType   EventType `json:"event_type" db:"event_type"`
	Difference  string    `json:"difference" db:"difference"`
	CreatedBy   *int64    `json:"created_by" db:"created_by"`
	Created     time.Time `json:"created" db:"created"`
}

// PlatformSettings is the single-row platform configuration.
type PlatformSettings struct {
	ActiveQAAuditorID *int64    `json:"active_qa_auditor_id" db:"active_qa_auditor_id"`
	Updated           time.Time `json:"updated" db:"updated"`
}

// Content types recorded in the event history.
const (
	ContentTypeCase           = "case"
	ContentTypeCompliance     = "compliance"
	ContentTypeContact        = "contact"
	ContentTypeCorrespondence = "equalitybodycorrespondence"
	ContentTypeRetest         = "retest"
	ContentTypeTask           = "task"
)

package repository

import (
	"context"

	"github.com/garnizeh/a11ymon/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Getters return (nil, nil) when the row does not exist. Every create and
// update of a tracked entity writes one event history row in the same
// transaction, attributed to the actor carried by the context (WithActor).

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// CaseFilter narrows ListCases. Zero value lists every active case.
type CaseFilter struct {
	AuditorID          *int64
	Statuses           []models.Status
	IncludeDeactivated bool
}

type CaseRepo interface {
	// CreateCase assigns ID, CaseNumber and Version and creates the
	// compliance row.
	CreateCase(ctx context.Context, c *models.Case) (int64, error)
	// GetCase loads the case together with its compliance.
	GetCase(ctx context.Context, id int64) (*models.Case, error)
	// UpdateCase writes c and its compliance if c.Version matches the stored
	// version, then increments c.Version. A mismatch returns
	// models.ErrStaleWrite; a missing row returns models.ErrNotFound.
	UpdateCase(ctx context.Context, c *models.Case) error
	ListCases(ctx context.Context, f CaseFilter) ([]*models.Case, error)
}

type ContactRepo interface {
	CreateContact(ctx context.Context, c *models.Contact) (int64, error)
	GetContact(ctx context.Context, caseID, id int64) (*models.Contact, error)
	UpdateContact(ctx context.Context, c *models.Contact) error
	ListContacts(ctx context.Context, caseID int64) ([]models.Contact, error)
}

type CorrespondenceRepo interface {
	// CreateCorrespondence assigns the next dense IDWithinCase.
	CreateCorrespondence(ctx context.Context, c *models.EqualityBodyCorrespondence) (int64, error)
	GetCorrespondence(ctx context.Context, caseID, id int64) (*models.EqualityBodyCorrespondence, error)
	UpdateCorrespondence(ctx context.Context, c *models.EqualityBodyCorrespondence) error
	ListCorrespondence(ctx context.Context, caseID int64) ([]models.EqualityBodyCorrespondence, error)
	ListUnresolvedCorrespondence(ctx context.Context, caseIDs []int64) ([]models.EqualityBodyCorrespondence, error)
}

type RetestRepo interface {
	// CreateRetest assigns the next dense IDWithinCase.
	CreateRetest(ctx context.Context, r *models.Retest) (int64, error)
	GetRetest(ctx context.Context, caseID, id int64) (*models.Retest, error)
	UpdateRetest(ctx context.Context, r *models.Retest) error
	ListRetests(ctx context.Context, caseID int64) ([]models.Retest, error)
	ListIncompleteRetests(ctx context.Context, caseIDs []int64) ([]models.Retest, error)
}

type TaskRepo interface {
	CreateTask(ctx context.Context, t *models.Task) (int64, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	ListTasks(ctx context.Context, userID int64, includeRead bool) ([]models.Task, error)
	// UnreadReminder returns the case's unread reminder, if any.
	UnreadReminder(ctx context.Context, caseID int64) (*models.Task, error)
	// SnoozedCaseIDs returns cases with an unread reminder dated after today.
	SnoozedCaseIDs(ctx context.Context, today models.Date) (map[int64]bool, error)
}

type EventRepo interface {
	ListEvents(ctx context.Context, caseID int64) ([]models.EventHistory, error)
}

type SettingsRepo interface {
	GetSettings(ctx context.Context) (*models.PlatformSettings, error)
	UpdateSettings(ctx context.Context, s *models.PlatformSettings) error
}

// Repos is the full set of repositories over one connection or transaction.
type Repos interface {
	UserRepo
	CaseRepo
	ContactRepo
	CorrespondenceRepo
	RetestRepo
	TaskRepo
	EventRepo
	SettingsRepo
}

// Store runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Store interface {
	Repos
	InTx(ctx context.Context, fn func(Repos) error) error
}

type actorKey struct{}

// WithActor attributes writes made with ctx to the given user.
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user attributed to writes made with ctx.
func ActorFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorKey{}).(int64)
	return id, ok
}

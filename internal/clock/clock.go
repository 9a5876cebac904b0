// Package clock supplies today's calendar date to the scheduler and the
// overdue surfacer.
package clock

import (
	"time"

	"github.com/garnizeh/a11ymon/pkg/models"
)

type Clock interface {
	Now() time.Time
	Today() models.Date
}

// System reads the wall clock. Today is taken in Location, or UTC when nil.
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time { return time.Now() }

func (s System) Today() models.Date {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(time.Now().In(loc))
}

// Fixed always reports the same date.
type Fixed models.Date

func (f Fixed) Now() time.Time { return models.Date(f).Time() }

func (f Fixed) Today() models.Date { return models.Date(f) }

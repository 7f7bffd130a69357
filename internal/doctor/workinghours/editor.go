// Package workinghours holds the create form's working-hours editor. The
// editor never lets two rows share a day.
package workinghours

import (
	"errors"
	"fmt"
	"slices"

	"medix/internal/doctor/models"
)

// MaxRows is one row per day of the week.
const MaxRows = 7

const (
	DefaultStart = "09:00"
	DefaultEnd   = "17:00"
)

var (
	ErrFull         = errors.New("working hours: every day is already listed")
	ErrDayTaken     = errors.New("working hours: day already used by another row")
	ErrInvalidDay   = errors.New("working hours: unknown day")
	ErrOutOfRange   = errors.New("working hours: row index out of range")
	ErrDuplicateDay = errors.New("working hours: initial rows repeat a day")
)

// Conflict is a row whose day is already held by an earlier row.
type Conflict struct {
	Row   int
	First int
	Day   models.Day
}

// DuplicateDayError lists every repeated day in a seed. It matches
// ErrDuplicateDay.
type DuplicateDayError struct {
	Conflicts []Conflict
}

func (e *DuplicateDayError) Error() string {
	c := e.Conflicts[0]
	return fmt.Sprintf("%s: %s in rows %d and %d", ErrDuplicateDay, c.Day, c.First+1, c.Row+1)
}

func (e *DuplicateDayError) Is(target error) bool {
	return target == ErrDuplicateDay
}

// Patch changes some fields of a row. Nil fields are kept.
type Patch struct {
	Day   *models.Day
	Start *string
	End   *string
}

// Editor is an ordered list of rows with unique days.
type Editor struct {
	rows []models.WorkingHour
}

// New returns an editor seeded with rows, which must not repeat a day. Every
// problem in the seed is reported: ErrInvalidDay once for any unknown day and
// a *DuplicateDayError naming each repeated row.
func New(rows []models.WorkingHour) (*Editor, error) {
	var (
		invalid   bool
		conflicts []Conflict
	)
	first := make(map[models.Day]int, len(rows))
	for i, r := range rows {
		if !r.Day.IsValid() {
			invalid = true
			continue
		}
		if at, dup := first[r.Day]; dup {
			conflicts = append(conflicts, Conflict{Row: i, First: at, Day: r.Day})
			continue
		}
		first[r.Day] = i
	}

	var errs []error
	if invalid {
		errs = append(errs, ErrInvalidDay)
	}
	if len(conflicts) > 0 {
		errs = append(errs, &DuplicateDayError{Conflicts: conflicts})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Editor{rows: slices.Clone(rows)}, nil
}

// Rows returns a copy of the current rows.
func (e *Editor) Rows() []models.WorkingHour {
	return slices.Clone(e.rows)
}

// UsedDays lists the days currently taken, in row order.
func (e *Editor) UsedDays() []models.Day {
	days := make([]models.Day, len(e.rows))
	for i, r := range e.rows {
		days[i] = r.Day
	}
	return days
}

// CanAdd reports whether another row fits.
func (e *Editor) CanAdd() bool {
	return len(e.rows) < MaxRows
}

// Add appends a row for the first unused day, MON first, with default hours.
func (e *Editor) Add() (models.WorkingHour, error) {
	if !e.CanAdd() {
		return models.WorkingHour{}, ErrFull
	}
	for _, d := range models.Days {
		if !e.used(d, -1) {
			row := models.WorkingHour{Day: d, Start: DefaultStart, End: DefaultEnd}
			e.rows = append(e.rows, row)
			return row, nil
		}
	}
	return models.WorkingHour{}, ErrFull
}

// Update applies p to row i. Moving a row onto a day held by another row fails
// and leaves the editor unchanged.
func (e *Editor) Update(i int, p Patch) error {
	if i < 0 || i >= len(e.rows) {
		return ErrOutOfRange
	}
	row := e.rows[i]
	if p.Day != nil {
		if !p.Day.IsValid() {
			return ErrInvalidDay
		}
		if e.used(*p.Day, i) {
			return ErrDayTaken
		}
		row.Day = *p.Day
	}
	if p.Start != nil {
		row.Start = *p.Start
	}
	if p.End != nil {
		row.End = *p.End
	}
	e.rows[i] = row
	return nil
}

// Remove deletes row i, freeing its day.
func (e *Editor) Remove(i int) error {
	if i < 0 || i >= len(e.rows) {
		return ErrOutOfRange
	}
	e.rows = slices.Delete(e.rows, i, i+1)
	return nil
}

func (e *Editor) used(d models.Day, except int) bool {
	for i, r := range e.rows {
		if i != except && r.Day == d {
			return true
		}
	}
	return false
}

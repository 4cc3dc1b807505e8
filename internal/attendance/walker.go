package attendance

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"rollcall/internal/calendar"
	"rollcall/internal/metrics"
	"rollcall/internal/roster"
)

var (
	// ErrOutOfRange signals that the walk is complete: position is past the
	// last student on the roster.
	ErrOutOfRange      = errors.New("position is past the end of the roster")
	ErrInvalidPosition = errors.New("position must not be negative")
	ErrInvalidDecision = errors.New("action must be present or absent")
)

// Decision is the operator's verdict for one student on one day.
type Decision int

const (
	Present Decision = iota + 1
	Absent
)

// ParseDecision accepts "present" or "absent", case-insensitively.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present":
		return Present, nil
	case "absent":
		return Absent, nil
	}
	return 0, ErrInvalidDecision
}

func (d Decision) String() string {
	switch d {
	case Present:
		return "present"
	case Absent:
		return "absent"
	}
	return "unknown"
}

// Roster is the read side of the student store the walker needs.
type Roster interface {
	Count(ctx context.Context) (int, error)
	At(ctx context.Context, position int) (roster.Student, error)
	Get(ctx context.Context, id string) (roster.Student, error)
}

// Absences is the absence store the walker toggles.
type Absences interface {
	Record(ctx context.Context, studentID string, day calendar.Day, at time.Time) (bool, error)
	Clear(ctx context.Context, studentID string, day calendar.Day) (bool, error)
	Exists(ctx context.Context, studentID string, day calendar.Day) (bool, error)
}

// Step is what the operator sees for the current position of a walk.
type Step struct {
	Student  roster.Student `json:"student"`
	Position int            `json:"position"`
	Total    int            `json:"total"`
	Progress float64        `json:"progress"`
	IsAbsent bool           `json:"is_absent_today"`
}

// Walker drives a roll call one student at a time in roll-number order. It
// keeps no state between calls: the position is held by the caller.
type Walker struct {
	roster   Roster
	absences Absences
	loc      *time.Location
	log      *zap.Logger
}

// NewWalker creates a walker. loc defines the calendar day of a mark.
func NewWalker(r Roster, a Absences, loc *time.Location, log *zap.Logger) *Walker {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{roster: r, absences: a, loc: loc, log: log}
}

// Start returns the first position of a walk.
func (w *Walker) Start() int { return 0 }

// Today returns the calendar day of now in the walker's location.
func (w *Walker) Today(now time.Time) calendar.Day {
	return calendar.DayOf(now, w.loc)
}

// Current returns the student at position along with whether they are
// already marked absent on day.
func (w *Walker) Current(ctx context.Context, position int, day calendar.Day) (Step, error) {
	if position < 0 {
		return Step{}, ErrInvalidPosition
	}
	total, err := w.roster.Count(ctx)
	if err != nil {
		return Step{}, err
	}
	if position >= total {
		return Step{}, ErrOutOfRange
	}
	st, err := w.roster.At(ctx, position)
	if errors.Is(err, roster.ErrNotFound) {
		// roster shrank between the count and the fetch
		return Step{}, ErrOutOfRange
	}
	if err != nil {
		return Step{}, err
	}
	absent, err := w.absences.Exists(ctx, st.ID, day)
	if err != nil {
		return Step{}, err
	}
	return Step{
		Student:  st,
		Position: position,
		Total:    total,
		Progress: progress(position, total),
		IsAbsent: absent,
	}, nil
}

// Mark records the decision for the student on the day of now and returns
// the next position. Marking absent twice keeps the first row; marking
// present removes the day's row if there is one.
func (w *Walker) Mark(ctx context.Context, studentID string, position int, d Decision, now time.Time) (int, error) {
	if position < 0 {
		return 0, ErrInvalidPosition
	}
	if _, err := w.roster.Get(ctx, studentID); err != nil {
		return 0, err
	}
	day := w.Today(now)

	var (
		changed bool
		err     error
	)
	switch d {
	case Absent:
		changed, err = w.absences.Record(ctx, studentID, day, now)
	case Present:
		changed, err = w.absences.Clear(ctx, studentID, day)
	default:
		return 0, ErrInvalidDecision
	}
	if err != nil {
		return 0, err
	}

	metrics.Marks.WithLabelValues(d.String()).Inc()
	w.log.Debug("attendance marked",
		zap.String("student_id", studentID),
		zap.String("day", day.String()),
		zap.Stringer("decision", d),
		zap.Bool("changed", changed))
	return position + 1, nil
}

func progress(position, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(position+1)/float64(total)*10000) / 100
}

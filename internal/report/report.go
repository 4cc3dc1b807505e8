// Package report aggregates absences into daily attendance figures.
package report

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"rollcall/internal/absence"
	"rollcall/internal/calendar"
	"rollcall/internal/roster"
)

// Absences is the read side of the absence store.
type Absences interface {
	OnDay(ctx context.Context, day calendar.Day, order absence.Order) ([]absence.Entry, error)
	AbsentIDs(ctx context.Context, day calendar.Day) (map[string]bool, error)
}

// Students is the read side of the roster.
type Students interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]roster.Student, error)
}

// Summary is the printable absentee report for one day.
type Summary struct {
	Date                 calendar.Day    `json:"date"`
	Absences             []absence.Entry `json:"absent_students"`
	TotalAbsent          int             `json:"total_absent"`
	TotalPresent         int             `json:"total_present"`
	TotalStudents        int             `json:"total_students"`
	AttendancePercentage float64         `json:"attendance_percentage"`
}

// Listing is a plain list of absentees. Valid is false when the requested
// date could not be parsed, in which case the list is empty.
type Listing struct {
	Date        calendar.Day    `json:"filter_date,omitempty"`
	Requested   string          `json:"requested_date,omitempty"`
	Valid       bool            `json:"valid"`
	Absences    []absence.Entry `json:"absent_students"`
	TotalAbsent int             `json:"total_absent"`
}

// Line is one row of the roster-with-status view.
type Line struct {
	SlNo     int            `json:"sl_no"`
	Student  roster.Student `json:"student"`
	IsAbsent bool           `json:"is_absent"`
}

// Generator computes reports from the roster and absence stores.
type Generator struct {
	absences Absences
	students Students
	log      *zap.Logger
}

// NewGenerator creates a generator.
func NewGenerator(a Absences, s Students, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{absences: a, students: s, log: log}
}

// Report returns the absentees of day ordered by roll number together with
// the present/absent totals. TotalPresent + TotalAbsent == TotalStudents.
func (g *Generator) Report(ctx context.Context, day calendar.Day) (Summary, error) {
	entries, err := g.absences.OnDay(ctx, day, absence.ByRollNumber)
	if err != nil {
		return Summary{}, err
	}
	total, err := g.students.Count(ctx)
	if err != nil {
		return Summary{}, err
	}
	absent := len(entries)
	present := total - absent
	return Summary{
		Date:                 day,
		Absences:             entries,
		TotalAbsent:          absent,
		TotalPresent:         present,
		TotalStudents:        total,
		AttendancePercentage: Percentage(present, total),
	}, nil
}

// Completion lists the absentees of day, most recently marked first. It is
// shown once a roll call walk is finished.
func (g *Generator) Completion(ctx context.Context, day calendar.Day) (Listing, error) {
	entries, err := g.absences.OnDay(ctx, day, absence.NewestFirst)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Date: day, Valid: true, Absences: entries, TotalAbsent: len(entries)}, nil
}

// List returns the absentees for the date in raw, ordered by roll number. An
// empty raw means today. A malformed raw yields an empty, invalid listing
// rather than an error.
func (g *Generator) List(ctx context.Context, raw string, today calendar.Day) (Listing, error) {
	raw = strings.TrimSpace(raw)
	day := today
	if raw != "" {
		parsed, err := calendar.ParseDay(raw)
		if err != nil {
			g.log.Debug("absentee listing with malformed date", zap.String("date", raw))
			return Listing{Requested: raw, Valid: false, Absences: []absence.Entry{}}, nil
		}
		day = parsed
	}
	entries, err := g.absences.OnDay(ctx, day, absence.ByRollNumber)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Date: day, Requested: raw, Valid: true, Absences: entries, TotalAbsent: len(entries)}, nil
}

// Roster returns every student in roll-number order with their status on day.
func (g *Generator) Roster(ctx context.Context, day calendar.Day) ([]Line, error) {
	students, err := g.students.List(ctx)
	if err != nil {
		return nil, err
	}
	absent, err := g.absences.AbsentIDs(ctx, day)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(students))
	for i, st := range students {
		lines = append(lines, Line{SlNo: i + 1, Student: st, IsAbsent: absent[st.ID]})
	}
	return lines, nil
}

// Percentage returns present/total as a percentage rounded to two decimals,
// or 0 for an empty roster.
func Percentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*10000) / 100
}

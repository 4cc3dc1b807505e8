package absence

import (
	"errors"
	"time"

	"rollcall/internal/calendar"
	"rollcall/internal/roster"
)

var ErrNotFound = errors.New("absence not found")

// Absence records that a student was absent on a given day. There is at most
// one row per (student, day).
type Absence struct {
	ID        string       `db:"id" json:"id"`
	StudentID string       `db:"student_id" json:"student_id"`
	AbsentOn  calendar.Day `db:"absent_on" json:"absent_on"`
	DateTime  time.Time    `db:"date_time" json:"date_time"` // UTC
}

// Entry is an Absence joined with its student.
type Entry struct {
	Absence
	Student roster.Student `db:"student" json:"student"`
}

// Order selects how entries are sorted.
type Order int

const (
	ByRollNumber Order = iota
	NewestFirst
)

// Filter narrows the administrative absence listing. Empty fields match
// everything; From and To are inclusive.
type Filter struct {
	From   calendar.Day
	To     calendar.Day
	Search string
}

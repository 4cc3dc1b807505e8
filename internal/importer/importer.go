// Package importer bulk-loads students from csv, xlsx or xls rosters.
package importer

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rollcall/internal/calendar"
	"rollcall/internal/metrics"
	"rollcall/internal/roster"
)

// Column headers a roster file must carry.
const (
	ColumnName   = "Student Name"
	ColumnRoll   = "Roll Number"
	ColumnCourse = "Course Name"
)

var RequiredColumns = []string{ColumnName, ColumnRoll, ColumnCourse}

// Students creates a student unless its roll number is already known.
type Students interface {
	Ensure(ctx context.Context, ns roster.NewStudent, now time.Time) (bool, error)
}

// Importer upserts roster rows by roll number.
type Importer struct {
	students Students
	clock    calendar.Clock
	log      *zap.Logger
}

// New creates an importer.
func New(students Students, clock calendar.Clock, log *zap.Logger) *Importer {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{students: students, clock: clock, log: log}
}

// Import reads the file and creates every student whose roll number is not
// yet on the roster, returning how many were created. Existing students are
// never modified. The first failing row aborts the import; rows before it
// stay imported.
func (im *Importer) Import(ctx context.Context, filename string, r io.Reader) (int, error) {
	rows, err := ReadRows(filename, r)
	if err != nil {
		im.fail(err)
		return 0, err
	}
	created, err := im.importRows(ctx, rows)
	if err != nil {
		im.fail(err)
		return created, err
	}
	metrics.ImportedStudents.Add(float64(created))
	im.log.Info("roster imported",
		zap.String("file", filename),
		zap.Int("rows", len(rows)-1),
		zap.Int("created", created))
	return created, nil
}

func (im *Importer) importRows(ctx context.Context, rows [][]string) (int, error) {
	if len(rows) == 0 {
		return 0, &SchemaError{Missing: RequiredColumns}
	}
	idx, err := columnIndexes(rows[0])
	if err != nil {
		return 0, err
	}

	now := im.clock.Now()
	created := 0
	for i, row := range rows[1:] {
		ns := roster.NewStudent{
			Name:       cell(row, idx[ColumnName]),
			RollNumber: cell(row, idx[ColumnRoll]),
			CourseName: cell(row, idx[ColumnCourse]),
		}
		if ns.Name == "" && ns.RollNumber == "" && ns.CourseName == "" {
			continue
		}
		ok, err := im.students.Ensure(ctx, ns, now)
		if err != nil {
			return created, &ImportError{Row: i + 2, Err: err}
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func columnIndexes(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(RequiredColumns))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (im *Importer) fail(err error) {
	var (
		fe *FormatError
		se *SchemaError
		fi *FileError
		ie *ImportError
	)
	reason := "read"
	switch {
	case errors.As(err, &fe):
		reason = "format"
	case errors.As(err, &se):
		reason = "schema"
	case errors.As(err, &fi):
		reason = "file"
	case errors.As(err, &ie):
		reason = "row"
	}
	metrics.ImportFailures.WithLabelValues(reason).Inc()
	im.log.Warn("roster import failed", zap.String("reason", reason), zap.Error(err))
}

package absence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"rollcall/internal/calendar"
	"rollcall/internal/store"
)

const entrySelect = `
	SELECT a.id, a.student_id, a.absent_on, a.date_time,
		s.id AS "student.id",
		s.student_name AS "student.student_name",
		s.roll_number AS "student.roll_number",
		s.course_name AS "student.course_name",
		s.created_at AS "student.created_at"
	FROM absences a
	JOIN students s ON s.id = a.student_id`

// Repository persists absences.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// Record marks the student absent on day unless a row already exists. An
// existing row keeps its original timestamp. It reports whether a row was
// inserted.
func (r *Repository) Record(ctx context.Context, studentID string, day calendar.Day, at time.Time) (bool, error) {
	res, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO absences (id, student_id, absent_on, date_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (student_id, absent_on) DO NOTHING
	`), uuid.NewString(), studentID, string(day), at.UTC().Truncate(time.Microsecond))
	if err != nil {
		return false, errors.Wrap(err, "record absence")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "record absence")
	}
	return n == 1, nil
}

// Clear removes the student's absence on day, if any. It reports whether a
// row was deleted.
func (r *Repository) Clear(ctx context.Context, studentID string, day calendar.Day) (bool, error) {
	res, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM absences WHERE student_id = ? AND absent_on = ?
	`), studentID, string(day))
	if err != nil {
		return false, errors.Wrap(err, "clear absence")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "clear absence")
	}
	return n > 0, nil
}

// Exists reports whether the student is marked absent on day.
func (r *Repository) Exists(ctx context.Context, studentID string, day calendar.Day) (bool, error) {
	var n int
	err := r.db.Client.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM absences WHERE student_id = ? AND absent_on = ?
	`), studentID, string(day))
	if err != nil {
		return false, errors.Wrap(err, "check absence")
	}
	return n > 0, nil
}

// AbsentIDs returns the set of student ids absent on day.
func (r *Repository) AbsentIDs(ctx context.Context, day calendar.Day) (map[string]bool, error) {
	var ids []string
	err := r.db.Client.SelectContext(ctx, &ids, r.db.Rebind(`SELECT student_id FROM absences WHERE absent_on = ?`), string(day))
	if err != nil {
		return nil, errors.Wrap(err, "absent student ids")
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// OnDay returns the absences dated day joined with their students.
func (r *Repository) OnDay(ctx context.Context, day calendar.Day, order Order) ([]Entry, error) {
	query := entrySelect + ` WHERE a.absent_on = ?` + orderClause(order)
	entries := []Entry{}
	if err := r.db.Client.SelectContext(ctx, &entries, r.db.Rebind(query), string(day)); err != nil {
		return nil, errors.Wrap(err, "absences on day")
	}
	return entries, nil
}

// CountOnDay returns how many students are absent on day.
func (r *Repository) CountOnDay(ctx context.Context, day calendar.Day) (int, error) {
	var n int
	if err := r.db.Client.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM absences WHERE absent_on = ?`), string(day)); err != nil {
		return 0, errors.Wrap(err, "count absences")
	}
	return n, nil
}

// Search lists absences newest first. Filter.Search matches the student's
// name or roll number case-insensitively.
func (r *Repository) Search(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if f.From != "" {
		clauses = append(clauses, `a.absent_on >= ?`)
		args = append(args, string(f.From))
	}
	if f.To != "" {
		clauses = append(clauses, `a.absent_on <= ?`)
		args = append(args, string(f.To))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := likePattern(s)
		clauses = append(clauses, `(LOWER(s.student_name) LIKE ? ESCAPE '\' OR LOWER(s.roll_number) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	query := entrySelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY a.absent_on DESC, a.date_time DESC, s.roll_number`

	entries := []Entry{}
	if err := r.db.Client.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "search absences")
	}
	return entries, nil
}

// Delete removes a single absence by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`DELETE FROM absences WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "delete absence")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete absence")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func orderClause(o Order) string {
	if o == NewestFirst {
		return ` ORDER BY a.date_time DESC, s.roll_number`
	}
	return ` ORDER BY s.roll_number`
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

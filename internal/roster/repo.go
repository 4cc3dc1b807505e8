package roster

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"rollcall/internal/store"
)

const studentColumns = `id, student_name, roll_number, course_name, created_at`

// Repository persists students.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes st unless its roll number is already taken. It reports
// whether a row was created; an existing row is left untouched.
func (r *Repository) Insert(ctx context.Context, st Student) (bool, error) {
	res, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO students (id, student_name, roll_number, course_name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (roll_number) DO NOTHING
	`), st.ID, st.Name, st.RollNumber, st.CourseName, st.CreatedAt)
	if err != nil {
		return false, errors.Wrap(err, "insert student")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "insert student")
	}
	return n == 1, nil
}

// Get returns a single student by id.
func (r *Repository) Get(ctx context.Context, id string) (Student, error) {
	var st Student
	err := r.db.Client.GetContext(ctx, &st, r.db.Rebind(`SELECT `+studentColumns+` FROM students WHERE id = ?`), id)
	return st, notFound(err, "get student")
}

// GetByRollNumber returns a single student by roll number.
func (r *Repository) GetByRollNumber(ctx context.Context, rollNumber string) (Student, error) {
	var st Student
	err := r.db.Client.GetContext(ctx, &st, r.db.Rebind(`SELECT `+studentColumns+` FROM students WHERE roll_number = ?`), rollNumber)
	return st, notFound(err, "get student by roll number")
}

// At returns the student at ordinal position in roll-number order.
func (r *Repository) At(ctx context.Context, position int) (Student, error) {
	var st Student
	err := r.db.Client.GetContext(ctx, &st, r.db.Rebind(`
		SELECT `+studentColumns+` FROM students
		ORDER BY roll_number
		LIMIT 1 OFFSET ?
	`), position)
	return st, notFound(err, "student at position")
}

// Count returns the roster size.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Client.GetContext(ctx, &n, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, errors.Wrap(err, "count students")
	}
	return n, nil
}

// List returns every student ordered by roll number.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	return r.Search(ctx, Filter{})
}

// Search applies AND over the non-empty Filter fields. Filter.Search does a
// case-insensitive match on name, roll number or course.
func (r *Repository) Search(ctx context.Context, f Filter) ([]Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students`
	var (
		clauses []string
		args    []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := likePattern(s)
		clauses = append(clauses, `(LOWER(student_name) LIKE ? ESCAPE '\' OR LOWER(roll_number) LIKE ? ESCAPE '\' OR LOWER(course_name) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if c := strings.TrimSpace(f.Course); c != "" {
		clauses = append(clauses, `course_name = ?`)
		args = append(args, c)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY roll_number"

	students := []Student{}
	if err := r.db.Client.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "search students")
	}
	return students, nil
}

// Courses returns the distinct course names in alphabetical order.
func (r *Repository) Courses(ctx context.Context) ([]string, error) {
	courses := []string{}
	if err := r.db.Client.SelectContext(ctx, &courses, `SELECT DISTINCT course_name FROM students ORDER BY course_name`); err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	return courses, nil
}

// Delete removes a student and, explicitly, all of its absences. The schema
// also cascades, but SQLite only honours that with foreign_keys enabled.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM absences WHERE student_id = ?`), id); err != nil {
			return errors.Wrap(err, "delete student absences")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM students WHERE id = ?`), id)
		if err != nil {
			return errors.Wrap(err, "delete student")
		}
		if n, err := res.RowsAffected(); err != nil {
			return errors.Wrap(err, "delete student")
		} else if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func notFound(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, op)
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

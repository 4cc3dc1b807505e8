package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/absence"
	"rollcall/internal/attendance"
	"rollcall/internal/calendar"
	"rollcall/internal/report"
	"rollcall/internal/roster"
	"rollcall/internal/testutil"
)

var now = time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)

const today = calendar.Day("2024-03-09")

type fixture struct {
	gen      *report.Generator
	walker   *attendance.Walker
	students *roster.Repository
	absences *absence.Repository
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	students := roster.NewRepository(db)
	absences := absence.NewRepository(db)
	return fixture{
		gen:      report.NewGenerator(absences, students, nil),
		walker:   attendance.NewWalker(students, absences, time.UTC, nil),
		students: students,
		absences: absences,
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		present, total int
		want           float64
	}{
		{present: 0, total: 0, want: 0},
		{present: 1, total: 2, want: 50},
		{present: 2, total: 3, want: 66.67},
		{present: 1, total: 3, want: 33.33},
		{present: 3, total: 3, want: 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, report.Percentage(tt.present, tt.total), "%d/%d", tt.present, tt.total)
	}
}

func TestGenerator_ReportScenario(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := testutil.CreateStudent(t, f.students, "A", "1", "CS")
	b := testutil.CreateStudent(t, f.students, "B", "2", "CS")

	_, err := f.walker.Mark(ctx, a.ID, 0, attendance.Absent, now)
	require.NoError(t, err)
	_, err = f.walker.Mark(ctx, b.ID, 1, attendance.Present, now)
	require.NoError(t, err)

	got, err := f.gen.Report(ctx, today)
	require.NoError(t, err)

	want := report.Summary{
		Date:                 today,
		TotalAbsent:          1,
		TotalPresent:         1,
		TotalStudents:        2,
		AttendancePercentage: 50.0,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(report.Summary{}, "Absences")); diff != "" {
		t.Errorf("Report() mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, got.Absences, 1)
	assert.Equal(t, a.ID, got.Absences[0].Student.ID)
}

func TestGenerator_ReportTotalsAlwaysAddUp(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	empty, err := f.gen.Report(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalStudents)
	assert.Equal(t, 0.0, empty.AttendancePercentage)
	assert.NotNil(t, empty.Absences)

	ids := []string{}
	for _, roll := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		ids = append(ids, testutil.CreateStudent(t, f.students, "S"+roll, roll, "CS").ID)
	}
	for i, id := range ids {
		if i%3 == 0 {
			_, err := f.absences.Record(ctx, id, today, now)
			require.NoError(t, err)
		}
		if i%2 == 0 {
			_, err := f.absences.Record(ctx, id, "2024-03-10", now)
			require.NoError(t, err)
		}
	}

	for _, day := range []calendar.Day{today, "2024-03-10", "2024-03-11"} {
		s, err := f.gen.Report(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, s.TotalStudents, s.TotalPresent+s.TotalAbsent, "day %s", day)
		assert.Equal(t, 7, s.TotalStudents)
	}

	s, err := f.gen.Report(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalAbsent)
	assert.Equal(t, 57.14, s.AttendancePercentage)
}

func TestGenerator_List(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := testutil.CreateStudent(t, f.students, "B", "2", "CS")
	a := testutil.CreateStudent(t, f.students, "A", "1", "CS")
	_, err := f.absences.Record(ctx, b.ID, today, now)
	require.NoError(t, err)
	_, err = f.absences.Record(ctx, a.ID, today, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = f.absences.Record(ctx, a.ID, "2024-03-01", now)
	require.NoError(t, err)

	t.Run("defaults to today", func(t *testing.T) {
		l, err := f.gen.List(ctx, "", today)
		require.NoError(t, err)
		assert.True(t, l.Valid)
		assert.Equal(t, today, l.Date)
		assert.Equal(t, 2, l.TotalAbsent)
		assert.Equal(t, "1", l.Absences[0].Student.RollNumber)
		assert.Equal(t, "2", l.Absences[1].Student.RollNumber)
	})

	t.Run("explicit date", func(t *testing.T) {
		l, err := f.gen.List(ctx, "2024-03-01", today)
		require.NoError(t, err)
		assert.True(t, l.Valid)
		assert.Equal(t, calendar.Day("2024-03-01"), l.Date)
		assert.Equal(t, 1, l.TotalAbsent)
	})

	t.Run("malformed date is empty, not an error", func(t *testing.T) {
		l, err := f.gen.List(ctx, "not-a-date", today)
		require.NoError(t, err)
		assert.False(t, l.Valid)
		assert.Equal(t, "not-a-date", l.Requested)
		assert.NotNil(t, l.Absences)
		assert.Empty(t, l.Absences)
		assert.Equal(t, 0, l.TotalAbsent)
	})
}

func TestGenerator_Completion(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := testutil.CreateStudent(t, f.students, "A", "1", "CS")
	b := testutil.CreateStudent(t, f.students, "B", "2", "CS")
	_, err := f.absences.Record(ctx, a.ID, today, now)
	require.NoError(t, err)
	_, err = f.absences.Record(ctx, b.ID, today, now.Add(time.Minute))
	require.NoError(t, err)

	l, err := f.gen.Completion(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 2, l.TotalAbsent)
	assert.Equal(t, b.ID, l.Absences[0].StudentID, "most recent first")
}

func TestGenerator_Roster(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := testutil.CreateStudent(t, f.students, "B", "2", "CS")
	testutil.CreateStudent(t, f.students, "A", "1", "CS")
	_, err := f.absences.Record(ctx, b.ID, today, now)
	require.NoError(t, err)

	lines, err := f.gen.Roster(ctx, today)
	require.NoError(t, err)

	got := make([][3]any, 0, len(lines))
	for _, l := range lines {
		got = append(got, [3]any{l.SlNo, l.Student.RollNumber, l.IsAbsent})
	}
	want := [][3]any{{1, "1", false}, {2, "2", true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Roster() mismatch (-want +got):\n%s", diff)
	}
}

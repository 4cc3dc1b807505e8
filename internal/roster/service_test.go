package roster_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/roster"
	"rollcall/internal/testutil"
)

var now = time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := roster.NewService(roster.NewRepository(testutil.PrepareDB(t)), nil)

	st, err := svc.Create(ctx, roster.NewStudent{Name: "  Jane ", RollNumber: " R1", CourseName: "CS  "}, now)
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, "Jane", st.Name)
	assert.Equal(t, "R1", st.RollNumber)
	assert.Equal(t, "CS", st.CourseName)
	assert.True(t, st.CreatedAt.Equal(now))

	_, err = svc.Create(ctx, roster.NewStudent{Name: "Other", RollNumber: "R1", CourseName: "Maths"}, now)
	assert.ErrorIs(t, err, roster.ErrRollNumberExists)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := roster.NewService(roster.NewRepository(testutil.PrepareDB(t)), nil)

	tests := []struct {
		name       string
		in         roster.NewStudent
		wantFields []string
	}{
		{name: "all blank", in: roster.NewStudent{Name: "  "}, wantFields: []string{"student_name", "roll_number", "course_name"}},
		{name: "roll number too long", in: roster.NewStudent{Name: "A", RollNumber: strings.Repeat("9", 21), CourseName: "CS"}, wantFields: []string{"roll_number"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in, now)
			var verr *roster.ValidationError
			require.ErrorAs(t, err, &verr)
			got := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}

func TestService_EnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := roster.NewService(roster.NewRepository(testutil.PrepareDB(t)), nil)

	created, err := svc.Ensure(ctx, roster.NewStudent{Name: "Jane", RollNumber: "R1", CourseName: "CS"}, now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Ensure(ctx, roster.NewStudent{Name: "Jane", RollNumber: "R1", CourseName: "CS"}, now)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

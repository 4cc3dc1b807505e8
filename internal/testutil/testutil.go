// Package testutil prepares migrated databases and fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"rollcall/internal/roster"
	"rollcall/internal/store"
)

// PrepareDB opens a fresh, migrated SQLite database that is closed when the
// test ends.
func PrepareDB(t *testing.T) *store.DB {
	t.Helper()

	ctx := context.Background()
	db, err := store.NewDB(ctx, store.DriverSQLite, store.SQLiteDSN(filepath.Join(t.TempDir(), "rollcall.db")))
	if err != nil {
		t.Fatalf("PrepareDB() open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(ctx, db); err != nil {
		t.Fatalf("PrepareDB() migrate failed: %v", err)
	}
	return db
}

// CreateStudent inserts a student directly through the repository.
func CreateStudent(t *testing.T, repo *roster.Repository, name, rollNumber, course string, createdAt ...time.Time) roster.Student {
	t.Helper()

	tstamp := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	st := roster.Student{
		ID:         "st-" + rollNumber,
		Name:       name,
		RollNumber: rollNumber,
		CourseName: course,
		CreatedAt:  tstamp,
	}
	created, err := repo.Insert(context.Background(), st)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if !created {
		t.Fatalf("CreateStudent() roll number %q already exists", rollNumber)
	}
	return st
}

// Package testdb provides a migrated in-memory SQLite database and seed
// data for tests that exercise the real stores.
package testdb

import (
	"context"
	"testing"

	"github.com/helixml/scmtrack/domain/issue"
	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/user"
	"github.com/helixml/scmtrack/infrastructure/persistence"
	"github.com/helixml/scmtrack/internal/database"
)

// New creates an in-memory SQLite database with all migrations applied.
// The database is automatically closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Fixtures is a small issue tracker: one project, an open default status,
// two closed statuses, and one user.
type Fixtures struct {
	DB       database.Database
	Project  issue.Project
	New      issue.Status
	Resolved issue.Status
	Closed   issue.Status
	Alice    user.User
}

// Seed creates a migrated database populated with Fixtures.
func Seed(t *testing.T) Fixtures {
	t.Helper()
	ctx := context.Background()
	db := New(t)

	statuses := persistence.NewStatusStore(db)
	f := Fixtures{DB: db}
	f.New = must[issue.Status](t)(statuses.Save(ctx, issue.NewStatus("New", false, true, 1)))
	f.Resolved = must[issue.Status](t)(statuses.Save(ctx, issue.NewStatus("Resolved", true, false, 2)))
	f.Closed = must[issue.Status](t)(statuses.Save(ctx, issue.NewStatus("Closed", true, false, 3)))
	f.Project = must[issue.Project](t)(persistence.NewProjectStore(db).Save(ctx, issue.NewProject("app", "App")))
	f.Alice = must[user.User](t)(persistence.NewUserStore(db).Save(ctx, user.NewUser("alice", "alice@example.com", "Alice", "Liddell")))
	return f
}

// Issue creates an open issue in the fixture project.
func (f Fixtures) Issue(t *testing.T, subject string) issue.Issue {
	t.Helper()
	return must[issue.Issue](t)(persistence.NewIssueStore(f.DB).Save(context.Background(), issue.NewIssue(f.Project.ID(), subject, f.New.ID())))
}

// Repository creates a repository of kind in the fixture project.
func (f Fixtures) Repository(t *testing.T, kind, url string) repository.Repository {
	t.Helper()
	repo, err := repository.NewRepository(f.Project.ID(), kind, url)
	if err != nil {
		t.Fatalf("testdb: new repository: %v", err)
	}
	return must[repository.Repository](t)(persistence.NewRepositoryStore(f.DB).Save(context.Background(), repo))
}

// must fails the test on a seeding error and otherwise returns the value.
func must[T any](t *testing.T) func(T, error) T {
	return func(v T, err error) T {
		t.Helper()
		if err != nil {
			t.Fatalf("testdb: seed: %v", err)
		}
		return v
	}
}

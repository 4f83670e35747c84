package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/model"
)

// newTestDB returns a DB backed by an in-memory database that lives for the
// duration of the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, githubID int64, username string) *model.User {
	t.Helper()
	user := &model.User{
		GitHubID: githubID,
		Username: username,
		Email:    username + "@example.com",
	}
	created, err := db.FindOrCreate(context.Background(), user)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	if !created {
		t.Fatalf("test user %d unexpectedly already existed", githubID)
	}
	return user
}

func TestFindOrCreate_NewUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		GitHubID:  42,
		Username:  "alice",
		FullName:  "Alice Example",
		GitHubURL: "https://github.com/alice",
		Email:     "alice@example.com",
		Hireable:  true,
	}

	created, err := db.FindOrCreate(context.Background(), user)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if !created {
		t.Error("FindOrCreate() created = false, want true for a new user")
	}
	if user.Registered.IsZero() {
		t.Error("FindOrCreate() did not set Registered")
	}
}

func TestFindOrCreate_ExistingWins(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, 42, "alice")

	// Second login with changed profile — the stored row must win.
	again := &model.User{
		GitHubID: 42,
		Username: "renamed-alice",
		Email:    "new@example.com",
	}
	created, err := db.FindOrCreate(context.Background(), again)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if created {
		t.Error("FindOrCreate() created = true on repeat login, want false")
	}
	if again.Username != "alice" {
		t.Errorf("Username after repeat login = %q, want stored %q", again.Username, "alice")
	}
	if again.Email != "alice@example.com" {
		t.Errorf("Email after repeat login = %q, want stored %q", again.Email, "alice@example.com")
	}

	// The stored row is byte-for-byte what the first call wrote.
	stored, err := db.GetByGitHubID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetByGitHubID() error = %v", err)
	}
	if stored.Username != "alice" || stored.Email != "alice@example.com" {
		t.Errorf("stored row changed after repeat login: %+v", stored)
	}
}

func TestGetByGitHubID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByGitHubID(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByGitHubID() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateCV(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, 42, "alice")

	err := db.UpdateCV(context.Background(), 42, "cv/abc123.pdf", "alice-resume.pdf")
	if err != nil {
		t.Fatalf("UpdateCV() error = %v", err)
	}

	user, err := db.GetByGitHubID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetByGitHubID() error = %v", err)
	}
	if user.CVURL != "cv/abc123.pdf" {
		t.Errorf("CVURL = %q, want %q", user.CVURL, "cv/abc123.pdf")
	}
	if user.CVTitle != "alice-resume.pdf" {
		t.Errorf("CVTitle = %q, want %q", user.CVTitle, "alice-resume.pdf")
	}
}

func TestUpdateCV_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateCV(context.Background(), 9999, "cv/abc.pdf", "abc.pdf")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateCV() error = %v, want ErrNotFound", err)
	}
}

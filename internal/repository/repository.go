// Package repository declares the persistence interfaces consumed by the
// service layer. The sqlite subpackage provides the only implementation;
// tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/blabladev/devhub/internal/model"
)

// UserRepository is the user directory. Rows are keyed by the GitHub user ID
// and written once — profile fields are never refreshed by this service.
type UserRepository interface {
	// FindOrCreate looks up a user by u.GitHubID and inserts u if absent.
	// It reports whether a new row was created; when an existing row wins,
	// *u is overwritten with the stored values. Two concurrent first logins
	// for the same ID resolve through the primary-key constraint: the
	// losing insert re-reads the winner's row instead of failing.
	FindOrCreate(ctx context.Context, u *model.User) (created bool, err error)

	// GetByGitHubID returns the user row, or apperror.ErrNotFound.
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)

	// UpdateCV records the stored CV file for a user.
	UpdateCV(ctx context.Context, githubID int64, cvURL, cvTitle string) error
}

// ProjectRepository persists provisioned projects.
type ProjectRepository interface {
	// Create inserts a project row and fills p.ID with the generated key.
	Create(ctx context.Context, p *model.Project) error

	// ListByUser returns all projects belonging to one user, oldest first.
	ListByUser(ctx context.Context, userID int64) ([]model.Project, error)
}

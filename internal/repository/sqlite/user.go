package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/model"
	"github.com/blabladev/devhub/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// FindOrCreate implements the "existing wins" upsert of the user directory.
//
// INSERT ... ON CONFLICT DO NOTHING makes the race between two simultaneous
// first logins harmless: both issue the insert, the primary key lets exactly
// one through, and a zero rows-affected result means someone else's row is
// already there — so we re-read it rather than fail. Profile fields are
// never overwritten on repeat login.
func (db *DB) FindOrCreate(ctx context.Context, u *model.User) (bool, error) {
	if u.Registered.IsZero() {
		u.Registered = time.Now()
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (github_id, username, full_name, github_url, avatar,
		                    location, company, blog, email, hireable, bio, registered)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(github_id) DO NOTHING`,
		u.GitHubID,
		u.Username,
		u.FullName,
		u.GitHubURL,
		u.Avatar,
		u.Location,
		u.Company,
		u.Blog,
		u.Email,
		u.Hireable,
		u.Bio,
		u.Registered,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting user (githubID=%d): %w", u.GitHubID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: insert result for user %d: %w", u.GitHubID, err)
	}
	if affected > 0 {
		return true, nil
	}

	// Row already existed — return the stored values, not the fresh profile.
	existing, err := db.GetByGitHubID(ctx, u.GitHubID)
	if err != nil {
		return false, fmt.Errorf("sqlite: re-reading existing user %d: %w", u.GitHubID, err)
	}
	*u = *existing
	return false, nil
}

// GetByGitHubID retrieves a user by GitHub ID.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT github_id, username, full_name, github_url, avatar, location,
		        company, blog, email, hireable, bio, cv_url, cv_title, registered
		 FROM users WHERE github_id = ?`,
		githubID,
	).Scan(
		&u.GitHubID,
		&u.Username,
		&u.FullName,
		&u.GitHubURL,
		&u.Avatar,
		&u.Location,
		&u.Company,
		&u.Blog,
		&u.Email,
		&u.Hireable,
		&u.Bio,
		&u.CVURL,
		&u.CVTitle,
		&u.Registered,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(githubID, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", githubID, err)
	}

	return &u, nil
}

// UpdateCV records the stored CV file path and its original title.
func (db *DB) UpdateCV(ctx context.Context, githubID int64, cvURL, cvTitle string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET cv_url = ?, cv_title = ? WHERE github_id = ?`,
		cvURL, cvTitle, githubID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating cv for user %d: %w", githubID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: cv update result for user %d: %w", githubID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", strconv.FormatInt(githubID, 10))
	}
	return nil
}

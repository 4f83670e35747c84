package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/model"
	"github.com/blabladev/devhub/internal/repository"
)

// compile-time check that *DB implements repository.ProjectRepository
var _ repository.ProjectRepository = (*DB)(nil)

// Create inserts a project row and fills p.ID from the generated key.
// A duplicate remote repository ID surfaces as apperror.ErrConflict — one
// project row per created repository, enforced by the UNIQUE constraint.
func (db *DB) Create(ctx context.Context, p *model.Project) error {
	if p.Start.IsZero() {
		p.Start = time.Now()
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (user_id, github_id, name, description, html_url,
		                       start, end, points, review, review_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID,
		p.GitHubID,
		p.Name,
		p.Description,
		p.HTMLURL,
		p.Start,
		p.End,
		p.Points,
		p.Review,
		p.ReviewCount,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("project", p.Name)
		}
		return fmt.Errorf("sqlite: inserting project %q: %w", p.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: insert id for project %q: %w", p.Name, err)
	}
	p.ID = id
	return nil
}

// ListByUser returns the user's projects, oldest first.
func (db *DB) ListByUser(ctx context.Context, userID int64) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, github_id, name, description, html_url,
		        start, end, points, review, review_count
		 FROM projects WHERE user_id = ? ORDER BY start ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects for user %d: %w", userID, err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.GitHubID,
			&p.Name,
			&p.Description,
			&p.HTMLURL,
			&p.Start,
			&p.End,
			&p.Points,
			&p.Review,
			&p.ReviewCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project rows: %w", err)
	}

	return projects, nil
}

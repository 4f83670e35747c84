package model

import "time"

// Project is one provisioned fork copy of a template repository.
//
// Exactly one row exists per repository created on the hosting account — the
// github_id column (the remote repository's numeric ID) carries a UNIQUE
// constraint to hold that 1:1 mapping. End, Points, Review and ReviewCount
// are written later by the grading flow; provisioning only ever inserts.
type Project struct {
	ID          int64      `json:"id"          db:"id"`
	UserID      int64      `json:"user_id"     db:"user_id"`   // FK → users.github_id
	GitHubID    int64      `json:"github_id"   db:"github_id"` // Remote repository ID, unique
	Name        string     `json:"name"        db:"name"`
	Description string     `json:"description" db:"description"`
	HTMLURL     string     `json:"html_url"    db:"html_url"`
	Start       time.Time  `json:"start"       db:"start"`
	End         *time.Time `json:"end"         db:"end"` // nil while the project is running
	Points      int        `json:"points"      db:"points"`
	Review      string     `json:"review"      db:"review"`
	ReviewCount int        `json:"review_count" db:"review_count"`
}

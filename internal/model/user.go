// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered developer account.
//
// GitHub is the only identity provider, so the GitHub numeric user ID doubles
// as the primary key — there is no separate internal ID. A user row is written
// once on first login and never refreshed from GitHub afterwards; the profile
// is a snapshot of the account at registration time.
//
// WHY GitHubID int64?
// GitHub user IDs are integers and can exceed int32 range for newer accounts.
// The PRIMARY KEY constraint on github_id ensures one GitHub account maps to
// exactly one row.
type User struct {
	GitHubID   int64     `json:"github_id"  db:"github_id"` // GitHub's numeric user ID
	Username   string    `json:"username"   db:"username"`  // GitHub login, e.g. "alice"
	FullName   string    `json:"full_name"  db:"full_name"`
	GitHubURL  string    `json:"github_url" db:"github_url"` // Profile page URL
	Avatar     string    `json:"avatar"     db:"avatar"`
	Location   string    `json:"location"   db:"location"`
	Company    string    `json:"company"    db:"company"`
	Blog       string    `json:"blog"       db:"blog"`
	Email      string    `json:"email"      db:"email"` // May be empty if hidden on GitHub
	Hireable   bool      `json:"hireable"   db:"hireable"`
	Bio        string    `json:"bio"        db:"bio"`
	CVURL      string    `json:"cv_url"     db:"cv_url"`   // Path of the stored CV file, empty until uploaded
	CVTitle    string    `json:"cv_title"   db:"cv_title"` // Original upload file name
	Registered time.Time `json:"registered" db:"registered"`
}

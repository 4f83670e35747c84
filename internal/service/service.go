// Package service holds the business logic between the HTTP handlers and
// the repositories / GitHub clients:
//
//	handler (HTTP) → service (rules, orchestration) → repository (DB)
//	                                               ↘ github (host API)
//
// Two GitHub identities are in play and must not be confused:
//
//   - the HOSTING ACCOUNT, authenticated with the service's own long-lived
//     token — it owns the template repositories and every provisioned copy;
//   - the LOGGED-IN USER, authenticated with the short-lived token carried
//     in their session cookie — used only for operations GitHub scopes to
//     the invitee (listing and accepting invitations, profile lookup).
//
// The interfaces below are what the services consume; *github.Client
// satisfies all of them, and tests substitute fakes.
package service

import (
	"context"

	"github.com/blabladev/devhub/internal/github"
)

// Exchanger trades a one-time authorization code for an access token.
// Implemented by auth.Provider.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// UserAPI is the slice of the GitHub API reached with a logged-in user's
// own token.
type UserAPI interface {
	GetAuthenticatedUser(ctx context.Context) (*github.Profile, error)
	ListInvitations(ctx context.Context) ([]github.Invitation, error)
	AcceptInvitation(ctx context.Context, invitationID int64) error
}

// UserClientFactory builds a UserAPI bound to one access token. Clients are
// cheap to construct, so one is materialized per request rather than cached.
type UserClientFactory func(accessToken string) UserAPI

// HostAPI is the slice of the GitHub API reached with the hosting account's
// token.
type HostAPI interface {
	ListOwnRepos(ctx context.Context, visibility, affiliation string) ([]github.Repo, error)
	ListTopics(ctx context.Context, owner, repo string) ([]string, error)
	GetContents(ctx context.Context, owner, repo, filePath string) (*github.Content, error)
	CreateRepo(ctx context.Context, req github.CreateRepoRequest) (*github.Repo, error)
	StartImport(ctx context.Context, owner, repo, vcsURL string) error
	AddCollaborator(ctx context.Context, owner, repo, username, permission string) (*github.Invitation, error)
	ImportHost
}

// ImportHost is the subset of the host API the branch protection watcher
// needs.
type ImportHost interface {
	GetImportProgress(ctx context.Context, owner, repo string) (string, error)
	UpdateBranchProtection(ctx context.Context, owner, repo, branch string, rules github.ProtectionRules) error
}

// compile-time checks that *github.Client satisfies the service-facing
// interfaces
var (
	_ UserAPI = (*github.Client)(nil)
	_ HostAPI = (*github.Client)(nil)
)

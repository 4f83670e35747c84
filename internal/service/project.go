package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/github"
	"github.com/blabladev/devhub/internal/model"
	"github.com/blabladev/devhub/internal/repository"
)

// templatePrefix is the naming convention for template repositories on the
// hosting account; forkPrefix is what it becomes on a provisioned copy.
// "bbDev-sample" provisioned for alice yields "dev-sample-alice".
const (
	templatePrefix = "bbDev"
	forkPrefix     = "dev"
)

// Provisioning step identifiers, reported inside ProvisioningError.
const (
	StepCreateRepo      = "create_repo"
	StepStartImport     = "start_import"
	StepAddCollaborator = "add_collaborator"
	StepPersistProject  = "persist_project"
)

// ProvisioningError marks a failed provisioning run with the step that
// broke. No compensating rollback happens: steps already completed (an
// empty private repository, a queued import) are left in place for
// out-of-band cleanup.
type ProvisioningError struct {
	Step string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// TemplateSummary is a template repository as listed to clients.
type TemplateSummary struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Topics      []string `json:"topics"`
}

// StartResult is the successful outcome of a provisioning run.
type StartResult struct {
	Project *model.Project `json:"project"`
	Invite  *model.Invite  `json:"invite"`
}

// ProjectService lists template repositories and runs the fork-simulation
// workflow that provisions a per-user copy of one.
type ProjectService struct {
	host        HostAPI
	users       repository.UserRepository
	projects    repository.ProjectRepository
	watches     *WatchRegistry
	hostLogin   string // hosting account login — owner of templates and copies
	templateOrg string // org in the canonical upstream URL imports pull from
	logger      *slog.Logger
}

// NewProjectService wires a ProjectService.
func NewProjectService(
	host HostAPI,
	users repository.UserRepository,
	projects repository.ProjectRepository,
	watches *WatchRegistry,
	hostLogin string,
	templateOrg string,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		host:        host,
		users:       users,
		projects:    projects,
		watches:     watches,
		hostLogin:   hostLogin,
		templateOrg: templateOrg,
		logger:      logger,
	}
}

// ListTemplates returns the hosting account's public template repositories
// (name prefix "bbDev-") with their topics.
func (s *ProjectService) ListTemplates(ctx context.Context) ([]TemplateSummary, error) {
	repos, err := s.host.ListOwnRepos(ctx, "public", "owner")
	if err != nil {
		return nil, fmt.Errorf("service/project: listing repos: %w", err)
	}

	templates := []TemplateSummary{}
	for _, r := range repos {
		if !strings.HasPrefix(r.Name, templatePrefix+"-") {
			continue
		}
		topics, err := s.host.ListTopics(ctx, s.hostLogin, r.Name)
		if err != nil {
			return nil, fmt.Errorf("service/project: topics for %s: %w", r.Name, err)
		}
		templates = append(templates, TemplateSummary{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			HTMLURL:     r.HTMLURL,
			Topics:      topics,
		})
	}
	return templates, nil
}

// Readme fetches README.md from one of the hosting account's repositories.
func (s *ProjectService) Readme(ctx context.Context, repo string) (*github.Content, error) {
	if repo == "" {
		return nil, apperror.ValidationFailed("repo", "repo not specified")
	}
	content, err := s.host.GetContents(ctx, s.hostLogin, repo, "README.md")
	if err != nil {
		return nil, fmt.Errorf("service/project: readme for %s: %w", repo, err)
	}
	return content, nil
}

// forkName derives the repository name for a user's copy of a template by
// swapping the template namespace prefix for the fork prefix and appending
// the username: "bbDev-sample" + "alice" → "dev-sample-alice".
//
// The transform is deterministic, so re-provisioning the same template for
// the same user derives the same name; the second create then fails on the
// host's side. That collision is deliberately not deduplicated here.
func forkName(template, username string) string {
	return strings.Replace(template, templatePrefix, forkPrefix, 1) + "-" + username
}

// Start runs the provisioning workflow for one template on behalf of the
// session user:
//
//  1. resolve the local user
//  2. derive the fork repository name
//  3. create the private repository on the hosting account
//  4. start the history import from the canonical upstream
//  5. invite the user as a read-only collaborator
//  6. persist the project row
//  7. schedule the branch protection watcher (fire-and-forget)
//
// Each step requires the previous one; nothing is retried and nothing is
// rolled back. Failures in steps 3–6 surface as *ProvisioningError tagged
// with the step. The watcher's outcome never affects the returned result.
func (s *ProjectService) Start(ctx context.Context, userID int64, template string) (*StartResult, error) {
	if template == "" {
		return nil, apperror.ValidationFailed("project", "project not provided")
	}
	if !strings.HasPrefix(template, templatePrefix+"-") {
		return nil, apperror.ValidationFailed("project", "unknown project template")
	}

	user, err := s.users.GetByGitHubID(ctx, userID)
	if err != nil {
		return nil, apperror.ValidationFailed("user", "user not found")
	}

	repoName := forkName(template, user.Username)
	log := s.logger.With(
		slog.String("template", template),
		slog.String("repo", repoName),
		slog.Int64("githubID", user.GitHubID),
	)

	if _, err := s.host.CreateRepo(ctx, github.CreateRepoRequest{
		Name:        repoName,
		Description: fmt.Sprintf("clone of %s for %s", template, user.Username),
		Private:     true,
	}); err != nil {
		return nil, &ProvisioningError{Step: StepCreateRepo, Err: err}
	}
	log.Info("provisioning: repository created")

	upstream := fmt.Sprintf("https://github.com/%s/%s", s.templateOrg, template)
	if err := s.host.StartImport(ctx, s.hostLogin, repoName, upstream); err != nil {
		return nil, &ProvisioningError{Step: StepStartImport, Err: err}
	}
	log.Info("provisioning: import started", slog.String("upstream", upstream))

	invitation, err := s.host.AddCollaborator(ctx, s.hostLogin, repoName, user.Username, "pull")
	if err != nil {
		return nil, &ProvisioningError{Step: StepAddCollaborator, Err: err}
	}
	log.Info("provisioning: collaborator invited")

	// The project row is built from the invitation's repository object —
	// that response carries the canonical description and html_url.
	project := &model.Project{
		UserID:      user.GitHubID,
		GitHubID:    invitation.Repository.ID,
		Name:        invitation.Repository.Name,
		Description: invitation.Repository.Description,
		HTMLURL:     invitation.Repository.HTMLURL,
		Start:       time.Now(),
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, &ProvisioningError{Step: StepPersistProject, Err: err}
	}
	log.Info("provisioning: project persisted", slog.Int64("projectID", project.ID))

	// Fire-and-forget: provisioning is a success from here on, whatever the
	// watcher ends up doing.
	s.watches.Watch(repoName)

	return &StartResult{
		Project: project,
		Invite: &model.Invite{
			ID: invitation.ID,
			Repository: model.InviteRepo{
				ID:          invitation.Repository.ID,
				Name:        invitation.Repository.Name,
				HTMLURL:     invitation.Repository.HTMLURL,
				Description: invitation.Repository.Description,
			},
		},
	}, nil
}

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/github"
	"github.com/blabladev/devhub/internal/model"
)

// In-memory fakes for the service dependencies. Hand-written fakes (not a
// mock framework) keep the tests readable — what each fake does is right
// here on the page.

// fakeHost implements HostAPI, recording every call so tests can assert on
// ordering, arguments and call counts. Import statuses are consumed one per
// poll; the last entry repeats once the script runs out.
type fakeHost struct {
	mu sync.Mutex

	calls int // total remote calls, for "no remote calls" assertions

	repos    []github.Repo
	topics   map[string][]string
	contents map[string]*github.Content

	created   []github.CreateRepoRequest
	createErr error

	imports   []string // "owner/repo ← vcsURL"
	importErr error

	collaborators []string // "owner/repo ← username:permission"
	collabErr     error
	inviteID      int64
	repoID        int64

	statuses      []string
	statusIdx     int
	progressCalls int
	progressErr   error

	protectCalls []string // "owner/repo@branch"
	protectErr   error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		topics:   make(map[string][]string),
		contents: make(map[string]*github.Content),
		inviteID: 555,
		repoID:   1001,
	}
}

func (f *fakeHost) bump() {
	f.calls++
}

func (f *fakeHost) remoteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeHost) ListOwnRepos(ctx context.Context, visibility, affiliation string) ([]github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bump()
	return f.repos, nil
}

func (f *fakeHost) ListTopics(ctx context.Context, owner, repo string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bump()
	return f.topics[repo], nil
}

func (f *fakeHost) GetContents(ctx context.Context, owner, repo, filePath string) (*github.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bump()
	c, ok := f.contents[repo]
	if !ok {
		return nil, &github.APIError{StatusCode: 404, Method: "GET", Path: "/contents", Message: "Not Found"}
	}
	return c, nil
}

func (f *fakeHost) CreateRepo(ctx context.Context, req github.CreateRepoRequest) (*github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bump()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &github.Repo{
		ID:          f.repoID,
		Name:        req.Name,
		Description: req.Description,
		Private:     req.Private,
	}, nil
}

func (f *fakeHost) StartImport(ctx context.Context, owner, repo, vcsURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bump()
	if f.importErr != nil {
		return f.importErr
	}
	f.imports = append(f.imports, fmt.Sprintf("%s/%s ← %s", owner, repo, vcsURL))
	return nil
}

func (f *fakeHost) AddCollaborator(ctx context.Context, owner, repo, username, permission string) (*github.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bump()
	if f.collabErr != nil {
		return nil, f.collabErr
	}
	f.collaborators = append(f.collaborators, fmt.Sprintf("%s/%s ← %s:%s", owner, repo, username, permission))
	return &github.Invitation{
		ID: f.inviteID,
		Repository: github.Repo{
			ID:          f.repoID,
			Name:        repo,
			FullName:    owner + "/" + repo,
			Description: fmt.Sprintf("clone for %s", username),
			HTMLURL:     "https://github.com/" + owner + "/" + repo,
			Private:     true,
		},
	}, nil
}

func (f *fakeHost) GetImportProgress(ctx context.Context, owner, repo string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bump()
	f.progressCalls++
	if f.progressErr != nil {
		return "", f.progressErr
	}
	if len(f.statuses) == 0 {
		return "importing", nil
	}
	status := f.statuses[f.statusIdx]
	if f.statusIdx < len(f.statuses)-1 {
		f.statusIdx++
	}
	return status, nil
}

func (f *fakeHost) polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progressCalls
}

func (f *fakeHost) UpdateBranchProtection(ctx context.Context, owner, repo, branch string, rules github.ProtectionRules) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bump()
	f.protectCalls = append(f.protectCalls, fmt.Sprintf("%s/%s@%s", owner, repo, branch))
	if f.protectErr != nil {
		return f.protectErr
	}
	return nil
}

func (f *fakeHost) protections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.protectCalls...)
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) FindOrCreate(ctx context.Context, u *model.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.users[u.GitHubID]; ok {
		*u = *existing
		return false, nil
	}
	stored := *u
	f.users[u.GitHubID] = &stored
	return true, nil
}

func (f *fakeUserRepo) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[githubID]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprint(githubID))
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdateCV(ctx context.Context, githubID int64, cvURL, cvTitle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[githubID]
	if !ok {
		return apperror.NotFound("user", fmt.Sprint(githubID))
	}
	u.CVURL = cvURL
	u.CVTitle = cvTitle
	return nil
}

// fakeProjectRepo is an in-memory repository.ProjectRepository.
type fakeProjectRepo struct {
	mu        sync.Mutex
	projects  []model.Project
	nextID    int64
	createErr error
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{nextID: 1}
}

func (f *fakeProjectRepo) Create(ctx context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = f.nextID
	f.nextID++
	f.projects = append(f.projects, *p)
	return nil
}

func (f *fakeProjectRepo) ListByUser(ctx context.Context, userID int64) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Project{}
	for _, p := range f.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeExchanger implements Exchanger.
type fakeExchanger struct {
	token string
	err   error
	calls int
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// fakeUserAPI implements UserAPI.
type fakeUserAPI struct {
	profile     *github.Profile
	invitations []github.Invitation
	accepted    []int64
	acceptErr   error
}

func (f *fakeUserAPI) GetAuthenticatedUser(ctx context.Context) (*github.Profile, error) {
	if f.profile == nil {
		return nil, &github.APIError{StatusCode: 401, Method: "GET", Path: "/user", Message: "Bad credentials"}
	}
	return f.profile, nil
}

func (f *fakeUserAPI) ListInvitations(ctx context.Context) ([]github.Invitation, error) {
	return f.invitations, nil
}

func (f *fakeUserAPI) AcceptInvitation(ctx context.Context, invitationID int64) error {
	if f.acceptErr != nil {
		return f.acceptErr
	}
	f.accepted = append(f.accepted, invitationID)
	return nil
}

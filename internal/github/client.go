// Package github is a minimal typed client for the GitHub REST API,
// covering exactly the endpoints this service needs: profile lookup,
// repository listing and contents, repository creation, source imports,
// collaborator invitations and branch protection.
//
// Requests are authenticated through an oauth2 static-token transport, so
// the same client type serves both the service's hosting account (long-lived
// token from config) and per-user clients built from session tokens.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.github.com"

// Preview media types the original service opted into: mercy for repository
// topics, luke-cage for branch protection review counts.
const (
	acceptDefault    = "application/vnd.github+json"
	acceptTopics     = "application/vnd.github.mercy-preview+json"
	acceptProtection = "application/vnd.github.luke-cage-preview+json"
)

// APIError is a non-2xx response from GitHub. The status code is kept so the
// HTTP layer can propagate it to the caller.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Client talks to the GitHub REST API on behalf of one access token.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a client bound to the given access token.
func NewClient(token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		http:    oauth2.NewClient(context.Background(), src),
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBaseURL is NewClient pointed at a different API root.
// Used in tests to target an httptest server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// do issues one API request and decodes a JSON response body into out
// (skipped when out is nil). Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path, accept string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("github: encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("github: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// GitHub error bodies carry a "message" field; fall back to the raw
		// body when they don't.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var ghErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &ghErr) == nil && ghErr.Message != "" {
			msg = ghErr.Message
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    msg,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// GetAuthenticatedUser fetches the token owner's profile.
func (c *Client) GetAuthenticatedUser(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/user", acceptDefault, nil, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("github: /user returned an invalid profile (ID = 0)")
	}
	return &p, nil
}

// ListOwnRepos lists repositories of the authenticated account, filtered by
// visibility ("public", "private", "all") and affiliation ("owner", ...).
func (c *Client) ListOwnRepos(ctx context.Context, visibility, affiliation string) ([]Repo, error) {
	q := url.Values{}
	q.Set("visibility", visibility)
	q.Set("affiliation", affiliation)
	q.Set("per_page", "100")

	var repos []Repo
	if err := c.do(ctx, http.MethodGet, "/user/repos?"+q.Encode(), acceptDefault, nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListTopics returns the topic names attached to a repository.
func (c *Client) ListTopics(ctx context.Context, owner, repo string) ([]string, error) {
	var out struct {
		Names []string `json:"names"`
	}
	path := fmt.Sprintf("/repos/%s/%s/topics", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.do(ctx, http.MethodGet, path, acceptTopics, nil, &out); err != nil {
		return nil, err
	}
	return out.Names, nil
}

// GetContents fetches a single file from a repository.
func (c *Client) GetContents(ctx context.Context, owner, repo, filePath string) (*Content, error) {
	var content Content
	path := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(filePath))
	if err := c.do(ctx, http.MethodGet, path, acceptDefault, nil, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// CreateRepo creates a repository on the authenticated account.
func (c *Client) CreateRepo(ctx context.Context, req CreateRepoRequest) (*Repo, error) {
	var repo Repo
	if err := c.do(ctx, http.MethodPost, "/user/repos", acceptDefault, req, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// StartImport kicks off a source import pulling git history from vcsURL into
// an existing repository. The call returns as soon as GitHub has queued the
// import; completion is observed via GetImportProgress.
func (c *Client) StartImport(ctx context.Context, owner, repo, vcsURL string) error {
	body := struct {
		VCSURL string `json:"vcs_url"`
		VCS    string `json:"vcs"`
	}{VCSURL: vcsURL, VCS: "git"}

	path := fmt.Sprintf("/repos/%s/%s/import", url.PathEscape(owner), url.PathEscape(repo))
	return c.do(ctx, http.MethodPut, path, acceptDefault, body, nil)
}

// GetImportProgress reports the current status of a source import, e.g.
// "importing" or ImportStatusComplete.
func (c *Client) GetImportProgress(ctx context.Context, owner, repo string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/repos/%s/%s/import", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.do(ctx, http.MethodGet, path, acceptDefault, nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// AddCollaborator invites username onto a repository with the given
// permission ("pull" grants read-only access) and returns the resulting
// invitation.
func (c *Client) AddCollaborator(ctx context.Context, owner, repo, username, permission string) (*Invitation, error) {
	body := struct {
		Permission string `json:"permission"`
	}{Permission: permission}

	var inv Invitation
	path := fmt.Sprintf("/repos/%s/%s/collaborators/%s",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(username))
	if err := c.do(ctx, http.MethodPut, path, acceptDefault, body, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvitations returns the pending repository invitations of the
// authenticated account.
func (c *Client) ListInvitations(ctx context.Context) ([]Invitation, error) {
	var invites []Invitation
	if err := c.do(ctx, http.MethodGet, "/user/repository_invitations", acceptDefault, nil, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// AcceptInvitation accepts one of the authenticated account's pending
// repository invitations.
func (c *Client) AcceptInvitation(ctx context.Context, invitationID int64) error {
	path := fmt.Sprintf("/user/repository_invitations/%d", invitationID)
	return c.do(ctx, http.MethodPatch, path, acceptDefault, nil, nil)
}

// UpdateBranchProtection replaces the protection rules on one branch.
func (c *Client) UpdateBranchProtection(ctx context.Context, owner, repo, branch string, rules ProtectionRules) error {
	path := fmt.Sprintf("/repos/%s/%s/branches/%s/protection",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))
	return c.do(ctx, http.MethodPut, path, acceptProtection, rules, nil)
}

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/auth"
	"github.com/blabladev/devhub/internal/model"
	"github.com/blabladev/devhub/internal/repository"
	"github.com/blabladev/devhub/internal/token"
)

// defaultRole is the role stamped into every session payload. There is only
// one role today; the field exists so the cookie format doesn't change when
// more are added.
const defaultRole = "dev"

// cvExtensions are the only upload formats accepted for a CV.
var cvExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// UserService covers identity: the login exchange, the user directory, CV
// uploads and the user-scoped GitHub operations (invitations).
type UserService struct {
	users     repository.UserRepository
	projects  repository.ProjectRepository
	exchanger Exchanger
	clients   UserClientFactory
	codec     *token.Codec
	hostLogin string // hosting account login, used to filter invitations
	cvDir     string
	logger    *slog.Logger
}

// NewUserService wires a UserService. hostLogin is the hosting account's
// GitHub login; cvDir is the directory CV uploads land in.
func NewUserService(
	users repository.UserRepository,
	projects repository.ProjectRepository,
	exchanger Exchanger,
	clients UserClientFactory,
	codec *token.Codec,
	hostLogin string,
	cvDir string,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		projects:  projects,
		exchanger: exchanger,
		clients:   clients,
		codec:     codec,
		hostLogin: hostLogin,
		cvDir:     cvDir,
		logger:    logger,
	}
}

// LoginResult bundles the user record with the encrypted cookie value so the
// handler can set the cookie and respond in one step.
type LoginResult struct {
	User    *model.User
	Created bool   // first login for this GitHub account
	Cookie  string // encrypted session cookie value
}

// Login completes the OAuth flow for a fresh authorization code: exchanges
// it for an access token, fetches the GitHub profile, finds or creates the
// local user, and encodes the session cookie.
//
// The exchange is never retried — codes are single-use, so on failure the
// caller must restart the authorization flow.
func (s *UserService) Login(ctx context.Context, code string) (*LoginResult, error) {
	if code == "" {
		return nil, apperror.ValidationFailed("code", "no code")
	}

	accessToken, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/user: exchanging code: %w", err)
	}

	profile, err := s.clients(accessToken).GetAuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching profile: %w", err)
	}

	user := &model.User{
		GitHubID:  profile.ID,
		Username:  profile.Login,
		FullName:  profile.Name,
		GitHubURL: profile.HTMLURL,
		Avatar:    profile.AvatarURL,
		Location:  profile.Location,
		Company:   profile.Company,
		Blog:      profile.Blog,
		Email:     profile.Email,
		Hireable:  profile.Hireable,
		Bio:       profile.Bio,
	}

	// Existing wins: on a repeat login the stored row comes back unchanged.
	created, err := s.users.FindOrCreate(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("service/user: find-or-create user %d: %w", profile.ID, err)
	}

	cookie, err := auth.Encode(s.codec, auth.Session{
		Token:  accessToken,
		UserID: user.GitHubID,
		Role:   defaultRole,
	})
	if err != nil {
		return nil, fmt.Errorf("service/user: encoding session: %w", err)
	}

	s.logger.Info("user logged in",
		slog.Int64("githubID", user.GitHubID),
		slog.String("username", user.Username),
		slog.Bool("created", created),
	)

	return &LoginResult{User: user, Created: created, Cookie: cookie}, nil
}

// Get returns the user row for a session's user ID.
func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByGitHubID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %d: %w", userID, err)
	}
	return user, nil
}

// Projects returns the user's provisioned projects.
func (s *UserService) Projects(ctx context.Context, userID int64) ([]model.Project, error) {
	projects, err := s.projects.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing projects for %d: %w", userID, err)
	}
	return projects, nil
}

// StoreCV saves an uploaded CV under a generated name and records it on the
// user row. Only pdf/doc/docx are accepted; anything else is rejected before
// any bytes are written.
func (s *UserService) StoreCV(ctx context.Context, userID int64, filename string, r io.Reader) (cvURL, cvTitle string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !cvExtensions[ext] {
		return "", "", apperror.UnsupportedMedia("bad format")
	}

	if err := os.MkdirAll(s.cvDir, 0o755); err != nil {
		return "", "", fmt.Errorf("service/user: creating cv dir: %w", err)
	}

	// xid keeps stored names unique and unguessable regardless of what the
	// upload was called.
	stored := filepath.Join(s.cvDir, xid.New().String()+ext)
	f, err := os.Create(stored)
	if err != nil {
		return "", "", fmt.Errorf("service/user: creating cv file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(stored)
		return "", "", fmt.Errorf("service/user: writing cv file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("service/user: closing cv file: %w", err)
	}

	if err := s.users.UpdateCV(ctx, userID, stored, filename); err != nil {
		os.Remove(stored)
		return "", "", fmt.Errorf("service/user: recording cv for %d: %w", userID, err)
	}

	s.logger.Info("cv uploaded",
		slog.Int64("githubID", userID),
		slog.String("file", stored),
	)
	return stored, filename, nil
}

// Invites lists the user's pending invitations onto the hosting account's
// repositories, using the user's own token (GitHub only shows invitations
// to the invitee). Invitations from unrelated accounts are filtered out.
func (s *UserService) Invites(ctx context.Context, accessToken string) ([]model.Invite, error) {
	invitations, err := s.clients(accessToken).ListInvitations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing invitations: %w", err)
	}

	invites := []model.Invite{}
	for _, inv := range invitations {
		if !strings.HasPrefix(inv.Repository.FullName, s.hostLogin+"/") {
			continue
		}
		invites = append(invites, model.Invite{
			ID: inv.ID,
			Repository: model.InviteRepo{
				ID:          inv.Repository.ID,
				Name:        inv.Repository.Name,
				HTMLURL:     inv.Repository.HTMLURL,
				Description: inv.Repository.Description,
			},
		})
	}
	return invites, nil
}

// AcceptInvite accepts a repository invitation on the user's behalf.
func (s *UserService) AcceptInvite(ctx context.Context, accessToken string, invitationID int64) error {
	if err := s.clients(accessToken).AcceptInvitation(ctx, invitationID); err != nil {
		return fmt.Errorf("service/user: accepting invitation %d: %w", invitationID, err)
	}
	return nil
}

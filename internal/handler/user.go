package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/auth"
	"github.com/blabladev/devhub/internal/service"
)

// maxCVBytes caps a CV upload. Anything larger than this is not a resume.
const maxCVBytes = 10 << 20

// UserHandler exposes the identity endpoints: login, session check, CV
// upload, invitations and the user's project list.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleAuth completes the OAuth login: POST /users/auth with {"code": ...}.
// On success the session cookie is set and the user row returned.
func (h *UserHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.users.Login(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetCookie(w, result.Cookie)
	writeSuccess(w, http.StatusOK, result.User)
}

// HandleCheckSession returns the logged-in user's row: GET /users/check_session.
func (h *UserHandler) HandleCheckSession(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no session"))
		return
	}

	user, err := h.users.Get(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user)
}

// HandleUploadCV stores a CV from a multipart form: PATCH /users/upload_cv.
// The file comes in the "cv" field; only pdf/doc/docx are accepted.
func (h *UserHandler) HandleUploadCV(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no session"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCVBytes)
	file, header, err := r.FormFile("cv")
	if err != nil {
		writeError(w, apperror.ValidationFailed("cv", "missing cv file"))
		return
	}
	defer file.Close()

	cvURL, cvTitle, err := h.users.StoreCV(r.Context(), session.UserID, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{
		"cv_url":   cvURL,
		"cv_title": cvTitle,
	})
}

// HandleCheckInvites lists pending invitations onto the hosting account's
// repositories: GET /users/check_invites.
func (h *UserHandler) HandleCheckInvites(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no session"))
		return
	}

	invites, err := h.users.Invites(r.Context(), session.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, invites)
}

// HandleGetProjects lists the user's provisioned projects: GET /users/get_projects.
func (h *UserHandler) HandleGetProjects(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no session"))
		return
	}

	projects, err := h.users.Projects(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, projects)
}

// HandleAcceptInvite accepts a repository invitation with the user's own
// token: GET /projects/accept_invite/{invitation_id}.
func (h *UserHandler) HandleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no session"))
		return
	}

	invitationID, err := strconv.ParseInt(chi.URLParam(r, "invitation_id"), 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("invitation_id", "invitation id must be numeric"))
		return
	}

	if err := h.users.AcceptInvite(r.Context(), session.Token, invitationID); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"accepted": invitationID})
}

// HandleLogout expires the session cookie. Registered on both DELETE and
// GET for frontend compatibility.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w)
	writeSuccess(w, http.StatusOK, map[string]bool{"logged_out": true})
}

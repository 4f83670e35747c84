package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/auth"
	"github.com/blabladev/devhub/internal/service"
)

// ProjectHandler exposes the template catalogue and the provisioning
// endpoint.
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// HandleList returns the hosting account's template repositories with their
// topics: GET /projects.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	templates, err := h.projects.ListTemplates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, templates)
}

// HandleReadme returns a template's README: GET /projects/readme/{repo}.
func (h *ProjectHandler) HandleReadme(w http.ResponseWriter, r *http.Request) {
	readme, err := h.projects.Readme(r.Context(), chi.URLParam(r, "repo"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, readme)
}

// HandleStart provisions a private copy of a template for the logged-in
// user: POST /projects/start with {"project": ...}.
func (h *ProjectHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no session"))
		return
	}

	var req struct {
		Project string `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.projects.Start(r.Context(), session.UserID, req.Project)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

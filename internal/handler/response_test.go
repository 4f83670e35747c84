package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/auth"
	"github.com/blabladev/devhub/internal/github"
	"github.com/blabladev/devhub/internal/service"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", apperror.ValidationFailed("code", "no code"), http.StatusBadRequest},
		{"unauthorized", apperror.Unauthorized("no session"), http.StatusUnauthorized},
		{"forbidden", apperror.Forbidden("not yours"), http.StatusForbidden},
		{"not found", apperror.NotFound("user", "42"), http.StatusNotFound},
		{"conflict", apperror.Conflict("project", "1001"), http.StatusConflict},
		{"unsupported media", apperror.UnsupportedMedia("bad format"), http.StatusUnsupportedMediaType},
		{
			"wrapped validation",
			fmt.Errorf("service/user: %w", apperror.ValidationFailed("code", "no code")),
			http.StatusBadRequest,
		},
		{
			"github status propagates",
			fmt.Errorf("service/project: %w", &github.APIError{StatusCode: 422, Method: "POST", Path: "/user/repos", Message: "name already exists"}),
			422,
		},
		{
			"provisioning failure",
			&service.ProvisioningError{Step: service.StepStartImport, Err: errors.New("boom")},
			http.StatusBadRequest,
		},
		{
			"exchange failure",
			fmt.Errorf("service/user: exchanging code: %w", fmt.Errorf("%w: bad_verification_code", auth.ErrExchangeFailed)),
			http.StatusBadGateway,
		},
		{"unknown", errors.New("driver: bad connection"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Reason)
		})
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	resp := decodeEnvelope(t, rec)
	require.Equal(t, "internal error", resp.Reason)
	require.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestWriteErrorProvisioningReasonNamesStep(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &service.ProvisioningError{Step: service.StepAddCollaborator, Err: errors.New("blocked")})

	resp := decodeEnvelope(t, rec)
	require.Contains(t, resp.Reason, service.StepAddCollaborator)
}

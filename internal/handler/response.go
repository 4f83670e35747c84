package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/blabladev/devhub/internal/apperror"
	"github.com/blabladev/devhub/internal/auth"
	"github.com/blabladev/devhub/internal/github"
	"github.com/blabladev/devhub/internal/service"
)

// Every endpoint answers with the same envelope: {"success":true,"data":…}
// on success, {"success":false,"reason":…} on failure. The frontend branches
// on the success flag alone, so the shape must never vary.

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type failureEnvelope struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

// writeJSON sends any payload with the given status. Headers must be set
// before the first body write, hence the ordering here.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// Headers are already on the wire — nothing left to do but log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeSuccess wraps data in the success envelope.
func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

// writeError translates a domain error into an HTTP status and the failure
// envelope. The service layer stays protocol-agnostic; this is the one place
// its errors meet HTTP.
func writeError(w http.ResponseWriter, err error) {
	// Provisioning failures carry the step that broke; the reason string
	// names it so the frontend can tell "repo exists" from "invite failed".
	var provErr *service.ProvisioningError
	if errors.As(err, &provErr) {
		writeJSON(w, http.StatusBadRequest, failureEnvelope{
			Success: false,
			Reason:  provErr.Error(),
		})
		return
	}

	// A failed code exchange means GitHub rejected us, not the client.
	if errors.Is(err, auth.ErrExchangeFailed) {
		writeJSON(w, http.StatusBadGateway, failureEnvelope{
			Success: false,
			Reason:  "authorization code exchange failed",
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, apperror.ErrUnsupportedMedia):
			status = http.StatusUnsupportedMediaType
		}
		writeJSON(w, status, failureEnvelope{Success: false, Reason: appErr.Message})
		return
	}

	// GitHub refused a call we relayed for the user — pass its status on.
	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.StatusCode, failureEnvelope{
			Success: false,
			Reason:  apiErr.Message,
		})
		return
	}

	// Unknown error: never leak internals (paths, SQL, tokens) to the client.
	slog.Error("unhandled error in handler", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, failureEnvelope{
		Success: false,
		Reason:  "internal error",
	})
}

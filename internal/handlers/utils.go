package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hotelbook/apiserver/internal/auth"
	"github.com/hotelbook/apiserver/internal/services"
	"github.com/hotelbook/apiserver/internal/store"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is a simple error payload. Fields is set for validation
// failures only.
type ErrorResponse struct {
	Error  string                `json:"error"`
	Fields []services.FieldError `json:"fields,omitempty"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserIDFromContext returns the authenticated user injected by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok || strings.TrimSpace(subject) == "" {
		return "", false
	}
	return subject, true
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextSubjectKey, userID)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		slog.Error("encode response", "error", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "something went wrong"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a service or store error onto a status code.
// Unexpected errors are logged and reported without detail. An empty
// notFound message falls back to "not found".
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateUser):
		writeError(w, http.StatusBadRequest, "user already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "invalid credentials")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, store.ErrNotFound):
		if notFound == "" {
			notFound = "not found"
		}
		writeError(w, http.StatusNotFound, notFound)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/homeinspect/internal/auth"
	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/service"
)

const maxJSONBody = 1 << 20

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// writeError maps service and auth errors onto HTTP statuses. Anything not
// recognised is logged and reported as a 500 without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *form.ValidationError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field}, s.logger)
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()}, s.logger)
	case errors.Is(err, auth.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not signed in"}, s.logger)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()}, s.logger)
	case errors.Is(err, service.ErrForbiddenPath):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()}, s.logger)
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"}, s.logger)
	case errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Field: "email"}, s.logger)
	case errors.Is(err, service.ErrTooLarge), errors.As(err, &mbe):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "image too large"}, s.logger)
	case errors.Is(err, service.ErrUnsupportedType):
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: err.Error()}, s.logger)
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"}, s.logger)
	}
}

// requireUser returns the signed-in user or writes a 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		s.writeError(w, r, auth.ErrUnauthenticated)
		return nil, false
	}
	return user, true
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}

package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"avalia/internal/platform/requestcontext"
	dErrors "avalia/pkg/domain-errors"
)

// DecodeJSON decodes a JSON request body into the target type.
// Returns the decoded value and true on success.
// On failure, writes an error response and returns nil, false.
//
// Usage:
//
//	req, ok := shared.DecodeJSON[submitRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode request body",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &req, true
}

// RequireUserID extracts the authenticated user ID from context. A miss here
// means a route was mounted without the auth middleware.
func RequireUserID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	id, found := requestcontext.UserID(r.Context())
	if !found {
		logger.ErrorContext(r.Context(), "user id missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return uuid.Nil, false
	}
	return id, true
}

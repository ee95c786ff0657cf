package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	pkgerrors "coursegraph/pkg/errors"
)

// maxJSONBody caps JSON request bodies
const maxJSONBody = 1 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError renders err with its AppError status and message, falling
// back to a 500 with fallback for anything else.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	respondJSON(w, logger, pkgerrors.StatusOf(err), errorResponse{
		Success: false,
		Error:   pkgerrors.MessageOf(err, fallback),
	})
}

// decodeJSON reads a JSON body into v. Malformed bodies are a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return pkgerrors.NewValidationError("Invalid request body").WithCause(err)
	}
	return nil
}

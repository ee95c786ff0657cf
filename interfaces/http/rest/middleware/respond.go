package middleware

import (
	"encoding/json"
	"net/http"
)

// respondWithError writes the {success:false, error} body every API route uses
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

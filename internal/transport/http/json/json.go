// Package json holds the response writing helper shared by all handlers.
package json

import (
	"encoding/json"
	"net/http"
)

// WriteJSON sets the content type, writes the status and encodes response.
// A nil response writes the status line only.
func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if response == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// best-effort fallback; don't override status for the caller
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

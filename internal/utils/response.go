package utils

import (
	"encoding/json"
	"net/http"

	"ms-storefront/internal/models"
)

// WriteJSON encodes data with the given status. Encoding errors are returned
// so handlers can log them; the status line is already sent at that point.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError sends the public {"error": msg} body.
func WriteError(w http.ResponseWriter, status int, msg string) error {
	return WriteJSON(w, status, models.ErrorResponse{Error: msg})
}

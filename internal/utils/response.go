package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"museum-visits/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// SendJSONResponse writes data as a JSON body with the given status
func SendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encoding failure cannot be reported.
	_ = json.NewEncoder(w).Encode(data)
}

// StatusFor maps domain errors onto HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// SendError answers with the status matching err. Server-side failures
// never leak their cause to the client.
func SendError(w http.ResponseWriter, err error) int {
	status := StatusFor(err)
	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		message = "Storage is temporarily unavailable"
	case http.StatusInternalServerError:
		message = "Internal server error"
	}
	SendJSONResponse(w, status, ErrorResponse{Error: message})
	return status
}

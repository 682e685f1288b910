package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"EnviroMonitorAPI/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		return
	}
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses:
// not-found 404, invalid-state 409, validation 400, anything else 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError

	switch {
	case errors.Is(err, models.ErrAlertNotFound), errors.Is(err, models.ErrStationNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrAlertNotActive):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

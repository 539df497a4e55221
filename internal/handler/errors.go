package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
)

// writeError maps the domain error taxonomy onto HTTP status codes.
// Unknown errors stay 500 so "database unavailable" is never dressed up as
// a domain condition.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr    *appErrors.ErrValidation
		invalidStateErr  *appErrors.ErrInvalidStateTransition
		alreadySending   *appErrors.ErrAlreadySending
		noEligible       *appErrors.ErrNoEligibleRecipients
	)

	status := http.StatusInternalServerError
	switch {
	case appErrors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &invalidStateErr):
		status = http.StatusConflict
	case errors.As(err, &alreadySending):
		status = http.StatusConflict
	case errors.As(err, &noEligible):
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

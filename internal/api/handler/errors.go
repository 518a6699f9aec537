package handler

import (
	"net/http"

	"github.com/mcoot/handgame/internal/api/apierr"
)

// WriteError writes the API error response for err
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates a 400 error with the given message
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/urlchat-backend/internal/entity"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Can't change response at this point, just log
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Error writes an error response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// Success writes a success response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DomainError maps domain sentinel errors to HTTP status codes.
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrGroupNotFound),
		errors.Is(err, entity.ErrURLNotFound),
		errors.Is(err, entity.ErrMessageNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrDuplicateGroupName),
		errors.Is(err, entity.ErrDuplicateURL),
		errors.Is(err, entity.ErrLastGroup),
		errors.Is(err, entity.ErrContextAttached):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrAskInProgress),
		errors.Is(err, entity.ErrUploadInProgress):
		Error(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, entity.ErrTooManyURLs),
		errors.Is(err, entity.ErrUnsupportedType),
		errors.Is(err, entity.ErrEmptyFile),
		errors.Is(err, entity.ErrReadFailure),
		errors.Is(err, entity.ErrBlankQuery),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFormat),
		errors.Is(err, entity.ErrInvalidParameter):
		Error(w, http.StatusBadRequest, err.Error())
	default:
		Error(w, http.StatusInternalServerError, err.Error())
	}
}

package entity

import "errors"

// Domain errors
var (
	// Group errors
	ErrGroupNotFound      = errors.New("group not found")
	ErrDuplicateGroupName = errors.New("group name already exists")
	ErrLastGroup          = errors.New("cannot remove the last remaining group")
	ErrTooManyURLs        = errors.New("too many urls in group")
	ErrDuplicateURL       = errors.New("url already in group")
	ErrURLNotFound        = errors.New("url not in group")

	// Upload / extraction errors
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrReadFailure      = errors.New("failed to read file content")
	ErrContextAttached  = errors.New("local context already attached")
	ErrUploadInProgress = errors.New("upload already processing")
	ErrEmptyFile        = errors.New("file is empty")

	// Chat errors
	ErrMessageNotFound = errors.New("message not found")
	ErrAskInProgress   = errors.New("a request is already pending")
	ErrBlankQuery      = errors.New("query must not be blank")

	// Gateway errors
	ErrMissingCredential = errors.New("generation api credential is not configured")
	ErrInvalidCredential = errors.New("generation api credential is invalid")
	ErrQuotaExceeded     = errors.New("generation api quota exceeded")
	ErrUpstream          = errors.New("generation api request failed")
	ErrSuggestionParse   = errors.New("malformed suggestion response")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)

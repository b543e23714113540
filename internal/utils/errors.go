package utils

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a failure so transport code can pick a status and
// message without inspecting error text.
type ErrorKind string

const (
	KindClientInput       ErrorKind = "client_input"
	KindContentValidation ErrorKind = "content_validation"
	KindConfiguration     ErrorKind = "configuration"
	KindAuthentication    ErrorKind = "authentication"
	KindQuota             ErrorKind = "quota"
	KindRateLimit         ErrorKind = "rate_limit"
	KindResponseFormat    ErrorKind = "response_format"
	KindUnknown           ErrorKind = "unknown"
)

type AppError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError derives the HTTP status from kind.
func NewAppError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{
		Kind:       kind,
		StatusCode: StatusForKind(kind),
		Message:    message,
		Err:        err,
	}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(KindClientInput, message, nil)
}

func NewContentError(message string) *AppError {
	return NewAppError(KindContentValidation, message, nil)
}

func NewInternalError(message string) *AppError {
	return NewAppError(KindUnknown, message, nil)
}

func StatusForKind(kind ErrorKind) int {
	switch kind {
	case KindClientInput, KindContentValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// KindOf reports the kind of the first AppError in err's chain.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindUnauthorized
	KindStore
)

// AppError is what handlers map to exactly one HTTP response.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func ValidationError(msg string) *AppError   { return &AppError{Kind: KindValidation, Message: msg} }
func NotFoundError(msg string) *AppError     { return &AppError{Kind: KindNotFound, Message: msg} }
func UnauthorizedError(msg string) *AppError { return &AppError{Kind: KindUnauthorized, Message: msg} }

func StoreError(msg string, err error) *AppError {
	return &AppError{Kind: KindStore, Message: msg, Err: err}
}

// RespondWithAppError writes err as {message} or, for store failures, {message, error}.
func RespondWithAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = StoreError("Internal server error.", err)
	}

	if appErr.Kind == KindStore || appErr.Status() == http.StatusInternalServerError {
		logrus.WithError(appErr.Err).Error(appErr.Message)
		body := M{"message": appErr.Message}
		if appErr.Err != nil {
			body["error"] = appErr.Err.Error()
		}
		RespondWithJSON(w, http.StatusInternalServerError, body)
		return
	}
	RespondWithError(w, appErr.Status(), appErr.Message)
}

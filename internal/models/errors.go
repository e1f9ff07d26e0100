package models

import (
	"errors"
	"net/http"
)

// ErrNotFound is returned by stores when a row does not exist.
var ErrNotFound = errors.New("not found")

// Kind classifies failures that cross the chat pipeline.
type Kind int

const (
	KindUnknown Kind = iota
	KindAdmissionDenied
	KindInvalidRequest
	KindUnauthorized
	KindConfiguration
	KindProviderFailure
	KindPersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindAdmissionDenied:
		return "admission-denied"
	case KindInvalidRequest:
		return "invalid-request"
	case KindUnauthorized:
		return "unauthorized"
	case KindConfiguration:
		return "configuration-error"
	case KindProviderFailure:
		return "provider-failure"
	case KindPersistenceFailure:
		return "persistence-failure"
	default:
		return "unknown-error"
	}
}

// Error is a classified failure. It maps to an HTTP status via StatusCode.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindAdmissionDenied:
		return http.StatusTooManyRequests
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

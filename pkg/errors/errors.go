package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/lib/pq"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrValidation, ErrBusinessRule:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken, ErrExpiredToken:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrValidation
	ErrBusinessRule
	ErrConflict
	ErrInvalidToken
	ErrExpiredToken
	ErrUnavailable
)

func NotFound(message string) *AppError {
	return &AppError{Code: ErrNotFound, Message: message}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{Code: ErrBadRequest, Message: message, Err: err}
}

// Validation carries the aggregated field messages of a failed validation.
func Validation(messages []string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: "Données invalides: " + strings.Join(messages, ", "),
	}
}

func BusinessRule(message string) *AppError {
	return &AppError{Code: ErrBusinessRule, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: ErrForbidden, Message: message}
}

func Conflict(message string, err error) *AppError {
	return &AppError{Code: ErrConflict, Message: message, Err: err}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrUnauthorized, Message: message}
}

func InvalidToken(err error) *AppError {
	return &AppError{Code: ErrInvalidToken, Message: "Token invalide", Err: err}
}

func ExpiredToken(err error) *AppError {
	return &AppError{Code: ErrExpiredToken, Message: "Token expiré", Err: err}
}

func Unavailable(err error) *AppError {
	return &AppError{Code: ErrUnavailable, Message: "Service temporairement indisponible", Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Code: ErrInternal, Message: "Erreur serveur", Err: err}
}

// As reports whether err carries an *AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an *AppError with the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// FromDB translates driver errors into the application taxonomy. Errors that
// already are *AppError, and unknown errors, are returned unchanged.
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return Conflict("Cette ressource existe déjà", err)
		case pqErr.Code == "23503":
			return BadRequest("Référence invalide", err)
		case pqErr.Code == "57014":
			return Unavailable(err)
		case pqErr.Code.Class() == "08":
			return Unavailable(err)
		}
		return err
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, syscall.ECONNREFUSED) {
		return Unavailable(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return Unavailable(err)
	}
	return err
}

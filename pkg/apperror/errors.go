// Package apperror defines the error kinds the API surfaces to callers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindAuthExchange     Kind = "auth_exchange"
	KindDuplicateAccount Kind = "duplicate_account"
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation"
	KindPlanLimit        Kind = "plan_limit"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrAuthExchange     = &Error{Kind: KindAuthExchange}
	ErrDuplicateAccount = &Error{Kind: KindDuplicateAccount}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrPlanLimit        = &Error{Kind: KindPlanLimit}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so wrapped errors compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func AuthExchange(message string, err error) error {
	return &Error{Kind: KindAuthExchange, Message: message, Err: err}
}

func DuplicateAccount(message string) error {
	return &Error{Kind: KindDuplicateAccount, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func PlanLimit(message string) error {
	return &Error{Kind: KindPlanLimit, Message: message}
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindDuplicateAccount, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPlanLimit:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

package domain

import (
	"errors"
	"fmt"
)

// Error kinds for the settlement core. Handlers map these to HTTP status;
// services wrap the underlying cause where one exists.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindAuthorization
	KindNotFound
	KindPersistence
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error            { return &Error{Kind: KindValidation, Msg: msg} }
func Conflict(msg string) error              { return &Error{Kind: KindConflict, Msg: msg} }
func Authorization(msg string) error         { return &Error{Kind: KindAuthorization, Msg: msg} }
func NotFound(msg string) error              { return &Error{Kind: KindNotFound, Msg: msg} }
func Persistence(msg string, err error) error { return &Error{Kind: KindPersistence, Msg: msg, Err: err} }

// KindOf returns the kind of err, or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }

package domain

import (
	"errors"
	"fmt"
)

// Code is the numeric tag carried by recoverable ledger errors.
type Code uint32

// Codes 1 through 5 keep the numbering clients of the bill ledger already rely on.
const (
	CodeNotFound         Code = 1
	CodeAlreadyFulfilled Code = 2
	CodeInvalidAmount    Code = 3
	CodeInvalidFrequency Code = 4
	CodeUnauthorized     Code = 5
	CodeNotActive        Code = 6
	CodeInvalidSchedule  Code = 7
)

// Category sentinels. Both *Error and *Abort match them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyFulfilled = errors.New("already fulfilled")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotActive        = errors.New("not active")
	ErrInvalidSchedule  = errors.New("invalid schedule")
)

var sentinels = map[Code]error{
	CodeNotFound:         ErrNotFound,
	CodeAlreadyFulfilled: ErrAlreadyFulfilled,
	CodeInvalidAmount:    ErrInvalidAmount,
	CodeInvalidFrequency: ErrInvalidFrequency,
	CodeUnauthorized:     ErrUnauthorized,
	CodeNotActive:        ErrNotActive,
	CodeInvalidSchedule:  ErrInvalidSchedule,
}

// Sentinel returns the category error for a code, or nil for unknown codes.
func (c Code) Sentinel() error {
	return sentinels[c]
}

// ErrorStyle selects how a ledger surfaces validation and lookup failures.
type ErrorStyle string

const (
	// StyleRecoverable returns a tagged *Error to the caller.
	StyleRecoverable ErrorStyle = "recoverable"
	// StyleAbort unwinds the whole invocation with an *Abort signal.
	StyleAbort ErrorStyle = "abort"
)

// Error is a recoverable, tagged ledger failure. Nothing has been mutated
// when an operation returns one.
type Error struct {
	Code    Code
	Message string
}

// NewError creates a tagged error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Is matches the category sentinel of the error code.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Code.Sentinel()
}

// Abort is the signal raised by abort-style ledgers. It is delivered as a
// panic and must be turned back into an error by Recover at the invocation
// boundary, which then discards every effect of the invocation.
type Abort struct {
	Code   Code
	Reason string
}

func (a *Abort) Error() string {
	return a.Reason
}

// Is matches the category sentinel of the abort code.
func (a *Abort) Is(target error) bool {
	return target != nil && target == a.Code.Sentinel()
}

// Recover runs fn and converts an *Abort panic into a returned error.
// Any other panic is re-raised.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(*Abort)
			if !ok {
				panic(r)
			}
			err = abort
		}
	}()
	return fn()
}

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownTrigger indicates an unrecognized [TriggerKind].
	ErrUnknownTrigger = errors.New(`lazyload: unsupported trigger`)

	// ErrMissingField indicates a field required by the trigger kind was not
	// provided.
	ErrMissingField = errors.New(`lazyload: missing required field`)

	// ErrInvalidField indicates a field value is out of range, or malformed.
	ErrInvalidField = errors.New(`lazyload: invalid field`)

	// ErrInapplicableField indicates a field was provided that has no meaning
	// for the trigger kind.
	ErrInapplicableField = errors.New(`lazyload: field not applicable to trigger`)

	// ErrUnsupported indicates the [Host] lacks a capability required by a
	// trigger, e.g. [ViewportHost].
	ErrUnsupported = errors.New(`lazyload: unsupported by host`)
)

// ConfigError is returned, synchronously, on invalid configuration, and
// wraps one of the sentinel errors of this package.
type ConfigError struct {
	// Cause is the underlying error, e.g. [ErrMissingField].
	Cause error

	// Kind is the trigger kind, if applicable.
	Kind TriggerKind

	// Field is the (Go) name of the offending field, if applicable.
	Field string

	// Index is the position within the trigger list, or -1.
	Index int
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Cause != nil {
		b.WriteString(e.Cause.Error())
	} else {
		b.WriteString(`lazyload: invalid configuration`)
	}
	if e.Index >= 0 {
		b.WriteString(`: trigger[`)
		b.WriteString(strconv.Itoa(e.Index))
		b.WriteByte(']')
	}
	if e.Kind != `` {
		b.WriteString(`: on=`)
		b.WriteString(strconv.Quote(string(e.Kind)))
	}
	if e.Field != `` {
		b.WriteString(`: field=`)
		b.WriteString(e.Field)
	}
	return b.String()
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is matches any *ConfigError, e.g. errors.Is(err, &ConfigError{}).
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

func configError(cause error, kind TriggerKind, field string) *ConfigError {
	return &ConfigError{Cause: cause, Kind: kind, Field: field, Index: -1}
}

// PanicError wraps a value recovered from a panicking [Loader].
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf(`lazyload: loader panic: %v`, e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TriggerError describes a trigger that could not be established, e.g. due
// to a host failure, see [Controller.Err].
type TriggerError struct {
	Cause error
	Kind  TriggerKind
	Index int
}

// Error implements the error interface.
func (e *TriggerError) Error() string {
	msg := `lazyload: trigger[` + strconv.Itoa(e.Index) + `] on=` + strconv.Quote(string(e.Kind)) + `: setup failed`
	if e.Cause != nil {
		msg += `: ` + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TriggerError) Unwrap() error {
	return e.Cause
}

// Is matches any *TriggerError, e.g. errors.Is(err, &TriggerError{}).
func (e *TriggerError) Is(target error) bool {
	_, ok := target.(*TriggerError)
	return ok
}

// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package rulings

import (
	"errors"
	"fmt"
)

// The engine reports three error kinds, mapped to API responses by the
// service layer:
//
//   - [NotFoundError]: an unknown uid or url, including base entries hidden
//     by an overlay tombstone (deleted entities don't exist unless the caller
//     explicitly asks for them).
//   - [FormatError]: structurally invalid input, such as a malformed
//     reference uid, an unresolvable inline token or an empty required field.
//   - [ConsistencyError]: well-formed input violating a cross-entity rule,
//     such as a duplicate name or url, or a date outside the source's tenure.
//
// A failed mutator never corrupts the overlay: construction happens on
// copies, committed only on full success.

// NotFoundError reports a lookup miss for a uid or url.
type NotFoundError struct {
	Kind string // "reference", "group", "ruling", "card"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func notFound(kind, key string) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}

// IsNotFound reports whether err is a [NotFoundError].
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// FormatError reports structurally invalid input.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return e.Msg }

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err is a [FormatError].
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// ConsistencyError reports a cross-entity rule violation.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string { return e.Msg }

func consistencyErrorf(format string, args ...any) *ConsistencyError {
	return &ConsistencyError{Msg: fmt.Sprintf(format, args...)}
}

// IsConsistencyError reports whether err is a [ConsistencyError].
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package apperror

import (
	"errors"
	"fmt"
)

// Error is the framework's typed error. It carries enough information for
// an exception filter to build a complete HTTP response without having to
// re-derive a status code or message from a generic error value.
type Error struct {
	Kind    Kind   // taxonomy bucket, e.g. KindValidation
	Status  int    // HTTP status; zero means "use Kind's default"
	Message string // human-readable message, safe to show to clients
	Details any    // structured, optional (field errors, limits exceeded, ...)
	Cause   error  // wrapped underlying error, optional
}

// New creates an *Error of the given kind with the default status for that
// kind and the supplied message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: kind.defaultStatus(), Message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates an *Error of the given kind that wraps cause, using cause's
// message unless message is non-empty.
func Wrap(kind Kind, cause error, message string) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Status: kind.defaultStatus(), Message: message, Cause: cause}
}

// WithStatus returns a copy of e with an explicit HTTP status overriding the
// Kind's default.
func (e *Error) WithStatus(status int) *Error {
	c := *e
	c.Status = status
	return &c
}

// WithDetails returns a copy of e carrying structured details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Kind)
}

// Unwrap exposes Cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus implements the ErrorType interface so *Error participates in
// the same optional-interface contract as any other domain error.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.defaultStatus()
}

// Code implements the ErrorCode interface, returning the Kind as a
// machine-readable code.
func (e *Error) Code() string { return string(e.Kind) }

// KindOf walks err's Unwrap chain looking for an *Error and returns its
// Kind, or KindInternal if none is found.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status that should be used for err: the status
// of the first *Error or ErrorType found in its Unwrap chain, or 500.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return 500
}

// Sentinel errors for the pipeline's own invariants (spec.md §4.E/§3).
var (
	ErrPipelineMisuse      = New(KindPipelineMisuse, "next called more than once by the same middleware frame")
	ErrResponseAlreadySent = New(KindResponseAlreadySent, "a terminal response operation already completed for this request")
)

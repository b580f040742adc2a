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
	"net/http"
)

// Response is a fully-formed HTTP error response, ready to be written.
type Response struct {
	Status      int
	ContentType string
	Body        map[string]any
	Headers     http.Header
}

// ErrorType allows a foreign error to declare its own HTTP status.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows a foreign error to expose structured details.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows a foreign error to expose a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// Filter is a predicate-matched transformer from an error to a Response.
// ok is false when the filter does not apply, in which case Chain tries
// the next filter.
type Filter func(req *http.Request, err error) (resp Response, ok bool)

// Chain is an ordered list of Filters, the first whose predicate accepts
// wins. A Chain built with DefaultChain always ends in a catch-all filter,
// so every error is claimed by one of its filters.
type Chain struct {
	filters []Filter
	mode    Mode
}

// Mode toggles whether responses include internal diagnostic detail.
type Mode bool

const (
	// Production strips Details/Cause from the response body.
	Production Mode = false
	// Development includes Details and the wrapped cause's message.
	Development Mode = true
)

// NewChain builds a Chain from explicit filters, evaluated in order.
func NewChain(mode Mode, filters ...Filter) *Chain {
	return &Chain{filters: filters, mode: mode}
}

// DefaultChain returns the framework's standard chain: a single filter that
// understands *apperror.Error and the ErrorType/ErrorDetails/ErrorCode
// optional interfaces, falling back to KindInternal/500 for anything else.
// This mirrors the teacher's Simple formatter (errors/simple.go) generalized
// with a typed Kind instead of a bare status code.
func DefaultChain(mode Mode) *Chain {
	return NewChain(mode, CatchAll(mode))
}

// CatchAll returns a Filter that always matches, formatting err with
// simpleFormat under the given mode. It is the filter DefaultChain installs
// as its tail; use it directly when building a custom Chain that still
// wants the standard fallback formatting at a specific mode.
func CatchAll(mode Mode) Filter {
	return func(_ *http.Request, err error) (Response, bool) {
		return simpleFormat(err, mode), true
	}
}

// Add appends a Filter to the end of the chain. It is not placed ahead of an
// existing catch-all, so a filter added after one is never consulted.
func (c *Chain) Add(f Filter) { c.filters = append(c.filters, f) }

// Resolve runs the chain's filters in order and returns the first match.
// When no filter in the chain claims the error (chain built without
// DefaultChain's catch-all), Resolve falls back to an internal-error
// response so every error still resolves to some response, per spec.md
// §4.H's "catch-all filter at the tail guarantees every error maps to a
// status."
func (c *Chain) Resolve(req *http.Request, err error) Response {
	for _, f := range c.filters {
		if resp, ok := f(req, err); ok {
			return resp
		}
	}
	return simpleFormat(err, c.mode)
}

// simpleFormat builds the {success:false, error, code, details?} body
// documented in spec.md §6.
func simpleFormat(err error, mode Mode) Response {
	status := 500
	kind := KindInternal
	var details any

	var ae *Error
	switch {
	case errors.As(err, &ae):
		status = ae.HTTPStatus()
		kind = ae.Kind
		details = ae.Details
	default:
		var typed ErrorType
		if errors.As(err, &typed) {
			status = typed.HTTPStatus()
		}
		var coded ErrorCode
		if errors.As(err, &coded) {
			kind = Kind(coded.Code())
		}
		var detailed ErrorDetails
		if errors.As(err, &detailed) {
			details = detailed.Details()
		}
	}

	body := map[string]any{
		"success": false,
		"error":   err.Error(),
		"code":    status,
	}
	if mode == Development {
		body["kind"] = string(kind)
		if details != nil {
			body["details"] = details
		}
	}

	return Response{
		Status:      status,
		ContentType: "application/json; charset=utf-8",
		Body:        body,
	}
}

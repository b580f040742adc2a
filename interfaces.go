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

package kestrel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Observability is unified through the ObservabilityRecorder interface (see observability.go).
//
// For request-level observability, use ObservabilityRecorder which combines:
//   - Metrics collection
//   - Distributed tracing
//   - Access logging
//   - Request-scoped logger creation
//
// For handler-level custom metrics and tracing, use ContextMetricsRecorder and
// ContextTracingRecorder which remain available through Context.

// ContextMetricsRecorder interface for context-level metrics recording.
// This interface provides methods that can be called from Context
// to record custom metrics.
type ContextMetricsRecorder interface {
	// RecordMetric records a custom histogram metric with the given name and value.
	RecordMetric(ctx context.Context, name string, value float64, attributes ...attribute.KeyValue)

	// IncrementCounter increments a custom counter metric with the given name.
	IncrementCounter(ctx context.Context, name string, attributes ...attribute.KeyValue)

	// SetGauge sets a custom gauge metric with the given name and value.
	SetGauge(ctx context.Context, name string, value float64, attributes ...attribute.KeyValue)
}

// ContextTracingRecorder interface for context-level tracing recording.
// This interface provides methods that can be called from Context
// to interact with tracing.
type ContextTracingRecorder interface {
	// TraceID returns the current trace ID from the active span.
	// Returns an empty string if tracing is not active.
	TraceID() string

	// SpanID returns the current span ID from the active span.
	// Returns an empty string if tracing is not active.
	SpanID() string

	// SetSpanAttribute adds an attribute to the current span.
	// This is a no-op if tracing is not active.
	SetSpanAttribute(key string, value any)

	// AddSpanEvent adds an event to the current span with optional attributes.
	// This is a no-op if tracing is not active.
	AddSpanEvent(name string, attrs ...attribute.KeyValue)

	// TraceContext returns the OpenTelemetry trace context.
	// This can be used for manual span creation or context propagation.
	// If tracing is not enabled, it returns the request context for proper cancellation support.
	TraceContext() context.Context
}

// RequestMetrics interface for request-level metrics tracking.
// This interface abstracts the metrics data structure used during request processing.
// It is implemented by the metrics package and returned by StartRequest().
// The interface is intentionally minimal to allow for flexible implementations.
type RequestMetrics interface {
	// GetStartTime returns the request start time.
	GetStartTime() any

	// GetRequestSize returns the request size in bytes.
	GetRequestSize() int64

	// GetAttributes returns the request attributes.
	GetAttributes() []attribute.KeyValue
}

// ParameterReader defines the interface for reading request parameters,
// query strings, form values, cookies, and other request data.
//
// Example usage:
//
//	func processRequest(reader ParameterReader) {
//	    userID := reader.Param("id")
//	    page := reader.Query("page")
//	}
type ParameterReader interface {
	// Param returns the value of the URL path parameter by key.
	// Returns empty string if the parameter is not found.
	Param(key string) string

	// Query returns the value of the URL query parameter by key.
	// For parameters with multiple values, returns the last value.
	Query(key string) string

	// QueryDefault returns the query parameter value, or defaultValue if absent.
	QueryDefault(key, defaultValue string) string

	// FormValue returns the value of the form field by key.
	// Handles both application/x-www-form-urlencoded and multipart/form-data.
	FormValue(key string) string

	// FormValueDefault returns the form field value, or defaultValue if absent.
	FormValueDefault(key, defaultValue string) string

	// AllParams returns a copy of all URL path parameters.
	AllParams() map[string]string

	// AllQueries returns all query parameters as a map. For parameters with
	// multiple values, returns the last value.
	AllQueries() map[string]string

	// GetCookie returns the value of the named cookie, or an error if absent.
	GetCookie(name string) (string, error)
}

// ResponseWriter defines the interface for writing HTTP responses. All
// response methods return errors explicitly; callers must check and handle
// them.
//
// Example:
//
//	if err := c.JSON(200, user); err != nil {
//	    slog.ErrorContext(c.Request.Context(), "failed to write json", "err", err)
//	    return
//	}
type ResponseWriter interface {
	JSON(code int, obj any) error
	IndentedJSON(code int, obj any) error
	PureJSON(code int, obj any) error
	SecureJSON(code int, obj any, prefix ...string) error
	ASCIIJSON(code int, obj any) error
	String(code int, value string) error
	Stringf(code int, format string, values ...any) error
	HTML(code int, html string) error
	YAML(code int, obj any) error
	Data(code int, contentType string, data []byte) error

	Status(code int)
	Header(key, value string)
	Redirect(code int, location string)
	NoContent()
	SetCookie(name, value string, maxAge int, path, domain string, secure, httpOnly bool)
}

// ContextReader combines ParameterReader with methods that read
// context-specific metadata such as version and route pattern.
type ContextReader interface {
	ParameterReader

	// Version returns the current API version (e.g., "v1", "v2").
	Version() string

	// IsVersion checks if the current API version matches version.
	IsVersion(version string) bool

	// RoutePattern returns the matched route pattern, e.g. "/users/:id".
	RoutePattern() string
}

// ContextWriter is ResponseWriter under a context-scoped name, kept distinct
// so call sites can document intent (reading vs writing) even though today
// it adds nothing to the embedded interface.
type ContextWriter interface {
	ResponseWriter
}

// Ensure Context implements all interfaces at compile time.
var (
	_ ParameterReader = (*Context)(nil)
	_ ResponseWriter  = (*Context)(nil)
	_ ContextReader   = (*Context)(nil)
	_ ContextWriter   = (*Context)(nil)
)

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

import "net/http"

// Kind identifies the taxonomy of a framework error. Each Kind maps to a
// single default HTTP status; handlers may still override the status via
// WithStatus when an error carries a more specific code.
type Kind string

// The kinds mirror the error taxonomy table: parser rejection, routing
// misses, capacity limits, and unhandled exceptions each get one Kind.
const (
	KindValidation          Kind = "validation"
	KindBadRequest          Kind = "bad-request"
	KindAuthentication      Kind = "authentication"
	KindAuthorization       Kind = "authorization"
	KindNotFound            Kind = "not-found"
	KindMethodNotAllowed    Kind = "method-not-allowed"
	KindRequestTimeout      Kind = "request-timeout"
	KindConflict            Kind = "conflict"
	KindPayloadTooLarge     Kind = "payload-too-large"
	KindUnsupportedMedia    Kind = "unsupported-media-type"
	KindRateLimit           Kind = "rate-limit"
	KindInternal            Kind = "internal"
	KindNotImplemented      Kind = "not-implemented"
	KindServiceUnavailable  Kind = "service-unavailable"
	KindPipelineMisuse      Kind = "pipeline-misuse"
	KindResponseAlreadySent Kind = "response-already-sent"
)

// defaultStatus returns the HTTP status associated with a Kind. Kinds with
// no direct HTTP analogue (pipeline-misuse, response-already-sent) map to
// 500 since they indicate a programming error in middleware, not a client
// or resource condition.
func (k Kind) defaultStatus() int {
	switch k {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindRequestTimeout:
		return http.StatusRequestTimeout
	case KindConflict:
		return http.StatusConflict
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindNotImplemented:
		return http.StatusNotImplemented
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindInternal, KindPipelineMisuse, KindResponseAlreadySent:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

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
	"errors"

	"github.com/kestrel-http/kestrel/apperror"
)

// Sentinel errors a request can actually produce are built on *apperror.Error
// so that errors.Is still pairs them up (apperror.Error.Unwrap is a no-op
// here, but HTTPStatus/Code give a caller routing through apperror.DefaultChain
// the same classification c.WriteErrorResponse would have picked by hand) and
// a handler can still pattern-match with errors.Is/errors.As exactly as it
// would against a plain sentinel. Errors that only ever signal a programming
// or startup mistake (nothing an HTTP client triggers) stay plain errors.New -
// there is no response to classify.
var (
	// Context errors
	ErrContextResponseNil    error = apperror.New(apperror.KindInternal, "context response is nil")
	ErrContentTypeNotAllowed error = apperror.New(apperror.KindUnsupportedMedia, "content type not allowed")

	// Request errors
	ErrFileNotFound error = apperror.New(apperror.KindNotFound, "file not found")
	ErrNoFilesFound error = apperror.New(apperror.KindNotFound, "no files found for key")

	// Router errors
	ErrResponseWriterNotHijacker = errors.New("responseWriter does not implement http.Hijacker")

	// Router configuration errors
	ErrBloomFilterSizeZero       = errors.New("bloom filter size must be non-zero")
	ErrBloomHashFunctionsInvalid = errors.New("bloom hash functions must be positive")

	// Route errors
	ErrRoutesNotFrozen       = errors.New("routes not frozen yet")
	ErrRouteNotFound         error = apperror.New(apperror.KindNotFound, "route not found")
	ErrMissingRouteParameter error = apperror.New(apperror.KindBadRequest, "missing required parameter")

	// JSON parsing errors
	ErrMultipleJSONValues error = apperror.New(apperror.KindBadRequest, "request body must contain a single JSON value")
	ErrExpectedJSONArray  error = apperror.New(apperror.KindBadRequest, "expected a JSON array")
	ErrArrayExceedsMax    error = apperror.New(apperror.KindValidation, "array exceeds maximum items")

	// Validation errors
	ErrCannotValidateNilValue     = errors.New("cannot validate nil value")
	ErrCannotValidateInvalidValue = errors.New("cannot validate invalid value")
	ErrUnknownValidationStrategy  = errors.New("unknown validation strategy")
	ErrCannotRegisterValidators   = errors.New("cannot register validators after first use")

	// Test errors (for test files)
	ErrInvalidUUIDFormat    = errors.New("invalid UUID format: must be 36 characters")
	ErrReadError            = errors.New("read error")
	ErrBindingFailed        = errors.New("binding failed")
	ErrCookieNotFound       = errors.New("cookie not found")
	ErrUserIDRequired       = errors.New("user ID is required")
	ErrPageParameterInvalid = errors.New("page parameter is invalid")
	ErrInvalidType          = errors.New("invalid type")
	ErrCustomNameRequired   = errors.New("custom: name is required")
	ErrGenericValidation    = errors.New("generic validation error")
	ErrOuterError           = errors.New("outer error")
	ErrGenericError         = errors.New("generic error")
	ErrQueryInvalidInteger  = errors.New("query: invalid integer")
)

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

package ws

import "github.com/kestrel-http/kestrel/apperror"

// Handshake errors, returned by Upgrade before any bytes reach the wire.
// Callers translate these into ordinary HTTP error responses.
var (
	ErrNotWebSocket       = apperror.New(apperror.KindValidation, "not a websocket upgrade request")
	ErrUnsupportedVersion = apperror.New(apperror.KindValidation, "unsupported Sec-WebSocket-Version, only 13 is supported")
	ErrOriginNotAllowed   = apperror.New(apperror.KindAuthorization, "origin not allowed")
	ErrTooManyConnections = apperror.New(apperror.KindServiceUnavailable, "too many open websocket connections")
	ErrHijackNotSupported = apperror.New(apperror.KindInternal, "response writer does not support hijacking")
)

// Connection errors, returned once a *Conn is open.
var (
	ErrClosed                 = apperror.New(apperror.KindInternal, "websocket connection is closed")
	ErrMessageTooLarge        = apperror.New(apperror.KindValidation, "websocket message exceeds configured maximum size")
	ErrInvalidFrame           = apperror.New(apperror.KindValidation, "invalid websocket frame")
	ErrUnexpectedContinuation = apperror.New(apperror.KindValidation, "unexpected continuation frame")
)

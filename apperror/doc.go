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

// Package apperror provides the typed error taxonomy used across the
// framework and the exception-filter machinery that turns any error into
// an HTTP response.
//
// Every error surfaced by routing, the body parser, or a handler is (or can
// be converted to) an *Error carrying a Kind, an HTTP Status, a Message and
// optional Details. A Chain of Filters maps an arbitrary error to a
// Response, with a catch-all filter guaranteeing every error resolves to
// some response.
//
// # Quick start
//
//	chain := apperror.DefaultChain(apperror.Development)
//	resp := chain.Resolve(req, err)
//	w.Header().Set("Content-Type", resp.ContentType)
//	w.WriteHeader(resp.Status)
//	json.NewEncoder(w).Encode(resp.Body)
package apperror

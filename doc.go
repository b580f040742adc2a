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

// Package kestrel provides an HTTP router for Go.
//
// The router implements a routing system for cloud-native applications.
// It features path matching, parameter extraction, and comprehensive middleware support.
//
// # Key Features
//
//   - Path matching for static and parameterized routes
//   - Parameter extraction from URL paths
//   - Context pooling for request handling
//   - Route grouping for hierarchical API organization
//   - Template-based routing for route patterns
//   - API versioning support (path, header, query, Accept-based)
//   - OpenTelemetry tracing and metrics integration
//   - Comprehensive request binding (query, params, headers, cookies, body)
//   - Tag-based checks during binding (required fields, enum values)
//   - Content negotiation (Accept, Accept-Language, Accept-Encoding)
//   - Built-in middleware (CORS, compression, rate limiting, etc.)
//
// # Routing Details
//
//   - Static routes: Exact path matching
//   - Parameterized routes: Segment-based matching
//
// # Constructor Pattern
//
// The router follows a pragmatic constructor pattern:
//
//   - New() returns (*Router, error) because some options (bloom filter sizing,
//     versioning configuration) can be misconfigured. MustNew() wraps New() and
//     panics on error, for callers who prefer to fail fast at startup.
//
//   - Options are validated once, during New(), rather than lazily at request time.
//
//   - All configuration options use the "With" prefix for consistency (e.g., WithH2C, WithVersioning).
//
//   - Grouping options (e.g., WithServerTimeouts) accept multiple related settings to reduce API surface.
//
// This pattern differs from packages that initialize external resources (metrics, tracing, logging),
// which return errors because they may fail to connect to backends or validate complex configurations.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "net/http"
//	    "github.com/kestrel-http/kestrel"
//	)
//
//	func main() {
//	    r := kestrel.MustNew()
//
//	    r.GET("/", func(c *kestrel.Context) {
//	        c.JSON(http.StatusOK, map[string]string{"message": "Hello World"})
//	    })
//
//	    r.GET("/users/:id", func(c *kestrel.Context) {
//	        c.JSON(http.StatusOK, map[string]string{"user_id": c.Param("id")})
//	    })
//
//	    http.ListenAndServe(":8080", r)
//	}
//
// # Request Binding
//
// The router provides comprehensive request binding with support for 15+ types:
//
//	type UserRequest struct {
//	    ID    int    `path:"id"`
//	    Name  string `query:"name"`
//	    Email string `json:"email"`
//	}
//
//	func handler(c *kestrel.Context) {
//	    var req UserRequest
//	    if err := c.BindParams(&req); err != nil {
//	        c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
//	        return
//	    }
//	    // BindQuery and BindJSON fill the query and json fields the same way
//	    // Use req...
//	}
//
// # Middleware
//
// Middleware can be applied globally, to route groups, or to individual routes:
//
//	r.Use(accesslog.New())
//	r.Use(recovery.New())
//
//	api := r.Group("/api")
//	api.Use(basicauth.New(basicauth.WithValidator(checkCredentials)))
//	api.GET("/users", handler)
//
// # API Versioning
//
// The router supports multiple versioning strategies:
//
//	r := kestrel.MustNew(
//	    kestrel.WithVersioning(
//	        version.WithPathDetection("/v{version}/"),
//	        version.WithHeaderDetection("X-API-Version"),
//	    ),
//	)
//
// # Content Negotiation
//
// The router implements RFC 7231-compliant content negotiation.
// Content negotiation allows HTTP servers to serve different representations
// of resources based on client preferences expressed in Accept-* headers.
//
// Supported Headers:
//
//   - Accept: MIME type negotiation (application/json, text/html, etc.)
//   - Accept-Charset: Character encoding negotiation (utf-8, iso-8859-1, etc.)
//   - Accept-Encoding: Compression negotiation (gzip, br, deflate, etc.)
//   - Accept-Language: Language negotiation (en, fr, es, etc.)
//
// Usage Examples:
//
// Basic content type negotiation:
//
//	r.GET("/users/:id", func(c *kestrel.Context) {
//	    switch c.Accepts("json", "html") {
//	    case "json":
//	        c.JSON(200, user)
//	    case "html":
//	        c.HTML(200, renderUserPage(user))
//	    default:
//	        c.Status(406) // Not Acceptable
//	    }
//	})
//
// Compression negotiation:
//
//	encoding := c.AcceptsEncodings("br", "gzip", "deflate")
//	if encoding != "" {
//	    c.Response.Header().Set("Content-Encoding", encoding)
//	    // ... compress response
//	}
//
// RFC 7231 Compliance:
//
//   - Quality values (q-values) respected: 0.0 to 1.0 range
//   - Specificity rules: exact > subtype wildcard > type wildcard
//   - Media type parameters ignored for matching (except 'q')
//   - Wildcards supported: */* and type/*
//   - Language prefix matching (e.g., "en" matches "en-US")
//
// # Observability
//
// Metrics, tracing and access logging plug in through one ObservabilityRecorder:
//
//	r := kestrel.MustNew()
//	r.SetObservabilityRecorder(recorder)
//
// # Examples
//
// Runnable examples are in the example_test.go files of this package and its
// subpackages; cmd/kestrel-echo is a small WebSocket echo server.
package kestrel

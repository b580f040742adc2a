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

// Package security provides a middleware that applies a baseline of
// security-related HTTP response headers (X-Frame-Options,
// X-Content-Type-Options, Content-Security-Policy, Strict-Transport-Security,
// Referrer-Policy, Permissions-Policy, and arbitrary custom headers).
package security

import (
	"fmt"
	"strings"

	"github.com/kestrel-http/kestrel"
)

// customHeader is a single extra header to apply, kept as an ordered pair
// rather than a map so repeated WithCustomHeader calls preserve order.
type customHeader struct {
	name  string
	value string
}

// Option defines functional options for security middleware configuration.
type Option func(*config)

type config struct {
	frameOptions          string
	contentTypeNosniff    bool
	xssProtection         string
	contentSecurityPolicy string
	referrerPolicy        string
	permissionsPolicy     string

	hstsMaxAge            int
	hstsIncludeSubDomains bool
	hstsPreload           bool

	customHeaders []customHeader
}

// defaultConfig returns the locked-down default used by New() with no options.
func defaultConfig() *config {
	return &config{
		frameOptions:          "DENY",
		contentTypeNosniff:    true,
		xssProtection:         "1; mode=block",
		contentSecurityPolicy: "default-src 'self'",
		referrerPolicy:        "strict-origin-when-cross-origin",
	}
}

// WithFrameOptions sets the X-Frame-Options header value (e.g. "DENY",
// "SAMEORIGIN"). An empty value suppresses the header.
func WithFrameOptions(value string) Option {
	return func(c *config) { c.frameOptions = value }
}

// WithContentTypeNosniff toggles the X-Content-Type-Options: nosniff header.
func WithContentTypeNosniff(enabled bool) Option {
	return func(c *config) { c.contentTypeNosniff = enabled }
}

// WithXSSProtection sets the X-XSS-Protection header value.
func WithXSSProtection(value string) Option {
	return func(c *config) { c.xssProtection = value }
}

// WithContentSecurityPolicy sets the Content-Security-Policy header value.
// An empty value suppresses the header.
func WithContentSecurityPolicy(policy string) Option {
	return func(c *config) { c.contentSecurityPolicy = policy }
}

// WithHSTS enables Strict-Transport-Security on requests served over TLS.
// maxAge is in seconds; maxAge <= 0 disables HSTS entirely.
func WithHSTS(maxAge int, includeSubDomains, preload bool) Option {
	return func(c *config) {
		c.hstsMaxAge = maxAge
		c.hstsIncludeSubDomains = includeSubDomains
		c.hstsPreload = preload
	}
}

// WithReferrerPolicy sets the Referrer-Policy header value.
func WithReferrerPolicy(policy string) Option {
	return func(c *config) { c.referrerPolicy = policy }
}

// WithPermissionsPolicy sets the Permissions-Policy header value.
func WithPermissionsPolicy(policy string) Option {
	return func(c *config) { c.permissionsPolicy = policy }
}

// WithCustomHeader appends an additional header to apply on every response.
// Multiple calls accumulate; they do not replace each other.
func WithCustomHeader(name, value string) Option {
	return func(c *config) {
		c.customHeaders = append(c.customHeaders, customHeader{name: name, value: value})
	}
}

// NoSecurityHeaders clears every built-in header, leaving only whatever
// custom headers were supplied via WithCustomHeader. Useful for handlers
// that want to set their own security headers manually.
func NoSecurityHeaders() Option {
	return func(c *config) {
		c.frameOptions = ""
		c.contentTypeNosniff = false
		c.xssProtection = ""
		c.contentSecurityPolicy = ""
		c.referrerPolicy = ""
		c.permissionsPolicy = ""
		c.hstsMaxAge = 0
	}
}

// DevelopmentPreset relaxes the default policy for local development: a
// permissive CSP allowing inline scripts/styles and eval, no HSTS, and
// SAMEORIGIN framing instead of DENY (so devtools/iframes embedded by a
// local dashboard still work).
func DevelopmentPreset() Option {
	return func(c *config) {
		c.frameOptions = "SAMEORIGIN"
		c.contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline' 'unsafe-eval'; style-src 'self' 'unsafe-inline'"
		c.hstsMaxAge = 0
	}
}

// New returns a middleware that applies a baseline of security response
// headers. With no options it applies a restrictive default: DENY framing,
// nosniff, a same-origin CSP, and strict-origin-when-cross-origin referrer
// policy. HSTS is opt-in via WithHSTS and only ever sent over TLS.
//
//	r := kestrel.MustNew()
//	r.Use(security.New())
//
// Tuned:
//
//	r.Use(security.New(
//	    security.WithHSTS(31536000, true, true),
//	    security.WithContentSecurityPolicy("default-src 'self'; img-src *"),
//	))
func New(opts ...Option) kestrel.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	hsts := ""
	if cfg.hstsMaxAge > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "max-age=%d", cfg.hstsMaxAge)
		if cfg.hstsIncludeSubDomains {
			b.WriteString("; includeSubDomains")
		}
		if cfg.hstsPreload {
			b.WriteString("; preload")
		}
		hsts = b.String()
	}

	return func(c *kestrel.Context) {
		h := c.Response.Header()

		if cfg.frameOptions != "" {
			h.Set("X-Frame-Options", cfg.frameOptions)
		}
		if cfg.contentTypeNosniff {
			h.Set("X-Content-Type-Options", "nosniff")
		}
		if cfg.xssProtection != "" {
			h.Set("X-XSS-Protection", cfg.xssProtection)
		}
		if cfg.contentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", cfg.contentSecurityPolicy)
		}
		if cfg.referrerPolicy != "" {
			h.Set("Referrer-Policy", cfg.referrerPolicy)
		}
		if cfg.permissionsPolicy != "" {
			h.Set("Permissions-Policy", cfg.permissionsPolicy)
		}
		if hsts != "" && c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", hsts)
		}
		for _, ch := range cfg.customHeaders {
			h.Set(ch.name, ch.value)
		}

		c.Next()
	}
}

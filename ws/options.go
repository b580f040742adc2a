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

import (
	"net/http"
	"sync/atomic"
	"time"
)

const (
	defaultMaxMessageSize = 16 << 20 // 16 MiB
	defaultHeartbeat      = 30 * time.Second
	defaultPongTimeout    = 60 * time.Second
)

// connCounter is a process-wide (or per-RoomManager, if shared) open
// connection counter used to enforce WithMaxConnections.
type connCounter struct {
	n int64
}

func (c *connCounter) inc()        { atomic.AddInt64(&c.n, 1) }
func (c *connCounter) dec()        { atomic.AddInt64(&c.n, -1) }
func (c *connCounter) count() int  { return int(atomic.LoadInt64(&c.n)) }

type config struct {
	origins        []string
	verifyClient   func(*http.Request) bool
	heartbeat      time.Duration
	pongTimeout    time.Duration
	maxMessageSize int64
	maxConnections int
	connCounter    *connCounter
	rooms          *RoomManager
	subprotocol    string
}

func defaultConfig() *config {
	return &config{
		heartbeat:      defaultHeartbeat,
		pongTimeout:    defaultPongTimeout,
		maxMessageSize: defaultMaxMessageSize,
		connCounter:    &connCounter{},
	}
}

// Option configures a WebSocket upgrade and the resulting Conn.
type Option func(*config)

// WithOrigins restricts the handshake to requests whose Origin header
// exactly matches one of the given values. It is equivalent to passing a
// WithVerifyClient callback that checks the Origin header.
func WithOrigins(origins ...string) Option {
	return func(c *config) {
		c.origins = origins
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[o] = struct{}{}
		}
		c.verifyClient = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

// WithVerifyClient installs a custom origin/request validator, overriding
// any previously configured WithOrigins check.
func WithVerifyClient(fn func(*http.Request) bool) Option {
	return func(c *config) {
		c.verifyClient = fn
	}
}

// WithHeartbeat sets the ping interval. The connection is closed with
// CloseAbnormalClosure if no pong is received within the pong timeout.
func WithHeartbeat(d time.Duration) Option {
	return func(c *config) {
		c.heartbeat = d
	}
}

// WithPongTimeout sets how long the connection waits for a pong reply
// after sending a ping before it closes the connection.
func WithPongTimeout(d time.Duration) Option {
	return func(c *config) {
		c.pongTimeout = d
	}
}

// WithMaxMessageSize caps the total size of a (possibly fragmented)
// message. Messages exceeding the limit cause the connection to close
// with CloseMessageTooBig.
func WithMaxMessageSize(n int64) Option {
	return func(c *config) {
		c.maxMessageSize = n
	}
}

// WithMaxConnections caps the number of simultaneously open connections
// sharing this counter. Upgrade returns ErrTooManyConnections once the
// limit is reached.
func WithMaxConnections(n int) Option {
	return func(c *config) {
		c.maxConnections = n
	}
}

// WithRooms attaches a shared RoomManager so connections upgraded through
// this option set can join and leave broadcast rooms together.
func WithRooms(rm *RoomManager) Option {
	return func(c *config) {
		c.rooms = rm
	}
}

// WithSubprotocol advertises the given value in Sec-WebSocket-Protocol on
// a successful handshake.
func WithSubprotocol(name string) Option {
	return func(c *config) {
		c.subprotocol = name
	}
}

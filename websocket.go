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
	"github.com/kestrel-http/kestrel/apperror"
	"github.com/kestrel-http/kestrel/ws"
)

// WS registers a WebSocket route. It behaves like GET: global and route
// middleware registered on the router or its group still run first, and
// the handler only receives control once the WebSocket handshake headers
// have been validated. The handshake itself (hijack + upgrade) happens
// inside the adapter before handler is invoked.
//
// Example:
//
//	r.WS("/chat", func(c *ws.Conn) {
//	    defer c.Close(ws.CloseNormalClosure, "")
//	    for {
//	        _, msg, err := c.ReadMessage()
//	        if err != nil {
//	            return
//	        }
//	        c.WriteText(string(msg))
//	    }
//	}, ws.WithOrigins("https://example.com"))
func (r *Router) WS(path string, handler ws.Handler, opts ...ws.Option) *Route {
	return r.GET(path, func(c *Context) {
		if !ws.IsUpgradeRequest(c.Request) {
			c.JSON(400, map[string]any{"success": false, "error": ws.ErrNotWebSocket.Error()})
			return
		}

		conn, err := ws.Upgrade(c.Response, c.Request, opts...)
		if err != nil {
			status := apperror.StatusOf(err)
			c.JSON(status, map[string]any{"success": false, "error": err.Error()})
			return
		}
		handler(conn)
	})
}

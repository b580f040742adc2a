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

// Command kestrel-echo is a small demonstration server exercising routing,
// middleware, typed parameter binding, the apperror exception chain, and a
// room-based WebSocket echo/broadcast endpoint.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/kestrel-http/kestrel"
	"github.com/kestrel-http/kestrel/apperror"
	"github.com/kestrel-http/kestrel/middleware/cors"
	"github.com/kestrel-http/kestrel/middleware/recovery"
	"github.com/kestrel-http/kestrel/middleware/requestid"
	"github.com/kestrel-http/kestrel/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	r, err := kestrel.New()
	if err != nil {
		logger.Error("failed to initialize router", "error", err)
		os.Exit(1)
	}

	r.Use(
		requestid.New(),
		recovery.New(),
		cors.New(),
	)

	errorChain := apperror.DefaultChain(apperror.Production)
	rooms := ws.NewRoomManager()

	r.GET("/healthz", func(c *kestrel.Context) {
		c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	})

	r.GET("/users/:id", func(c *kestrel.Context) {
		id, err := c.ParamInt("id")
		if err != nil {
			resp := errorChain.Resolve(c.Request, apperror.Wrap(apperror.KindValidation, err, "invalid user id"))
			c.JSON(resp.Status, resp.Body)
			return
		}
		c.JSON(http.StatusOK, map[string]any{"id": id})
	})

	r.WS("/ws/echo", func(conn *ws.Conn) {
		defer conn.Close(ws.CloseNormalClosure, "")
		conn.Join("lobby")
		defer conn.LeaveRoom("lobby")

		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				logger.Info("websocket connection closed", "remote", conn.RemoteAddr(), "error", err)
				return
			}
			rooms.Broadcast("lobby", messageType, data)
		}
	}, ws.WithRooms(rooms), ws.WithHeartbeat(0))

	addr := ":8080"
	logger.Info("kestrel-echo listening", "addr", addr)
	if err := r.Serve(addr); err != nil && err != http.ErrServerClosed {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

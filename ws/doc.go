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

// Package ws implements an RFC 6455 WebSocket server: handshake, frame
// codec, connection lifecycle, ping/pong heartbeat, and room-based
// broadcast. It shares the HTTP routing and middleware pipeline from the
// kestrel package — a WebSocket route is an ordinary route whose handler
// calls Upgrade once the handshake headers have been validated.
//
// # Handshake
//
// IsUpgradeRequest reports whether an *http.Request carries the headers
// RFC 6455 requires (Connection: Upgrade, Upgrade: websocket,
// Sec-WebSocket-Version: 13, Sec-WebSocket-Key). Upgrade performs the
// handshake, hijacks the underlying connection, and returns a *Conn.
//
// # Framing
//
// Frames are parsed and serialized per RFC 6455 §5: a 2-byte header
// carrying FIN/RSV/opcode/MASK/length, an optional 16- or 64-bit extended
// length, an optional 4-byte masking key, and the payload. Client frames
// must be masked; server frames must not be.
//
// # Rooms
//
// A RoomManager tracks named sets of connections behind a single mutex.
// Broadcast takes a snapshot of the target room under the lock, releases
// it, then writes to each connection — so a slow or blocked connection
// never holds up membership changes in other goroutines.
package ws

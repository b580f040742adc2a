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

// Message type / opcode constants, matching RFC 6455 §11.8 and the
// gorilla/websocket-compatible numbering documented by go-mizu/mizu's
// websocket middleware (TextMessage/BinaryMessage/CloseMessage/
// PingMessage/PongMessage = 1/2/8/9/10).
const (
	continuationFrame = 0x0
	TextMessage       = 0x1
	BinaryMessage     = 0x2
	closeFrame        = 0x8
	CloseMessage      = 0x8
	pingFrame         = 0x9
	PingMessage       = 0x9
	pongFrame         = 0xA
	PongMessage       = 0xA
)

// Close codes, RFC 6455 §7.4.1.
const (
	CloseNormalClosure           = 1000
	CloseGoingAway               = 1001
	CloseProtocolError           = 1002
	CloseUnsupportedData         = 1003
	CloseNoStatusReceived        = 1005
	CloseAbnormalClosure         = 1006
	CloseInvalidFramePayloadData = 1007
	ClosePolicyViolation         = 1008
	CloseMessageTooBig           = 1009
	CloseMandatoryExtension      = 1010
	CloseInternalServerErr       = 1011
)

func isControlOpcode(opcode byte) bool {
	return opcode == closeFrame || opcode == pingFrame || opcode == pongFrame
}

func isDataOpcode(opcode byte) bool {
	return opcode == TextMessage || opcode == BinaryMessage || opcode == continuationFrame
}

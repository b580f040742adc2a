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

import "sync"

// RoomManager tracks named sets of connections for broadcast. A zero-value
// RoomManager is ready to use. The same RoomManager can be shared across
// every Conn upgraded with WithRooms, so handlers in different goroutines
// can broadcast to connections they did not create.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]struct{}
}

// NewRoomManager returns a ready-to-use RoomManager.
func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[string]map[*Conn]struct{})}
}

// Join adds c to room, creating it if necessary.
func (rm *RoomManager) Join(room string, c *Conn) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.rooms == nil {
		rm.rooms = make(map[string]map[*Conn]struct{})
	}
	members, ok := rm.rooms[room]
	if !ok {
		members = make(map[*Conn]struct{})
		rm.rooms[room] = members
	}
	members[c] = struct{}{}

	c.roomsMu.Lock()
	c.joined[room] = struct{}{}
	c.roomsMu.Unlock()
}

// Leave removes c from room, deleting the room once it is empty.
func (rm *RoomManager) Leave(room string, c *Conn) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if members, ok := rm.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(rm.rooms, room)
		}
	}

	c.roomsMu.Lock()
	delete(c.joined, room)
	c.roomsMu.Unlock()
}

// Members returns the number of connections currently joined to room.
func (rm *RoomManager) Members(room string) int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms[room])
}

// Broadcast sends a message of the given type to every connection in room.
// The room's membership is snapshotted under the read lock and released
// before any write happens, so a slow or blocked connection cannot hold up
// Join/Leave calls from other goroutines. Write errors for individual
// connections are ignored; a dead connection will be pruned on its next
// failed read or explicit Close.
func (rm *RoomManager) Broadcast(room string, messageType int, data []byte) {
	rm.mu.RLock()
	members := rm.rooms[room]
	snapshot := make([]*Conn, 0, len(members))
	for c := range members {
		snapshot = append(snapshot, c)
	}
	rm.mu.RUnlock()

	for _, c := range snapshot {
		_ = c.WriteMessage(messageType, data)
	}
}

// leaveAllRooms removes c from every room it joined, called from Conn's
// close path so a dropped connection never lingers in broadcast sets.
func (c *Conn) leaveAllRooms() {
	if c.rooms == nil {
		return
	}
	c.roomsMu.Lock()
	joined := make([]string, 0, len(c.joined))
	for room := range c.joined {
		joined = append(joined, room)
	}
	c.roomsMu.Unlock()

	for _, room := range joined {
		c.rooms.Leave(room, c)
	}
}

// Join adds the connection to room on its configured RoomManager. It is a
// no-op if the connection was not upgraded with WithRooms.
func (c *Conn) Join(room string) {
	if c.rooms == nil {
		return
	}
	c.rooms.Join(room, c)
}

// LeaveRoom removes the connection from room on its configured RoomManager.
func (c *Conn) LeaveRoom(room string) {
	if c.rooms == nil {
		return
	}
	c.rooms.Leave(room, c)
}

// Copyright 2026 The Soli Authors
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

package dispatch

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"soli.dev/runtime/router"
)

// SocketHandler serves one upgraded websocket connection. The request
// has already passed the route's middleware chain; params and
// middleware context values are populated. Returning closes the
// connection.
type SocketHandler func(ctx context.Context, conn *Conn, req router.Request) error

// Event is the wire envelope for live-view channels. Both directions
// carry an event name and a JSON payload.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

const socketWriteTimeout = 10 * time.Second

// Conn wraps an upgraded websocket connection with JSON framing.
// Reads and writes may each be used from one goroutine at a time.
type Conn struct {
	ws *websocket.Conn
}

// ReadJSON reads the next text message into v.
func (c *Conn) ReadJSON(v any) error {
	return c.ws.ReadJSON(v)
}

// WriteJSON writes v as one text message.
func (c *Conn) WriteJSON(v any) error {
	c.ws.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
	return c.ws.WriteJSON(v)
}

// ReadEvent reads the next live-view event.
func (c *Conn) ReadEvent() (Event, error) {
	var ev Event
	err := c.ws.ReadJSON(&ev)
	return ev, err
}

// Send pushes a live-view event to the client.
func (c *Conn) Send(name string, payload any) error {
	return c.WriteJSON(Event{Name: name, Payload: payload})
}

// Close sends a normal close frame and closes the connection.
func (c *Conn) Close() error {
	deadline := time.Now().Add(socketWriteTimeout)
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.ws.Close()
}

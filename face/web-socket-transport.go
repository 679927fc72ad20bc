/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"net"

	"github.com/gorilla/websocket"
)

// WebSocketTransport communicates with a remote endpoint over a WebSocket connection.
// A dedicated reader goroutine feeds received messages through a channel drained by
// ProcessEvents, serializing all packet handling in the forwarder's goroutine.
type WebSocketTransport struct {
	conn      *websocket.Conn
	remoteURI string
	frames    chan []byte
	failure   chan error
}

// NewWebSocketTransport creates a WebSocket transport around an upgraded connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	t := new(WebSocketTransport)
	t.conn = conn
	t.remoteURI = "ws://" + conn.RemoteAddr().String()
	t.frames = make(chan []byte, 64)
	t.failure = make(chan error, 1)
	go t.runReceive()
	return t
}

func (t *WebSocketTransport) String() string {
	return "WebSocketTransport, RemoteURI=" + t.remoteURI
}

// IsLocal returns whether the remote endpoint is on the local host.
func (t *WebSocketTransport) IsLocal() bool {
	host, _, err := net.SplitHostPort(t.conn.RemoteAddr().String())
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (t *WebSocketTransport) runReceive() {
	for {
		messageType, message, err := t.conn.ReadMessage()
		if err != nil {
			t.failure <- err
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		t.frames <- message
	}
}

// Send writes one whole frame as a binary WebSocket message.
func (t *WebSocketTransport) Send(frame []byte) error {
	return t.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// ProcessEvents drains messages received by the reader goroutine.
func (t *WebSocketTransport) ProcessEvents(onFrame func(frame []byte)) error {
	for {
		select {
		case frame := <-t.frames:
			onFrame(frame)
		case err := <-t.failure:
			return err
		default:
			return nil
		}
	}
}

// Close closes the WebSocket connection, stopping the reader goroutine.
func (t *WebSocketTransport) Close() error {
	return t.conn.Close()
}

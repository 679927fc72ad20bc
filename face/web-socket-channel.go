/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/named-data/mnfd/core"
)

// WebSocketChannel upgrades incoming HTTP connections to WebSocket and materializes a
// face for each. The HTTP server runs in its own goroutine; accepted connections are
// handed to the forwarder's goroutine through a channel drained by ProcessEvents.
type WebSocketChannel struct {
	server    *http.Server
	listener  net.Listener
	localURI  string
	callbacks ChannelCallbacks
	accepted  chan *websocket.Conn
	failure   chan error
}

// MakeWebSocketChannel constructs a WebSocketChannel bound to the specified local address.
func MakeWebSocketChannel(localHost string, localPort uint16, callbacks ChannelCallbacks) (*WebSocketChannel, error) {
	c := new(WebSocketChannel)
	c.callbacks = callbacks
	c.accepted = make(chan *websocket.Conn, 16)
	c.failure = make(chan error, 1)

	listener, err := net.Listen("tcp", net.JoinHostPort(localHost, strconv.FormatUint(uint64(localPort), 10)))
	if err != nil {
		return nil, err
	}
	c.listener = listener
	c.localURI = "ws://" + listener.Addr().String()

	upgrader := websocket.Upgrader{
		// NDN-over-WebSocket is origin-agnostic
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			core.LogWarn(c, "Unable to upgrade connection: ", err)
			return
		}
		c.accepted <- conn
	})
	c.server = &http.Server{Handler: mux}
	go func() {
		if err := c.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			c.failure <- err
		}
	}()

	core.LogInfo(c, "Listening")
	return c, nil
}

func (c *WebSocketChannel) String() string {
	return "WebSocketChannel, " + c.localURI
}

// LocalURI returns the local URI the channel is bound to.
func (c *WebSocketChannel) LocalURI() string {
	return c.localURI
}

// ProcessEvents materializes faces for connections accepted since the last call.
func (c *WebSocketChannel) ProcessEvents() error {
	for {
		select {
		case conn := <-c.accepted:
			uri := "ws://" + conn.RemoteAddr().String()
			if c.callbacks.GetTransportByURI(uri) != nil {
				core.LogWarn(c, "New connection from existing face: ", uri)
				conn.Close()
				continue
			}
			faceID, err := c.callbacks.AddFace(uri, NewWebSocketTransport(conn))
			if err != nil {
				core.LogError(c, "Failed to create face for ", uri, ": ", err)
				conn.Close()
				continue
			}
			core.LogDebug(c, "Created on-demand face ", faceID, ": ", uri)
		case err := <-c.failure:
			return err
		default:
			return nil
		}
	}
}

// Close stops the channel's HTTP server. Existing faces are unaffected.
func (c *WebSocketChannel) Close() error {
	return c.server.Close()
}

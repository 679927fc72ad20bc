/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/face/impl"
)

// TCPChannel accepts incoming TCP connections and materializes a face for each new peer.
type TCPChannel struct {
	listener  *net.TCPListener
	localURI  string
	callbacks ChannelCallbacks
}

// MakeTCPChannel constructs a TCPChannel bound to the specified local address.
func MakeTCPChannel(localHost string, localPort uint16, callbacks ChannelCallbacks) (*TCPChannel, error) {
	c := new(TCPChannel)
	c.callbacks = callbacks

	listenConfig := &net.ListenConfig{Control: impl.SyscallReuseAddr}
	listener, err := listenConfig.Listen(context.Background(), "tcp",
		net.JoinHostPort(localHost, strconv.FormatUint(uint64(localPort), 10)))
	if err != nil {
		return nil, errors.New("unable to start TCP listener: " + err.Error())
	}
	c.listener = listener.(*net.TCPListener)
	c.localURI = "tcp://" + c.listener.Addr().String()

	core.LogInfo(c, "Listening")
	return c, nil
}

func (c *TCPChannel) String() string {
	return "TCPChannel, " + c.localURI
}

// LocalURI returns the local URI the channel is bound to.
func (c *TCPChannel) LocalURI() string {
	return c.localURI
}

// ProcessEvents accepts pending connections without blocking. For each new peer a face
// is created; a connection from the URI of an existing face is dropped with a warning
// and the old face is left in place.
func (c *TCPChannel) ProcessEvents() error {
	for {
		if err := c.listener.SetDeadline(time.Now().Add(pollReadTimeout)); err != nil {
			return err
		}
		conn, err := c.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// No pending connections
				return nil
			}
			return err
		}

		uri := "tcp://" + conn.RemoteAddr().String()
		if c.callbacks.GetTransportByURI(uri) != nil {
			core.LogWarn(c, "New connection from existing face: ", uri)
			conn.Close()
			continue
		}

		faceID, err := c.callbacks.AddFace(uri, AcceptedStreamTransport(conn))
		if err != nil {
			core.LogError(c, "Failed to create face for ", uri, ": ", err)
			conn.Close()
			continue
		}
		core.LogDebug(c, "Created on-demand face ", faceID, ": ", uri)
	}
}

// Close stops the channel from producing faces. Existing faces are unaffected.
func (c *TCPChannel) Close() error {
	return c.listener.Close()
}

/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"github.com/named-data/mnfd/core"
)

// InternalTransport is the forwarder side of an in-process transport pair. The
// application side is an InternalEndpoint. Both sides are driven from the forwarder's
// goroutine; no synchronization is performed.
type InternalTransport struct {
	toFace   [][]byte
	endpoint *InternalEndpoint
	closed   bool
}

// InternalEndpoint is the application side of an in-process transport pair.
type InternalEndpoint struct {
	transport *InternalTransport
	recvQueue [][]byte
}

// MakeInternalPair creates a connected internal transport and endpoint.
func MakeInternalPair() (*InternalTransport, *InternalEndpoint) {
	t := new(InternalTransport)
	e := new(InternalEndpoint)
	t.endpoint = e
	e.transport = t
	return t, e
}

func (t *InternalTransport) String() string {
	return "InternalTransport"
}

// IsLocal returns true; internal transports never leave the process.
func (t *InternalTransport) IsLocal() bool {
	return true
}

// Send delivers one whole frame to the application endpoint.
func (t *InternalTransport) Send(frame []byte) error {
	if t.closed {
		return core.ErrClosed
	}
	queued := make([]byte, len(frame))
	copy(queued, frame)
	t.endpoint.recvQueue = append(t.endpoint.recvQueue, queued)
	return nil
}

// ProcessEvents drains frames queued by the application endpoint.
func (t *InternalTransport) ProcessEvents(onFrame func(frame []byte)) error {
	for len(t.toFace) > 0 {
		frame := t.toFace[0]
		t.toFace = t.toFace[1:]
		onFrame(frame)
	}
	return nil
}

// Close marks the pair closed.
func (t *InternalTransport) Close() error {
	t.closed = true
	t.toFace = nil
	return nil
}

// Send queues one whole frame for delivery to the forwarder.
func (e *InternalEndpoint) Send(frame []byte) error {
	if e.transport.closed {
		return core.ErrClosed
	}
	queued := make([]byte, len(frame))
	copy(queued, frame)
	e.transport.toFace = append(e.transport.toFace, queued)
	return nil
}

// Receive pops the next frame delivered by the forwarder, or nil if none is pending.
func (e *InternalEndpoint) Receive() []byte {
	if len(e.recvQueue) == 0 {
		return nil
	}
	frame := e.recvQueue[0]
	e.recvQueue = e.recvQueue[1:]
	return frame
}

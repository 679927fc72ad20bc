/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

// Transport is the capability record implemented by every face transport.
//
// Transports are non-blocking: ProcessEvents drains whatever input is ready and
// returns promptly, and Send never blocks the caller on the network. The forwarder
// invokes all transport methods from a single goroutine.
type Transport interface {
	String() string

	// Send writes one whole frame to the remote endpoint.
	Send(frame []byte) error

	// ProcessEvents drains ready input, invoking onFrame zero or more times with
	// raw received bytes. A returned error is fatal for the transport.
	ProcessEvents(onFrame func(frame []byte)) error

	// IsLocal returns whether the remote endpoint is on the local host.
	IsLocal() bool

	Close() error
}

// Channel is a listening endpoint that spawns faces on demand.
type Channel interface {
	String() string

	// ProcessEvents accepts or receives from unknown peers, materializing new faces
	// through the channel's callbacks. A returned error is fatal for the channel;
	// existing faces are unaffected.
	ProcessEvents() error

	Close() error
}

// ChannelCallbacks connect a listen channel to the forwarder that owns it.
type ChannelCallbacks struct {
	// GetTransportByURI returns the transport of an existing face with the specified
	// remote URI, or nil if no such face exists.
	GetTransportByURI func(uri string) Transport

	// AddFace registers a new face around the transport and returns its face ID.
	AddFace func(uri string, transport Transport) (uint64, error)
}

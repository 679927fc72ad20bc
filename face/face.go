/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"strconv"

	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/table"
)

// Face is a bidirectional endpoint identified by a process-unique ID. The forwarder
// exclusively owns faces; the PIT and FIB reference them by ID only.
type Face struct {
	id        uint64
	uri       string
	transport Transport
	reader    *elementReader
	onElement func(face *Face, element []byte)

	// nonLocal is set by the in-process registration helper so that localhop
	// Interests from this face are honored.
	nonLocal bool

	// outFaceID, when set, restricts forwarding of Interests received on this face
	// to the specified face.
	outFaceID *uint64
}

// New constructs a face around the transport. The forwarder assigns IDs and installs
// the element callback.
func New(id uint64, uri string, transport Transport, onElement func(face *Face, element []byte)) *Face {
	f := new(Face)
	f.id = id
	f.uri = uri
	f.transport = transport
	f.reader = newElementReader()
	f.onElement = onElement
	return f
}

func (f *Face) String() string {
	return "Face, FaceID=" + strconv.FormatUint(f.id, 10) + ", URI=" + f.uri
}

// ID returns the face ID.
func (f *Face) ID() uint64 {
	return f.id
}

// URI returns the remote URI of the face.
func (f *Face) URI() string {
	return f.uri
}

// IsLocal returns whether the remote endpoint of the face is on the local host.
func (f *Face) IsLocal() bool {
	return f.transport != nil && f.transport.IsLocal()
}

// Transport returns the transport owned by the face.
func (f *Face) Transport() Transport {
	return f.transport
}

// MarkNonLocal marks the face as explicitly non-local so localhop Interests received
// on it are honored.
func (f *Face) MarkNonLocal() {
	f.nonLocal = true
}

// MarkedNonLocal returns whether the face was explicitly marked non-local.
func (f *Face) MarkedNonLocal() bool {
	return f.nonLocal
}

// SetOutFaceID restricts forwarding of Interests received on this face to the
// specified face.
func (f *Face) SetOutFaceID(faceID uint64) {
	f.outFaceID = &faceID
}

// OutFaceID returns the outgoing face restriction of this face, or nil if unset.
func (f *Face) OutFaceID() *uint64 {
	return f.outFaceID
}

// Send transmits one whole element on the face. Send failures are logged and counted
// but never propagate.
func (f *Face) Send(element []byte) {
	if f.transport == nil {
		return
	}
	if err := f.transport.Send(element); err != nil {
		core.LogError(f, "Error in transport send: ", err)
		table.AddToMeasurementInt("fw.dropped_send_errors", 1)
	}
}

// ProcessEvents drains ready input on the face's transport, dispatching every complete
// TLV element. A returned error is fatal for the face.
func (f *Face) ProcessEvents() error {
	if f.transport == nil {
		return nil
	}
	return f.transport.ProcessEvents(func(frame []byte) {
		if err := f.reader.consume(frame, func(element []byte) {
			f.onElement(f, element)
		}); err != nil {
			// Malformed input; drop buffered bytes but keep the face alive
			core.LogWarn(f, "Unable to process received bytes: ", err)
		}
	})
}

// Close shuts down the face's transport and releases its receive buffer.
func (f *Face) Close() {
	if f.transport != nil {
		f.transport.Close()
	}
	if f.reader != nil {
		f.reader.release()
		f.reader = nil
	}
}

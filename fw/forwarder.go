/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"encoding/hex"
	"net"
	"strconv"
	"time"

	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/face"
	"github.com/named-data/mnfd/ndn"
	"github.com/named-data/mnfd/ndn/lpv2"
	"github.com/named-data/mnfd/ndn/tlv"
	"github.com/named-data/mnfd/table"
)

// Fixed control prefixes.
var (
	localhostPrefix        *ndn.Name
	localhopPrefix         *ndn.Name
	registerPrefix         *ndn.Name
	localhopRegisterPrefix *ndn.Name
	broadcastPrefix        *ndn.Name
)

func init() {
	localhostPrefix, _ = ndn.NameFromString("/localhost")
	localhopPrefix, _ = ndn.NameFromString("/localhop")
	registerPrefix, _ = ndn.NameFromString("/localhost/nfd/rib/register")
	localhopRegisterPrefix, _ = ndn.NameFromString("/localhop/nfd/rib/register")
	broadcastPrefix, _ = ndn.NameFromString("/ndn/broadcast")
}

// Forwarder is the forwarding data plane: it owns all faces and channels and mutates
// the PIT and FIB. All methods must be called from a single goroutine; ProcessEvents is
// the sole entry point that makes progress.
type Forwarder struct {
	faces     []*face.Face // in registration order
	facesByID map[uint64]*face.Face
	channels  []face.Channel

	pit *table.Pit
	fib *table.Fib

	// Face IDs increase monotonically and are never reused
	nextFaceID uint64

	minPitEntryLifetime time.Duration

	pendingRegistrations []*pendingRegistration
}

// NewForwarder creates a forwarder with no faces, channels, or routes.
func NewForwarder() *Forwarder {
	f := new(Forwarder)
	f.facesByID = make(map[uint64]*face.Face)
	f.pit = table.NewPit()
	f.fib = table.NewFib()
	f.nextFaceID = 1
	f.minPitEntryLifetime = time.Duration(core.GetConfigIntDefault("fw.min_pit_entry_lifetime", 10000)) * time.Millisecond
	return f
}

func (f *Forwarder) String() string {
	return "Forwarder"
}

// AddFace creates a face around the transport and returns its face ID.
func (f *Forwarder) AddFace(uri string, transport face.Transport) uint64 {
	faceID := f.nextFaceID
	f.nextFaceID++

	newFace := face.New(faceID, uri, transport, f.OnReceivedElement)
	f.faces = append(f.faces, newFace)
	f.facesByID[faceID] = newFace
	core.LogInfo(f, "Created face ", faceID, ": ", uri)
	return faceID
}

// AddTCPFace creates a face by dialing a TCP connection to the remote host.
func (f *Forwarder) AddTCPFace(remoteHost string, remotePort uint16) (uint64, error) {
	transport, err := face.MakeUnicastTCPTransport(remoteHost, remotePort)
	if err != nil {
		return 0, err
	}
	uri := "tcp://" + net.JoinHostPort(remoteHost, strconv.FormatUint(uint64(remotePort), 10))
	return f.AddFace(uri, transport), nil
}

// AddUDPFace creates a face with its own unicast UDP socket to the remote host.
func (f *Forwarder) AddUDPFace(remoteHost string, remotePort uint16) (uint64, error) {
	transport, err := face.MakeUnicastUDPTransport(remoteHost, remotePort)
	if err != nil {
		return 0, err
	}
	uri := "udp://" + net.JoinHostPort(remoteHost, strconv.FormatUint(uint64(remotePort), 10))
	return f.AddFace(uri, transport), nil
}

// RemoveFace destroys the face with the specified ID, first scrubbing every PIT entry
// and FIB next hop referencing it.
func (f *Forwarder) RemoveFace(faceID uint64) {
	oldFace, ok := f.facesByID[faceID]
	if !ok {
		core.LogWarn(f, "Face with face id ", faceID, " not found")
		return
	}

	f.fib.RemoveFace(faceID)
	f.pit.RemoveFace(faceID)

	delete(f.facesByID, faceID)
	for i, existing := range f.faces {
		if existing == oldFace {
			f.faces = append(f.faces[:i], f.faces[i+1:]...)
			break
		}
	}
	oldFace.Close()
	core.LogInfo(f, "Removed face ", faceID)
}

// GetFace returns the face with the specified ID, or nil.
func (f *Forwarder) GetFace(faceID uint64) *face.Face {
	return f.facesByID[faceID]
}

// GetFaceByURI returns the face with the specified remote URI, or nil.
func (f *Forwarder) GetFaceByURI(uri string) *face.Face {
	for _, existing := range f.faces {
		if existing.URI() == uri {
			return existing
		}
	}
	return nil
}

// GetFaces returns the URI of every face keyed by face ID.
func (f *Forwarder) GetFaces() map[uint64]string {
	faces := make(map[uint64]string, len(f.faces))
	for _, existing := range f.faces {
		faces[existing.ID()] = existing.URI()
	}
	return faces
}

// AddRoute adds a next hop for the prefix. Returns false if the face ID is unknown.
func (f *Forwarder) AddRoute(name *ndn.Name, faceID uint64, cost uint64) bool {
	if _, ok := f.facesByID[faceID]; !ok {
		core.LogInfo(f, "AddRoute: Unrecognized face id ", faceID)
		return false
	}
	f.fib.AddRoute(name, faceID, cost)
	return true
}

// GetRoutes returns the face IDs of every route keyed by name URI.
func (f *Forwarder) GetRoutes() map[string][]uint64 {
	routes := make(map[string][]uint64)
	for _, entry := range f.fib.Entries() {
		for _, nexthop := range entry.NextHops() {
			routes[entry.Name().String()] = append(routes[entry.Name().String()], nexthop.FaceID)
		}
	}
	return routes
}

func (f *Forwarder) channelCallbacks() face.ChannelCallbacks {
	return face.ChannelCallbacks{
		GetTransportByURI: func(uri string) face.Transport {
			if existing := f.GetFaceByURI(uri); existing != nil {
				return existing.Transport()
			}
			return nil
		},
		AddFace: func(uri string, transport face.Transport) (uint64, error) {
			return f.AddFace(uri, transport), nil
		},
	}
}

// AddTCPChannel creates a TCP listen channel bound to the local address.
func (f *Forwarder) AddTCPChannel(localHost string, localPort uint16) (face.Channel, error) {
	channel, err := face.MakeTCPChannel(localHost, localPort, f.channelCallbacks())
	if err != nil {
		return nil, err
	}
	f.channels = append(f.channels, channel)
	return channel, nil
}

// AddUDPChannel creates a UDP listen channel bound to the local address.
func (f *Forwarder) AddUDPChannel(localHost string, localPort uint16) (face.Channel, error) {
	channel, err := face.MakeUDPChannel(localHost, localPort, f.channelCallbacks())
	if err != nil {
		return nil, err
	}
	f.channels = append(f.channels, channel)
	return channel, nil
}

// AddWebSocketChannel creates a WebSocket listen channel bound to the local address.
func (f *Forwarder) AddWebSocketChannel(localHost string, localPort uint16) (face.Channel, error) {
	channel, err := face.MakeWebSocketChannel(localHost, localPort, f.channelCallbacks())
	if err != nil {
		return nil, err
	}
	f.channels = append(f.channels, channel)
	return channel, nil
}

// ProcessEvents drains ready input on every channel and face, processing each complete
// element through the forwarding pipeline. It returns promptly when no input is ready.
// A channel I/O error is returned to the host after the sweep completes; faces and the
// other channels are unaffected.
func (f *Forwarder) ProcessEvents() error {
	// Channels first so faces they spawn are polled in the same sweep
	var channelErr error
	for _, channel := range f.channels {
		if err := channel.ProcessEvents(); err != nil {
			core.LogError(f, "Channel error (", channel, "): ", err)
			if channelErr == nil {
				channelErr = err
			}
		}
	}

	var failed []uint64
	for _, inFace := range f.faces {
		if err := inFace.ProcessEvents(); err != nil {
			core.LogWarn(f, "Transport error on face ", inFace.ID(), " (", err, ") - removing face")
			failed = append(failed, inFace.ID())
		}
	}
	for _, faceID := range failed {
		f.RemoveFace(faceID)
	}

	f.checkPendingRegistrations(time.Now())

	return channelErr
}

// OnReceivedElement processes one whole TLV element received on a face.
func (f *Forwarder) OnReceivedElement(inFace *face.Face, element []byte) {
	// Time is sampled once and used for all deadline comparisons for this packet
	now := time.Now()
	f.pit.Sweep(now)

	block, _, err := tlv.DecodeBlock(element)
	if err != nil {
		core.LogError(f, "Unable to decode element received on face ", inFace.ID(), ": ", err)
		return
	}

	// Peel the link-layer header, if any
	var lpPacket *lpv2.Packet
	inner := block
	if block.Type() == lpv2.LpPacket {
		lpPacket, err = lpv2.DecodePacket(block)
		if err != nil {
			core.LogError(f, "Unable to decode LpPacket received on face ", inFace.ID(), ": ", err)
			return
		}
		fragment := lpPacket.FragmentValue()
		if fragment == nil {
			// IDLE frame
			return
		}
		inner, _, err = tlv.DecodeBlock(fragment)
		if err != nil {
			core.LogError(f, "Unable to decode LpPacket fragment received on face ", inFace.ID(), ": ", err)
			return
		}
	}

	switch inner.Type() {
	case tlv.Interest:
		interest, err := ndn.DecodeInterest(inner)
		if err != nil {
			core.LogError(f, "Unable to decode Interest received on face ", inFace.ID(), ": ", err)
			return
		}
		if lpPacket != nil && lpPacket.HasNack() {
			// All prefixes have multicast strategy, so drop the Nack so that it
			// doesn't consume the PIT entry
			core.LogDebug(f, "Dropped Interest with Nack on face ", inFace.ID(), ", reason code ",
				lpPacket.NackReason(), ": ", interest.Name())
			table.AddToMeasurementInt("fw.dropped_nacks", 1)
			return
		}
		f.onInterest(inFace, interest, element, now)
	case tlv.Data:
		if lpPacket != nil && lpPacket.HasNack() {
			// A Nack not for an Interest; drop the packet
			return
		}
		data, err := ndn.DecodeData(inner, false)
		if err != nil {
			core.LogError(f, "Unable to decode Data received on face ", inFace.ID(), ": ", err)
			return
		}
		f.onData(inFace, data, element)
	default:
		core.LogWarn(f, "Received element of unrecognized type ", inner.Type(), " on face ", inFace.ID(), " - DROP")
	}
}

// onInterest processes an Interest. The original element (including any LP header) is
// forwarded unchanged.
func (f *Forwarder) onInterest(inFace *face.Face, interest *ndn.Interest, element []byte, now time.Time) {
	core.LogDebug(f, "Received Interest on face ", inFace.ID(), ": ", interest.Name())
	table.AddToMeasurementInt("fw.in_interests", 1)

	name := interest.Name()
	if localhostPrefix.PrefixOf(name) {
		f.onLocalhostInterest(inFace, interest)
		return
	}

	if localhopPrefix.PrefixOf(name) && !inFace.MarkedNonLocal() {
		// Ignore localhop unless the face has been explicitly marked non-local
		return
	}

	if f.pit.HasDuplicateNonce(interest.Nonce()) {
		core.LogDebug(f, "Dropped Interest with duplicate nonce 0x", hex.EncodeToString(interest.Nonce()),
			": ", name)
		table.AddToMeasurementInt("fw.dropped_duplicate_nonce", 1)
		return
	}

	timeoutEndTime := now.Add(interest.Lifetime())
	entryEndTime := now.Add(f.minPitEntryLifetime)

	if entry := f.pit.FindSameNameOnFace(name, inFace.ID()); entry != nil {
		// Retransmission on the same face: extend the timers in place, do not forward
		if timeoutEndTime.After(entry.TimeoutEndTime()) {
			entry.SetTimeoutEndTime(timeoutEndTime)
		}
		entry.SetEntryEndTime(entryEndTime)
		core.LogDebug(f, "Duplicate Interest on same face ", inFace.ID(), ": ", name)
		return
	}

	isDuplicate := f.pit.HasSameName(name)
	f.pit.Insert(interest, inFace.ID(), timeoutEndTime, entryEndTime)
	core.LogDebug(f, "Added PIT entry for Interest: ", name)

	if isDuplicate {
		// Another downstream asked for the same name; the eventual Data satisfies
		// the new entry too, so suppress the redundant upstream forward
		core.LogDebug(f, "Duplicate Interest on new face ", inFace.ID(), ": ", name)
		return
	}

	if broadcastPrefix.PrefixOf(name) {
		for _, outFace := range f.faces {
			// Don't send the Interest back to where it came from
			if outFace != inFace {
				core.LogDebug(f, "Broadcasted Interest to face ", outFace.ID(), ": ", name)
				outFace.Send(element)
			}
		}
		return
	}

	if outFaceID := inFace.OutFaceID(); outFaceID != nil {
		// The face specifies the outgoing face to use. RemoteRegisterPrefix uses
		// this to send the registration Interest only to the target.
		outFace := f.facesByID[*outFaceID]
		if outFace == nil {
			core.LogInfo(f, "Unrecognized out face id ", *outFaceID)
			return
		}
		core.LogDebug(f, "Forwarded Interest to specified face ", *outFaceID, ": ", name)
		outFace.Send(element)
		return
	}

	// Send the Interest to the faces in matching FIB entries
	for _, faceID := range f.fib.Lookup(name) {
		if faceID == inFace.ID() {
			continue
		}
		outFace := f.facesByID[faceID]
		if outFace == nil {
			continue
		}
		core.LogDebug(f, "Forwarded Interest to face ", faceID, ": ", name)
		outFace.Send(element)
	}
}

// onData processes a Data packet. Data strictly follows the PIT reverse path; the FIB
// is not consulted.
func (f *Forwarder) onData(inFace *face.Face, data *ndn.Data, element []byte) {
	core.LogDebug(f, "Received Data on face ", inFace.ID(), ": ", data.Name())
	table.AddToMeasurementInt("fw.in_data", 1)

	for _, entry := range f.pit.MatchData(data) {
		if outFace := f.facesByID[*entry.InFace()]; outFace != nil {
			core.LogDebug(f, "Forwarded Data to face ", outFace.ID(), ": ", data.Name())
			outFace.Send(element)
		}
		// The entry is consumed; it is kept without an in-face to check for a
		// duplicate nonce until its entry end time
		entry.ClearInFace()
	}
}

// Pit returns the forwarder's PIT.
func (f *Forwarder) Pit() *table.Pit {
	return f.pit
}

// Fib returns the forwarder's FIB.
func (f *Forwarder) Fib() *table.Fib {
	return f.fib
}

/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package lpv2

import (
	"errors"

	"github.com/named-data/mnfd/ndn/tlv"
)

// Packet represents an NDNLPv2 frame.
type Packet struct {
	fragment       *tlv.Block
	nackReason     *uint64
	pitToken       []byte
	nextHopFaceID  *uint64
	incomingFaceID *uint64
	congestionMark *uint64
}

// NewPacket returns an NDNLPv2 frame containing a copy of the provided network-layer packet.
func NewPacket(fragment []byte) *Packet {
	p := new(Packet)
	p.fragment = tlv.NewBlock(Fragment, fragment)
	return p
}

// DecodePacket returns an NDNLPv2 frame decoded from the wire.
func DecodePacket(wire *tlv.Block) (*Packet, error) {
	if wire == nil {
		return nil, errors.New("wire is unset")
	}

	p := new(Packet)

	// If type is not LpPacket, then this is a "bare" packet.
	if wire.Type() != LpPacket {
		p.fragment = wire
		return p, nil
	}

	wire.Parse()
	var err error
	for _, elem := range wire.Subelements() {
		switch elem.Type() {
		case Fragment:
			p.fragment = elem
		case Nack:
			reason := uint64(NackReasonNone)
			elem.Parse()
			if reasonBlock := elem.Find(NackReason); reasonBlock != nil {
				reason, err = tlv.DecodeNNIBlock(reasonBlock)
				if err != nil {
					return nil, errors.New("unable to decode NackReason")
				}
			}
			p.nackReason = &reason
		case PitToken:
			p.pitToken = make([]byte, len(elem.Value()))
			copy(p.pitToken, elem.Value())
		case NextHopFaceID:
			nextHop, err := tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("unable to decode NextHopFaceId")
			}
			p.nextHopFaceID = &nextHop
		case IncomingFaceID:
			incoming, err := tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("unable to decode IncomingFaceId")
			}
			p.incomingFaceID = &incoming
		case CongestionMark:
			mark, err := tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("unable to decode CongestionMark")
			}
			p.congestionMark = &mark
		default:
			if IsCritical(elem.Type()) {
				return nil, tlv.ErrUnrecognizedCritical
			}
			// If non-critical, ignore
		}
	}

	return p, nil
}

// IsBare returns whether the frame is a bare network-layer packet (no LP header).
func (p *Packet) IsBare() bool {
	return p.fragment != nil && p.fragment.Type() != Fragment
}

// Fragment returns the Fragment field of the frame (for a bare frame, the network-layer
// packet itself), or nil if IDLE.
func (p *Packet) Fragment() *tlv.Block {
	return p.fragment
}

// FragmentValue returns the raw bytes of the contained network-layer packet.
func (p *Packet) FragmentValue() []byte {
	if p.fragment == nil {
		return nil
	}
	if p.IsBare() {
		wire, err := p.fragment.Wire()
		if err != nil {
			return nil
		}
		return wire
	}
	return p.fragment.Value()
}

// HasNack returns whether the frame carries a Nack header.
func (p *Packet) HasNack() bool {
	return p.nackReason != nil
}

// NackReason returns the reason code of the Nack header (NackReasonNone if absent).
func (p *Packet) NackReason() uint64 {
	if p.nackReason == nil {
		return NackReasonNone
	}
	return *p.nackReason
}

// SetNack attaches a Nack header with the specified reason to the frame.
func (p *Packet) SetNack(reason uint64) {
	p.nackReason = &reason
}

// PitToken returns the PIT token attached to the frame (if any).
func (p *Packet) PitToken() []byte {
	return p.pitToken
}

// SetPitToken sets the PIT token attached to the frame.
func (p *Packet) SetPitToken(pitToken []byte) {
	p.pitToken = make([]byte, len(pitToken))
	copy(p.pitToken, pitToken)
}

// NextHopFaceID returns the NextHopFaceId set in the frame (if any).
func (p *Packet) NextHopFaceID() *uint64 {
	return p.nextHopFaceID
}

// IncomingFaceID returns the IncomingFaceId set in the frame (if any).
func (p *Packet) IncomingFaceID() *uint64 {
	return p.incomingFaceID
}

// CongestionMark returns the CongestionMark set in the frame (if any).
func (p *Packet) CongestionMark() *uint64 {
	return p.congestionMark
}

// Encode encodes the frame into a block.
func (p *Packet) Encode() (*tlv.Block, error) {
	wire := tlv.NewEmptyBlock(LpPacket)

	if p.nackReason != nil {
		nack := tlv.NewEmptyBlock(Nack)
		if *p.nackReason != NackReasonNone {
			nack.Append(tlv.EncodeNNIBlock(NackReason, *p.nackReason))
		}
		wire.Append(nack)
	}
	if len(p.pitToken) > 0 {
		wire.Append(tlv.NewBlock(PitToken, p.pitToken))
	}
	if p.nextHopFaceID != nil {
		wire.Append(tlv.EncodeNNIBlock(NextHopFaceID, *p.nextHopFaceID))
	}
	if p.incomingFaceID != nil {
		wire.Append(tlv.EncodeNNIBlock(IncomingFaceID, *p.incomingFaceID))
	}
	if p.congestionMark != nil {
		wire.Append(tlv.EncodeNNIBlock(CongestionMark, *p.congestionMark))
	}
	if p.fragment != nil {
		if p.IsBare() {
			fragmentWire, err := p.fragment.Wire()
			if err != nil {
				return nil, err
			}
			wire.Append(tlv.NewBlock(Fragment, fragmentWire))
		} else {
			wire.Append(p.fragment)
		}
	}

	wire.Wire()
	return wire, nil
}

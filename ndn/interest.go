/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"encoding/hex"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/named-data/mnfd/ndn/tlv"
	"github.com/named-data/mnfd/ndn/util"
)

// DefaultInterestLifetime is assumed when an Interest carries no InterestLifetime element.
const DefaultInterestLifetime = 4000 * time.Millisecond

// Interest represents an NDN Interest packet.
type Interest struct {
	name        Name
	canBePrefix bool
	mustBeFresh bool
	nonce       []byte
	lifetime    time.Duration
	hopLimit    *uint8
}

// NewInterest creates a new Interest with the specified name and default values.
func NewInterest(name *Name) *Interest {
	i := new(Interest)
	i.name = *name.DeepCopy()
	i.lifetime = DefaultInterestLifetime
	i.ResetNonce()
	return i
}

// DecodeInterest decodes an Interest from the wire.
func DecodeInterest(wire *tlv.Block) (*Interest, error) {
	if wire == nil {
		return nil, util.ErrNonExistent
	}
	if wire.Type() != tlv.Interest {
		return nil, tlv.ErrUnexpected
	}
	wire.Parse()

	i := new(Interest)
	i.lifetime = DefaultInterestLifetime
	mostRecentElem := 0
	for _, elem := range wire.Subelements() {
		switch elem.Type() {
		case tlv.Name:
			if mostRecentElem >= 1 {
				return nil, errors.New("Name is duplicate or out-of-order")
			}
			name, err := DecodeName(elem)
			if err != nil {
				return nil, err
			}
			mostRecentElem = 1
			i.name = *name
		case tlv.CanBePrefix:
			if mostRecentElem >= 2 {
				return nil, errors.New("CanBePrefix is duplicate or out-of-order")
			}
			mostRecentElem = 2
			i.canBePrefix = true
		case tlv.MustBeFresh:
			if mostRecentElem >= 3 {
				return nil, errors.New("MustBeFresh is duplicate or out-of-order")
			}
			mostRecentElem = 3
			i.mustBeFresh = true
		case tlv.ForwardingHint:
			if mostRecentElem >= 4 {
				return nil, errors.New("ForwardingHint is duplicate or out-of-order")
			}
			mostRecentElem = 4
			// Carried through opaquely; the forwarder does not act on it
		case tlv.Nonce:
			if mostRecentElem >= 5 {
				return nil, errors.New("Nonce is duplicate or out-of-order")
			}
			mostRecentElem = 5
			if i.SetNonce(elem.Value()) != nil {
				return nil, errors.New("error decoding Nonce")
			}
		case tlv.InterestLifetime:
			if mostRecentElem >= 6 {
				return nil, errors.New("InterestLifetime is duplicate or out-of-order")
			}
			mostRecentElem = 6
			lifetime, err := tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("error decoding InterestLifetime")
			}
			i.lifetime = time.Duration(lifetime) * time.Millisecond
		case tlv.HopLimit:
			if mostRecentElem >= 7 {
				return nil, errors.New("HopLimit is duplicate or out-of-order")
			}
			mostRecentElem = 7
			if len(elem.Value()) != 1 {
				return nil, errors.New("error decoding HopLimit")
			}
			hopLimit := elem.Value()[0]
			i.hopLimit = &hopLimit
		default:
			if tlv.IsCritical(elem.Type()) {
				return nil, tlv.ErrUnrecognizedCritical
			}
			// If non-critical, ignore
		}
	}

	if i.name.Size() == 0 {
		return nil, errors.New("Interest missing Name")
	}

	return i, nil
}

func (i *Interest) String() string {
	str := "Interest(Name=" + i.name.String()
	if i.canBePrefix {
		str += ", CanBePrefix"
	}
	if i.mustBeFresh {
		str += ", MustBeFresh"
	}
	str += ", Nonce=0x" + hex.EncodeToString(i.nonce)
	str += ", Lifetime=" + strconv.FormatInt(i.lifetime.Milliseconds(), 10) + "ms)"
	return str
}

// Name returns a copy of the name of the Interest.
func (i *Interest) Name() *Name {
	return i.name.DeepCopy()
}

// SetName sets the name of the Interest.
func (i *Interest) SetName(name *Name) {
	i.name = *name.DeepCopy()
}

// CanBePrefix returns whether the Interest can be satisfied by a Data packet whose name
// the Interest name is a prefix of.
func (i *Interest) CanBePrefix() bool {
	return i.canBePrefix
}

// SetCanBePrefix sets whether the Interest can be satisfied by a Data packet whose name
// the Interest name is a prefix of.
func (i *Interest) SetCanBePrefix(canBePrefix bool) {
	i.canBePrefix = canBePrefix
}

// MustBeFresh returns whether the Interest can only be satisfied by "fresh" Data packets.
func (i *Interest) MustBeFresh() bool {
	return i.mustBeFresh
}

// SetMustBeFresh sets whether the Interest can only be satisfied by "fresh" Data packets.
func (i *Interest) SetMustBeFresh(mustBeFresh bool) {
	i.mustBeFresh = mustBeFresh
}

// Nonce gets the nonce of the Interest.
func (i *Interest) Nonce() []byte {
	nonce := make([]byte, len(i.nonce))
	copy(nonce, i.nonce)
	return nonce
}

// ResetNonce regenerates the value of the nonce.
func (i *Interest) ResetNonce() {
	i.nonce = make([]byte, 4)
	for pos := 0; pos < 4; pos++ {
		i.nonce[pos] = byte(rand.Uint32() % 256)
	}
}

// SetNonce sets the nonce to the specified value. If not exactly 4 bytes, an error is returned.
func (i *Interest) SetNonce(nonce []byte) error {
	if len(nonce) != 4 {
		return util.ErrTooShort
	}

	i.nonce = make([]byte, 4)
	copy(i.nonce, nonce)
	return nil
}

// Lifetime returns the lifetime of the Interest.
func (i *Interest) Lifetime() time.Duration {
	return i.lifetime
}

// SetLifetime sets the lifetime of the Interest.
func (i *Interest) SetLifetime(lifetime time.Duration) {
	i.lifetime = lifetime
}

// HopLimit returns the hop limit of the Interest or nil if no hop limit is set.
func (i *Interest) HopLimit() *uint8 {
	if i.hopLimit == nil {
		return nil
	}
	hopLimit := *i.hopLimit
	return &hopLimit
}

// SetHopLimit sets the hop limit of the Interest (or unsets it if nil is specified).
func (i *Interest) SetHopLimit(hopLimit *uint8) {
	if hopLimit == nil {
		i.hopLimit = nil
	} else {
		value := *hopLimit
		i.hopLimit = &value
	}
}

// MatchesData returns whether the specified Data packet satisfies the Interest: the
// Interest name must be a prefix of (or equal to) the Data name. Selectors and the
// implicit digest component are not considered.
func (i *Interest) MatchesData(data *Data) bool {
	if data == nil {
		return false
	}
	return i.name.PrefixOf(data.Name())
}

// Encode encodes the Interest into a block.
func (i *Interest) Encode() (*tlv.Block, error) {
	if i.name.Size() == 0 {
		return nil, errors.New("Name cannot be empty")
	}
	if len(i.nonce) != 4 {
		return nil, errors.New("Nonce must be set to encode")
	}

	wire := tlv.NewEmptyBlock(tlv.Interest)
	wire.Append(i.name.Encode())
	if i.canBePrefix {
		wire.Append(tlv.NewEmptyBlock(tlv.CanBePrefix))
	}
	if i.mustBeFresh {
		wire.Append(tlv.NewEmptyBlock(tlv.MustBeFresh))
	}
	wire.Append(tlv.NewBlock(tlv.Nonce, i.nonce))
	wire.Append(tlv.EncodeNNIBlock(tlv.InterestLifetime, uint64(i.lifetime.Milliseconds())))
	if i.hopLimit != nil {
		wire.Append(tlv.NewBlock(tlv.HopLimit, []byte{*i.hopLimit}))
	}

	wire.Wire()
	return wire, nil
}

/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"errors"
	"strconv"
	"time"

	"github.com/named-data/mnfd/ndn/tlv"
	"github.com/named-data/mnfd/ndn/util"
)

// MetaInfo represents the MetaInfo in a Data packet.
type MetaInfo struct {
	contentType     *uint64
	freshnessPeriod *time.Duration
}

// NewMetaInfo creates a new MetaInfo structure.
func NewMetaInfo() *MetaInfo {
	return new(MetaInfo)
}

// DecodeMetaInfo decodes a MetaInfo from a block.
func DecodeMetaInfo(wire *tlv.Block) (*MetaInfo, error) {
	if wire == nil {
		return nil, util.ErrNonExistent
	}
	if len(wire.Subelements()) == 0 {
		wire.Parse()
	}

	m := new(MetaInfo)
	for _, elem := range wire.Subelements() {
		switch elem.Type() {
		case tlv.ContentType:
			contentType, err := tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("error decoding ContentType")
			}
			m.contentType = &contentType
		case tlv.FreshnessPeriod:
			freshness, err := tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("error decoding FreshnessPeriod")
			}
			m.freshnessPeriod = new(time.Duration)
			*m.freshnessPeriod = time.Duration(freshness) * time.Millisecond
		case tlv.FinalBlockID:
			// Carried through opaquely; the forwarder does not act on it
		default:
			if tlv.IsCritical(elem.Type()) {
				return nil, tlv.ErrUnrecognizedCritical
			}
			// If non-critical, ignore
		}
	}
	return m, nil
}

func (m *MetaInfo) String() string {
	str := "MetaInfo("
	if m.contentType != nil {
		str += "ContentType=" + strconv.FormatUint(*m.contentType, 10)
	}
	if m.freshnessPeriod != nil {
		if m.contentType != nil {
			str += ", "
		}
		str += "FreshnessPeriod=" + strconv.FormatInt(m.freshnessPeriod.Milliseconds(), 10) + "ms"
	}
	str += ")"
	return str
}

// ContentType returns the ContentType set in the MetaInfo.
func (m *MetaInfo) ContentType() *uint64 {
	return m.contentType
}

// SetContentType sets the ContentType in the MetaInfo.
func (m *MetaInfo) SetContentType(contentType uint64) {
	m.contentType = new(uint64)
	*m.contentType = contentType
}

// FreshnessPeriod returns the FreshnessPeriod set in the MetaInfo.
func (m *MetaInfo) FreshnessPeriod() *time.Duration {
	return m.freshnessPeriod
}

// SetFreshnessPeriod sets the FreshnessPeriod in the MetaInfo.
func (m *MetaInfo) SetFreshnessPeriod(freshnessPeriod time.Duration) {
	m.freshnessPeriod = new(time.Duration)
	*m.freshnessPeriod = freshnessPeriod
}

// IsEmpty returns whether no fields are set in the MetaInfo.
func (m *MetaInfo) IsEmpty() bool {
	return m.contentType == nil && m.freshnessPeriod == nil
}

// Encode encodes the MetaInfo into a block.
func (m *MetaInfo) Encode() (*tlv.Block, error) {
	wire := tlv.NewEmptyBlock(tlv.MetaInfo)
	if m.contentType != nil {
		wire.Append(tlv.EncodeNNIBlock(tlv.ContentType, *m.contentType))
	}
	if m.freshnessPeriod != nil {
		wire.Append(tlv.EncodeNNIBlock(tlv.FreshnessPeriod, uint64(m.freshnessPeriod.Milliseconds())))
	}
	wire.Wire()
	return wire, nil
}

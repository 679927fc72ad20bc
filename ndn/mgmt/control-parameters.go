/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package mgmt

import (
	"errors"

	"github.com/named-data/mnfd/ndn"
	"github.com/named-data/mnfd/ndn/tlv"
)

// ControlParameters represents the parameters of a management command.
type ControlParameters struct {
	Name             *ndn.Name
	FaceID           *uint64
	Origin           *uint64
	Cost             *uint64
	Flags            *uint64
	ExpirationPeriod *uint64
}

// MakeControlParameters creates an empty ControlParameters.
func MakeControlParameters() *ControlParameters {
	return new(ControlParameters)
}

// DecodeControlParameters decodes a ControlParameters from the wire.
func DecodeControlParameters(wire *tlv.Block) (*ControlParameters, error) {
	if wire == nil {
		return nil, errors.New("wire is unset")
	}

	if wire.Type() != tlv.ControlParameters {
		return nil, tlv.ErrUnexpected
	}

	c := new(ControlParameters)

	wire.Parse()
	var err error
	for _, elem := range wire.Subelements() {
		switch elem.Type() {
		case tlv.Name:
			if c.Name != nil {
				return nil, errors.New("duplicate Name")
			}
			c.Name, err = ndn.DecodeName(elem)
			if err != nil {
				return nil, errors.New("unable to decode Name: " + err.Error())
			}
		case tlv.FaceID:
			if c.FaceID != nil {
				return nil, errors.New("duplicate FaceId")
			}
			c.FaceID = new(uint64)
			*c.FaceID, err = tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("unable to decode FaceId: " + err.Error())
			}
		case tlv.Origin:
			if c.Origin != nil {
				return nil, errors.New("duplicate Origin")
			}
			c.Origin = new(uint64)
			*c.Origin, err = tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("unable to decode Origin: " + err.Error())
			}
		case tlv.Cost:
			if c.Cost != nil {
				return nil, errors.New("duplicate Cost")
			}
			c.Cost = new(uint64)
			*c.Cost, err = tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("unable to decode Cost: " + err.Error())
			}
		case tlv.Flags:
			if c.Flags != nil {
				return nil, errors.New("duplicate Flags")
			}
			c.Flags = new(uint64)
			*c.Flags, err = tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("unable to decode Flags: " + err.Error())
			}
		case tlv.ExpirationPeriod:
			if c.ExpirationPeriod != nil {
				return nil, errors.New("duplicate ExpirationPeriod")
			}
			c.ExpirationPeriod = new(uint64)
			*c.ExpirationPeriod, err = tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("unable to decode ExpirationPeriod: " + err.Error())
			}
		default:
			if tlv.IsCritical(elem.Type()) {
				return nil, tlv.ErrUnrecognizedCritical
			}
		}
	}

	return c, nil
}

// Encode encodes a ControlParameters.
func (c *ControlParameters) Encode() (*tlv.Block, error) {
	wire := tlv.NewEmptyBlock(tlv.ControlParameters)

	if c.Name != nil {
		wire.Append(c.Name.Encode())
	}
	if c.FaceID != nil {
		wire.Append(tlv.EncodeNNIBlock(tlv.FaceID, *c.FaceID))
	}
	if c.Origin != nil {
		wire.Append(tlv.EncodeNNIBlock(tlv.Origin, *c.Origin))
	}
	if c.Cost != nil {
		wire.Append(tlv.EncodeNNIBlock(tlv.Cost, *c.Cost))
	}
	if c.Flags != nil {
		wire.Append(tlv.EncodeNNIBlock(tlv.Flags, *c.Flags))
	}
	if c.ExpirationPeriod != nil {
		wire.Append(tlv.EncodeNNIBlock(tlv.ExpirationPeriod, *c.ExpirationPeriod))
	}

	wire.Wire()
	return wire, nil
}

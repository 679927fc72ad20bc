/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"errors"

	"github.com/named-data/mnfd/ndn/security"
	"github.com/named-data/mnfd/ndn/tlv"
	"github.com/named-data/mnfd/ndn/util"
)

// SignatureInfo represents the SignatureInfo block in a Data packet.
type SignatureInfo struct {
	signatureType security.SignatureType
	keyLocator    *tlv.Block
}

// NewSignatureInfo creates a new SignatureInfo for a Data packet.
func NewSignatureInfo(signatureType security.SignatureType) *SignatureInfo {
	s := new(SignatureInfo)
	s.signatureType = signatureType
	return s
}

// DecodeSignatureInfo decodes a SignatureInfo from a block.
func DecodeSignatureInfo(wire *tlv.Block) (*SignatureInfo, error) {
	if wire == nil {
		return nil, util.ErrNonExistent
	}
	if len(wire.Subelements()) == 0 {
		wire.Parse()
	}

	s := new(SignatureInfo)
	hasSignatureType := false
	for _, elem := range wire.Subelements() {
		switch elem.Type() {
		case tlv.SignatureType:
			sigType, err := tlv.DecodeNNIBlock(elem)
			if err != nil {
				return nil, errors.New("error decoding SignatureType")
			}
			s.signatureType = security.SignatureType(sigType)
			hasSignatureType = true
		case tlv.KeyLocator:
			s.keyLocator = elem.DeepCopy()
		default:
			if tlv.IsCritical(elem.Type()) {
				return nil, tlv.ErrUnrecognizedCritical
			}
			// If non-critical, ignore
		}
	}

	if !hasSignatureType {
		return nil, errors.New("missing SignatureType")
	}
	return s, nil
}

// Type returns the signature type of the SignatureInfo.
func (s *SignatureInfo) Type() security.SignatureType {
	return s.signatureType
}

// KeyLocator returns the KeyLocator block of the SignatureInfo (if any).
func (s *SignatureInfo) KeyLocator() *tlv.Block {
	return s.keyLocator
}

// SetKeyLocator sets the KeyLocator block of the SignatureInfo.
func (s *SignatureInfo) SetKeyLocator(keyLocator *tlv.Block) {
	s.keyLocator = keyLocator
}

// Encode encodes the SignatureInfo into a block.
func (s *SignatureInfo) Encode() (*tlv.Block, error) {
	wire := tlv.NewEmptyBlock(tlv.SignatureInfo)
	wire.Append(tlv.EncodeNNIBlock(tlv.SignatureType, uint64(s.signatureType)))
	if s.keyLocator != nil {
		wire.Append(s.keyLocator)
	}
	wire.Wire()
	return wire, nil
}

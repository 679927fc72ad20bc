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

	"github.com/named-data/mnfd/ndn/security"
	"github.com/named-data/mnfd/ndn/tlv"
	"github.com/named-data/mnfd/ndn/util"
)

// Data represents an NDN Data packet.
type Data struct {
	name     *Name
	metaInfo *MetaInfo
	content  []byte
	sigInfo  *SignatureInfo
	sigValue []byte
}

// NewData creates a new Data packet with the given name and content, carrying a
// DigestSha256 signature.
func NewData(name *Name, content []byte) *Data {
	if name == nil {
		return nil
	}

	d := new(Data)
	d.name = name.DeepCopy()
	d.metaInfo = NewMetaInfo()
	d.content = make([]byte, len(content))
	copy(d.content, content)
	d.sigInfo = NewSignatureInfo(security.DigestSha256Type)
	return d
}

// DecodeData decodes a Data packet from the wire.
func DecodeData(wire *tlv.Block, shouldValidateSignature bool) (*Data, error) {
	if wire == nil {
		return nil, util.ErrNonExistent
	}
	if wire.Type() != tlv.Data {
		return nil, tlv.ErrUnexpected
	}
	wire.Parse()

	d := new(Data)
	d.metaInfo = NewMetaInfo()
	mostRecentElem := 0
	var err error
	for _, elem := range wire.Subelements() {
		switch elem.Type() {
		case tlv.Name:
			if mostRecentElem >= 1 {
				return nil, errors.New("Name is duplicate or out-of-order")
			}
			mostRecentElem = 1
			d.name, err = DecodeName(elem)
			if err != nil {
				return nil, errors.New("error decoding Name")
			}
		case tlv.MetaInfo:
			if mostRecentElem >= 2 {
				return nil, errors.New("MetaInfo is duplicate or out-of-order")
			}
			mostRecentElem = 2
			d.metaInfo, err = DecodeMetaInfo(elem)
			if err != nil {
				return nil, err
			}
		case tlv.Content:
			if mostRecentElem >= 3 {
				return nil, errors.New("Content is duplicate or out-of-order")
			}
			mostRecentElem = 3
			d.content = make([]byte, len(elem.Value()))
			copy(d.content, elem.Value())
		case tlv.SignatureInfo:
			if mostRecentElem >= 4 {
				return nil, errors.New("SignatureInfo is duplicate or out-of-order")
			}
			mostRecentElem = 4
			d.sigInfo, err = DecodeSignatureInfo(elem)
			if err != nil {
				return nil, errors.New("error decoding SignatureInfo")
			}
		case tlv.SignatureValue:
			if mostRecentElem >= 5 {
				return nil, errors.New("SignatureValue is duplicate or out-of-order")
			}
			mostRecentElem = 5
			d.sigValue = make([]byte, len(elem.Value()))
			copy(d.sigValue, elem.Value())
		default:
			if tlv.IsCritical(elem.Type()) {
				return nil, tlv.ErrUnrecognizedCritical
			}
			// If non-critical, ignore
		}
	}

	if d.name == nil || d.sigInfo == nil || len(d.sigValue) == 0 {
		return nil, errors.New("Data missing required field")
	}

	if shouldValidateSignature {
		isSignatureValid, err := d.validateSignature(wire)
		if err != nil {
			return nil, err
		}
		if !isSignatureValid {
			return nil, errors.New("unable to validate signature in decoded Data")
		}
	}

	return d, nil
}

func (d *Data) String() string {
	str := "Data(" + d.name.String()
	if d.metaInfo != nil && !d.metaInfo.IsEmpty() {
		str += ", " + d.metaInfo.String()
	}
	str += ", ContentLen=" + strconv.FormatInt(int64(len(d.content)), 10) + ")"
	return str
}

// Name returns the name of the Data packet.
func (d *Data) Name() *Name {
	return d.name
}

// SetName sets the name of the Data packet.
func (d *Data) SetName(name *Name) {
	d.name = name.DeepCopy()
	d.sigValue = nil
}

// MetaInfo returns the MetaInfo of the Data packet.
func (d *Data) MetaInfo() *MetaInfo {
	return d.metaInfo
}

// SetMetaInfo sets the MetaInfo of the Data packet.
func (d *Data) SetMetaInfo(metaInfo *MetaInfo) {
	d.metaInfo = metaInfo
	d.sigValue = nil
}

// Content returns a copy of the content in the Data packet.
func (d *Data) Content() []byte {
	content := make([]byte, len(d.content))
	copy(content, d.content)
	return content
}

// SetContent sets the content of the Data packet.
func (d *Data) SetContent(content []byte) {
	d.content = make([]byte, len(content))
	copy(d.content, content)
	d.sigValue = nil
}

// SignatureInfo returns the SignatureInfo in the Data packet.
func (d *Data) SignatureInfo() *SignatureInfo {
	return d.sigInfo
}

func (d *Data) signedPortion() ([]byte, error) {
	buffer := make([]byte, 0)

	nameWire, err := d.name.Encode().Wire()
	if err != nil {
		return nil, err
	}
	buffer = append(buffer, nameWire...)

	if d.metaInfo != nil && !d.metaInfo.IsEmpty() {
		metaInfoBlock, err := d.metaInfo.Encode()
		if err != nil {
			return nil, err
		}
		metaInfoWire, err := metaInfoBlock.Wire()
		if err != nil {
			return nil, err
		}
		buffer = append(buffer, metaInfoWire...)
	}

	contentWire, err := tlv.NewBlock(tlv.Content, d.content).Wire()
	if err != nil {
		return nil, err
	}
	buffer = append(buffer, contentWire...)

	sigInfoBlock, err := d.sigInfo.Encode()
	if err != nil {
		return nil, err
	}
	sigInfoWire, err := sigInfoBlock.Wire()
	if err != nil {
		return nil, err
	}
	buffer = append(buffer, sigInfoWire...)

	return buffer, nil
}

func (d *Data) validateSignature(wire *tlv.Block) (bool, error) {
	buffer := make([]byte, 0)
	for _, elem := range wire.Subelements() {
		if elem.Type() == tlv.SignatureValue {
			break
		}
		elemWire, err := elem.Wire()
		if err != nil {
			return false, err
		}
		buffer = append(buffer, elemWire...)
	}

	return security.Verify(d.sigInfo.Type(), buffer, d.sigValue)
}

// Encode encodes the Data into a block, computing the signature value if unset.
func (d *Data) Encode() (*tlv.Block, error) {
	if d.name == nil || d.name.Size() == 0 {
		return nil, errors.New("Name cannot be empty")
	}
	if d.sigInfo == nil {
		return nil, errors.New("SignatureInfo must be set to encode")
	}

	if len(d.sigValue) == 0 {
		signedPortion, err := d.signedPortion()
		if err != nil {
			return nil, errors.New("unable to encode signed portion")
		}
		d.sigValue, err = security.Sign(d.sigInfo.Type(), signedPortion)
		if err != nil {
			return nil, errors.New("unable to compute SignatureValue")
		}
	}

	wire := tlv.NewEmptyBlock(tlv.Data)
	wire.Append(d.name.Encode())
	if d.metaInfo != nil && !d.metaInfo.IsEmpty() {
		encodedMetaInfo, err := d.metaInfo.Encode()
		if err != nil {
			return nil, errors.New("unable to encode MetaInfo")
		}
		wire.Append(encodedMetaInfo)
	}
	wire.Append(tlv.NewBlock(tlv.Content, d.content))
	sigInfo, err := d.sigInfo.Encode()
	if err != nil {
		return nil, errors.New("unable to encode SignatureInfo")
	}
	wire.Append(sigInfo)
	wire.Append(tlv.NewBlock(tlv.SignatureValue, d.sigValue))

	wire.Wire()
	return wire, nil
}

/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tlv

// TLV types for NDN.
const (
	// Packet types
	Interest = 0x05
	Data     = 0x06

	// Name and components
	Name                            = 0x07
	ImplicitSha256DigestComponent   = 0x01
	ParametersSha256DigestComponent = 0x02
	GenericNameComponent            = 0x08

	// Interest packets
	CanBePrefix      = 0x21
	MustBeFresh      = 0x12
	ForwardingHint   = 0x1e
	Nonce            = 0x0a
	InterestLifetime = 0x0c
	HopLimit         = 0x22

	// Data packets
	MetaInfo       = 0x14
	Content        = 0x15
	SignatureInfo  = 0x16
	SignatureValue = 0x17

	// Data/MetaInfo
	ContentType     = 0x18
	FreshnessPeriod = 0x19
	FinalBlockID    = 0x1a

	// Signature
	SignatureType = 0x1b
	KeyLocator    = 0x1c
	KeyDigest     = 0x1d
)

// IsCritical returns whether a TLV type is critical.
func IsCritical(tlvType uint32) bool {
	if tlvType < 0x20 {
		return true
	}
	return tlvType&0x1 == 1
}

/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package security

import (
	"errors"
)

// SignatureType represents the type of a signature.
type SignatureType uint64

// The various possible values of SignatureType.
const (
	DigestSha256Type             SignatureType = 0
	SignatureSha256WithRsaType   SignatureType = 1
	SignatureSha256WithEcdsaType SignatureType = 3
	SignatureHmacWithSha256Type  SignatureType = 4
)

// Signer represents an implementation of a signature type.
type Signer interface {
	Sign(buffer []byte) ([]byte, error)
	Validate(buffer []byte, signature []byte) bool
}

// Sign signs the provided buffer using the appropriate signer.
func Sign(signatureType SignatureType, buffer []byte) ([]byte, error) {
	switch signatureType {
	case DigestSha256Type:
		var signer DigestSha256
		signature, err := signer.Sign(buffer)
		if err != nil {
			return nil, err
		}
		return signature, nil
	default:
		return nil, errors.New("unsupported SignatureType")
	}
}

// Verify verifies the provided signature against the provided buffer using the appropriate signer.
func Verify(signatureType SignatureType, buffer []byte, signature []byte) (bool, error) {
	switch signatureType {
	case DigestSha256Type:
		var signer DigestSha256
		return signer.Validate(buffer, signature), nil
	default:
		return false, errors.New("unsupported SignatureType")
	}
}

/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package security

// KeyChain signs command Interests using a single signer.
type KeyChain struct {
	sigType SignatureType
	signer  Signer
}

// NewKeyChain creates a KeyChain around the specified signer.
func NewKeyChain(sigType SignatureType, signer Signer) *KeyChain {
	k := new(KeyChain)
	k.sigType = sigType
	k.signer = signer
	return k
}

// NewDigestKeyChain creates a KeyChain that signs with DigestSha256.
func NewDigestKeyChain() *KeyChain {
	return NewKeyChain(DigestSha256Type, DigestSha256{})
}

// SignatureType returns the signature type produced by the KeyChain.
func (k *KeyChain) SignatureType() SignatureType {
	return k.sigType
}

// Sign signs the provided buffer.
func (k *KeyChain) Sign(buffer []byte) ([]byte, error) {
	return k.signer.Sign(buffer)
}

/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "errors"

// Common errors.
var (
	ErrFaceUnknown  = errors.New("face unknown")
	ErrNotCanonical = errors.New("URI could not be canonized")
	ErrClosed       = errors.New("endpoint closed")
)

// MaxNDNPacketSize is the maximum allowed NDN packet size.
const MaxNDNPacketSize = 8800

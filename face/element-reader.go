/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"errors"

	"github.com/Link512/stealthpool"
	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/ndn/tlv"
	"github.com/named-data/mnfd/utils/comparison"
)

const (
	readerBufSize    = 3 * core.MaxNDNPacketSize
	maxPoolBlockCnt  = 256
	maxPoolBlockSize = readerBufSize
)

var readerPool *stealthpool.Pool

func init() {
	var err error
	readerPool, err = stealthpool.New(maxPoolBlockCnt, stealthpool.WithBlockSize(maxPoolBlockSize))
	if err != nil {
		core.LogError("ElementReader", "Failed to allocate receive buffer pool: ", err)
		readerPool = nil
	}
}

// elementReader reassembles a byte stream into whole TLV elements. It delivers exactly
// one whole element per callback, preserving any outer LP wrapper; partial elements are
// buffered until complete.
type elementReader struct {
	buf      []byte
	fromPool bool
	recvOff  int
	tlvOff   int
}

func newElementReader() *elementReader {
	r := new(elementReader)
	if readerPool != nil {
		if block, err := readerPool.Get(); err == nil && len(block) >= readerBufSize {
			r.buf = block[:readerBufSize]
			r.fromPool = true
		}
	}
	if r.buf == nil {
		r.buf = make([]byte, readerBufSize)
	}
	return r
}

// consume appends received bytes and emits every complete TLV element. On error the
// buffered bytes are discarded; the reader remains usable.
func (r *elementReader) consume(data []byte, onElement func(element []byte)) error {
	for len(data) > 0 {
		// Shift any partial element to the beginning to make space
		if r.recvOff+len(data) > len(r.buf) {
			copy(r.buf, r.buf[r.tlvOff:r.recvOff])
			r.recvOff -= r.tlvOff
			r.tlvOff = 0
		}

		chunk := data[:comparison.Min(len(data), len(r.buf)-r.recvOff)]
		data = data[len(chunk):]
		copy(r.buf[r.recvOff:], chunk)
		r.recvOff += len(chunk)

		for {
			_, _, tlvSize, err := tlv.DecodeTypeLength(r.buf[r.tlvOff:r.recvOff])
			if err != nil {
				// Probably incomplete element
				break
			}

			if tlvSize > core.MaxNDNPacketSize {
				r.reset()
				return errors.New("received too much data without valid TLV element")
			}

			if r.recvOff-r.tlvOff >= tlvSize {
				// Whole element received
				onElement(r.buf[r.tlvOff : r.tlvOff+tlvSize])
				r.tlvOff += tlvSize
			} else {
				// Incomplete element
				break
			}
		}

		if r.recvOff-r.tlvOff > core.MaxNDNPacketSize {
			r.reset()
			return errors.New("received too much data without valid TLV element")
		}
	}

	// If less than one element of space remains, shift to the beginning
	if len(r.buf)-r.tlvOff < core.MaxNDNPacketSize {
		copy(r.buf, r.buf[r.tlvOff:r.recvOff])
		r.recvOff -= r.tlvOff
		r.tlvOff = 0
	}

	return nil
}

func (r *elementReader) reset() {
	r.recvOff = 0
	r.tlvOff = 0
}

func (r *elementReader) release() {
	if r.fromPool && readerPool != nil {
		readerPool.Return(r.buf)
	}
	r.buf = nil
}

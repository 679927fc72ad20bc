/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/face/impl"
)

const (
	streamWriteTimeout = 5 * time.Second

	// pollReadTimeout is the read deadline used by the non-blocking ProcessEvents polls.
	// A deadline of exactly now fails the read before queued input is consumed, so an
	// idle poll instead waits at most this long.
	pollReadTimeout = time.Millisecond
)

// StreamTransport is a unicast transport over a reliable byte stream (TCP).
type StreamTransport struct {
	conn      net.Conn
	remoteURI string
	recvBuf   []byte
}

// MakeUnicastTCPTransport creates a new unicast TCP transport by dialing the remote host.
func MakeUnicastTCPTransport(remoteHost string, remotePort uint16) (*StreamTransport, error) {
	dialer := &net.Dialer{Control: impl.SyscallReuseAddr}
	conn, err := dialer.Dial("tcp", net.JoinHostPort(remoteHost, strconv.FormatUint(uint64(remotePort), 10)))
	if err != nil {
		return nil, errors.New("unable to connect to remote endpoint: " + err.Error())
	}
	return AcceptedStreamTransport(conn), nil
}

// AcceptedStreamTransport creates a stream transport around an already-connected socket.
func AcceptedStreamTransport(conn net.Conn) *StreamTransport {
	t := new(StreamTransport)
	t.conn = conn
	t.remoteURI = conn.RemoteAddr().Network() + "://" + conn.RemoteAddr().String()
	t.recvBuf = make([]byte, core.MaxNDNPacketSize)
	return t
}

func (t *StreamTransport) String() string {
	return "StreamTransport, RemoteURI=" + t.remoteURI
}

// IsLocal returns whether the remote endpoint is on the local host.
func (t *StreamTransport) IsLocal() bool {
	host, _, err := net.SplitHostPort(t.conn.RemoteAddr().String())
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Send writes one whole frame to the stream.
func (t *StreamTransport) Send(frame []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	for written := 0; written < len(frame); {
		n, err := t.conn.Write(frame[written:])
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}

// ProcessEvents drains ready bytes from the stream without blocking.
func (t *StreamTransport) ProcessEvents(onFrame func(frame []byte)) error {
	for {
		if err := t.conn.SetReadDeadline(time.Now().Add(pollReadTimeout)); err != nil {
			return err
		}
		readSize, err := t.conn.Read(t.recvBuf)
		if readSize > 0 {
			onFrame(t.recvBuf[:readSize])
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// No more data ready
				return nil
			}
			return err
		}
	}
}

// Close closes the underlying socket.
func (t *StreamTransport) Close() error {
	return t.conn.Close()
}

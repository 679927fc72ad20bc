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
)

// UDPTransport is a unicast UDP transport. It either owns a connected socket (dialed
// faces) or shares the bound socket of a UDP listen channel, in which case received
// datagrams are injected by the channel via OnReceiveData.
type UDPTransport struct {
	conn      net.PacketConn
	remote    net.Addr
	remoteURI string
	ownsConn  bool
	recvBuf   []byte
	pending   [][]byte
}

// MakeUnicastUDPTransport creates a new unicast UDP transport with its own socket.
func MakeUnicastUDPTransport(remoteHost string, remotePort uint16) (*UDPTransport, error) {
	remoteAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(remoteHost, strconv.FormatUint(uint64(remotePort), 10)))
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, remoteAddr)
	if err != nil {
		return nil, errors.New("unable to connect to remote endpoint: " + err.Error())
	}

	t := new(UDPTransport)
	t.conn = conn
	t.remote = remoteAddr
	t.remoteURI = "udp://" + remoteAddr.String()
	t.ownsConn = true
	t.recvBuf = make([]byte, core.MaxNDNPacketSize)
	return t, nil
}

// newDemuxUDPTransport creates a UDP transport for one peer of a shared listen socket.
func newDemuxUDPTransport(conn net.PacketConn, remote net.Addr) *UDPTransport {
	t := new(UDPTransport)
	t.conn = conn
	t.remote = remote
	t.remoteURI = "udp://" + remote.String()
	return t
}

func (t *UDPTransport) String() string {
	return "UDPTransport, RemoteURI=" + t.remoteURI
}

// IsLocal returns whether the remote endpoint is on the local host.
func (t *UDPTransport) IsLocal() bool {
	host, _, err := net.SplitHostPort(t.remote.String())
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Send writes one whole datagram to the remote endpoint.
func (t *UDPTransport) Send(frame []byte) error {
	if len(frame) > core.MaxNDNPacketSize {
		return errors.New("attempted to send frame larger than MTU")
	}
	if t.ownsConn {
		_, err := t.conn.(*net.UDPConn).Write(frame)
		return err
	}
	_, err := t.conn.WriteTo(frame, t.remote)
	return err
}

// OnReceiveData injects a datagram received on a shared listen socket.
func (t *UDPTransport) OnReceiveData(data []byte) {
	frame := make([]byte, len(data))
	copy(frame, data)
	t.pending = append(t.pending, frame)
}

// ProcessEvents drains ready datagrams without blocking. On a shared socket this
// delivers datagrams injected by the listen channel; on an owned socket it reads
// directly.
func (t *UDPTransport) ProcessEvents(onFrame func(frame []byte)) error {
	for len(t.pending) > 0 {
		frame := t.pending[0]
		t.pending = t.pending[1:]
		onFrame(frame)
	}

	if !t.ownsConn {
		return nil
	}

	for {
		if err := t.conn.SetReadDeadline(time.Now().Add(pollReadTimeout)); err != nil {
			return err
		}
		readSize, _, err := t.conn.ReadFrom(t.recvBuf)
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

// Close closes the socket if owned by this transport. Shared listen sockets are closed
// by their channel.
func (t *UDPTransport) Close() error {
	if t.ownsConn {
		return t.conn.Close()
	}
	t.pending = nil
	return nil
}

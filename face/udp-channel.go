/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/face/impl"
)

// UDPChannel receives datagrams on a bound socket and materializes a face for each new
// peer address. All faces spawned by the channel share its socket, demultiplexed by
// peer address.
type UDPChannel struct {
	conn      net.PacketConn
	localURI  string
	callbacks ChannelCallbacks
	recvBuf   []byte
}

// MakeUDPChannel constructs a UDPChannel bound to the specified local address.
func MakeUDPChannel(localHost string, localPort uint16, callbacks ChannelCallbacks) (*UDPChannel, error) {
	c := new(UDPChannel)
	c.callbacks = callbacks
	c.recvBuf = make([]byte, core.MaxNDNPacketSize)

	listenConfig := &net.ListenConfig{Control: impl.SyscallReuseAddr}
	conn, err := listenConfig.ListenPacket(context.Background(), "udp",
		net.JoinHostPort(localHost, strconv.FormatUint(uint64(localPort), 10)))
	if err != nil {
		return nil, errors.New("unable to start UDP listener: " + err.Error())
	}
	c.conn = conn
	c.localURI = "udp://" + conn.LocalAddr().String()

	core.LogInfo(c, "Listening")
	return c, nil
}

func (c *UDPChannel) String() string {
	return "UDPChannel, " + c.localURI
}

// LocalURI returns the local URI the channel is bound to.
func (c *UDPChannel) LocalURI() string {
	return c.localURI
}

// ProcessEvents receives pending datagrams without blocking. Datagrams from a peer with
// no face cause one to be created around the shared socket; every received datagram is
// then injected into its peer's face.
func (c *UDPChannel) ProcessEvents() error {
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(pollReadTimeout)); err != nil {
			return err
		}
		readSize, remoteAddr, err := c.conn.ReadFrom(c.recvBuf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// No more datagrams ready
				return nil
			}
			return err
		}

		uri := "udp://" + remoteAddr.String()
		var transport *UDPTransport
		if existing := c.callbacks.GetTransportByURI(uri); existing != nil {
			udpTransport, ok := existing.(*UDPTransport)
			if !ok {
				core.LogWarn(c, "Existing face for ", uri, " is not a UDP face - DROP")
				continue
			}
			transport = udpTransport
		} else {
			transport = newDemuxUDPTransport(c.conn, remoteAddr)
			faceID, err := c.callbacks.AddFace(uri, transport)
			if err != nil {
				core.LogError(c, "Failed to create face for ", uri, ": ", err)
				continue
			}
			core.LogDebug(c, "Created on-demand face ", faceID, ": ", uri)
		}

		transport.OnReceiveData(c.recvBuf[:readSize])
	}
}

// Close stops the channel and its shared socket. Faces spawned by the channel are shut
// down independently by the forwarder.
func (c *UDPChannel) Close() error {
	return c.conn.Close()
}

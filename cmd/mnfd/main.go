/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/fw"
	"github.com/named-data/mnfd/ndn"
)

// Version of MNFD.
const Version = "0.1.0"

func main() {
	var configFileName string
	var shouldPrintVersion bool
	flag.StringVar(&configFileName, "config", "/usr/local/etc/ndn/mnfd.toml", "Configuration file location")
	flag.BoolVar(&shouldPrintVersion, "version", false, "Print version and exit")
	flag.Parse()

	if shouldPrintVersion {
		fmt.Println("MNFD: Micro NDN Forwarding Daemon")
		fmt.Println("Version " + Version)
		os.Exit(0)
	}

	core.LoadConfig(configFileName)
	core.InitializeLogger()

	forwarder := fw.NewForwarder()

	listenHost := core.GetConfigStringDefault("faces.listen_host", "0.0.0.0")
	if core.GetConfigIntDefault("faces.tcp_listen", 1) != 0 {
		port := core.GetConfigUint16Default("faces.tcp_port", 6363)
		if _, err := forwarder.AddTCPChannel(listenHost, port); err != nil {
			core.LogFatal("Main", "Unable to create TCP channel: ", err)
		}
	}
	if core.GetConfigIntDefault("faces.udp_listen", 1) != 0 {
		port := core.GetConfigUint16Default("faces.udp_port", 6363)
		if _, err := forwarder.AddUDPChannel(listenHost, port); err != nil {
			core.LogFatal("Main", "Unable to create UDP channel: ", err)
		}
	}
	if core.GetConfigIntDefault("faces.websocket_listen", 0) != 0 {
		port := core.GetConfigUint16Default("faces.websocket_port", 9696)
		if _, err := forwarder.AddWebSocketChannel(listenHost, port); err != nil {
			core.LogFatal("Main", "Unable to create WebSocket channel: ", err)
		}
	}

	// Static routes have the form "/prefix tcp://host:port" or "/prefix udp://host:port"
	staticFaces := make(map[string]uint64)
	for _, route := range core.GetConfigArrayString("routes.static") {
		fields := strings.Fields(route)
		if len(fields) != 2 {
			core.LogError("Main", "Malformed static route \"", route, "\" - ignoring")
			continue
		}
		prefix, err := ndn.NameFromString(fields[0])
		if err != nil {
			core.LogError("Main", "Malformed static route prefix \"", fields[0], "\" - ignoring")
			continue
		}
		faceID, ok := staticFaces[fields[1]]
		if !ok {
			faceID, err = createStaticFace(forwarder, fields[1])
			if err != nil {
				core.LogError("Main", "Unable to create face for static route \"", route, "\": ", err)
				continue
			}
			staticFaces[fields[1]] = faceID
		}
		forwarder.AddRoute(prefix, faceID, 0)
	}

	core.LogInfo("Main", "MNFD "+Version+" started")

	pollInterval := time.Duration(core.GetConfigIntDefault("fw.poll_interval", 50)) * time.Millisecond
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case receivedSig := <-sigChannel:
			core.LogInfo("Main", "Received signal ", receivedSig, " - shutting down")
			return
		case <-ticker.C:
			if err := forwarder.ProcessEvents(); err != nil {
				// Channel failure; faces continue, the host decides about restart
				core.LogError("Main", "Channel failure: ", err)
			}
		}
	}
}

func createStaticFace(forwarder *fw.Forwarder, uri string) (uint64, error) {
	scheme, hostPort, found := strings.Cut(uri, "://")
	if !found {
		return 0, fmt.Errorf("malformed face URI %s", uri)
	}
	colon := strings.LastIndex(hostPort, ":")
	if colon < 0 {
		return 0, fmt.Errorf("malformed face URI %s", uri)
	}
	host := hostPort[:colon]
	port, err := strconv.ParseUint(hostPort[colon+1:], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("malformed port in face URI %s", uri)
	}

	switch scheme {
	case "tcp":
		return forwarder.AddTCPFace(host, uint16(port))
	case "udp":
		return forwarder.AddUDPFace(host, uint16(port))
	default:
		return 0, fmt.Errorf("unsupported face scheme %s", scheme)
	}
}

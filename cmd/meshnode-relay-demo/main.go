// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/northrelay/meshnode/bridge"
	"github.com/northrelay/meshnode/device/tcp"
	"github.com/northrelay/meshnode/relay/memory"
)

// demoVersion stands in for a real build-stamped version string; this
// binary has no analog of the daemon fleet's update-reconciliation
// version metadata.
const demoVersion = "0.1.0"

// tcpDeviceTypeHash is a stable, arbitrary identifier for the concrete
// device type every bridge in this binary wraps (spec §3's type_name_hash).
var tcpDeviceTypeHash = typeHash("github.com/northrelay/meshnode/device/tcp.Device")

func typeHash(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	listenAddr := "127.0.0.1:8643"
	topologyPath := ""
	maxFrameSize := 0
	compress := false
	verbose := false

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--listen" || arg == "-l":
			if i+1 >= len(args) {
				return fmt.Errorf("--listen requires an argument")
			}
			i++
			listenAddr = args[i]
		case arg == "--topology" || arg == "-t":
			if i+1 >= len(args) {
				return fmt.Errorf("--topology requires an argument")
			}
			i++
			topologyPath = args[i]
		case arg == "--max-frame":
			if i+1 >= len(args) {
				return fmt.Errorf("--max-frame requires an argument")
			}
			i++
			parsed, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("--max-frame: %w", err)
			}
			maxFrameSize = parsed
		case arg == "--compress" || arg == "-c":
			compress = true
		case arg == "--verbose" || arg == "-v":
			verbose = true
		case arg == "--help" || arg == "-h":
			printUsage()
			return nil
		case arg == "--version":
			fmt.Printf("meshnode-relay-demo %s\n", demoVersion)
			return nil
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	rel := memory.New(logger)

	if topologyPath != "" {
		return runTopology(rel, topologyPath, maxFrameSize, compress, logger)
	}
	return runListener(rel, listenAddr, maxFrameSize, compress, logger)
}

func printUsage() {
	fmt.Print(`meshnode-relay-demo - exercise the Device Bridge over real TCP sockets

USAGE
    meshnode-relay-demo [flags]

FLAGS
    -l, --listen <addr>     TCP address to accept inbound device connections on
                            (default: 127.0.0.1:8643). Each accepted connection
                            becomes its own bridge, looped back to itself, so
                            anything sent on the connection is chunked, framed,
                            reassembled, and sent straight back out.
    -t, --topology <path>   Dial a static mesh of peers described in a yaml
                            file instead of listening; see below.
        --max-frame <n>     Override each bridge's per-frame transport cap
                            instead of deriving it from the socket's send
                            buffer.
    -c, --compress          Apply transparent zstd compression to every
                            bridge's chunked data path.
    -v, --verbose           Enable debug-level logging.
    -h, --help              Show this help.
        --version           Print the version and exit.

TOPOLOGY FILE

    peers:
      left:
        dial: 127.0.0.1:9001
      right:
        dial: 127.0.0.1:9002
    routes:
      - from: left
        to: right
      - from: right
        to: left

    Each peer is dialed as a device/tcp.Device bridge; each route becomes a
    one-way relay/memory.Relay.Route call.
`)
}

// attachBridge wraps conn as a device/tcp.Device, builds a DeviceBridge
// over it, and registers it with rel under did. The returned *tcp.Device
// lets the caller close the underlying connection at shutdown; Detach
// alone only stops the bridge's receive worker.
func attachBridge(rel *memory.Relay, did string, conn net.Conn, maxFrameSize int, compress bool, logger *slog.Logger) (*bridge.DeviceBridge, *tcp.Device, error) {
	dev := tcp.NewDevice(conn, maxFrameSize)

	b, err := bridge.New(rel, did, tcpDeviceTypeHash, dev, false, false, nil, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("attachBridge: %w", err)
	}
	if compress {
		if err := b.SetCompression(true); err != nil {
			return nil, nil, fmt.Errorf("attachBridge: %w", err)
		}
	}

	b.OnAttach()
	if err := rel.Attach(did, b, b.SendPacket, b.Detach); err != nil {
		return nil, nil, fmt.Errorf("attachBridge: %w", err)
	}
	b.StartUpdatingInSeparateThread()
	return b, dev, nil
}

// runListener accepts connections on listenAddr and loops each one back
// to itself, so a client sending data over a chunked, frame-constrained
// connection sees it come straight back once reassembled and re-chunked.
func runListener(rel *memory.Relay, listenAddr string, maxFrameSize int, compress bool, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("runListener: %w", err)
	}
	logger.Info("listening", "addr", listenAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		ln.Close()
	}()

	var counter atomic.Uint64
	for {
		conn, err := ln.Accept()
		if err != nil {
			return nil
		}

		did := fmt.Sprintf("tcp-%d", counter.Add(1))
		_, _, err = attachBridge(rel, did, conn, maxFrameSize, compress, logger)
		if err != nil {
			logger.Error("attach failed", "error", err, "remote", conn.RemoteAddr())
			conn.Close()
			continue
		}
		rel.Route(did, did)
		logger.Info("accepted", "device_id", did, "remote", conn.RemoteAddr())
	}
}

// runTopology dials every peer in the topology file, attaches a bridge
// for each, configures the declared routes, then blocks until a shutdown
// signal detaches every bridge.
func runTopology(rel *memory.Relay, path string, maxFrameSize int, compress bool, logger *slog.Logger) error {
	topo, err := loadTopology(path)
	if err != nil {
		return err
	}

	bridges := make(map[string]*bridge.DeviceBridge, len(topo.Peers))
	devices := make(map[string]*tcp.Device, len(topo.Peers))
	for name, peer := range topo.Peers {
		conn, err := net.Dial("tcp", peer.Dial)
		if err != nil {
			return fmt.Errorf("runTopology: dial %s (%s): %w", name, peer.Dial, err)
		}
		b, dev, err := attachBridge(rel, name, conn, maxFrameSize, compress, logger)
		if err != nil {
			conn.Close()
			return fmt.Errorf("runTopology: %w", err)
		}
		bridges[name] = b
		devices[name] = dev
		logger.Info("dialed peer", "name", name, "addr", peer.Dial)
	}

	for _, route := range topo.Routes {
		rel.Route(route.From, route.To)
		logger.Info("route configured", "from", route.From, "to", route.To)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")

	for name, b := range bridges {
		b.Close()
		devices[name].Close()
		logger.Debug("closed bridge", "name", name)
	}
	return nil
}

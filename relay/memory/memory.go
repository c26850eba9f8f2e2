// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/northrelay/meshnode/relay"
)

// Compile-time interface check.
var _ relay.Relay = (*Relay)(nil)

// SendFunc delivers a reassembled logical packet to a bridge's own send
// path, so the bridge frames and writes it to its device. A bridge
// supplies this to [Relay.Attach] at registration time.
type SendFunc func(packet []byte) error

// ConnectorFunc receives a command-plane payload forwarded from a bridge,
// tagged with the originating device id. payload is the CBOR-encoded
// bridge.CommandEnvelope the bridge built; the Relay interface treats it
// as opaque bytes, so decoding it is the connector's job. Set with
// [Relay.SetConnectorHandler]; if unset, posted commands are only logged.
type ConnectorFunc func(did string, payload []byte)

type registration struct {
	handle    relay.BridgeHandle
	send      SendFunc
	detach    func()
	sessionID uuid.UUID
}

// Relay is an in-process bridge registry and static router. Routes are
// configured explicitly with [Relay.Route] — there is no discovery or
// handshake, since both are out of scope for the bridge this package
// exercises (spec §1).
type Relay struct {
	logger *slog.Logger

	mu      sync.Mutex
	bridges map[string]*registration
	routes  map[string]string // source did -> destination did

	connectorHandler ConnectorFunc
}

// New returns an empty Relay. If logger is nil, slog.Default() is used.
func New(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		logger:  logger,
		bridges: make(map[string]*registration),
		routes:  make(map[string]string),
	}
}

// SetConnectorHandler installs the function invoked on every
// PostCommandToConnector call.
func (r *Relay) SetConnectorHandler(fn ConnectorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectorHandler = fn
}

// Attach registers a bridge under its device id. send is the path packets
// routed to it are delivered through; detach is called once, after the
// registration is removed, so the relay can ask the bridge to flip its
// liveness flag the way [bridge.DeviceBridge.Close] expects (spec §4.4:
// "Close asks the Relay to remove this bridge... the Relay then calls
// Detach"). detach may be nil.
func (r *Relay) Attach(did string, handle relay.BridgeHandle, send SendFunc, detach func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bridges[did]; exists {
		return fmt.Errorf("relay: device id %q is already attached", did)
	}

	sessionID := uuid.New()
	r.bridges[did] = &registration{handle: handle, send: send, detach: detach, sessionID: sessionID}
	r.logger.Info("bridge attached", "device_id", did, "session_id", sessionID)
	return nil
}

// Route configures a one-way static route: packets received from
// fromDID are delivered to toDID's send path. Call twice (swapping
// arguments) for a bidirectional pairing.
func (r *Relay) Route(fromDID, toDID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[fromDID] = toDID
}

// OnPacketReceived delivers packet to the bridge routed from origin's
// device id, if any. An unroutable packet is logged and dropped — the
// real routing table this stands in for is out of scope (spec §1).
func (r *Relay) OnPacketReceived(packet []byte, origin relay.BridgeHandle) {
	r.mu.Lock()
	targetDID, routed := r.routes[origin.DeviceID()]
	var target *registration
	if routed {
		target = r.bridges[targetDID]
	}
	r.mu.Unlock()

	if !routed || target == nil {
		r.logger.Warn("dropping unroutable packet", "origin", origin.DeviceID(), "bytes", len(packet))
		return
	}

	if err := target.send(packet); err != nil {
		r.logger.Error("routed delivery failed", "origin", origin.DeviceID(), "target", targetDID, "error", err)
	}
}

// PostCommandToConnector forwards payload to the installed connector
// handler, if any, and always logs the event at debug level.
func (r *Relay) PostCommandToConnector(payload []byte, origin relay.BridgeHandle) {
	r.mu.Lock()
	handler := r.connectorHandler
	r.mu.Unlock()

	r.logger.Debug("command posted to connector", "device_id", origin.DeviceID(), "bytes", len(payload))
	if handler != nil {
		handler(origin.DeviceID(), payload)
	}
}

// DetachDevice removes did from the registry and from any routes that
// reference it, then invokes the detach callback supplied at Attach time.
func (r *Relay) DetachDevice(did string) {
	r.mu.Lock()
	reg, ok := r.bridges[did]
	delete(r.bridges, did)
	delete(r.routes, did)
	for source, target := range r.routes {
		if target == did {
			delete(r.routes, source)
		}
	}
	r.mu.Unlock()

	r.logger.Info("bridge detached", "device_id", did)
	if ok && reg.detach != nil {
		reg.detach()
	}
}

// Log records message attributed to did.
func (r *Relay) Log(message string, did string) {
	r.logger.Info(message, "device_id", did)
}

// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package relay

// BridgeHandle identifies the bridge a relay callback is reporting about,
// without giving the relay any of the bridge's internal state. It is the
// "bridge_backref" argument the original design passes into every Relay
// collaborator method (spec §6).
type BridgeHandle interface {
	// DeviceID returns the locally unique identifier the relay assigned
	// this bridge at registration.
	DeviceID() string

	// TypeNameHash returns the stable hash of the underlying device's
	// concrete type, used by the relay to select compatible peers.
	TypeNameHash() uint64
}

// Relay is the mesh-routing fabric a [bridge.DeviceBridge] calls back
// into. Its routing table and cryptographic handshake are out of scope —
// this interface is the small, well-typed surface the bridge consumes
// (spec §1, §6).
type Relay interface {
	// OnPacketReceived routes a fully reassembled logical packet
	// originating from the given bridge.
	OnPacketReceived(packet []byte, origin BridgeHandle)

	// PostCommandToConnector forwards a command-plane payload from the
	// given bridge to the relay's local connector.
	PostCommandToConnector(payload []byte, origin BridgeHandle)

	// DetachDevice removes the bridge identified by did from the relay's
	// registry. Called by [bridge.DeviceBridge.Close].
	DetachDevice(did string)

	// Log records a relay-level message attributed to the given device
	// id, for bridges that have no logger of their own to report through.
	Log(message string, did string)
}

// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package device

import "time"

// Backref is the handle a [Device] receives from [Device.OnAttach]. It is
// the device's only way to reach back into its owning bridge: pushing an
// inbound frame, forwarding a command to the connector, or reading the
// bridge's stable identity for logging. A device that never needs to push
// data on its own (a purely worker-polled device) can ignore the backref
// entirely after storing it.
type Backref interface {
	// PassNetworkPacket hands a raw transport frame to the bridge's
	// receive path: header parsing, reassembly, and delivery to the relay.
	PassNetworkPacket(frame []byte) error

	// PostCommandToConnector forwards a command-plane message to the
	// relay's local connector, tagged with this bridge's identity.
	PostCommandToConnector(payload []byte) error

	// DeviceID returns the locally unique identifier the relay assigned
	// this bridge at registration.
	DeviceID() string
}

// Device is the polymorphic transport a [bridge.DeviceBridge] drives. It
// knows how to move bytes but nothing about chunking, reassembly, or the
// mesh — every method here deals in raw frames or opaque command payloads
// (spec §6).
type Device interface {
	// OnAttach delivers a one-shot back-reference to the owning bridge.
	// Called exactly once, before the receive worker starts.
	OnAttach(backref Backref)

	// OnReceive drives one tick of inbound I/O. Implementations may block;
	// the worker calls this once per update-delay tick and treats a
	// returned error as a transient transport failure to log and survive.
	OnReceive() error

	// OnSendToChannelInternal offers frame to the transport and reports
	// how many leading bytes of frame were actually transmitted. The
	// bridge treats the return value as ground truth for how far to
	// advance its send cursor — it may be less than len(frame).
	OnSendToChannelInternal(frame []byte) (sent int, err error)

	// OnCommandFromConnector delivers a command-plane payload originating
	// from the relay's local connector. Called under the bridge's write
	// serialization, alongside OnSendToChannelInternal.
	OnCommandFromConnector(payload []byte) error

	// OnRunCommand issues a synchronous request/response exchange into
	// the device and returns its result buffer.
	OnRunCommand(payload []byte) ([]byte, error)

	// OnWhoAmI returns an identity probe response.
	OnWhoAmI() ([]byte, error)

	// UpdateDelay returns the duration the worker should sleep before the
	// next OnReceive call. May be randomized within a configured range.
	UpdateDelay() time.Duration

	// SetUpdateDelay configures the worker to sleep a random duration
	// in [min, max) between ticks.
	SetUpdateDelay(min, max time.Duration)

	// SetUpdateDelayFixed configures the worker to sleep exactly d
	// between ticks.
	SetUpdateDelayFixed(d time.Duration)

	// IsChannel reports whether this device represents a network channel
	// (as opposed to a local connector-only device). Combined with the
	// bridge's own is_negotiation_channel flag, this determines whether
	// the bridge's negotiation-channel behavior actually applies (see
	// SPEC_FULL.md §C.1).
	IsChannel() bool
}

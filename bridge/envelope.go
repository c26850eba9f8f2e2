// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "github.com/northrelay/meshnode/lib/codec"

// CommandKind discriminates the direction and purpose of a
// [CommandEnvelope] (spec §4.3).
type CommandKind string

const (
	// CommandKindPost tags a payload the bridge is forwarding from its
	// device to the relay's local connector (PostCommandToConnector).
	CommandKindPost CommandKind = "post"

	// CommandKindDispatch tags a payload the relay's local connector is
	// delivering down into a device (OnCommandFromConnector).
	CommandKindDispatch CommandKind = "dispatch"
)

// CommandEnvelope is the self-describing wrapper around every
// command-plane payload that crosses the bridge/relay boundary (spec
// §4.3). A device's own command bytes travel opaquely in Args — the
// device never sees or produces an envelope, only the bridge does, so
// [device.Device] keeps dealing in raw payloads exactly as before.
//
// Encoded with [codec.Marshal] (CBOR, Core Deterministic Encoding): the
// envelope is small, infrequent relative to chunked data traffic, and
// benefits from a self-describing format a connector implementation
// outside this module can decode without sharing a binary layout.
type CommandEnvelope struct {
	Kind     CommandKind `cbor:"kind"`
	DeviceID string      `cbor:"device_id"`
	Args     []byte      `cbor:"args,omitempty"`
}

// encodeCommandEnvelope builds and marshals a CommandEnvelope.
func encodeCommandEnvelope(kind CommandKind, did string, args []byte) ([]byte, error) {
	return codec.Marshal(CommandEnvelope{Kind: kind, DeviceID: did, Args: args})
}

// decodeCommandEnvelope unmarshals data into a CommandEnvelope.
func decodeCommandEnvelope(data []byte) (CommandEnvelope, error) {
	var env CommandEnvelope
	err := codec.Unmarshal(data, &env)
	return env, err
}

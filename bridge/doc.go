// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge provides [DeviceBridge], the adapter that sits between a
// polymorphic transport ([device.Device]) and the mesh-routing fabric
// ([relay.Relay]).
//
// A DeviceBridge owns exactly one Device and holds a shared back-reference
// to the Relay that constructed it. It runs a single receive worker that
// polls the device on a configurable delay, serializes every write into
// the device behind one mutex, and implements the chunked framing
// protocol that lets logical packets larger than a transport's per-frame
// capacity traverse it: each outbound chunk carries a 12-byte header
// (message id, chunk id, original size), and the transport's reported
// "bytes accepted" is the only ground truth the bridge uses to decide how
// far to advance.
//
// A dedicated negotiation channel — used for the initial mesh handshake —
// never chunks: it must transmit every logical packet in one frame, and a
// partial accept there is a protocol violation, not a signal to retry. If
// its device implements [KeyDeriver], the slave side uses the decoded
// (input_id, output_id) pair to derive channel key material, available
// afterward via ChannelKey.
//
// SetCompression optionally wraps every packet on the ordinary chunked
// path in zstd before it is split into chunks, and unwraps it after
// reassembly — both ends of a bridge pair must be configured the same
// way, since nothing on the wire distinguishes compressed chunk streams
// from plain ones.
//
// Construct a DeviceBridge with [New], call OnAttach once to hand the
// device its back-reference, then StartUpdatingInSeparateThread to begin
// the receive loop. Detach (cooperative) or Close (routes through the
// relay's registry) tear it down; both are safe to call more than once.
//
// Command-plane traffic crossing the bridge/relay boundary — everything
// PostCommandToConnector and OnCommandFromConnector exchange — is wrapped
// in a [CommandEnvelope] and CBOR-encoded via lib/codec; the device on
// the other side of the bridge never sees the envelope, only its raw
// Args payload.
package bridge

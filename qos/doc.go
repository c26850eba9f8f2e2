// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package qos provides the per-bridge QualityOfService engine: the
// outbound message-id generator and the inbound chunk reassembly
// buffer described in spec §3 and §4.1.
//
// A [QoS] instance is owned by exactly one [bridge.DeviceBridge]. It
// allocates strictly increasing message ids for outgoing logical
// packets and buffers inbound chunks keyed by (message_id, chunk_id)
// until every byte in [0, original_size) has arrived, at which point
// [QoS.GetNextPacket] returns the reassembled packet exactly once.
//
// QoS tolerates out-of-order chunk arrival and concurrent in-flight
// messages. Duplicate chunks are idempotent. It does not tolerate
// chunk loss — a gap holds the message pending indefinitely; recovery
// from loss is a transport/retry concern, not QoS's.
package qos

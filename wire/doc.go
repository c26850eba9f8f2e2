// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire provides meshnode's binary cursor types and the fixed
// wire formats used by the device bridge: the three-field chunk header
// and the length-prefixed negotiation-channel argument encoding.
//
// [View] is a borrowed read cursor over a byte slice — it never copies
// the underlying bytes. [Vector] is an owned, growable write buffer.
// Both use a little-endian, length-prefixed field codec throughout:
// every variable-length field is preceded by its own uint32 byte count.
//
// This package exists alongside lib/codec's CBOR encoder rather than
// replacing it. CBOR is Bureau's — and meshnode's — convention for
// self-describing internal protocol envelopes; this package is for the
// one place a self-describing envelope is wrong: a fixed 12-byte wire
// header whose three uint32 fields must be bit-identical across every
// implementation in the mesh, decoded without first knowing how many
// bytes it occupies.
package wire

// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides meshnode's standard CBOR encoding configuration
// for the command plane.
//
// Raw chunk and negotiation bytes (spec §6) are never run through this
// package — their layout is fixed and bit-critical, and lives in wire's
// little-endian binary codec instead. codec is for the command-plane
// envelope [bridge.CommandEnvelope] carries: commands posted to and
// delivered from the relay's connector, where a self-describing, deterministic
// format is worth the extra bytes.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes, which matters for
// anything that gets logged or hashed for comparison.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
package codec

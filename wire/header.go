// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "fmt"

// HeaderSize is the fixed size, in bytes, of a chunk header: three
// little-endian uint32 fields (§4.1, §6).
const HeaderSize = 12

// ChunkHeader is the fixed header prepended to every outgoing chunk on
// a non-negotiation channel. OriginalSize is the byte length of the
// complete logical packet and is identical across every chunk of the
// same message; ChunkID starts at zero and increments by one per
// accepted chunk.
type ChunkHeader struct {
	MessageID    uint32
	ChunkID      uint32
	OriginalSize uint32
}

// Encode writes the header as HeaderSize little-endian bytes.
func (h ChunkHeader) Encode() [HeaderSize]byte {
	var out [HeaderSize]byte
	vec := Vector{buf: out[:0]}
	vec.WriteUint32(h.MessageID)
	vec.WriteUint32(h.ChunkID)
	vec.WriteUint32(h.OriginalSize)
	return out
}

// DecodeChunkHeader parses the fixed 12-byte header from the front of
// frame. It does not consume frame — callers slice off HeaderSize
// bytes themselves once decoding succeeds.
func DecodeChunkHeader(frame []byte) (ChunkHeader, error) {
	if len(frame) < HeaderSize {
		return ChunkHeader{}, fmt.Errorf("wire: DecodeChunkHeader: frame is %d bytes, need at least %d", len(frame), HeaderSize)
	}
	view := NewView(frame[:HeaderSize])
	messageID, _ := view.ReadUint32()
	chunkID, _ := view.ReadUint32()
	originalSize, _ := view.ReadUint32()
	return ChunkHeader{
		MessageID:    messageID,
		ChunkID:      chunkID,
		OriginalSize: originalSize,
	}, nil
}

// DecodeNegotiationArgs parses a negotiation channel's leading
// (input_id, output_id) byte-vector pair, returning them along with
// the verbatim remainder that the constructor retains as
// non-negotiated, device-specific handshake arguments (§3, §6).
func DecodeNegotiationArgs(args []byte) (inputID, outputID, rest []byte, err error) {
	view := NewView(args)

	inputID, err = view.ReadLengthPrefixed()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wire: DecodeNegotiationArgs: input_id: %w", err)
	}

	outputID, err = view.ReadLengthPrefixed()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wire: DecodeNegotiationArgs: output_id: %w", err)
	}

	return inputID, outputID, view.Remainder(), nil
}

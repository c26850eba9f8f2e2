// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "encoding/binary"

// Vector is an owned, growable write buffer. All multi-byte integers
// are written little-endian. The zero value is ready to use.
type Vector struct {
	buf []byte
}

// NewVector returns a Vector with capacity pre-reserved, a small
// optimization for callers that know the final size up front.
func NewVector(capacity int) *Vector {
	return &Vector{buf: make([]byte, 0, capacity)}
}

// WriteUint32 appends v as four little-endian bytes.
func (vec *Vector) WriteUint32(v uint32) *Vector {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	vec.buf = append(vec.buf, tmp[:]...)
	return vec
}

// WriteBytes appends data verbatim.
func (vec *Vector) WriteBytes(data []byte) *Vector {
	vec.buf = append(vec.buf, data...)
	return vec
}

// WriteLengthPrefixed appends a uint32 byte count followed by data.
func (vec *Vector) WriteLengthPrefixed(data []byte) *Vector {
	vec.WriteUint32(uint32(len(data)))
	vec.WriteBytes(data)
	return vec
}

// Bytes returns the accumulated buffer. The returned slice aliases
// the Vector's internal storage; callers that continue writing after
// calling Bytes must not rely on the earlier slice remaining stable.
func (vec *Vector) Bytes() []byte {
	return vec.buf
}

// Len returns the number of bytes written so far.
func (vec *Vector) Len() int {
	return len(vec.buf)
}

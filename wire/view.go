// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"
)

// View is a borrowed read cursor over a byte slice. It never copies the
// underlying bytes — callers that need to retain data past the view's
// lifetime must copy it themselves. All multi-byte integers are
// little-endian.
type View struct {
	data []byte
}

// NewView wraps data in a read cursor starting at offset zero.
func NewView(data []byte) View {
	return View{data: data}
}

// Len returns the number of unread bytes remaining in the view.
func (v View) Len() int {
	return len(v.data)
}

// Remainder returns the unread portion of the underlying slice,
// without copying.
func (v View) Remainder() []byte {
	return v.data
}

// ReadUint32 consumes and returns the next four bytes as a
// little-endian uint32.
func (v *View) ReadUint32() (uint32, error) {
	if len(v.data) < 4 {
		return 0, fmt.Errorf("wire: ReadUint32: need 4 bytes, have %d", len(v.data))
	}
	value := binary.LittleEndian.Uint32(v.data[:4])
	v.data = v.data[4:]
	return value, nil
}

// ReadBytes consumes and returns the next n bytes. The returned slice
// aliases the view's underlying array.
func (v *View) ReadBytes(n int) ([]byte, error) {
	if n < 0 || len(v.data) < n {
		return nil, fmt.Errorf("wire: ReadBytes: need %d bytes, have %d", n, len(v.data))
	}
	out := v.data[:n]
	v.data = v.data[n:]
	return out, nil
}

// ReadLengthPrefixed consumes a uint32 byte count followed by that
// many bytes, returning the payload. This is the field codec used by
// the negotiation-channel argument encoding (§6).
func (v *View) ReadLengthPrefixed() ([]byte, error) {
	length, err := v.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("wire: ReadLengthPrefixed: length: %w", err)
	}
	payload, err := v.ReadBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("wire: ReadLengthPrefixed: payload: %w", err)
	}
	return payload, nil
}

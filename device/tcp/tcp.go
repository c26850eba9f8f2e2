// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package tcp

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/northrelay/meshnode/device"
)

// Compile-time interface check.
var _ device.Device = (*Device)(nil)

// defaultMaxFrameSize is used when the platform send-buffer size cannot
// be determined and the caller did not set one explicitly.
const defaultMaxFrameSize = 4096

// recordHeaderSize is the width of this package's own length-prefixed
// record framing, distinct from the bridge's chunk header — see doc.go.
const recordHeaderSize = 4

// Device is a [device.Device] backed by a net.Conn. One Device drives
// exactly one connection; callers needing multiple bridges over one
// listener construct one Device per accepted connection.
type Device struct {
	conn net.Conn

	// MaxFrameSize caps how many bytes of an offered frame a single
	// OnSendToChannelInternal call transmits. Zero means "determine from
	// the socket" at construction time, falling back to
	// defaultMaxFrameSize.
	MaxFrameSize int

	mu      sync.Mutex
	backref device.Backref

	delayMu     sync.Mutex
	delayFixed  time.Duration
	delayMin    time.Duration
	delayMax    time.Duration
	delayRandom bool
}

// NewDevice wraps conn as a Device. If maxFrameSize is zero, the send
// buffer size is queried from the socket (Linux only; see sndbuf_linux.go)
// and used as the cap, falling back to defaultMaxFrameSize.
func NewDevice(conn net.Conn, maxFrameSize int) *Device {
	if maxFrameSize <= 0 {
		maxFrameSize = sendBufferSize(conn)
	}
	if maxFrameSize <= 0 {
		maxFrameSize = defaultMaxFrameSize
	}
	return &Device{conn: conn, MaxFrameSize: maxFrameSize}
}

// OnAttach stores the bridge back-reference.
func (d *Device) OnAttach(backref device.Backref) {
	d.mu.Lock()
	d.backref = backref
	d.mu.Unlock()
}

// OnReceive blocks for exactly one length-prefixed record and delivers it
// whole to the bridge.
func (d *Device) OnReceive() error {
	record, err := readRecord(d.conn)
	if err != nil {
		return fmt.Errorf("tcp: OnReceive: %w", err)
	}

	d.mu.Lock()
	backref := d.backref
	d.mu.Unlock()
	if backref == nil {
		return fmt.Errorf("tcp: OnReceive: frame arrived before OnAttach")
	}
	return backref.PassNetworkPacket(record)
}

// OnSendToChannelInternal truncates frame to MaxFrameSize if necessary,
// writes it as one length-prefixed record, and reports the truncated
// length as bytes sent. A partial write lets the bridge's chunking
// algorithm (spec §4.1) make forward progress across a send-buffer-
// constrained connection without this device needing to know anything
// about headers or payloads.
func (d *Device) OnSendToChannelInternal(frame []byte) (int, error) {
	offer := frame
	if d.MaxFrameSize > 0 && len(offer) > d.MaxFrameSize {
		offer = offer[:d.MaxFrameSize]
	}
	if err := writeRecord(d.conn, offer); err != nil {
		return 0, fmt.Errorf("tcp: OnSendToChannelInternal: %w", err)
	}
	return len(offer), nil
}

// OnCommandFromConnector writes payload as a record on the same
// connection, under the bridge's write serialization.
func (d *Device) OnCommandFromConnector(payload []byte) error {
	if err := writeRecord(d.conn, payload); err != nil {
		return fmt.Errorf("tcp: OnCommandFromConnector: %w", err)
	}
	return nil
}

// OnRunCommand is not meaningfully synchronous over a one-shot stream
// device; it writes the request and waits for the next record as the
// response.
func (d *Device) OnRunCommand(payload []byte) ([]byte, error) {
	if err := writeRecord(d.conn, payload); err != nil {
		return nil, fmt.Errorf("tcp: OnRunCommand: write: %w", err)
	}
	response, err := readRecord(d.conn)
	if err != nil {
		return nil, fmt.Errorf("tcp: OnRunCommand: read: %w", err)
	}
	return response, nil
}

// OnWhoAmI reports the local and remote socket addresses.
func (d *Device) OnWhoAmI() ([]byte, error) {
	return []byte(fmt.Sprintf("tcp:%s->%s", d.conn.LocalAddr(), d.conn.RemoteAddr())), nil
}

// UpdateDelay returns the configured fixed delay, or a value drawn from
// [min, max) if a randomized range was configured.
func (d *Device) UpdateDelay() time.Duration {
	d.delayMu.Lock()
	defer d.delayMu.Unlock()
	if !d.delayRandom {
		return d.delayFixed
	}
	span := d.delayMax - d.delayMin
	if span <= 0 {
		return d.delayMin
	}
	return d.delayMin + time.Duration(rand.Int63n(int64(span)))
}

// SetUpdateDelay configures UpdateDelay to return a value drawn uniformly
// from [min, max) on each call.
func (d *Device) SetUpdateDelay(min, max time.Duration) {
	d.delayMu.Lock()
	defer d.delayMu.Unlock()
	d.delayMin, d.delayMax = min, max
	d.delayRandom = true
}

// SetUpdateDelayFixed configures UpdateDelay to always return dur.
func (d *Device) SetUpdateDelayFixed(dur time.Duration) {
	d.delayMu.Lock()
	defer d.delayMu.Unlock()
	d.delayFixed = dur
	d.delayRandom = false
}

// IsChannel reports true: a TCP device always stands in for a network
// channel.
func (d *Device) IsChannel() bool { return true }

// channelKeySize is the length of the key DeriveChannelKey expands to —
// a plain 256-bit key, matching what a downstream AEAD would want.
const channelKeySize = 32

// DeriveChannelKey expands the negotiation channel's (input_id, output_id)
// pair into a channel key via HKDF-SHA256, standing in for the real mesh
// handshake (out of scope per spec §1). inputID is used as HKDF's secret
// and outputID as its salt, so the two negotiating peers — who each see
// both ids — derive identical key material without exchanging anything
// further over the wire.
//
// This only makes sense once [bridge.DeviceBridge] has decoded the
// negotiation arguments and knows it is the slave side; it has no bearing
// on the ordinary chunked data path.
func (d *Device) DeriveChannelKey(inputID, outputID []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputID, outputID, []byte("meshnode negotiation channel key"))
	key := make([]byte, channelKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("tcp: DeriveChannelKey: %w", err)
	}
	return key, nil
}

// Close closes the underlying connection.
func (d *Device) Close() error { return d.conn.Close() }

func writeRecord(w io.Writer, data []byte) error {
	var header [recordHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}

func readRecord(r io.Reader) ([]byte, error) {
	var header [recordHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

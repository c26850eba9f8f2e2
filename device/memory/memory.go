// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/northrelay/meshnode/device"
)

// Compile-time interface check.
var _ device.Device = (*Device)(nil)

// AcceptFunc reports how many leading bytes of frame a simulated transport
// accepts on one send call. The default, used when nil, accepts every
// byte offered. Tests that exercise chunking supply a func returning a
// smaller, possibly varying count.
type AcceptFunc func(frame []byte) int

// Device is an in-process, in-memory [device.Device]. Two Devices created
// together with [NewPair] exchange frames directly, with no socket or
// goroutine scheduling involved — OnSendToChannelInternal on one side
// synchronously enqueues into the other side's inbox.
type Device struct {
	accept AcceptFunc

	mu      sync.Mutex
	peer    *Device
	backref device.Backref
	inbox   [][]byte
	isChan  bool

	delayMu     sync.Mutex
	delayFixed  time.Duration
	delayMin    time.Duration
	delayMax    time.Duration
	delayRandom bool
}

// NewPair returns two linked Devices. acceptA governs how much of each
// frame written by the first device the second device's inbox accepts;
// acceptB governs the reverse direction. A nil AcceptFunc accepts whole
// frames.
func NewPair(acceptA, acceptB AcceptFunc) (a, b *Device) {
	a = &Device{accept: acceptA, isChan: true}
	b = &Device{accept: acceptB, isChan: true}
	a.peer = b
	b.peer = a
	return a, b
}

// OnAttach stores the bridge back-reference (spec §4.4).
func (d *Device) OnAttach(backref device.Backref) {
	d.mu.Lock()
	d.backref = backref
	d.mu.Unlock()
}

// OnReceive delivers every frame enqueued in this device's inbox since the
// last call to the bridge via its back-reference.
func (d *Device) OnReceive() error {
	d.mu.Lock()
	pending := d.inbox
	d.inbox = nil
	backref := d.backref
	d.mu.Unlock()

	for _, frame := range pending {
		if backref == nil {
			return fmt.Errorf("memory: device received a frame before OnAttach")
		}
		if err := backref.PassNetworkPacket(frame); err != nil {
			return err
		}
	}
	return nil
}

// OnSendToChannelInternal offers frame to the peer device, accepting as
// many leading bytes as the configured AcceptFunc reports and enqueuing
// exactly that many bytes as a new inbox entry on the peer.
func (d *Device) OnSendToChannelInternal(frame []byte) (int, error) {
	d.mu.Lock()
	peer := d.peer
	accept := d.accept
	d.mu.Unlock()

	if peer == nil {
		return 0, fmt.Errorf("memory: device has no peer")
	}

	sent := len(frame)
	if accept != nil {
		sent = accept(frame)
	}
	if sent < 0 {
		sent = 0
	}
	if sent > len(frame) {
		sent = len(frame)
	}

	if sent > 0 {
		accepted := append([]byte(nil), frame[:sent]...)
		peer.mu.Lock()
		peer.inbox = append(peer.inbox, accepted)
		peer.mu.Unlock()
	}
	return sent, nil
}

// OnCommandFromConnector is a no-op that records nothing; memory devices
// have no connector-facing behavior of their own. A test that needs
// command-plane behavior embeds Device and overrides this method, as the
// bridge tests do.
func (d *Device) OnCommandFromConnector(_ []byte) error {
	return nil
}

// OnRunCommand echoes payload back, which is enough for the bridge's
// synchronous request/response contract to be test-observable.
func (d *Device) OnRunCommand(payload []byte) ([]byte, error) {
	return payload, nil
}

// OnWhoAmI returns a fixed identity string.
func (d *Device) OnWhoAmI() ([]byte, error) {
	return []byte("memory-device"), nil
}

// UpdateDelay returns the configured fixed delay, or a value drawn
// uniformly from [min, max) if a randomized range was configured. Returns
// zero until one of the Set methods is called.
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

// IsChannel reports true: memory devices stand in for network channels in
// tests.
func (d *Device) IsChannel() bool {
	return d.isChan
}

// Inject enqueues frame directly into the device's inbox, bypassing the
// peer link. Tests use this to simulate out-of-order chunk arrival without
// depending on send-side chunking behavior.
func (d *Device) Inject(frame []byte) {
	d.mu.Lock()
	d.inbox = append(d.inbox, append([]byte(nil), frame...))
	d.mu.Unlock()
}

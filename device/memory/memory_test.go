// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bytes"
	"sync"
	"testing"

	"github.com/northrelay/meshnode/device"
)

// recordingBackref captures every frame and command handed to it.
type recordingBackref struct {
	mu       sync.Mutex
	frames   [][]byte
	commands [][]byte
}

func (r *recordingBackref) PassNetworkPacket(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte(nil), frame...))
	return nil
}

func (r *recordingBackref) PostCommandToConnector(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, append([]byte(nil), payload...))
	return nil
}

func (r *recordingBackref) DeviceID() string { return "test-device" }

func TestPairDeliversWholeFrameByDefault(t *testing.T) {
	a, b := NewPair(nil, nil)
	backrefB := &recordingBackref{}
	b.OnAttach(backrefB)

	frame := []byte("a frame worth of bytes")
	sent, err := a.OnSendToChannelInternal(frame)
	if err != nil {
		t.Fatalf("OnSendToChannelInternal: %v", err)
	}
	if sent != len(frame) {
		t.Fatalf("sent = %d, want %d", sent, len(frame))
	}

	if err := b.OnReceive(); err != nil {
		t.Fatalf("OnReceive: %v", err)
	}
	if len(backrefB.frames) != 1 || !bytes.Equal(backrefB.frames[0], frame) {
		t.Fatalf("backref frames = %v, want [%q]", backrefB.frames, frame)
	}
}

func TestPairHonorsAcceptFunc(t *testing.T) {
	accept := func(frame []byte) int {
		if len(frame) > 5 {
			return 5
		}
		return len(frame)
	}
	a, b := NewPair(accept, nil)
	backrefB := &recordingBackref{}
	b.OnAttach(backrefB)

	frame := []byte("0123456789")
	sent, err := a.OnSendToChannelInternal(frame)
	if err != nil {
		t.Fatalf("OnSendToChannelInternal: %v", err)
	}
	if sent != 5 {
		t.Fatalf("sent = %d, want 5", sent)
	}

	if err := b.OnReceive(); err != nil {
		t.Fatalf("OnReceive: %v", err)
	}
	if len(backrefB.frames) != 1 || !bytes.Equal(backrefB.frames[0], frame[:5]) {
		t.Fatalf("backref frames = %v, want [%q]", backrefB.frames, frame[:5])
	}
}

func TestInjectBypassesPeerLink(t *testing.T) {
	a, _ := NewPair(nil, nil)
	backrefA := &recordingBackref{}
	a.OnAttach(backrefA)

	a.Inject([]byte("direct"))
	if err := a.OnReceive(); err != nil {
		t.Fatalf("OnReceive: %v", err)
	}
	if len(backrefA.frames) != 1 || string(backrefA.frames[0]) != "direct" {
		t.Fatalf("frames = %v, want [direct]", backrefA.frames)
	}
}

func TestUpdateDelayFixed(t *testing.T) {
	d := &Device{}
	d.SetUpdateDelayFixed(0)
	if got := d.UpdateDelay(); got != 0 {
		t.Fatalf("UpdateDelay = %v, want 0", got)
	}
}

var _ device.Device = (*Device)(nil)

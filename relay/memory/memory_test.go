// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bytes"
	"testing"
)

type fakeHandle struct {
	did  string
	hash uint64
}

func (h fakeHandle) DeviceID() string      { return h.did }
func (h fakeHandle) TypeNameHash() uint64 { return h.hash }

func TestRouteDeliversToTarget(t *testing.T) {
	r := New(nil)

	var delivered []byte
	if err := r.Attach("b", fakeHandle{did: "b"}, func(packet []byte) error {
		delivered = packet
		return nil
	}, nil); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := r.Attach("a", fakeHandle{did: "a"}, func([]byte) error { return nil }, nil); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	r.Route("a", "b")

	r.OnPacketReceived([]byte("payload"), fakeHandle{did: "a"})

	if !bytes.Equal(delivered, []byte("payload")) {
		t.Fatalf("delivered = %q, want %q", delivered, "payload")
	}
}

func TestUnroutablePacketDropped(t *testing.T) {
	r := New(nil)
	// Should not panic even with no routes configured.
	r.OnPacketReceived([]byte("x"), fakeHandle{did: "ghost"})
}

func TestAttachDuplicateRejected(t *testing.T) {
	r := New(nil)
	send := func([]byte) error { return nil }
	if err := r.Attach("a", fakeHandle{did: "a"}, send, nil); err != nil {
		t.Fatalf("first Attach: %v", err)
	}
	if err := r.Attach("a", fakeHandle{did: "a"}, send, nil); err == nil {
		t.Fatal("expected error re-attaching the same device id")
	}
}

func TestDetachInvokesCallbackAndRemovesRoutes(t *testing.T) {
	r := New(nil)
	send := func([]byte) error { return nil }
	var detachCalled bool
	r.Attach("a", fakeHandle{did: "a"}, send, nil)
	r.Attach("b", fakeHandle{did: "b"}, send, func() { detachCalled = true })
	r.Route("a", "b")

	r.DetachDevice("b")

	if !detachCalled {
		t.Fatal("expected detach callback to run")
	}

	r.mu.Lock()
	_, routed := r.routes["a"]
	r.mu.Unlock()
	if routed {
		t.Fatal("expected route from a to be removed once b is detached")
	}

	// Re-attaching "b" should now succeed since it was removed.
	var delivered bool
	if err := r.Attach("b", fakeHandle{did: "b"}, func([]byte) error {
		delivered = true
		return nil
	}, nil); err != nil {
		t.Fatalf("Attach after detach: %v", err)
	}
	_ = delivered
}

func TestPostCommandToConnectorInvokesHandler(t *testing.T) {
	r := New(nil)
	var gotDID string
	var gotPayload []byte
	r.SetConnectorHandler(func(did string, payload []byte) {
		gotDID, gotPayload = did, payload
	})

	r.PostCommandToConnector([]byte("cmd"), fakeHandle{did: "a"})

	if gotDID != "a" || string(gotPayload) != "cmd" {
		t.Fatalf("got (%q, %q), want (a, cmd)", gotDID, gotPayload)
	}
}

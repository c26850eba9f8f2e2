// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package tcp

import (
	"bytes"
	"net"
	"sync"
	"testing"

	"github.com/northrelay/meshnode/device"
)

type recordingBackref struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *recordingBackref) PassNetworkPacket(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte(nil), frame...))
	return nil
}

func (r *recordingBackref) PostCommandToConnector(_ []byte) error { return nil }
func (r *recordingBackref) DeviceID() string                      { return "tcp-test" }

func TestRecordRoundtrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewDevice(clientConn, 1<<20)
	server := NewDevice(serverConn, 1<<20)

	backref := &recordingBackref{}
	server.OnAttach(backref)

	payload := []byte("hello over tcp")
	done := make(chan error, 1)
	go func() {
		_, err := client.OnSendToChannelInternal(payload)
		done <- err
	}()

	if err := server.OnReceive(); err != nil {
		t.Fatalf("OnReceive: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("OnSendToChannelInternal: %v", err)
	}

	if len(backref.frames) != 1 || !bytes.Equal(backref.frames[0], payload) {
		t.Fatalf("frames = %v, want [%q]", backref.frames, payload)
	}
}

func TestSendTruncatesToMaxFrameSize(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewDevice(clientConn, 5)
	server := NewDevice(serverConn, 1<<20)

	backref := &recordingBackref{}
	server.OnAttach(backref)

	payload := []byte("0123456789")
	sentCh := make(chan int, 1)
	go func() {
		sent, _ := client.OnSendToChannelInternal(payload)
		sentCh <- sent
	}()

	if err := server.OnReceive(); err != nil {
		t.Fatalf("OnReceive: %v", err)
	}
	if sent := <-sentCh; sent != 5 {
		t.Fatalf("sent = %d, want 5", sent)
	}
	if len(backref.frames) != 1 || !bytes.Equal(backref.frames[0], payload[:5]) {
		t.Fatalf("frames = %v, want [%q]", backref.frames, payload[:5])
	}
}

func TestOnRunCommandRoundtrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewDevice(clientConn, 1<<20)

	go func() {
		request, err := readRecord(serverConn)
		if err != nil {
			return
		}
		response := append([]byte("echo:"), request...)
		writeRecord(serverConn, response)
	}()

	response, err := client.OnRunCommand([]byte("ping"))
	if err != nil {
		t.Fatalf("OnRunCommand: %v", err)
	}
	if string(response) != "echo:ping" {
		t.Fatalf("response = %q, want %q", response, "echo:ping")
	}
}

var _ device.Device = (*Device)(nil)

func TestDeriveChannelKeyDeterministic(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()
	d := NewDevice(clientConn, 1<<20)

	key1, err := d.DeriveChannelKey([]byte("input-id"), []byte("output-id"))
	if err != nil {
		t.Fatalf("DeriveChannelKey: %v", err)
	}
	if len(key1) != channelKeySize {
		t.Fatalf("len(key) = %d, want %d", len(key1), channelKeySize)
	}

	key2, err := d.DeriveChannelKey([]byte("input-id"), []byte("output-id"))
	if err != nil {
		t.Fatalf("DeriveChannelKey: %v", err)
	}
	if !bytes.Equal(key1, key2) {
		t.Fatalf("DeriveChannelKey is not deterministic for identical inputs")
	}

	key3, err := d.DeriveChannelKey([]byte("different-input"), []byte("output-id"))
	if err != nil {
		t.Fatalf("DeriveChannelKey: %v", err)
	}
	if bytes.Equal(key1, key3) {
		t.Fatal("DeriveChannelKey produced the same key for different inputs")
	}
}

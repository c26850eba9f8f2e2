// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package device defines the collaborator interface a [bridge.DeviceBridge]
// drives on the transport side of one mesh channel (spec §6).
//
// A Device is whatever moves bytes on the wire: a TCP socket, a pipe to a
// child process, an in-memory peer used in tests. It knows nothing about
// chunking, reassembly, or the relay mesh — it only reports how many bytes
// of an offered slice it actually accepted, and delivers whatever bytes it
// has received so far when polled. The bridge is the only caller that
// understands the difference between a logical packet and a chunk; the
// device never sees that distinction.
//
// [device/memory] provides an in-process pair for tests, grounded in the
// project's existing in-memory signaling fake. [device/tcp] provides a
// net.Conn-backed device for real deployments.
package device

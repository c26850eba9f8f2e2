// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package tcp provides a [device.Device] backed by a net.Conn.
//
// TCP delivers a reliable byte stream with no frame boundaries of its own,
// so this device imposes one: every call to OnSendToChannelInternal writes
// its (possibly truncated) offer as one big-endian length-prefixed record,
// the same wire convention the project's artifact transfer code uses for
// streaming messages over a socket. OnReceive blocks for exactly one
// record and hands it to the bridge whole.
//
// MaxFrameSize caps how much of an offered frame one write will carry,
// standing in for the unpredictable per-frame capacity real transports
// impose (spec §4.1's rationale). On Linux, [NewDevice] defaults it from
// the socket's SO_SNDBUF via golang.org/x/sys/unix when the size is not
// set explicitly, so a TCP device's chunking behavior reflects the actual
// kernel send buffer instead of an arbitrary constant.
package tcp

// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides an in-process [device.Device] pair for tests,
// bypassing any real transport entirely — two Devices linked by [NewPair]
// can exchange frames without a socket, a pipe, or a goroutine racing a
// scheduler. This mirrors the project's existing in-memory signaling fake
// used to test WebRTC transports without a network.
//
// The [AcceptFunc] each side is given in [NewPair] lets tests simulate
// transports with small,
// irregular, or stalling per-frame capacity — exactly the behavior the
// bridge's chunking algorithm (spec §4.1) is designed to tolerate.
package memory

// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package tcp

import "net"

// sendBufferSize is unimplemented on non-Linux platforms; callers fall
// back to defaultMaxFrameSize.
func sendBufferSize(_ net.Conn) int {
	return 0
}

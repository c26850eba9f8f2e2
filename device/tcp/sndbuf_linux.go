// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package tcp

import (
	"net"

	"golang.org/x/sys/unix"
)

// sendBufferSize returns the kernel SO_SNDBUF size for conn, or 0 if it
// cannot be determined (conn is not a *net.TCPConn, or the syscall fails).
func sendBufferSize(conn net.Conn) int {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return 0
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return 0
	}

	var size int
	controlErr := rawConn.Control(func(fd uintptr) {
		size, err = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
	})
	if controlErr != nil || err != nil {
		return 0
	}
	return size
}

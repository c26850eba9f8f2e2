// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides an in-process [relay.Relay]: a registry of
// attached bridges plus a static routing table, enough to exercise the
// full bridge lifecycle and packet flow in tests and in the demo command
// without a real mesh handshake or routing protocol (both out of scope
// per spec §1).
//
// Its dispatch style mirrors the project's action-keyed socket server:
// a mutex-guarded map from device id to registration, looked up on every
// inbound call. Each registration is tagged with a random session id
// (via github.com/google/uuid) purely for log correlation — it plays no
// role in routing.
package memory

// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay defines the collaborator interface [bridge.DeviceBridge]
// calls back into (spec §6): routing reassembled packets, forwarding
// command-plane traffic to the local connector, and removing a bridge from
// the registry on request.
//
// The relay's own routing table, cryptographic handshake, and concrete
// peer selection are out of scope here (spec §1) — [relay/memory] provides
// just enough of a registry to attach, route between, and detach bridges
// in tests and in the demo command, grounded in the project's existing
// action-dispatch socket server.
package relay

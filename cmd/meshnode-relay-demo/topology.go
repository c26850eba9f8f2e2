// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// topology describes a static mesh of peers to dial out to and the
// one-way routes between them, loaded from a --topology yaml file. It
// stands in for the real mesh's discovery and routing-table exchange
// (spec §1 non-goal) with something an operator can hand-author.
type topology struct {
	Peers  map[string]peerConfig `yaml:"peers"`
	Routes []routeConfig         `yaml:"routes"`
}

// peerConfig is one named peer's dial address.
type peerConfig struct {
	Dial string `yaml:"dial"`
}

// routeConfig configures a one-way [memory.Relay.Route] call: packets
// arriving from From are delivered to To. List both directions
// explicitly for a bidirectional pairing.
type routeConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// loadTopology reads and validates a topology file: every route must
// name peers that are actually declared.
func loadTopology(path string) (*topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loadTopology: %w", err)
	}

	var t topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("loadTopology: %s: %w", path, err)
	}

	for _, route := range t.Routes {
		if _, ok := t.Peers[route.From]; !ok {
			return nil, fmt.Errorf("loadTopology: %s: route references undeclared peer %q", path, route.From)
		}
		if _, ok := t.Peers[route.To]; !ok {
			return nil, fmt.Errorf("loadTopology: %s: route references undeclared peer %q", path, route.To)
		}
	}

	return &t, nil
}

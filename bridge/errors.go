// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
)

// NegotiationChunkingViolationError reports that a negotiation channel
// failed to transmit a full logical packet in a single transport frame
// (spec §7). Negotiation channels forbid chunking; any partial accept on
// that path is a protocol contract breach, not a transient transport
// failure to retry.
type NegotiationChunkingViolationError struct {
	DeviceID string
	Expected int
	Actual   int
}

func (e *NegotiationChunkingViolationError) Error() string {
	return fmt.Sprintf("bridge %s: negotiation channel chunking violation: expected %d bytes, transport accepted %d", e.DeviceID, e.Expected, e.Actual)
}

// IsNegotiationChunkingViolation reports whether err is (or wraps) a
// *NegotiationChunkingViolationError.
func IsNegotiationChunkingViolation(err error) bool {
	var violation *NegotiationChunkingViolationError
	return errors.As(err, &violation)
}

// DecodeFailureError reports a malformed argument buffer supplied to a
// negotiation bridge's constructor (spec §7).
type DecodeFailureError struct {
	DeviceID string
	Reason   string
}

func (e *DecodeFailureError) Error() string {
	return fmt.Sprintf("bridge %s: decode failure: %s", e.DeviceID, e.Reason)
}

// IsDecodeFailure reports whether err is (or wraps) a *DecodeFailureError.
func IsDecodeFailure(err error) bool {
	var failure *DecodeFailureError
	return errors.As(err, &failure)
}

// CommandEnvelopeError reports a malformed [CommandEnvelope] crossing the
// bridge/relay boundary — either a payload PostCommandToConnector could
// not encode, or one OnCommandFromConnector could not decode (spec §4.3).
type CommandEnvelopeError struct {
	DeviceID string
	Reason   string
}

func (e *CommandEnvelopeError) Error() string {
	return fmt.Sprintf("bridge %s: command envelope error: %s", e.DeviceID, e.Reason)
}

// IsCommandEnvelopeError reports whether err is (or wraps) a
// *CommandEnvelopeError.
func IsCommandEnvelopeError(err error) bool {
	var envelopeErr *CommandEnvelopeError
	return errors.As(err, &envelopeErr)
}

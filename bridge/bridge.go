// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/northrelay/meshnode/device"
	"github.com/northrelay/meshnode/qos"
	"github.com/northrelay/meshnode/relay"
	"github.com/northrelay/meshnode/wire"
)

// KeyDeriver is implemented by a [device.Device] that can expand a
// negotiation channel's decoded (input_id, output_id) pair into key
// material, standing in for the mesh's real cryptographic handshake
// (spec §1 non-goal; domain-stack §B). [New] calls it once, on the slave
// side of a negotiation channel, if the device offers it.
type KeyDeriver interface {
	DeriveChannelKey(inputID, outputID []byte) ([]byte, error)
}

// Compile-time interface checks: a DeviceBridge is both what a Device
// calls back into and what a Relay identifies a packet's origin by.
var (
	_ device.Backref     = (*DeviceBridge)(nil)
	_ relay.BridgeHandle = (*DeviceBridge)(nil)
)

// DeviceBridge is the per-device adapter binding one [device.Device] to
// the owning [relay.Relay] (spec §3).
type DeviceBridge struct {
	did                    string
	typeNameHash           uint64
	device                 device.Device
	relay                  relay.Relay
	isNegotiationChannel   bool
	isSlave                bool
	nonNegotiatedArguments []byte
	inputID                []byte
	outputID               []byte
	channelKey             []byte

	qos *qos.QoS

	compressionEnabled atomic.Bool
	zEncoder           *zstd.Encoder
	zDecoder           *zstd.Decoder

	isAlive    atomic.Bool
	workerDone chan struct{}

	writeMutex sync.Mutex

	errMu     sync.Mutex
	lastError string

	logger *slog.Logger
}

// New constructs a bridge over dev, owned by rel, identified by did. If
// isNegotiationChannel is true, args must open with a length-prefixed
// (input_id, output_id) pair (spec §6); any decode failure is returned as
// a [*DecodeFailureError]. For a non-negotiation channel, args is stored
// verbatim as the device's non-negotiated arguments.
//
// New does not start the receive worker and does not call the device's
// OnAttach — call [DeviceBridge.OnAttach] and then
// [DeviceBridge.StartUpdatingInSeparateThread] once the bridge is fully
// constructed.
func New(rel relay.Relay, did string, typeNameHash uint64, dev device.Device, isNegotiationChannel, isSlave bool, args []byte, logger *slog.Logger) (*DeviceBridge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &DeviceBridge{
		did:                  did,
		typeNameHash:         typeNameHash,
		device:               dev,
		relay:                rel,
		isNegotiationChannel: isNegotiationChannel,
		isSlave:              isSlave,
		qos:                  qos.New(),
		logger:               logger.With("device_id", did),
	}
	b.isAlive.Store(true)

	if isNegotiationChannel {
		inputID, outputID, rest, err := wire.DecodeNegotiationArgs(args)
		if err != nil {
			return nil, &DecodeFailureError{DeviceID: did, Reason: err.Error()}
		}
		b.inputID, b.outputID, b.nonNegotiatedArguments = inputID, outputID, rest

		if isSlave {
			if deriver, ok := dev.(KeyDeriver); ok {
				key, err := deriver.DeriveChannelKey(inputID, outputID)
				if err != nil {
					return nil, &DecodeFailureError{DeviceID: did, Reason: err.Error()}
				}
				b.channelKey = key
			}
		}
	} else {
		b.nonNegotiatedArguments = args
	}

	return b, nil
}

// ChannelKey returns the key material [KeyDeriver.DeriveChannelKey]
// produced for a slave negotiation channel, or nil if this bridge is not
// one or its device does not implement [KeyDeriver].
func (b *DeviceBridge) ChannelKey() []byte { return b.channelKey }

// SetCompression toggles transparent zstd compression of every logical
// packet passed through the ordinary chunked send/receive path (domain-
// stack §B); it has no effect on a negotiation channel, which always
// transmits args/handshake bytes verbatim. Both ends of a bridge pair
// must agree on this setting — there is no on-wire flag distinguishing
// compressed from uncompressed chunk streams.
func (b *DeviceBridge) SetCompression(enabled bool) error {
	if !enabled {
		b.compressionEnabled.Store(false)
		return nil
	}
	if b.zEncoder == nil {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return err
		}
		b.zEncoder = enc
	}
	if b.zDecoder == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return err
		}
		b.zDecoder = dec
	}
	b.compressionEnabled.Store(true)
	return nil
}

// DeviceID returns the locally unique identifier this bridge was
// registered under (spec §3, invariant 1: immutable post-construction).
func (b *DeviceBridge) DeviceID() string { return b.did }

// TypeNameHash returns the stable hash of the device's concrete type.
func (b *DeviceBridge) TypeNameHash() uint64 { return b.typeNameHash }

// InputID returns the negotiation channel's decoded input_id. Empty for a
// non-negotiation channel.
func (b *DeviceBridge) InputID() []byte { return b.inputID }

// OutputID returns the negotiation channel's decoded output_id. Empty for
// a non-negotiation channel.
func (b *DeviceBridge) OutputID() []byte { return b.outputID }

// NonNegotiatedArguments returns the device-specific handshake bytes left
// over after the (input_id, output_id) pair was parsed, or the full
// argument buffer on a non-negotiation channel.
func (b *DeviceBridge) NonNegotiatedArguments() []byte { return b.nonNegotiatedArguments }

// IsChannel reports whether the underlying device represents a network
// channel, as opposed to a local connector-only device.
func (b *DeviceBridge) IsChannel() bool { return b.device.IsChannel() }

// IsNegotiationChannel reports whether this bridge both was constructed
// as a negotiation channel and currently sits on a network channel — the
// AND composition the original mesh implementation uses (see SPEC_FULL.md
// §C.1);
// a negotiation channel flag on a non-channel device is inert.
func (b *DeviceBridge) IsNegotiationChannel() bool {
	return b.isNegotiationChannel && b.IsChannel()
}

// IsSlave reports whether this bridge is the accepting side of a
// negotiation channel (spec §3).
func (b *DeviceBridge) IsSlave() bool { return b.isSlave }

// OnAttach hands the device a back-reference to this bridge, once, so the
// device can later call PassNetworkPacket and PostCommandToConnector
// (spec §4.4).
func (b *DeviceBridge) OnAttach() {
	b.device.OnAttach(b)
}

// StartUpdatingInSeparateThread launches the receive worker. The worker
// keeps the bridge alive (a strong reference captured by the goroutine)
// until Detach flips the liveness flag and the worker observes it on its
// next tick (spec §4.2, §9).
func (b *DeviceBridge) StartUpdatingInSeparateThread() {
	b.workerDone = make(chan struct{})
	go b.updateLoop()
}

// updateLoop is the worker body: sleep, check liveness, receive, repeat.
func (b *DeviceBridge) updateLoop() {
	defer close(b.workerDone)

	for b.isAlive.Load() {
		time.Sleep(b.device.UpdateDelay())
		if !b.isAlive.Load() {
			return
		}
		b.tick()
	}
}

// tick drives one OnReceive call, converting both ordinary errors and
// hardware-fault-class panics into a logged line rather than a crashed
// worker (spec §4.2, §7 "UnknownFault").
func (b *DeviceBridge) tick() {
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			b.logger.Error("unknown exception while updating", "panic", r)
		}
	}()

	if err := b.device.OnReceive(); err != nil {
		b.SetErrorStatus(err.Error())
		b.logger.Error("receive failed", "error", err)
	}
}

// WorkerDone returns a channel closed once the receive worker has exited.
// Tests use this to observe worker exit without polling.
func (b *DeviceBridge) WorkerDone() <-chan struct{} { return b.workerDone }

// Detach flips the liveness flag; the worker exits on its next tick. Safe
// to call more than once and from any goroutine (spec §8 "detach
// idempotence").
func (b *DeviceBridge) Detach() {
	b.isAlive.Store(false)
}

// Close asks the relay to remove this bridge from its registry. The relay
// is expected to call Detach once the registration is gone (spec §4.4).
func (b *DeviceBridge) Close() {
	b.relay.DetachDevice(b.did)
}

// PassNetworkPacket is the receiving side of the framing protocol (spec
// §4.1), invoked by the device whenever a transport frame arrives.
func (b *DeviceBridge) PassNetworkPacket(frame []byte) error {
	if b.IsNegotiationChannel() && !b.isSlave {
		b.relay.OnPacketReceived(frame, b)
		return nil
	}

	if err := b.qos.PushReceivedChunk(frame); err != nil {
		return err
	}

	if b.IsNegotiationChannel() && b.isSlave {
		packet, multiChunk := b.qos.GetNextPacketSpanningMultipleChunks()
		if packet == nil {
			return nil
		}
		if multiChunk {
			b.logger.Warn("slave negotiation channel assembled a multi-chunk message; peer is violating the single-frame negotiation contract", "bytes", len(packet))
		}
		b.relay.OnPacketReceived(packet, b)
		return nil
	}

	packet := b.qos.GetNextPacket()
	if packet == nil {
		return nil
	}
	if b.compressionEnabled.Load() {
		decompressed, err := b.zDecoder.DecodeAll(packet, nil)
		if err != nil {
			return err
		}
		packet = decompressed
	}
	b.relay.OnPacketReceived(packet, b)
	return nil
}

// SendPacket is the sending side of the framing protocol (spec §4.1): it
// either transmits packet in one frame (negotiation channel) or chunks it
// across as many OnSendToChannelInternal calls as the transport demands.
// Writes are serialized by writeMutex, shared with OnCommandFromConnector
// (spec's "at most one writer at a time" invariant, SPEC_FULL.md §C.4).
func (b *DeviceBridge) SendPacket(packet []byte) error {
	b.writeMutex.Lock()
	defer b.writeMutex.Unlock()

	if b.IsNegotiationChannel() {
		sent, err := b.device.OnSendToChannelInternal(packet)
		if err != nil {
			return err
		}
		if sent != len(packet) {
			violation := &NegotiationChunkingViolationError{DeviceID: b.did, Expected: len(packet), Actual: sent}
			b.SetErrorStatus(violation.Error())
			return violation
		}
		return nil
	}

	if b.compressionEnabled.Load() {
		packet = b.zEncoder.EncodeAll(packet, make([]byte, 0, len(packet)))
	}

	messageID := b.qos.NextOutgoingID()
	originalSize := uint32(len(packet))
	chunkID := uint32(0)
	remaining := packet

	for len(remaining) > 0 {
		header := wire.ChunkHeader{MessageID: messageID, ChunkID: chunkID, OriginalSize: originalSize}.Encode()
		frame := append(append([]byte(nil), header[:]...), remaining...)

		sent, err := b.device.OnSendToChannelInternal(frame)
		if err != nil {
			return err
		}

		if sent < b.qos.MinFrameSize && sent != len(frame) {
			// Transport signaled "too small, resend" — re-offer this
			// chunk unchanged on the next iteration.
			continue
		}

		payloadSent := sent - wire.HeaderSize
		if payloadSent < 0 {
			payloadSent = 0
		}
		if payloadSent > len(remaining) {
			payloadSent = len(remaining)
		}
		remaining = remaining[payloadSent:]
		chunkID++
	}

	return nil
}

// PostCommandToConnector wraps payload in a [CommandEnvelope] and forwards
// it to the relay's local connector, tagged with this bridge's identity
// (spec §4.3). The device itself only ever produces and consumes the raw
// payload bytes — the envelope exists purely at the bridge/relay boundary.
func (b *DeviceBridge) PostCommandToConnector(payload []byte) error {
	envelope, err := encodeCommandEnvelope(CommandKindPost, b.did, payload)
	if err != nil {
		return &CommandEnvelopeError{DeviceID: b.did, Reason: err.Error()}
	}
	b.relay.PostCommandToConnector(envelope, b)
	return nil
}

// OnCommandFromConnector unwraps a connector-originated [CommandEnvelope]
// and delivers its Args to the device, under the same write serialization
// as outbound packet sends (spec §4.3; SPEC_FULL.md §C.4 on write-mutex
// scope).
func (b *DeviceBridge) OnCommandFromConnector(payload []byte) error {
	envelope, err := decodeCommandEnvelope(payload)
	if err != nil {
		return &CommandEnvelopeError{DeviceID: b.did, Reason: err.Error()}
	}

	b.writeMutex.Lock()
	defer b.writeMutex.Unlock()
	return b.device.OnCommandFromConnector(envelope.Args)
}

// RunCommand issues a synchronous request/response exchange into the
// device and returns its result buffer (spec §4.3).
func (b *DeviceBridge) RunCommand(payload []byte) ([]byte, error) {
	return b.device.OnRunCommand(payload)
}

// WhoAreYou forwards an identity probe to the device (spec §4.3).
func (b *DeviceBridge) WhoAreYou() ([]byte, error) {
	return b.device.OnWhoAmI()
}

// SetErrorStatus records msg as the bridge's last-error string, settable
// from any code path (spec §3, §7).
func (b *DeviceBridge) SetErrorStatus(msg string) {
	b.errMu.Lock()
	b.lastError = msg
	b.errMu.Unlock()
}

// GetErrorStatus returns the last error string recorded by SetErrorStatus,
// or the empty string if none has been recorded.
func (b *DeviceBridge) GetErrorStatus() string {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.lastError
}

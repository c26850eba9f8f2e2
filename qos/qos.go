// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

package qos

import (
	"sync"
	"sync/atomic"

	"github.com/northrelay/meshnode/wire"
)

// HeaderSize mirrors wire.HeaderSize so callers that only import qos
// don't need a second import for the one constant they care about.
const HeaderSize = wire.HeaderSize

// DefaultMinFrameSize is the smallest total frame (header + payload) a
// [QoS] considers forward progress by default. Below this, a chunk is
// re-offered unchanged rather than advancing — see bridge's sending
// algorithm (§4.1 step 3c). This is implementation-chosen, not derived
// from any transport: it exists to bound how many chunks a
// pathologically stingy transport can force onto a single logical
// packet. Override per instance via [QoS.MinFrameSize] when a transport's
// real floor is known.
const DefaultMinFrameSize = 64

// pendingMessage accumulates chunks for one in-flight inbound message
// until every byte of the original packet has arrived.
type pendingMessage struct {
	originalSize  uint32
	chunks        map[uint32][]byte
	receivedBytes uint32
	// multiChunk is set once a second distinct chunk id is recorded
	// for this message.
	multiChunk bool
}

// QoS is the reassembly buffer and outbound id generator for one
// device bridge. The zero value is not ready to use; construct with
// [New]. All methods are safe for concurrent use — §5 requires this
// because PassNetworkPacket is not itself mutex-protected by the
// bridge.
type QoS struct {
	// MinFrameSize is this instance's forward-progress floor, consulted
	// by the bridge's sending algorithm. Defaults to DefaultMinFrameSize;
	// callers may lower or raise it to match a specific transport.
	MinFrameSize int

	nextMessageID atomic.Uint32

	mu       sync.Mutex
	inFlight map[uint32]*pendingMessage
}

// New returns a QoS instance with no in-flight messages, an outbound id
// counter starting at zero, and MinFrameSize set to DefaultMinFrameSize.
func New() *QoS {
	return &QoS{
		MinFrameSize: DefaultMinFrameSize,
		inFlight:     make(map[uint32]*pendingMessage),
	}
}

// NextOutgoingID allocates the next outbound message id. Ids are
// strictly increasing per QoS instance and unique across concurrent
// callers (§8 "message-id uniqueness"); they are NOT guaranteed to
// complete transmission in allocation order (§5) — only the chunk
// stream for a single message is contiguous.
func (q *QoS) NextOutgoingID() uint32 {
	return q.nextMessageID.Add(1) - 1
}

// PushReceivedChunk decodes frame's header and buffers its payload
// under (message_id, chunk_id). Duplicate chunks (same message_id and
// chunk_id arriving twice) are idempotent — the second arrival is
// dropped without double-counting toward receivedBytes.
func (q *QoS) PushReceivedChunk(frame []byte) error {
	header, err := wire.DecodeChunkHeader(frame)
	if err != nil {
		return err
	}
	payload := frame[wire.HeaderSize:]

	q.mu.Lock()
	defer q.mu.Unlock()

	msg, ok := q.inFlight[header.MessageID]
	if !ok {
		msg = &pendingMessage{
			originalSize: header.OriginalSize,
			chunks:       make(map[uint32][]byte),
		}
		q.inFlight[header.MessageID] = msg
	}

	if _, seen := msg.chunks[header.ChunkID]; seen {
		return nil
	}

	if len(msg.chunks) > 0 {
		msg.multiChunk = true
	}
	msg.chunks[header.ChunkID] = append([]byte(nil), payload...)
	msg.receivedBytes += uint32(len(payload))

	return nil
}

// GetNextPacket returns a fully reassembled logical packet if one is
// ready, removing it from the buffer. Returns nil if none is ready.
// Each completed packet is returned exactly once.
func (q *QoS) GetNextPacket() []byte {
	packet, _ := q.GetNextPacketSpanningMultipleChunks()
	return packet
}

// GetNextPacketSpanningMultipleChunks is [GetNextPacket] plus a flag
// reporting whether the returned packet required more than one chunk
// to complete. It exists for the negotiation-channel receive path's
// protocol-violation check (§9 open question): a slave negotiation
// channel expects every peer message in a single chunk and logs an
// anomaly when that assumption is violated, without dropping the
// reassembled bytes.
func (q *QoS) GetNextPacketSpanningMultipleChunks() (packet []byte, multiChunk bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for messageID, msg := range q.inFlight {
		if msg.receivedBytes != msg.originalSize {
			continue
		}
		assembled, complete := concatenateChunks(msg)
		if !complete {
			continue
		}
		delete(q.inFlight, messageID)
		return assembled, msg.multiChunk
	}
	return nil, false
}

// concatenateChunks walks chunk ids 0, 1, 2, ... appending payloads
// until originalSize bytes have been gathered. It reports complete =
// false if a chunk id is missing before that point — receivedBytes
// can match originalSize without the chunk ids forming a clean
// [0, originalSize) partition if a sender's retries overlapped.
func concatenateChunks(msg *pendingMessage) (packet []byte, complete bool) {
	packet = make([]byte, 0, msg.originalSize)
	for chunkID := uint32(0); uint32(len(packet)) < msg.originalSize; chunkID++ {
		chunk, ok := msg.chunks[chunkID]
		if !ok {
			return nil, false
		}
		packet = append(packet, chunk...)
	}
	return packet, true
}

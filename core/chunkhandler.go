package core

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// ChunkHandler is the Elder-side orchestrator for client Put/Get/DeleteUnpub
// requests: it picks target holders, dedups on MessageID, waits for a
// quorum of acks, and reports the outcome back to the requester.
type ChunkHandler struct {
	ops     *ChunkOpTable
	index   *HolderIndex
	overlay Overlay
	logger  *logrus.Logger

	replicationFactor int
}

// NewChunkHandler wires a ChunkHandler against the section's holder index
// and overlay.
func NewChunkHandler(index *HolderIndex, overlay Overlay, replicationFactor int, lg *logrus.Logger) *ChunkHandler {
	if lg == nil {
		lg = logrus.New()
	}
	return &ChunkHandler{
		ops:               NewChunkOpTable(),
		index:             index,
		overlay:           overlay,
		logger:            lg,
		replicationFactor: replicationFactor,
	}
}

// ClosestHolders returns the replicationFactor adult NodeIDs in candidates
// whose names are XOR-closest to addr, natural byte order breaking ties.
func ClosestHolders(addr Address, candidates []NodeID, replicationFactor int) []NodeID {
	type scored struct {
		node NodeID
		dist [32]byte
	}
	scoredList := make([]scored, len(candidates))
	for i, n := range candidates {
		scoredList[i] = scored{node: n, dist: xorDistance(addr, Address(n))}
	}
	sort.Slice(scoredList, func(i, j int) bool {
		if scoredList[i].dist != scoredList[j].dist {
			return lessDistance(scoredList[i].dist, scoredList[j].dist)
		}
		return scoredList[i].node.Less(scoredList[j].node)
	})
	if replicationFactor > len(scoredList) {
		replicationFactor = len(scoredList)
	}
	out := make([]NodeID, replicationFactor)
	for i := 0; i < replicationFactor; i++ {
		out[i] = scoredList[i].node
	}
	return out
}

// StartPut begins a Put: dedups on mid, fans the chunk out to the
// replicationFactor closest holders among candidates.
func (h *ChunkHandler) StartPut(mid MessageID, chunk Chunk, requester Requester, candidates []NodeID) ([]Action, bool) {
	op := &ChunkOp{
		MessageID:     mid,
		Address:       chunk.Address(),
		Requester:     requester,
		State:         OpAwaitingHolders,
		TargetHolders: ClosestHolders(chunk.Address(), candidates, h.replicationFactor),
		StartedAt:     time.Now(),
		Timeout:       30 * time.Second,
	}
	existing, started := h.ops.Start(op)
	if !started {
		h.logger.WithField("message_id", mid).Debug("duplicate put, ignoring")
		return nil, false
	}

	actions := make([]Action, 0, len(existing.TargetHolders))
	for _, node := range existing.TargetHolders {
		actions = append(actions, Action{
			SendTo: node,
			Envelope: Envelope{
				Kind:      EnvRequest,
				MessageID: mid,
				Requester: requester,
				Request:   &ChunkRequest{Kind: ReqPut, Chunk: chunk},
			},
		})
	}
	return actions, true
}

// HandleHolderAck records one holder's response to an outstanding Put and,
// once ack quorum is reached, adds every successfully-acking holder to the
// HolderIndex and returns the reply to send the requester.
func (h *ChunkHandler) HandleHolderAck(mid MessageID, from NodeID, ackErr error) (*Action, bool) {
	op, reachedQuorum := h.ops.RecordAck(mid, from, ackErr)
	if op == nil {
		return nil, false
	}
	if !reachedQuorum {
		return nil, false
	}
	h.ops.Finish(mid)
	for node, err := range op.Acks {
		if err != nil {
			continue
		}
		if err := h.index.Add(op.Address, node); err != nil {
			h.logger.WithError(err).Warn("chunkhandler: failed to record holder")
		}
	}

	return &Action{
		ToClient: !op.Requester.IsNode(),
		SendTo:   op.Requester.ID,
		Envelope: Envelope{
			Kind:      EnvResponse,
			MessageID: mid,
			Response:  &ChunkResponse{Kind: RespMutation, Err: ackErr},
		},
	}, true
}

// StartGet begins a Get against the holders recorded for addr, retrying
// against the remaining candidates until one succeeds or the candidate set
// is exhausted.
func (h *ChunkHandler) StartGet(mid MessageID, addr Address, requester Requester) ([]Action, bool) {
	holders := h.index.Holders(addr)
	if len(holders) == 0 {
		return nil, false
	}
	holders = ClosestHolders(addr, holders, len(holders))
	op := &ChunkOp{
		MessageID:     mid,
		Address:       addr,
		Requester:     requester,
		State:         OpAwaitingHolders,
		TargetHolders: holders,
		StartedAt:     time.Now(),
		Timeout:       30 * time.Second,
	}
	existing, started := h.ops.Start(op)
	if !started {
		return nil, false
	}
	return []Action{{
		SendTo: existing.TargetHolders[0],
		Envelope: Envelope{
			Kind:      EnvRequest,
			MessageID: mid,
			Requester: requester,
			Request:   &ChunkRequest{Kind: ReqGet, Address: addr},
		},
	}}, true
}

// HandleGetResponse either forwards a successful chunk to the requester, or
// retries against the next untried holder if this one failed and candidates
// remain; only once every holder has failed is the requester told so.
func (h *ChunkHandler) HandleGetResponse(mid MessageID, from NodeID, chunk Chunk, getErr error) (*Action, bool) {
	op, ok := h.ops.Get(mid)
	if !ok {
		return nil, false
	}

	if getErr == nil {
		h.ops.Finish(mid)
		return &Action{
			ToClient: !op.Requester.IsNode(),
			SendTo:   op.Requester.ID,
			Envelope: Envelope{
				Kind:      EnvResponse,
				MessageID: mid,
				Response:  &ChunkResponse{Kind: RespGetChunk, Chunk: chunk},
			},
		}, true
	}

	tried := 1
	for _, n := range op.TargetHolders {
		if n == from {
			break
		}
		tried++
	}
	if tried >= len(op.TargetHolders) {
		h.ops.Finish(mid)
		return &Action{
			ToClient: !op.Requester.IsNode(),
			SendTo:   op.Requester.ID,
			Envelope: Envelope{
				Kind:      EnvResponse,
				MessageID: mid,
				Response:  &ChunkResponse{Kind: RespGetChunk, Err: ErrNoSuchData},
			},
		}, true
	}

	next := op.TargetHolders[tried]
	return &Action{
		SendTo: next,
		Envelope: Envelope{
			Kind:      EnvRequest,
			MessageID: mid,
			Requester: op.Requester,
			Request:   &ChunkRequest{Kind: ReqGet, Address: op.Address},
		},
	}, true
}

// SweepTimeouts fails every op that has outstayed its deadline.
func (h *ChunkHandler) SweepTimeouts() []Action {
	expired := h.ops.SweepExpired(time.Now())
	actions := make([]Action, 0, len(expired))
	for _, op := range expired {
		actions = append(actions, Action{
			ToClient: !op.Requester.IsNode(),
			SendTo:   op.Requester.ID,
			Envelope: Envelope{
				Kind:      EnvResponse,
				MessageID: op.MessageID,
				Response:  &ChunkResponse{Kind: RespMutation, Err: ErrNotFound},
			},
		})
	}
	return actions
}

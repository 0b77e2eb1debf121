package core

import "testing"

func TestClosestHoldersPicksReplicationFactorByXORDistance(t *testing.T) {
	var addr Address
	addr[0] = 0x0F

	candidates := []NodeID{
		{0x0F}, // distance 0
		{0x0E}, // distance 0x01
		{0xFF}, // distance 0xF0
		{0x00}, // distance 0x0F
	}
	closest := ClosestHolders(addr, candidates, 2)
	if len(closest) != 2 {
		t.Fatalf("expected 2 holders, got %d", len(closest))
	}
	if closest[0] != candidates[0] {
		t.Fatalf("expected exact match to be closest, got %v", closest[0])
	}
	if closest[1] != candidates[1] {
		t.Fatalf("expected second-closest by XOR distance, got %v", closest[1])
	}
}

func TestClosestHoldersCapsAtCandidateCount(t *testing.T) {
	var addr Address
	candidates := []NodeID{{1}, {2}}
	closest := ClosestHolders(addr, candidates, 4)
	if len(closest) != 2 {
		t.Fatalf("expected closest holders capped at candidate count, got %d", len(closest))
	}
}

func TestChunkHandlerStartPutDedupsByMessageID(t *testing.T) {
	idx, err := OpenHolderIndex(t.TempDir())
	if err != nil {
		t.Fatalf("OpenHolderIndex: %v", err)
	}
	h := NewChunkHandler(idx, nil, 2, nil)
	var mid MessageID
	mid[0] = 1
	chunk := Chunk{Kind: ChunkPublic, Bytes: []byte("x")}
	candidates := []NodeID{{1}, {2}, {3}}

	actions, started := h.StartPut(mid, chunk, Requester{}, candidates)
	if !started || len(actions) != 2 {
		t.Fatalf("expected 2 outbound actions, got %d (started=%v)", len(actions), started)
	}
	if _, started := h.StartPut(mid, chunk, Requester{}, candidates); started {
		t.Fatalf("expected duplicate put to be suppressed")
	}
}

func TestChunkHandlerStartGetTargetsClosestHolderFirst(t *testing.T) {
	idx, err := OpenHolderIndex(t.TempDir())
	if err != nil {
		t.Fatalf("OpenHolderIndex: %v", err)
	}
	var addr Address
	addr[0] = 0x0F

	far := NodeID{0xFF}
	near := NodeID{0x0E}
	// Insert the farther holder first so map iteration order (which would
	// otherwise drive holder selection) can't accidentally produce the
	// right answer.
	if err := idx.Add(addr, far); err != nil {
		t.Fatalf("Add far: %v", err)
	}
	if err := idx.Add(addr, near); err != nil {
		t.Fatalf("Add near: %v", err)
	}

	h := NewChunkHandler(idx, nil, 2, nil)
	var mid MessageID
	mid[0] = 1
	actions, started := h.StartGet(mid, addr, Requester{})
	if !started || len(actions) != 1 {
		t.Fatalf("expected 1 outbound get, got %d (started=%v)", len(actions), started)
	}
	if actions[0].SendTo != near {
		t.Fatalf("expected get to target the XOR-closest holder %v first, got %v", near, actions[0].SendTo)
	}
}

func TestChunkHandlerHandleGetResponseRetriesNextClosestHolder(t *testing.T) {
	idx, err := OpenHolderIndex(t.TempDir())
	if err != nil {
		t.Fatalf("OpenHolderIndex: %v", err)
	}
	var addr Address
	addr[0] = 0x0F

	near := NodeID{0x0E}
	mid1 := NodeID{0x00}
	far := NodeID{0xFF}
	if err := idx.Add(addr, far); err != nil {
		t.Fatalf("Add far: %v", err)
	}
	if err := idx.Add(addr, mid1); err != nil {
		t.Fatalf("Add mid: %v", err)
	}
	if err := idx.Add(addr, near); err != nil {
		t.Fatalf("Add near: %v", err)
	}

	h := NewChunkHandler(idx, nil, 3, nil)
	var mid MessageID
	mid[0] = 2
	actions, started := h.StartGet(mid, addr, Requester{})
	if !started || actions[0].SendTo != near {
		t.Fatalf("expected first attempt against closest holder %v, got %+v", near, actions)
	}

	action, ok := h.HandleGetResponse(mid, near, Chunk{}, ErrNoSuchData)
	if !ok || action == nil {
		t.Fatalf("expected a retry action")
	}
	if action.SendTo != mid1 {
		t.Fatalf("expected retry to target the next-closest holder %v, got %v", mid1, action.SendTo)
	}

	action, ok = h.HandleGetResponse(mid, mid1, Chunk{}, ErrNoSuchData)
	if !ok || action == nil {
		t.Fatalf("expected a second retry action")
	}
	if action.SendTo != far {
		t.Fatalf("expected final retry to target the farthest holder %v, got %v", far, action.SendTo)
	}

	action, ok = h.HandleGetResponse(mid, far, Chunk{}, ErrNoSuchData)
	if !ok || action == nil {
		t.Fatalf("expected a final failure response")
	}
	if action.Envelope.Response.Err != ErrNoSuchData {
		t.Fatalf("expected ErrNoSuchData once every holder failed, got %v", action.Envelope.Response.Err)
	}
}

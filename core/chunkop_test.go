package core

import "testing"

func TestAckQuorumForMatchesCeilTwoThirds(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 7: 5}
	for k, want := range cases {
		if got := ackQuorumFor(k); got != want {
			t.Fatalf("ackQuorumFor(%d) = %d, want %d", k, got, want)
		}
	}
}

func TestChunkOpTableDedupsByMessageID(t *testing.T) {
	table := NewChunkOpTable()
	var mid MessageID
	mid[0] = 5

	_, started := table.Start(&ChunkOp{MessageID: mid, TargetHolders: []NodeID{{1}, {2}, {3}}})
	if !started {
		t.Fatalf("expected first Start to succeed")
	}
	_, started = table.Start(&ChunkOp{MessageID: mid})
	if started {
		t.Fatalf("expected duplicate Start to be rejected")
	}
}

func TestChunkOpTableRecordAckReachesQuorum(t *testing.T) {
	table := NewChunkOpTable()
	var mid MessageID
	mid[0] = 6
	n1, n2, n3 := NodeID{1}, NodeID{2}, NodeID{3}
	table.Start(&ChunkOp{MessageID: mid, TargetHolders: []NodeID{n1, n2, n3}})

	if _, reached := table.RecordAck(mid, n1, nil); reached {
		t.Fatalf("expected quorum not yet reached with 1/3 acks")
	}
	if _, reached := table.RecordAck(mid, n2, nil); !reached {
		t.Fatalf("expected quorum reached with 2/3 acks")
	}
}

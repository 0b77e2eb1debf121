package core

import "testing"

func TestChunkStoreStoreGetDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewChunkStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	c := Chunk{Kind: ChunkPublic, Bytes: []byte("hello")}
	addr := c.Address()

	if err := s.Store(c); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !s.Has(addr) {
		t.Fatalf("expected Has to report stored chunk")
	}
	got, err := s.Get(addr, ChunkPublic)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Bytes) != "hello" {
		t.Fatalf("unexpected bytes: %q", got.Bytes)
	}

	// Re-storing the same content is a no-op, not a second write.
	if err := s.Store(c); err != nil {
		t.Fatalf("re-store: %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 chunk after duplicate store, got %d", s.Count())
	}

	if err := s.Delete(addr); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Has(addr) {
		t.Fatalf("expected chunk to be gone after delete")
	}
}

func TestChunkStoreQuotaEnforced(t *testing.T) {
	dir := t.TempDir()
	s, err := NewChunkStore(dir, 4, nil)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	c := Chunk{Kind: ChunkPublic, Bytes: []byte("12345")}
	if err := s.Store(c); err != ErrQuotaExceeded {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestChunkStoreReopenReplaysIndex(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewChunkStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	c := Chunk{Kind: ChunkPublic, Bytes: []byte("persisted")}
	if err := s1.Store(c); err != nil {
		t.Fatalf("Store: %v", err)
	}

	s2, err := NewChunkStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("reopen NewChunkStore: %v", err)
	}
	if !s2.Has(c.Address()) {
		t.Fatalf("expected reopened store to know about existing chunk")
	}
	if s2.Used() != c.Size() {
		t.Fatalf("expected used bytes to match after reopen, got %d want %d", s2.Used(), c.Size())
	}
}

package core

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ChunkStore is the authoritative on-disk store a Chunk Holder uses to keep
// the chunks it was asked to hold. Unlike a cache, entries are never evicted
// on their own — only an explicit DeleteUnpub removes one. Capacity is
// enforced with an atomic running total rather than entry-count LRU, since
// chunk sizes vary (adapted from the index/counter idiom in core/storage.go's
// diskLRU).
type ChunkStore struct {
	mu       sync.Mutex
	dir      string
	index    map[Address]int64 // address -> size, guarded by mu
	used     int64             // atomic running total of used bytes
	capacity int64

	logger *logrus.Logger
}

// NewChunkStore opens (or creates) a chunk store rooted at dir, enforcing
// capacity bytes of total usage. It replays the directory listing to
// reconstruct the in-memory index, so a Chunk Holder's committed state
// survives a restart.
func NewChunkStore(dir string, capacity uint64, lg *logrus.Logger) (*ChunkStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if lg == nil {
		lg = logrus.New()
	}
	s := &ChunkStore{
		dir:      dir,
		index:    make(map[Address]int64),
		capacity: int64(capacity),
		logger:   lg,
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		var addr Address
		if !decodeHexAddress(e.Name(), &addr) {
			continue
		}
		s.index[addr] = info.Size()
		s.used += info.Size()
	}
	lg.Infof("chunkstore: opened %s, %d chunks, %d/%d bytes used", dir, len(s.index), s.used, s.capacity)
	return s, nil
}

func decodeHexAddress(name string, out *Address) bool {
	if len(name) != len(Address{})*2 {
		return false
	}
	for i := range out {
		hi, ok1 := hexVal(name[2*i])
		lo, ok2 := hexVal(name[2*i+1])
		if !ok1 || !ok2 {
			return false
		}
		out[i] = hi<<4 | lo
	}
	return true
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

func (s *ChunkStore) path(addr Address) string {
	return filepath.Join(s.dir, addrHex(addr))
}

func addrHex(addr Address) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(addr)*2)
	for i, b := range addr {
		out[2*i] = hexDigits[b>>4]
		out[2*i+1] = hexDigits[b&0xf]
	}
	return string(out)
}

// Has reports whether addr is already present, allowing a Holder to treat a
// duplicate Store as a cheap no-op.
func (s *ChunkStore) Has(addr Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[addr]
	return ok
}

// Store persists chunk, enforcing quota. Storing an address already present
// is a no-op success, never a second write (content-addressing means the
// bytes cannot have changed).
func (s *ChunkStore) Store(c Chunk) error {
	addr := c.Address()
	size := int64(c.Size())

	s.mu.Lock()
	if _, ok := s.index[addr]; ok {
		s.mu.Unlock()
		return nil
	}
	if atomic.LoadInt64(&s.used)+size > s.capacity {
		s.mu.Unlock()
		return ErrQuotaExceeded
	}
	s.mu.Unlock()

	if err := os.WriteFile(s.path(addr), c.Bytes, 0o644); err != nil {
		return err
	}

	s.mu.Lock()
	s.index[addr] = size
	s.mu.Unlock()
	atomic.AddInt64(&s.used, size)
	return nil
}

// Get returns the stored bytes for addr, or ErrNoSuchData.
func (s *ChunkStore) Get(addr Address, kind ChunkKind) (Chunk, error) {
	s.mu.Lock()
	_, ok := s.index[addr]
	s.mu.Unlock()
	if !ok {
		return Chunk{}, ErrNoSuchData
	}
	data, err := os.ReadFile(s.path(addr))
	if err != nil {
		return Chunk{}, ErrNoSuchData
	}
	return Chunk{Kind: kind, Bytes: data}, nil
}

// Delete removes addr unconditionally; callers must have already checked
// ownership (Chunk.ValidateOwnership).
func (s *ChunkStore) Delete(addr Address) error {
	s.mu.Lock()
	size, ok := s.index[addr]
	if !ok {
		s.mu.Unlock()
		return ErrNoSuchData
	}
	delete(s.index, addr)
	s.mu.Unlock()

	if err := os.Remove(s.path(addr)); err != nil && !os.IsNotExist(err) {
		return err
	}
	atomic.AddInt64(&s.used, -size)
	return nil
}

// Used reports current bytes used.
func (s *ChunkStore) Used() uint64 { return uint64(atomic.LoadInt64(&s.used)) }

// Capacity reports the configured byte quota.
func (s *ChunkStore) Capacity() uint64 { return uint64(s.capacity) }

// Count reports the number of chunks currently held.
func (s *ChunkStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

package core

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const transfersDirName = "transfers"

// TransferStore is the append-only, per-wallet event log backing Wallet's
// projection. Each wallet gets its own file so that concurrent writers to
// different wallets never contend. One TransferStore instance serializes its
// own writers; two instances opened on the *same* wallet do not coordinate
// and must not both be written to.
type TransferStore struct {
	mu   sync.Mutex
	path string
	f    *os.File

	nextSeq int
}

// OpenTransferStore opens (or creates) the event log for address under
// rootDir, replaying existing entries to determine the next sequence
// number. Events are appended in arrival order and are never rewritten.
func OpenTransferStore(rootDir string, address Address) (*TransferStore, error) {
	dir := filepath.Join(rootDir, transfersDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, addrHex(address)+".log")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open transfer log: %w", err)
	}

	s := &TransferStore{path: path, f: f}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		s.nextSeq++
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("replay transfer log: %w", err)
	}
	return s, nil
}

// record is the on-disk shape of one logged ReplicaEvent, carrying its
// sequence number so GetAll can restore arrival order even if the backing
// filesystem does not guarantee it (it does, but the check is cheap).
type record struct {
	Seq   int          `json:"seq"`
	Event ReplicaEvent `json:"event"`
}

// TryInsert appends ev as the next sequence entry. It never overwrites an
// existing entry; the sequence counter only moves forward.
func (s *TransferStore) TryInsert(ev ReplicaEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record{Seq: s.nextSeq, Event: ev}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := s.f.Write(append(data, '\n')); err != nil {
		return err
	}
	if err := s.f.Sync(); err != nil {
		return err
	}
	s.nextSeq++
	return nil
}

// GetAll returns every event recorded so far, ordered by arrival sequence.
func (s *TransferStore) GetAll() ([]ReplicaEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("corrupt transfer log entry: %w", err)
		}
		recs = append(recs, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sortRecordsBySeq(recs)
	out := make([]ReplicaEvent, len(recs))
	for i, r := range recs {
		out[i] = r.Event
	}
	return out, nil
}

func sortRecordsBySeq(recs []record) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].Seq < recs[j-1].Seq; j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}

// Close releases the underlying file handle.
func (s *TransferStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

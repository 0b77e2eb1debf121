// SPDX-License-Identifier: Apache-2.0
// Package core – shared security primitives for the vault node stack.
//
// Exposes:
//   - BLS12-381 curve init, shared by threshold.go and msgwrapping.go.
//   - AuditTrail – append-only operational audit log; each entry carries a
//     SHA-256 hash of its own content.
package core

import (
	"bufio"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	bls "github.com/herumi/bls-eth-go-binary/bls"
)

func init() {
	if err := bls.Init(bls.BLS12_381); err != nil {
		panic(fmt.Errorf("bls init: %w", err))
	}
}

// AuditEvent represents a single immutable audit log entry.
type AuditEvent struct {
	Timestamp int64             `json:"ts"`
	Event     string            `json:"evt"`
	Meta      map[string]string `json:"meta,omitempty"`
	Hash      []byte            `json:"hash"`
}

// AuditTrail manages write-once audit logs for node operations.
type AuditTrail struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditTrail creates or opens an append-only log file.
func NewAuditTrail(path string) (*AuditTrail, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &AuditTrail{file: f}, nil
}

// Log appends an audit entry to the log file, stamped with the SHA-256 hash
// of the entry's JSON encoding (computed before the hash field is set).
func (a *AuditTrail) Log(event string, meta map[string]string) error {
	if a == nil || a.file == nil {
		return errors.New("audit trail not initialised")
	}
	ev := AuditEvent{Timestamp: time.Now().Unix(), Event: event, Meta: meta}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h := sha256.Sum256(raw)
	ev.Hash = h[:]
	blob, _ := json.Marshal(ev)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.file.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}

// Report reads all audit entries from the log file.
func (a *AuditTrail) Report() ([]AuditEvent, error) {
	if a == nil || a.file == nil {
		return nil, errors.New("audit trail not initialised")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.file.Seek(0, 0); err != nil {
		return nil, err
	}
	var out []AuditEvent
	sc := bufio.NewScanner(a.file)
	for sc.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err == nil {
			out = append(out, ev)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Archive copies the current audit log to dest and writes a sha256 manifest.
// If dest is a directory, a timestamped file will be created inside it.
// The returned checksum is the hex-encoded SHA-256 of the log contents.
func (a *AuditTrail) Archive(dest string) (string, string, error) {
	if a == nil || a.file == nil {
		return "", "", errors.New("audit trail not initialised")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.file.Sync(); err != nil {
		return "", "", err
	}
	if _, err := a.file.Seek(0, 0); err != nil {
		return "", "", err
	}
	data, err := io.ReadAll(a.file)
	if err != nil {
		return "", "", err
	}
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		dest = filepath.Join(dest, fmt.Sprintf("audit_%d.log", time.Now().Unix()))
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(data)
	checksum := fmt.Sprintf("%x", sum[:])
	manifest := fmt.Sprintf("%s  %s\n", checksum, filepath.Base(dest))
	if err := os.WriteFile(dest+".sha256", []byte(manifest), 0o600); err != nil {
		return "", "", err
	}
	return dest, checksum, nil
}

// Close closes the underlying log file.
func (a *AuditTrail) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	return a.file.Close()
}

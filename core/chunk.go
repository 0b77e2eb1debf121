package core

import (
	"crypto/sha256"
	"crypto/ed25519"
)

// Address is the content fingerprint of a Chunk: a pure function of its
// bytes and kind. Two chunks with identical bytes and kind always collide
// on Address; this is the basis for the store's dedup behavior.
type Address [32]byte

func (a Address) String() string { return NodeID(a).String() }

// ChunkKind distinguishes publicly-readable chunks from unpublished ones.
// Unpublished chunks may only be deleted or read by their Owner.
type ChunkKind uint8

const (
	ChunkPublic ChunkKind = iota
	ChunkPrivate
)

// Owner identifies the client key that is permitted to delete an unpublished
// Chunk. It is meaningless for ChunkPublic chunks.
type Owner struct {
	PublicKey ed25519.PublicKey
}

func (o Owner) Equal(other Owner) bool {
	return string(o.PublicKey) == string(other.PublicKey)
}

// Chunk is the atomic unit of immutable storage this node replicates.
type Chunk struct {
	Kind  ChunkKind
	Bytes []byte
	Owner Owner // only meaningful when Kind == ChunkPrivate
}

// ComputeAddress derives a Chunk's Address deterministically from its kind
// and bytes, so that storing the same content twice is always a no-op
// rather than a second copy.
func ComputeAddress(kind ChunkKind, data []byte) Address {
	h := sha256.New()
	h.Write([]byte{byte(kind)})
	h.Write(data)
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

// Address returns the content address of this chunk.
func (c Chunk) Address() Address {
	return ComputeAddress(c.Kind, c.Bytes)
}

// Size reports the on-disk footprint counted against a holder's quota.
func (c Chunk) Size() uint64 {
	return uint64(len(c.Bytes))
}

// ValidateOwnership reports whether requester is permitted to mutate
// (delete) this chunk. Public chunks cannot be deleted by anyone over this
// interface; private chunks require an exact owner-key match.
func (c Chunk) ValidateOwnership(requesterKey ed25519.PublicKey) error {
	if c.Kind == ChunkPublic {
		return ErrNotApplicable
	}
	if !ed25519.PublicKey(c.Owner.PublicKey).Equal(requesterKey) {
		return ErrNotOwner
	}
	return nil
}

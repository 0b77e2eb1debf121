package core

import (
	"crypto/ed25519"

	"github.com/sirupsen/logrus"
)

// ChunkHolder is the Adult-side store: it only accepts writes that carry a
// valid section signature (proof the request passed through an Elder
// quorum), and serves reads/deletes directly against the local ChunkStore.
type ChunkHolder struct {
	store     *ChunkStore
	keys      *ThresholdKeySet
	dedup     *DuplicationDedupSet
	logger    *logrus.Logger
}

// NewChunkHolder wires a ChunkHolder against a local store and the node's
// threshold key share.
func NewChunkHolder(store *ChunkStore, keys *ThresholdKeySet, lg *logrus.Logger) *ChunkHolder {
	if lg == nil {
		lg = logrus.New()
	}
	return &ChunkHolder{
		store:  store,
		keys:   keys,
		dedup:  NewDuplicationDedupSet(0, 0),
		logger: lg,
	}
}

// Store verifies req's section proof and, if valid, persists the chunk.
// Storing a public chunk whose address is already present fails with
// ErrAlreadyExists; for a private chunk it is a no-op success.
func (h *ChunkHolder) Store(req ChunkRequest, proof *SectionProof) error {
	ok, err := VerifySection(h.keys, req.Chunk.Address(), proof)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}
	if req.Chunk.Kind == ChunkPublic && h.store.Has(req.Chunk.Address()) {
		return ErrAlreadyExists
	}
	return h.store.Store(req.Chunk)
}

// Get returns the locally-held chunk for addr, or ErrNoSuchData.
func (h *ChunkHolder) Get(addr Address, kind ChunkKind) (Chunk, error) {
	return h.store.Get(addr, kind)
}

// DeleteUnpub verifies ownership and the section proof authorizing the
// delete, then removes the chunk.
func (h *ChunkHolder) DeleteUnpub(addr Address, chunk Chunk, requesterKey ed25519.PublicKey, proof *SectionProof) error {
	if err := chunk.ValidateOwnership(requesterKey); err != nil {
		return err
	}
	ok, err := VerifySection(h.keys, addr, proof)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}
	return h.store.Delete(addr)
}

// HandleDuplicateOrder starts pulling addr from existingHolders unless mid
// is already in flight, returning the outbound Get to issue.
func (h *ChunkHolder) HandleDuplicateOrder(mid MessageID, addr Address, existingHolders []NodeID) (Action, bool) {
	if !h.dedup.TryStart(mid) {
		return Action{}, false
	}
	return Action{
		SendTo: existingHolders[0],
		Envelope: Envelope{
			Kind:      EnvRequest,
			MessageID: mid,
			Requester: Requester{Kind: RequesterNode},
			Request:   &ChunkRequest{Kind: ReqGet, Address: addr},
		},
	}, true
}

// CompleteDuplication stores the pulled chunk and clears mid from the dedup
// set, emitting the DuplicationComplete to report back.
func (h *ChunkHolder) CompleteDuplication(mid MessageID, chunk Chunk, self NodeID) (Action, error) {
	if err := h.store.Store(chunk); err != nil {
		h.dedup.Finish(mid)
		return Action{}, err
	}
	h.dedup.Finish(mid)
	return Action{
		Envelope: Envelope{
			Kind:      EnvDuplicationComplete,
			MessageID: mid,
			Address:   chunk.Address(),
		},
	}, nil
}

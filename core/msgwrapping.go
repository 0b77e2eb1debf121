package core

import "github.com/ethereum/go-ethereum/rlp"

// SectionProof is the signature payload an Envelope carries once its
// MessageID reaches a section boundary: either a single member's share
// (below threshold, still accumulating) or the section's combined
// signature (at or above threshold).
type SectionProof struct {
	Combined bool
	Index    int    // valid when !Combined
	Sig      []byte // share signature, or the recovered combined signature
}

// WrapSection signs payload with our threshold share and returns a
// SectionProof carrying that share, ready to be accumulated by peers before
// the combined signature can be recovered. payload is canonicalized via RLP
// rather than JSON, so the signed bytes are stable regardless of
// map/field ordering.
func WrapSection(ks *ThresholdKeySet, payload interface{}) (*SectionProof, error) {
	msg, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, err
	}
	return &SectionProof{
		Combined: false,
		Index:    ks.OurIndex,
		Sig:      ks.SignShare(msg),
	}, nil
}

// VerifySection checks a SectionProof against payload: a share proof is
// verified against the claimed member's public key share, a combined proof
// against the section's combined public key.
func VerifySection(ks *ThresholdKeySet, payload interface{}, proof *SectionProof) (bool, error) {
	if proof == nil {
		return false, ErrInvalidSignature
	}
	msg, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return false, err
	}
	if proof.Combined {
		return ks.VerifyCombined(msg, proof.Sig)
	}
	return ks.VerifyShare(proof.Index, msg, proof.Sig)
}

// VerifySectionChain checks proof against the section's current combined
// key first, then against every prior key in chain, oldest first. This
// lets a proof signed before the section's most recent key rotation still
// verify, as long as the key that signed it appears somewhere in chain.
func VerifySectionChain(ks *ThresholdKeySet, chain []SectionKey, payload interface{}, proof *SectionProof) (bool, error) {
	if proof == nil {
		return false, ErrInvalidSignature
	}
	ok, err := VerifySection(ks, payload, proof)
	if err != nil {
		return false, err
	}
	if ok || !proof.Combined {
		return ok, nil
	}
	msg, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return false, err
	}
	for _, k := range chain {
		if ok, _ := VerifyCombinedBytes(k.PublicKey, msg, proof.Sig); ok {
			return true, nil
		}
	}
	return false, nil
}

// AccumulateSection folds proof into acc (creating one keyed by msg if acc
// is nil), and attempts recovery once enough shares have arrived. It returns
// the recovered combined SectionProof, or nil if still below threshold.
func AccumulateSection(ks *ThresholdKeySet, acc *ShareSet, payload interface{}, proof *SectionProof) (*ShareSet, *SectionProof, error) {
	if proof.Combined {
		return acc, proof, nil
	}
	msg, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return acc, nil, err
	}
	if acc == nil {
		acc = NewShareSet(msg)
	}
	acc.Add(proof.Index, proof.Sig)
	if !acc.Ready(ks.Threshold) {
		return acc, nil, nil
	}
	combined, err := ks.Recover(acc)
	if err != nil {
		return acc, nil, err
	}
	return acc, &SectionProof{Combined: true, Sig: combined}, nil
}

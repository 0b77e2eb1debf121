package core

import (
	"errors"
	"fmt"

	bls "github.com/herumi/bls-eth-go-binary/bls"
)

// ThresholdKeySet wraps a single (t, n) BLS12-381 key share this node holds,
// together with the public material needed to verify shares from, and
// recover a combined signature over, the rest of the section. It calls
// directly into herumi/bls-eth-go-binary for true Lagrange-interpolated
// share issuance and recovery.
type ThresholdKeySet struct {
	Threshold int
	OurIndex  int

	ourShare    bls.SecretKey
	ourPublic   bls.PublicKey
	combinedPub bls.PublicKey
	memberPubs  map[int]bls.PublicKey
}

// GenerateThresholdKeySets derives n (t, n)-threshold key shares from a fresh
// master secret, for use in tests and single-process genesis simulation
// (LoopbackOverlay). The genesis handshake in genesis.go does not generate
// shares; it signs with whichever key set the overlay supplies.
func GenerateThresholdKeySets(threshold, n int) ([]*ThresholdKeySet, error) {
	if threshold < 1 || n < threshold {
		return nil, fmt.Errorf("invalid threshold parameters: t=%d n=%d", threshold, n)
	}
	var master bls.SecretKey
	master.SetByCSPRNG()

	masterSecrets := master.GetMasterSecretKey(threshold)
	masterPubs := bls.GetMasterPublicKey(masterSecrets)
	secretShares := make([]bls.SecretKey, n)
	ids := make([]bls.ID, n)
	for i := 0; i < n; i++ {
		var id bls.ID
		if err := id.SetLittleEndian([]byte{byte(i + 1)}); err != nil {
			return nil, fmt.Errorf("set share id: %w", err)
		}
		ids[i] = id
		var share bls.SecretKey
		if err := share.Set(masterSecrets, &id); err != nil {
			return nil, fmt.Errorf("derive share %d: %w", i, err)
		}
		secretShares[i] = share
	}

	memberPubs := make(map[int]bls.PublicKey, n)
	for i, share := range secretShares {
		memberPubs[i] = *share.GetPublicKey()
	}

	out := make([]*ThresholdKeySet, n)
	for i := range out {
		out[i] = &ThresholdKeySet{
			Threshold:   threshold,
			OurIndex:    i,
			ourShare:    secretShares[i],
			ourPublic:   memberPubs[i],
			combinedPub: masterPubs[0],
			memberPubs:  memberPubs,
		}
	}
	return out, nil
}

// SignShare produces this node's signature share over msg.
func (k *ThresholdKeySet) SignShare(msg []byte) []byte {
	return k.ourShare.SignByte(msg).Serialize()
}

// PublicKeyShare returns this node's public key share, used by peers to
// verify SignShare's output before accumulating it.
func (k *ThresholdKeySet) PublicKeyShare() bls.PublicKey { return k.ourPublic }

// CombinedPublicKey returns the section's combined (threshold) public key.
func (k *ThresholdKeySet) CombinedPublicKey() bls.PublicKey { return k.combinedPub }

// VerifyShare checks that share is a valid signature by member index idx
// over msg.
func (k *ThresholdKeySet) VerifyShare(idx int, msg, share []byte) (bool, error) {
	pub, ok := k.memberPubs[idx]
	if !ok {
		return false, ErrUnknownKey
	}
	var sig bls.Sign
	if err := sig.Deserialize(share); err != nil {
		return false, err
	}
	return sig.VerifyByte(&pub, msg), nil
}

// ShareSet collects signature shares keyed by member index, pending recovery
// of a single combined signature once Threshold of them are present.
type ShareSet struct {
	Msg    []byte
	Shares map[int][]byte
}

// NewShareSet starts an empty accumulator for msg.
func NewShareSet(msg []byte) *ShareSet {
	return &ShareSet{Msg: msg, Shares: make(map[int][]byte)}
}

// Add records member idx's share. Returns false if idx was already present.
func (s *ShareSet) Add(idx int, share []byte) bool {
	if _, ok := s.Shares[idx]; ok {
		return false
	}
	s.Shares[idx] = share
	return true
}

// Ready reports whether enough shares have accumulated to recover.
func (s *ShareSet) Ready(threshold int) bool { return len(s.Shares) >= threshold }

// Recover combines the accumulated shares into the section's single
// threshold signature via Lagrange interpolation over the share indices.
func (k *ThresholdKeySet) Recover(s *ShareSet) ([]byte, error) {
	if !s.Ready(k.Threshold) {
		return nil, errors.New("not enough shares to recover threshold signature")
	}
	sigs := make([]bls.Sign, 0, k.Threshold)
	ids := make([]bls.ID, 0, k.Threshold)
	i := 0
	for idx, raw := range s.Shares {
		if i >= k.Threshold {
			break
		}
		var sig bls.Sign
		if err := sig.Deserialize(raw); err != nil {
			return nil, fmt.Errorf("share %d: %w", idx, err)
		}
		var id bls.ID
		if err := id.SetLittleEndian([]byte{byte(idx + 1)}); err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
		ids = append(ids, id)
		i++
	}
	var combined bls.Sign
	if err := combined.Recover(sigs, ids); err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}
	return combined.Serialize(), nil
}

// VerifyCombined checks sig against the section's combined public key.
func (k *ThresholdKeySet) VerifyCombined(msg, sig []byte) (bool, error) {
	var s bls.Sign
	if err := s.Deserialize(sig); err != nil {
		return false, err
	}
	return s.VerifyByte(&k.combinedPub, msg), nil
}

// VerifyCombinedBytes checks sig against an arbitrary serialized combined
// public key, rather than this ThresholdKeySet's own. It lets a verifier
// check a proof signed under a past section key it no longer holds shares
// for, e.g. one entry of a SectionChain.
func VerifyCombinedBytes(pubBytes, msg, sig []byte) (bool, error) {
	var pub bls.PublicKey
	if err := pub.Deserialize(pubBytes); err != nil {
		return false, err
	}
	var s bls.Sign
	if err := s.Deserialize(sig); err != nil {
		return false, err
	}
	return s.VerifyByte(&pub, msg), nil
}

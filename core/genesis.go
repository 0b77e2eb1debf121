package core

import "crypto/ed25519"

// GenesisAmount is the constant initial supply minted for a network's first
// section wallet. It is deterministic across every founding Elder so that
// Round 1's independently-constructed credits are identical.
const GenesisAmount uint64 = 4_503_599_627_370_496

// GenesisState carries the two-round genesis handshake's accumulated
// shares through ProposingGenesis and AccumulatingGenesis.
type GenesisState struct {
	PartialCredit Credit
	ProposeShares *ShareSet

	SignedCredit       Credit
	AccumulateShares   *ShareSet
}

// GenesisCredit deterministically constructs the same Credit on every
// founding Elder: fixed id, fixed amount, the section wallet as recipient,
// and the constant message "genesis".
func GenesisCredit(sectionWallet ed25519.PublicKey) Credit {
	return Credit{
		ID:        MessageID{},
		Amount:    GenesisAmount,
		Recipient: sectionWallet,
		Msg:       "genesis",
	}
}

// StartGenesisProposal begins Round 1: this Elder signs its own share over
// the deterministic genesis credit and starts accumulating peers' shares.
func StartGenesisProposal(ks *ThresholdKeySet, sectionWallet ed25519.PublicKey) (*GenesisState, *SectionProof, error) {
	credit := GenesisCredit(sectionWallet)
	proof, err := WrapSection(ks, credit)
	if err != nil {
		return nil, nil, err
	}
	state := &GenesisState{PartialCredit: credit}
	state.ProposeShares, _, err = AccumulateSection(ks, nil, credit, proof)
	if err != nil {
		return nil, nil, err
	}
	return state, proof, nil
}

// ReceiveGenesisProposal folds a peer's Round 1 share into state. Once
// enough shares have accumulated, it returns the combined SignedCredit
// proof and the caller should transition to AccumulatingGenesis and start
// Round 2 with StartGenesisAccumulation. Round 2 signs the same Credit
// again; the combined Round 1 signature is not part of its payload.
func ReceiveGenesisProposal(ks *ThresholdKeySet, state *GenesisState, from int, share []byte) (*SectionProof, error) {
	proof := &SectionProof{Index: from, Sig: share}
	acc, combined, err := AccumulateSection(ks, state.ProposeShares, state.PartialCredit, proof)
	if err != nil {
		return nil, err
	}
	state.ProposeShares = acc
	return combined, nil
}

// StartGenesisAccumulation begins Round 2 once Round 1 produced signedCredit:
// this Elder signs signedCredit's bytes with a fresh share.
func StartGenesisAccumulation(ks *ThresholdKeySet, state *GenesisState, signedCredit Credit) (*SectionProof, error) {
	state.SignedCredit = signedCredit
	proof, err := WrapSection(ks, signedCredit)
	if err != nil {
		return nil, err
	}
	var err2 error
	state.AccumulateShares, _, err2 = AccumulateSection(ks, nil, signedCredit, proof)
	if err2 != nil {
		return nil, err2
	}
	return proof, nil
}

// ReceiveGenesisAccumulation folds a peer's Round 2 share into state. Once
// threshold shares have accumulated, it returns the final
// CreditAgreementProof ready to feed the Replica Manager as the section's
// first TransferPropagated, and the node should transition to Elder.
func ReceiveGenesisAccumulation(ks *ThresholdKeySet, state *GenesisState, from int, share []byte) (*CreditAgreementProof, error) {
	proof := &SectionProof{Index: from, Sig: share}
	acc, combined, err := AccumulateSection(ks, state.AccumulateShares, state.SignedCredit, proof)
	if err != nil {
		return nil, err
	}
	state.AccumulateShares = acc
	if combined == nil {
		return nil, nil
	}
	return &CreditAgreementProof{Credit: state.SignedCredit, SectionSig: *combined}, nil
}

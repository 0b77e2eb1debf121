package core

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// SignedTransfer is a debit request signed by the sending wallet's actor,
// submitted to validate() before any replica registers the matching credit.
type SignedTransfer struct {
	Sender    []byte
	Amount    uint64
	Recipient []byte
	Sig       []byte
}

// storeCostPerByte is the per-byte price store_cost charges; a fixed
// constant here stands in for what would otherwise be a network-wide
// rate-limit/economy module.
const storeCostPerByte = 1

// ReplicaManager is this Elder's authoritative per-wallet transfer replica.
// It owns every wallet's TransferStore exclusively; Payments and the
// transfer-gossip path call into it only through register/receive_propagated
// /validate/store_cost, each held for exactly one atomic step — the lock is
// never held across a network await.
type ReplicaManager struct {
	mu sync.Mutex

	rootDir       string
	keys          *ThresholdKeySet
	sectionChain  []SectionKey
	wallets       map[string]*walletState
	seenCreditIDs map[string]struct{}

	logger *logrus.Logger
}

// SectionKey is one entry in the section's key-chain ancestry, used to
// verify a CreditAgreementProof's signing key is one this section (or a
// past incarnation of it) actually held.
type SectionKey struct {
	PublicKey []byte
}

type walletState struct {
	wallet *Wallet
	store  *TransferStore
}

// NewReplicaManager opens a ReplicaManager rooted at rootDir; per-wallet
// state is loaded lazily on first reference.
func NewReplicaManager(rootDir string, keys *ThresholdKeySet, chain []SectionKey, lg *logrus.Logger) *ReplicaManager {
	if lg == nil {
		lg = logrus.New()
	}
	return &ReplicaManager{
		rootDir:       rootDir,
		keys:          keys,
		sectionChain:  chain,
		wallets:       make(map[string]*walletState),
		seenCreditIDs: make(map[string]struct{}),
		logger:        lg,
	}
}

func walletKey(owner []byte) string { return string(owner) }

// walletFor returns (loading if necessary) the wallet projection for owner.
// Caller must hold r.mu.
func (r *ReplicaManager) walletFor(owner []byte) (*walletState, error) {
	key := walletKey(owner)
	if ws, ok := r.wallets[key]; ok {
		return ws, nil
	}
	var addr Address
	copy(addr[:], owner)
	store, err := OpenTransferStore(r.rootDir, addr)
	if err != nil {
		return nil, err
	}
	events, err := store.GetAll()
	if err != nil {
		return nil, err
	}
	w := NewWallet(owner)
	w.Replay(events)
	ws := &walletState{wallet: w, store: store}
	r.wallets[key] = ws
	return ws, nil
}

func creditKey(c Credit) string { return c.ID.String() + ":" + string(c.Recipient) }

// Register verifies proof's combined signature against the section's
// current key or, failing that, any prior key in its chain (so a proof
// signed before the section's last key rotation still registers), and
// (idempotent by credit id) appends TransferRegistered to the recipient's
// wallet.
func (r *ReplicaManager) Register(proof CreditAgreementProof) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := VerifySectionChain(r.keys, r.sectionChain, proof.Credit, &proof.SectionSig)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}

	ck := creditKey(proof.Credit)
	if _, seen := r.seenCreditIDs[ck]; seen {
		return nil
	}

	ws, err := r.walletFor(proof.Credit.Recipient)
	if err != nil {
		return err
	}
	ev := ReplicaEvent{Kind: EventTransferRegistered, RegisteredDebit: &proof.Credit}
	if err := ws.store.TryInsert(ev); err != nil {
		return err
	}
	ws.wallet.Apply(ev)
	r.seenCreditIDs[ck] = struct{}{}
	return nil
}

// ReceivePropagated is Register's counterpart for the crediting side: it
// appends TransferPropagated once the combined proof validates. Registration
// and propagation are separate events because an Elder may learn of a
// transfer before or after its own section acknowledges it.
func (r *ReplicaManager) ReceivePropagated(proof CreditAgreementProof) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := VerifySectionChain(r.keys, r.sectionChain, proof.Credit, &proof.SectionSig)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}

	ws, err := r.walletFor(proof.Credit.Recipient)
	if err != nil {
		return err
	}
	ev := ReplicaEvent{Kind: EventTransferPropagated, PropagatedCredit: &proof}
	if err := ws.store.TryInsert(ev); err != nil {
		return err
	}
	ws.wallet.Apply(ev)
	return nil
}

// Validate checks that the sender's balance covers a SignedTransfer's
// amount, then returns this replica's share-signed TransferValidated over
// it. The transfer's Sig field is not verified.
func (r *ReplicaManager) Validate(t SignedTransfer) (*SectionProof, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, err := r.walletFor(t.Sender)
	if err != nil {
		return nil, err
	}
	if ws.wallet.Balance < t.Amount {
		return nil, ErrInsufficientBalance
	}
	proof, err := WrapSection(r.keys, t)
	if err != nil {
		return nil, err
	}
	ev := ReplicaEvent{Kind: EventTransferValidated, ValidatedCredit: &Credit{
		Amount:    t.Amount,
		Recipient: t.Recipient,
	}}
	if err := ws.store.TryInsert(ev); err != nil {
		return nil, err
	}
	ws.wallet.Apply(ev)
	return proof, nil
}

// StoreCost returns the price of storing numBytes, for Payments to enforce
// as the minimum acceptable payment.
func (r *ReplicaManager) StoreCost(numBytes uint64) uint64 {
	return numBytes * storeCostPerByte
}

// BalanceOf returns the current folded balance for owner, loading its
// wallet if this is the first reference to it.
func (r *ReplicaManager) BalanceOf(owner []byte) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, err := r.walletFor(owner)
	if err != nil {
		return 0, err
	}
	return ws.wallet.Balance, nil
}

// SectionWalletKey returns the combined public key identifying this
// section's wallet, the recipient a client Payment must target.
func (r *ReplicaManager) SectionWalletKey() []byte {
	pub := r.keys.CombinedPublicKey()
	return pub.Serialize()
}

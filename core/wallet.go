package core

import "crypto/ed25519"

// Credit is the recipient-facing half of a transfer: an amount destined for
// a wallet, with a human-readable message.
type Credit struct {
	ID        MessageID
	Amount    uint64
	Recipient ed25519.PublicKey
	Msg       string
}

// Payment accompanies a client write request (Put/DeleteUnpub) and funds it.
// Proof is the CreditAgreementProof the client's originating section already
// signed off on; ProcessPayment in payments.go only needs to register and
// propagate it locally, not construct a new one.
type Payment struct {
	Proof CreditAgreementProof
	To    ed25519.PublicKey // section wallet id the payment must target
}

func (p Payment) Amount() uint64               { return p.Proof.Credit.Amount }
func (p Payment) Recipient() ed25519.PublicKey { return p.Proof.Credit.Recipient }

// CreditAgreementProof is a Credit accompanied by the section's threshold
// signature over it, the durable artifact a client or peer section can
// independently verify without trusting any single replica.
type CreditAgreementProof struct {
	Credit    Credit
	SectionSig SectionProof
}

// ReplicaEventKind tags the three possible wallet history events a
// ReplicaManager appends.
type ReplicaEventKind uint8

const (
	EventTransferValidated ReplicaEventKind = iota
	EventTransferRegistered
	EventTransferPropagated
)

// ReplicaEvent is a single append-only entry in a wallet's transfer history.
// Only one of the typed fields is valid, selected by Kind.
type ReplicaEvent struct {
	Kind ReplicaEventKind

	// valid when Kind == EventTransferRegistered
	RegisteredDebit *Credit

	// valid when Kind == EventTransferValidated
	ValidatedCredit *Credit

	// valid when Kind == EventTransferPropagated
	PropagatedCredit *CreditAgreementProof
}

// Wallet is the in-memory projection of one address's transfer history: its
// current balance and the events folded to reach it. The projection is
// rebuilt from TransferStore on open; Wallet never persists itself directly.
type Wallet struct {
	Owner   ed25519.PublicKey
	Balance uint64
	History []ReplicaEvent
}

// NewWallet starts an empty wallet projection for owner.
func NewWallet(owner ed25519.PublicKey) *Wallet {
	return &Wallet{Owner: owner}
}

// Apply folds one more event into the wallet's balance, maintaining the
// invariant that Balance always equals the sum of propagated credits minus
// registered debits seen so far.
func (w *Wallet) Apply(ev ReplicaEvent) {
	switch ev.Kind {
	case EventTransferPropagated:
		if ev.PropagatedCredit != nil {
			w.Balance += ev.PropagatedCredit.Credit.Amount
		}
	case EventTransferRegistered:
		if ev.RegisteredDebit != nil {
			w.Balance -= ev.RegisteredDebit.Amount
		}
	case EventTransferValidated:
		// Validation alone does not move balance; it records intent pending
		// registration by the recipient's replicas.
	}
	w.History = append(w.History, ev)
}

// Replay rebuilds Balance and History from a fully-ordered event slice, as
// read back from TransferStore.GetAll on open.
func (w *Wallet) Replay(events []ReplicaEvent) {
	w.Balance = 0
	w.History = w.History[:0]
	for _, ev := range events {
		w.Apply(ev)
	}
}

package core

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

func TestReplicaManagerRegisterIsIdempotentByCreditID(t *testing.T) {
	ks := singleKeySet(t)
	replica := NewReplicaManager(t.TempDir(), ks, nil, nil)
	recipient, _, _ := ed25519.GenerateKey(rand.Reader)
	proof := signedCredit(t, ks, recipient, 50)

	if err := replica.Register(proof); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := replica.Register(proof); err != nil {
		t.Fatalf("second Register (idempotent) should not error: %v", err)
	}

	ws, err := replica.walletFor(recipient)
	if err != nil {
		t.Fatalf("walletFor: %v", err)
	}
	registered := 0
	for _, ev := range ws.wallet.History {
		if ev.Kind == EventTransferRegistered {
			registered++
		}
	}
	if registered != 1 {
		t.Fatalf("expected exactly one registered event despite duplicate Register, got %d", registered)
	}
}

func TestReplicaManagerReceivePropagatedCreditsBalance(t *testing.T) {
	ks := singleKeySet(t)
	replica := NewReplicaManager(t.TempDir(), ks, nil, nil)
	recipient, _, _ := ed25519.GenerateKey(rand.Reader)
	proof := signedCredit(t, ks, recipient, 75)

	if err := replica.ReceivePropagated(proof); err != nil {
		t.Fatalf("ReceivePropagated: %v", err)
	}
	bal, err := replica.BalanceOf(recipient)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if bal != 75 {
		t.Fatalf("expected balance 75, got %d", bal)
	}
}

func TestReplicaManagerValidateRejectsInsufficientBalance(t *testing.T) {
	ks := singleKeySet(t)
	replica := NewReplicaManager(t.TempDir(), ks, nil, nil)
	sender, _, _ := ed25519.GenerateKey(rand.Reader)
	recipient, _, _ := ed25519.GenerateKey(rand.Reader)

	_, err := replica.Validate(SignedTransfer{Sender: sender, Amount: 10, Recipient: recipient})
	if err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance with zero balance, got %v", err)
	}

	proof := signedCredit(t, ks, sender, 100)
	if err := replica.ReceivePropagated(proof); err != nil {
		t.Fatalf("ReceivePropagated: %v", err)
	}
	shareProof, err := replica.Validate(SignedTransfer{Sender: sender, Amount: 10, Recipient: recipient})
	if err != nil {
		t.Fatalf("expected Validate to succeed with sufficient balance: %v", err)
	}
	if shareProof == nil || shareProof.Combined {
		t.Fatalf("expected a single share proof from Validate, got %+v", shareProof)
	}
}

func TestReplicaManagerRegisterAcceptsProofFromRotatedSectionKey(t *testing.T) {
	oldKeys := singleKeySet(t)
	newKeys := singleKeySet(t)
	recipient, _, _ := ed25519.GenerateKey(rand.Reader)

	// proof was signed before the section rotated to newKeys.
	proof := signedCredit(t, oldKeys, recipient, 50)

	chain := []SectionKey{{PublicKey: oldKeys.CombinedPublicKey().Serialize()}}
	replica := NewReplicaManager(t.TempDir(), newKeys, chain, nil)

	if err := replica.Register(proof); err != nil {
		t.Fatalf("expected Register to accept a proof signed under a prior chain key: %v", err)
	}
}

func TestReplicaManagerRegisterRejectsProofFromUnknownKey(t *testing.T) {
	unrelatedKeys := singleKeySet(t)
	newKeys := singleKeySet(t)
	recipient, _, _ := ed25519.GenerateKey(rand.Reader)

	proof := signedCredit(t, unrelatedKeys, recipient, 50)

	replica := NewReplicaManager(t.TempDir(), newKeys, nil, nil)
	if err := replica.Register(proof); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature for a key outside the section chain, got %v", err)
	}
}

func TestReplicaManagerStoreCostScalesWithBytes(t *testing.T) {
	ks := singleKeySet(t)
	replica := NewReplicaManager(t.TempDir(), ks, nil, nil)
	if replica.StoreCost(0) != 0 {
		t.Fatalf("expected zero cost for zero bytes")
	}
	if replica.StoreCost(42) != 42*storeCostPerByte {
		t.Fatalf("expected cost to scale linearly with bytes")
	}
}

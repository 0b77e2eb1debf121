package core

import "testing"

func TestWalletBalanceFoldsHistory(t *testing.T) {
	w := NewWallet(nil)
	w.Apply(ReplicaEvent{Kind: EventTransferPropagated, PropagatedCredit: &CreditAgreementProof{
		Credit: Credit{Amount: 100},
	}})
	w.Apply(ReplicaEvent{Kind: EventTransferRegistered, RegisteredDebit: &Credit{Amount: 40}})

	if w.Balance != 60 {
		t.Fatalf("expected balance 60, got %d", w.Balance)
	}
	if len(w.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(w.History))
	}
}

func TestWalletReplayRebuildsBalance(t *testing.T) {
	events := []ReplicaEvent{
		{Kind: EventTransferPropagated, PropagatedCredit: &CreditAgreementProof{Credit: Credit{Amount: 50}}},
		{Kind: EventTransferPropagated, PropagatedCredit: &CreditAgreementProof{Credit: Credit{Amount: 25}}},
		{Kind: EventTransferRegistered, RegisteredDebit: &Credit{Amount: 10}},
	}
	w := NewWallet(nil)
	w.Replay(events)
	if w.Balance != 65 {
		t.Fatalf("expected balance 65 after replay, got %d", w.Balance)
	}
}

package core

import "testing"

func TestHolderIndexAddRemovePersists(t *testing.T) {
	dir := t.TempDir()
	idx, err := OpenHolderIndex(dir)
	if err != nil {
		t.Fatalf("OpenHolderIndex: %v", err)
	}
	var addr Address
	addr[0] = 1
	n1, n2 := NodeID{1}, NodeID{2}

	if err := idx.Add(addr, n1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Add(addr, n2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	holders := idx.Holders(addr)
	if len(holders) != 2 {
		t.Fatalf("expected 2 holders, got %d", len(holders))
	}

	if err := idx.Remove(addr, n1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	holders = idx.Holders(addr)
	if len(holders) != 1 || holders[0] != n2 {
		t.Fatalf("expected only n2 to remain, got %v", holders)
	}

	reopened, err := OpenHolderIndex(dir)
	if err != nil {
		t.Fatalf("reopen OpenHolderIndex: %v", err)
	}
	if got := reopened.Holders(addr); len(got) != 1 || got[0] != n2 {
		t.Fatalf("expected persisted index to survive reopen, got %v", got)
	}
}

func TestHolderIndexAddressesForNode(t *testing.T) {
	dir := t.TempDir()
	idx, err := OpenHolderIndex(dir)
	if err != nil {
		t.Fatalf("OpenHolderIndex: %v", err)
	}
	var a1, a2 Address
	a1[0], a2[0] = 1, 2
	node := NodeID{9}

	idx.Add(a1, node)
	idx.Add(a2, node)

	addrs := idx.Addresses(node)
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses for node, got %d", len(addrs))
	}
}

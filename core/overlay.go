package core

// EventKind enumerates the membership/section events the overlay pushes to
// this node.
type EventKind uint8

const (
	EventMemberJoined EventKind = iota
	EventMemberLost
	EventSectionSplit
	EventElderChange
)

// OverlayEvent is one membership/section notification delivered on the
// overlay's event channel.
type OverlayEvent struct {
	Kind EventKind
	Node NodeID

	// valid when Kind == EventSectionSplit
	NewPrefixes []string
}

// Overlay is the black-box DHT/routing collaborator this node treats as an
// external dependency: message delivery, the section's current key
// material, and membership notifications. Implementations live outside this
// package; this node only depends on the interface.
//
// The handle is shared by design: it outlives every component that holds it
// (Node, ChunkHandler), so none of them ever needs to
// worry about the overlay disappearing out from under them.
type Overlay interface {
	// Send delivers msg to dst. It never blocks past handing the message to
	// the transport; delivery is best-effort.
	Send(dst NodeID, msg []byte) error

	// PublicKeySet returns the section's current threshold, combined
	// public key, and the ordered list of member public key shares.
	PublicKeySet() (threshold int, keys *ThresholdKeySet)

	// OurIndex returns this node's share index within the current section.
	OurIndex() int

	// SectionChain returns the ancestry of this section's public keys,
	// oldest first, used to verify proofs signed under a prior key.
	SectionChain() []SectionKey

	// Events returns the channel on which membership/section notifications
	// arrive. The channel is never closed while the overlay is alive.
	Events() <-chan OverlayEvent
}

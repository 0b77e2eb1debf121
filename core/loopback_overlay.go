package core

// LoopbackOverlay is a single-node, in-memory stand-in for the Overlay
// collaborator, used by cmd/vaultnode for local experimentation where no
// real DHT/routing layer is wired in. It forms a degenerate (1,1) section of
// itself: every "send" is a local no-op, and its event channel is driven
// explicitly by the caller rather than by real membership gossip.
type LoopbackOverlay struct {
	keys  *ThresholdKeySet
	chain []SectionKey
	ch    chan OverlayEvent
}

// NewLoopbackOverlay derives a fresh (1,1) threshold key set for a lone
// founding node and returns an Overlay ready to be driven by Push.
func NewLoopbackOverlay() (*LoopbackOverlay, error) {
	sets, err := GenerateThresholdKeySets(1, 1)
	if err != nil {
		return nil, err
	}
	return &LoopbackOverlay{
		keys: sets[0],
		ch:   make(chan OverlayEvent, 8),
	}, nil
}

// Send is a local no-op: there is no peer to deliver to.
func (o *LoopbackOverlay) Send(dst NodeID, msg []byte) error { return nil }

func (o *LoopbackOverlay) PublicKeySet() (int, *ThresholdKeySet) { return o.keys.Threshold, o.keys }

func (o *LoopbackOverlay) OurIndex() int { return o.keys.OurIndex }

func (o *LoopbackOverlay) SectionChain() []SectionKey { return o.chain }

func (o *LoopbackOverlay) Events() <-chan OverlayEvent { return o.ch }

// Push queues a synthetic membership/section event for Node.HandleOverlayEvent
// to consume, simulating the notifications a real overlay would deliver.
func (o *LoopbackOverlay) Push(ev OverlayEvent) { o.ch <- ev }

// OwnShare returns this node's own signature share over msg, the only share
// a one-node section ever needs to reach its own threshold.
func (o *LoopbackOverlay) OwnShare(msg []byte) []byte { return o.keys.SignShare(msg) }

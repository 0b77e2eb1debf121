package core

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"vaultnode/pkg/utils"
)

// Node wires every component this binary runs together. Its shape at any
// moment mirrors Role: a fresh node starts as an Infant with nothing but an
// Overlay handle, and gains ChunkStore/ReplicaManager/HolderIndex as it
// levels up.
type Node struct {
	Role    *NodeRole
	Overlay Overlay
	Keys    *ThresholdKeySet

	ChunkHandler *ChunkHandler
	ChunkHolder  *ChunkHolder
	Payments     *Payments
	Replica      *ReplicaManager
	HolderIndex  *HolderIndex
	AdultRoster  *AdultRoster
	Audit        *AuditTrail

	Dispatcher *Dispatcher

	logger *logrus.Logger
}

// NodeConfig carries the subset of pkg/config.Config a Node needs to boot.
type NodeConfig struct {
	RootDir           string
	MaxCapacity       uint64
	ReplicationFactor int
	DedupCapacity     int
}

// NewNode starts a fresh Infant node wired to overlay. Levelling up to
// Adult/Elder happens later, driven by overlay membership events
// (Node.HandleOverlayEvent).
func NewNode(cfg NodeConfig, overlay Overlay, lg *logrus.Logger) (*Node, error) {
	if lg == nil {
		lg = logrus.New()
	}
	_, keys := overlay.PublicKeySet()
	n := &Node{
		Role:        NewInfant(),
		Overlay:     overlay,
		Keys:        keys,
		AdultRoster: NewAdultRoster(),
		logger:      lg,
	}
	if cfg.RootDir != "" {
		audit, err := openNodeAuditTrail(cfg.RootDir)
		if err != nil {
			return nil, utils.Wrap(err, "open audit trail")
		}
		n.Audit = audit
	}
	n.Dispatcher = NewDispatcher(n.Role, nil, nil, nil, n.AdultRoster, lg)
	n.Audit.Log("node_started", nil)
	return n, nil
}

// openNodeAuditTrail opens this node's audit log at <rootDir>/audit.log,
// creating rootDir if it doesn't exist yet.
func openNodeAuditTrail(rootDir string) (*AuditTrail, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, err
	}
	return NewAuditTrail(filepath.Join(rootDir, "audit.log"))
}

// HandleOverlayEvent reacts to a membership/section notification, driving
// the role state machine and re-wiring components as needed.
func (n *Node) HandleOverlayEvent(cfg NodeConfig, ev OverlayEvent) error {
	switch ev.Kind {
	case EventMemberJoined:
		n.AdultRoster.Add(ev.Node)
		if n.Role.Kind == RoleInfant {
			return n.levelUpToAdult(cfg)
		}
	case EventMemberLost:
		n.AdultRoster.Remove(ev.Node)
		if n.HolderIndex != nil {
			for _, addr := range n.HolderIndex.Addresses(ev.Node) {
				if err := n.HolderIndex.Remove(addr, ev.Node); err != nil {
					n.logger.WithError(err).Warn("node: failed to drop lost holder")
				}
			}
		}
	case EventElderChange:
		if n.Role.Kind == RoleAdult {
			return n.promoteToElder(cfg)
		}
	case EventSectionSplit:
		n.logger.WithField("new_prefixes", ev.NewPrefixes).Info("node: section split")
	}
	return nil
}

func (n *Node) levelUpToAdult(cfg NodeConfig) error {
	store, err := NewChunkStore(cfg.RootDir, cfg.MaxCapacity, n.logger)
	if err != nil {
		return utils.Wrap(err, "open chunk store")
	}
	if err := n.Role.LevelUp(store); err != nil {
		return utils.Wrap(err, "level up to adult")
	}
	n.ChunkHolder = NewChunkHolder(store, n.Keys, n.logger)
	n.Dispatcher = NewDispatcher(n.Role, n.ChunkHandler, n.ChunkHolder, n.Payments, n.AdultRoster, n.logger)
	n.Audit.Log("promoted", map[string]string{"role": "adult"})
	return nil
}

func (n *Node) promoteToElder(cfg NodeConfig) error {
	index, err := OpenHolderIndex(cfg.RootDir)
	if err != nil {
		return utils.Wrap(err, "open holder index")
	}
	replica := NewReplicaManager(cfg.RootDir, n.Keys, n.Overlay.SectionChain(), n.logger)
	if err := n.Role.PromoteToElder(index, replica); err != nil {
		return utils.Wrap(err, "promote to elder")
	}
	n.HolderIndex = index
	n.Replica = replica
	n.Payments = NewPayments(replica, n.logger)
	n.ChunkHandler = NewChunkHandler(index, n.Overlay, cfg.ReplicationFactor, n.logger)
	n.Dispatcher = NewDispatcher(n.Role, n.ChunkHandler, n.ChunkHolder, n.Payments, n.AdultRoster, n.logger)
	n.Audit.Log("promoted", map[string]string{"role": "elder"})
	return nil
}

// RunGenesis drives this Elder through the two-round genesis handshake and
// feeds the resulting mint directly into the Replica Manager. It is only
// meaningful for the section's founding Elders.
func (n *Node) RunGenesis(sectionWallet ed25519.PublicKey, peerShares func() ([][]byte, error)) error {
	if n.Role.Kind != RoleAdult {
		return fmt.Errorf("genesis: %w", ErrNotApplicable)
	}
	state, _, err := StartGenesisProposal(n.Keys, sectionWallet)
	if err != nil {
		return utils.Wrap(err, "genesis propose")
	}
	if err := n.Role.BeginFormingGenesis(state); err != nil {
		return utils.Wrap(err, "begin forming genesis")
	}

	proposeShares, err := peerShares()
	if err != nil {
		return utils.Wrap(err, "collect genesis propose shares")
	}
	var combined *SectionProof
	for i, share := range proposeShares {
		combined, err = ReceiveGenesisProposal(n.Keys, state, i, share)
		if err != nil {
			return utils.Wrap(err, "accumulate genesis propose shares")
		}
	}
	if combined == nil {
		return fmt.Errorf("genesis: not enough propose shares")
	}
	n.Role.Kind = RoleAccumulatingGenesis

	if _, err := StartGenesisAccumulation(n.Keys, state, state.PartialCredit); err != nil {
		return utils.Wrap(err, "genesis accumulate")
	}
	accumulateShares, err := peerShares()
	if err != nil {
		return utils.Wrap(err, "collect genesis accumulate shares")
	}
	var proof *CreditAgreementProof
	for i, share := range accumulateShares {
		proof, err = ReceiveGenesisAccumulation(n.Keys, state, i, share)
		if err != nil {
			return utils.Wrap(err, "accumulate genesis shares")
		}
	}
	if proof == nil {
		return fmt.Errorf("genesis: not enough accumulate shares")
	}

	if err := n.promoteToElder(NodeConfig{RootDir: n.chunkRootDir()}); err != nil {
		return err
	}
	if err := n.Replica.ReceivePropagated(*proof); err != nil {
		return utils.Wrap(err, "feed genesis mint to replica manager")
	}
	n.Audit.Log("genesis_complete", map[string]string{"credit_id": proof.Credit.ID.String()})
	return nil
}

func (n *Node) chunkRootDir() string {
	if n.Role.Chunks != nil {
		return n.Role.Chunks.dir
	}
	return ""
}

package core

import (
	"crypto/ed25519"

	"github.com/sirupsen/logrus"
)

// Dispatcher is the single entry point for every inbound Envelope: it
// switches on (this node's role, the envelope's source kind, its
// EnvelopeKind) and routes to the matching component method directly. There
// are no per-message handler closures — every branch is a flat case in one
// function.
type Dispatcher struct {
	role *NodeRole

	chunkHandler *ChunkHandler
	chunkHolder  *ChunkHolder
	payments     *Payments
	roster       *AdultRoster
	logger       *logrus.Logger
}

// NewDispatcher wires a Dispatcher against the node's components. Any of
// chunkHandler/chunkHolder/payments may be nil depending on current role;
// Dispatch returns ErrNotApplicable for envelopes that need a component the
// node does not currently have. roster is the live-Adults view an Elder
// dispatches Put against; it may be nil before any membership event arrives.
func NewDispatcher(role *NodeRole, chunkHandler *ChunkHandler, chunkHolder *ChunkHolder, payments *Payments, roster *AdultRoster, lg *logrus.Logger) *Dispatcher {
	if lg == nil {
		lg = logrus.New()
	}
	return &Dispatcher{
		role:         role,
		chunkHandler: chunkHandler,
		chunkHolder:  chunkHolder,
		payments:     payments,
		roster:       roster,
		logger:       lg,
	}
}

// Dispatch routes one inbound envelope from src to the component and method
// appropriate for this node's current role, returning the outbound Actions
// to send (if any).
func (d *Dispatcher) Dispatch(src SourceLocation, env Envelope) ([]Action, error) {
	switch {
	case d.role.Kind == RoleElder && env.Kind == EnvRequest && env.Request != nil && env.Request.Kind == ReqPut:
		return d.dispatchElderPut(env)

	case d.role.Kind == RoleElder && env.Kind == EnvRequest && env.Request != nil && env.Request.Kind == ReqGet:
		return d.dispatchElderGet(env)

	case d.role.Kind == RoleAdult && env.Kind == EnvRequest && env.Request != nil && env.Request.Kind == ReqPut && src.IsSection():
		return d.dispatchAdultStore(env)

	case d.role.Kind == RoleAdult && env.Kind == EnvRequest && env.Request != nil && env.Request.Kind == ReqGet:
		return d.dispatchAdultGet(env)

	case d.role.Kind == RoleAdult && env.Kind == EnvRequest && env.Request != nil && env.Request.Kind == ReqDeleteUnpub && src.IsSection():
		return d.dispatchAdultDelete(env)

	case env.Kind == EnvResponse && env.Response != nil && src.Kind == SourceSingleNode:
		return d.dispatchHolderResponse(src.Node, env)

	case env.Kind == EnvDuplicate:
		return d.dispatchDuplicate(env)

	case env.Kind == EnvDuplicationComplete && src.Kind == SourceSingleNode:
		return d.dispatchDuplicationComplete(src.Node, env)

	default:
		d.logger.WithFields(logrus.Fields{
			"role": d.role.Kind.String(),
			"kind": env.Kind,
		}).Debug("dispatcher: no matching route")
		return nil, ErrNotApplicable
	}
}

func (d *Dispatcher) dispatchElderPut(env Envelope) ([]Action, error) {
	if d.chunkHandler == nil {
		return nil, ErrNotApplicable
	}
	if d.payments != nil && env.Request.Payment != nil {
		if err := d.payments.ProcessPayment(*env.Request.Payment, env.Request.Chunk.Size()); err != nil {
			return []Action{{
				ToClient: !env.Requester.IsNode(),
				SendTo:   env.Requester.ID,
				Envelope: Envelope{Kind: EnvResponse, MessageID: env.MessageID,
					Response: &ChunkResponse{Kind: RespMutation, Err: err}},
			}}, nil
		}
	}
	var candidates []NodeID
	if d.roster != nil {
		candidates = d.roster.Snapshot()
	}
	actions, _ := d.chunkHandler.StartPut(env.MessageID, env.Request.Chunk, env.Requester, candidates)
	return actions, nil
}

func (d *Dispatcher) dispatchElderGet(env Envelope) ([]Action, error) {
	if d.chunkHandler == nil {
		return nil, ErrNotApplicable
	}
	actions, _ := d.chunkHandler.StartGet(env.MessageID, env.Request.Address, env.Requester)
	return actions, nil
}

func (d *Dispatcher) dispatchAdultStore(env Envelope) ([]Action, error) {
	if d.chunkHolder == nil {
		return nil, ErrNotApplicable
	}
	err := d.chunkHolder.Store(*env.Request, env.Proof)
	return []Action{{
		Envelope: Envelope{Kind: EnvResponse, MessageID: env.MessageID,
			Response: &ChunkResponse{Kind: RespMutation, Err: err}},
	}}, nil
}

func (d *Dispatcher) dispatchAdultGet(env Envelope) ([]Action, error) {
	if d.chunkHolder == nil {
		return nil, ErrNotApplicable
	}
	chunk, err := d.chunkHolder.Get(env.Request.Address, ChunkPublic)
	return []Action{{
		Envelope: Envelope{Kind: EnvResponse, MessageID: env.MessageID,
			Response: &ChunkResponse{Kind: RespGetChunk, Chunk: chunk, Err: err}},
	}}, nil
}

func (d *Dispatcher) dispatchAdultDelete(env Envelope) ([]Action, error) {
	if d.chunkHolder == nil {
		return nil, ErrNotApplicable
	}
	var requesterKey ed25519.PublicKey
	if env.Requester.Kind == RequesterClient {
		requesterKey = ed25519.PublicKey(env.Requester.ID[:])
	}
	err := d.chunkHolder.DeleteUnpub(env.Request.Address, env.Request.Chunk, requesterKey, env.Proof)
	return []Action{{
		Envelope: Envelope{Kind: EnvResponse, MessageID: env.MessageID,
			Response: &ChunkResponse{Kind: RespMutation, Err: err}},
	}}, nil
}

func (d *Dispatcher) dispatchHolderResponse(from NodeID, env Envelope) ([]Action, error) {
	if d.chunkHandler == nil {
		return nil, ErrNotApplicable
	}
	resp := env.Response
	if resp.Kind == RespGetChunk {
		action, _ := d.chunkHandler.HandleGetResponse(env.MessageID, from, resp.Chunk, resp.Err)
		if action == nil {
			return nil, nil
		}
		return []Action{*action}, nil
	}
	action, _ := d.chunkHandler.HandleHolderAck(env.MessageID, from, resp.Err)
	if action == nil {
		return nil, nil
	}
	return []Action{*action}, nil
}

func (d *Dispatcher) dispatchDuplicate(env Envelope) ([]Action, error) {
	if d.chunkHolder == nil {
		return nil, ErrNotApplicable
	}
	action, started := d.chunkHolder.HandleDuplicateOrder(env.MessageID, env.Address, env.ExistingHolders)
	if !started {
		return nil, nil
	}
	return []Action{action}, nil
}

func (d *Dispatcher) dispatchDuplicationComplete(from NodeID, env Envelope) ([]Action, error) {
	// Elder-side bookkeeping: record the new holder in the index. The actual
	// chunk fetch/store already happened on the Adult before it sent this.
	if d.chunkHandler == nil {
		return nil, ErrNotApplicable
	}
	if err := d.chunkHandler.index.Add(env.Address, from); err != nil {
		return nil, err
	}
	return nil, nil
}

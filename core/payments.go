package core

import (
	"bytes"

	"github.com/sirupsen/logrus"
)

// Payments is the Elder component gating client data writes on a cleared
// payment: it validates the payment targets this section's wallet,
// registers and propagates the credit against the Replica Manager, checks
// the paid amount against store_cost, and only then forwards the write.
type Payments struct {
	replica *ReplicaManager
	logger  *logrus.Logger
}

// NewPayments wires Payments against a section's ReplicaManager.
func NewPayments(replica *ReplicaManager, lg *logrus.Logger) *Payments {
	if lg == nil {
		lg = logrus.New()
	}
	return &Payments{replica: replica, logger: lg}
}

// ProcessPayment runs the full payment-gated forwarding sequence for one
// write request. On success it returns nil and the caller proceeds to
// forward cmd under a fresh section-signed envelope; any non-nil error is
// the exact client-visible failure to report.
//
// Underpayment forfeits the paid amount: the credit is registered and
// propagated (the section wallet is credited) before the cost comparison
// runs, and no refund path exists.
func (p *Payments) ProcessPayment(payment Payment, numBytes uint64) error {
	sectionKey := p.replica.SectionWalletKey()
	if !bytes.Equal(payment.To, sectionKey) {
		p.logger.Warn("payment: recipient is not this section")
		return newTransferError(ErrNoSuchRecipient)
	}

	proof := payment.Proof
	if err := p.replica.Register(proof); err != nil {
		p.logger.WithError(err).Warn("payment: registration failed")
		return newTransferError(err)
	}
	if err := p.replica.ReceivePropagated(proof); err != nil {
		p.logger.WithError(err).Warn("payment: propagation failed")
		return newTransferError(err)
	}

	cost := p.replica.StoreCost(numBytes)
	if cost > payment.Amount() {
		p.logger.WithFields(logrus.Fields{
			"paid": payment.Amount(),
			"cost": cost,
		}).Warn("payment: too low, amount forfeited")
		return newTransferError(ErrInsufficientBalance)
	}

	p.logger.Debug("payment: cleared, forwarding write")
	return nil
}

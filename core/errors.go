package core

import "errors"

// Sentinel errors shared across the node. Adversarial-shaped errors
// (InvalidSignature, NotApplicable) are never surfaced to a client;
// honest-shaped errors (quota, balance, not-found) always are.
var (
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrAlreadyExists       = errors.New("chunk already exists")
	ErrNotFound            = errors.New("not found")
	ErrNoSuchData          = errors.New("no such data")
	ErrNoSuchRecipient     = errors.New("no such recipient")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotApplicable       = errors.New("not applicable for current role")
	ErrNotOwner            = errors.New("requester is not the chunk owner")
	ErrDuplicateCredit     = errors.New("credit already recorded")
	ErrUnknownKey          = errors.New("key not recognized in section chain")
	ErrCorrupt             = errors.New("persisted state corrupt")
)

// TransferError wraps one of the transfer-path sentinel errors (NoSuchRecipient,
// InsufficientBalance, or a generic registration failure) so that Payments and
// the Replica Manager can report a single client-visible error variant.
type TransferError struct {
	Err error
}

func (e *TransferError) Error() string { return "transfer registration: " + e.Err.Error() }
func (e *TransferError) Unwrap() error { return e.Err }

func newTransferError(err error) *TransferError { return &TransferError{Err: err} }

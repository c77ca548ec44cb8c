package entity

import "errors"

// Error taxonomy of the wallet view. Adapters wrap these with fmt.Errorf("...: %w")
// so callers can match them with errors.Is.
var (
	// ErrProviderAbsent means no usable account provider is configured or reachable.
	ErrProviderAbsent = errors.New("account provider absent")
	// ErrAccountAccessDenied means the provider refused to unlock an account.
	ErrAccountAccessDenied = errors.New("account access denied")
	// ErrReadFailure wraps a failed balance query.
	ErrReadFailure = errors.New("balance read failed")
	// ErrTransactionFailure wraps a failed submission or confirmation.
	ErrTransactionFailure = errors.New("transaction failed")
	// ErrTransactionReverted is returned when a mined receipt carries a failed status.
	ErrTransactionReverted = errors.New("transaction reverted")

	ErrActionInFlight   = errors.New("action already in flight")
	ErrNotConnected     = errors.New("wallet not connected")
	ErrNothingToSubmit  = errors.New("required input is empty")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRecipient = errors.New("invalid recipient address")
)

package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidOracleAddress = errors.New("invalid oracle address")
	ErrStalePrice           = errors.New("oracle price is stale")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrStaleRound           = errors.New("oracle round is stale")
	ErrItemUnavailable      = errors.New("item unavailable")
	ErrInsufficientPayment  = errors.New("insufficient payment")
	ErrInsufficientBalance  = errors.New("insufficient custodied balance")
	ErrInvalidRecipient     = errors.New("invalid recipient")
	ErrTransactionFailed    = errors.New("currency transfer failed")
	ErrArithmeticOverflow   = errors.New("arithmetic overflow")
)

package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed submissions; no state changes
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced request does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when deciding a request that is already terminal
	ErrInvalidState = errors.New("invalid state")

	// ErrSideEffectDispatch is returned when a collaborator failed to apply an effect
	// after the status change was committed
	ErrSideEffectDispatch = errors.New("side effect dispatch failed")
)

// Collaborator errors
var (
	ErrContractNotFound = errors.New("contract not found")
	ErrPayoutNotFound   = errors.New("payout item not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrTemplateNotFound = errors.New("workflow template not found")
	ErrNodeNotFound     = errors.New("workflow node not found")
)

// Validationf wraps ErrValidation with a formatted message
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

package swap

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input: unknown asset tags, non-positive
	// amounts, missing addresses. Never retried.
	ErrValidation = errors.New("invalid swap request")

	// ErrInvalidState is returned when an action's precondition status does
	// not hold. The caller must re-query the current state; retrying the
	// same call cannot succeed and could double-submit a backend action.
	ErrInvalidState = errors.New("action not allowed in current swap state")

	// ErrTimelockNotExpired is returned when a refund is attempted before
	// the corresponding timelock has passed.
	ErrTimelockNotExpired = errors.New("timelock has not expired yet")

	// ErrNoLockedFunds is returned when refunding a party that never locked
	// funds.
	ErrNoLockedFunds = fmt.Errorf("%w: no locked funds for this party", ErrInvalidState)
)

package models

import (
	"database/sql/driver"
	"fmt"
)

type SwapStatus string

const (
	// happy path
	StatusOffered          SwapStatus = "OFFERED"
	StatusAccepted         SwapStatus = "ACCEPTED"
	StatusInitiatorLocked  SwapStatus = "INITIATOR_LOCKED"
	StatusAcceptorLocked   SwapStatus = "ACCEPTOR_LOCKED"
	StatusInitiatorClaimed SwapStatus = "INITIATOR_CLAIMED"
	StatusCompleted        SwapStatus = "COMPLETED"
	// escape paths
	StatusRefunded  SwapStatus = "REFUNDED"
	StatusCancelled SwapStatus = "CANCELLED"
	// audit marker: first leg locked, second leg's backend call failed
	StatusFailed SwapStatus = "FAILED"
)

func (s SwapStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can leave the status.
func (s SwapStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRefunded || s == StatusCancelled
}

func (s *SwapStatus) Scan(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("failed to scan SwapStatus: expected string, got %T", value)
	}
	*s = SwapStatus(str)

	return nil
}

func (s SwapStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// ActiveStatuses are the in-flight statuses: accepted or later, not yet
// terminal. FAILED is included because such swaps still hold a refundable
// initiator lock.
func ActiveStatuses() []SwapStatus {
	return []SwapStatus{
		StatusAccepted,
		StatusInitiatorLocked,
		StatusAcceptorLocked,
		StatusInitiatorClaimed,
		StatusFailed,
	}
}

func CreateSwapStatusEnumSQL() string {
	return `CREATE TYPE "public"."swap_status" AS ENUM (
		'OFFERED',
		'ACCEPTED',
		'INITIATOR_LOCKED',
		'ACCEPTOR_LOCKED',
		'INITIATOR_CLAIMED',
		'COMPLETED',
		'REFUNDED',
		'CANCELLED',
		'FAILED'
	);
	`
}

func DropSwapStatusEnumSQL() string {
	return `DROP TYPE "public"."swap_status";`
}

// Package wallet defines the settlement backend capability a swap leg needs:
// lock funds under a hashlock and timelock, redeem a lock with the revealed
// secret, refund an expired lock, and query the balance.
package wallet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable marks a transient backend failure. The caller may
	// retry with backoff.
	ErrUnavailable = errors.New("settlement backend unavailable")
	// ErrRejected marks a terminal failure for the attempted action. The
	// caller must not retry without a fresh precondition check, since the
	// underlying transfer may have partially gone through.
	ErrRejected = errors.New("settlement backend rejected the request")
)

//go:generate go tool mockgen -destination=mock.go -package=wallet . Wallet

// Wallet is implemented once per settlement backend. Lock returning a
// transaction reference means the action was submitted, not that the
// transfer is final; reconciliation against backend finality is the
// backend's concern, not the coordinator's.
type Wallet interface {
	// Lock commits amount under hashlock until timelock (unix seconds),
	// payable to recipient. Returns the backend transaction reference.
	Lock(ctx context.Context, amount decimal.Decimal, hashlock string, timelock int64, recipient string) (string, error)

	// Redeem spends the locked output referenced by txid by revealing the
	// secret pre-image.
	Redeem(ctx context.Context, txid, secret string) error

	// Refund returns the locked output referenced by txid to its original
	// owner and returns the refund transaction reference. Only valid once
	// the lock's timelock has expired.
	Refund(ctx context.Context, txid string) (string, error)

	// Balance returns the confirmed wallet balance.
	Balance(ctx context.Context) (decimal.Decimal, error)
}

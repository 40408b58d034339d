// Package swap implements the two-party atomic swap coordinator: the state
// machine that orders offer, accept, lock, claim and refund actions across
// two settlement backends so that either both legs complete or both parties
// can be made whole.
package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/depixswap/swapd/database"
	"github.com/depixswap/swapd/database/models"
	"github.com/depixswap/swapd/htlc"
	"github.com/depixswap/swapd/money"
	"github.com/depixswap/swapd/wallet"
)

const (
	// DefaultInitiatorTimelock is how long the initiator's funds stay
	// locked. It must strictly exceed the acceptor's timelock so the
	// initiator can always refund if the acceptor defaults after the
	// secret is revealed.
	DefaultInitiatorTimelock = 24 * time.Hour

	// DefaultAcceptorTimelock is how long the acceptor's funds stay locked.
	DefaultAcceptorTimelock = 12 * time.Hour

	// DefaultCallTimeout bounds a single settlement backend call. A timeout
	// is treated as a transient backend failure; the swap state is not
	// advanced.
	DefaultCallTimeout = 30 * time.Second

	// DefaultMaxRetries bounds backoff retries of transient backend
	// failures.
	DefaultMaxRetries = 3
)

// Role identifies which counterparty's lock an action refers to.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleAcceptor  Role = "acceptor"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInitiator, RoleAcceptor:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// Config carries the coordinator's collaborators. Wallets maps each
// recognized asset tag to its settlement backend; both legs of every offer
// must settle on one of them.
type Config struct {
	Store   database.OfferRepository
	Wallets map[models.Asset]wallet.Wallet
	Clock   clock.Clock

	InitiatorTimelock time.Duration
	AcceptorTimelock  time.Duration
	CallTimeout       time.Duration
	MaxRetries        uint64
}

type Coordinator struct {
	store   database.OfferRepository
	wallets map[models.Asset]wallet.Wallet
	clock   clock.Clock

	initiatorTimelock time.Duration
	acceptorTimelock  time.Duration
	callTimeout       time.Duration
	maxRetries        uint64

	locks *keyedLock
}

func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if len(cfg.Wallets) == 0 {
		return nil, errors.New("at least one settlement backend is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.InitiatorTimelock == 0 {
		cfg.InitiatorTimelock = DefaultInitiatorTimelock
	}
	if cfg.AcceptorTimelock == 0 {
		cfg.AcceptorTimelock = DefaultAcceptorTimelock
	}
	if cfg.AcceptorTimelock >= cfg.InitiatorTimelock {
		return nil, fmt.Errorf("acceptor timelock %s must be strictly shorter than initiator timelock %s",
			cfg.AcceptorTimelock, cfg.InitiatorTimelock)
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &Coordinator{
		store:             cfg.Store,
		wallets:           cfg.Wallets,
		clock:             cfg.Clock,
		initiatorTimelock: cfg.InitiatorTimelock,
		acceptorTimelock:  cfg.AcceptorTimelock,
		callTimeout:       cfg.CallTimeout,
		maxRetries:        cfg.MaxRetries,
		locks:             newKeyedLock(),
	}, nil
}

type CreateOfferParams struct {
	InitiatorAsset   models.Asset
	AcceptorAsset    models.Asset
	InitiatorAmount  decimal.Decimal
	AcceptorAmount   decimal.Decimal
	InitiatorAddress string
}

// CreateOffer generates the HTLC parameters and persists a new offer in
// OFFERED. The secret is retained in storage but must never be surfaced
// through any read path until the initiator claim reveals it.
func (c *Coordinator) CreateOffer(ctx context.Context, params CreateOfferParams) (*models.SwapOffer, error) {
	if _, ok := c.wallets[params.InitiatorAsset]; !ok {
		return nil, fmt.Errorf("%w: unknown asset %q", ErrValidation, params.InitiatorAsset)
	}
	if _, ok := c.wallets[params.AcceptorAsset]; !ok {
		return nil, fmt.Errorf("%w: unknown asset %q", ErrValidation, params.AcceptorAsset)
	}
	initiatorAmount, err := money.New(params.InitiatorAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: initiator amount: %v", ErrValidation, err)
	}
	acceptorAmount, err := money.New(params.AcceptorAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: acceptor amount: %v", ErrValidation, err)
	}
	if params.InitiatorAddress == "" {
		return nil, fmt.Errorf("%w: initiator address is required", ErrValidation)
	}

	secret, err := htlc.GenerateSecret()
	if err != nil {
		return nil, err
	}

	offer := &models.SwapOffer{
		SwapID:            uuid.NewString(),
		Status:            models.StatusOffered,
		InitiatorAsset:    params.InitiatorAsset,
		AcceptorAsset:     params.AcceptorAsset,
		InitiatorAmount:   initiatorAmount.Decimal(),
		AcceptorAmount:    acceptorAmount.Decimal(),
		InitiatorAddress:  params.InitiatorAddress,
		Hashlock:          secret.Hashlock(),
		Secret:            secret.Hex(),
		InitiatorTimelock: htlc.NewTimelock(c.clock, c.initiatorTimelock),
		AcceptorTimelock:  htlc.NewTimelock(c.clock, c.acceptorTimelock),
	}

	if err := c.store.CreateSwapOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create swap offer: %w", err)
	}

	log.WithField("id", offer.SwapID).Info("created swap offer")

	return offer, nil
}

// AcceptOffer records the acceptor's address and moves OFFERED to ACCEPTED.
func (c *Coordinator) AcceptOffer(ctx context.Context, swapID, acceptorAddress string) (*models.SwapOffer, error) {
	if acceptorAddress == "" {
		return nil, fmt.Errorf("%w: acceptor address is required", ErrValidation)
	}

	c.locks.lock(swapID)
	defer c.locks.unlock(swapID)

	offer, err := c.store.GetSwapOffer(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(offer, models.StatusOffered); err != nil {
		return nil, err
	}

	acceptedAt := c.clock.Now()
	err = c.update(ctx, swapID, models.StatusOffered, map[string]any{
		"status":           models.StatusAccepted,
		"acceptor_address": acceptorAddress,
		"accepted_at":      acceptedAt,
	})
	if err != nil {
		return nil, err
	}

	log.WithField("id", swapID).Info("swap offer accepted")

	return c.store.GetSwapOffer(ctx, swapID)
}

// LockInitiator submits the initiator's HTLC. The initiator locks first: as
// the holder of the secret, first-mover risk is acceptable only for the
// party the asymmetric timelocks protect.
func (c *Coordinator) LockInitiator(ctx context.Context, swapID string) (*models.SwapOffer, error) {
	c.locks.lock(swapID)
	defer c.locks.unlock(swapID)

	offer, err := c.store.GetSwapOffer(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(offer, models.StatusAccepted); err != nil {
		return nil, err
	}

	var txid string
	err = c.callBackend(ctx, func(callCtx context.Context) error {
		var lockErr error
		txid, lockErr = c.wallets[offer.InitiatorAsset].Lock(
			callCtx, offer.InitiatorAmount, offer.Hashlock, offer.InitiatorTimelock, offer.AcceptorAddress,
		)

		return lockErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to lock initiator funds: %w", err)
	}

	err = c.update(ctx, swapID, models.StatusAccepted, map[string]any{
		"status":          models.StatusInitiatorLocked,
		"initiator_tx_id": txid,
	})
	if err != nil {
		return nil, err
	}

	log.WithField("id", swapID).Infof("initiator locked funds, txid: %s", txid)

	return c.store.GetSwapOffer(ctx, swapID)
}

// LockAcceptor submits the acceptor's HTLC. Only legal once the initiator's
// leg is locked; the ordering is enforced here, not by convention. If the
// backend call fails the offer is marked FAILED so the stranded initiator
// lock stays visible for refund and manual recovery.
func (c *Coordinator) LockAcceptor(ctx context.Context, swapID string) (*models.SwapOffer, error) {
	c.locks.lock(swapID)
	defer c.locks.unlock(swapID)

	offer, err := c.store.GetSwapOffer(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(offer, models.StatusInitiatorLocked); err != nil {
		return nil, err
	}

	var txid string
	err = c.callBackend(ctx, func(callCtx context.Context) error {
		var lockErr error
		txid, lockErr = c.wallets[offer.AcceptorAsset].Lock(
			callCtx, offer.AcceptorAmount, offer.Hashlock, offer.AcceptorTimelock, offer.InitiatorAddress,
		)

		return lockErr
	})
	if err != nil {
		markErr := c.update(ctx, swapID, models.StatusInitiatorLocked, map[string]any{
			"status": models.StatusFailed,
		})
		if markErr != nil {
			log.WithField("id", swapID).Errorf("failed to mark swap as failed: %v", markErr)
		}

		return nil, fmt.Errorf("failed to lock acceptor funds: %w", err)
	}

	err = c.update(ctx, swapID, models.StatusInitiatorLocked, map[string]any{
		"status":         models.StatusAcceptorLocked,
		"acceptor_tx_id": txid,
	})
	if err != nil {
		return nil, err
	}

	log.WithField("id", swapID).Infof("acceptor locked funds, txid: %s", txid)

	return c.store.GetSwapOffer(ctx, swapID)
}

// ClaimInitiator redeems the acceptor's lock with the stored secret. This is
// the pivot of the protocol: from here on the secret is observable by anyone
// inspecting the acceptor's backend, which is exactly what lets the acceptor
// complete the other leg. The secret is returned to the caller here and
// nowhere else.
func (c *Coordinator) ClaimInitiator(ctx context.Context, swapID string) (*models.SwapOffer, htlc.Secret, error) {
	c.locks.lock(swapID)
	defer c.locks.unlock(swapID)

	offer, err := c.store.GetSwapOffer(ctx, swapID)
	if err != nil {
		return nil, htlc.Secret{}, err
	}
	if err := requireStatus(offer, models.StatusAcceptorLocked); err != nil {
		return nil, htlc.Secret{}, err
	}

	secret, err := htlc.ParseSecret(offer.Secret)
	if err != nil {
		return nil, htlc.Secret{}, fmt.Errorf("stored secret is corrupt: %w", err)
	}

	err = c.callBackend(ctx, func(callCtx context.Context) error {
		return c.wallets[offer.AcceptorAsset].Redeem(callCtx, offer.AcceptorTxID, secret.Hex())
	})
	if err != nil {
		return nil, htlc.Secret{}, fmt.Errorf("failed to redeem acceptor lock: %w", err)
	}

	err = c.update(ctx, swapID, models.StatusAcceptorLocked, map[string]any{
		"status": models.StatusInitiatorClaimed,
	})
	if err != nil {
		return nil, htlc.Secret{}, err
	}

	log.WithField("id", swapID).Info("initiator claimed funds, secret revealed")

	updated, err := c.store.GetSwapOffer(ctx, swapID)
	if err != nil {
		return nil, htlc.Secret{}, err
	}

	return updated, secret, nil
}

// ClaimAcceptor redeems the initiator's lock with the now-revealed secret,
// completing the swap.
func (c *Coordinator) ClaimAcceptor(ctx context.Context, swapID string) (*models.SwapOffer, error) {
	c.locks.lock(swapID)
	defer c.locks.unlock(swapID)

	offer, err := c.store.GetSwapOffer(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(offer, models.StatusInitiatorClaimed); err != nil {
		return nil, err
	}

	err = c.callBackend(ctx, func(callCtx context.Context) error {
		return c.wallets[offer.InitiatorAsset].Redeem(callCtx, offer.InitiatorTxID, offer.Secret)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to redeem initiator lock: %w", err)
	}

	err = c.update(ctx, swapID, models.StatusInitiatorClaimed, map[string]any{
		"status":       models.StatusCompleted,
		"completed_at": c.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	log.WithField("id", swapID).Info("acceptor claimed funds, swap complete")

	return c.store.GetSwapOffer(ctx, swapID)
}

// Refund unwinds one party's expired lock. Both legs can be refunded
// independently; the first successful refund moves the offer to REFUNDED and
// the other leg remains refundable from there.
func (c *Coordinator) Refund(ctx context.Context, swapID string, role Role) (*models.SwapOffer, error) {
	c.locks.lock(swapID)
	defer c.locks.unlock(swapID)

	offer, err := c.store.GetSwapOffer(ctx, swapID)
	if err != nil {
		return nil, err
	}

	leg, err := refundLeg(offer, role)
	if err != nil {
		return nil, err
	}
	if !htlc.Expired(c.clock, leg.timelock) {
		return nil, fmt.Errorf("%w: %s lock expires at %d", ErrTimelockNotExpired, role, leg.timelock)
	}

	var refundTxID string
	err = c.callBackend(ctx, func(callCtx context.Context) error {
		var refundErr error
		refundTxID, refundErr = c.wallets[leg.asset].Refund(callCtx, leg.txid)

		return refundErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refund %s lock: %w", role, err)
	}

	err = c.update(ctx, swapID, offer.Status, map[string]any{
		"status":       models.StatusRefunded,
		leg.refundedBy: refundTxID,
	})
	if err != nil {
		return nil, err
	}

	log.WithField("id", swapID).Infof("refunded %s lock, txid: %s", role, refundTxID)

	return c.store.GetSwapOffer(ctx, swapID)
}

// Cancel withdraws an offer nobody has accepted yet.
func (c *Coordinator) Cancel(ctx context.Context, swapID string) (*models.SwapOffer, error) {
	c.locks.lock(swapID)
	defer c.locks.unlock(swapID)

	offer, err := c.store.GetSwapOffer(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(offer, models.StatusOffered); err != nil {
		return nil, err
	}

	err = c.update(ctx, swapID, models.StatusOffered, map[string]any{
		"status": models.StatusCancelled,
	})
	if err != nil {
		return nil, err
	}

	log.WithField("id", swapID).Info("swap offer cancelled")

	return c.store.GetSwapOffer(ctx, swapID)
}

func (c *Coordinator) GetOffer(ctx context.Context, swapID string) (*models.SwapOffer, error) {
	return c.store.GetSwapOffer(ctx, swapID)
}

func (c *Coordinator) ListOffers(ctx context.Context, statuses ...models.SwapStatus) ([]*models.SwapOffer, error) {
	return c.store.ListSwapOffers(ctx, statuses...)
}

// OpenOffers lists offers still open for acceptance.
func (c *Coordinator) OpenOffers(ctx context.Context) ([]*models.SwapOffer, error) {
	return c.store.ListSwapOffers(ctx, models.StatusOffered)
}

// ActiveOffers lists in-flight offers.
func (c *Coordinator) ActiveOffers(ctx context.Context) ([]*models.SwapOffer, error) {
	return c.store.ListSwapOffers(ctx, models.ActiveStatuses()...)
}

// Balances queries every settlement backend.
func (c *Coordinator) Balances(ctx context.Context) (map[models.Asset]decimal.Decimal, error) {
	balances := make(map[models.Asset]decimal.Decimal, len(c.wallets))
	for asset, w := range c.wallets {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		balance, err := w.Balance(callCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to get %s balance: %w", asset, err)
		}
		balances[asset] = balance
	}

	return balances, nil
}

// callBackend runs a settlement backend call with a per-attempt timeout and
// bounded exponential backoff on transient failures. Rejections are never
// retried here: the underlying transfer may have partially succeeded, so a
// retry needs a fresh precondition check by the caller.
func (c *Coordinator) callBackend(ctx context.Context, op func(context.Context) error) error {
	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		err := op(callCtx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, wallet.ErrUnavailable):
			return err
		case errors.Is(err, context.DeadlineExceeded):
			// A timed-out call counts as unavailable: nothing definitive is
			// known, so the state must not advance.
			return fmt.Errorf("%w: %v", wallet.ErrUnavailable, err)
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx,
	)

	return backoff.Retry(attempt, policy)
}

// update applies a status-guarded write. A stale guard means another caller
// won the transition race, which surfaces as an invalid-state error.
func (c *Coordinator) update(ctx context.Context, swapID string, from models.SwapStatus, changes map[string]any) error {
	err := c.store.UpdateSwapOffer(ctx, swapID, from, changes)
	if errors.Is(err, database.ErrStaleStatus) {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	return err
}

func requireStatus(offer *models.SwapOffer, want models.SwapStatus) error {
	if offer.Status != want {
		return fmt.Errorf("%w: swap %s is %s, expected %s", ErrInvalidState, offer.SwapID, offer.Status, want)
	}

	return nil
}

// leg describes the refundable side of a swap for one role.
type leg struct {
	asset      models.Asset
	txid       string
	timelock   int64
	refundedBy string
}

// refundLeg resolves which lock a refund for role unwinds and checks it is
// still outstanding: present, not already redeemed by the counterparty and
// not already refunded.
func refundLeg(offer *models.SwapOffer, role Role) (leg, error) {
	refundable := map[models.SwapStatus]bool{
		models.StatusInitiatorLocked:  true,
		models.StatusAcceptorLocked:   true,
		models.StatusInitiatorClaimed: true,
		models.StatusFailed:           true,
		// A REFUNDED offer may still carry the other party's outstanding
		// lock.
		models.StatusRefunded: true,
	}
	if !refundable[offer.Status] {
		return leg{}, fmt.Errorf("%w: swap %s is %s, nothing to refund", ErrInvalidState, offer.SwapID, offer.Status)
	}

	switch role {
	case RoleInitiator:
		if offer.InitiatorTxID == "" {
			return leg{}, fmt.Errorf("%w: initiator never locked on swap %s", ErrNoLockedFunds, offer.SwapID)
		}
		if offer.InitiatorRefundTxID != "" {
			return leg{}, fmt.Errorf("%w: initiator lock on swap %s already refunded", ErrInvalidState, offer.SwapID)
		}

		return leg{
			asset:      offer.InitiatorAsset,
			txid:       offer.InitiatorTxID,
			timelock:   offer.InitiatorTimelock,
			refundedBy: "initiator_refund_tx_id",
		}, nil
	case RoleAcceptor:
		if offer.AcceptorTxID == "" {
			return leg{}, fmt.Errorf("%w: acceptor never locked on swap %s", ErrNoLockedFunds, offer.SwapID)
		}
		if offer.Status == models.StatusInitiatorClaimed {
			return leg{}, fmt.Errorf("%w: acceptor lock on swap %s was already redeemed", ErrInvalidState, offer.SwapID)
		}
		if offer.AcceptorRefundTxID != "" {
			return leg{}, fmt.Errorf("%w: acceptor lock on swap %s already refunded", ErrInvalidState, offer.SwapID)
		}

		return leg{
			asset:      offer.AcceptorAsset,
			txid:       offer.AcceptorTxID,
			timelock:   offer.AcceptorTimelock,
			refundedBy: "acceptor_refund_tx_id",
		}, nil
	default:
		return leg{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
}

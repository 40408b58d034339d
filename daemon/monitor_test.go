package daemon

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/depixswap/swapd/database"
	"github.com/depixswap/swapd/database/models"
	"github.com/depixswap/swapd/swap"
	"github.com/depixswap/swapd/wallet"
)

// memoryStore mirrors the postgres store's compare-and-set contract.
type memoryStore struct {
	mu     sync.Mutex
	offers map[string]*models.SwapOffer
}

func newMemoryStore() *memoryStore {
	return &memoryStore{offers: make(map[string]*models.SwapOffer)}
}

func (s *memoryStore) CreateSwapOffer(_ context.Context, offer *models.SwapOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offers[offer.SwapID]; ok {
		return fmt.Errorf("%w: %s", database.ErrAlreadyExists, offer.SwapID)
	}
	clone := *offer
	s.offers[offer.SwapID] = &clone

	return nil
}

func (s *memoryStore) GetSwapOffer(_ context.Context, swapID string) (*models.SwapOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[swapID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrNotFound, swapID)
	}
	clone := *offer

	return &clone, nil
}

func (s *memoryStore) ListSwapOffers(_ context.Context, statuses ...models.SwapStatus) ([]*models.SwapOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var offers []*models.SwapOffer
	for _, offer := range s.offers {
		for _, status := range statuses {
			if offer.Status == status {
				clone := *offer
				offers = append(offers, &clone)

				break
			}
		}
	}

	return offers, nil
}

func (s *memoryStore) UpdateSwapOffer(_ context.Context, swapID string, from models.SwapStatus, changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[swapID]
	if !ok {
		return fmt.Errorf("%w: %s", database.ErrNotFound, swapID)
	}
	if offer.Status != from {
		return fmt.Errorf("%w: %s", database.ErrStaleStatus, swapID)
	}

	for column, value := range changes {
		switch column {
		case "status":
			offer.Status = value.(models.SwapStatus)
		case "acceptor_address":
			offer.AcceptorAddress = value.(string)
		case "initiator_tx_id":
			offer.InitiatorTxID = value.(string)
		case "acceptor_tx_id":
			offer.AcceptorTxID = value.(string)
		case "initiator_refund_tx_id":
			offer.InitiatorRefundTxID = value.(string)
		case "acceptor_refund_tx_id":
			offer.AcceptorRefundTxID = value.(string)
		case "accepted_at":
			at := value.(time.Time)
			offer.AcceptedAt = &at
		case "completed_at":
			at := value.(time.Time)
			offer.CompletedAt = &at
		}
	}

	return nil
}

func TestRefundMonitor(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := newMemoryStore()
	btcWallet := wallet.NewMockWallet(ctrl)
	depixWallet := wallet.NewMockWallet(ctrl)
	testClock := clock.NewTestClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	coordinator, err := swap.NewCoordinator(swap.Config{
		Store: store,
		Wallets: map[models.Asset]wallet.Wallet{
			models.AssetBitcoin: btcWallet,
			models.AssetDepix:   depixWallet,
		},
		Clock: testClock,
	})
	require.NoError(t, err)

	offer, err := coordinator.CreateOffer(ctx, swap.CreateOfferParams{
		InitiatorAsset:   models.AssetBitcoin,
		AcceptorAsset:    models.AssetDepix,
		InitiatorAmount:  decimal.NewFromInt(1),
		AcceptorAmount:   decimal.NewFromInt(100),
		InitiatorAddress: "addrA",
	})
	require.NoError(t, err)
	_, err = coordinator.AcceptOffer(ctx, offer.SwapID, "addrB")
	require.NoError(t, err)

	btcWallet.EXPECT().
		Lock(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("btc-lock-tx", nil)
	_, err = coordinator.LockInitiator(ctx, offer.SwapID)
	require.NoError(t, err)

	depixWallet.EXPECT().
		Lock(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("depix-lock-tx", nil)
	_, err = coordinator.LockAcceptor(ctx, offer.SwapID)
	require.NoError(t, err)

	monitor := NewRefundMonitor(coordinator)

	// Nothing expired: the scan must not touch either backend.
	monitor.Scan(ctx)

	current, err := coordinator.GetOffer(ctx, offer.SwapID)
	require.NoError(t, err)
	require.Equal(t, models.StatusAcceptorLocked, current.Status)

	// The acceptor's timelock expires first; only that leg is refunded.
	testClock.SetTime(time.Unix(offer.AcceptorTimelock+1, 0))
	depixWallet.EXPECT().
		Refund(gomock.Any(), "depix-lock-tx").
		Return("depix-refund-tx", nil)

	monitor.Scan(ctx)

	current, err = coordinator.GetOffer(ctx, offer.SwapID)
	require.NoError(t, err)
	require.Equal(t, models.StatusRefunded, current.Status)
	require.Equal(t, "depix-refund-tx", current.AcceptorRefundTxID)
	require.Empty(t, current.InitiatorRefundTxID)

	// Once the initiator's timelock passes too, a later scan unwinds the
	// remaining leg.
	testClock.SetTime(time.Unix(offer.InitiatorTimelock+1, 0))
	btcWallet.EXPECT().
		Refund(gomock.Any(), "btc-lock-tx").
		Return("btc-refund-tx", nil)

	monitor.Scan(ctx)

	current, err = coordinator.GetOffer(ctx, offer.SwapID)
	require.NoError(t, err)
	require.Equal(t, models.StatusRefunded, current.Status)
	require.Equal(t, "btc-refund-tx", current.InitiatorRefundTxID)

	// Fully unwound offers are left alone on later scans.
	monitor.Scan(ctx)
}

package database

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/depixswap/swapd/database/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{
			name:     "embedded database connection string",
			host:     "embedded",
			expected: "host=localhost port=5433 user=testuser password=testpass database=testdb sslmode=disable",
		},
		{
			name:     "external database connection string",
			host:     "test.host",
			expected: "host=test.host port=5433 user=testuser password=testpass database=testdb sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{
				host:     tt.host,
				username: "testuser",
				password: "testpass",
				database: "testdb",
				port:     5433,
			}

			require.Equal(t, tt.expected, db.dsn())
		})
	}
}

func TestOfferRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded postgres test in short mode")
	}

	ctx := context.Background()

	tempDir, err := os.MkdirTemp("", "db_test")
	require.NoErrorf(t, err, "Failed to create temp dir")
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	db, closeDb, err := NewDatabase("testuser", "testpass", "testdb", 5434, tempDir, "embedded", false)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, closeDb())
	})

	require.NotNil(t, db.ORM())
	require.NoError(t, db.MigrateDatabase())

	offer := &models.SwapOffer{
		SwapID:            "swap-1",
		Status:            models.StatusOffered,
		InitiatorAsset:    models.AssetBitcoin,
		AcceptorAsset:     models.AssetDepix,
		InitiatorAmount:   decimal.NewFromInt(1),
		AcceptorAmount:    decimal.NewFromInt(100),
		InitiatorAddress:  "addrA",
		Hashlock:          "deadbeef",
		Secret:            "cafebabe",
		InitiatorTimelock: 1000,
		AcceptorTimelock:  500,
	}

	t.Run("create and get", func(t *testing.T) {
		require.NoError(t, db.CreateSwapOffer(ctx, offer))

		stored, err := db.GetSwapOffer(ctx, "swap-1")
		require.NoError(t, err)
		require.Equal(t, models.StatusOffered, stored.Status)
		require.True(t, stored.InitiatorAmount.Equal(decimal.NewFromInt(1)))
		require.False(t, stored.CreatedAt.IsZero())
	})

	t.Run("duplicate identifier is rejected", func(t *testing.T) {
		err := db.CreateSwapOffer(ctx, &models.SwapOffer{
			SwapID:           "swap-1",
			Status:           models.StatusOffered,
			InitiatorAsset:   models.AssetBitcoin,
			AcceptorAsset:    models.AssetDepix,
			InitiatorAmount:  decimal.NewFromInt(1),
			AcceptorAmount:   decimal.NewFromInt(1),
			InitiatorAddress: "addrA",
			Hashlock:         "deadbeef",
			Secret:           "cafebabe",
		})
		require.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("get unknown identifier", func(t *testing.T) {
		_, err := db.GetSwapOffer(ctx, "nope")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("compare-and-set update", func(t *testing.T) {
		err := db.UpdateSwapOffer(ctx, "swap-1", models.StatusOffered, map[string]any{
			"status":           models.StatusAccepted,
			"acceptor_address": "addrB",
		})
		require.NoError(t, err)

		stored, err := db.GetSwapOffer(ctx, "swap-1")
		require.NoError(t, err)
		require.Equal(t, models.StatusAccepted, stored.Status)
		require.Equal(t, "addrB", stored.AcceptorAddress)

		// A second transition from the already-consumed status must fail.
		err = db.UpdateSwapOffer(ctx, "swap-1", models.StatusOffered, map[string]any{
			"status": models.StatusCancelled,
		})
		require.True(t, errors.Is(err, ErrStaleStatus))

		err = db.UpdateSwapOffer(ctx, "nope", models.StatusOffered, map[string]any{
			"status": models.StatusCancelled,
		})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list by status", func(t *testing.T) {
		offers, err := db.ListSwapOffers(ctx, models.StatusAccepted)
		require.NoError(t, err)
		require.Len(t, offers, 1)
		require.Equal(t, "swap-1", offers[0].SwapID)

		offers, err = db.ListSwapOffers(ctx, models.StatusCompleted)
		require.NoError(t, err)
		require.Empty(t, offers)

		offers, err = db.ListSwapOffers(ctx)
		require.NoError(t, err)
		require.Len(t, offers, 1)
	})
}

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/depixswap/swapd/database/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no offer exists for the identifier.
	ErrNotFound = errors.New("swap offer not found")
	// ErrAlreadyExists is returned when creating an offer whose identifier
	// is already taken.
	ErrAlreadyExists = errors.New("swap offer already exists")
	// ErrStaleStatus is returned by the compare-and-set update when the
	// stored status no longer matches the expected one. The caller raced a
	// concurrent transition and must re-read before retrying.
	ErrStaleStatus = errors.New("swap offer status changed concurrently")
)

//go:generate go tool mockgen -destination=mock.go -package=database . OfferRepository

// OfferRepository is the durable store contract for swap offers. Updates are
// status-guarded so that concurrent transitions on the same identifier are
// linearizable: at most one writer observes the expected status.
type OfferRepository interface {
	CreateSwapOffer(ctx context.Context, offer *models.SwapOffer) error
	GetSwapOffer(ctx context.Context, swapID string) (*models.SwapOffer, error)
	ListSwapOffers(ctx context.Context, statuses ...models.SwapStatus) ([]*models.SwapOffer, error)
	UpdateSwapOffer(ctx context.Context, swapID string, from models.SwapStatus, changes map[string]any) error
}

func (d *Database) CreateSwapOffer(ctx context.Context, offer *models.SwapOffer) error {
	err := d.orm.WithContext(ctx).Create(offer).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, offer.SwapID)
	}

	return err
}

func (d *Database) GetSwapOffer(ctx context.Context, swapID string) (*models.SwapOffer, error) {
	var offer models.SwapOffer
	err := d.orm.WithContext(ctx).
		Where("swap_id = ?", swapID).
		First(&offer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, swapID)
	}
	if err != nil {
		return nil, err
	}

	return &offer, nil
}

func (d *Database) ListSwapOffers(ctx context.Context, statuses ...models.SwapStatus) ([]*models.SwapOffer, error) {
	var offers []*models.SwapOffer
	query := d.orm.WithContext(ctx).Order("created_at DESC")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Find(&offers).Error; err != nil {
		return nil, err
	}

	return offers, nil
}

// UpdateSwapOffer applies changes to the offer iff its status still equals
// from. A zero rows-affected result means either the offer is gone
// (ErrNotFound) or another writer moved the status first (ErrStaleStatus).
func (d *Database) UpdateSwapOffer(ctx context.Context, swapID string, from models.SwapStatus, changes map[string]any) error {
	res := d.orm.WithContext(ctx).
		Model(&models.SwapOffer{}).
		Where("swap_id = ? AND status = ?", swapID, from).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := d.GetSwapOffer(ctx, swapID); err != nil {
			return err
		}

		return fmt.Errorf("%w: %s", ErrStaleStatus, swapID)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	return errors.Is(err, gorm.ErrDuplicatedKey)
}

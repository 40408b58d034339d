package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapOffer is the sole persistent entity of the swap engine: one row per
// swap identifier, mutated only through status-guarded updates.
//
// The secret column holds the initiator's pre-image and must never leave the
// process through a read surface before the initiator claim reveals it.
type SwapOffer struct {
	ID               uint            `gorm:"primaryKey;autoIncrement"`
	SwapID           string          `gorm:"uniqueIndex;not null"`
	Status           SwapStatus      `gorm:"type:swap_status;not null"`
	InitiatorAsset   Asset           `gorm:"type:asset;not null"`
	AcceptorAsset    Asset           `gorm:"type:asset;not null"`
	InitiatorAmount  decimal.Decimal `gorm:"type:numeric(30,8);not null"`
	AcceptorAmount   decimal.Decimal `gorm:"type:numeric(30,8);not null"`
	InitiatorAddress string          `gorm:"not null"`
	AcceptorAddress  string
	Hashlock         string `gorm:"not null"`
	Secret           string `gorm:"not null"`
	// Absolute expiry instants, unix seconds. The acceptor's lock always
	// expires strictly before the initiator's.
	InitiatorTimelock int64 `gorm:"not null"`
	AcceptorTimelock  int64 `gorm:"not null"`
	InitiatorTxID     string
	AcceptorTxID      string
	// Refund transaction references, populated when the corresponding leg
	// is unwound after expiry.
	InitiatorRefundTxID string
	AcceptorRefundTxID  string
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
	AcceptedAt          *time.Time
	CompletedAt         *time.Time
}

func (SwapOffer) TableName() string {
	return "swap_offers"
}

package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/depixswap/swapd/database/models"
)

// SwapOfferResponse is the wire representation of an offer. It deliberately
// has no secret field: the pre-image only ever leaves the engine through the
// initiator-claim response.
type SwapOfferResponse struct {
	SwapID              string          `json:"swap_id"`
	Status              string          `json:"status"`
	InitiatorAsset      string          `json:"initiator_asset"`
	AcceptorAsset       string          `json:"acceptor_asset"`
	InitiatorAmount     decimal.Decimal `json:"initiator_amount"`
	AcceptorAmount      decimal.Decimal `json:"acceptor_amount"`
	InitiatorAddress    string          `json:"initiator_address"`
	AcceptorAddress     string          `json:"acceptor_address,omitempty"`
	Hashlock            string          `json:"hashlock"`
	InitiatorTimelock   int64           `json:"initiator_timelock"`
	AcceptorTimelock    int64           `json:"acceptor_timelock"`
	InitiatorTxID       string          `json:"initiator_txid,omitempty"`
	AcceptorTxID        string          `json:"acceptor_txid,omitempty"`
	InitiatorRefundTxID string          `json:"initiator_refund_txid,omitempty"`
	AcceptorRefundTxID  string          `json:"acceptor_refund_txid,omitempty"`
	CreatedAt           int64           `json:"created_at"`
	AcceptedAt          *int64          `json:"accepted_at,omitempty"`
	CompletedAt         *int64          `json:"completed_at,omitempty"`
}

// ClaimInitiatorResponse is the single read path that carries the secret:
// the initiator just revealed it on-chain, so returning it here leaks
// nothing that is not already public.
type ClaimInitiatorResponse struct {
	SwapOfferResponse
	Secret string `json:"secret"`
}

type CreateOfferRequest struct {
	InitiatorAsset   string          `json:"initiator_asset"`
	AcceptorAsset    string          `json:"acceptor_asset"`
	InitiatorAmount  decimal.Decimal `json:"initiator_amount"`
	AcceptorAmount   decimal.Decimal `json:"acceptor_amount"`
	InitiatorAddress string          `json:"initiator_address"`
}

type AcceptOfferRequest struct {
	AcceptorAddress string `json:"acceptor_address"`
}

type RefundRequest struct {
	Role string `json:"role"`
}

type BalancesResponse struct {
	Balances map[string]decimal.Decimal `json:"balances"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toOfferResponse(offer *models.SwapOffer) SwapOfferResponse {
	return SwapOfferResponse{
		SwapID:              offer.SwapID,
		Status:              offer.Status.String(),
		InitiatorAsset:      offer.InitiatorAsset.String(),
		AcceptorAsset:       offer.AcceptorAsset.String(),
		InitiatorAmount:     offer.InitiatorAmount,
		AcceptorAmount:      offer.AcceptorAmount,
		InitiatorAddress:    offer.InitiatorAddress,
		AcceptorAddress:     offer.AcceptorAddress,
		Hashlock:            offer.Hashlock,
		InitiatorTimelock:   offer.InitiatorTimelock,
		AcceptorTimelock:    offer.AcceptorTimelock,
		InitiatorTxID:       offer.InitiatorTxID,
		AcceptorTxID:        offer.AcceptorTxID,
		InitiatorRefundTxID: offer.InitiatorRefundTxID,
		AcceptorRefundTxID:  offer.AcceptorRefundTxID,
		CreatedAt:           offer.CreatedAt.Unix(),
		AcceptedAt:          toUnix(offer.AcceptedAt),
		CompletedAt:         toUnix(offer.CompletedAt),
	}
}

func toOfferResponses(offers []*models.SwapOffer) []SwapOfferResponse {
	responses := make([]SwapOfferResponse, 0, len(offers))
	for _, offer := range offers {
		responses = append(responses, toOfferResponse(offer))
	}

	return responses
}

func toUnix(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	unix := t.Unix()

	return &unix
}

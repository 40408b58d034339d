package daemon

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/depixswap/swapd/database/models"
	"github.com/depixswap/swapd/swap"
)

// RefundMonitor periodically unwinds locks whose timelock has expired. It
// goes through the coordinator rather than the store so every refund
// competes for the same per-identifier lock and status guard as
// request-driven calls; a legitimate late claim that wins the race simply
// makes the refund fail its precondition.
type RefundMonitor struct {
	coordinator *swap.Coordinator
}

func NewRefundMonitor(coordinator *swap.Coordinator) *RefundMonitor {
	return &RefundMonitor{coordinator: coordinator}
}

// Scan walks the in-flight offers and attempts a refund for every party with
// an outstanding lock. Failures are logged and retried on the next tick.
func (m *RefundMonitor) Scan(ctx context.Context) {
	// REFUNDED offers are scanned too: after one leg is unwound the other
	// may still be outstanding with a later expiry.
	statuses := append(models.ActiveStatuses(), models.StatusRefunded)
	offers, err := m.coordinator.ListOffers(ctx, statuses...)
	if err != nil {
		log.Errorf("failed to list active offers: %v", err)

		return
	}

	for _, offer := range offers {
		if offer.Status == models.StatusAccepted {
			// Nothing locked yet.
			continue
		}
		if offer.Status == models.StatusRefunded && !hasOutstandingLock(offer) {
			continue
		}
		for _, role := range []swap.Role{swap.RoleInitiator, swap.RoleAcceptor} {
			m.tryRefund(ctx, offer.SwapID, role)
		}
	}
}

func hasOutstandingLock(offer *models.SwapOffer) bool {
	initiatorOutstanding := offer.InitiatorTxID != "" && offer.InitiatorRefundTxID == ""
	acceptorOutstanding := offer.AcceptorTxID != "" && offer.AcceptorRefundTxID == ""

	return initiatorOutstanding || acceptorOutstanding
}

func (m *RefundMonitor) tryRefund(ctx context.Context, swapID string, role swap.Role) {
	logger := log.WithField("id", swapID)

	_, err := m.coordinator.Refund(ctx, swapID, role)
	switch {
	case err == nil:
		logger.Infof("auto-refunded expired %s lock", role)
	case errors.Is(err, swap.ErrTimelockNotExpired):
		// Not eligible yet.
	case errors.Is(err, swap.ErrInvalidState):
		// Nothing outstanding for this role, or a concurrent claim won.
	default:
		logger.Errorf("failed to refund %s lock: %v", role, err)
	}
}

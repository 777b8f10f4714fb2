package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

var errCancelledWithPendingRelease = &domain.SettlementError{
	Transient: false,
	Err:       errors.New("order cancelled while the release outcome was unknown"),
}

// ReconcilePendingReleases re-issues releases whose PENDING marker is older
// than olderThan, i.e. whose outcome was never written back. The backend is
// idempotent per tranche label, so re-issuing cannot move funds twice. It
// returns how many markers were confirmed. Markers of cancelled orders are
// closed as FAILED without calling the backend.
func (uc *DefaultEscrowUsecase) ReconcilePendingReleases(ctx context.Context, olderThan time.Duration) (confirmed int, err error) {
	ctx, span := uc.startSpan(ctx, "escrow.ReconcilePendingReleases", "")
	defer func() { endSpan(span, err) }()

	pending, err := uc.Store.FindPendingReleases(ctx, uc.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("find pending releases: %w", err)
	}

	var errs []error
	for _, rel := range pending {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		order, err := uc.Store.GetOrder(ctx, rel.OrderID)
		if err != nil {
			errs = append(errs, fmt.Errorf("load order %s: %w", rel.OrderID, err))
			continue
		}

		if order.Status == domain.StatusCancelled {
			// A cancelled order gets no new settlement call. The marker is
			// closed as FAILED and left for ledger review.
			_, err := uc.completeRelease(ctx, order.ID, rel.Tranche, "", errCancelledWithPendingRelease)
			if kind, ok := domain.KindOf(err); err != nil && (!ok || kind != domain.KindReleaseFailed) {
				errs = append(errs, err)
				continue
			}
			slog.WarnContext(ctx, "pending release closed on cancelled order, outcome unknown",
				"order_id", order.ID, "tranche", rel.Tranche, "amount", rel.Amount.StringFixed(2))
			continue
		}

		ref, callErr := uc.callSettlement(ctx, order, rel)
		res, err := uc.completeRelease(ctx, order.ID, rel.Tranche, ref, callErr)
		if err != nil {
			if kind, ok := domain.KindOf(err); ok && kind == domain.KindReleaseFailed {
				slog.WarnContext(ctx, "pending release still failing",
					"order_id", order.ID, "tranche", rel.Tranche, "attempts", rel.Attempts, "error", err)
				continue
			}
			errs = append(errs, err)
			continue
		}
		if res.SettlementRef != "" {
			confirmed++
		}
	}

	if len(pending) > 0 {
		slog.InfoContext(ctx, "pending releases reconciled", "found", len(pending), "confirmed", confirmed)
	}
	return confirmed, errors.Join(errs...)
}

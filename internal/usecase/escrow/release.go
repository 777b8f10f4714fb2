package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
)

// ReleaseOnMilestone releases the tranche gated by a milestone.
//
// The release runs in three steps. A PENDING marker is committed under the
// order lock, the settlement backend is called with no lock held, and the
// outcome is written back under the lock. A crash between the steps leaves a
// PENDING row that ReconcilePendingReleases picks up.
func (uc *DefaultEscrowUsecase) ReleaseOnMilestone(ctx context.Context, input *escrowdto.ReleaseOnMilestoneInput) (out *escrowdto.ReleaseResult, err error) {
	ctx, span := uc.startSpan(ctx, "escrow.ReleaseOnMilestone", input.OrderID)
	defer func() { endSpan(span, err) }()

	milestone, err := domain.ParseMilestone(input.Milestone)
	if err != nil {
		return nil, domain.InvalidInput(input.OrderID, err.Error())
	}
	tranche := milestone.Tranche()

	var (
		replay      *escrowdto.ReleaseResult
		snapshot    *domain.Order
		pending     *domain.Release
		transitions []transition
		notes       []domain.Notification
	)

	err = uc.withOrder(ctx, input.OrderID, func(tx domain.OrderTx) error {
		order := tx.Order()
		if order.Status == domain.StatusDisputed {
			return domain.OrderFrozen(order.ID)
		}

		if ref := order.TrancheReference(tranche); ref != "" {
			releases, err := tx.Releases()
			if err != nil {
				return err
			}
			replay = &escrowdto.ReleaseResult{
				OrderID:         order.ID,
				Milestone:       milestone,
				Tranche:         tranche,
				SettlementRef:   ref,
				Status:          order.Status,
				AlreadyReleased: true,
			}
			if rel := domain.FindRelease(releases, tranche); rel != nil {
				replay.Amount = rel.Amount
			}
			// A delivery signal retried after a crash between the reference
			// write and the status write still completes the order.
			if milestone == domain.MilestoneDeliveryConfirmed && order.Status == domain.StatusInTransit {
				next, err := uc.applyTransition(tx, domain.EventDeliveryConfirmed, domain.GuardInputs{})
				if err != nil {
					return err
				}
				replay.Status = next
				transitions = append(transitions, transition{order.ID, order.Status, next})
				if n, ok := statusNote(order.ID, next, map[string]string{"milestone": string(milestone)}); ok {
					notes = append(notes, n)
				}
			}
			return nil
		}

		if !releasable(milestone, order.Status) {
			return domain.ReleaseFailed(order.ID, tranche, false,
				"order is not in a releasable state for "+string(milestone), nil)
		}

		releases, err := tx.Releases()
		if err != nil {
			return err
		}
		existing := domain.FindRelease(releases, tranche)
		if existing != nil && existing.State == domain.ReleasePending {
			return domain.ReleaseFailed(order.ID, tranche, true, "release already in flight", nil)
		}

		first := domain.FindRelease(releases, domain.TrancheFirst)
		if tranche == domain.TrancheSecond && (first == nil || first.State != domain.ReleaseConfirmed) {
			return domain.ReleaseFailed(order.ID, tranche, false, "first tranche has not been released", nil)
		}

		if required := uc.requiredDocuments[milestone]; len(required) > 0 {
			docs, err := tx.Documents()
			if err != nil {
				return err
			}
			if missing := domain.MissingValidatedDocuments(docs, required); len(missing) > 0 {
				return domain.ReleaseFailed(order.ID, tranche, false,
					"documents not validated: "+strings.Join(missing, ","), nil)
			}
		}

		now := uc.now().UTC()
		rel := existing
		if rel == nil {
			rel = &domain.Release{
				ID:        uc.newID(),
				OrderID:   order.ID,
				Tranche:   tranche,
				CreatedAt: now,
			}
		}
		rel.Amount = domain.TrancheAmount(order.Total, tranche, first)
		rel.State = domain.ReleasePending
		rel.LastError = ""
		rel.Attempts++
		rel.UpdatedAt = now
		if err := tx.SaveRelease(rel); err != nil {
			return err
		}

		snapshot = order
		pending = rel
		return nil
	})
	if err != nil {
		if kind, ok := domain.KindOf(err); ok && kind == domain.KindReleaseFailed {
			uc.Metrics.RecordReleaseFailure(string(tranche), domain.IsRetryable(err))
		}
		return nil, err
	}

	if replay != nil {
		uc.Metrics.RecordReleaseReplay(string(tranche))
		uc.afterCommit(ctx, transitions, notes)
		slog.InfoContext(ctx, "milestone replay ignored", "order_id", replay.OrderID, "milestone", milestone)
		return replay, nil
	}

	ref, callErr := uc.callSettlement(ctx, snapshot, pending)
	return uc.completeRelease(context.WithoutCancel(ctx), snapshot.ID, tranche, ref, callErr)
}

func releasable(m domain.Milestone, status domain.OrderStatus) bool {
	switch m {
	case domain.MilestoneShipmentConfirmed:
		return status == domain.StatusInTransit
	case domain.MilestoneDeliveryConfirmed:
		return status == domain.StatusInTransit || status == domain.StatusDelivered
	default:
		return false
	}
}

func milestoneOf(t domain.Tranche) domain.Milestone {
	if t == domain.TrancheSecond {
		return domain.MilestoneDeliveryConfirmed
	}
	return domain.MilestoneShipmentConfirmed
}

// callSettlement invokes the backend with the configured timeout. No order
// lock is held here.
func (uc *DefaultEscrowUsecase) callSettlement(ctx context.Context, order *domain.Order, rel *domain.Release) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.settlementTimeout)
	defer cancel()

	started := time.Now()
	ref, err := uc.Settlement.Release(callCtx, domain.SettlementRequest{
		OrderRef:          order.ID,
		SettlementAddress: order.SettlementAddress,
		Amount:            rel.Amount,
		Currency:          order.Currency,
		TrancheLabel:      string(rel.Tranche),
	})
	if err == nil && strings.TrimSpace(ref) == "" {
		err = &domain.SettlementError{Transient: false, Err: errors.New("empty settlement reference")}
	}
	uc.Metrics.ObserveSettlementCall(string(rel.Tranche), err == nil, time.Since(started))
	if err != nil {
		slog.ErrorContext(ctx, "settlement call failed",
			"order_id", order.ID, "tranche", rel.Tranche, "amount", rel.Amount.StringFixed(2), "error", err)
	}
	return strings.TrimSpace(ref), err
}

// completeRelease writes the settlement outcome back to the PENDING marker.
// A successful call records the tranche reference and, for the second
// tranche, moves an IN_TRANSIT order to DELIVERED.
func (uc *DefaultEscrowUsecase) completeRelease(ctx context.Context, orderID string, tranche domain.Tranche, ref string, callErr error) (*escrowdto.ReleaseResult, error) {
	milestone := milestoneOf(tranche)
	var (
		result      *escrowdto.ReleaseResult
		confirmed   *domain.Release
		settled     bool
		currency    string
		transitions []transition
		notes       []domain.Notification
	)

	err := uc.withOrder(ctx, orderID, func(tx domain.OrderTx) error {
		order := tx.Order()
		releases, err := tx.Releases()
		if err != nil {
			return err
		}
		rel := domain.FindRelease(releases, tranche)
		if rel == nil {
			return domain.ReleaseFailed(orderID, tranche, false, "release marker disappeared", callErr)
		}
		result = &escrowdto.ReleaseResult{
			OrderID:   order.ID,
			Milestone: milestone,
			Tranche:   tranche,
			Amount:    rel.Amount,
			Status:    order.Status,
		}
		if rel.State != domain.ReleasePending {
			// Another worker already settled this marker.
			result.SettlementRef = rel.SettlementRef
			result.AlreadyReleased = rel.State == domain.ReleaseConfirmed
			settled = true
			return nil
		}

		now := uc.now().UTC()
		rel.UpdatedAt = now
		if callErr != nil {
			rel.State = domain.ReleaseFailedState
			rel.LastError = callErr.Error()
			return tx.SaveRelease(rel)
		}

		rel.State = domain.ReleaseConfirmed
		rel.SettlementRef = ref
		if err := tx.SaveRelease(rel); err != nil {
			return err
		}
		if err := tx.SetTrancheReference(tranche, ref); err != nil {
			return err
		}
		// A tranche that was in flight when the dispute was raised has
		// moved; the open dispute covers only what is left.
		dispute, err := tx.OpenDispute()
		if err != nil {
			return err
		}
		if dispute != nil {
			dispute.Resettle(order.Total, releases)
			dispute.UpdatedAt = now
			if err := tx.SaveDispute(dispute); err != nil {
				return err
			}
		}
		result.SettlementRef = ref
		confirmed = rel
		currency = order.Currency
		notes = append(notes, domain.Notification{
			OrderID: order.ID,
			Type:    domain.NotifyReleaseConfirmed,
			Payload: map[string]string{
				"tranche":        string(tranche),
				"amount":         rel.Amount.StringFixed(2),
				"currency":       order.Currency,
				"settlement_ref": ref,
			},
		})

		if tranche == domain.TrancheSecond && order.Status == domain.StatusInTransit {
			next, err := uc.applyTransition(tx, domain.EventDeliveryConfirmed, domain.GuardInputs{})
			if err != nil {
				return err
			}
			result.Status = next
			transitions = append(transitions, transition{order.ID, order.Status, next})
			if n, ok := statusNote(order.ID, next, map[string]string{"milestone": string(milestone)}); ok {
				notes = append(notes, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if callErr != nil && !settled {
		retryable := domain.IsTransientSettlementError(callErr)
		uc.Metrics.RecordReleaseFailure(string(tranche), retryable)
		return nil, domain.ReleaseFailed(orderID, tranche, retryable, "settlement backend failed", callErr)
	}
	if confirmed != nil {
		uc.Metrics.RecordRelease(string(tranche), currency, confirmed.Amount.InexactFloat64())
		slog.InfoContext(ctx, "tranche released",
			"order_id", orderID, "tranche", tranche, "amount", confirmed.Amount.StringFixed(2), "settlement_ref", ref)
	}
	uc.afterCommit(ctx, transitions, notes)
	return result, nil
}

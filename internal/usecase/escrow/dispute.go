package usecase

import (
	"context"
	"strings"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
)

// RaiseDispute freezes the order. Releases already confirmed stay settled and
// only the remainder of the total is subject to resolution.
func (uc *DefaultEscrowUsecase) RaiseDispute(ctx context.Context, input *escrowdto.RaiseDisputeInput) (out *domain.Dispute, err error) {
	ctx, span := uc.startSpan(ctx, "escrow.RaiseDispute", input.OrderID)
	defer func() { endSpan(span, err) }()

	raisedBy := strings.TrimSpace(input.RaisedBy)
	reason := strings.TrimSpace(input.Reason)
	if raisedBy == "" || reason == "" {
		return nil, domain.InvalidInput(input.OrderID, "raised_by and reason are required")
	}

	var (
		dispute     *domain.Dispute
		transitions []transition
	)
	err = uc.withOrder(ctx, input.OrderID, func(tx domain.OrderTx) error {
		order := tx.Order()
		next, err := uc.applyTransition(tx, domain.EventDisputeRaised, domain.GuardInputs{})
		if err != nil {
			return err
		}
		releases, err := tx.Releases()
		if err != nil {
			return err
		}
		now := uc.now().UTC()
		dispute = &domain.Dispute{
			ID:           uc.newID(),
			OrderID:      order.ID,
			RaisedBy:     raisedBy,
			Reason:       reason,
			Status:       domain.DisputeOpen,
			StatusBefore: order.Status,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		dispute.Resettle(order.Total, releases)
		if err := tx.SaveDispute(dispute); err != nil {
			return err
		}
		transitions = append(transitions, transition{order.ID, order.Status, next})
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.Metrics.RecordDispute("raised")
	uc.afterCommit(ctx, transitions, []domain.Notification{{
		OrderID: dispute.OrderID,
		Type:    domain.NotifyDisputeRaised,
		Payload: map[string]string{
			"dispute_id":      dispute.ID,
			"raised_by":       dispute.RaisedBy,
			"reason":          dispute.Reason,
			"settled_amount":  dispute.SettledAmount.StringFixed(2),
			"disputed_amount": dispute.DisputedAmount.StringFixed(2),
		},
	}})
	return dispute, nil
}

// ResolveDispute applies the arbitrator's decision. Cancellation after a
// partial release never reverses the confirmed tranche; it only stops further
// releases.
func (uc *DefaultEscrowUsecase) ResolveDispute(ctx context.Context, input *escrowdto.ResolveDisputeInput) (out *escrowdto.OrderStateOutput, err error) {
	ctx, span := uc.startSpan(ctx, "escrow.ResolveDispute", input.OrderID)
	defer func() { endSpan(span, err) }()

	outcome, err := domain.ParseDisputeOutcome(input.Resolution)
	if err != nil {
		return nil, domain.InvalidInput(input.OrderID, err.Error())
	}
	event := domain.EventResolvedFavorCompletion
	if outcome == domain.OutcomeFavorCancellation {
		event = domain.EventResolvedFavorCancellation
	}
	arbitrator := strings.TrimSpace(input.ArbitratorID)

	var (
		transitions []transition
		notes       []domain.Notification
	)
	err = uc.withOrder(ctx, input.OrderID, func(tx domain.OrderTx) error {
		order := tx.Order()
		next, err := uc.applyTransition(tx, event, domain.GuardInputs{ArbitratorID: arbitrator})
		if err != nil {
			return err
		}

		payload := map[string]string{"outcome": string(outcome), "status": string(next)}
		dispute, err := tx.OpenDispute()
		if err != nil {
			return err
		}
		if dispute != nil {
			now := uc.now().UTC()
			dispute.Status = domain.DisputeResolved
			dispute.Outcome = outcome
			dispute.ArbitratorID = arbitrator
			dispute.ResolutionNote = input.Note
			dispute.UpdatedAt = now
			dispute.ResolvedAt = &now
			if err := tx.SaveDispute(dispute); err != nil {
				return err
			}
			payload["dispute_id"] = dispute.ID
			payload["settled_amount"] = dispute.SettledAmount.StringFixed(2)
			payload["disputed_amount"] = dispute.DisputedAmount.StringFixed(2)
		}

		transitions = append(transitions, transition{order.ID, order.Status, next})
		notes = append(notes, domain.Notification{OrderID: order.ID, Type: domain.NotifyDisputeResolved, Payload: payload})
		if n, ok := statusNote(order.ID, next, map[string]string{"trigger": string(event)}); ok {
			notes = append(notes, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.Metrics.RecordDispute(string(outcome))
	uc.afterCommit(ctx, transitions, notes)
	return uc.GetOrderState(ctx, input.OrderID)
}

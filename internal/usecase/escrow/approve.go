package usecase

import (
	"context"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
)

// RecordApproval stores a bank's vote and, in the same locked scope, evaluates
// whether the order advances. Because the vote write and the dual-approval
// check share the order lock, two near-simultaneous approvals cannot both
// see themselves as the second vote.
func (uc *DefaultEscrowUsecase) RecordApproval(ctx context.Context, input *escrowdto.RecordApprovalInput) (out *escrowdto.ApprovalResult, err error) {
	ctx, span := uc.startSpan(ctx, "escrow.RecordApproval", input.OrderID)
	defer func() { endSpan(span, err) }()

	action, err := domain.ParseApprovalAction(input.Action)
	if err != nil {
		return nil, domain.InvalidInput(input.OrderID, err.Error())
	}

	var (
		result      escrowdto.ApprovalResult
		role        domain.BankRole
		transitions []transition
		notes       []domain.Notification
	)

	err = uc.withOrder(ctx, input.OrderID, func(tx domain.OrderTx) error {
		order := tx.Order()
		var ok bool
		role, ok = order.BankRole(input.BankID)
		if !ok {
			return domain.UnauthorizedBank(order.ID, input.BankID)
		}
		if order.Status != domain.StatusBankReview {
			event := domain.EventBothBanksApproved
			if action == domain.ActionReject {
				event = domain.EventBankRejected
			}
			return domain.IllegalTransition(order.ID, order.Status, event, "bank votes are accepted only during bank review")
		}

		approvals, err := tx.Approvals()
		if err != nil {
			return err
		}
		now := uc.now().UTC()

		// Latest vote wins: earlier active votes of this bank are superseded.
		for _, a := range approvals {
			if a.BankID == input.BankID && a.State == domain.ApprovalActive {
				a.State = domain.ApprovalSuperseded
				a.UpdatedAt = now
				if err := tx.SaveApproval(a); err != nil {
					return err
				}
			}
		}
		vote := &domain.BankApproval{
			ID:        uc.newID(),
			OrderID:   order.ID,
			BankID:    input.BankID,
			Role:      role,
			Action:    action,
			Comment:   input.Comment,
			State:     domain.ApprovalActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.SaveApproval(vote); err != nil {
			return err
		}
		approvals = append(approvals, vote)

		votes := domain.LatestVotes(approvals)
		result = escrowdto.ApprovalResult{
			OrderID:            order.ID,
			ApprovalID:         vote.ID,
			Status:             order.Status,
			BuyerBankApproved:  votes.Approved(domain.BankRoleBuyer),
			SellerBankApproved: votes.Approved(domain.BankRoleSeller),
		}
		notes = append(notes, domain.Notification{
			OrderID: order.ID,
			Type:    domain.NotifyApprovalRecorded,
			Payload: map[string]string{
				"bank_id": input.BankID,
				"role":    string(role),
				"action":  string(action),
			},
		})

		var event domain.Event
		switch {
		case votes.AnyRejected():
			event = domain.EventBankRejected
		case votes.BothApproved():
			event = domain.EventBothBanksApproved
		default:
			return nil
		}

		next, err := uc.applyTransition(tx, event, domain.GuardInputs{Votes: votes})
		if err != nil {
			return err
		}
		if event == domain.EventBankRejected {
			// The other bank's vote no longer matters.
			for _, a := range approvals {
				if a.State == domain.ApprovalActive && a.BankID != input.BankID {
					a.State = domain.ApprovalMoot
					a.UpdatedAt = now
					if err := tx.SaveApproval(a); err != nil {
						return err
					}
				}
			}
		}

		result.Status = next
		result.Transitioned = true
		transitions = append(transitions, transition{order.ID, order.Status, next})
		if n, ok := statusNote(order.ID, next, map[string]string{"trigger": string(event)}); ok {
			notes = append(notes, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.Metrics.RecordApproval(string(role), string(action))
	uc.afterCommit(ctx, transitions, notes)
	span.AddEvent("approval recorded")
	return &result, nil
}

package usecase

import (
	"context"
	"strings"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
)

// ConfirmPayment moves an order from AWAITING_PAYMENT to BANK_REVIEW. A
// repeated confirmation carrying the already stored reference is a no-op.
func (uc *DefaultEscrowUsecase) ConfirmPayment(ctx context.Context, input *escrowdto.ConfirmPaymentInput) (out *escrowdto.OrderStateOutput, err error) {
	ctx, span := uc.startSpan(ctx, "escrow.ConfirmPayment", input.OrderID)
	defer func() { endSpan(span, err) }()

	ref := strings.TrimSpace(input.PaymentReference)
	var transitions []transition
	var notes []domain.Notification

	err = uc.withOrder(ctx, input.OrderID, func(tx domain.OrderTx) error {
		order := tx.Order()
		if ref != "" && order.PaymentReference == ref && order.Status != domain.StatusAwaitingPayment {
			return nil
		}
		next, err := uc.applyTransition(tx, domain.EventPaymentConfirmed, domain.GuardInputs{PaymentReference: ref})
		if err != nil {
			return err
		}
		if err := tx.SetPaymentReference(ref); err != nil {
			return err
		}
		transitions = append(transitions, transition{order.ID, order.Status, next})
		if n, ok := statusNote(order.ID, next, map[string]string{"payment_reference": ref}); ok {
			notes = append(notes, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.afterCommit(ctx, transitions, notes)
	return uc.GetOrderState(ctx, input.OrderID)
}

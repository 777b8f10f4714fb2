package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
)

// GetOrderState is a read-only projection. It takes no order lock.
func (uc *DefaultEscrowUsecase) GetOrderState(ctx context.Context, orderID string) (*escrowdto.OrderStateOutput, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, domain.InvalidInput("", "order id is required")
	}
	order, err := uc.Store.GetOrder(ctx, orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, domain.UnknownOrder(orderID)
	}
	if err != nil {
		return nil, err
	}
	approvals, err := uc.Store.ListApprovals(ctx, orderID)
	if err != nil {
		return nil, err
	}
	releases, err := uc.Store.ListReleases(ctx, orderID)
	if err != nil {
		return nil, err
	}
	documents, err := uc.Store.ListDocuments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dispute, err := uc.Store.GetOpenDispute(ctx, orderID)
	if err != nil {
		return nil, err
	}

	votes := domain.LatestVotes(approvals)
	released := domain.ReleasedAmount(releases)
	out := &escrowdto.OrderStateOutput{
		OrderID:            order.ID,
		Code:               order.Code,
		Status:             order.Status,
		Total:              order.Total,
		Currency:           order.Currency,
		BuyerBankApproved:  votes.Approved(domain.BankRoleBuyer),
		SellerBankApproved: votes.Approved(domain.BankRoleSeller),
		Votes:              votes,
		PaymentReference:   order.PaymentReference,
		FirstTrancheRef:    order.FirstTrancheRef,
		SecondTrancheRef:   order.SecondTrancheRef,
		ReleasedAmount:     released,
		Frozen:             order.Status == domain.StatusDisputed,
		PartiallySettled:   released.IsPositive() && released.LessThan(order.Total),
		OpenDispute:        dispute,
		Documents:          documents,
	}
	if dispute != nil && dispute.PartiallySettled() {
		out.PartiallySettled = true
	}
	for _, r := range releases {
		out.Releases = append(out.Releases, escrowdto.ReleaseView{
			Tranche:       r.Tranche,
			State:         r.State,
			Amount:        r.Amount,
			SettlementRef: r.SettlementRef,
			Attempts:      r.Attempts,
			LastError:     r.LastError,
		})
	}
	return out, nil
}

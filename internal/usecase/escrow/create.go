package usecase

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
)

// CreateOrder is the checkout flow's entry point. The order starts in
// AWAITING_PAYMENT with no approvals.
func (uc *DefaultEscrowUsecase) CreateOrder(ctx context.Context, input *escrowdto.CreateOrderInput) (order *domain.Order, err error) {
	ctx, span := uc.startSpan(ctx, "escrow.CreateOrder", "")
	defer func() { endSpan(span, err) }()

	params := domain.NewOrderParams{
		ID:                  uc.newID(),
		Code:                uc.newCode(),
		BuyerID:             input.BuyerID,
		BuyerBankID:         input.BuyerBankID,
		SellerBankID:        input.SellerBankID,
		Currency:            input.Currency,
		Shipping:            input.Shipping,
		SettlementAddress:   input.SettlementAddress,
		ShipmentTrackingRef: input.ShipmentTrackingRef,
	}
	for _, it := range input.Items {
		params.Items = append(params.Items, domain.NewOrderItem{
			ID:        uc.newID(),
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	order, err = domain.NewOrder(params, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.Store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order created", "order_id", order.ID, "code", order.Code, "total", order.Total.StringFixed(2))
	return order, nil
}

// CorrectTotals adjusts subtotal and shipping while the order still awaits
// payment. The store rejects it in any later status.
func (uc *DefaultEscrowUsecase) CorrectTotals(ctx context.Context, input *escrowdto.CorrectTotalsInput) (err error) {
	ctx, span := uc.startSpan(ctx, "escrow.CorrectTotals", input.OrderID)
	defer func() { endSpan(span, err) }()

	if input.Subtotal.IsNegative() || input.Shipping.IsNegative() {
		return domain.InvalidInput(input.OrderID, "subtotal and shipping must not be negative")
	}
	if !domain.IsWholeCents(input.Subtotal) || !domain.IsWholeCents(input.Shipping) {
		return domain.InvalidInput(input.OrderID, "subtotal and shipping must be in whole cents")
	}
	return uc.withOrder(ctx, input.OrderID, func(tx domain.OrderTx) error {
		return tx.SetTotals(input.Subtotal, input.Shipping)
	})
}

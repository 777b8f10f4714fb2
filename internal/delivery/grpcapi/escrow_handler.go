package grpcapi

import (
	"context"

	"github.com/LavaJover/shvark-escrow-service/internal/delivery/grpcapi/mappers"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
	usecase "github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type EscrowHandler struct {
	uc usecase.EscrowUsecase
}

func NewEscrowHandler(uc usecase.EscrowUsecase) *EscrowHandler {
	return &EscrowHandler{
		uc: uc,
	}
}

func reply(out map[string]interface{}, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, ToGRPCStatus(err)
	}
	resp, err := structpb.NewStruct(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}

func (h *EscrowHandler) CreateOrder(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	input, err := mappers.ToCreateOrderInput(r)
	if err != nil {
		return nil, ToGRPCStatus(domain.InvalidInput("", err.Error()))
	}
	order, err := h.uc.CreateOrder(ctx, input)
	if err != nil {
		return reply(nil, err)
	}
	return reply(mappers.FromOrder(order), nil)
}

func (h *EscrowHandler) ConfirmPayment(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	state, err := h.uc.ConfirmPayment(ctx, &escrowdto.ConfirmPaymentInput{
		OrderID:          mappers.String(r, "order_id"),
		PaymentReference: mappers.String(r, "payment_reference"),
	})
	if err != nil {
		return reply(nil, err)
	}
	return reply(mappers.FromOrderState(state), nil)
}

func (h *EscrowHandler) CorrectTotals(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	input, err := mappers.ToCorrectTotalsInput(r)
	if err != nil {
		return nil, ToGRPCStatus(domain.InvalidInput(mappers.String(r, "order_id"), err.Error()))
	}
	if err := h.uc.CorrectTotals(ctx, input); err != nil {
		return reply(nil, err)
	}
	return reply(map[string]interface{}{
		"order_id": input.OrderID,
		"message":  "totals updated",
	}, nil)
}

func (h *EscrowHandler) RecordApproval(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	result, err := h.uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{
		OrderID: mappers.String(r, "order_id"),
		BankID:  mappers.String(r, "bank_id"),
		Action:  mappers.String(r, "action"),
		Comment: mappers.String(r, "comment"),
	})
	if err != nil {
		return reply(nil, err)
	}
	return reply(mappers.FromApprovalResult(result), nil)
}

func (h *EscrowHandler) ReleaseOnMilestone(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	result, err := h.uc.ReleaseOnMilestone(ctx, &escrowdto.ReleaseOnMilestoneInput{
		OrderID:   mappers.String(r, "order_id"),
		Milestone: mappers.String(r, "milestone"),
	})
	if err != nil {
		return reply(nil, err)
	}
	return reply(mappers.FromReleaseResult(result), nil)
}

func (h *EscrowHandler) RaiseDispute(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	dispute, err := h.uc.RaiseDispute(ctx, &escrowdto.RaiseDisputeInput{
		OrderID:  mappers.String(r, "order_id"),
		RaisedBy: mappers.String(r, "raised_by"),
		Reason:   mappers.String(r, "reason"),
	})
	if err != nil {
		return reply(nil, err)
	}
	return reply(mappers.FromDispute(dispute), nil)
}

func (h *EscrowHandler) ResolveDispute(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	state, err := h.uc.ResolveDispute(ctx, &escrowdto.ResolveDisputeInput{
		OrderID:      mappers.String(r, "order_id"),
		Resolution:   mappers.String(r, "resolution"),
		ArbitratorID: mappers.String(r, "arbitrator_id"),
		Note:         mappers.String(r, "note"),
	})
	if err != nil {
		return reply(nil, err)
	}
	return reply(mappers.FromOrderState(state), nil)
}

func (h *EscrowHandler) GetOrderState(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	state, err := h.uc.GetOrderState(ctx, mappers.String(r, "order_id"))
	if err != nil {
		return reply(nil, err)
	}
	return reply(mappers.FromOrderState(state), nil)
}

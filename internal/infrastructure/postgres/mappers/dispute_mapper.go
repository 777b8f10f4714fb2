package mappers

import (
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
)

func ToDomainDispute(model *models.DisputeModel) *domain.Dispute {
	return &domain.Dispute{
		ID:             model.ID,
		OrderID:        model.OrderID,
		RaisedBy:       model.RaisedBy,
		Reason:         model.Reason,
		Status:         domain.DisputeStatus(model.Status),
		StatusBefore:   domain.OrderStatus(model.OrderStatusOriginal),
		SettledAmount:  model.SettledAmount,
		DisputedAmount: model.DisputedAmount,
		Outcome:        domain.DisputeOutcome(model.Outcome),
		ArbitratorID:   model.ArbitratorID,
		ResolutionNote: model.ResolutionNote,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
		ResolvedAt:     model.ResolvedAt,
	}
}

func ToGORMDispute(dispute *domain.Dispute) *models.DisputeModel {
	return &models.DisputeModel{
		ID:                  dispute.ID,
		OrderID:             dispute.OrderID,
		RaisedBy:            dispute.RaisedBy,
		Reason:              dispute.Reason,
		Status:              string(dispute.Status),
		OrderStatusOriginal: string(dispute.StatusBefore),
		SettledAmount:       dispute.SettledAmount,
		DisputedAmount:      dispute.DisputedAmount,
		Outcome:             string(dispute.Outcome),
		ArbitratorID:        dispute.ArbitratorID,
		ResolutionNote:      dispute.ResolutionNote,
		CreatedAt:           dispute.CreatedAt,
		UpdatedAt:           dispute.UpdatedAt,
		ResolvedAt:          dispute.ResolvedAt,
	}
}

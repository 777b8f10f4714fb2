package mappers

import (
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
)

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	order := &domain.Order{
		ID:                  model.ID,
		Code:                model.Code,
		BuyerID:             model.BuyerID,
		BuyerBankID:         model.BuyerBankID,
		SellerBankID:        model.SellerBankID,
		Subtotal:            model.Subtotal,
		Shipping:            model.Shipping,
		Total:               model.Total,
		Currency:            model.Currency,
		Status:              domain.OrderStatus(model.Status),
		PaymentReference:    model.PaymentReference,
		SettlementAddress:   model.SettlementAddress,
		FirstTrancheRef:     model.FirstTrancheRef,
		SecondTrancheRef:    model.SecondTrancheRef,
		ShipmentTrackingRef: model.ShipmentTrackingRef,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
	for _, it := range model.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:        it.ID,
			Position:  it.Position,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return order
}

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	model := &models.OrderModel{
		ID:                  order.ID,
		Code:                order.Code,
		BuyerID:             order.BuyerID,
		BuyerBankID:         order.BuyerBankID,
		SellerBankID:        order.SellerBankID,
		Subtotal:            order.Subtotal,
		Shipping:            order.Shipping,
		Total:               order.Total,
		Currency:            order.Currency,
		Status:              string(order.Status),
		PaymentReference:    order.PaymentReference,
		SettlementAddress:   order.SettlementAddress,
		FirstTrancheRef:     order.FirstTrancheRef,
		SecondTrancheRef:    order.SecondTrancheRef,
		ShipmentTrackingRef: order.ShipmentTrackingRef,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	for _, it := range order.Items {
		model.Items = append(model.Items, models.OrderItemModel{
			ID:        it.ID,
			OrderID:   order.ID,
			Position:  it.Position,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return model
}

func ToDomainApproval(model *models.BankApprovalModel) *domain.BankApproval {
	return &domain.BankApproval{
		ID:        model.ID,
		OrderID:   model.OrderID,
		BankID:    model.BankID,
		Role:      domain.BankRole(model.Role),
		Action:    domain.ApprovalAction(model.Action),
		Comment:   model.Comment,
		State:     domain.ApprovalState(model.State),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func ToGORMApproval(approval *domain.BankApproval) *models.BankApprovalModel {
	return &models.BankApprovalModel{
		ID:        approval.ID,
		OrderID:   approval.OrderID,
		BankID:    approval.BankID,
		Role:      string(approval.Role),
		Action:    string(approval.Action),
		Comment:   approval.Comment,
		State:     string(approval.State),
		CreatedAt: approval.CreatedAt,
		UpdatedAt: approval.UpdatedAt,
	}
}

func ToDomainDocument(model *models.DocumentModel) *domain.Document {
	return &domain.Document{
		ID:         model.ID,
		OrderID:    model.OrderID,
		UploadedBy: model.UploadedBy,
		ContentID:  model.ContentID,
		Type:       model.Type,
		Status:     domain.DocumentStatus(model.Status),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func ToGORMDocument(doc *domain.Document) *models.DocumentModel {
	return &models.DocumentModel{
		ID:         doc.ID,
		OrderID:    doc.OrderID,
		UploadedBy: doc.UploadedBy,
		ContentID:  doc.ContentID,
		Type:       doc.Type,
		Status:     string(doc.Status),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func ToDomainRelease(model *models.ReleaseModel) *domain.Release {
	return &domain.Release{
		ID:            model.ID,
		OrderID:       model.OrderID,
		Tranche:       domain.Tranche(model.Tranche),
		Amount:        model.Amount,
		State:         domain.ReleaseState(model.State),
		SettlementRef: model.SettlementRef,
		Attempts:      model.Attempts,
		LastError:     model.LastError,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func ToGORMRelease(release *domain.Release) *models.ReleaseModel {
	return &models.ReleaseModel{
		ID:            release.ID,
		OrderID:       release.OrderID,
		Tranche:       string(release.Tranche),
		Amount:        release.Amount,
		State:         string(release.State),
		SettlementRef: release.SettlementRef,
		Attempts:      release.Attempts,
		LastError:     release.LastError,
		CreatedAt:     release.CreatedAt,
		UpdatedAt:     release.UpdatedAt,
	}
}

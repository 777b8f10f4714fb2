package mappers

import (
	"fmt"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

func String(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

// Decimal reads an amount sent either as a string ("10.50") or as a number.
func Decimal(in *structpb.Struct, key string) (decimal.Decimal, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return decimal.Zero, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		if kind.StringValue == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	case *structpb.Value_NullValue:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("%s: expected string or number", key)
	}
}

func ToCreateOrderInput(in *structpb.Struct) (*escrowdto.CreateOrderInput, error) {
	shipping, err := Decimal(in, "shipping")
	if err != nil {
		return nil, err
	}
	input := &escrowdto.CreateOrderInput{
		BuyerID:             String(in, "buyer_id"),
		BuyerBankID:         String(in, "buyer_bank_id"),
		SellerBankID:        String(in, "seller_bank_id"),
		Currency:            String(in, "currency"),
		Shipping:            shipping,
		SettlementAddress:   String(in, "settlement_address"),
		ShipmentTrackingRef: String(in, "shipment_tracking_ref"),
	}
	for i, v := range in.GetFields()["items"].GetListValue().GetValues() {
		item := v.GetStructValue()
		if item == nil {
			return nil, fmt.Errorf("items[%d]: expected object", i)
		}
		price, err := Decimal(item, "unit_price")
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		input.Items = append(input.Items, escrowdto.OrderItemInput{
			ProductID: String(item, "product_id"),
			Quantity:  int64(item.GetFields()["quantity"].GetNumberValue()),
			UnitPrice: price,
		})
	}
	return input, nil
}

func ToCorrectTotalsInput(in *structpb.Struct) (*escrowdto.CorrectTotalsInput, error) {
	subtotal, err := Decimal(in, "subtotal")
	if err != nil {
		return nil, err
	}
	shipping, err := Decimal(in, "shipping")
	if err != nil {
		return nil, err
	}
	return &escrowdto.CorrectTotalsInput{
		OrderID:  String(in, "order_id"),
		Subtotal: subtotal,
		Shipping: shipping,
	}, nil
}

func FromOrder(order *domain.Order) map[string]interface{} {
	items := make([]interface{}, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, map[string]interface{}{
			"id":         it.ID,
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
			"unit_price": it.UnitPrice.StringFixed(2),
			"line_total": it.LineTotal.StringFixed(2),
		})
	}
	return map[string]interface{}{
		"order_id":   order.ID,
		"code":       order.Code,
		"status":     string(order.Status),
		"buyer_id":   order.BuyerID,
		"subtotal":   order.Subtotal.StringFixed(2),
		"shipping":   order.Shipping.StringFixed(2),
		"total":      order.Total.StringFixed(2),
		"currency":   order.Currency,
		"items":      items,
		"created_at": order.CreatedAt.Format(time.RFC3339),
	}
}

func FromApprovalResult(r *escrowdto.ApprovalResult) map[string]interface{} {
	return map[string]interface{}{
		"order_id":             r.OrderID,
		"approval_id":          r.ApprovalID,
		"status":               string(r.Status),
		"buyer_bank_approved":  r.BuyerBankApproved,
		"seller_bank_approved": r.SellerBankApproved,
		"transitioned":         r.Transitioned,
	}
}

func FromReleaseResult(r *escrowdto.ReleaseResult) map[string]interface{} {
	return map[string]interface{}{
		"order_id":         r.OrderID,
		"milestone":        string(r.Milestone),
		"tranche":          string(r.Tranche),
		"amount":           r.Amount.StringFixed(2),
		"settlement_ref":   r.SettlementRef,
		"status":           string(r.Status),
		"already_released": r.AlreadyReleased,
	}
}

func FromDispute(d *domain.Dispute) map[string]interface{} {
	out := map[string]interface{}{
		"dispute_id":      d.ID,
		"order_id":        d.OrderID,
		"raised_by":       d.RaisedBy,
		"reason":          d.Reason,
		"status":          string(d.Status),
		"status_before":   string(d.StatusBefore),
		"settled_amount":  d.SettledAmount.StringFixed(2),
		"disputed_amount": d.DisputedAmount.StringFixed(2),
	}
	if d.Outcome != "" {
		out["outcome"] = string(d.Outcome)
		out["arbitrator_id"] = d.ArbitratorID
	}
	return out
}

func FromOrderState(s *escrowdto.OrderStateOutput) map[string]interface{} {
	releases := make([]interface{}, 0, len(s.Releases))
	for _, r := range s.Releases {
		releases = append(releases, map[string]interface{}{
			"tranche":        string(r.Tranche),
			"state":          string(r.State),
			"amount":         r.Amount.StringFixed(2),
			"settlement_ref": r.SettlementRef,
			"attempts":       r.Attempts,
			"last_error":     r.LastError,
		})
	}
	documents := make([]interface{}, 0, len(s.Documents))
	for _, d := range s.Documents {
		documents = append(documents, map[string]interface{}{
			"document_id": d.ID,
			"type":        d.Type,
			"status":      string(d.Status),
		})
	}
	out := map[string]interface{}{
		"order_id":             s.OrderID,
		"code":                 s.Code,
		"status":               string(s.Status),
		"total":                s.Total.StringFixed(2),
		"currency":             s.Currency,
		"buyer_bank_approved":  s.BuyerBankApproved,
		"seller_bank_approved": s.SellerBankApproved,
		"payment_reference":    s.PaymentReference,
		"first_tranche_ref":    s.FirstTrancheRef,
		"second_tranche_ref":   s.SecondTrancheRef,
		"released_amount":      s.ReleasedAmount.StringFixed(2),
		"frozen":               s.Frozen,
		"partially_settled":    s.PartiallySettled,
		"releases":             releases,
		"documents":            documents,
	}
	if s.OpenDispute != nil {
		out["open_dispute"] = FromDispute(s.OpenDispute)
	}
	return out
}

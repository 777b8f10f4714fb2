package escrowdto

import "github.com/shopspring/decimal"

type CreateOrderInput struct {
	BuyerID             string
	BuyerBankID         string
	SellerBankID        string
	Currency            string
	Shipping            decimal.Decimal
	SettlementAddress   string
	ShipmentTrackingRef string
	Items               []OrderItemInput
}

type OrderItemInput struct {
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
}

type ConfirmPaymentInput struct {
	OrderID          string
	PaymentReference string
}

type CorrectTotalsInput struct {
	OrderID  string
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
}

type RecordApprovalInput struct {
	OrderID string
	BankID  string
	Action  string
	Comment string
}

type ReleaseOnMilestoneInput struct {
	OrderID   string
	Milestone string
}

type RaiseDisputeInput struct {
	OrderID  string
	RaisedBy string
	Reason   string
}

type ResolveDisputeInput struct {
	OrderID      string
	Resolution   string
	ArbitratorID string
	Note         string
}

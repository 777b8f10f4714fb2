package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	StatusBankReview      OrderStatus = "BANK_REVIEW"
	StatusInTransit       OrderStatus = "IN_TRANSIT"
	StatusDelivered       OrderStatus = "DELIVERED"
	StatusDisputed        OrderStatus = "DISPUTED"
	StatusCancelled       OrderStatus = "CANCELLED"
)

// AllStatuses lists every order status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusAwaitingPayment,
	StatusBankReview,
	StatusInTransit,
	StatusDelivered,
	StatusDisputed,
	StatusCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusAwaitingPayment, StatusBankReview, StatusInTransit,
		StatusDelivered, StatusDisputed, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// IsTerminal reports whether no further transition can leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID   string
	Code string

	BuyerID      string
	BuyerBankID  string
	SellerBankID string

	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
	Currency string

	Status OrderStatus

	PaymentReference    string
	SettlementAddress   string
	FirstTrancheRef     string
	SecondTrancheRef    string
	ShipmentTrackingRef string

	Items []OrderItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        string
	Position  int
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// NewOrderParams carries everything the checkout flow knows about an order.
type NewOrderParams struct {
	ID                  string
	Code                string
	BuyerID             string
	BuyerBankID         string
	SellerBankID        string
	Currency            string
	Shipping            decimal.Decimal
	SettlementAddress   string
	ShipmentTrackingRef string
	Items               []NewOrderItem
}

type NewOrderItem struct {
	ID        string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// NewOrder builds an order in AWAITING_PAYMENT with line totals, subtotal
// and total derived from the items.
func NewOrder(p NewOrderParams, now time.Time) (*Order, error) {
	if p.ID == "" || p.Code == "" {
		return nil, InvalidInput(p.ID, "order id and code are required")
	}
	if p.BuyerID == "" || p.BuyerBankID == "" || p.SellerBankID == "" {
		return nil, InvalidInput(p.ID, "buyer, buyer bank and seller bank are required")
	}
	if p.BuyerBankID == p.SellerBankID {
		return nil, InvalidInput(p.ID, "buyer bank and seller bank must differ")
	}
	if len(p.Items) == 0 {
		return nil, InvalidInput(p.ID, "order has no items")
	}
	if p.Shipping.IsNegative() {
		return nil, InvalidInput(p.ID, "shipping must not be negative")
	}
	if !IsWholeCents(p.Shipping) {
		return nil, InvalidInput(p.ID, "shipping must be in whole cents")
	}

	items := make([]OrderItem, 0, len(p.Items))
	subtotal := decimal.Zero
	for i, it := range p.Items {
		if it.ProductID == "" {
			return nil, InvalidInput(p.ID, fmt.Sprintf("item %d has no product", i))
		}
		if it.Quantity <= 0 {
			return nil, InvalidInput(p.ID, fmt.Sprintf("item %d quantity must be positive", i))
		}
		if it.UnitPrice.IsNegative() {
			return nil, InvalidInput(p.ID, fmt.Sprintf("item %d unit price must not be negative", i))
		}
		if !IsWholeCents(it.UnitPrice) {
			return nil, InvalidInput(p.ID, fmt.Sprintf("item %d unit price must be in whole cents", i))
		}
		line := it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
		subtotal = subtotal.Add(line)
		items = append(items, OrderItem{
			ID:        it.ID,
			Position:  i,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: line,
		})
	}

	now = now.UTC()
	return &Order{
		ID:                  p.ID,
		Code:                p.Code,
		BuyerID:             p.BuyerID,
		BuyerBankID:         p.BuyerBankID,
		SellerBankID:        p.SellerBankID,
		Subtotal:            subtotal,
		Shipping:            p.Shipping,
		Total:               subtotal.Add(p.Shipping),
		Currency:            p.Currency,
		Status:              StatusAwaitingPayment,
		SettlementAddress:   p.SettlementAddress,
		ShipmentTrackingRef: p.ShipmentTrackingRef,
		Items:               items,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// IsWholeCents reports whether d has no fraction below a cent. Amounts are
// stored and settled with two decimal places.
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// Validate checks the financial invariants of the order.
func (o *Order) Validate() error {
	if !o.Total.Equal(o.Subtotal.Add(o.Shipping)) {
		return InvalidInput(o.ID, fmt.Sprintf("total %s does not equal subtotal %s + shipping %s",
			o.Total, o.Subtotal, o.Shipping))
	}
	for _, it := range o.Items {
		if !it.LineTotal.Equal(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))) {
			return InvalidInput(o.ID, fmt.Sprintf("line total mismatch for product %s", it.ProductID))
		}
	}
	return nil
}

// BankRole resolves which side of the order a bank vouches for.
func (o *Order) BankRole(bankID string) (BankRole, bool) {
	switch bankID {
	case "":
		return "", false
	case o.BuyerBankID:
		return BankRoleBuyer, true
	case o.SellerBankID:
		return BankRoleSeller, true
	default:
		return "", false
	}
}

func (o *Order) TrancheReference(t Tranche) string {
	switch t {
	case TrancheFirst:
		return o.FirstTrancheRef
	case TrancheSecond:
		return o.SecondTrancheRef
	default:
		return ""
	}
}

// Clone returns a deep copy safe to mutate.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

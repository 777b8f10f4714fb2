package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() NewOrderParams {
	return NewOrderParams{
		ID:           "ord-1",
		Code:         "TO-ABC",
		BuyerID:      "buyer-1",
		BuyerBankID:  "bank-b",
		SellerBankID: "bank-s",
		Currency:     "USD",
		Shipping:     decimal.RequireFromString("50.00"),
		Items: []NewOrderItem{
			{ProductID: "p-1", Quantity: 2, UnitPrice: decimal.RequireFromString("250.00")},
			{ProductID: "p-2", Quantity: 1, UnitPrice: decimal.RequireFromString("500.00")},
		},
	}
}

func TestNewOrder_DerivesTotals(t *testing.T) {
	order, err := NewOrder(validParams(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, StatusAwaitingPayment, order.Status)
	assert.Equal(t, "1000.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "1050.00", order.Total.StringFixed(2))
	assert.Equal(t, "500.00", order.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, 1, order.Items[1].Position)
	assert.NoError(t, order.Validate())
}

func TestNewOrder_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *NewOrderParams)
	}{
		{"same banks", func(p *NewOrderParams) { p.SellerBankID = p.BuyerBankID }},
		{"no items", func(p *NewOrderParams) { p.Items = nil }},
		{"zero quantity", func(p *NewOrderParams) { p.Items[0].Quantity = 0 }},
		{"negative price", func(p *NewOrderParams) { p.Items[0].UnitPrice = decimal.NewFromInt(-1) }},
		{"negative shipping", func(p *NewOrderParams) { p.Shipping = decimal.NewFromInt(-1) }},
		{"missing buyer", func(p *NewOrderParams) { p.BuyerID = "" }},
		{"sub-cent price", func(p *NewOrderParams) { p.Items[0].UnitPrice = decimal.RequireFromString("3.335") }},
		{"sub-cent shipping", func(p *NewOrderParams) { p.Shipping = decimal.RequireFromString("0.001") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := NewOrder(p, time.Now())
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestOrderValidate_DetectsDrift(t *testing.T) {
	order, err := NewOrder(validParams(), time.Now())
	require.NoError(t, err)

	order.Total = order.Total.Add(decimal.NewFromInt(1))
	assert.ErrorIs(t, order.Validate(), ErrInvalidInput)
}

func TestMissingValidatedDocuments(t *testing.T) {
	docs := []*Document{
		{Type: "bill_of_lading", Status: DocumentValidated},
		{Type: "invoice", Status: DocumentPending},
	}
	assert.Equal(t, []string{"invoice", "customs"}, MissingValidatedDocuments(docs, []string{"bill_of_lading", "invoice", "customs"}))
	assert.Empty(t, MissingValidatedDocuments(docs, []string{"bill_of_lading"}))
	assert.Empty(t, MissingValidatedDocuments(nil, nil))
}

func TestIsWholeCents(t *testing.T) {
	assert.True(t, IsWholeCents(decimal.RequireFromString("10.50")))
	assert.True(t, IsWholeCents(decimal.RequireFromString("250.000")))
	assert.True(t, IsWholeCents(decimal.Zero))
	assert.False(t, IsWholeCents(decimal.RequireFromString("3.335")))
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderModel struct {
	ID                  string          `gorm:"primaryKey;type:uuid"`
	Code                string          `gorm:"uniqueIndex;not null"`
	BuyerID             string          `gorm:"index;not null"`
	BuyerBankID         string          `gorm:"index;not null"`
	SellerBankID        string          `gorm:"index;not null"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Shipping            decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Total               decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency            string
	Status              string `gorm:"index:idx_order_status;not null"`
	PaymentReference    string
	SettlementAddress   string
	FirstTrancheRef     string
	SecondTrancheRef    string
	ShipmentTrackingRef string
	Items               []OrderItemModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	CreatedAt           time.Time        `gorm:"index:idx_created_at"`
	UpdatedAt           time.Time
}

func (OrderModel) TableName() string {
	return "escrow_orders"
}

type OrderItemModel struct {
	ID        string          `gorm:"primaryKey;type:uuid"`
	OrderID   string          `gorm:"type:uuid;index;not null"`
	Position  int             `gorm:"not null"`
	ProductID string          `gorm:"not null"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:numeric(20,2);not null"`
}

func (OrderItemModel) TableName() string {
	return "escrow_order_items"
}

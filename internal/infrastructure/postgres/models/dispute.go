package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DisputeModel struct {
	ID                  string `gorm:"primaryKey;type:uuid"`
	OrderID             string `gorm:"type:uuid;index;not null"`
	RaisedBy            string
	Reason              string
	Status              string `gorm:"index"`
	OrderStatusOriginal string
	SettledAmount       decimal.Decimal `gorm:"type:numeric(20,2)"`
	DisputedAmount      decimal.Decimal `gorm:"type:numeric(20,2)"`
	Outcome             string
	ArbitratorID        string
	ResolutionNote      string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ResolvedAt          *time.Time
}

func (DisputeModel) TableName() string {
	return "escrow_disputes"
}

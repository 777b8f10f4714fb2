package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReleaseModel - состояние выплаты транша. Строка PENDING пишется до вызова
// settlement backend и подтверждается или помечается FAILED после.
type ReleaseModel struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	OrderID       string          `gorm:"type:uuid;uniqueIndex:idx_release_order_tranche;not null"`
	Tranche       string          `gorm:"uniqueIndex:idx_release_order_tranche;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	State         string          `gorm:"index:idx_release_state_updated;not null"`
	SettlementRef string
	Attempts      int    `gorm:"default:0"`
	LastError     string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"index:idx_release_state_updated"`
}

func (ReleaseModel) TableName() string {
	return "escrow_releases"
}

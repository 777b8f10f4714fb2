package models

import "time"

// BankApprovalModel - голос банка по заказу. Старые голоса не удаляются, а
// помечаются SUPERSEDED или MOOT.
type BankApprovalModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	OrderID   string `gorm:"type:uuid;index:idx_approval_order_bank;not null"`
	BankID    string `gorm:"index:idx_approval_order_bank;not null"`
	Role      string `gorm:"not null"`
	Action    string `gorm:"not null"`
	Comment   string
	State     string `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BankApprovalModel) TableName() string {
	return "escrow_bank_approvals"
}

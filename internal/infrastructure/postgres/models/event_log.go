package models

import "time"

type EscrowEventLogModel struct {
	ID         uint   `gorm:"primaryKey"`
	OrderID    string `gorm:"index;not null"`
	Type       string `gorm:"not null"`
	Payload    string `gorm:"type:text"`
	OccurredAt time.Time
}

func (EscrowEventLogModel) TableName() string {
	return "escrow_event_log"
}

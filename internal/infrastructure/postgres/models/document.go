package models

import "time"

type DocumentModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	OrderID    string `gorm:"type:uuid;index;not null"`
	UploadedBy string
	ContentID  string
	Type       string `gorm:"not null"`
	Status     string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DocumentModel) TableName() string {
	return "escrow_documents"
}

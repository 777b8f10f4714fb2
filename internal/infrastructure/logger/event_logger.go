package logger

import (
	"context"
	"encoding/json"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

// PGEscrowEventLogger is a notification sink that keeps an audit trail of
// every engine notification in the database.
type PGEscrowEventLogger struct {
	db *gorm.DB
}

func NewPGEscrowEventLogger(db *gorm.DB) *PGEscrowEventLogger {
	return &PGEscrowEventLogger{db: db}
}

func (l *PGEscrowEventLogger) Notify(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}
	return l.db.WithContext(ctx).Create(&models.EscrowEventLogModel{
		OrderID:    n.OrderID,
		Type:       string(n.Type),
		Payload:    string(payload),
		OccurredAt: n.OccurredAt,
	}).Error
}

// ListOrderEvents returns the audit trail of an order, oldest first.
func (l *PGEscrowEventLogger) ListOrderEvents(ctx context.Context, orderID string) ([]domain.Notification, error) {
	var rows []models.EscrowEventLogModel
	if err := l.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		n := domain.Notification{OrderID: r.OrderID, Type: domain.NotificationType(r.Type), OccurredAt: r.OccurredAt}
		if r.Payload != "" && r.Payload != "null" {
			if err := json.Unmarshal([]byte(r.Payload), &n.Payload); err != nil {
				return nil, err
			}
		}
		out = append(out, n)
	}
	return out, nil
}

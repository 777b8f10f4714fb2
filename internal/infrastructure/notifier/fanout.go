package notifier

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// FanOutSink delivers a notification to every sink and joins their errors.
type FanOutSink []domain.NotificationSink

func (f FanOutSink) Notify(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, s := range f {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

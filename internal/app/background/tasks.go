package background

import (
	"context"
	"log/slog"
	"time"

	publisher "github.com/LavaJover/shvark-escrow-service/internal/infrastructure/kafka"
)

// PendingReleaseReconciler re-issues settlement calls whose outcome was never
// written back.
type PendingReleaseReconciler interface {
	ReconcilePendingReleases(ctx context.Context, olderThan time.Duration) (int, error)
}

type BackgroundTasks struct {
	Reconciler        PendingReleaseReconciler
	DocumentConsumer  *publisher.DocumentVerificationConsumer
	ReconcileInterval time.Duration
	PendingReleaseAge time.Duration
}

func NewBackgroundTasks(reconciler PendingReleaseReconciler, consumer *publisher.DocumentVerificationConsumer, interval, pendingAge time.Duration) *BackgroundTasks {
	if interval <= 0 {
		interval = time.Minute
	}
	return &BackgroundTasks{
		Reconciler:        reconciler,
		DocumentConsumer:  consumer,
		ReconcileInterval: interval,
		PendingReleaseAge: pendingAge,
	}
}

// Run blocks until ctx is done.
func (bt *BackgroundTasks) Run(ctx context.Context) error {
	if bt.DocumentConsumer != nil {
		go func() {
			if err := bt.DocumentConsumer.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("document verification consumer stopped", "error", err)
			}
		}()
	}
	bt.startPendingReleaseReconcile(ctx)
	return nil
}

func (bt *BackgroundTasks) startPendingReleaseReconcile(ctx context.Context) {
	ticker := time.NewTicker(bt.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.reconcileOnce(ctx)
		}
	}
}

func (bt *BackgroundTasks) reconcileOnce(ctx context.Context) {
	if _, err := bt.Reconciler.ReconcilePendingReleases(ctx, bt.PendingReleaseAge); err != nil {
		slog.Error("pending release reconcile failed", "error", err)
	}
}

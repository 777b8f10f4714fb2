package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
)

// Dispatcher is a bounded asynchronous notification queue. Enqueue never
// blocks: a full queue drops the notification. Sink failures are logged and
// swallowed.
type Dispatcher struct {
	sink          domain.NotificationSink
	queue         chan domain.Notification
	workers       int
	notifyTimeout time.Duration
	metrics       *metrics.EscrowMetrics

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type DispatcherConfig struct {
	QueueSize     int
	Workers       int
	NotifyTimeout time.Duration
}

func NewDispatcher(sink domain.NotificationSink, cfg DispatcherConfig, m *metrics.EscrowMetrics) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	return &Dispatcher{
		sink:          sink,
		queue:         make(chan domain.Notification, cfg.QueueSize),
		workers:       cfg.Workers,
		notifyTimeout: cfg.NotifyTimeout,
		metrics:       m,
	}
}

func (d *Dispatcher) Enqueue(n domain.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.metrics.RecordNotificationDropped(string(n.Type))
		return false
	}
	select {
	case d.queue <- n:
		return true
	default:
		d.metrics.RecordNotificationDropped(string(n.Type))
		return false
	}
}

// Start launches the workers. They exit once Stop drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for n := range d.queue {
				d.deliver(ctx, n)
			}
		}()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.notifyTimeout)
	defer cancel()
	if err := d.sink.Notify(nctx, n); err != nil {
		d.metrics.RecordNotificationFailed(string(n.Type))
		slog.Error("failed to deliver notification", "order_id", n.OrderID, "type", n.Type, "error", err)
	}
}

// Stop refuses new notifications, delivers what is queued and waits for the
// workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

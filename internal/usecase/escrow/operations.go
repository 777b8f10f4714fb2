package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const orderCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newUUID() string {
	return uuid.NewString()
}

// newOrderCodeGenerator returns human readable order codes like TO-7KD2M9QX4A.
func newOrderCodeGenerator() (func() string, error) {
	gen, err := nanoid.CustomASCII(orderCodeAlphabet, 10)
	if err != nil {
		return nil, err
	}
	return func() string { return "TO-" + gen() }, nil
}

// withOrder runs fn inside the store's per-order lock and maps a missing
// order to UnknownOrder.
func (uc *DefaultEscrowUsecase) withOrder(ctx context.Context, orderID string, fn func(tx domain.OrderTx) error) error {
	if strings.TrimSpace(orderID) == "" {
		return domain.InvalidInput("", "order id is required")
	}
	err := uc.Store.WithOrderLock(ctx, orderID, fn)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return domain.UnknownOrder(orderID)
	}
	return err
}

// applyTransition evaluates the state machine and persists the new status.
func (uc *DefaultEscrowUsecase) applyTransition(tx domain.OrderTx, event domain.Event, in domain.GuardInputs) (domain.OrderStatus, error) {
	order := tx.Order()
	next, err := domain.Transition(order, event, in)
	if err != nil {
		return order.Status, err
	}
	if err := tx.UpdateOrderStatus(next); err != nil {
		return order.Status, err
	}
	return next, nil
}

type transition struct {
	orderID  string
	from, to domain.OrderStatus
}

// afterCommit records metrics, logs transitions and enqueues notifications.
// It runs only once the locked scope has committed.
func (uc *DefaultEscrowUsecase) afterCommit(ctx context.Context, transitions []transition, notes []domain.Notification) {
	for _, t := range transitions {
		uc.Metrics.RecordTransition(string(t.from), string(t.to))
		slog.InfoContext(ctx, "order status changed", "order_id", t.orderID, "from", t.from, "to", t.to)
	}
	for _, n := range notes {
		uc.notify(n)
	}
}

func (uc *DefaultEscrowUsecase) notify(n domain.Notification) {
	if uc.Notifications == nil {
		return
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = uc.now().UTC()
	}
	if !uc.Notifications.Enqueue(n) {
		slog.Warn("notification dropped", "order_id", n.OrderID, "type", n.Type)
	}
}

func (uc *DefaultEscrowUsecase) startSpan(ctx context.Context, name, orderID string) (context.Context, trace.Span) {
	return uc.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("escrow.order_id", orderID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if kind, ok := domain.KindOf(err); ok {
			span.SetAttributes(attribute.String("escrow.error_kind", string(kind)))
		}
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func statusNote(orderID string, status domain.OrderStatus, extra map[string]string) (domain.Notification, bool) {
	var typ domain.NotificationType
	switch status {
	case domain.StatusBankReview:
		typ = domain.NotifyPaymentConfirmed
	case domain.StatusInTransit:
		typ = domain.NotifyOrderInTransit
	case domain.StatusDelivered:
		typ = domain.NotifyOrderDelivered
	case domain.StatusCancelled:
		typ = domain.NotifyOrderCancelled
	default:
		return domain.Notification{}, false
	}
	payload := map[string]string{"status": string(status)}
	for k, v := range extra {
		payload[k] = v
	}
	return domain.Notification{OrderID: orderID, Type: typ, Payload: payload}, true
}

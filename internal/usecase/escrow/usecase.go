package usecase

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type EscrowUsecase interface {
	CreateOrder(ctx context.Context, input *escrowdto.CreateOrderInput) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, input *escrowdto.ConfirmPaymentInput) (*escrowdto.OrderStateOutput, error)
	CorrectTotals(ctx context.Context, input *escrowdto.CorrectTotalsInput) error

	RecordApproval(ctx context.Context, input *escrowdto.RecordApprovalInput) (*escrowdto.ApprovalResult, error)
	ReleaseOnMilestone(ctx context.Context, input *escrowdto.ReleaseOnMilestoneInput) (*escrowdto.ReleaseResult, error)
	RaiseDispute(ctx context.Context, input *escrowdto.RaiseDisputeInput) (*domain.Dispute, error)
	ResolveDispute(ctx context.Context, input *escrowdto.ResolveDisputeInput) (*escrowdto.OrderStateOutput, error)

	GetOrderState(ctx context.Context, orderID string) (*escrowdto.OrderStateOutput, error)
	ReconcilePendingReleases(ctx context.Context, olderThan time.Duration) (int, error)
}

// Options tunes the escrow usecase. Zero values fall back to defaults.
type Options struct {
	// SettlementTimeout bounds every settlement backend call.
	SettlementTimeout time.Duration
	// RequiredDocuments lists document types that must be VALIDATED before a
	// milestone may release its tranche.
	RequiredDocuments map[domain.Milestone][]string
	Now               func() time.Time
	IDGenerator       func() string
	CodeGenerator     func() string
}

const defaultSettlementTimeout = 10 * time.Second

type DefaultEscrowUsecase struct {
	Store         domain.OrderStore
	Settlement    domain.SettlementBackend
	Notifications domain.NotificationQueue
	Metrics       *metrics.EscrowMetrics

	settlementTimeout time.Duration
	requiredDocuments map[domain.Milestone][]string
	now               func() time.Time
	newID             func() string
	newCode           func() string
	tracer            trace.Tracer
}

func NewDefaultEscrowUsecase(
	store domain.OrderStore,
	settlement domain.SettlementBackend,
	notifications domain.NotificationQueue,
	escrowMetrics *metrics.EscrowMetrics,
	opts Options,
) (*DefaultEscrowUsecase, error) {
	uc := &DefaultEscrowUsecase{
		Store:             store,
		Settlement:        settlement,
		Notifications:     notifications,
		Metrics:           escrowMetrics,
		settlementTimeout: opts.SettlementTimeout,
		requiredDocuments: opts.RequiredDocuments,
		now:               opts.Now,
		newID:             opts.IDGenerator,
		newCode:           opts.CodeGenerator,
		tracer:            otel.Tracer("github.com/LavaJover/shvark-escrow-service/usecase/escrow"),
	}
	if uc.settlementTimeout <= 0 {
		uc.settlementTimeout = defaultSettlementTimeout
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.newID == nil {
		uc.newID = newUUID
	}
	if uc.newCode == nil {
		gen, err := newOrderCodeGenerator()
		if err != nil {
			return nil, err
		}
		uc.newCode = gen
	}
	return uc, nil
}

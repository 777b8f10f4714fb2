package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/memory"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	buyerBank  = "bank-buyer"
	sellerBank = "bank-seller"
)

// fakeSettlement is idempotent per (order, tranche label) like the real
// backend. Errors queued in errs are returned by the next calls in order.
type fakeSettlement struct {
	mu      sync.Mutex
	calls   []domain.SettlementRequest
	errs    []error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSettlement) Release(ctx context.Context, req domain.SettlementRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("stl-%s-%s", req.OrderRef, req.TrancheLabel), nil
}

func (f *fakeSettlement) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSettlement) lastCall() domain.SettlementRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type recordingQueue struct {
	mu    sync.Mutex
	notes []domain.Notification
	full  bool
}

func (q *recordingQueue) Enqueue(n domain.Notification) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.notes = append(q.notes, n)
	return true
}

func (q *recordingQueue) types(orderID string) []domain.NotificationType {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.NotificationType
	for _, n := range q.notes {
		if n.OrderID == orderID {
			out = append(out, n.Type)
		}
	}
	return out
}

func (q *recordingQueue) last(orderID string, typ domain.NotificationType) *domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.notes) - 1; i >= 0; i-- {
		if q.notes[i].OrderID == orderID && q.notes[i].Type == typ {
			n := q.notes[i]
			return &n
		}
	}
	return nil
}

func (q *recordingQueue) count(orderID string, typ domain.NotificationType) int {
	n := 0
	for _, t := range q.types(orderID) {
		if t == typ {
			n++
		}
	}
	return n
}

type fixture struct {
	uc         *DefaultEscrowUsecase
	store      *memory.OrderStore
	settlement *fakeSettlement
	queue      *recordingQueue
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:      memory.NewOrderStore(),
		settlement: &fakeSettlement{},
		queue:      &recordingQueue{},
	}
	uc, err := NewDefaultEscrowUsecase(f.store, f.settlement, f.queue, nil, opts)
	require.NoError(t, err)
	f.uc = uc
	return f
}

// createOrder places an order with a 1050.00 total.
func (f *fixture) createOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.uc.CreateOrder(context.Background(), &escrowdto.CreateOrderInput{
		BuyerID:           "buyer-1",
		BuyerBankID:       buyerBank,
		SellerBankID:      sellerBank,
		Currency:          "USD",
		Shipping:          decimal.RequireFromString("50.00"),
		SettlementAddress: "acct-seller-1",
		Items: []escrowdto.OrderItemInput{
			{ProductID: "coffee-beans", Quantity: 4, UnitPrice: decimal.RequireFromString("250.00")},
		},
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) inReview(t *testing.T) *domain.Order {
	t.Helper()
	order := f.createOrder(t)
	_, err := f.uc.ConfirmPayment(context.Background(), &escrowdto.ConfirmPaymentInput{
		OrderID:          order.ID,
		PaymentReference: "pay-" + order.ID,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) approve(t *testing.T, orderID, bankID string) *escrowdto.ApprovalResult {
	t.Helper()
	res, err := f.uc.RecordApproval(context.Background(), &escrowdto.RecordApprovalInput{
		OrderID: orderID,
		BankID:  bankID,
		Action:  "approve",
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) inTransit(t *testing.T) *domain.Order {
	t.Helper()
	order := f.inReview(t)
	f.approve(t, order.ID, buyerBank)
	res := f.approve(t, order.ID, sellerBank)
	require.Equal(t, domain.StatusInTransit, res.Status)
	return order
}

func (f *fixture) release(orderID string, m domain.Milestone) (*escrowdto.ReleaseResult, error) {
	return f.uc.ReleaseOnMilestone(context.Background(), &escrowdto.ReleaseOnMilestoneInput{
		OrderID:   orderID,
		Milestone: string(m),
	})
}

func (f *fixture) state(t *testing.T, orderID string) *escrowdto.OrderStateOutput {
	t.Helper()
	st, err := f.uc.GetOrderState(context.Background(), orderID)
	require.NoError(t, err)
	return st
}

func (f *fixture) releaseRecord(t *testing.T, orderID string, tr domain.Tranche) *domain.Release {
	t.Helper()
	releases, err := f.store.ListReleases(context.Background(), orderID)
	require.NoError(t, err)
	rel := domain.FindRelease(releases, tr)
	require.NotNil(t, rel, "no release record for %s", tr)
	return rel
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) *domain.Error {
	t.Helper()
	require.Error(t, err)
	var e *domain.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, kind, e.Kind, "error: %v", err)
	return e
}


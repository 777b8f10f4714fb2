package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
	usecase "github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *DefaultOrderRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, postgres.AutoMigrate(db))
	return NewDefaultOrderRepository(db)
}

func newOrder(t *testing.T) *domain.Order {
	t.Helper()
	id := uuid.NewString()
	order, err := domain.NewOrder(domain.NewOrderParams{
		ID:           id,
		Code:         "TO-" + id[:8],
		BuyerID:      "buyer-1",
		BuyerBankID:  "bank-b",
		SellerBankID: "bank-s",
		Currency:     "EUR",
		Shipping:     decimal.RequireFromString("50.00"),
		Items: []domain.NewOrderItem{
			{ID: uuid.NewString(), ProductID: "p-1", Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
			{ID: uuid.NewString(), ProductID: "p-2", Quantity: 1, UnitPrice: decimal.RequireFromString("50.50")},
		},
	}, time.Now())
	require.NoError(t, err)
	return order
}

func TestOrderRepository_CreateAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	order := newOrder(t)

	require.NoError(t, repo.CreateOrder(ctx, order))
	assert.ErrorIs(t, repo.CreateOrder(ctx, order), domain.ErrOrderExists)

	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingPayment, got.Status)
	assert.Equal(t, "300.50", got.Total.StringFixed(2))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "p-1", got.Items[0].ProductID)
	assert.Equal(t, "p-2", got.Items[1].ProductID)
	assert.NoError(t, got.Validate())

	_, err = repo.GetOrder(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_WithOrderLockRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	order := newOrder(t)
	require.NoError(t, repo.CreateOrder(ctx, order))
	boom := errors.New("boom")

	err := repo.WithOrderLock(ctx, order.ID, func(tx domain.OrderTx) error {
		require.NoError(t, tx.UpdateOrderStatus(domain.StatusBankReview))
		require.NoError(t, tx.SetPaymentReference("pay-1"))
		assert.Equal(t, domain.StatusBankReview, tx.Order().Status)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingPayment, got.Status)
	assert.Empty(t, got.PaymentReference)

	err = repo.WithOrderLock(ctx, uuid.NewString(), func(tx domain.OrderTx) error { return nil })
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_SetTotalsGuard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	order := newOrder(t)
	require.NoError(t, repo.CreateOrder(ctx, order))

	err := repo.WithOrderLock(ctx, order.ID, func(tx domain.OrderTx) error {
		return tx.SetTotals(decimal.RequireFromString("400.00"), decimal.RequireFromString("25.00"))
	})
	require.NoError(t, err)
	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "425.00", got.Total.StringFixed(2))

	err = repo.WithOrderLock(ctx, order.ID, func(tx domain.OrderTx) error {
		if err := tx.UpdateOrderStatus(domain.StatusBankReview); err != nil {
			return err
		}
		return tx.SetTotals(decimal.NewFromInt(1), decimal.Zero)
	})
	assert.ErrorIs(t, err, domain.ErrTotalLocked)
}

func TestOrderRepository_ReleaseUpsertAndPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	order := newOrder(t)
	require.NoError(t, repo.CreateOrder(ctx, order))
	stale := time.Now().Add(-time.Hour).UTC()

	rel := &domain.Release{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Tranche:   domain.TrancheFirst,
		Amount:    decimal.RequireFromString("150.25"),
		State:     domain.ReleasePending,
		Attempts:  1,
		CreatedAt: stale,
		UpdatedAt: stale,
	}
	require.NoError(t, repo.WithOrderLock(ctx, order.ID, func(tx domain.OrderTx) error {
		return tx.SaveRelease(rel)
	}))

	pending, err := repo.FindPendingReleases(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, order.ID, pending[0].OrderID)

	rel.State = domain.ReleaseConfirmed
	rel.SettlementRef = "stl-1"
	rel.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.WithOrderLock(ctx, order.ID, func(tx domain.OrderTx) error {
		if err := tx.SaveRelease(rel); err != nil {
			return err
		}
		return tx.SetTrancheReference(domain.TrancheFirst, "stl-1")
	}))

	releases, err := repo.ListReleases(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, releases, 1, "upsert keeps one row per tranche")
	assert.Equal(t, domain.ReleaseConfirmed, releases[0].State)
	assert.Equal(t, "150.25", releases[0].Amount.StringFixed(2))

	pending, err = repo.FindPendingReleases(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "stl-1", got.FirstTrancheRef)
}

func TestOrderRepository_DocumentsAndDisputes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	order := newOrder(t)
	require.NoError(t, repo.CreateOrder(ctx, order))

	doc := &domain.Document{OrderID: order.ID, Type: "invoice", Status: domain.DocumentPending}
	require.NoError(t, repo.SaveDocument(ctx, doc))
	require.NoError(t, repo.UpdateDocumentStatus(ctx, doc.ID, domain.DocumentValidated))
	assert.ErrorIs(t, repo.UpdateDocumentStatus(ctx, uuid.NewString(), domain.DocumentValidated), domain.ErrDocumentNotFound)

	docs, err := repo.ListDocuments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.DocumentValidated, docs[0].Status)

	open, err := repo.GetOpenDispute(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	now := time.Now().UTC()
	dispute := &domain.Dispute{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		RaisedBy:       "buyer-1",
		Reason:         "late",
		Status:         domain.DisputeOpen,
		StatusBefore:   domain.StatusInTransit,
		SettledAmount:  decimal.Zero,
		DisputedAmount: order.Total,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repo.WithOrderLock(ctx, order.ID, func(tx domain.OrderTx) error {
		return tx.SaveDispute(dispute)
	}))
	open, err = repo.GetOpenDispute(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, dispute.ID, open.ID)
	assert.Equal(t, domain.StatusInTransit, open.StatusBefore)
}

type settlementFunc func(context.Context, domain.SettlementRequest) (string, error)

func (fn settlementFunc) Release(ctx context.Context, req domain.SettlementRequest) (string, error) {
	return fn(ctx, req)
}

func TestOrderRepository_EscrowLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	settle := settlementFunc(func(_ context.Context, req domain.SettlementRequest) (string, error) {
		return fmt.Sprintf("stl-%s", req.TrancheLabel), nil
	})
	uc, err := usecase.NewDefaultEscrowUsecase(repo, settle, nil, nil, usecase.Options{})
	require.NoError(t, err)

	order, err := uc.CreateOrder(ctx, &escrowdto.CreateOrderInput{
		BuyerID:      "buyer-1",
		BuyerBankID:  "bank-b",
		SellerBankID: "bank-s",
		Currency:     "USD",
		Shipping:     decimal.RequireFromString("50.00"),
		Items: []escrowdto.OrderItemInput{
			{ProductID: "p-1", Quantity: 1, UnitPrice: decimal.RequireFromString("1000.00")},
		},
	})
	require.NoError(t, err)

	_, err = uc.ConfirmPayment(ctx, &escrowdto.ConfirmPaymentInput{OrderID: order.ID, PaymentReference: "pay-1"})
	require.NoError(t, err)
	_, err = uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{OrderID: order.ID, BankID: "bank-b", Action: "approve"})
	require.NoError(t, err)
	res, err := uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{OrderID: order.ID, BankID: "bank-s", Action: "approve"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusInTransit, res.Status)

	first, err := uc.ReleaseOnMilestone(ctx, &escrowdto.ReleaseOnMilestoneInput{OrderID: order.ID, Milestone: "shipment_confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "525.00", first.Amount.StringFixed(2))

	second, err := uc.ReleaseOnMilestone(ctx, &escrowdto.ReleaseOnMilestoneInput{OrderID: order.ID, Milestone: "delivery_confirmed"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, second.Status)

	st, err := uc.GetOrderState(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "stl-tranche-1", st.FirstTrancheRef)
	assert.Equal(t, "stl-tranche-2", st.SecondTrancheRef)
	assert.Equal(t, "1050.00", st.ReleasedAmount.StringFixed(2))
}

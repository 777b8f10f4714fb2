package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordApproval_BothBanksAdvanceToInTransit(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.inReview(t)

	first := f.approve(t, order.ID, buyerBank)
	assert.False(t, first.Transitioned)
	assert.Equal(t, domain.StatusBankReview, first.Status)
	assert.True(t, first.BuyerBankApproved)
	assert.False(t, first.SellerBankApproved)

	second := f.approve(t, order.ID, sellerBank)
	assert.True(t, second.Transitioned)
	assert.Equal(t, domain.StatusInTransit, second.Status)

	st := f.state(t, order.ID)
	assert.Equal(t, domain.StatusInTransit, st.Status)
	assert.True(t, st.BuyerBankApproved)
	assert.True(t, st.SellerBankApproved)
	assert.Equal(t, 1, f.queue.count(order.ID, domain.NotifyOrderInTransit))
	assert.Equal(t, 2, f.queue.count(order.ID, domain.NotifyApprovalRecorded))
	assert.Zero(t, f.settlement.callCount(), "approval never moves funds")
}

func TestRecordApproval_RejectCancelsAndMootsOtherVote(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.inReview(t)
	f.approve(t, order.ID, buyerBank)

	res, err := f.uc.RecordApproval(context.Background(), &escrowdto.RecordApprovalInput{
		OrderID: order.ID,
		BankID:  sellerBank,
		Action:  "reject",
		Comment: "sanctions screening hit",
	})
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, domain.StatusCancelled, res.Status)

	approvals, err := f.store.ListApprovals(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	states := map[string]domain.ApprovalState{}
	for _, a := range approvals {
		states[a.BankID] = a.State
	}
	assert.Equal(t, domain.ApprovalMoot, states[buyerBank])
	assert.Equal(t, domain.ApprovalActive, states[sellerBank])
	assert.Equal(t, 1, f.queue.count(order.ID, domain.NotifyOrderCancelled))

	_, err = f.uc.RecordApproval(context.Background(), &escrowdto.RecordApprovalInput{
		OrderID: order.ID, BankID: buyerBank, Action: "approve",
	})
	requireKind(t, err, domain.KindIllegalTransition)
}

func TestRecordApproval_OnlyDuringBankReview(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.createOrder(t)
	ctx := context.Background()

	_, err := f.uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{
		OrderID: order.ID, BankID: buyerBank, Action: "approve",
	})
	requireKind(t, err, domain.KindIllegalTransition)

	_, err = f.uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{
		OrderID: order.ID, BankID: "bank-other", Action: "approve",
	})
	requireKind(t, err, domain.KindUnauthorizedBank)

	st := f.state(t, order.ID)
	assert.Equal(t, domain.StatusAwaitingPayment, st.Status)
	approvals, err := f.store.ListApprovals(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, approvals)
}

func TestRecordApproval_LatestVoteWins(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.inReview(t)

	f.approve(t, order.ID, buyerBank)
	f.approve(t, order.ID, buyerBank)

	approvals, err := f.store.ListApprovals(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	var active, superseded int
	for _, a := range approvals {
		switch a.State {
		case domain.ApprovalActive:
			active++
		case domain.ApprovalSuperseded:
			superseded++
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, superseded)
	assert.Equal(t, domain.StatusBankReview, f.state(t, order.ID).Status)
}

func TestRecordApproval_Errors(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.inReview(t)
	ctx := context.Background()

	_, err := f.uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{OrderID: order.ID, BankID: "bank-other", Action: "approve"})
	e := requireKind(t, err, domain.KindUnauthorizedBank)
	assert.Equal(t, "bank-other", e.Context["bank_id"])

	_, err = f.uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{OrderID: "missing", BankID: buyerBank, Action: "approve"})
	requireKind(t, err, domain.KindUnknownOrder)

	_, err = f.uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{OrderID: order.ID, BankID: buyerBank, Action: "maybe"})
	requireKind(t, err, domain.KindInvalidInput)

	awaiting := f.createOrder(t)
	_, err = f.uc.RecordApproval(ctx, &escrowdto.RecordApprovalInput{OrderID: awaiting.ID, BankID: buyerBank, Action: "approve"})
	requireKind(t, err, domain.KindIllegalTransition)

	approvals, err := f.store.ListApprovals(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, approvals, "failed votes must not be stored")
}

func TestRecordApproval_ConcurrentVotesAdvanceOnce(t *testing.T) {
	f := newFixture(t, Options{})

	for i := 0; i < 25; i++ {
		order := f.inReview(t)

		var wg sync.WaitGroup
		results := make([]*escrowdto.ApprovalResult, 2)
		errs := make([]error, 2)
		for j, bank := range []string{buyerBank, sellerBank} {
			wg.Add(1)
			go func(j int, bank string) {
				defer wg.Done()
				results[j], errs[j] = f.uc.RecordApproval(context.Background(), &escrowdto.RecordApprovalInput{
					OrderID: order.ID,
					BankID:  bank,
					Action:  "approve",
				})
			}(j, bank)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		transitioned := 0
		for _, r := range results {
			if r.Transitioned {
				transitioned++
			}
		}
		assert.Equal(t, 1, transitioned, "exactly one vote is the second vote")
		assert.Equal(t, domain.StatusInTransit, f.state(t, order.ID).Status)
		assert.Equal(t, 1, f.queue.count(order.ID, domain.NotifyOrderInTransit))
	}
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.createOrder(t)
	ctx := context.Background()

	_, err := f.uc.ConfirmPayment(ctx, &escrowdto.ConfirmPaymentInput{OrderID: order.ID})
	requireKind(t, err, domain.KindIllegalTransition)

	st, err := f.uc.ConfirmPayment(ctx, &escrowdto.ConfirmPaymentInput{OrderID: order.ID, PaymentReference: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBankReview, st.Status)
	assert.Equal(t, "pay-1", st.PaymentReference)

	st, err = f.uc.ConfirmPayment(ctx, &escrowdto.ConfirmPaymentInput{OrderID: order.ID, PaymentReference: "pay-1"})
	require.NoError(t, err, "a repeated confirmation is a no-op")
	assert.Equal(t, domain.StatusBankReview, st.Status)
	assert.Equal(t, 1, f.queue.count(order.ID, domain.NotifyPaymentConfirmed))

	_, err = f.uc.ConfirmPayment(ctx, &escrowdto.ConfirmPaymentInput{OrderID: order.ID, PaymentReference: "pay-2"})
	requireKind(t, err, domain.KindIllegalTransition)
}

func TestCorrectTotals(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.createOrder(t)
	ctx := context.Background()

	err := f.uc.CorrectTotals(ctx, &escrowdto.CorrectTotalsInput{
		OrderID:  order.ID,
		Subtotal: order.Subtotal,
		Shipping: order.Shipping.Add(order.Shipping),
	})
	require.NoError(t, err)
	assert.Equal(t, "1100.00", f.state(t, order.ID).Total.StringFixed(2))

	err = f.uc.CorrectTotals(ctx, &escrowdto.CorrectTotalsInput{
		OrderID:  order.ID,
		Subtotal: decimal.RequireFromString("10.005"),
		Shipping: order.Shipping,
	})
	requireKind(t, err, domain.KindInvalidInput)
	assert.Equal(t, "1100.00", f.state(t, order.ID).Total.StringFixed(2))

	_, err = f.uc.ConfirmPayment(ctx, &escrowdto.ConfirmPaymentInput{OrderID: order.ID, PaymentReference: "pay-1"})
	require.NoError(t, err)

	err = f.uc.CorrectTotals(ctx, &escrowdto.CorrectTotalsInput{
		OrderID:  order.ID,
		Subtotal: order.Subtotal,
		Shipping: order.Shipping,
	})
	requireKind(t, err, domain.KindTotalLocked)
	assert.Equal(t, "1100.00", f.state(t, order.ID).Total.StringFixed(2))
}

func TestCreateOrder_RejectsSubCentAmounts(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.uc.CreateOrder(context.Background(), &escrowdto.CreateOrderInput{
		BuyerID:      "buyer-1",
		BuyerBankID:  buyerBank,
		SellerBankID: sellerBank,
		Currency:     "USD",
		Items: []escrowdto.OrderItemInput{
			{ProductID: "spice", Quantity: 3, UnitPrice: decimal.RequireFromString("3.335")},
		},
	})
	requireKind(t, err, domain.KindInvalidInput)
}

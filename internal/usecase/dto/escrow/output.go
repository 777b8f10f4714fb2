package escrowdto

import (
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ApprovalResult struct {
	OrderID            string
	ApprovalID         string
	Status             domain.OrderStatus
	BuyerBankApproved  bool
	SellerBankApproved bool
	// Transitioned is true when this vote moved the order out of BANK_REVIEW.
	Transitioned bool
}

type ReleaseResult struct {
	OrderID       string
	Milestone     domain.Milestone
	Tranche       domain.Tranche
	Amount        decimal.Decimal
	SettlementRef string
	Status        domain.OrderStatus
	// AlreadyReleased marks an idempotent replay of a completed release.
	AlreadyReleased bool
}

type ReleaseView struct {
	Tranche       domain.Tranche
	State         domain.ReleaseState
	Amount        decimal.Decimal
	SettlementRef string
	Attempts      int
	LastError     string
}

type OrderStateOutput struct {
	OrderID  string
	Code     string
	Status   domain.OrderStatus
	Total    decimal.Decimal
	Currency string

	BuyerBankApproved  bool
	SellerBankApproved bool
	Votes              domain.ApprovalSet

	PaymentReference string
	FirstTrancheRef  string
	SecondTrancheRef string
	Releases         []ReleaseView
	ReleasedAmount   decimal.Decimal

	Frozen           bool
	PartiallySettled bool
	OpenDispute      *domain.Dispute
	Documents        []*domain.Document
}

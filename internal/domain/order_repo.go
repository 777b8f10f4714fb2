package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStore is the persistent order store. Everything that changes an order
// goes through WithOrderLock, which serializes work per order and commits all
// writes made through the OrderTx atomically when fn returns nil.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	WithOrderLock(ctx context.Context, orderID string, fn func(tx OrderTx) error) error

	ListApprovals(ctx context.Context, orderID string) ([]*BankApproval, error)
	ListDocuments(ctx context.Context, orderID string) ([]*Document, error)
	ListReleases(ctx context.Context, orderID string) ([]*Release, error)
	GetOpenDispute(ctx context.Context, orderID string) (*Dispute, error)
	FindPendingReleases(ctx context.Context, updatedBefore time.Time) ([]*Release, error)

	// Upload and verification collaborators write documents through these.
	SaveDocument(ctx context.Context, doc *Document) error
	UpdateDocumentStatus(ctx context.Context, documentID string, status DocumentStatus) error
}

// OrderTx is the view of one locked order. Reads reflect the writes already
// made in the same scope.
type OrderTx interface {
	Order() *Order
	Approvals() ([]*BankApproval, error)
	Documents() ([]*Document, error)
	Releases() ([]*Release, error)
	OpenDispute() (*Dispute, error)

	SaveApproval(a *BankApproval) error
	UpdateOrderStatus(status OrderStatus) error
	SetPaymentReference(ref string) error
	SetTrancheReference(t Tranche, ref string) error
	// SetTotals is rejected with TotalLocked once the order left AWAITING_PAYMENT.
	SetTotals(subtotal, shipping decimal.Decimal) error
	SaveRelease(r *Release) error
	SaveDispute(d *Dispute) error
}

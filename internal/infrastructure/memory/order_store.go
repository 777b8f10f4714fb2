package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type orderRecord struct {
	order     *domain.Order
	approvals []*domain.BankApproval
	documents []*domain.Document
	releases  []*domain.Release
	disputes  []*domain.Dispute
}

func (r *orderRecord) clone() *orderRecord {
	c := &orderRecord{order: r.order.Clone()}
	for _, a := range r.approvals {
		cp := *a
		c.approvals = append(c.approvals, &cp)
	}
	for _, d := range r.documents {
		cp := *d
		c.documents = append(c.documents, &cp)
	}
	for _, rel := range r.releases {
		c.releases = append(c.releases, rel.Clone())
	}
	for _, d := range r.disputes {
		c.disputes = append(c.disputes, d.Clone())
	}
	return c
}

// OrderStore keeps orders in process memory. Each order has its own lock, so
// operations on different orders never wait on each other. The lock table
// gains one entry per order and is never pruned.
type OrderStore struct {
	mu        sync.RWMutex
	orders    map[string]*orderRecord
	locks     map[string]chan struct{}
	documents map[string]string // document id -> order id
	now       func() time.Time
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:    make(map[string]*orderRecord),
		locks:     make(map[string]chan struct{}),
		documents: make(map[string]string),
		now:       time.Now,
	}
}

func (s *OrderStore) lockFor(orderID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[orderID]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[orderID] = l
	}
	return l
}

func (s *OrderStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrOrderExists, order.ID)
	}
	s.orders[order.ID] = &orderRecord{order: order.Clone()}
	return nil
}

func (s *OrderStore) snapshot(orderID string) (*orderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return rec.clone(), nil
}

func (s *OrderStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	rec, err := s.snapshot(orderID)
	if err != nil {
		return nil, err
	}
	return rec.order, nil
}

// WithOrderLock waits for the order's lock, honouring ctx, and runs fn on a
// private copy of the order's records. The copy replaces the stored records
// only when fn succeeds.
func (s *OrderStore) WithOrderLock(ctx context.Context, orderID string, fn func(tx domain.OrderTx) error) error {
	if _, err := s.snapshot(orderID); err != nil {
		return err
	}
	l := s.lockFor(orderID)
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l }()

	rec, err := s.snapshot(orderID)
	if err != nil {
		return err
	}
	tx := &orderTx{rec: rec, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.orders[orderID] = rec
	s.mu.Unlock()
	return nil
}

func (s *OrderStore) ListApprovals(ctx context.Context, orderID string) ([]*domain.BankApproval, error) {
	rec, err := s.snapshot(orderID)
	if err != nil {
		return nil, err
	}
	return rec.approvals, nil
}

func (s *OrderStore) ListDocuments(ctx context.Context, orderID string) ([]*domain.Document, error) {
	rec, err := s.snapshot(orderID)
	if err != nil {
		return nil, err
	}
	return rec.documents, nil
}

func (s *OrderStore) ListReleases(ctx context.Context, orderID string) ([]*domain.Release, error) {
	rec, err := s.snapshot(orderID)
	if err != nil {
		return nil, err
	}
	return rec.releases, nil
}

func (s *OrderStore) GetOpenDispute(ctx context.Context, orderID string) (*domain.Dispute, error) {
	rec, err := s.snapshot(orderID)
	if err != nil {
		return nil, err
	}
	return openDispute(rec.disputes), nil
}

func (s *OrderStore) FindPendingReleases(ctx context.Context, updatedBefore time.Time) ([]*domain.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Release
	for _, rec := range s.orders {
		for _, r := range rec.releases {
			if r.State == domain.ReleasePending && r.UpdatedAt.Before(updatedBefore) {
				out = append(out, r.Clone())
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (s *OrderStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	return s.WithOrderLock(ctx, doc.OrderID, func(tx domain.OrderTx) error {
		t := tx.(*orderTx)
		cp := *doc
		for i, d := range t.rec.documents {
			if d.ID == doc.ID {
				t.rec.documents[i] = &cp
				return nil
			}
		}
		t.rec.documents = append(t.rec.documents, &cp)
		s.mu.Lock()
		s.documents[doc.ID] = doc.OrderID
		s.mu.Unlock()
		return nil
	})
}

func (s *OrderStore) UpdateDocumentStatus(ctx context.Context, documentID string, status domain.DocumentStatus) error {
	s.mu.RLock()
	orderID, ok := s.documents[documentID]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrDocumentNotFound
	}
	return s.WithOrderLock(ctx, orderID, func(tx domain.OrderTx) error {
		t := tx.(*orderTx)
		for _, d := range t.rec.documents {
			if d.ID == documentID {
				d.Status = status
				d.UpdatedAt = t.now().UTC()
				return nil
			}
		}
		return domain.ErrDocumentNotFound
	})
}

func openDispute(disputes []*domain.Dispute) *domain.Dispute {
	for _, d := range disputes {
		if d.Status == domain.DisputeOpen {
			return d
		}
	}
	return nil
}

type orderTx struct {
	rec *orderRecord
	now func() time.Time
}

func (t *orderTx) Order() *domain.Order {
	return t.rec.order.Clone()
}

func (t *orderTx) Approvals() ([]*domain.BankApproval, error) {
	out := make([]*domain.BankApproval, 0, len(t.rec.approvals))
	for _, a := range t.rec.approvals {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (t *orderTx) Documents() ([]*domain.Document, error) {
	out := make([]*domain.Document, 0, len(t.rec.documents))
	for _, d := range t.rec.documents {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (t *orderTx) Releases() ([]*domain.Release, error) {
	out := make([]*domain.Release, 0, len(t.rec.releases))
	for _, r := range t.rec.releases {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (t *orderTx) OpenDispute() (*domain.Dispute, error) {
	return openDispute(t.rec.disputes).Clone(), nil
}

func (t *orderTx) SaveApproval(a *domain.BankApproval) error {
	cp := *a
	for i, existing := range t.rec.approvals {
		if existing.ID == a.ID {
			t.rec.approvals[i] = &cp
			return nil
		}
	}
	t.rec.approvals = append(t.rec.approvals, &cp)
	return nil
}

func (t *orderTx) touch() {
	t.rec.order.UpdatedAt = t.now().UTC()
}

func (t *orderTx) UpdateOrderStatus(status domain.OrderStatus) error {
	t.rec.order.Status = status
	t.touch()
	return nil
}

func (t *orderTx) SetPaymentReference(ref string) error {
	t.rec.order.PaymentReference = ref
	t.touch()
	return nil
}

func (t *orderTx) SetTrancheReference(tr domain.Tranche, ref string) error {
	switch tr {
	case domain.TrancheFirst:
		t.rec.order.FirstTrancheRef = ref
	case domain.TrancheSecond:
		t.rec.order.SecondTrancheRef = ref
	default:
		return fmt.Errorf("unknown tranche %q", tr)
	}
	t.touch()
	return nil
}

func (t *orderTx) SetTotals(subtotal, shipping decimal.Decimal) error {
	o := t.rec.order
	if o.Status != domain.StatusAwaitingPayment {
		return domain.TotalLocked(o.ID, o.Status)
	}
	o.Subtotal = subtotal
	o.Shipping = shipping
	o.Total = subtotal.Add(shipping)
	t.touch()
	return nil
}

func (t *orderTx) SaveRelease(r *domain.Release) error {
	cp := r.Clone()
	for i, existing := range t.rec.releases {
		if existing.Tranche == r.Tranche {
			t.rec.releases[i] = cp
			return nil
		}
	}
	t.rec.releases = append(t.rec.releases, cp)
	return nil
}

func (t *orderTx) SaveDispute(d *domain.Dispute) error {
	cp := d.Clone()
	for i, existing := range t.rec.disputes {
		if existing.ID == d.ID {
			t.rec.disputes[i] = cp
			return nil
		}
	}
	t.rec.disputes = append(t.rec.disputes, cp)
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultOrderRepository is the gorm backed order store. WithOrderLock takes
// a row lock (SELECT ... FOR UPDATE) on the order for the whole transaction.
type DefaultOrderRepository struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db, now: time.Now}
}

func (r *DefaultOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	orderModel := mappers.ToGORMOrder(order)
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.OrderModel{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", domain.ErrOrderExists, order.ID)
		}
		return tx.Create(orderModel).Error
	})
}

func loadOrder(db *gorm.DB, orderID string, lock bool) (*domain.Order, error) {
	var order models.OrderModel
	query := db
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if err := db.Where("order_id = ?", orderID).Order("position ASC").Find(&order.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return mappers.ToDomainOrder(&order), nil
}

func (r *DefaultOrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return loadOrder(r.DB.WithContext(ctx), orderID, false)
}

func (r *DefaultOrderRepository) WithOrderLock(ctx context.Context, orderID string, fn func(tx domain.OrderTx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, orderID, true)
		if err != nil {
			return err
		}
		return fn(&gormOrderTx{db: tx, order: order, now: r.now})
	})
}

func listApprovals(db *gorm.DB, orderID string) ([]*domain.BankApproval, error) {
	var approvalModels []models.BankApprovalModel
	if err := db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&approvalModels).Error; err != nil {
		return nil, err
	}
	approvals := make([]*domain.BankApproval, len(approvalModels))
	for i := range approvalModels {
		approvals[i] = mappers.ToDomainApproval(&approvalModels[i])
	}
	return approvals, nil
}

func listDocuments(db *gorm.DB, orderID string) ([]*domain.Document, error) {
	var documentModels []models.DocumentModel
	if err := db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&documentModels).Error; err != nil {
		return nil, err
	}
	documents := make([]*domain.Document, len(documentModels))
	for i := range documentModels {
		documents[i] = mappers.ToDomainDocument(&documentModels[i])
	}
	return documents, nil
}

func listReleases(db *gorm.DB, orderID string) ([]*domain.Release, error) {
	var releaseModels []models.ReleaseModel
	if err := db.Where("order_id = ?", orderID).Order("tranche ASC").Find(&releaseModels).Error; err != nil {
		return nil, err
	}
	releases := make([]*domain.Release, len(releaseModels))
	for i := range releaseModels {
		releases[i] = mappers.ToDomainRelease(&releaseModels[i])
	}
	return releases, nil
}

func openDispute(db *gorm.DB, orderID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	err := db.Where("order_id = ? AND status = ?", orderID, string(domain.DisputeOpen)).
		Order("created_at DESC").
		First(&disputeModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}

func (r *DefaultOrderRepository) ListApprovals(ctx context.Context, orderID string) ([]*domain.BankApproval, error) {
	return listApprovals(r.DB.WithContext(ctx), orderID)
}

func (r *DefaultOrderRepository) ListDocuments(ctx context.Context, orderID string) ([]*domain.Document, error) {
	return listDocuments(r.DB.WithContext(ctx), orderID)
}

func (r *DefaultOrderRepository) ListReleases(ctx context.Context, orderID string) ([]*domain.Release, error) {
	return listReleases(r.DB.WithContext(ctx), orderID)
}

func (r *DefaultOrderRepository) GetOpenDispute(ctx context.Context, orderID string) (*domain.Dispute, error) {
	return openDispute(r.DB.WithContext(ctx), orderID)
}

func (r *DefaultOrderRepository) FindPendingReleases(ctx context.Context, updatedBefore time.Time) ([]*domain.Release, error) {
	var releaseModels []models.ReleaseModel
	if err := r.DB.WithContext(ctx).
		Where("state = ?", string(domain.ReleasePending)).
		Where("updated_at < ?", updatedBefore.UTC()).
		Order("updated_at ASC").
		Find(&releaseModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find pending releases: %w", err)
	}
	releases := make([]*domain.Release, len(releaseModels))
	for i := range releaseModels {
		releases[i] = mappers.ToDomainRelease(&releaseModels[i])
	}
	return releases, nil
}

// SaveDocument is the write path of the upload and verification
// collaborators. It serializes with engine operations through the order lock.
func (r *DefaultOrderRepository) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	return r.WithOrderLock(ctx, doc.OrderID, func(tx domain.OrderTx) error {
		return tx.(*gormOrderTx).db.Save(mappers.ToGORMDocument(doc)).Error
	})
}

func (r *DefaultOrderRepository) UpdateDocumentStatus(ctx context.Context, documentID string, status domain.DocumentStatus) error {
	var doc models.DocumentModel
	if err := r.DB.WithContext(ctx).First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrDocumentNotFound
		}
		return err
	}
	return r.WithOrderLock(ctx, doc.OrderID, func(tx domain.OrderTx) error {
		return tx.(*gormOrderTx).db.Model(&models.DocumentModel{}).
			Where("id = ?", documentID).
			Updates(map[string]interface{}{
				"status":     string(status),
				"updated_at": r.now().UTC(),
			}).Error
	})
}

// gormOrderTx keeps a copy of the locked order in sync with its writes so
// that Order() reflects everything done in the transaction so far.
type gormOrderTx struct {
	db    *gorm.DB
	order *domain.Order
	now   func() time.Time
}

func (t *gormOrderTx) Order() *domain.Order {
	return t.order.Clone()
}

func (t *gormOrderTx) Approvals() ([]*domain.BankApproval, error) {
	return listApprovals(t.db, t.order.ID)
}

func (t *gormOrderTx) Documents() ([]*domain.Document, error) {
	return listDocuments(t.db, t.order.ID)
}

func (t *gormOrderTx) Releases() ([]*domain.Release, error) {
	return listReleases(t.db, t.order.ID)
}

func (t *gormOrderTx) OpenDispute() (*domain.Dispute, error) {
	return openDispute(t.db, t.order.ID)
}

func (t *gormOrderTx) SaveApproval(approval *domain.BankApproval) error {
	return t.db.Save(mappers.ToGORMApproval(approval)).Error
}

func (t *gormOrderTx) updateOrder(values map[string]interface{}) error {
	now := t.now().UTC()
	values["updated_at"] = now
	if err := t.db.Model(&models.OrderModel{}).Where("id = ?", t.order.ID).Updates(values).Error; err != nil {
		return err
	}
	t.order.UpdatedAt = now
	return nil
}

func (t *gormOrderTx) UpdateOrderStatus(status domain.OrderStatus) error {
	if err := t.updateOrder(map[string]interface{}{"status": string(status)}); err != nil {
		return err
	}
	t.order.Status = status
	return nil
}

func (t *gormOrderTx) SetPaymentReference(ref string) error {
	if err := t.updateOrder(map[string]interface{}{"payment_reference": ref}); err != nil {
		return err
	}
	t.order.PaymentReference = ref
	return nil
}

func (t *gormOrderTx) SetTrancheReference(tranche domain.Tranche, ref string) error {
	switch tranche {
	case domain.TrancheFirst:
		if err := t.updateOrder(map[string]interface{}{"first_tranche_ref": ref}); err != nil {
			return err
		}
		t.order.FirstTrancheRef = ref
	case domain.TrancheSecond:
		if err := t.updateOrder(map[string]interface{}{"second_tranche_ref": ref}); err != nil {
			return err
		}
		t.order.SecondTrancheRef = ref
	default:
		return fmt.Errorf("unknown tranche %q", tranche)
	}
	return nil
}

// SetTotals is the write guard for the order financials: the update only
// matches while the order is still AWAITING_PAYMENT.
func (t *gormOrderTx) SetTotals(subtotal, shipping decimal.Decimal) error {
	if t.order.Status != domain.StatusAwaitingPayment {
		return domain.TotalLocked(t.order.ID, t.order.Status)
	}
	total := subtotal.Add(shipping)
	now := t.now().UTC()
	res := t.db.Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", t.order.ID, string(domain.StatusAwaitingPayment)).
		Updates(map[string]interface{}{
			"subtotal":   subtotal,
			"shipping":   shipping,
			"total":      total,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.TotalLocked(t.order.ID, t.order.Status)
	}
	t.order.Subtotal = subtotal
	t.order.Shipping = shipping
	t.order.Total = total
	t.order.UpdatedAt = now
	return nil
}

// SaveRelease upserts by (order_id, tranche).
func (t *gormOrderTx) SaveRelease(release *domain.Release) error {
	model := mappers.ToGORMRelease(release)
	return t.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "tranche"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"amount", "state", "settlement_ref", "attempts", "last_error", "updated_at",
		}),
	}).Create(model).Error
}

func (t *gormOrderTx) SaveDispute(dispute *domain.Dispute) error {
	return t.db.Save(mappers.ToGORMDispute(dispute)).Error
}

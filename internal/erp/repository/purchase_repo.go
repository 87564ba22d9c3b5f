package repository

import (
	"context"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, notFound(err)
	}
	return &po, nil
}

func (r *PurchaseRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&po).Error; err != nil {
		return nil, notFound(err)
	}
	return &po, nil
}

func (r *PurchaseRepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

// CountOpenForMaterial counts orders still on their way for a material.
func (r *PurchaseRepository) CountOpenForMaterial(ctx context.Context, materialID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{}).
		Where("material_id = ? AND status IN ?", materialID,
			[]string{entity.POStatusOrdered, entity.POStatusApproved, entity.POStatusShipped}).
		Count(&total).Error
	return total, err
}

func (r *PurchaseRepository) CountShippedForMaterial(ctx context.Context, materialID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{}).
		Where("material_id = ? AND status = ?", materialID, entity.POStatusShipped).
		Count(&total).Error
	return total, err
}

type POListParams struct {
	Status     string
	SupplierID string
	MaterialID string
	Keyword    string
	Page       int
	Size       int
}

func (r *PurchaseRepository) List(ctx context.Context, params POListParams) ([]entity.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.SupplierID != "" {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}
	if params.MaterialID != "" {
		query = query.Where("material_id = ?", params.MaterialID)
	}
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(supplier_name) LIKE ? OR LOWER(material_name) LIKE ?", kw, kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.PurchaseOrder
	err := paginate(query.Order("created_at DESC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

func (r *PurchaseRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{}).Where("status = ?", status).Count(&total).Error
	return total, err
}

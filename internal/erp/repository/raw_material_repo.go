package repository

import (
	"context"
	"errors"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type RawMaterialRepository struct {
	db *gorm.DB
}

func NewRawMaterialRepository(db *gorm.DB) *RawMaterialRepository {
	return &RawMaterialRepository{db: db}
}

func (r *RawMaterialRepository) Create(ctx context.Context, m *entity.RawMaterial) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *RawMaterialRepository) GetByID(ctx context.Context, id string) (*entity.RawMaterial, error) {
	var m entity.RawMaterial
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *RawMaterialRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.RawMaterial, error) {
	var list []entity.RawMaterial
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ? AND deleted_at IS NULL", ids).Find(&list).Error
	return list, err
}

func (r *RawMaterialRepository) Update(ctx context.Context, m *entity.RawMaterial) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *RawMaterialRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.RawMaterial{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *RawMaterialRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.RawMaterial{}).Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// AdjustStock adds delta to current_stock in one statement. A withdrawal
// larger than the stock on hand changes nothing and returns ErrInsufficientStock.
func (r *RawMaterialRepository) AdjustStock(ctx context.Context, id string, delta float64) (*entity.RawMaterial, error) {
	query := r.db.WithContext(ctx).Model(&entity.RawMaterial{}).Where("id = ? AND deleted_at IS NULL", id)
	if delta < 0 {
		query = query.Where("current_stock >= ?", -delta-1e-9)
	}
	res := query.Update("current_stock", gorm.Expr("current_stock + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return m, ErrInsufficientStock
	}
	return m, nil
}

type RawMaterialListParams struct {
	Category   string
	Status     string
	SupplierID string
	Keyword    string
	Page       int
	Size       int
}

func (r *RawMaterialRepository) List(ctx context.Context, params RawMaterialListParams) ([]entity.RawMaterial, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.RawMaterial{}).Where("deleted_at IS NULL")
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.SupplierID != "" {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(material_code) LIKE ?", kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.RawMaterial
	err := paginate(query.Order("name ASC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

// ListLowStock materials at or below their threshold, or out of stock
func (r *RawMaterialRepository) ListLowStock(ctx context.Context) ([]entity.RawMaterial, error) {
	var list []entity.RawMaterial
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Where("current_stock <= 0 OR (reorder_point > 0 AND current_stock <= reorder_point) OR (reorder_point <= 0 AND min_threshold > 0 AND current_stock <= min_threshold)").
		Order("current_stock ASC").Find(&list).Error
	return list, err
}

func (r *RawMaterialRepository) ListAll(ctx context.Context) ([]entity.RawMaterial, error) {
	var list []entity.RawMaterial
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").Order("name ASC").Find(&list).Error
	return list, err
}

func (r *RawMaterialRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.RawMaterial{}).Where("deleted_at IS NULL").Count(&total).Error
	return total, err
}

package repository

import (
	"context"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(ctx context.Context, s *entity.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SupplierRepository) Update(ctx context.Context, s *entity.Supplier) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.Supplier{}).Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

type SupplierListParams struct {
	Status  string
	Keyword string
	Page    int
	Size    int
}

func (r *SupplierRepository) List(ctx context.Context, params SupplierListParams) ([]entity.Supplier, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Supplier{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(supplier_code) LIKE ? OR LOWER(contact_person) LIKE ?", kw, kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.Supplier
	err := paginate(query.Order("name ASC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

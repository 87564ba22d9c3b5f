package repository

import (
	"context"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type StockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) *StockMovementRepository {
	return &StockMovementRepository{db: db}
}

func (r *StockMovementRepository) Create(ctx context.Context, m *entity.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

type StockMovementListParams struct {
	ItemType      string
	ItemID        string
	MovementType  string
	ReferenceType string
	ReferenceID   string
	Page          int
	Size          int
}

func (r *StockMovementRepository) List(ctx context.Context, params StockMovementListParams) ([]entity.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockMovement{})
	if params.ItemType != "" {
		query = query.Where("item_type = ?", params.ItemType)
	}
	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.MovementType != "" {
		query = query.Where("movement_type = ?", params.MovementType)
	}
	if params.ReferenceType != "" {
		query = query.Where("reference_type = ?", params.ReferenceType)
	}
	if params.ReferenceID != "" {
		query = query.Where("reference_id = ?", params.ReferenceID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.StockMovement
	err := paginate(query.Order("created_at DESC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

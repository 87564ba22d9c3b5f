package repository

import (
	"context"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

// ProductionRepository batches, consumption, flows, steps and waste
type ProductionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

func (r *ProductionRepository) DB() *gorm.DB {
	return r.db
}

// ---- batches ----

func (r *ProductionRepository) CreateBatch(ctx context.Context, b *entity.ProductionBatch) error {
	return r.db.WithContext(ctx).Omit("Consumptions").Create(b).Error
}

func (r *ProductionRepository) GetBatch(ctx context.Context, id string) (*entity.ProductionBatch, error) {
	var b entity.ProductionBatch
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&b).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *ProductionRepository) GetBatchWithConsumptions(ctx context.Context, id string) (*entity.ProductionBatch, error) {
	var b entity.ProductionBatch
	err := r.db.WithContext(ctx).Preload("Consumptions").
		Where("id = ? AND deleted_at IS NULL", id).First(&b).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *ProductionRepository) UpdateBatch(ctx context.Context, b *entity.ProductionBatch) error {
	return r.db.WithContext(ctx).Omit("Consumptions").Save(b).Error
}

type BatchListParams struct {
	Status    string
	ProductID string
	Priority  string
	Keyword   string
	Page      int
	Size      int
}

func (r *ProductionRepository) ListBatches(ctx context.Context, params BatchListParams) ([]entity.ProductionBatch, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.ProductionBatch{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.Priority != "" {
		query = query.Where("priority = ?", params.Priority)
	}
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("LOWER(batch_number) LIKE ? OR LOWER(product_name) LIKE ?", kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.ProductionBatch
	err := paginate(query.Order("created_at DESC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

func (r *ProductionRepository) CountBatchesByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.ProductionBatch{}).
		Select("status, COUNT(*) AS total").Where("deleted_at IS NULL").
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// ---- material consumption ----

func (r *ProductionRepository) CreateConsumption(ctx context.Context, c *entity.MaterialConsumption) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ProductionRepository) UpdateConsumption(ctx context.Context, c *entity.MaterialConsumption) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *ProductionRepository) ListConsumptions(ctx context.Context, batchID string) ([]entity.MaterialConsumption, error) {
	var list []entity.MaterialConsumption
	err := r.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("created_at ASC").Find(&list).Error
	return list, err
}

// SumReserved is the quantity of a material held by consumption rows not yet consumed.
func (r *ProductionRepository) SumReserved(ctx context.Context, materialID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&entity.MaterialConsumption{}).
		Select("COALESCE(SUM(quantity_used), 0)").
		Where("material_id = ? AND consumption_status = ?", materialID, entity.ConsumptionReserved).
		Scan(&total).Error
	return total, err
}

func (r *ProductionRepository) GetConsumption(ctx context.Context, batchID, materialID string) (*entity.MaterialConsumption, error) {
	var c entity.MaterialConsumption
	err := r.db.WithContext(ctx).Where("batch_id = ? AND material_id = ?", batchID, materialID).First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ---- flows and steps ----

func (r *ProductionRepository) CreateFlow(ctx context.Context, f *entity.ProductionFlow) error {
	return r.db.WithContext(ctx).Omit("Steps").Create(f).Error
}

func (r *ProductionRepository) UpdateFlow(ctx context.Context, f *entity.ProductionFlow) error {
	return r.db.WithContext(ctx).Omit("Steps").Save(f).Error
}

// GetFlowByBatch returns the flow with its steps in order.
func (r *ProductionRepository) GetFlowByBatch(ctx context.Context, batchID string) (*entity.ProductionFlow, error) {
	var f entity.ProductionFlow
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Where("batch_id = ?", batchID).First(&f).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *ProductionRepository) CreateStep(ctx context.Context, s *entity.ProductionFlowStep) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ProductionRepository) UpdateStep(ctx context.Context, s *entity.ProductionFlowStep) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *ProductionRepository) GetStep(ctx context.Context, id string) (*entity.ProductionFlowStep, error) {
	var s entity.ProductionFlowStep
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ---- waste ----

func (r *ProductionRepository) CreateWaste(ctx context.Context, records []entity.WasteRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

type WasteListParams struct {
	BatchID   string
	WasteType string
	Status    string
	Page      int
	Size      int
}

func (r *ProductionRepository) ListWaste(ctx context.Context, params WasteListParams) ([]entity.WasteRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.WasteRecord{})
	if params.BatchID != "" {
		query = query.Where("batch_id = ?", params.BatchID)
	}
	if params.WasteType != "" {
		query = query.Where("waste_type = ?", params.WasteType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.WasteRecord
	err := paginate(query.Order("generated_at DESC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

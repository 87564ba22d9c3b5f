package repository

import (
	"context"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type IndividualProductRepository struct {
	db *gorm.DB
}

func NewIndividualProductRepository(db *gorm.DB) *IndividualProductRepository {
	return &IndividualProductRepository{db: db}
}

func (r *IndividualProductRepository) BatchCreate(ctx context.Context, items []entity.IndividualProduct) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, 100).Error
}

func (r *IndividualProductRepository) GetByID(ctx context.Context, id string) (*entity.IndividualProduct, error) {
	var ip entity.IndividualProduct
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ip).Error; err != nil {
		return nil, notFound(err)
	}
	return &ip, nil
}

func (r *IndividualProductRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.IndividualProduct, error) {
	var list []entity.IndividualProduct
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *IndividualProductRepository) Update(ctx context.Context, ip *entity.IndividualProduct) error {
	return r.db.WithContext(ctx).Save(ip).Error
}

// SetStatus moves the given units to status. Only units currently in one of
// from are touched; the number of changed rows is returned.
func (r *IndividualProductRepository) SetStatus(ctx context.Context, ids []string, from []string, to, reservedFor string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := r.db.WithContext(ctx).Model(&entity.IndividualProduct{}).Where("id IN ?", ids)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	res := query.Updates(map[string]interface{}{"status": to, "reserved_for": reservedFor})
	return res.RowsAffected, res.Error
}

// MarkSold moves units reserved for an order item to sold.
func (r *IndividualProductRepository) MarkSold(ctx context.Context, ids []string, reservedFor string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&entity.IndividualProduct{}).
		Where("id IN ? AND status = ? AND reserved_for = ?", ids, entity.IPStatusReserved, reservedFor).
		Updates(map[string]interface{}{"status": entity.IPStatusSold, "sold_at": at})
	return res.RowsAffected, res.Error
}

func (r *IndividualProductRepository) CountByStatus(ctx context.Context, productID, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.IndividualProduct{}).
		Where("product_id = ? AND status = ?", productID, status).Count(&total).Error
	return total, err
}

type IndividualProductListParams struct {
	ProductID string
	BatchID   string
	Status    string
	Keyword   string
	Page      int
	Size      int
}

func (r *IndividualProductRepository) List(ctx context.Context, params IndividualProductListParams) ([]entity.IndividualProduct, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.IndividualProduct{})
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.BatchID != "" {
		query = query.Where("batch_id = ?", params.BatchID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("LOWER(serial_number) LIKE ? OR LOWER(qr_code) LIKE ?", kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.IndividualProduct
	err := paginate(query.Order("created_at DESC, serial_number ASC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

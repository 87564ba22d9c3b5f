package repository

import (
	"context"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) DB() *gorm.DB {
	return r.db
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// UpdateStock writes the stock counter and status only.
func (r *ProductRepository) UpdateStock(ctx context.Context, id string, stock float64, status string) error {
	return r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"current_stock": stock, "status": status}).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

type ProductListParams struct {
	Category      string
	Status        string
	StockTracking string
	Keyword       string
	Page          int
	Size          int
}

func (r *ProductRepository) List(ctx context.Context, params ProductListParams) ([]entity.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Product{}).Where("deleted_at IS NULL")
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.StockTracking != "" {
		query = query.Where("stock_tracking = ?", params.StockTracking)
	}
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(product_code) LIKE ? OR LOWER(color) LIKE ?", kw, kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var products []entity.Product
	err := paginate(query.Order("created_at DESC"), params.Page, params.Size).Find(&products).Error
	return products, total, err
}

// ListLowStock products at or below their reorder threshold
func (r *ProductRepository) ListLowStock(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND status IN ?", []string{entity.ProductStatusLowStock, entity.ProductStatusOutOfStock}).
		Order("current_stock ASC").Find(&products).Error
	return products, err
}

func (r *ProductRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Product{}).
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

func (r *ProductRepository) ListAll(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").Order("name ASC").Find(&products).Error
	return products, err
}

package repository

import (
	"context"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var c entity.Customer
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *entity.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.Customer{}).Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// AddOrderStats bumps the customer's order counters.
func (r *CustomerRepository) AddOrderStats(ctx context.Context, id string, orders int, value float64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Customer{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_orders":    gorm.Expr("total_orders + ?", orders),
			"total_value":     gorm.Expr("total_value + ?", value),
			"last_order_date": at,
		}).Error
}

type CustomerListParams struct {
	CustomerType string
	Status       string
	Keyword      string
	Page         int
	Size         int
}

func (r *CustomerRepository) List(ctx context.Context, params CustomerListParams) ([]entity.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Customer{}).Where("deleted_at IS NULL")
	if params.CustomerType != "" {
		query = query.Where("customer_type = ?", params.CustomerType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(customer_code) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", kw, kw, kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.Customer
	err := paginate(query.Order("created_at DESC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its items.
func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var o entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND deleted_at IS NULL", id).First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o *entity.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(o).Error
}

func (r *OrderRepository) UpdateItem(ctx context.Context, item *entity.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

type OrderListParams struct {
	Status     string
	CustomerID string
	Keyword    string
	Page       int
	Size       int
}

func (r *OrderRepository) List(ctx context.Context, params OrderListParams) ([]entity.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Order{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.CustomerID != "" {
		query = query.Where("customer_id = ?", params.CustomerID)
	}
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ?", kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.Order
	err := paginate(query.Order("created_at DESC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Order{}).
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

// SumRevenue total of non-cancelled orders
func (r *OrderRepository) SumRevenue(ctx context.Context) (float64, error) {
	var result struct{ Total float64 }
	err := r.db.WithContext(ctx).Model(&entity.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("deleted_at IS NULL AND status <> ?", entity.OrderStatusCancelled).
		Scan(&result).Error
	return result.Total, err
}

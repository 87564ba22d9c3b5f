package entity

import (
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
)

// StockTracking
const (
	StockTrackingBulk       = "bulk"
	StockTrackingIndividual = "individual"
)

// Product status reuses the calc stock labels.
const (
	ProductStatusInStock    = calc.StockInStock
	ProductStatusLowStock   = calc.StockLowStock
	ProductStatusOutOfStock = calc.StockOutOfStock
)

// Product a carpet design sold and produced by the factory
type Product struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	ProductCode   string     `json:"product_code" gorm:"size:50;not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"size:200;not null"`
	Category      string     `json:"category" gorm:"size:100;index"`
	Subcategory   string     `json:"subcategory" gorm:"size:100"`
	Color         string     `json:"color" gorm:"size:50"`
	Pattern       string     `json:"pattern" gorm:"size:100"`
	Length        float64    `json:"length" gorm:"type:decimal(12,4);default:0"`
	Width         float64    `json:"width" gorm:"type:decimal(12,4);default:0"`
	LengthUnit    string     `json:"length_unit" gorm:"size:20"`
	WidthUnit     string     `json:"width_unit" gorm:"size:20"`
	Weight        float64    `json:"weight" gorm:"type:decimal(12,4);default:0"`
	WeightUnit    string     `json:"weight_unit" gorm:"size:20"`
	Unit          string     `json:"unit" gorm:"size:20;not null"`
	StockTracking string     `json:"stock_tracking" gorm:"size:20;not null"`
	CurrentStock  float64    `json:"current_stock" gorm:"type:decimal(12,4);default:0"`
	MinStockLevel float64    `json:"min_stock_level" gorm:"type:decimal(12,4);default:0"`
	MaxStockLevel float64    `json:"max_stock_level" gorm:"type:decimal(12,4);default:0"`
	ReorderPoint  float64    `json:"reorder_point" gorm:"type:decimal(12,4);default:0"`
	ImageURL      string     `json:"image_url" gorm:"size:500"`
	Status        string     `json:"status" gorm:"size:20;not null;index"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`

	Recipe *Recipe `json:"recipe,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "erp_products"
}

// SQM area of one unit
func (p *Product) SQM() float64 {
	return calc.CalculateSQM(p.Length, p.Width, p.LengthUnit, p.WidthUnit)
}

func (p *Product) TracksIndividually() bool {
	return p.StockTracking == StockTrackingIndividual
}

// LowStockThreshold is the reorder point, or the minimum level when no
// reorder point is set.
func (p *Product) LowStockThreshold() float64 {
	if p.ReorderPoint > 0 {
		return p.ReorderPoint
	}
	return p.MinStockLevel
}

// RefreshStatus recomputes Status from CurrentStock.
func (p *Product) RefreshStatus() {
	p.Status = calc.StockStatus(p.CurrentStock, p.LowStockThreshold())
}

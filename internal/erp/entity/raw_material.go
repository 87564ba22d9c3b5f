package entity

import (
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
)

const RawMaterialStatusInTransit = "in-transit"

// RawMaterial yarn, dye, backing cloth, latex and similar inputs
type RawMaterial struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	MaterialCode string     `json:"material_code" gorm:"size:50;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:200;not null"`
	Category     string     `json:"category" gorm:"size:100;index"`
	Type         string     `json:"type" gorm:"size:100"`
	Color        string     `json:"color" gorm:"size:50"`
	SupplierID   string     `json:"supplier_id" gorm:"size:36;index"`
	SupplierName string     `json:"supplier_name" gorm:"size:200"`
	BatchNumber  string     `json:"batch_number" gorm:"size:50"`
	QualityGrade string     `json:"quality_grade" gorm:"size:10"`
	Unit         string     `json:"unit" gorm:"size:20;not null"`
	CurrentStock float64    `json:"current_stock" gorm:"type:decimal(12,4);default:0"`
	MinThreshold float64    `json:"min_threshold" gorm:"type:decimal(12,4);default:0"`
	MaxCapacity  float64    `json:"max_capacity" gorm:"type:decimal(12,4);default:0"`
	ReorderPoint float64    `json:"reorder_point" gorm:"type:decimal(12,4);default:0"`
	CostPerUnit  float64    `json:"cost_per_unit" gorm:"type:decimal(12,2);default:0"`
	Status       string     `json:"status" gorm:"size:20;not null;index"`
	Notes        string     `json:"notes" gorm:"type:text"`
	CreatedBy    string     `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (RawMaterial) TableName() string {
	return "erp_raw_materials"
}

func (m *RawMaterial) LowStockThreshold() float64 {
	if m.ReorderPoint > 0 {
		return m.ReorderPoint
	}
	return m.MinThreshold
}

// RefreshStatus recomputes Status from CurrentStock. A material waiting on a
// shipment keeps in-transit until it is back in stock.
func (m *RawMaterial) RefreshStatus(inTransit bool) {
	status := calc.StockStatus(m.CurrentStock, m.LowStockThreshold())
	if inTransit && status != calc.StockInStock {
		status = RawMaterialStatusInTransit
	}
	m.Status = status
}

package entity

import (
	"time"
)

// Item types
const (
	ItemTypeRawMaterial = "raw_material"
	ItemTypeProduct     = "product"
)

// Movement types
const (
	MoveTypePurchaseIn    = "PURCHASE_IN"
	MoveTypeProductionIn  = "PRODUCTION_IN"
	MoveTypeProductionOut = "PRODUCTION_OUT"
	MoveTypeSalesOut      = "SALES_OUT"
	MoveTypeReturnIn      = "RETURN_IN"
	MoveTypeAdjust        = "ADJUST"
)

// Reference types
const (
	RefTypePurchaseOrder = "PO"
	RefTypeBatch         = "BATCH"
	RefTypeOrder         = "ORDER"
	RefTypeManual        = "MANUAL"
)

// StockMovement ledger row for every stock change
type StockMovement struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	ItemType      string    `json:"item_type" gorm:"size:20;not null;index"`
	ItemID        string    `json:"item_id" gorm:"size:36;not null;index"`
	ItemName      string    `json:"item_name" gorm:"size:200"`
	MovementType  string    `json:"movement_type" gorm:"size:20;not null"`
	Quantity      float64   `json:"quantity" gorm:"type:decimal(12,4);not null"` // positive in, negative out
	BalanceAfter  float64   `json:"balance_after" gorm:"type:decimal(12,4)"`
	Unit          string    `json:"unit" gorm:"size:20"`
	ReferenceType string    `json:"reference_type" gorm:"size:20;not null"`
	ReferenceID   string    `json:"reference_id" gorm:"size:36;not null;index"`
	ReferenceCode string    `json:"reference_code" gorm:"size:50"`
	Notes         string    `json:"notes" gorm:"type:text"`
	CreatedBy     string    `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "erp_stock_movements"
}

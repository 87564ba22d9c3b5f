package entity

import (
	"time"
)

// PurchaseOrder status
const (
	POStatusOrdered   = "ordered"
	POStatusApproved  = "approved"
	POStatusShipped   = "shipped"
	POStatusDelivered = "delivered"
	POStatusCancelled = "cancelled"
)

// PurchaseOrder raw material replenishment order
type PurchaseOrder struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	OrderNumber      string     `json:"order_number" gorm:"size:50;not null;uniqueIndex"`
	SupplierID       string     `json:"supplier_id" gorm:"size:36;not null;index"`
	SupplierName     string     `json:"supplier_name" gorm:"size:200"`
	MaterialID       string     `json:"material_id" gorm:"size:36;not null;index"`
	MaterialName     string     `json:"material_name" gorm:"size:200"`
	Quantity         float64    `json:"quantity" gorm:"type:decimal(12,4);not null"`
	Unit             string     `json:"unit" gorm:"size:20"`
	CostPerUnit      float64    `json:"cost_per_unit" gorm:"type:decimal(12,2);default:0"`
	TotalCost        float64    `json:"total_cost" gorm:"type:decimal(14,2);default:0"`
	Status           string     `json:"status" gorm:"size:20;not null;index"`
	ExpectedDelivery *time.Time `json:"expected_delivery"`
	ActualDelivery   *time.Time `json:"actual_delivery"`
	IdempotencyKey   *string    `json:"idempotency_key,omitempty" gorm:"size:100;uniqueIndex"`
	Notes            string     `json:"notes" gorm:"type:text"`
	ApprovedBy       string     `json:"approved_by" gorm:"size:64"`
	ApprovedAt       *time.Time `json:"approved_at"`
	CreatedBy        string     `json:"created_by" gorm:"size:64"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (PurchaseOrder) TableName() string {
	return "erp_purchase_orders"
}

package entity

import (
	"time"
)

// IndividualProduct status
const (
	IPStatusAvailable    = "available"
	IPStatusSold         = "sold"
	IPStatusDamaged      = "damaged"
	IPStatusInProduction = "in-production"
	IPStatusCompleted    = "completed"
	IPStatusReserved     = "reserved" // held by an order line or a production batch
	IPStatusUsed         = "used"     // consumed as a material of another batch
)

// IndividualProduct one QR-coded physical carpet
type IndividualProduct struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	ProductID      string     `json:"product_id" gorm:"size:36;not null;index"`
	ProductName    string     `json:"product_name" gorm:"size:200"`
	BatchID        string     `json:"batch_id" gorm:"size:36;index"`
	SerialNumber   string     `json:"serial_number" gorm:"size:64;not null;uniqueIndex"`
	QRCode         string     `json:"qr_code" gorm:"size:500"`
	FinalWeight    float64    `json:"final_weight" gorm:"type:decimal(12,4)"`
	FinalThickness float64    `json:"final_thickness" gorm:"type:decimal(12,4)"`
	FinalWidth     float64    `json:"final_width" gorm:"type:decimal(12,4)"`
	FinalHeight    float64    `json:"final_height" gorm:"type:decimal(12,4)"`
	QualityGrade   string     `json:"quality_grade" gorm:"size:5"`
	InspectorName  string     `json:"inspector_name" gorm:"size:100"`
	Status         string     `json:"status" gorm:"size:20;not null;index"`
	ReservedFor    string     `json:"reserved_for" gorm:"size:36;index"` // order item or batch id
	Location       string     `json:"location" gorm:"size:100"`
	Notes          string     `json:"notes" gorm:"type:text"`
	ProductionDate *time.Time `json:"production_date"`
	CompletionDate *time.Time `json:"completion_date"`
	SoldAt         *time.Time `json:"sold_at"`
	CreatedBy      string     `json:"created_by" gorm:"size:64"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (IndividualProduct) TableName() string {
	return "erp_individual_products"
}

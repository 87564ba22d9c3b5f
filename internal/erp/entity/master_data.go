package entity

import (
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Supplier yarn mills, dye houses and backing suppliers
type Supplier struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	SupplierCode  string     `json:"supplier_code" gorm:"size:50;not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"size:200;not null"`
	ContactPerson string     `json:"contact_person" gorm:"size:100"`
	Phone         string     `json:"phone" gorm:"size:20"`
	Email         string     `json:"email" gorm:"size:100"`
	Address       string     `json:"address" gorm:"size:500"`
	City          string     `json:"city" gorm:"size:100"`
	State         string     `json:"state" gorm:"size:100"`
	GSTNumber     string     `json:"gst_number" gorm:"size:20"`
	PaymentTerms  string     `json:"payment_terms" gorm:"size:100"`
	Status        string     `json:"status" gorm:"size:20;not null"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`
}

func (Supplier) TableName() string {
	return "erp_suppliers"
}

// Customer types
const (
	CustomerTypeIndividual = "individual"
	CustomerTypeBusiness   = "business"
)

type Customer struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	CustomerCode  string     `json:"customer_code" gorm:"size:50;not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"size:200;not null"`
	CustomerType  string     `json:"customer_type" gorm:"size:20;not null"`
	CompanyName   string     `json:"company_name" gorm:"size:200"`
	Phone         string     `json:"phone" gorm:"size:20"`
	Email         string     `json:"email" gorm:"size:100"`
	Address       string     `json:"address" gorm:"size:500"`
	City          string     `json:"city" gorm:"size:100"`
	State         string     `json:"state" gorm:"size:100"`
	Pincode       string     `json:"pincode" gorm:"size:10"`
	GSTNumber     string     `json:"gst_number" gorm:"size:20"`
	CreditLimit   float64    `json:"credit_limit" gorm:"type:decimal(14,2);default:0"`
	TotalOrders   int        `json:"total_orders" gorm:"default:0"`
	TotalValue    float64    `json:"total_value" gorm:"type:decimal(14,2);default:0"`
	LastOrderDate *time.Time `json:"last_order_date"`
	Status        string     `json:"status" gorm:"size:20;not null"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`
}

func (Customer) TableName() string {
	return "erp_customers"
}

// Machine status
const (
	MachineStatusActive      = "active"
	MachineStatusMaintenance = "maintenance"
	MachineStatusInactive    = "inactive"
)

// Machine looms, tufting guns, shearing and finishing machines
type Machine struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name" gorm:"size:200;not null;uniqueIndex"`
	MachineType string    `json:"machine_type" gorm:"size:100"`
	Model       string    `json:"model" gorm:"size:100"`
	Location    string    `json:"location" gorm:"size:200"`
	Status      string    `json:"status" gorm:"size:20;not null"`
	Notes       string    `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Machine) TableName() string {
	return "erp_machines"
}

// DropdownOption configurable value lists (colors, patterns, units, categories...)
type DropdownOption struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Category     string    `json:"category" gorm:"size:50;not null;uniqueIndex:idx_dropdown_category_value"`
	Value        string    `json:"value" gorm:"size:200;not null;uniqueIndex:idx_dropdown_category_value"`
	DisplayOrder int       `json:"display_order" gorm:"default:0"`
	IsActive     bool      `json:"is_active"`
	CreatedBy    string    `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (DropdownOption) TableName() string {
	return "erp_dropdown_options"
}

package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Order status
const (
	OrderStatusPending    = "pending"
	OrderStatusAccepted   = "accepted"
	OrderStatusDispatched = "dispatched"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Order customer sales order
type Order struct {
	ID                string     `json:"id" gorm:"primaryKey;size:36"`
	OrderNumber       string     `json:"order_number" gorm:"size:50;not null;uniqueIndex"`
	CustomerID        string     `json:"customer_id" gorm:"size:36;not null;index"`
	CustomerName      string     `json:"customer_name" gorm:"size:200"`
	Status            string     `json:"status" gorm:"size:20;not null;index"`
	OrderDate         time.Time  `json:"order_date"`
	ExpectedDelivery  *time.Time `json:"expected_delivery"`
	Subtotal          float64    `json:"subtotal" gorm:"type:decimal(14,2);default:0"`
	GSTRate           float64    `json:"gst_rate" gorm:"type:decimal(5,2);default:0"`
	GSTAmount         float64    `json:"gst_amount" gorm:"type:decimal(14,2);default:0"`
	DiscountAmount    float64    `json:"discount_amount" gorm:"type:decimal(14,2);default:0"`
	TotalAmount       float64    `json:"total_amount" gorm:"type:decimal(14,2);default:0"`
	PaidAmount        float64    `json:"paid_amount" gorm:"type:decimal(14,2);default:0"`
	OutstandingAmount float64    `json:"outstanding_amount" gorm:"type:decimal(14,2);default:0"`
	ShippingAddress   string     `json:"shipping_address" gorm:"size:500"`
	Notes             string     `json:"notes" gorm:"type:text"`
	AcceptedAt        *time.Time `json:"accepted_at"`
	DispatchedAt      *time.Time `json:"dispatched_at"`
	DeliveredAt       *time.Time `json:"delivered_at"`
	CancelledAt       *time.Time `json:"cancelled_at"`
	CancelReason      string     `json:"cancel_reason" gorm:"size:500"`
	CreatedBy         string     `json:"created_by" gorm:"size:64"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at" gorm:"index"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "erp_orders"
}

// OrderItem ProductType is "product" or "raw_material"
type OrderItem struct {
	ID                         string                      `json:"id" gorm:"primaryKey;size:36"`
	OrderID                    string                      `json:"order_id" gorm:"size:36;not null;index"`
	ProductID                  string                      `json:"product_id" gorm:"size:36;not null"`
	ProductName                string                      `json:"product_name" gorm:"size:200"`
	ProductType                string                      `json:"product_type" gorm:"size:20;not null"`
	Quantity                   int                         `json:"quantity" gorm:"not null"`
	Unit                       string                      `json:"unit" gorm:"size:20"`
	UnitPrice                  float64                     `json:"unit_price" gorm:"type:decimal(14,2);default:0"`
	TotalPrice                 float64                     `json:"total_price" gorm:"type:decimal(14,2);default:0"`
	SelectedIndividualProducts datatypes.JSONSlice[string] `json:"selected_individual_products"`
	CreatedAt                  time.Time                   `json:"created_at"`
	UpdatedAt                  time.Time                   `json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "erp_order_items"
}

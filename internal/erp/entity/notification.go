package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types
const (
	NotifTypeLowStock   = "low_stock"
	NotifTypeProduction = "production"
	NotifTypeOrder      = "order"
	NotifTypePurchase   = "purchase"
	NotifTypeInfo       = "info"
)

// Notification status
const (
	NotifStatusUnread    = "unread"
	NotifStatusRead      = "read"
	NotifStatusDismissed = "dismissed"
)

// Notification priority
const (
	NotifPriorityLow    = "low"
	NotifPriorityMedium = "medium"
	NotifPriorityHigh   = "high"
	NotifPriorityUrgent = "urgent"
)

type Notification struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Type        string         `json:"type" gorm:"size:30;not null;index"`
	Title       string         `json:"title" gorm:"size:200;not null"`
	Message     string         `json:"message" gorm:"type:text"`
	Priority    string         `json:"priority" gorm:"size:20"`
	Status      string         `json:"status" gorm:"size:20;not null;index"`
	Module      string         `json:"module" gorm:"size:30;index"` // production, inventory, orders
	RelatedID   string         `json:"related_id" gorm:"size:36;index"`
	RelatedType string         `json:"related_type" gorm:"size:30"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedBy   string         `json:"created_by" gorm:"size:64"`
	ReadAt      *time.Time     `json:"read_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Notification) TableName() string {
	return "erp_notifications"
}

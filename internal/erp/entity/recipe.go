package entity

import (
	"time"
)

// Recipe bill of materials for 1 SQM of a product
type Recipe struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	ProductID   string    `json:"product_id" gorm:"size:36;not null;uniqueIndex"`
	ProductName string    `json:"product_name" gorm:"size:200"`
	Version     int       `json:"version" gorm:"default:1"`
	Notes       string    `json:"notes" gorm:"type:text"`
	CreatedBy   string    `json:"created_by" gorm:"size:64"`
	UpdatedBy   string    `json:"updated_by" gorm:"size:64"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Materials []RecipeMaterial `json:"materials" gorm:"foreignKey:RecipeID"`
}

func (Recipe) TableName() string {
	return "erp_recipes"
}

// RecipeMaterial quantity is per 1 SQM of the parent product
type RecipeMaterial struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	RecipeID       string    `json:"recipe_id" gorm:"size:36;not null;index"`
	MaterialID     string    `json:"material_id" gorm:"size:36;not null"`
	MaterialName   string    `json:"material_name" gorm:"size:200"`
	MaterialType   string    `json:"material_type" gorm:"size:20;not null"`
	QuantityPerSQM float64   `json:"quantity_per_sqm" gorm:"type:decimal(12,6);not null"`
	Unit           string    `json:"unit" gorm:"size:20"`
	CostPerUnit    float64   `json:"cost_per_unit" gorm:"type:decimal(12,2);default:0"`
	SortOrder      int       `json:"sort_order" gorm:"default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (RecipeMaterial) TableName() string {
	return "erp_recipe_materials"
}

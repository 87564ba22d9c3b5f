package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func create(t *testing.T, db *gorm.DB, v interface{}, what string) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("Failed to seed %s: %v", what, err)
	}
}

// SeedProduct creates an individually tracked product of length x width metres.
func SeedProduct(t *testing.T, db *gorm.DB, name string, length, width float64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:            uuid.NewString(),
		ProductCode:   "PRD-" + uuid.NewString()[:8],
		Name:          name,
		Length:        length,
		Width:         width,
		LengthUnit:    "m",
		WidthUnit:     "m",
		Unit:          "piece",
		StockTracking: entity.StockTrackingIndividual,
		Status:        entity.ProductStatusOutOfStock,
	}
	create(t, db, p, "product")
	return p
}

// SeedRawMaterial creates a raw material holding stock units.
func SeedRawMaterial(t *testing.T, db *gorm.DB, name, unit string, stock, reorderPoint float64) *entity.RawMaterial {
	t.Helper()
	m := &entity.RawMaterial{
		ID:           uuid.NewString(),
		MaterialCode: "RM-" + uuid.NewString()[:8],
		Name:         name,
		Unit:         unit,
		CurrentStock: stock,
		ReorderPoint: reorderPoint,
		CostPerUnit:  100,
	}
	m.RefreshStatus(false)
	create(t, db, m, "raw material")
	return m
}

// SeedRecipe stores a recipe using 0.5 units per SQM of each raw material.
func SeedRecipe(t *testing.T, db *gorm.DB, product *entity.Product, materials ...*entity.RawMaterial) *entity.Recipe {
	t.Helper()
	r := &entity.Recipe{
		ID:          uuid.NewString(),
		ProductID:   product.ID,
		ProductName: product.Name,
		Version:     1,
	}
	create(t, db, r, "recipe")
	for i, m := range materials {
		create(t, db, &entity.RecipeMaterial{
			ID:             uuid.NewString(),
			RecipeID:       r.ID,
			MaterialID:     m.ID,
			MaterialName:   m.Name,
			MaterialType:   entity.ItemTypeRawMaterial,
			QuantityPerSQM: 0.5,
			Unit:           m.Unit,
			CostPerUnit:    m.CostPerUnit,
			SortOrder:      i,
		}, "recipe material")
	}
	return r
}

// SeedUnits creates n available units of product and sets its stock to n.
func SeedUnits(t *testing.T, db *gorm.DB, product *entity.Product, n int) []entity.IndividualProduct {
	t.Helper()
	now := time.Now()
	units := make([]entity.IndividualProduct, 0, n)
	for i := 1; i <= n; i++ {
		units = append(units, entity.IndividualProduct{
			ID:             uuid.NewString(),
			ProductID:      product.ID,
			ProductName:    product.Name,
			SerialNumber:   fmt.Sprintf("%s-%03d", product.ProductCode, i),
			QualityGrade:   "A",
			Status:         entity.IPStatusAvailable,
			CompletionDate: &now,
		})
	}
	create(t, db, &units, "individual products")
	product.CurrentStock = float64(n)
	product.RefreshStatus()
	if err := db.Save(product).Error; err != nil {
		t.Fatalf("Failed to update product stock: %v", err)
	}
	return units
}

func SeedSupplier(t *testing.T, db *gorm.DB, name string) *entity.Supplier {
	t.Helper()
	s := &entity.Supplier{
		ID:           uuid.NewString(),
		SupplierCode: "SUP-" + uuid.NewString()[:8],
		Name:         name,
		Status:       entity.StatusActive,
	}
	create(t, db, s, "supplier")
	return s
}

func SeedCustomer(t *testing.T, db *gorm.DB, name string) *entity.Customer {
	t.Helper()
	c := &entity.Customer{
		ID:           uuid.NewString(),
		CustomerCode: "CUS-" + uuid.NewString()[:8],
		Name:         name,
		CustomerType: entity.CustomerTypeIndividual,
		Status:       entity.StatusActive,
	}
	create(t, db, c, "customer")
	return c
}

func SeedMachine(t *testing.T, db *gorm.DB, name string) *entity.Machine {
	t.Helper()
	m := &entity.Machine{
		ID:     uuid.NewString(),
		Name:   name,
		Status: entity.MachineStatusActive,
	}
	create(t, db, m, "machine")
	return m
}

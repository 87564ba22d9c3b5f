package report

import (
	"testing"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryWorkbook(t *testing.T) {
	materials := []entity.RawMaterial{
		{MaterialCode: "RM-1", Name: "Wool yarn", Unit: "kg", CurrentStock: 10, CostPerUnit: 250, ReorderPoint: 20, Status: "low-stock"},
		{MaterialCode: "RM-2", Name: "Latex", Unit: "litre", CurrentStock: 4, CostPerUnit: 100.5, Status: "in-stock"},
	}
	products := []entity.Product{
		{ProductCode: "PRD-1", Name: "Persian Red", Length: 2, Width: 1.5, LengthUnit: "m", WidthUnit: "m", StockTracking: "individual", CurrentStock: 3, Status: "in-stock"},
	}
	generated := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	f, err := InventoryWorkbook(materials, products, generated)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetRawMaterials, SheetProducts}, f.GetSheetList())

	header, err := f.GetCellValue(SheetRawMaterials, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Code", header)

	name, _ := f.GetCellValue(SheetRawMaterials, "B2")
	assert.Equal(t, "Wool yarn", name)
	value, _ := f.GetCellValue(SheetRawMaterials, "I2")
	assert.Equal(t, "2500", value)
	threshold, _ := f.GetCellValue(SheetRawMaterials, "G2")
	assert.Equal(t, "20", threshold)

	total, _ := f.GetCellValue(SheetRawMaterials, "I4")
	assert.Equal(t, "2902", total)
	label, _ := f.GetCellValue(SheetRawMaterials, "A4")
	assert.Equal(t, "Total", label)

	size, _ := f.GetCellValue(SheetProducts, "D2")
	assert.Equal(t, "2m x 1.5m", size)
	sqm, _ := f.GetCellValue(SheetProducts, "E2")
	assert.Equal(t, "3", sqm)
}

func TestInventoryWorkbookEmpty(t *testing.T) {
	f, err := InventoryWorkbook(nil, nil, time.Now())
	require.NoError(t, err)
	defer f.Close()

	label, _ := f.GetCellValue(SheetRawMaterials, "A2")
	assert.Equal(t, "Total", label)
	rows, err := f.GetRows(SheetProducts)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestInventoryFilename(t *testing.T) {
	assert.Equal(t, "inventory_20240301_0930.xlsx", InventoryFilename(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
}

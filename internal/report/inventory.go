// Package report renders spreadsheet exports.
package report

import (
	"fmt"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/xuri/excelize/v2"
)

const (
	SheetRawMaterials = "Raw Materials"
	SheetProducts     = "Products"
)

var rawMaterialHeaders = []string{
	"Code", "Name", "Category", "Supplier", "Unit", "Current Stock",
	"Reorder Point", "Cost / Unit", "Stock Value", "Status",
}

var productHeaders = []string{
	"Code", "Name", "Category", "Size", "SQM", "Tracking",
	"Current Stock", "Reorder Point", "Status",
}

// InventoryWorkbook builds the stock report: one sheet of raw materials with
// their stock value and one sheet of products.
func InventoryWorkbook(materials []entity.RawMaterial, products []entity.Product, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetRawMaterials); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetProducts); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	writeHeaders(f, SheetRawMaterials, rawMaterialHeaders, header)
	var totalValue float64
	for i, m := range materials {
		row := i + 2
		value := calc.RoundTo(m.CurrentStock*m.CostPerUnit, 2)
		totalValue += value
		setRow(f, SheetRawMaterials, row,
			m.MaterialCode, m.Name, m.Category, m.SupplierName, m.Unit, m.CurrentStock,
			m.LowStockThreshold(), m.CostPerUnit, value, m.Status)
	}
	summary := len(materials) + 2
	f.SetCellValue(SheetRawMaterials, fmt.Sprintf("A%d", summary), "Total")
	f.SetCellValue(SheetRawMaterials, fmt.Sprintf("B%d", summary), fmt.Sprintf("%d materials, generated %s", len(materials), generated.Format("2006-01-02 15:04")))
	f.SetCellValue(SheetRawMaterials, fmt.Sprintf("I%d", summary), calc.RoundTo(totalValue, 2))
	f.SetCellStyle(SheetRawMaterials, fmt.Sprintf("A%d", summary), fmt.Sprintf("J%d", summary), bold)
	setWidths(f, SheetRawMaterials, []float64{22, 28, 14, 20, 8, 14, 14, 12, 14, 14})

	writeHeaders(f, SheetProducts, productHeaders, header)
	for i, p := range products {
		size := ""
		if p.Length > 0 && p.Width > 0 {
			size = fmt.Sprintf("%s%s x %s%s", calc.FormatQuantity(p.Length), p.LengthUnit, calc.FormatQuantity(p.Width), p.WidthUnit)
		}
		setRow(f, SheetProducts, i+2,
			p.ProductCode, p.Name, p.Category, size, calc.RoundTo(p.SQM(), 4), p.StockTracking,
			p.CurrentStock, p.LowStockThreshold(), p.Status)
	}
	setWidths(f, SheetProducts, []float64{22, 28, 14, 18, 10, 12, 14, 14, 14})

	return f, nil
}

// InventoryFilename is the download name of a report generated at t.
func InventoryFilename(t time.Time) string {
	return fmt.Sprintf("inventory_%s.xlsx", t.Format("20060102_1504"))
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) {
	for i, v := range values {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
	}
}

func setWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
}

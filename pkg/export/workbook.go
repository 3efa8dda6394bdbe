// Package export renders board views as spreadsheets.
package export

import (
	"fmt"

	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/xuri/excelize/v2"
)

const capacitySheet = "Capacity"

var capacityHeaders = []string{
	"Date", "Weekday", "Jacket capacity", "Jackets assigned", "Jacket use %",
	"Pants capacity", "Pants assigned", "Pants use %", "Closed",
}

// CapacityWorkbook writes one row per day of the capacity window and
// returns the XLSX file contents.
func CapacityWorkbook(rows []models.CapacityDay) ([]byte, error) {
	const op = "export.CapacityWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", capacitySheet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	offStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "888888"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i, name := range capacityHeaders {
		f.SetCellValue(capacitySheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(capacitySheet, "A1", cellName(len(capacityHeaders), 1), headerStyle)

	for i, r := range rows {
		row := i + 2
		weekday := ""
		if day, err := models.ParseDate(r.Date); err == nil {
			weekday = day.Weekday().String()
		}

		f.SetCellValue(capacitySheet, cellName(1, row), r.Date)
		f.SetCellValue(capacitySheet, cellName(2, row), weekday)
		f.SetCellValue(capacitySheet, cellName(3, row), r.JacketCapacity)
		f.SetCellValue(capacitySheet, cellName(4, row), r.AssignedJackets)
		f.SetCellValue(capacitySheet, cellName(5, row), utilisation(r.AssignedJackets, r.JacketCapacity))
		f.SetCellValue(capacitySheet, cellName(6, row), r.PantsCapacity)
		f.SetCellValue(capacitySheet, cellName(7, row), r.AssignedPants)
		f.SetCellValue(capacitySheet, cellName(8, row), utilisation(r.AssignedPants, r.PantsCapacity))
		f.SetCellValue(capacitySheet, cellName(9, row), closedLabel(r))

		if r.IsClosed || r.IsNonWorkingDay {
			f.SetCellStyle(capacitySheet, cellName(1, row), cellName(len(capacityHeaders), row), offStyle)
		}
	}

	f.SetPanes(capacitySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})
	f.SetColWidth(capacitySheet, "A", "I", 15)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}

func utilisation(assigned, capacity int) float64 {
	if capacity == 0 {
		return 0
	}
	return float64(assigned*100) / float64(capacity)
}

func closedLabel(r models.CapacityDay) string {
	switch {
	case r.IsClosed:
		return "closed"
	case r.IsNonWorkingDay:
		return "non-working"
	default:
		return ""
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

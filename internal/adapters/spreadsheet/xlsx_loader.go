package spreadsheet

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx/v3"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

// Excel stores time-only values as fractions of a day anchored at the epoch.
var excelEpochYears = map[int]struct{}{1899: {}, 1900: {}, 1904: {}}

// XLSXLoader reads OCS exports. The first row of every sheet is the header;
// columns with a blank header are ignored.
type XLSXLoader struct{}

// NewXLSXLoader creates a new workbook loader
func NewXLSXLoader() providers.SpreadsheetLoader {
	return &XLSXLoader{}
}

// Load parses an xlsx file into raw tables, one per sheet, in workbook order.
func (l *XLSXLoader) Load(ctx context.Context, fileName string, data []byte) (*entities.Workbook, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot open %s as a workbook: %v", fileName, err))
	}

	workbook := &entities.Workbook{
		FileName: fileName,
		Sheets:   make([]*entities.SpreadsheetTable, 0, len(file.Sheets)),
	}

	for _, sheet := range file.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := readSheet(sheet, file.Date1904)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("sheet %q of %s is unreadable: %v", sheet.Name, fileName, err))
		}
		workbook.Sheets = append(workbook.Sheets, table)
	}

	log.Debug().Str("file", fileName).Int("sheets", len(workbook.Sheets)).Msg("workbook loaded")
	return workbook, nil
}

type headerColumn struct {
	index int
	label string
}

func readSheet(sheet *xlsx.Sheet, date1904 bool) (*entities.SpreadsheetTable, error) {
	table := &entities.SpreadsheetTable{
		Name:    strings.TrimSpace(sheet.Name),
		Columns: []string{},
		Rows:    []entities.RawRow{},
	}
	if sheet.MaxRow == 0 {
		return table, nil
	}

	var headers []headerColumn
	seen := make(map[string]struct{})
	for col := 0; col < sheet.MaxCol; col++ {
		cell, err := sheet.Cell(0, col)
		if err != nil {
			return nil, err
		}
		label := strings.TrimSpace(cell.String())
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		headers = append(headers, headerColumn{index: col, label: label})
		table.Columns = append(table.Columns, label)
	}

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		row := make(entities.RawRow, len(headers))
		empty := true
		for _, h := range headers {
			cell, err := sheet.Cell(rowIdx, h.index)
			if err != nil {
				return nil, err
			}
			value := cellValue(cell, date1904)
			if value != nil {
				empty = false
			}
			row[h.label] = value
		}
		if !empty {
			table.Rows = append(table.Rows, row)
		}
	}

	return table, nil
}

// cellValue converts a cell to a Go value: nil for blanks, int64 or float64
// for numbers, bool, formatted text for dates and times, string otherwise.
func cellValue(cell *xlsx.Cell, date1904 bool) interface{} {
	if cell == nil || cell.Value == "" {
		return nil
	}

	switch cell.Type() {
	case xlsx.CellTypeBool:
		return cell.Bool()
	case xlsx.CellTypeNumeric:
		if cell.IsTime() {
			if t, err := cell.GetTime(date1904); err == nil {
				return formatCellTime(t)
			}
		}
		f, err := cell.Float()
		if err != nil {
			return cell.Value
		}
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return int64(f)
		}
		return f
	default:
		return cell.String()
	}
}

func formatCellTime(t time.Time) string {
	if _, timeOnly := excelEpochYears[t.Year()]; timeOnly {
		return t.Format("15:04")
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006/01/02")
	}
	return t.Format("2006/01/02 15:04")
}

package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

// doctorTitleSuffix is the honorific OCS appends to attending doctor names.
const doctorTitleSuffix = "교수님"

var quoteReplacer = strings.NewReplacer(
	"'", "",
	"\"", "",
	"‘", "",
	"’", "",
	"“", "",
	"”", "",
)

// Standardizer cleans raw sheets so rows can be compared by value.
type Standardizer struct{}

// NewStandardizer creates a new standardizer
func NewStandardizer() *Standardizer {
	return &Standardizer{}
}

// Standardize returns a copy of table with every cell coerced to text and
// the patient id, patient name and doctor columns normalized. Rows without a
// patient id are dropped. When a required column is missing the table is
// returned unchanged with ok=false. Standardizing an already standardized
// table yields an equal table.
func (s *Standardizer) Standardize(table *entities.SpreadsheetTable) (*entities.SpreadsheetTable, bool) {
	if table == nil || !table.HasColumns(entities.RequiredColumns...) {
		return table, false
	}

	columns := make([]string, len(table.Columns))
	copy(columns, table.Columns)

	out := &entities.SpreadsheetTable{
		Name:    table.Name,
		Columns: columns,
		Rows:    make([]entities.RawRow, 0, len(table.Rows)),
	}

	for _, raw := range table.Rows {
		row := make(entities.RawRow, len(columns))
		for _, col := range columns {
			row[col] = CellText(raw[col])
		}

		id := NormalizePatientID(row[entities.ColumnPatientID].(string))
		if id == "" {
			continue
		}
		row[entities.ColumnPatientID] = id
		row[entities.ColumnPatientName] = NormalizePatientName(row[entities.ColumnPatientName].(string))
		row[entities.ColumnDoctor] = NormalizeDoctorName(row[entities.ColumnDoctor].(string))

		out.Rows = append(out.Rows, row)
	}

	return out, true
}

// StandardizeSheet standardizes table and resolves its department from the
// sheet name.
func (s *Standardizer) StandardizeSheet(table *entities.SpreadsheetTable) (entities.StandardizedSheet, bool) {
	cleaned, ok := s.Standardize(table)
	if !ok {
		return entities.StandardizedSheet{}, false
	}

	dept, _ := entities.ResolveSheetDepartment(cleaned.Name)
	sheet := entities.StandardizedSheet{
		Name:       cleaned.Name,
		Department: dept,
		Columns:    cleaned.Columns,
		Rows:       make([]entities.StandardizedRow, 0, len(cleaned.Rows)),
	}
	for _, raw := range cleaned.Rows {
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			values[k] = CellText(v)
		}
		sheet.Rows = append(sheet.Rows, entities.StandardizedRow{
			PatientID:   values[entities.ColumnPatientID],
			PatientName: values[entities.ColumnPatientName],
			DoctorName:  values[entities.ColumnDoctor],
			Values:      values,
		})
	}
	return sheet, true
}

// MissingColumns lists the required columns table lacks.
func MissingColumns(table *entities.SpreadsheetTable) []string {
	var missing []string
	for _, col := range entities.RequiredColumns {
		if !table.HasColumns(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// CellText renders a loaded cell value as text. Absent values are empty.
func CellText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return norm.NFC.String(t)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006/01/02")
		}
		return t.Format("2006/01/02 15:04")
	case fmt.Stringer:
		return norm.NFC.String(t.String())
	default:
		return norm.NFC.String(fmt.Sprint(t))
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NormalizePatientID trims the id, folds full-width digits and left-pads it
// with zeros to PatientIDWidth. Longer ids are kept whole.
func NormalizePatientID(id string) string {
	id = strings.TrimSpace(width.Narrow.String(id))
	if id == "" {
		return ""
	}
	if n := utf8.RuneCountInString(id); n < entities.PatientIDWidth {
		id = strings.Repeat("0", entities.PatientIDWidth-n) + id
	}
	return id
}

// NormalizePatientName trims surrounding whitespace.
func NormalizePatientName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// NormalizeDoctorName trims the name and strips the honorific suffix and
// quote characters until nothing changes. A name consisting only of the
// honorific is kept.
func NormalizeDoctorName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	for {
		next := strings.TrimSpace(name)
		if trimmed := strings.TrimSpace(strings.TrimSuffix(next, doctorTitleSuffix)); trimmed != "" {
			next = trimmed
		}
		next = strings.TrimSpace(quoteReplacer.Replace(next))
		if next == name {
			return name
		}
		name = next
	}
}

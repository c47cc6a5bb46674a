package entities

// Column labels used by OCS schedule exports.
const (
	ColumnPatientName   = "환자명"
	ColumnPatientID     = "진료번호"
	ColumnDoctor        = "예약의사"
	ColumnTreatment     = "진료내역"
	ColumnReserveDate   = "예약일시"
	ColumnReserveTime   = "예약시간"
	ColumnSheet         = "시트"
	ColumnRegisteredDep = "등록과"
)

// RequiredColumns must all be present for a sheet to be standardized.
var RequiredColumns = []string{ColumnPatientName, ColumnPatientID, ColumnDoctor}

// PatientIDWidth is the zero-padded width of a standardized patient id.
const PatientIDWidth = 8

// RawRow is one spreadsheet row keyed by column label. Values are whatever
// the loader produced: strings, numbers, booleans, times or nil.
type RawRow map[string]interface{}

// SpreadsheetTable is one sheet of an uploaded workbook.
type SpreadsheetTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []RawRow `json:"rows"`
}

// HasColumns reports whether every label in cols is a column of the table.
func (t *SpreadsheetTable) HasColumns(cols ...string) bool {
	present := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = struct{}{}
	}
	for _, c := range cols {
		if _, ok := present[c]; !ok {
			return false
		}
	}
	return true
}

// Workbook is an ordered set of sheets loaded from one file.
type Workbook struct {
	FileName string              `json:"file_name"`
	Sheets   []*SpreadsheetTable `json:"sheets"`
}

// StandardizedRow is a cleaned spreadsheet row. Values holds every column as
// text; the three matching fields are also lifted out.
type StandardizedRow struct {
	PatientID   string            `json:"patient_id"`
	PatientName string            `json:"patient_name"`
	DoctorName  string            `json:"doctor_name"`
	Values      map[string]string `json:"values"`
}

// Get returns the text value of a column, or "" if absent.
func (r StandardizedRow) Get(column string) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[column]
}

// StandardizedSheet is a standardized table together with its resolved
// department. Department is empty when the sheet name matched no keyword.
type StandardizedSheet struct {
	Name       string            `json:"name"`
	Department Department        `json:"department,omitempty"`
	Columns    []string          `json:"columns"`
	Rows       []StandardizedRow `json:"rows"`
}

// SkippedSheet records a sheet excluded from matching and why.
type SkippedSheet struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

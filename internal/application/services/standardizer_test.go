package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/application/services"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

func rawSurgeryTable() *entities.SpreadsheetTable {
	return &entities.SpreadsheetTable{
		Name: "구강악안면외과",
		Columns: []string{
			entities.ColumnPatientName, entities.ColumnPatientID, entities.ColumnDoctor,
			entities.ColumnTreatment, entities.ColumnReserveDate, entities.ColumnReserveTime,
		},
		Rows: []entities.RawRow{
			{"환자명": " 홍길동 ", "진료번호": "01234", "예약의사": "김교수 교수님", "진료내역": "발치", "예약일시": "2024/05/01", "예약시간": "09:00"},
			{"환자명": "이몽룡", "진료번호": int64(5678), "예약의사": "“박교수”", "예약일시": "2024/05/01", "예약시간": "14:30"},
			{"환자명": "성춘향", "진료번호": "   ", "예약의사": "최교수"},
			{"환자명": "변학도", "진료번호": nil, "예약의사": "최교수"},
			{"환자명": "월매", "진료번호": 123456789.0, "예약의사": "'정교수'"},
		},
	}
}

func TestStandardizer_Standardize(t *testing.T) {
	s := services.NewStandardizer()

	out, ok := s.Standardize(rawSurgeryTable())
	require.True(t, ok)
	require.Len(t, out.Rows, 3, "rows without a patient id are dropped")

	assert.Equal(t, "홍길동", out.Rows[0][entities.ColumnPatientName])
	assert.Equal(t, "00001234", out.Rows[0][entities.ColumnPatientID])
	assert.Equal(t, "김교수", out.Rows[0][entities.ColumnDoctor])
	assert.Equal(t, "발치", out.Rows[0][entities.ColumnTreatment])

	assert.Equal(t, "00005678", out.Rows[1][entities.ColumnPatientID])
	assert.Equal(t, "박교수", out.Rows[1][entities.ColumnDoctor])
	assert.Equal(t, "", out.Rows[1][entities.ColumnTreatment], "absent cells become empty text")

	assert.Equal(t, "123456789", out.Rows[2][entities.ColumnPatientID], "longer ids are not truncated")
	assert.Equal(t, "정교수", out.Rows[2][entities.ColumnDoctor])
}

func TestStandardizer_Idempotent(t *testing.T) {
	s := services.NewStandardizer()

	once, ok := s.Standardize(rawSurgeryTable())
	require.True(t, ok)
	twice, ok := s.Standardize(once)
	require.True(t, ok)

	assert.Equal(t, once, twice)
}

func TestStandardizer_NotStandardizable(t *testing.T) {
	s := services.NewStandardizer()
	table := &entities.SpreadsheetTable{
		Name:    "통계",
		Columns: []string{entities.ColumnPatientName, "비고"},
		Rows:    []entities.RawRow{{"환자명": "홍길동", "비고": 1}},
	}

	out, ok := s.Standardize(table)
	assert.False(t, ok)
	assert.Same(t, table, out)
	assert.Equal(t, []string{entities.ColumnPatientID, entities.ColumnDoctor}, services.MissingColumns(table))
}

func TestStandardizer_EmptyAfterDrop(t *testing.T) {
	s := services.NewStandardizer()
	table := &entities.SpreadsheetTable{
		Name:    "교정",
		Columns: entities.RequiredColumns,
		Rows:    []entities.RawRow{{"환자명": "홍길동", "진료번호": "", "예약의사": "김교수"}},
	}

	out, ok := s.Standardize(table)
	require.True(t, ok)
	assert.NotNil(t, out.Rows)
	assert.Empty(t, out.Rows)
}

func TestStandardizer_StandardizeSheetResolvesDepartment(t *testing.T) {
	s := services.NewStandardizer()

	sheet, ok := s.StandardizeSheet(rawSurgeryTable())
	require.True(t, ok)
	assert.Equal(t, entities.DeptOralSurgery, sheet.Department)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "00001234", sheet.Rows[0].PatientID)
	assert.Equal(t, "홍길동", sheet.Rows[0].PatientName)
	assert.Equal(t, "김교수", sheet.Rows[0].DoctorName)
	assert.Equal(t, "09:00", sheet.Rows[0].Get(entities.ColumnReserveTime))
}

func TestNormalizePatientID_Padding(t *testing.T) {
	for _, id := range []string{"1", "12", "1234", "0001234", "12345678"} {
		got := services.NormalizePatientID(id)
		assert.Len(t, got, entities.PatientIDWidth, id)
		assert.True(t, len(got) >= len(id) && got[len(got)-len(id):] == id, id)
	}

	assert.Equal(t, "123456789", services.NormalizePatientID("123456789"))
	assert.Equal(t, "", services.NormalizePatientID("  "))
	assert.Equal(t, "00001234", services.NormalizePatientID(" １２３４ "), "full-width digits are folded")
}

func TestNormalizeDoctorName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"김교수 교수님", "김교수"},
		{"  김교수  ", "김교수"},
		{"'김교수'", "김교수"},
		{"“김교수 교수님”", "김교수"},
		{"‘김교수님’", "김"},
		{"교수님", "교수님"},
		{"\"\"", ""},
	}
	for _, tt := range tests {
		got := services.NormalizeDoctorName(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, got, services.NormalizeDoctorName(got), "second pass changes %q", tt.in)
	}
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "", services.CellText(nil))
	assert.Equal(t, "1234", services.CellText(1234.0))
	assert.Equal(t, "12.5", services.CellText(12.5))
	assert.Equal(t, "42", services.CellText(42))
	assert.Equal(t, "true", services.CellText(true))
	assert.Equal(t, "2024/05/01", services.CellText(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024/05/01 09:30", services.CellText(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))
}

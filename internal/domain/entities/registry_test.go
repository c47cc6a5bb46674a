package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlag(t *testing.T) {
	truthy := []interface{}{true, "True", "true", " TRUE ", "1", float64(1), 1}
	for _, v := range truthy {
		assert.True(t, ParseFlag(v), "%#v", v)
	}
	falsy := []interface{}{nil, false, "False", "false", "", "no", float64(0), 2, []string{"true"}}
	for _, v := range falsy {
		assert.False(t, ParseFlag(v), "%#v", v)
	}
}

func TestDecodePatientRecord(t *testing.T) {
	t.Run("top level flags with mixed spellings", func(t *testing.T) {
		p := DecodePatientRecord("u1", "p1", map[string]interface{}{
			"환자이름": " 홍길동 ",
			"진료번호": "1234",
			"외과":   "True",
			"보철":   true,
			"교정":   "false",
		})

		assert.Equal(t, "홍길동", p.Name)
		assert.Equal(t, "1234", p.PatientID)
		assert.Equal(t, "u1", p.OwnerKey)
		assert.Equal(t, []Department{DeptOralSurgery, DeptProsthodontics}, p.Departments.List())
	})

	t.Run("nested flags", func(t *testing.T) {
		p := DecodePatientRecord("u1", "p2", map[string]interface{}{
			"name":        "김철수",
			"patient_id":  float64(5678),
			"departments": map[string]interface{}{"소치": "true"},
		})

		assert.Equal(t, "5678", p.PatientID)
		assert.True(t, p.Departments.Has(DeptPediatric))
	})

	t.Run("malformed flags are false", func(t *testing.T) {
		p := DecodePatientRecord("u1", "p3", map[string]interface{}{
			"환자이름":        "이영희",
			"진료번호":        "1",
			"departments": "not-a-map",
			"외과":          map[string]interface{}{"x": 1},
		})

		assert.Empty(t, p.Departments.List())
	})
}

func TestDecodeUserRecord_CalendarToken(t *testing.T) {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	u := DecodeUserRecord("u1", map[string]interface{}{
		"name":   "학생",
		"email":  "s@example.com",
		"number": float64(2024001),
		"google_calendar_token": map[string]interface{}{
			"access_token": "abc",
			"expiry":       expiry.Format(time.RFC3339),
		},
	})

	assert.Equal(t, "2024001", u.Number)
	if assert.NotNil(t, u.CalendarToken) {
		assert.True(t, u.CalendarToken.Usable(expiry.Add(-time.Hour)))
		assert.False(t, u.CalendarToken.Usable(expiry.Add(time.Hour)))
	}

	missing := DecodeUserRecord("u2", map[string]interface{}{"google_calendar_token": "garbage"})
	assert.Nil(t, missing.CalendarToken)
	assert.False(t, missing.CalendarToken.Usable(time.Now()))
}

func TestDecodeDoctorRecord(t *testing.T) {
	d := DecodeDoctorRecord("d1", map[string]interface{}{
		"name":       " 김교수 ",
		"email":      "kim@example.com",
		"department": "구강악안면외과",
	})

	assert.Equal(t, "김교수", d.Name)
	assert.Equal(t, DeptOralSurgery, d.Department)
}

func TestEncodePatientRecord_RoundTripsFlags(t *testing.T) {
	in := PatientRecord{Name: "홍길동", PatientID: "1234", Departments: DepartmentFlags{DeptOralSurgery: true}}
	out := DecodePatientRecord("u", "k", EncodePatientRecord(in))
	assert.Equal(t, in.Departments.List(), out.Departments.List())
	assert.Equal(t, in.PatientID, out.PatientID)
}

package services

import (
	"strings"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

// Matcher attributes standardized rows to registered users and doctors.
type Matcher struct{}

// NewMatcher creates a new matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match runs user and doctor matching against one registry snapshot. Sheets
// are scanned in workbook order and recipients in snapshot order, so equal
// inputs always give equal output.
func (m *Matcher) Match(sheets []entities.StandardizedSheet, snapshot *entities.RegistrySnapshot) *entities.MatchResult {
	result := &entities.MatchResult{
		Users:   []entities.UserMatch{},
		Doctors: []entities.DoctorMatch{},
	}
	if snapshot == nil {
		return result
	}

	for _, user := range snapshot.Users {
		if match, ok := m.matchUser(sheets, user, snapshot.PatientsByUser[user.Key]); ok {
			result.Users = append(result.Users, match)
		}
	}
	for _, doctor := range snapshot.Doctors {
		if match, ok := m.matchDoctor(sheets, doctor); ok {
			result.Doctors = append(result.Doctors, match)
		}
	}
	return result
}

type registeredPatient struct {
	name    string
	id      string
	matched bool
}

// matchUser records at most one row per registered patient: the first row,
// in sheet then row order, whose name and padded id both equal the
// patient's. Patients with no department flag never match.
func (m *Matcher) matchUser(sheets []entities.StandardizedSheet, user entities.UserRecord, patients []entities.PatientRecord) (entities.UserMatch, bool) {
	registered := registeredDepartments(patients)
	if len(registered) == 0 {
		return entities.UserMatch{}, false
	}

	targets := make(map[entities.Department]struct{})
	for _, d := range registered {
		for _, searchable := range entities.SearchableDepartments(d) {
			targets[searchable] = struct{}{}
		}
	}

	candidates := make([]*registeredPatient, 0, len(patients))
	for _, p := range patients {
		if len(p.Departments.List()) == 0 {
			continue
		}
		id := NormalizePatientID(p.PatientID)
		if id == "" {
			continue
		}
		candidates = append(candidates, &registeredPatient{
			name: NormalizePatientName(p.Name),
			id:   id,
		})
	}

	label := joinDepartments(registered)
	var rows []entities.MatchedRow
	remaining := len(candidates)

	for _, sheet := range sheets {
		if remaining == 0 {
			break
		}
		if _, ok := targets[sheet.Department]; !ok || sheet.Department == "" {
			continue
		}
		for _, row := range sheet.Rows {
			for _, c := range candidates {
				if c.matched || c.name != row.PatientName || c.id != row.PatientID {
					continue
				}
				c.matched = true
				remaining--
				rows = append(rows, entities.MatchedRow{
					Sheet:                 sheet.Name,
					Department:            sheet.Department,
					Row:                   row,
					RegisteredDepartments: label,
				})
				break
			}
		}
	}

	if len(rows) == 0 {
		return entities.UserMatch{}, false
	}
	return entities.UserMatch{User: user, Departments: registered, Rows: rows}, true
}

// matchDoctor keeps every row booked under the doctor's exact name in the
// sheets searched for the doctor's department.
func (m *Matcher) matchDoctor(sheets []entities.StandardizedSheet, doctor entities.DoctorRecord) (entities.DoctorMatch, bool) {
	if doctor.Name == "" || doctor.Department == "" {
		return entities.DoctorMatch{}, false
	}

	targets := make(map[entities.Department]struct{})
	for _, d := range entities.SearchableDepartments(doctor.Department) {
		targets[d] = struct{}{}
	}

	var rows []entities.MatchedRow
	for _, sheet := range sheets {
		if _, ok := targets[sheet.Department]; !ok || sheet.Department == "" {
			continue
		}
		for _, row := range sheet.Rows {
			if row.DoctorName == doctor.Name {
				rows = append(rows, entities.MatchedRow{
					Sheet:      sheet.Name,
					Department: sheet.Department,
					Row:        row,
				})
			}
		}
	}

	if len(rows) == 0 {
		return entities.DoctorMatch{}, false
	}
	return entities.DoctorMatch{Doctor: doctor, Department: doctor.Department, Rows: rows}, true
}

// registeredDepartments is the union of the patients' flags in canonical
// order.
func registeredDepartments(patients []entities.PatientRecord) []entities.Department {
	union := entities.DepartmentFlags{}
	for _, p := range patients {
		for _, d := range p.Departments.List() {
			union[d] = true
		}
	}
	return union.List()
}

func joinDepartments(depts []entities.Department) string {
	parts := make([]string, len(depts))
	for i, d := range depts {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

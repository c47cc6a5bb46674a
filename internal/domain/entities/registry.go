package entities

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Registry scopes.
const (
	ScopeUsers         = "users"
	ScopeDoctorUsers   = "doctor_users"
	ScopePatientPrefix = "patients/"
)

// PatientScope returns the registry scope holding a user's patients.
func PatientScope(userKey string) string {
	return ScopePatientPrefix + userKey
}

// RecordKind tags the variant of a RegistryRecord.
type RecordKind string

const (
	RecordKindUser    RecordKind = "user"
	RecordKindDoctor  RecordKind = "doctor"
	RecordKindPatient RecordKind = "patient"
)

// RegistryRecord is a typed record decoded at the registry boundary.
type RegistryRecord interface {
	Kind() RecordKind
	RecordKey() string
}

// CalendarToken holds stored OAuth credentials for a calendar account.
type CalendarToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// Usable reports whether the token is present and not expired at now.
func (t *CalendarToken) Usable(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.Expiry.IsZero() || t.Expiry.After(now)
}

// UserRecord is a student or staff account.
type UserRecord struct {
	Key           string         `json:"key"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Number        string         `json:"number"`
	CalendarToken *CalendarToken `json:"-"`
}

func (u UserRecord) Kind() RecordKind  { return RecordKindUser }
func (u UserRecord) RecordKey() string { return u.Key }

// DoctorRecord is a registered doctor account with a single department.
type DoctorRecord struct {
	Key           string         `json:"key"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Department    Department     `json:"department"`
	CalendarToken *CalendarToken `json:"-"`
}

func (d DoctorRecord) Kind() RecordKind  { return RecordKindDoctor }
func (d DoctorRecord) RecordKey() string { return d.Key }

// DepartmentFlags is the set of departments a patient is registered under.
type DepartmentFlags map[Department]bool

// Has reports whether dept is flagged.
func (f DepartmentFlags) Has(dept Department) bool {
	return f[dept]
}

// List returns the flagged departments in canonical order.
func (f DepartmentFlags) List() []Department {
	var out []Department
	for _, d := range AllDepartments {
		if f[d] {
			out = append(out, d)
		}
	}
	return out
}

// PatientRecord is a patient registered by a user.
type PatientRecord struct {
	Key         string          `json:"key"`
	OwnerKey    string          `json:"owner_key"`
	Name        string          `json:"name"`
	PatientID   string          `json:"patient_id"`
	Departments DepartmentFlags `json:"departments"`
}

func (p PatientRecord) Kind() RecordKind  { return RecordKindPatient }
func (p PatientRecord) RecordKey() string { return p.Key }

// RegistrySnapshot is the registry state read once at the start of a cycle.
// Users and Doctors are ordered by key.
type RegistrySnapshot struct {
	Users          []UserRecord
	Doctors        []DoctorRecord
	PatientsByUser map[string][]PatientRecord
}

// DecodeUserRecord builds a UserRecord from a raw registry value. Missing or
// mistyped fields become zero values.
func DecodeUserRecord(key string, raw map[string]interface{}) UserRecord {
	return UserRecord{
		Key:           key,
		Name:          stringField(raw, "name"),
		Email:         stringField(raw, "email"),
		Number:        stringField(raw, "number"),
		CalendarToken: decodeCalendarToken(raw["google_calendar_token"]),
	}
}

// DecodeDoctorRecord builds a DoctorRecord from a raw registry value.
func DecodeDoctorRecord(key string, raw map[string]interface{}) DoctorRecord {
	dept, _ := ParseDepartment(stringField(raw, "department"))
	return DoctorRecord{
		Key:           key,
		Name:          strings.TrimSpace(stringField(raw, "name")),
		Email:         stringField(raw, "email"),
		Department:    dept,
		CalendarToken: decodeCalendarToken(raw["google_calendar_token"]),
	}
}

// DecodePatientRecord builds a PatientRecord from a raw registry value.
// Department flags may appear as top-level keys named after canonical
// departments or nested under "departments".
func DecodePatientRecord(ownerKey, key string, raw map[string]interface{}) PatientRecord {
	flags := DepartmentFlags{}
	nested, _ := raw["departments"].(map[string]interface{})
	for _, d := range AllDepartments {
		if ParseFlag(raw[string(d)]) || (nested != nil && ParseFlag(nested[string(d)])) {
			flags[d] = true
		}
	}
	return PatientRecord{
		Key:         key,
		OwnerKey:    ownerKey,
		Name:        strings.TrimSpace(stringField(raw, "환자이름", "name")),
		PatientID:   strings.TrimSpace(stringField(raw, "진료번호", "patient_id")),
		Departments: flags,
	}
}

// EncodePatientRecord is the inverse of DecodePatientRecord.
func EncodePatientRecord(p PatientRecord) map[string]interface{} {
	out := map[string]interface{}{
		"환자이름": p.Name,
		"진료번호": p.PatientID,
	}
	for _, d := range AllDepartments {
		out[string(d)] = p.Departments.Has(d)
	}
	return out
}

// ParseFlag normalizes the boolean spellings found in registry data.
func ParseFlag(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "y", "yes":
			return true
		}
	case float64:
		return t == 1
	case int:
		return t == 1
	case int64:
		return t == 1
	}
	return false
}

// SortedKeys returns the keys of a registry scope in ascending order.
func SortedKeys(children map[string]map[string]interface{}) []string {
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringField(raw map[string]interface{}, names ...string) string {
	for _, name := range names {
		v, ok := raw[name]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case float64:
			if t == math.Trunc(t) {
				return fmt.Sprintf("%.0f", t)
			}
			return fmt.Sprintf("%v", t)
		default:
			return fmt.Sprintf("%v", t)
		}
	}
	return ""
}

func decodeCalendarToken(v interface{}) *CalendarToken {
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	tok := &CalendarToken{
		AccessToken:  stringField(raw, "access_token", "token"),
		RefreshToken: stringField(raw, "refresh_token"),
		TokenType:    stringField(raw, "token_type"),
	}
	if exp := stringField(raw, "expiry"); exp != "" {
		if parsed, err := time.Parse(time.RFC3339, exp); err == nil {
			tok.Expiry = parsed
		}
	}
	if tok.AccessToken == "" {
		return nil
	}
	return tok
}

package entities

import (
	"fmt"
	"strings"
)

// MatchedRow is a standardized row attributed to a recipient.
type MatchedRow struct {
	Sheet      string          `json:"sheet"`
	Department Department      `json:"department"`
	Row        StandardizedRow `json:"row"`
	// RegisteredDepartments is the comma-joined list of the user's registered
	// departments. Empty for doctor matches.
	RegisteredDepartments string `json:"registered_departments,omitempty"`
}

// RecipientKind distinguishes user and doctor recipients.
type RecipientKind string

const (
	RecipientUser   RecipientKind = "user"
	RecipientDoctor RecipientKind = "doctor"
)

// RecipientRef names one recipient by kind and registry key. User and doctor
// keys live in separate scopes, so a bare key can name two people.
type RecipientRef struct {
	Kind RecipientKind
	Key  string
}

// String renders the ref as "kind:key".
func (r RecipientRef) String() string {
	return string(r.Kind) + ":" + r.Key
}

// ParseRecipientRef parses "user:<key>" or "doctor:<key>".
func ParseRecipientRef(s string) (RecipientRef, error) {
	kind, key, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || strings.TrimSpace(key) == "" {
		return RecipientRef{}, fmt.Errorf("recipient %q must be user:<key> or doctor:<key>", s)
	}
	switch RecipientKind(kind) {
	case RecipientUser, RecipientDoctor:
		return RecipientRef{Kind: RecipientKind(kind), Key: strings.TrimSpace(key)}, nil
	default:
		return RecipientRef{}, fmt.Errorf("recipient %q has unknown kind %q", s, kind)
	}
}

// UserMatch is a user together with the rows matched to their patients.
type UserMatch struct {
	User        UserRecord   `json:"user"`
	Departments []Department `json:"departments"`
	Rows        []MatchedRow `json:"rows"`
}

// DoctorMatch is a doctor together with every row booked under their name.
type DoctorMatch struct {
	Doctor     DoctorRecord `json:"doctor"`
	Department Department   `json:"department"`
	Rows       []MatchedRow `json:"rows"`
}

// MatchResult is the matcher output for one cycle.
type MatchResult struct {
	Users   []UserMatch   `json:"users"`
	Doctors []DoctorMatch `json:"doctors"`
}

// Recipient is the flattened view of a match used by the dispatcher.
type Recipient struct {
	Key           string
	Kind          RecipientKind
	Name          string
	Email         string
	Number        string
	Department    Department
	Rows          []MatchedRow
	CalendarToken *CalendarToken
}

// Ref returns the kind-qualified reference of the recipient.
func (r Recipient) Ref() RecipientRef {
	return RecipientRef{Kind: r.Kind, Key: r.Key}
}

// Recipients flattens the result into dispatch order: users first, then
// doctors, each in matcher order.
func (m MatchResult) Recipients() []Recipient {
	out := make([]Recipient, 0, len(m.Users)+len(m.Doctors))
	for _, u := range m.Users {
		out = append(out, Recipient{
			Key:           u.User.Key,
			Kind:          RecipientUser,
			Name:          u.User.Name,
			Email:         u.User.Email,
			Number:        u.User.Number,
			Rows:          u.Rows,
			CalendarToken: u.User.CalendarToken,
		})
	}
	for _, d := range m.Doctors {
		out = append(out, Recipient{
			Key:           d.Doctor.Key,
			Kind:          RecipientDoctor,
			Name:          d.Doctor.Name,
			Email:         d.Doctor.Email,
			Department:    d.Department,
			Rows:          d.Rows,
			CalendarToken: d.Doctor.CalendarToken,
		})
	}
	return out
}

package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

var mailColumns = []string{
	entities.ColumnPatientName,
	entities.ColumnPatientID,
	entities.ColumnDoctor,
	entities.ColumnTreatment,
	entities.ColumnReserveDate,
	entities.ColumnReserveTime,
}

var mailTemplate = template.Must(template.New("ocs-mail").Parse(`<p>{{.Greeting}}</p>
<table border="1" cellpadding="4" cellspacing="0" style="border-collapse:collapse">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- if .Lines}}
<pre>{{range .Lines}}{{.}}
{{end}}</pre>
{{- end}}
`))

type mailView struct {
	Greeting string
	Columns  []string
	Rows     [][]string
	Lines    []string
}

// MailRenderer turns a recipient's matched rows into a notification email.
type MailRenderer struct{}

// NewMailRenderer creates a new renderer
func NewMailRenderer() *MailRenderer {
	return &MailRenderer{}
}

// Render builds the message for one recipient. The HTML body carries the
// row table; the plain body carries one copy-paste line per row.
func (r *MailRenderer) Render(recipient entities.Recipient, fileName string) (*entities.MailMessage, error) {
	columns := mailColumns
	if recipient.Kind == entities.RecipientUser {
		columns = append(append([]string{}, mailColumns...), entities.ColumnRegisteredDep)
	}

	view := mailView{
		Greeting: fmt.Sprintf("%s님, %s 파일에서 확인된 예약 %d건입니다.", recipient.Name, fileName, len(recipient.Rows)),
		Columns:  columns,
		Rows:     make([][]string, 0, len(recipient.Rows)),
		Lines:    make([]string, 0, len(recipient.Rows)),
	}

	for _, matched := range recipient.Rows {
		cells := make([]string, 0, len(columns))
		for _, col := range columns {
			if col == entities.ColumnRegisteredDep {
				cells = append(cells, matched.RegisteredDepartments)
				continue
			}
			cells = append(cells, matched.Row.Get(col))
		}
		view.Rows = append(view.Rows, cells)
		view.Lines = append(view.Lines, PlainLine(matched.Row, recipient))
	}

	var html bytes.Buffer
	if err := mailTemplate.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("failed to render mail for %s: %w", recipient.Key, err)
	}

	return &entities.MailMessage{
		To:       recipient.Email,
		ToName:   recipient.Name,
		Subject:  mailSubject(recipient, fileName),
		HTMLBody: html.String(),
		TextBody: strings.Join(view.Lines, "\n"),
	}, nil
}

func mailSubject(recipient entities.Recipient, fileName string) string {
	if recipient.Kind == entities.RecipientDoctor {
		return fmt.Sprintf("[OCS] %s 예약 환자 알림 (%s)", fileName, recipient.Department)
	}
	return fmt.Sprintf("[OCS] %s 등록 환자 예약 알림", fileName)
}

// PlainLine encodes a row as
// doctor,MMDD,HHMM,patient name,patient id,recipient number,recipient name.
func PlainLine(row entities.StandardizedRow, recipient entities.Recipient) string {
	return strings.Join([]string{
		row.DoctorName,
		monthDay(row.Get(entities.ColumnReserveDate)),
		hourMinute(row.Get(entities.ColumnReserveTime)),
		row.PatientName,
		row.PatientID,
		recipient.Number,
		recipient.Name,
	}, ",")
}

// monthDay reduces a YYYY/MM/DD style date to MMDD. Unrecognized input
// yields an empty string.
func monthDay(date string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(date), func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if len(fields) >= 3 {
		return pad2(fields[1]) + pad2(fields[2])
	}
	if len(fields) >= 1 && len(fields[0]) >= 8 {
		return fields[0][4:8]
	}
	return ""
}

// hourMinute reduces HH:MM, HH:MM:SS or HHMM to HHMM.
func hourMinute(clock string) string {
	minutes, ok := parseClock(clock)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d%02d", minutes/60, minutes%60)
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	if len(s) > 2 {
		return s[len(s)-2:]
	}
	return s
}

package entities

import "time"

// DispatchMode selects which recipients a dispatch targets.
type DispatchMode string

const (
	DispatchModeManual    DispatchMode = "manual"
	DispatchModeAutomatic DispatchMode = "automatic"
)

// DispatchRequest describes one dispatch. Recipients is only read in manual
// mode and holds kind-qualified ids such as "user:u1" or "doctor:d1".
type DispatchRequest struct {
	Mode       DispatchMode `json:"mode"`
	Recipients []string     `json:"recipients,omitempty"`
}

// NotificationChannel represents the delivery channel
type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "email"
	ChannelCalendar NotificationChannel = "calendar"
)

// NotificationStatus represents the outcome of one channel for one recipient
type NotificationStatus string

const (
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusFailed    NotificationStatus = "failed"
	NotificationStatusSkipped   NotificationStatus = "skipped"
	NotificationStatusNotLinked NotificationStatus = "not_linked"
	// NotificationStatusNoEvents means the calendar was linked but no event
	// could be created.
	NotificationStatusNoEvents NotificationStatus = "no_events"
)

// ChannelResult is the outcome of one channel.
type ChannelResult struct {
	Channel NotificationChannel `json:"channel"`
	Status  NotificationStatus  `json:"status"`
	Detail  string              `json:"detail,omitempty"`
}

// OK reports whether the channel succeeded.
func (c ChannelResult) OK() bool {
	return c.Status == NotificationStatusSent
}

// RowFailure records a row whose calendar event could not be created.
type RowFailure struct {
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	Reason      string `json:"reason"`
}

// RecipientOutcome is the dispatch result for one recipient.
type RecipientOutcome struct {
	Key           string        `json:"key"`
	Name          string        `json:"name"`
	Kind          RecipientKind `json:"kind"`
	Rows          int           `json:"rows"`
	Mail          ChannelResult `json:"mail"`
	Calendar      ChannelResult `json:"calendar"`
	EventsCreated int           `json:"events_created"`
	RowFailures   []RowFailure  `json:"row_failures,omitempty"`
}

// DispatchReport is the batch report for one dispatch.
type DispatchReport struct {
	CycleID    string             `json:"cycle_id"`
	FileName   string             `json:"file_name"`
	Mode       DispatchMode       `json:"mode"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Outcomes   []RecipientOutcome `json:"outcomes"`
}

// MailSent counts recipients whose mail was sent.
func (r *DispatchReport) MailSent() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Mail.OK() {
			n++
		}
	}
	return n
}

// EventsCreated sums calendar events across recipients.
func (r *DispatchReport) EventsCreated() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.EventsCreated
	}
	return n
}

// CalendarEvent is one event to create on a recipient's calendar.
type CalendarEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	TimeZone    string    `json:"time_zone"`
}

// MailMessage is a rendered notification email.
type MailMessage struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/observability"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

const (
	reservationLayout        = "2006/01/02 15:04"
	reservationLayoutSeconds = "2006/01/02 15:04:05"

	dailyMarker    = "[당일]"
	scheduleMarker = "[예약]"
)

// DispatcherConfig holds clinic settings used when creating events.
type DispatcherConfig struct {
	Location      *time.Location
	EventDuration time.Duration
}

// Dispatcher sends one mail and zero or more calendar events per recipient.
// A failure is recorded on the recipient's outcome and never stops the
// remaining recipients.
type Dispatcher struct {
	mail     providers.MailSender
	calendar providers.CalendarProvider
	events   providers.EventBus
	metrics  *observability.Metrics
	renderer *MailRenderer
	location *time.Location
	duration time.Duration
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. events and metrics may be nil.
func NewDispatcher(
	mail providers.MailSender,
	calendar providers.CalendarProvider,
	events providers.EventBus,
	metrics *observability.Metrics,
	cfg DispatcherConfig,
) *Dispatcher {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	duration := cfg.EventDuration
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	return &Dispatcher{
		mail:     mail,
		calendar: calendar,
		events:   events,
		metrics:  metrics,
		renderer: NewMailRenderer(),
		location: loc,
		duration: duration,
		now:      time.Now,
	}
}

// Dispatch notifies the recipients selected by req, in matcher order.
// Manual ids that match no recipient are reported as skipped outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, cycle *entities.Cycle, matches *entities.MatchResult, req entities.DispatchRequest) (*entities.DispatchReport, error) {
	if cycle == nil {
		return nil, apperrors.NewValidationError("dispatch cycle is nil")
	}
	if matches == nil {
		matches = &entities.MatchResult{}
	}

	recipients, unknown, err := selectRecipients(matches.Recipients(), req)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "Dispatcher.Dispatch")
	defer span.End()
	logger := observability.CycleLogger(ctx, cycle.ID, cycle.FileName)

	report := &entities.DispatchReport{
		CycleID:   cycle.ID,
		FileName:  cycle.FileName,
		Mode:      req.Mode,
		StartedAt: d.now(),
		Outcomes:  make([]entities.RecipientOutcome, 0, len(recipients)+len(unknown)),
	}
	total := len(recipients) + len(unknown)
	d.publish(ctx, cycle.ID, entities.DispatchEventStarted, nil, total)

	for _, recipient := range recipients {
		outcome := d.dispatchRecipient(ctx, cycle, recipient)
		report.Outcomes = append(report.Outcomes, outcome)

		level := zerolog.InfoLevel
		if !outcome.Mail.OK() || outcome.Calendar.Status == entities.NotificationStatusFailed || len(outcome.RowFailures) > 0 {
			level = zerolog.WarnLevel
		}
		logger.WithLevel(level).
			Str("recipient", outcome.Key).
			Str("kind", string(outcome.Kind)).
			Str("mail", string(outcome.Mail.Status)).
			Str("calendar", string(outcome.Calendar.Status)).
			Int("events_created", outcome.EventsCreated).
			Int("row_failures", len(outcome.RowFailures)).
			Msg("recipient dispatched")

		d.publish(ctx, cycle.ID, entities.DispatchEventRecipient, &outcome, total)
	}

	for _, ref := range unknown {
		outcome := entities.RecipientOutcome{
			Key:      ref.Key,
			Kind:     ref.Kind,
			Mail:     entities.ChannelResult{Channel: entities.ChannelEmail, Status: entities.NotificationStatusSkipped, Detail: "recipient has no matched rows"},
			Calendar: entities.ChannelResult{Channel: entities.ChannelCalendar, Status: entities.NotificationStatusSkipped, Detail: "recipient has no matched rows"},
		}
		report.Outcomes = append(report.Outcomes, outcome)
		logger.Warn().Str("recipient", ref.Key).Str("kind", string(ref.Kind)).Msg("requested recipient not in match result")
		d.publish(ctx, cycle.ID, entities.DispatchEventRecipient, &outcome, total)
	}

	report.FinishedAt = d.now()
	d.publish(ctx, cycle.ID, entities.DispatchEventFinished, nil, total)

	logger.Info().
		Int("recipients", len(report.Outcomes)).
		Int("mail_sent", report.MailSent()).
		Int("events_created", report.EventsCreated()).
		Msg("dispatch finished")

	return report, nil
}

func selectRecipients(all []entities.Recipient, req entities.DispatchRequest) ([]entities.Recipient, []entities.RecipientRef, error) {
	switch req.Mode {
	case entities.DispatchModeAutomatic:
		return all, nil, nil
	case entities.DispatchModeManual:
		if len(req.Recipients) == 0 {
			return nil, nil, apperrors.NewValidationError("manual dispatch requires at least one recipient")
		}
	default:
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("unknown dispatch mode %q", req.Mode))
	}

	refs := make([]entities.RecipientRef, 0, len(req.Recipients))
	wanted := make(map[entities.RecipientRef]bool, len(req.Recipients))
	for _, id := range req.Recipients {
		ref, err := entities.ParseRecipientRef(id)
		if err != nil {
			return nil, nil, apperrors.NewValidationError(err.Error())
		}
		if _, dup := wanted[ref]; dup {
			continue
		}
		wanted[ref] = false
		refs = append(refs, ref)
	}

	selected := make([]entities.Recipient, 0, len(refs))
	for _, r := range all {
		if _, ok := wanted[r.Ref()]; ok {
			selected = append(selected, r)
			wanted[r.Ref()] = true
		}
	}

	var unknown []entities.RecipientRef
	for _, ref := range refs {
		if !wanted[ref] {
			unknown = append(unknown, ref)
		}
	}
	return selected, unknown, nil
}

// dispatchRecipient runs the mail step then the calendar step. A panic in a
// transport is converted into a failed channel result.
func (d *Dispatcher) dispatchRecipient(ctx context.Context, cycle *entities.Cycle, recipient entities.Recipient) entities.RecipientOutcome {
	outcome := entities.RecipientOutcome{
		Key:  recipient.Key,
		Name: recipient.Name,
		Kind: recipient.Kind,
		Rows: len(recipient.Rows),
	}

	outcome.Mail = d.guard(entities.ChannelEmail, func() entities.ChannelResult {
		return d.sendMail(ctx, cycle, recipient)
	})
	outcome.Calendar = d.guard(entities.ChannelCalendar, func() entities.ChannelResult {
		created, failures, result := d.createEvents(ctx, cycle, recipient)
		outcome.EventsCreated = created
		outcome.RowFailures = failures
		return result
	})

	observability.RecordNotification(ctx, d.metrics, string(entities.ChannelEmail), string(outcome.Mail.Status))
	observability.RecordNotification(ctx, d.metrics, string(entities.ChannelCalendar), string(outcome.Calendar.Status))
	observability.RecordCalendarEvents(ctx, d.metrics, outcome.EventsCreated)

	return outcome
}

func (d *Dispatcher) guard(channel entities.NotificationChannel, step func() entities.ChannelResult) (result entities.ChannelResult) {
	defer func() {
		if r := recover(); r != nil {
			result = entities.ChannelResult{
				Channel: channel,
				Status:  entities.NotificationStatusFailed,
				Detail:  fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return step()
}

func (d *Dispatcher) sendMail(ctx context.Context, cycle *entities.Cycle, recipient entities.Recipient) entities.ChannelResult {
	result := entities.ChannelResult{Channel: entities.ChannelEmail}

	if strings.TrimSpace(recipient.Email) == "" {
		result.Status = entities.NotificationStatusSkipped
		result.Detail = "no email address registered"
		return result
	}

	msg, err := d.renderer.Render(recipient, cycle.FileName)
	if err != nil {
		result.Status = entities.NotificationStatusFailed
		result.Detail = err.Error()
		return result
	}

	if err := d.mail.Send(ctx, msg); err != nil {
		result.Status = entities.NotificationStatusFailed
		result.Detail = err.Error()
		return result
	}

	result.Status = entities.NotificationStatusSent
	return result
}

func (d *Dispatcher) createEvents(ctx context.Context, cycle *entities.Cycle, recipient entities.Recipient) (int, []entities.RowFailure, entities.ChannelResult) {
	result := entities.ChannelResult{Channel: entities.ChannelCalendar}

	if !recipient.CalendarToken.Usable(d.now()) {
		result.Status = entities.NotificationStatusNotLinked
		result.Detail = "calendar not linked or token expired"
		return 0, nil, result
	}

	var (
		created  int
		failures []entities.RowFailure
	)
	for _, matched := range recipient.Rows {
		event, ok, err := d.buildEvent(cycle, matched)
		if !ok {
			continue
		}
		if err == nil {
			err = d.calendar.CreateEvent(ctx, recipient.CalendarToken, event)
		}
		if err != nil {
			failures = append(failures, entities.RowFailure{
				PatientID:   matched.Row.PatientID,
				PatientName: matched.Row.PatientName,
				Reason:      err.Error(),
			})
			continue
		}
		created++
	}

	switch {
	case created > 0:
		result.Status = entities.NotificationStatusSent
		result.Detail = fmt.Sprintf("%d events created", created)
	case len(failures) > 0:
		result.Status = entities.NotificationStatusNoEvents
		result.Detail = failures[0].Reason
	default:
		result.Status = entities.NotificationStatusNoEvents
		result.Detail = "no row has a reservation date and time"
	}
	return created, failures, result
}

// buildEvent returns ok=false when the row lacks a reservation date or
// time, and an error when they do not parse.
func (d *Dispatcher) buildEvent(cycle *entities.Cycle, matched entities.MatchedRow) (*entities.CalendarEvent, bool, error) {
	row := matched.Row
	date := strings.TrimSpace(row.Get(entities.ColumnReserveDate))
	clock := strings.TrimSpace(row.Get(entities.ColumnReserveTime))
	if date == "" || clock == "" {
		return nil, false, nil
	}

	start, err := parseReservation(date, clock, d.location)
	if err != nil {
		return nil, true, fmt.Errorf("unparseable reservation %q %q", date, clock)
	}

	marker := scheduleMarker
	if cycle.IsDaily {
		marker = dailyMarker
	}

	return &entities.CalendarEvent{
		Title: fmt.Sprintf("%s %s (%s)", marker, row.PatientName, matched.Department),
		Description: strings.Join([]string{
			"환자명: " + row.PatientName,
			"진료번호: " + row.PatientID,
			"예약의사: " + row.DoctorName,
			"진료내역: " + row.Get(entities.ColumnTreatment),
		}, "\n"),
		Start:    start,
		End:      start.Add(d.duration),
		TimeZone: d.location.String(),
	}, true, nil
}

// parseReservation reads date and time jointly as YYYY/MM/DD HH:MM in loc.
// A date cell that already carries a time keeps only its date part.
func parseReservation(date, clock string, loc *time.Location) (time.Time, error) {
	if fields := strings.Fields(date); len(fields) > 1 {
		date = fields[0]
	}
	joined := date + " " + clock
	start, err := time.ParseInLocation(reservationLayout, joined, loc)
	if err == nil {
		return start, nil
	}
	return time.ParseInLocation(reservationLayoutSeconds, joined, loc)
}

func (d *Dispatcher) publish(ctx context.Context, cycleID string, eventType entities.DispatchEventType, outcome *entities.RecipientOutcome, total int) {
	if d.events == nil {
		return
	}
	event := entities.NewDispatchEvent(cycleID, eventType, outcome, total)
	if err := d.events.Publish(ctx, providers.GetDispatchChannel(cycleID), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("cycle_id", cycleID).Msg("failed to publish dispatch event")
	}
}

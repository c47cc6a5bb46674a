package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/events"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/application/services"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func linkedToken() *entities.CalendarToken {
	return &entities.CalendarToken{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}
}

func userMatch(t *testing.T, key, email string, token *entities.CalendarToken, rows ...entities.RawRow) entities.UserMatch {
	sheet := standardSheet(t, "구강악안면외과", rows...)
	matched := make([]entities.MatchedRow, 0, len(sheet.Rows))
	for _, r := range sheet.Rows {
		matched = append(matched, entities.MatchedRow{Sheet: sheet.Name, Department: sheet.Department, Row: r, RegisteredDepartments: "외과"})
	}
	return entities.UserMatch{
		User:        entities.UserRecord{Key: key, Name: key, Email: email, Number: "2020" + key, CalendarToken: token},
		Departments: []entities.Department{entities.DeptOralSurgery},
		Rows:        matched,
	}
}

func newDispatcher(t *testing.T, mail *MockMailSender, cal *MockCalendarProvider, bus providers.EventBus) *services.Dispatcher {
	return services.NewDispatcher(mail, cal, bus, nil, services.DispatcherConfig{
		Location:      seoul(t),
		EventDuration: 30 * time.Minute,
	})
}

func TestDispatcher_EndToEndCalendarEvent(t *testing.T) {
	mail := new(MockMailSender)
	cal := new(MockCalendarProvider)
	mail.On("Send", mock.Anything, mock.Anything).Return(nil)

	var created *entities.CalendarEvent
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(2).(*entities.CalendarEvent) }).
		Return(nil)

	cycle := &entities.Cycle{ID: "c1", FileName: "ocs_0501.xlsx", IsDaily: true}
	matches := &entities.MatchResult{Users: []entities.UserMatch{
		userMatch(t, "u1", "u1@example.com", linkedToken(), row("홍길동", "01234", "김교수 교수님", "2024/05/01", "09:00")),
	}}

	report, err := newDispatcher(t, mail, cal, nil).Dispatch(context.Background(), cycle, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeAutomatic})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	outcome := report.Outcomes[0]
	assert.Equal(t, entities.NotificationStatusSent, outcome.Mail.Status)
	assert.Equal(t, entities.NotificationStatusSent, outcome.Calendar.Status)
	assert.Equal(t, 1, outcome.EventsCreated)

	require.NotNil(t, created)
	loc := seoul(t)
	assert.True(t, created.Start.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, loc)))
	assert.True(t, created.End.Equal(time.Date(2024, 5, 1, 9, 30, 0, 0, loc)))
	assert.Equal(t, "Asia/Seoul", created.TimeZone)
	assert.Equal(t, "[당일] 홍길동 (외과)", created.Title)
	assert.Contains(t, created.Description, "00001234")
}

func TestDispatcher_NonDailyMarker(t *testing.T) {
	mail := new(MockMailSender)
	cal := new(MockCalendarProvider)
	mail.On("Send", mock.Anything, mock.Anything).Return(nil)
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.MatchedBy(func(e *entities.CalendarEvent) bool {
		return e.Title == "[예약] 홍길동 (외과)"
	})).Return(nil).Once()

	matches := &entities.MatchResult{Users: []entities.UserMatch{
		userMatch(t, "u1", "u1@example.com", linkedToken(), row("홍길동", "1234", "김교수", "2024/05/01", "09:00")),
	}}

	_, err := newDispatcher(t, mail, cal, nil).Dispatch(context.Background(), &entities.Cycle{ID: "c1"}, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeAutomatic})
	require.NoError(t, err)
	cal.AssertExpectations(t)
}

func TestDispatcher_MailFailureDoesNotBlockOthers(t *testing.T) {
	mail := new(MockMailSender)
	cal := new(MockCalendarProvider)
	mail.On("Send", mock.Anything, mock.MatchedBy(func(m *entities.MailMessage) bool { return m.To == "a@example.com" })).
		Return(errors.New("smtp: connection reset"))
	mail.On("Send", mock.Anything, mock.MatchedBy(func(m *entities.MailMessage) bool { return m.To == "b@example.com" })).
		Return(nil)
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	matches := &entities.MatchResult{Users: []entities.UserMatch{
		userMatch(t, "a", "a@example.com", linkedToken(), row("홍길동", "1", "김교수", "2024/05/01", "09:00")),
		userMatch(t, "b", "b@example.com", nil, row("이몽룡", "2", "김교수", "2024/05/01", "10:00")),
	}}

	report, err := newDispatcher(t, mail, cal, nil).Dispatch(context.Background(), &entities.Cycle{ID: "c1"}, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeAutomatic})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)

	a, b := report.Outcomes[0], report.Outcomes[1]
	assert.Equal(t, "a", a.Key)
	assert.Equal(t, entities.NotificationStatusFailed, a.Mail.Status)
	assert.Contains(t, a.Mail.Detail, "connection reset")
	assert.Equal(t, entities.NotificationStatusSent, a.Calendar.Status, "calendar still runs after a mail failure")

	assert.Equal(t, "b", b.Key)
	assert.Equal(t, entities.NotificationStatusSent, b.Mail.Status)
	assert.Equal(t, entities.NotificationStatusNotLinked, b.Calendar.Status)
	assert.Equal(t, 1, report.MailSent())
	mail.AssertNumberOfCalls(t, "Send", 2)
}

func TestDispatcher_TransportPanicIsContained(t *testing.T) {
	mail := new(MockMailSender)
	cal := new(MockCalendarProvider)
	mail.On("Send", mock.Anything, mock.MatchedBy(func(m *entities.MailMessage) bool { return m.To == "a@example.com" })).
		Run(func(mock.Arguments) { panic("boom") })
	mail.On("Send", mock.Anything, mock.Anything).Return(nil)

	matches := &entities.MatchResult{Users: []entities.UserMatch{
		userMatch(t, "a", "a@example.com", nil, row("홍길동", "1", "김교수", "2024/05/01", "09:00")),
		userMatch(t, "b", "b@example.com", nil, row("이몽룡", "2", "김교수", "2024/05/01", "10:00")),
	}}

	report, err := newDispatcher(t, mail, cal, nil).Dispatch(context.Background(), &entities.Cycle{ID: "c1"}, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeAutomatic})
	require.NoError(t, err)
	assert.Equal(t, entities.NotificationStatusFailed, report.Outcomes[0].Mail.Status)
	assert.Equal(t, entities.NotificationStatusSent, report.Outcomes[1].Mail.Status)
}

func TestDispatcher_RowParseFailureContinues(t *testing.T) {
	mail := new(MockMailSender)
	cal := new(MockCalendarProvider)
	mail.On("Send", mock.Anything, mock.Anything).Return(nil)
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	matches := &entities.MatchResult{Users: []entities.UserMatch{
		userMatch(t, "u1", "u1@example.com", linkedToken(),
			row("홍길동", "1", "김교수", "2024-05-01", "09:00"),
			row("이몽룡", "2", "김교수", "2024/05/01", ""),
			row("성춘향", "3", "김교수", "2024/05/01 00:00", "10:30"),
		),
	}}

	report, err := newDispatcher(t, mail, cal, nil).Dispatch(context.Background(), &entities.Cycle{ID: "c1"}, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeAutomatic})
	require.NoError(t, err)

	outcome := report.Outcomes[0]
	assert.Equal(t, entities.NotificationStatusSent, outcome.Mail.Status)
	assert.Equal(t, 1, outcome.EventsCreated)
	require.Len(t, outcome.RowFailures, 1)
	assert.Equal(t, "00000001", outcome.RowFailures[0].PatientID)
	cal.AssertNumberOfCalls(t, "CreateEvent", 1)
}

func TestDispatcher_ZeroEventsIsDistinctFromNotLinked(t *testing.T) {
	mail := new(MockMailSender)
	cal := new(MockCalendarProvider)
	mail.On("Send", mock.Anything, mock.Anything).Return(nil)
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("403 forbidden"))

	expired := &entities.CalendarToken{AccessToken: "tok", Expiry: time.Now().Add(-time.Minute)}
	matches := &entities.MatchResult{Users: []entities.UserMatch{
		userMatch(t, "linked", "l@example.com", linkedToken(), row("홍길동", "1", "김교수", "2024/05/01", "09:00")),
		userMatch(t, "expired", "e@example.com", expired, row("이몽룡", "2", "김교수", "2024/05/01", "09:00")),
	}}

	report, err := newDispatcher(t, mail, cal, nil).Dispatch(context.Background(), &entities.Cycle{ID: "c1"}, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeAutomatic})
	require.NoError(t, err)

	assert.Equal(t, entities.NotificationStatusNoEvents, report.Outcomes[0].Calendar.Status)
	assert.Len(t, report.Outcomes[0].RowFailures, 1)
	assert.Equal(t, entities.NotificationStatusNotLinked, report.Outcomes[1].Calendar.Status)
	cal.AssertNumberOfCalls(t, "CreateEvent", 1)
}

func TestDispatcher_ManualSelection(t *testing.T) {
	mail := new(MockMailSender)
	cal := new(MockCalendarProvider)
	mail.On("Send", mock.Anything, mock.Anything).Return(nil)

	matches := &entities.MatchResult{
		Users: []entities.UserMatch{
			userMatch(t, "u1", "u1@example.com", nil, row("홍길동", "1", "김교수", "", "")),
			userMatch(t, "u2", "u2@example.com", nil, row("이몽룡", "2", "김교수", "", "")),
		},
		Doctors: []entities.DoctorMatch{{
			Doctor:     entities.DoctorRecord{Key: "d1", Name: "김교수", Email: "kim@example.com"},
			Department: entities.DeptOralSurgery,
			Rows:       userMatch(t, "x", "", nil, row("홍길동", "1", "김교수", "", "")).Rows,
		}},
	}

	report, err := newDispatcher(t, mail, cal, nil).Dispatch(context.Background(), &entities.Cycle{ID: "c1"}, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeManual, Recipients: []string{"doctor:d1", "user:ghost", "user:u2"}})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, "u2", report.Outcomes[0].Key, "matcher order is kept")
	assert.Equal(t, "d1", report.Outcomes[1].Key)
	assert.Equal(t, entities.RecipientDoctor, report.Outcomes[1].Kind)
	assert.Equal(t, "ghost", report.Outcomes[2].Key)
	assert.Equal(t, entities.RecipientUser, report.Outcomes[2].Kind)
	assert.Equal(t, entities.NotificationStatusSkipped, report.Outcomes[2].Mail.Status)
	mail.AssertNumberOfCalls(t, "Send", 2)
}

func TestDispatcher_ManualSelectionSharedKey(t *testing.T) {
	mail := new(MockMailSender)
	cal := new(MockCalendarProvider)
	mail.On("Send", mock.Anything, mock.MatchedBy(func(m *entities.MailMessage) bool {
		return m.To == "prof.kim@example.com"
	})).Return(nil)

	matches := &entities.MatchResult{
		Users: []entities.UserMatch{
			userMatch(t, "kim", "student.kim@example.com", nil, row("홍길동", "1", "김교수", "", "")),
		},
		Doctors: []entities.DoctorMatch{{
			Doctor:     entities.DoctorRecord{Key: "kim", Name: "김교수", Email: "prof.kim@example.com"},
			Department: entities.DeptOralSurgery,
			Rows:       userMatch(t, "x", "", nil, row("홍길동", "1", "김교수", "", "")).Rows,
		}},
	}

	report, err := newDispatcher(t, mail, cal, nil).Dispatch(context.Background(), &entities.Cycle{ID: "c1"}, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeManual, Recipients: []string{"doctor:kim"}})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1, "the user sharing the key is not selected")
	assert.Equal(t, entities.RecipientDoctor, report.Outcomes[0].Kind)
	assert.Equal(t, entities.NotificationStatusSent, report.Outcomes[0].Mail.Status)
	mail.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatcher_InvalidRequests(t *testing.T) {
	d := newDispatcher(t, new(MockMailSender), new(MockCalendarProvider), nil)
	cycle := &entities.Cycle{ID: "c1"}

	_, err := d.Dispatch(context.Background(), cycle, nil, entities.DispatchRequest{Mode: entities.DispatchModeManual})
	assert.Error(t, err)

	_, err = d.Dispatch(context.Background(), cycle, nil, entities.DispatchRequest{Mode: "sometimes"})
	assert.Error(t, err)

	for _, id := range []string{"kim", "nurse:kim", "user:", ":kim"} {
		_, err = d.Dispatch(context.Background(), cycle, nil,
			entities.DispatchRequest{Mode: entities.DispatchModeManual, Recipients: []string{id}})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), id)
	}
}

func TestDispatcher_PublishesProgress(t *testing.T) {
	mail := new(MockMailSender)
	mail.On("Send", mock.Anything, mock.Anything).Return(nil)

	bus := events.NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := bus.Subscribe(ctx, providers.GetDispatchChannel("c1"))
	require.NoError(t, err)

	matches := &entities.MatchResult{Users: []entities.UserMatch{
		userMatch(t, "u1", "u1@example.com", nil, row("홍길동", "1", "김교수", "", "")),
	}}

	_, err = newDispatcher(t, mail, new(MockCalendarProvider), bus).Dispatch(ctx, &entities.Cycle{ID: "c1"}, matches,
		entities.DispatchRequest{Mode: entities.DispatchModeAutomatic})
	require.NoError(t, err)

	var types []entities.DispatchEventType
	for i := 0; i < 3; i++ {
		select {
		case ev := <-stream:
			types = append(types, ev.EventType)
		case <-time.After(time.Second):
			t.Fatal("missing dispatch event")
		}
	}
	assert.Equal(t, []entities.DispatchEventType{
		entities.DispatchEventStarted,
		entities.DispatchEventRecipient,
		entities.DispatchEventFinished,
	}, types)
}

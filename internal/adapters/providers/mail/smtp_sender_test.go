package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/pkg/config"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

type fakeDialer struct {
	sent []*gomail.Msg
	err  error
}

func (f *fakeDialer) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func newTestSender(d smtpDialer) *SMTPSender {
	return &SMTPSender{from: "clinic@example.com", fromName: "OCS 알림", client: d}
}

func TestSMTPSender_Send(t *testing.T) {
	dialer := &fakeDialer{}
	sender := newTestSender(dialer)

	err := sender.Send(context.Background(), &entities.MailMessage{
		To:       "student@example.com",
		ToName:   "김학생",
		Subject:  "[OCS] 05/01 환자 예약 알림",
		HTMLBody: "<table></table>",
		TextBody: "김교수,0501,0900,홍길동,00001234,2020123,김학생",
	})
	require.NoError(t, err)
	require.Len(t, dialer.sent, 1)

	msg := dialer.sent[0]
	assert.Contains(t, msg.GetToString()[0], "student@example.com")
	assert.Equal(t, []string{"[OCS] 05/01 환자 예약 알림"}, msg.GetGenHeader(gomail.HeaderSubject))
}

func TestSMTPSender_SendFailureIsExternal(t *testing.T) {
	sender := newTestSender(&fakeDialer{err: errors.New("535 authentication failed")})

	err := sender.Send(context.Background(), &entities.MailMessage{To: "a@example.com", Subject: "s"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestSMTPSender_RejectsEmptyRecipient(t *testing.T) {
	dialer := &fakeDialer{}
	err := newTestSender(dialer).Send(context.Background(), &entities.MailMessage{To: "  "})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, dialer.sent)
}

func TestNewMailSender_FallsBackToLog(t *testing.T) {
	sender, err := NewMailSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)
	assert.IsType(t, LogSender{}, sender)
}

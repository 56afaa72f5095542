package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSendReminder(t *testing.T) {
	d := &recordingDialer{}
	svc := NewServiceWithDialer(d, "reminders@example.com")

	require.NoError(t, svc.SendReminder(context.Background(), "pat@example.com", "💊 Medication Reminder", "time to take 10mg"))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"pat@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"reminders@example.com"}, m.GetHeader("From"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "time to take 10mg")
}

func TestSendReminderErrors(t *testing.T) {
	d := &recordingDialer{err: errors.New("smtp down")}
	svc := NewServiceWithDialer(d, "reminders@example.com")
	assert.ErrorContains(t, svc.SendReminder(context.Background(), "pat@example.com", "s", "b"), "smtp down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.SendReminder(ctx, "pat@example.com", "s", "b"), context.Canceled)
	assert.Len(t, d.sent, 1)
}

package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/patient-companion/internal/model"
)

// ErrUnknownHandle is returned when canceling a handle the platform never issued.
var ErrUnknownHandle = errors.New("unknown notification handle")

// Notifier is the notification platform for one patient: it registers
// triggers, cancels them by handle and answers the permission prompt.
type Notifier interface {
	RequestPermission(ctx context.Context) (bool, error)
	SetPermission(ctx context.Context, granted bool) error
	Schedule(ctx context.Context, req model.NotificationRequest) (string, error)
	Cancel(ctx context.Context, handle string) error
	CancelAll(ctx context.Context) error
}

// Factory returns the notifier scoped to one patient.
type Factory func(patientID string) Notifier

// Due is a registration whose next fire instant has been reached.
type Due struct {
	PatientID string
	Handle    string
	DueAt     time.Time
	Request   model.NotificationRequest
}

// ErrTriggerInPast is returned when a trigger has no future occurrence.
var ErrTriggerInPast = errors.New("trigger has no future occurrence")

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/patient-companion/internal/model"
)

var ErrNotFound = errors.New("record not found")

type (
	// DeliveryRepository stores the history of fired reminders.
	DeliveryRepository interface {
		Create(ctx context.Context, delivery *model.Delivery) error
		List(ctx context.Context, filter model.DeliveryFilter) ([]*model.Delivery, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	ContactRepository interface {
		Upsert(ctx context.Context, contact *model.ReminderContact) error
		Get(ctx context.Context, patientID string) (*model.ReminderContact, error)
		Delete(ctx context.Context, patientID string) error
	}
)

package model

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// Delivery records one fired reminder. Body holds the encrypted message.
type Delivery struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	PatientID    string         `db:"patient_id" json:"patient_id"`
	Handle       string         `db:"handle" json:"handle"`
	MedicationID string         `db:"medication_id" json:"medication_id"`
	Channel      string         `db:"channel" json:"channel"`
	Status       DeliveryStatus `db:"status" json:"status"`
	Body         []byte         `db:"body" json:"-"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
	DueAt        time.Time      `db:"due_at" json:"due_at"`
	FiredAt      time.Time      `db:"fired_at" json:"fired_at"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// DeliveryFilter narrows a patient's delivery history.
type DeliveryFilter struct {
	PatientID    string
	MedicationID string
	Since        *time.Time
	Limit        int
}

// ReminderContact is where e-mail copies of a patient's reminders go.
type ReminderContact struct {
	PatientID string    `db:"patient_id" json:"patientId"`
	Email     string    `db:"email" json:"email" binding:"required,email"`
	Enabled   bool      `db:"enabled" json:"enabled"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

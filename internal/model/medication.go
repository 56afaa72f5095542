package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyAsNeeded Frequency = "as_needed"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAsNeeded:
		return true
	}
	return false
}

// Medication is the client copy of a medication owned by the patient record
// on the remote service.
type Medication struct {
	ID           string     `json:"_id"`
	DrugName     string     `json:"drugName" validate:"required"`
	Dosage       string     `json:"dosage" validate:"required"`
	Frequency    Frequency  `json:"frequency" validate:"required,oneof=daily weekly monthly as_needed"`
	Time         string     `json:"time,omitempty"`
	SpecificDays []string   `json:"specificDays,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Enabled      bool       `json:"enabled"`
	LastTaken    *time.Time `json:"lastTaken,omitempty"`
	NextReminder *time.Time `json:"nextReminder,omitempty"`
}

// Schedulable reports whether the medication should get reminders at all.
func (m Medication) Schedulable() bool {
	return m.Enabled && m.Time != "" && m.Frequency != FrequencyAsNeeded
}

// Validate checks the invariants that tie Time and SpecificDays to Frequency.
func (m Medication) Validate() error {
	if err := validate.Struct(m); err != nil {
		return err
	}
	if m.Frequency != FrequencyAsNeeded {
		if _, _, err := ParseClock(m.Time); err != nil {
			return err
		}
	}
	if m.Frequency == FrequencyWeekly {
		if len(m.SpecificDays) == 0 {
			return fmt.Errorf("specificDays is required for weekly medications")
		}
		for _, d := range m.SpecificDays {
			if _, err := ParseWeekday(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseClock parses a 24-hour "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a weekday name (any case) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", name)
	}
	return d, nil
}

// MedicationInput is the body used to create or update a medication.
type MedicationInput struct {
	DrugName     string    `json:"drugName" binding:"required"`
	Dosage       string    `json:"dosage" binding:"required"`
	Frequency    Frequency `json:"frequency" binding:"required"`
	Time         string    `json:"time,omitempty"`
	SpecificDays []string  `json:"specificDays,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Enabled      *bool     `json:"enabled,omitempty"`
}

// Medication builds the record the input describes, enabled by default.
func (in MedicationInput) Medication() Medication {
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	return Medication{
		DrugName:     in.DrugName,
		Dosage:       in.Dosage,
		Frequency:    in.Frequency,
		Time:         in.Time,
		SpecificDays: in.SpecificDays,
		Notes:        in.Notes,
		Enabled:      enabled,
	}
}

// UpcomingReminder is a server-computed reminder for the next doses.
type UpcomingReminder struct {
	MedicationID string    `json:"medicationId"`
	DrugName     string    `json:"drugName"`
	Dosage       string    `json:"dosage"`
	ReminderTime time.Time `json:"reminderTime"`
}

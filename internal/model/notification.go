package model

import (
	"strings"
	"time"
)

// HandleKey identifies one registration in a patient's handle map: the
// medication alone, or the medication on one weekday for weekly schedules.
type HandleKey struct {
	MedicationID string
	Weekday      time.Weekday
	PerWeekday   bool
}

func MedicationKey(medicationID string) HandleKey {
	return HandleKey{MedicationID: medicationID}
}

func WeekdayKey(medicationID string, day time.Weekday) HandleKey {
	return HandleKey{MedicationID: medicationID, Weekday: day, PerWeekday: true}
}

// String renders the key for logs; it is never parsed back.
func (k HandleKey) String() string {
	if !k.PerWeekday {
		return k.MedicationID
	}
	return k.MedicationID + "-" + strings.ToLower(k.Weekday.String())
}

type TriggerKind string

const (
	// TriggerDaily repeats every day at Hour:Minute, starting at Date when set.
	TriggerDaily TriggerKind = "daily"
	// TriggerWeekly repeats every seven days from Date.
	TriggerWeekly TriggerKind = "weekly"
	// TriggerDate fires once at Date.
	TriggerDate TriggerKind = "date"
)

type Trigger struct {
	Kind     TriggerKind `json:"kind"`
	Hour     int         `json:"hour"`
	Minute   int         `json:"minute"`
	Date     time.Time   `json:"date,omitempty"`
	Repeats  bool        `json:"repeats"`
	Timezone string      `json:"timezone,omitempty"`
}

func (t Trigger) location() *time.Location {
	if t.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Next returns the first fire instant strictly after after. ok is false once
// a one-shot trigger has passed.
func (t Trigger) Next(after time.Time) (next time.Time, ok bool) {
	loc := t.location()
	after = after.In(loc)

	switch t.Kind {
	case TriggerDaily:
		start := t.Date.In(loc)
		if t.Date.IsZero() {
			start = time.Date(after.Year(), after.Month(), after.Day(), t.Hour, t.Minute, 0, 0, loc)
		}
		return advance(start, after, 1), true
	case TriggerWeekly:
		return advance(t.Date.In(loc), after, 7), true
	case TriggerDate:
		if t.Date.After(after) {
			return t.Date.In(loc), true
		}
	}
	return time.Time{}, false
}

// advance steps start forward by whole periods of days until it is after after.
func advance(start, after time.Time, days int) time.Time {
	if !start.After(after) {
		periods := int(after.Sub(start).Hours()/24) / days
		start = start.AddDate(0, 0, periods*days)
		for !start.After(after) {
			start = start.AddDate(0, 0, days)
		}
	}
	return start
}

// ReminderData travels with a notification so a tap can mark the dose taken.
type ReminderData struct {
	MedicationID string `json:"medicationId"`
	DrugName     string `json:"drugName"`
	Dosage       string `json:"dosage"`
}

// NotificationRequest is what gets registered with the notification platform.
type NotificationRequest struct {
	Title   string       `json:"title"`
	Body    string       `json:"body"`
	Sound   string       `json:"sound,omitempty"`
	Data    ReminderData `json:"data"`
	Trigger Trigger      `json:"trigger"`
}

// NotificationResponse is sent back when the user taps a delivered reminder.
type NotificationResponse struct {
	MedicationID string `json:"medicationId" binding:"required"`
	Action       string `json:"action,omitempty"`
}

// ScheduledHandle is a handle map entry as exposed over the API.
type ScheduledHandle struct {
	MedicationID string `json:"medicationId"`
	Weekday      string `json:"weekday,omitempty"`
	Handle       string `json:"handle"`
}

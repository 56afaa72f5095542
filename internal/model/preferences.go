package model

import "fmt"

type NoticeUnit string

const (
	NoticeMinutes NoticeUnit = "minutes"
	NoticeHours   NoticeUnit = "hours"
)

// AdvanceNotice is how long before the dosage time a reminder fires.
type AdvanceNotice struct {
	Value int        `json:"value" validate:"gte=0"`
	Unit  NoticeUnit `json:"unit" validate:"omitempty,oneof=minutes hours"`
}

// Minutes normalizes the notice to minutes.
func (a AdvanceNotice) Minutes() int {
	if a.Unit == NoticeHours {
		return a.Value * 60
	}
	return a.Value
}

type MedicationReminderPreferences struct {
	Enabled       bool          `json:"enabled"`
	Sound         string        `json:"sound,omitempty"`
	AdvanceNotice AdvanceNotice `json:"advanceNotice"`
}

type HealthAlertPreferences struct {
	Enabled bool `json:"enabled"`
}

type NotificationPreferences struct {
	MedicationReminders MedicationReminderPreferences `json:"medicationReminders"`
	HealthAlerts        HealthAlertPreferences        `json:"healthAlerts"`
}

func (p NotificationPreferences) Validate() error {
	if p.MedicationReminders.AdvanceNotice.Value < 0 {
		return fmt.Errorf("advance notice must not be negative")
	}
	return validate.Struct(p.MedicationReminders.AdvanceNotice)
}

// DefaultNotificationPreferences applies when a profile carries none.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		MedicationReminders: MedicationReminderPreferences{
			Enabled:       true,
			Sound:         "default",
			AdvanceNotice: AdvanceNotice{Value: 0, Unit: NoticeMinutes},
		},
		HealthAlerts: HealthAlertPreferences{Enabled: true},
	}
}

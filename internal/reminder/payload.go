package reminder

import (
	"fmt"

	"github.com/jwalitptl/patient-companion/internal/model"
)

const reminderTitle = "💊 Medication Reminder"

func buildRequest(med model.Medication, firstName string, prefs model.MedicationReminderPreferences, t model.Trigger) model.NotificationRequest {
	offset := prefs.AdvanceNotice.Minutes()

	name := firstName
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf("Hi %s, time to take %s of %s", name, med.Dosage, med.DrugName)
	if offset > 0 {
		body += fmt.Sprintf(" in %d minutes", offset)
	}

	return model.NotificationRequest{
		Title: reminderTitle,
		Body:  body,
		Sound: prefs.Sound,
		Data: model.ReminderData{
			MedicationID: med.ID,
			DrugName:     med.DrugName,
			Dosage:       med.Dosage,
		},
		Trigger: t,
	}
}

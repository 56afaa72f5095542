package reminder

import (
	"fmt"
	"time"

	"github.com/jwalitptl/patient-companion/internal/model"
)

const minutesPerDay = 24 * 60

// fireClock subtracts the advance notice from the dosage time of day.
// dayShift is negative when the subtraction borrows across midnight.
func fireClock(hour, minute, offset int) (h, m, dayShift int) {
	total := hour*60 + minute - offset
	dayShift = floorDiv(total, minutesPerDay)
	total -= dayShift * minutesPerDay
	return total / 60, total % 60, dayShift
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

type plannedTrigger struct {
	key     model.HandleKey
	trigger model.Trigger
}

// planTriggers turns one medication into the registrations it needs at now.
func planTriggers(med model.Medication, offset int, now time.Time) ([]plannedTrigger, error) {
	hour, minute, err := model.ParseClock(med.Time)
	if err != nil {
		return nil, err
	}
	h, m, dayShift := fireClock(hour, minute, offset)
	loc := now.Location()
	tz := loc.String()
	today := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, loc)

	switch med.Frequency {
	case model.FrequencyDaily:
		t := model.Trigger{Kind: model.TriggerDaily, Hour: h, Minute: m, Repeats: true, Timezone: tz}
		if !today.After(now) {
			t.Date = today.AddDate(0, 0, 1)
		}
		return []plannedTrigger{{key: model.MedicationKey(med.ID), trigger: t}}, nil

	case model.FrequencyWeekly:
		if len(med.SpecificDays) == 0 {
			return nil, fmt.Errorf("weekly medication %s has no specific days", med.ID)
		}
		seen := make(map[time.Weekday]bool)
		var out []plannedTrigger
		for _, name := range med.SpecificDays {
			target, err := model.ParseWeekday(name)
			if err != nil {
				return nil, err
			}
			if seen[target] {
				continue
			}
			seen[target] = true

			fireDay := time.Weekday(((int(target)+dayShift)%7 + 7) % 7)
			days := (int(fireDay) - int(now.Weekday()) + 7) % 7
			if days == 0 && !today.After(now) {
				days = 7
			}
			out = append(out, plannedTrigger{
				key: model.WeekdayKey(med.ID, target),
				trigger: model.Trigger{
					Kind:     model.TriggerWeekly,
					Hour:     h,
					Minute:   m,
					Date:     today.AddDate(0, 0, days),
					Repeats:  true,
					Timezone: tz,
				},
			})
		}
		return out, nil

	case model.FrequencyMonthly:
		fire := today
		if !fire.After(now) {
			fire = addMonthClamped(fire)
		}
		return []plannedTrigger{{
			key:     model.MedicationKey(med.ID),
			trigger: model.Trigger{Kind: model.TriggerDate, Hour: h, Minute: m, Date: fire, Timezone: tz},
		}}, nil
	}

	return nil, fmt.Errorf("frequency %q is not scheduled", med.Frequency)
}

// addMonthClamped moves t to the same day next month, or to the last day of
// next month when that day does not exist there.
func addMonthClamped(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, t.Hour(), t.Minute(), 0, 0, t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, t.Hour(), t.Minute(), 0, 0, t.Location())
}

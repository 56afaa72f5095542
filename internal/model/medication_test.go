package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedicationValidate(t *testing.T) {
	tests := []struct {
		name    string
		med     Medication
		wantErr bool
	}{
		{
			name: "daily with time",
			med:  Medication{DrugName: "Metformin", Dosage: "500mg", Frequency: FrequencyDaily, Time: "08:30"},
		},
		{
			name:    "daily without time",
			med:     Medication{DrugName: "Metformin", Dosage: "500mg", Frequency: FrequencyDaily},
			wantErr: true,
		},
		{
			name:    "malformed time",
			med:     Medication{DrugName: "Metformin", Dosage: "500mg", Frequency: FrequencyMonthly, Time: "24:10"},
			wantErr: true,
		},
		{
			name:    "weekly without days",
			med:     Medication{DrugName: "Methotrexate", Dosage: "7.5mg", Frequency: FrequencyWeekly, Time: "09:00"},
			wantErr: true,
		},
		{
			name:    "weekly with unknown day",
			med:     Medication{DrugName: "Methotrexate", Dosage: "7.5mg", Frequency: FrequencyWeekly, Time: "09:00", SpecificDays: []string{"funday"}},
			wantErr: true,
		},
		{
			name: "weekly with days",
			med:  Medication{DrugName: "Methotrexate", Dosage: "7.5mg", Frequency: FrequencyWeekly, Time: "09:00", SpecificDays: []string{"Monday", "thursday"}},
		},
		{
			name: "as needed without time",
			med:  Medication{DrugName: "Ibuprofen", Dosage: "200mg", Frequency: FrequencyAsNeeded},
		},
		{
			name:    "unknown frequency",
			med:     Medication{DrugName: "Ibuprofen", Dosage: "200mg", Frequency: "hourly", Time: "10:00"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.med.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 5, m)

	for _, bad := range []string{"", "7", "07:60", "ab:cd", "07:05:00"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestAdvanceNoticeMinutes(t *testing.T) {
	assert.Equal(t, 15, AdvanceNotice{Value: 15, Unit: NoticeMinutes}.Minutes())
	assert.Equal(t, 120, AdvanceNotice{Value: 2, Unit: NoticeHours}.Minutes())
	assert.Equal(t, 10, AdvanceNotice{Value: 10}.Minutes())
}

func TestMedicationSchedulable(t *testing.T) {
	assert.True(t, Medication{Enabled: true, Time: "08:00", Frequency: FrequencyDaily}.Schedulable())
	assert.False(t, Medication{Enabled: false, Time: "08:00", Frequency: FrequencyDaily}.Schedulable())
	assert.False(t, Medication{Enabled: true, Frequency: FrequencyDaily}.Schedulable())
	assert.False(t, Medication{Enabled: true, Time: "08:00", Frequency: FrequencyAsNeeded}.Schedulable())
}

func TestHandleKeyString(t *testing.T) {
	assert.Equal(t, "med-1", MedicationKey("med-1").String())
	assert.Equal(t, "med-1-wednesday", WeekdayKey("med-1", time.Wednesday).String())
	assert.NotEqual(t, MedicationKey("med-1"), WeekdayKey("med-1", time.Sunday))
}

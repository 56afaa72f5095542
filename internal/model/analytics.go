package model

import "time"

// SeriesPoint is one time bucket of an analytics series.
type SeriesPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

type AnalyticsTotals struct {
	Users        int     `json:"users"`
	Doctors      int     `json:"doctors"`
	Patients     int     `json:"patients"`
	Appointments int     `json:"appointments"`
	Revenue      float64 `json:"revenue"`
	PendingApps  int     `json:"pendingApplications"`
}

type RecentEntity struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Analytics struct {
	Totals             AnalyticsTotals `json:"totals"`
	RecentDoctors      []RecentEntity  `json:"recentDoctors"`
	RecentPatients     []RecentEntity  `json:"recentPatients"`
	RecentAppointments []RecentEntity  `json:"recentAppointments"`
	UserSeries         []SeriesPoint   `json:"userSeries"`
	RevenueSeries      []SeriesPoint   `json:"revenueSeries"`
	AppointmentSeries  []SeriesPoint   `json:"appointmentSeries"`
}

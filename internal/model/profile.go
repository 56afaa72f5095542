package model

import "time"

// HealthMetrics are the self-reported vitals on a health profile.
type HealthMetrics struct {
	Height        float64 `json:"height,omitempty"`
	Weight        float64 `json:"weight,omitempty"`
	BloodType     string  `json:"bloodType,omitempty"`
	BloodPressure string  `json:"bloodPressure,omitempty"`
	HeartRate     int     `json:"heartRate,omitempty"`
}

// HealthProfile is the patient's profile on the remote service.
// NotificationPreferences is nil when the profile has never stored any.
type HealthProfile struct {
	PatientID               string                   `json:"patientId"`
	FirstName               string                   `json:"firstName"`
	LastName                string                   `json:"lastName"`
	Metrics                 HealthMetrics            `json:"healthMetrics"`
	NotificationPreferences *NotificationPreferences `json:"notificationPreferences,omitempty"`
	UpdatedAt               time.Time                `json:"updatedAt,omitempty"`
}

type Condition struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Severity    string     `json:"severity,omitempty"`
	DiagnosedAt *time.Time `json:"diagnosedAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type ConditionInput struct {
	Name        string     `json:"name" binding:"required"`
	Severity    string     `json:"severity,omitempty"`
	DiagnosedAt *time.Time `json:"diagnosedAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountInactive  AccountStatus = "inactive"
	AccountPending   AccountStatus = "pending"
	AccountApproved  AccountStatus = "approved"
	AccountRejected  AccountStatus = "rejected"
	AccountSuspended AccountStatus = "suspended"
)

type PatientProfile struct {
	ID          string        `json:"_id"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone,omitempty"`
	DateOfBirth string        `json:"dateOfBirth,omitempty"`
	Gender      string        `json:"gender,omitempty"`
	Address     string        `json:"address,omitempty"`
	PhotoURL    string        `json:"profilePhoto,omitempty"`
	Status      AccountStatus `json:"status,omitempty"`
	CreatedAt   time.Time     `json:"createdAt,omitempty"`
}

type DoctorProfile struct {
	ID               string        `json:"_id"`
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	Email            string        `json:"email"`
	Specialty        string        `json:"specialty,omitempty"`
	LicenseNumber    string        `json:"licenseNumber,omitempty"`
	YearsExperience  int           `json:"yearsOfExperience,omitempty"`
	ConsultationFee  float64       `json:"consultationFee,omitempty"`
	Status           AccountStatus `json:"status,omitempty"`
	RejectionReason  string        `json:"rejectionReason,omitempty"`
	SuspensionReason string        `json:"suspensionReason,omitempty"`
	CreatedAt        time.Time     `json:"createdAt,omitempty"`
}

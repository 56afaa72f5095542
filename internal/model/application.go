package model

import "time"

type ApplicationStatus struct {
	Status          AccountStatus `json:"status"`
	SubmittedAt     *time.Time    `json:"submittedAt,omitempty"`
	ReviewedAt      *time.Time    `json:"reviewedAt,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
}

type DocumentType string

const (
	DocumentNationalID     DocumentType = "national_id"
	DocumentPassport       DocumentType = "passport"
	DocumentDriversLicense DocumentType = "drivers_license"
	DocumentVotersCard     DocumentType = "voters_card"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocumentNationalID, DocumentPassport, DocumentDriversLicense, DocumentVotersCard:
		return true
	}
	return false
}

type KYCStatus struct {
	Status          string     `json:"status"`
	DocumentType    string     `json:"documentType,omitempty"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// File is an uploaded document or photo carried through to a multipart body.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

func (f *File) Present() bool {
	return f != nil && len(f.Data) > 0
}

// DoctorApplication is everything collected by the doctor application wizard.
type DoctorApplication struct {
	FirstName           string   `json:"firstName"`
	LastName            string   `json:"lastName"`
	Phone               string   `json:"phone"`
	DateOfBirth         string   `json:"dateOfBirth"`
	Gender              string   `json:"gender"`
	Address             string   `json:"address"`
	Specialty           string   `json:"specialty"`
	LicenseNumber       string   `json:"licenseNumber"`
	YearsOfExperience   int      `json:"yearsOfExperience"`
	Qualifications      []string `json:"qualifications"`
	HospitalAffiliation string   `json:"hospitalAffiliation,omitempty"`
	ConsultationFee     float64  `json:"consultationFee"`
	Bio                 string   `json:"bio,omitempty"`
	LicenseDocument     *File    `json:"-"`
	DegreeCertificate   *File    `json:"-"`
	IDDocument          *File    `json:"-"`
	ProfilePhoto        *File    `json:"-"`
	AgreeToTerms        bool     `json:"agreeToTerms"`
	ConfirmAccuracy     bool     `json:"confirmAccuracy"`
}

type KYCSubmission struct {
	DocumentType      DocumentType `json:"documentType"`
	DocumentNumber    string       `json:"documentNumber"`
	IDImage           *File        `json:"-"`
	SelfieImage       *File        `json:"-"`
	AddressProofImage *File        `json:"-"`
}

// ProfileCompletion is what the profile completion wizard submits.
type ProfileCompletion struct {
	Phone             string `json:"phone"`
	DateOfBirth       string `json:"dateOfBirth"`
	Gender            string `json:"gender"`
	Address           string `json:"address"`
	City              string `json:"city,omitempty"`
	Country           string `json:"country,omitempty"`
	EmergencyName     string `json:"emergencyContactName"`
	EmergencyPhone    string `json:"emergencyContactPhone"`
	EmergencyRelation string `json:"emergencyContactRelationship,omitempty"`
	ProfilePhoto      *File  `json:"-"`
}

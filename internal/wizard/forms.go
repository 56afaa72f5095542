package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jwalitptl/patient-companion/internal/model"
)

const (
	KindDoctorApplication = "doctor_application"
	KindProfileCompletion = "profile_completion"
)

const (
	dateRule   = "datetime=2006-01-02"
	genderRule = "oneof=male female other"
	phoneRule  = "min=7,max=20"
)

var DoctorApplication = &Definition{
	Kind: KindDoctorApplication,
	Steps: []Step{
		{
			Title: "Personal information",
			Fields: []Field{
				{Name: "firstName", Label: "First name", Required: true},
				{Name: "lastName", Label: "Last name", Required: true},
				{Name: "phone", Label: "Phone number", Required: true, Rule: phoneRule},
				{Name: "dateOfBirth", Label: "Date of birth", Required: true, Rule: dateRule},
				{Name: "gender", Label: "Gender", Required: true, Rule: genderRule},
				{Name: "address", Label: "Address", Required: true},
			},
		},
		{
			Title: "Professional details",
			Fields: []Field{
				{Name: "specialty", Label: "Specialty", Required: true},
				{Name: "licenseNumber", Label: "License number", Required: true},
				{Name: "yearsOfExperience", Label: "Years of experience", Required: true, Rule: "number,min=0"},
				{Name: "qualifications", Label: "Qualifications", Required: true},
				{Name: "hospitalAffiliation", Label: "Hospital affiliation"},
				{Name: "consultationFee", Label: "Consultation fee", Required: true, Rule: "numeric"},
				{Name: "bio", Label: "Bio", Rule: "max=1000"},
			},
		},
		{
			Title: "Documents",
			Files: []FileField{
				{Name: "licenseDocument", Label: "Medical license", Required: true},
				{Name: "degreeCertificate", Label: "Degree certificate", Required: true},
				{Name: "idDocument", Label: "Government ID", Required: true},
				{Name: "profilePhoto", Label: "Profile photo"},
			},
		},
		{
			Title: "Review and submit",
			Declarations: []Declaration{
				{Name: "agreeToTerms", Label: "Agreement to the terms of service"},
				{Name: "confirmAccuracy", Label: "Confirmation that the information is accurate"},
			},
		},
	},
}

var ProfileCompletion = &Definition{
	Kind: KindProfileCompletion,
	Steps: []Step{
		{
			Title: "About you",
			Fields: []Field{
				{Name: "phone", Label: "Phone number", Required: true, Rule: phoneRule},
				{Name: "dateOfBirth", Label: "Date of birth", Required: true, Rule: dateRule},
				{Name: "gender", Label: "Gender", Required: true, Rule: genderRule},
			},
			Files: []FileField{
				{Name: "profilePhoto", Label: "Profile photo"},
			},
		},
		{
			Title: "Address",
			Fields: []Field{
				{Name: "address", Label: "Address", Required: true},
				{Name: "city", Label: "City"},
				{Name: "country", Label: "Country"},
			},
		},
		{
			Title: "Emergency contact",
			Fields: []Field{
				{Name: "emergencyContactName", Label: "Emergency contact name", Required: true},
				{Name: "emergencyContactPhone", Label: "Emergency contact phone", Required: true, Rule: phoneRule},
				{Name: "emergencyContactRelationship", Label: "Relationship"},
			},
		},
	},
}

// Definitions lists the wizards by kind.
var Definitions = map[string]*Definition{
	KindDoctorApplication: DoctorApplication,
	KindProfileCompletion: ProfileCompletion,
}

func DoctorApplicationFrom(v Values) (model.DoctorApplication, error) {
	years, err := strconv.Atoi(v.Fields["yearsOfExperience"])
	if err != nil {
		return model.DoctorApplication{}, fmt.Errorf("years of experience: %w", err)
	}
	fee, err := strconv.ParseFloat(v.Fields["consultationFee"], 64)
	if err != nil {
		return model.DoctorApplication{}, fmt.Errorf("consultation fee: %w", err)
	}

	var qualifications []string
	for _, q := range strings.Split(v.Fields["qualifications"], ",") {
		if q = strings.TrimSpace(q); q != "" {
			qualifications = append(qualifications, q)
		}
	}

	return model.DoctorApplication{
		FirstName:           v.Fields["firstName"],
		LastName:            v.Fields["lastName"],
		Phone:               v.Fields["phone"],
		DateOfBirth:         v.Fields["dateOfBirth"],
		Gender:              v.Fields["gender"],
		Address:             v.Fields["address"],
		Specialty:           v.Fields["specialty"],
		LicenseNumber:       v.Fields["licenseNumber"],
		YearsOfExperience:   years,
		Qualifications:      qualifications,
		HospitalAffiliation: v.Fields["hospitalAffiliation"],
		ConsultationFee:     fee,
		Bio:                 v.Fields["bio"],
		LicenseDocument:     v.Files["licenseDocument"],
		DegreeCertificate:   v.Files["degreeCertificate"],
		IDDocument:          v.Files["idDocument"],
		ProfilePhoto:        v.Files["profilePhoto"],
		AgreeToTerms:        v.Fields["agreeToTerms"] == "true",
		ConfirmAccuracy:     v.Fields["confirmAccuracy"] == "true",
	}, nil
}

func ProfileCompletionFrom(v Values) model.ProfileCompletion {
	return model.ProfileCompletion{
		Phone:             v.Fields["phone"],
		DateOfBirth:       v.Fields["dateOfBirth"],
		Gender:            v.Fields["gender"],
		Address:           v.Fields["address"],
		City:              v.Fields["city"],
		Country:           v.Fields["country"],
		EmergencyName:     v.Fields["emergencyContactName"],
		EmergencyPhone:    v.Fields["emergencyContactPhone"],
		EmergencyRelation: v.Fields["emergencyContactRelationship"],
		ProfilePhoto:      v.Files["profilePhoto"],
	}
}

package apiclient

import (
	"context"

	"github.com/jwalitptl/patient-companion/internal/model"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
)

func (c *Client) ApplyToBecomeDoctor(ctx context.Context, app model.DoctorApplication) (*model.ApplicationStatus, error) {
	var status model.ApplicationStatus
	if err := c.sendMultipart(ctx, "doctor.apply", "/doctors/apply", DoctorApplicationForm(app), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) GetDoctorApplicationStatus(ctx context.Context) (*model.ApplicationStatus, error) {
	var status model.ApplicationStatus
	if err := c.getJSON(ctx, "doctor.application_status", "/doctors/application-status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) SubmitKYCDocuments(ctx context.Context, sub model.KYCSubmission) (*model.KYCStatus, error) {
	if !sub.DocumentType.Valid() {
		return nil, apperrors.Validation("unsupported document type", nil)
	}
	if sub.DocumentNumber == "" || !sub.IDImage.Present() || !sub.SelfieImage.Present() {
		return nil, apperrors.Validation("document number, ID image and selfie are required", nil)
	}
	var status model.KYCStatus
	if err := c.sendMultipart(ctx, "kyc.submit", "/kyc/submit", KYCForm(sub), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) GetKYCStatus(ctx context.Context) (*model.KYCStatus, error) {
	var status model.KYCStatus
	if err := c.getJSON(ctx, "kyc.status", "/kyc/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) CompleteProfile(ctx context.Context, p model.ProfileCompletion) (*model.PatientProfile, error) {
	var profile model.PatientProfile
	if err := c.sendMultipart(ctx, "profile.complete", "/patients/complete-profile", ProfileCompletionForm(p), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jwalitptl/patient-companion/internal/model"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
)

type reasonBody struct {
	Reason string `json:"reason,omitempty"`
}

func (c *Client) GetAllAnalytics(ctx context.Context) (*model.Analytics, error) {
	var analytics model.Analytics
	if err := c.getJSON(ctx, "admin.analytics", "/admin/analytics", nil, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

func (c *Client) GetDoctor(ctx context.Context, id string) (*model.DoctorProfile, error) {
	var doctor model.DoctorProfile
	if err := c.getJSON(ctx, "admin.doctor.get", doctorPath(id), nil, &doctor); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (c *Client) ApproveDoctor(ctx context.Context, id string) (*model.DoctorProfile, error) {
	return c.doctorTransition(ctx, "admin.doctor.approve", id, "approve", nil)
}

// RejectDoctor requires a reason; the remote service shows it to the applicant.
func (c *Client) RejectDoctor(ctx context.Context, id, reason string) (*model.DoctorProfile, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("a rejection reason is required", nil)
	}
	return c.doctorTransition(ctx, "admin.doctor.reject", id, "reject", &reasonBody{Reason: reason})
}

func (c *Client) SuspendDoctor(ctx context.Context, id, reason string) (*model.DoctorProfile, error) {
	return c.doctorTransition(ctx, "admin.doctor.suspend", id, "suspend", &reasonBody{Reason: strings.TrimSpace(reason)})
}

func (c *Client) UnsuspendDoctor(ctx context.Context, id string) (*model.DoctorProfile, error) {
	return c.doctorTransition(ctx, "admin.doctor.unsuspend", id, "unsuspend", nil)
}

func (c *Client) DeleteDoctor(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "admin.doctor.delete", doctorPath(id), nil, nil)
}

func (c *Client) ActivatePatient(ctx context.Context, id string) (*model.PatientProfile, error) {
	return c.patientTransition(ctx, "admin.patient.activate", id, "activate")
}

func (c *Client) DeactivatePatient(ctx context.Context, id string) (*model.PatientProfile, error) {
	return c.patientTransition(ctx, "admin.patient.deactivate", id, "deactivate")
}

func (c *Client) doctorTransition(ctx context.Context, endpoint, id, action string, body *reasonBody) (*model.DoctorProfile, error) {
	var in any
	if body != nil {
		in = body
	}
	var doctor model.DoctorProfile
	if err := c.sendJSON(ctx, http.MethodPut, endpoint, doctorPath(id)+"/"+action, in, &doctor); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (c *Client) patientTransition(ctx context.Context, endpoint, id, action string) (*model.PatientProfile, error) {
	var patient model.PatientProfile
	if err := c.sendJSON(ctx, http.MethodPut, endpoint, "/admin/patients/"+url.PathEscape(id)+"/"+action, nil, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

func doctorPath(id string) string {
	return "/admin/doctors/" + url.PathEscape(id)
}

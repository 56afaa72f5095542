package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jwalitptl/patient-companion/internal/model"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
)

func (c *Client) GetHealthProfile(ctx context.Context) (*model.HealthProfile, error) {
	var profile model.HealthProfile
	if err := c.getJSON(ctx, "health_profile.get", "/health-profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateHealthMetrics(ctx context.Context, metrics model.HealthMetrics) (*model.HealthProfile, error) {
	var profile model.HealthProfile
	if err := c.sendJSON(ctx, http.MethodPut, "health_profile.metrics", "/health-profile/metrics", metrics, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateNotificationPreferences(ctx context.Context, prefs model.NotificationPreferences) (*model.NotificationPreferences, error) {
	if err := prefs.Validate(); err != nil {
		return nil, apperrors.Validation("invalid notification preferences", err)
	}
	var saved model.NotificationPreferences
	if err := c.sendJSON(ctx, http.MethodPut, "health_profile.preferences", "/health-profile/notification-preferences", prefs, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *Client) GetMedications(ctx context.Context) ([]model.Medication, error) {
	var meds []model.Medication
	if err := c.getJSON(ctx, "medications.list", "/medications", nil, &meds); err != nil {
		return nil, err
	}
	return meds, nil
}

func (c *Client) AddMedication(ctx context.Context, med model.Medication) (*model.Medication, error) {
	if err := med.Validate(); err != nil {
		return nil, apperrors.Validation("invalid medication", err)
	}
	var created model.Medication
	if err := c.sendJSON(ctx, http.MethodPost, "medications.add", "/medications", med, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateMedication(ctx context.Context, id string, med model.Medication) (*model.Medication, error) {
	if err := med.Validate(); err != nil {
		return nil, apperrors.Validation("invalid medication", err)
	}
	var updated model.Medication
	if err := c.sendJSON(ctx, http.MethodPut, "medications.update", "/medications/"+url.PathEscape(id), med, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteMedication(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "medications.delete", "/medications/"+url.PathEscape(id), nil, nil)
}

func (c *Client) MarkMedicationTaken(ctx context.Context, id string) (*model.Medication, error) {
	var med model.Medication
	if err := c.sendJSON(ctx, http.MethodPost, "medications.taken", "/medications/"+url.PathEscape(id)+"/taken", nil, &med); err != nil {
		return nil, err
	}
	return &med, nil
}

func (c *Client) GetUpcomingReminders(ctx context.Context) ([]model.UpcomingReminder, error) {
	var reminders []model.UpcomingReminder
	if err := c.getJSON(ctx, "medications.upcoming", "/medications/reminders/upcoming", nil, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (c *Client) GetConditions(ctx context.Context) ([]model.Condition, error) {
	var conditions []model.Condition
	if err := c.getJSON(ctx, "conditions.list", "/conditions", nil, &conditions); err != nil {
		return nil, err
	}
	return conditions, nil
}

func (c *Client) AddCondition(ctx context.Context, in model.ConditionInput) (*model.Condition, error) {
	var condition model.Condition
	if err := c.sendJSON(ctx, http.MethodPost, "conditions.add", "/conditions", in, &condition); err != nil {
		return nil, err
	}
	return &condition, nil
}

func (c *Client) RemoveCondition(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "conditions.remove", "/conditions/"+url.PathEscape(id), nil, nil)
}

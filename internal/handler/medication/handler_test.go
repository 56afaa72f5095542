package medication

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patient-companion/internal/middleware"
	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/notifier/memory"
	"github.com/jwalitptl/patient-companion/internal/reminder"
	"github.com/jwalitptl/patient-companion/internal/repository"
	medicationService "github.com/jwalitptl/patient-companion/internal/service/medication"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
)

const patientID = "p1"

type mockService struct {
	mock.Mock
}

func (m *mockService) Refresh(ctx context.Context, patientID string) (*medicationService.Overview, error) {
	args := m.Called(ctx, patientID)
	o, _ := args.Get(0).(*medicationService.Overview)
	return o, args.Error(1)
}

func (m *mockService) Medications(ctx context.Context, patientID string) ([]model.Medication, error) {
	args := m.Called(ctx, patientID)
	meds, _ := args.Get(0).([]model.Medication)
	return meds, args.Error(1)
}

func (m *mockService) Add(ctx context.Context, patientID string, in model.MedicationInput) (*model.Medication, error) {
	args := m.Called(ctx, patientID, in)
	med, _ := args.Get(0).(*model.Medication)
	return med, args.Error(1)
}

func (m *mockService) Toggle(ctx context.Context, patientID, medicationID string, enabled bool) (*model.Medication, error) {
	args := m.Called(ctx, patientID, medicationID, enabled)
	med, _ := args.Get(0).(*model.Medication)
	return med, args.Error(1)
}

func (m *mockService) Delete(ctx context.Context, patientID, medicationID string) error {
	return m.Called(ctx, patientID, medicationID).Error(0)
}

func (m *mockService) MarkTaken(ctx context.Context, patientID string, resp model.NotificationResponse) (*model.Medication, error) {
	args := m.Called(ctx, patientID, resp)
	med, _ := args.Get(0).(*model.Medication)
	return med, args.Error(1)
}

func (m *mockService) UpdatePreferences(ctx context.Context, patientID string, prefs model.NotificationPreferences) (reminder.Summary, error) {
	args := m.Called(ctx, patientID, prefs)
	return args.Get(0).(reminder.Summary), args.Error(1)
}

func (m *mockService) SetPermission(ctx context.Context, patientID string, granted bool) (reminder.Summary, error) {
	args := m.Called(ctx, patientID, granted)
	return args.Get(0).(reminder.Summary), args.Error(1)
}

func (m *mockService) Upcoming(ctx context.Context, patientID string) ([]model.UpcomingReminder, error) {
	args := m.Called(ctx, patientID)
	out, _ := args.Get(0).([]model.UpcomingReminder)
	return out, args.Error(1)
}

type contactStore struct {
	contacts map[string]model.ReminderContact
}

func (s *contactStore) Upsert(_ context.Context, c *model.ReminderContact) error {
	s.contacts[c.PatientID] = *c
	return nil
}

func (s *contactStore) Get(_ context.Context, patientID string) (*model.ReminderContact, error) {
	c, ok := s.contacts[patientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *contactStore) Delete(_ context.Context, patientID string) error {
	if _, ok := s.contacts[patientID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.contacts, patientID)
	return nil
}

type deliveryLog struct {
	filter model.DeliveryFilter
	rows   []*model.Delivery
}

func (d *deliveryLog) Create(context.Context, *model.Delivery) error { return nil }

func (d *deliveryLog) List(_ context.Context, filter model.DeliveryFilter) ([]*model.Delivery, error) {
	d.filter = filter
	return d.rows, nil
}

func (d *deliveryLog) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type testAPI struct {
	engine     *gin.Engine
	svc        *mockService
	sessions   *reminder.Registry
	contacts   *contactStore
	deliveries *deliveryLog
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code int    `json:"code"`
		Kind string `json:"kind"`
	} `json:"error"`
}

func (r apiResponse) IsSuccess() bool { return r.Status == "success" }

func setup(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	platform := memory.NewPlatform(func() time.Time { return now })
	sessions := reminder.NewRegistry(reminder.RegistryConfig{
		Notifiers: platform.Factory(),
		Location:  time.UTC,
		Now:       func() time.Time { return now },
	})

	a := &testAPI{
		svc:        &mockService{},
		sessions:   sessions,
		contacts:   &contactStore{contacts: map[string]model.ReminderContact{}},
		deliveries: &deliveryLog{},
	}

	a.engine = gin.New()
	group := a.engine.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, patientID)
		c.Next()
	})
	NewHandler(a.svc, sessions, a.contacts, a.deliveries).RegisterRoutes(group)
	return a
}

func (a *testAPI) makeRequest(t *testing.T, method, path string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestAddMedication(t *testing.T) {
	a := setup(t)
	in := model.MedicationInput{DrugName: "Metformin", Dosage: "500mg", Frequency: model.FrequencyDaily, Time: "08:00"}
	a.svc.On("Add", mock.Anything, patientID, in).
		Return(&model.Medication{ID: "m1", DrugName: "Metformin", Enabled: true}, nil)

	code, resp := a.makeRequest(t, http.MethodPost, "/medications", in)
	assert.Equal(t, http.StatusCreated, code)
	assert.True(t, resp.IsSuccess())
	assert.Contains(t, string(resp.Data), `"_id":"m1"`)
	a.svc.AssertExpectations(t)
}

func TestAddMedicationRejectsMissingFields(t *testing.T) {
	a := setup(t)
	code, resp := a.makeRequest(t, http.MethodPost, "/medications", map[string]string{"drugName": "Metformin"})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation", resp.Error.Kind)
	a.svc.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleMedication(t *testing.T) {
	a := setup(t)
	a.svc.On("Toggle", mock.Anything, patientID, "m1", false).
		Return(&model.Medication{ID: "m1", Enabled: false}, nil)

	code, resp := a.makeRequest(t, http.MethodPatch, "/medications/m1/enabled", map[string]bool{"enabled": false})
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.IsSuccess())

	code, _ = a.makeRequest(t, http.MethodPatch, "/medications/m1/enabled", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	a.svc.AssertNumberOfCalls(t, "Toggle", 1)
}

func TestToggleSupersededIsConflict(t *testing.T) {
	a := setup(t)
	a.svc.On("Toggle", mock.Anything, patientID, "m1", true).
		Return(nil, apperrors.Conflict("superseded by a newer change", nil))

	code, resp := a.makeRequest(t, http.MethodPatch, "/medications/m1/enabled", map[string]bool{"enabled": true})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "conflict", resp.Error.Kind)
}

func TestDeleteMedicationNotFound(t *testing.T) {
	a := setup(t)
	a.svc.On("Delete", mock.Anything, patientID, "missing").
		Return(apperrors.NotFound("medication", nil))

	code, resp := a.makeRequest(t, http.MethodDelete, "/medications/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.IsSuccess())
}

func TestNotificationResponseMarksTaken(t *testing.T) {
	a := setup(t)
	resp := model.NotificationResponse{MedicationID: "m1"}
	a.svc.On("MarkTaken", mock.Anything, patientID, resp).Return(&model.Medication{ID: "m1"}, nil)

	code, _ := a.makeRequest(t, http.MethodPost, "/notifications/response", resp)
	assert.Equal(t, http.StatusOK, code)
	a.svc.AssertExpectations(t)
}

func TestSetPermissionRequiresFlag(t *testing.T) {
	a := setup(t)
	a.svc.On("SetPermission", mock.Anything, patientID, false).Return(reminder.Summary{}, nil)

	code, _ := a.makeRequest(t, http.MethodPut, "/notifications/permission", map[string]bool{"granted": false})
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.makeRequest(t, http.MethodPut, "/notifications/permission", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestToastCurrentAndHide(t *testing.T) {
	a := setup(t)

	_, resp := a.makeRequest(t, http.MethodGet, "/toasts/current", nil)
	assert.True(t, resp.IsSuccess())
	assert.Empty(t, resp.Data)

	a.sessions.Session(patientID).Toasts.Success("Saved")
	_, resp = a.makeRequest(t, http.MethodGet, "/toasts/current", nil)
	assert.Contains(t, string(resp.Data), "Saved")

	code, _ := a.makeRequest(t, http.MethodDelete, "/toasts/current", nil)
	assert.Equal(t, http.StatusOK, code)
	_, ok := a.sessions.Session(patientID).Toasts.Current()
	assert.False(t, ok)
}

func TestHandlesListsSchedulerRegistrations(t *testing.T) {
	a := setup(t)
	err := a.sessions.Session(patientID).Scheduler.ScheduleOne(context.Background(),
		model.Medication{ID: "m1", DrugName: "Metformin", Dosage: "500mg", Frequency: model.FrequencyDaily, Time: "09:00", Enabled: true},
		model.DefaultNotificationPreferences())
	require.NoError(t, err)

	_, resp := a.makeRequest(t, http.MethodGet, "/reminders/handles", nil)
	var handles []model.ScheduledHandle
	require.NoError(t, json.Unmarshal(resp.Data, &handles))
	require.Len(t, handles, 1)
	assert.Equal(t, "m1", handles[0].MedicationID)
}

func TestReminderContactLifecycle(t *testing.T) {
	a := setup(t)

	code, _ := a.makeRequest(t, http.MethodGet, "/reminders/contact", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.makeRequest(t, http.MethodPut, "/reminders/contact", map[string]interface{}{"email": "not-an-email", "enabled": true})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.makeRequest(t, http.MethodPut, "/reminders/contact", map[string]interface{}{"email": "ada@example.com", "enabled": true})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, patientID, a.contacts.contacts[patientID].PatientID)

	code, resp := a.makeRequest(t, http.MethodGet, "/reminders/contact", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "ada@example.com")

	code, _ = a.makeRequest(t, http.MethodDelete, "/reminders/contact", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.makeRequest(t, http.MethodDelete, "/reminders/contact", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeliveriesFilter(t *testing.T) {
	a := setup(t)
	a.deliveries.rows = []*model.Delivery{{PatientID: patientID, Channel: "push"}}

	code, _ := a.makeRequest(t, http.MethodGet, "/reminders/deliveries?medicationId=m1&limit=10&since=2024-05-01T00:00:00Z", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, patientID, a.deliveries.filter.PatientID)
	assert.Equal(t, "m1", a.deliveries.filter.MedicationID)
	assert.Equal(t, 10, a.deliveries.filter.Limit)
	require.NotNil(t, a.deliveries.filter.Since)

	code, _ = a.makeRequest(t, http.MethodGet, "/reminders/deliveries?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

package medication

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/reminder"
	"github.com/jwalitptl/patient-companion/internal/sequencer"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
	"github.com/jwalitptl/patient-companion/pkg/logger"
)

// ErrSuperseded is returned when a newer request for the same medication
// finished first.
var ErrSuperseded = errors.New("superseded by a newer request")

// RemoteAPI is the part of the remote service the medication screens use.
type RemoteAPI interface {
	GetHealthProfile(ctx context.Context) (*model.HealthProfile, error)
	UpdateNotificationPreferences(ctx context.Context, prefs model.NotificationPreferences) (*model.NotificationPreferences, error)
	GetMedications(ctx context.Context) ([]model.Medication, error)
	AddMedication(ctx context.Context, med model.Medication) (*model.Medication, error)
	UpdateMedication(ctx context.Context, id string, med model.Medication) (*model.Medication, error)
	DeleteMedication(ctx context.Context, id string) error
	MarkMedicationTaken(ctx context.Context, id string) (*model.Medication, error)
	GetUpcomingReminders(ctx context.Context) ([]model.UpcomingReminder, error)
}

type Overview struct {
	Profile          *model.HealthProfile `json:"profile"`
	Medications      []model.Medication   `json:"medications"`
	Reminders        reminder.Summary     `json:"reminders"`
	RemindersBlocked bool                 `json:"remindersBlocked"`
}

type Service interface {
	Refresh(ctx context.Context, patientID string) (*Overview, error)
	Medications(ctx context.Context, patientID string) ([]model.Medication, error)
	Add(ctx context.Context, patientID string, in model.MedicationInput) (*model.Medication, error)
	Toggle(ctx context.Context, patientID, medicationID string, enabled bool) (*model.Medication, error)
	Delete(ctx context.Context, patientID, medicationID string) error
	MarkTaken(ctx context.Context, patientID string, resp model.NotificationResponse) (*model.Medication, error)
	UpdatePreferences(ctx context.Context, patientID string, prefs model.NotificationPreferences) (reminder.Summary, error)
	SetPermission(ctx context.Context, patientID string, granted bool) (reminder.Summary, error)
	Upcoming(ctx context.Context, patientID string) ([]model.UpcomingReminder, error)
}

// patientState is the last copy of the patient's records fetched from the
// remote service.
type patientState struct {
	mu      sync.Mutex
	loaded  bool
	meds    []model.Medication
	prefs   model.NotificationPreferences
	toggles *sequencer.Sequencer
}

type service struct {
	api      RemoteAPI
	sessions *reminder.Registry
	log      *logger.Logger

	mu     sync.Mutex
	states map[string]*patientState
}

func NewService(api RemoteAPI, sessions *reminder.Registry, log *logger.Logger) Service {
	if log == nil {
		log = logger.Nop()
	}
	return &service{
		api:      api,
		sessions: sessions,
		log:      log,
		states:   make(map[string]*patientState),
	}
}

func (s *service) state(patientID string) *patientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[patientID]
	if !ok {
		st = &patientState{prefs: model.DefaultNotificationPreferences(), toggles: sequencer.New()}
		s.states[patientID] = st
	}
	return st
}

func (s *service) Refresh(ctx context.Context, patientID string) (*Overview, error) {
	session := s.sessions.Session(patientID)

	profile, err := s.api.GetHealthProfile(ctx)
	if err != nil {
		return nil, s.fail(session, "Failed to load health profile", err)
	}
	meds, err := s.api.GetMedications(ctx)
	if err != nil {
		return nil, s.fail(session, "Failed to load medications", err)
	}

	prefs := model.DefaultNotificationPreferences()
	if profile.NotificationPreferences != nil {
		prefs = *profile.NotificationPreferences
	}

	st := s.state(patientID)
	st.mu.Lock()
	st.loaded = true
	st.meds = meds
	st.prefs = prefs
	st.mu.Unlock()

	session.Scheduler.SetPatientName(profile.FirstName)
	summary, blocked, err := s.scheduleAll(ctx, session, append([]model.Medication(nil), meds...), prefs)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Profile:          profile,
		Medications:      append([]model.Medication(nil), meds...),
		Reminders:        summary,
		RemindersBlocked: blocked,
	}, nil
}

func (s *service) Medications(ctx context.Context, patientID string) ([]model.Medication, error) {
	st := s.state(patientID)
	st.mu.Lock()
	loaded, meds := st.loaded, append([]model.Medication(nil), st.meds...)
	st.mu.Unlock()
	if loaded {
		return meds, nil
	}

	overview, err := s.Refresh(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return overview.Medications, nil
}

func (s *service) Add(ctx context.Context, patientID string, in model.MedicationInput) (*model.Medication, error) {
	session := s.sessions.Session(patientID)

	med := in.Medication()
	if err := med.Validate(); err != nil {
		return nil, s.fail(session, "Please check the medication details", apperrors.Validation(err.Error(), err))
	}

	created, err := s.api.AddMedication(ctx, med)
	if err != nil {
		return nil, s.fail(session, "Failed to add medication", err)
	}

	if _, err := s.Refresh(ctx, patientID); err != nil {
		s.log.Error(err, "failed to refresh after adding medication", "patient_id", patientID)
	}
	session.Toasts.Success("Medication added successfully")
	return created, nil
}

// Toggle enables or disables a medication. Only the newest toggle per
// medication is applied locally; older responses are dropped.
func (s *service) Toggle(ctx context.Context, patientID, medicationID string, enabled bool) (*model.Medication, error) {
	session := s.sessions.Session(patientID)
	st := s.state(patientID)

	med, ok := st.find(medicationID)
	if !ok {
		if _, err := s.Medications(ctx, patientID); err != nil {
			return nil, err
		}
		if med, ok = st.find(medicationID); !ok {
			return nil, apperrors.NotFound("medication", nil)
		}
	}
	med.Enabled = enabled

	token := st.toggles.Begin(medicationID)
	updated, err := s.api.UpdateMedication(ctx, medicationID, med)
	if err != nil {
		if !st.toggles.IsLatest(token) {
			return nil, apperrors.Conflict(ErrSuperseded.Error(), ErrSuperseded)
		}
		return nil, s.fail(session, "Failed to update medication", err)
	}
	if updated.ID == "" {
		updated.ID = medicationID
	}

	var scheduleErr error
	applied := st.toggles.Commit(token, func() {
		st.replace(*updated)
		prefs := st.preferences()
		if updated.Enabled && prefs.MedicationReminders.Enabled && updated.Schedulable() {
			scheduleErr = session.Scheduler.ScheduleOne(ctx, *updated, prefs)
		} else {
			scheduleErr = session.Scheduler.CancelOne(ctx, medicationID)
		}
	})
	if !applied {
		s.log.Debug("dropping stale toggle response", "patient_id", patientID, "medication_id", medicationID)
		return nil, apperrors.Conflict(ErrSuperseded.Error(), ErrSuperseded)
	}
	if scheduleErr != nil && !errors.Is(scheduleErr, reminder.ErrPermissionDenied) {
		s.log.Error(scheduleErr, "failed to update reminder", "patient_id", patientID, "medication_id", medicationID)
	}

	if updated.Enabled {
		session.Toasts.Success("Reminders enabled")
	} else {
		session.Toasts.Info("Reminders disabled")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, patientID, medicationID string) error {
	session := s.sessions.Session(patientID)
	st := s.state(patientID)

	if err := s.api.DeleteMedication(ctx, medicationID); err != nil {
		return s.fail(session, "Failed to delete medication", err)
	}

	st.toggles.Forget(medicationID)
	st.remove(medicationID)
	if err := session.Scheduler.CancelOne(ctx, medicationID); err != nil {
		s.log.Error(err, "failed to cancel reminders", "patient_id", patientID, "medication_id", medicationID)
	}
	session.Toasts.Success("Medication deleted")
	return nil
}

// MarkTaken handles a tap on a delivered reminder.
func (s *service) MarkTaken(ctx context.Context, patientID string, resp model.NotificationResponse) (*model.Medication, error) {
	session := s.sessions.Session(patientID)

	med, err := s.api.MarkMedicationTaken(ctx, resp.MedicationID)
	if err != nil {
		return nil, s.fail(session, "Failed to mark medication as taken", err)
	}
	if med.ID == "" {
		med.ID = resp.MedicationID
	}
	s.state(patientID).replace(*med)

	name := med.DrugName
	if name == "" {
		name = "Medication"
	}
	session.Toasts.Success(fmt.Sprintf("%s marked as taken", name))
	return med, nil
}

func (s *service) UpdatePreferences(ctx context.Context, patientID string, prefs model.NotificationPreferences) (reminder.Summary, error) {
	session := s.sessions.Session(patientID)

	if err := prefs.Validate(); err != nil {
		return reminder.Summary{}, s.fail(session, "Invalid notification preferences", apperrors.Validation(err.Error(), err))
	}
	saved, err := s.api.UpdateNotificationPreferences(ctx, prefs)
	if err != nil {
		return reminder.Summary{}, s.fail(session, "Failed to save notification preferences", err)
	}

	st := s.state(patientID)
	st.mu.Lock()
	st.prefs = *saved
	meds := append([]model.Medication(nil), st.meds...)
	st.mu.Unlock()

	summary, _, err := s.scheduleAll(ctx, session, meds, *saved)
	if err != nil {
		return summary, err
	}
	session.Toasts.Success("Notification preferences saved")
	return summary, nil
}

func (s *service) SetPermission(ctx context.Context, patientID string, granted bool) (reminder.Summary, error) {
	session := s.sessions.Session(patientID)
	if err := session.Scheduler.SetPermission(ctx, granted); err != nil {
		return reminder.Summary{}, apperrors.Internal(err)
	}

	st := s.state(patientID)
	st.mu.Lock()
	meds, prefs := append([]model.Medication(nil), st.meds...), st.prefs
	st.mu.Unlock()

	summary, _, err := s.scheduleAll(ctx, session, meds, prefs)
	return summary, err
}

func (s *service) Upcoming(ctx context.Context, patientID string) ([]model.UpcomingReminder, error) {
	reminders, err := s.api.GetUpcomingReminders(ctx)
	if err != nil {
		return nil, s.fail(s.sessions.Session(patientID), "Failed to load upcoming reminders", err)
	}
	return reminders, nil
}

// scheduleAll reports a permission denial as blocked rather than as an error;
// the scheduler has already warned the patient.
func (s *service) scheduleAll(ctx context.Context, session *reminder.Session, meds []model.Medication, prefs model.NotificationPreferences) (reminder.Summary, bool, error) {
	summary, err := session.Scheduler.ScheduleAll(ctx, meds, prefs)
	if errors.Is(err, reminder.ErrPermissionDenied) {
		return summary, true, nil
	}
	if err != nil {
		return summary, false, apperrors.Internal(err)
	}
	if len(summary.Failures) > 0 {
		session.Toasts.Warning(fmt.Sprintf("%d medication reminder(s) could not be scheduled", len(summary.Failures)))
	}
	return summary, false, nil
}

// fail shows the error to the patient and returns it as an AppError.
func (s *service) fail(session *reminder.Session, message string, err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.New(apperrors.KindInternal, message, err)
	}

	toastMsg := message
	if appErr.Kind == apperrors.KindValidation && appErr.Message != "" {
		toastMsg = appErr.Message
	}
	session.Toasts.Error(toastMsg)
	s.log.Warn(message, "kind", string(appErr.Kind), "error", err.Error())
	return appErr
}

func (st *patientState) find(id string) (model.Medication, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, m := range st.meds {
		if m.ID == id {
			return m, true
		}
	}
	return model.Medication{}, false
}

// replace and remove build a new slice; callers may still hold the old one.
func (st *patientState) replace(med model.Medication) {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]model.Medication, 0, len(st.meds)+1)
	found := false
	for _, m := range st.meds {
		if m.ID == med.ID {
			m, found = med, true
		}
		out = append(out, m)
	}
	if !found {
		out = append(out, med)
	}
	st.meds = out
}

func (st *patientState) remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]model.Medication, 0, len(st.meds))
	for _, m := range st.meds {
		if m.ID != id {
			out = append(out, m)
		}
	}
	st.meds = out
}

func (st *patientState) preferences() model.NotificationPreferences {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.prefs
}

package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/notifier"
	"github.com/jwalitptl/patient-companion/internal/toast"
	"github.com/jwalitptl/patient-companion/pkg/logger"
	"github.com/jwalitptl/patient-companion/pkg/metrics"
)

var (
	ErrPermissionDenied = errors.New("notification permission not granted")
	ErrNotSchedulable   = errors.New("medication does not take reminders")
)

const permissionWarning = "Enable notifications to receive medication reminders"

type permissionState int

const (
	permissionUnknown permissionState = iota
	permissionGranted
	permissionDenied
)

// Toaster is where user-visible warnings go.
type Toaster interface {
	Show(message string, kind toast.Kind, duration time.Duration)
}

type Failure struct {
	MedicationID string `json:"medicationId"`
	Message      string `json:"error"`
	Err          error  `json:"-"`
}

// Summary reports one ScheduleAll pass.
type Summary struct {
	Medications   int       `json:"medications"`
	Registrations int       `json:"registrations"`
	Failures      []Failure `json:"failures,omitempty"`
}

type Config struct {
	PatientID string
	Notifier  notifier.Notifier
	Toaster   Toaster
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Location  *time.Location
	Now       func() time.Time
}

// Scheduler turns one patient's medications into notification registrations
// and remembers the handles needed to cancel them.
type Scheduler struct {
	mu         sync.Mutex
	patientID  string
	firstName  string
	handles    map[model.HandleKey]string
	permission permissionState

	notifier notifier.Notifier
	toaster  Toaster
	log      *logger.Logger
	metrics  *metrics.Metrics
	loc      *time.Location
	now      func() time.Time
}

func NewScheduler(cfg Config) *Scheduler {
	s := &Scheduler{
		patientID: cfg.PatientID,
		handles:   make(map[model.HandleKey]string),
		notifier:  cfg.Notifier,
		toaster:   cfg.Toaster,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		loc:       cfg.Location,
		now:       cfg.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetPatientName sets the first name used in reminder bodies.
func (s *Scheduler) SetPatientName(firstName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firstName = firstName
}

// SetLocation changes the time zone reminders are computed in.
func (s *Scheduler) SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loc = loc
}

// ScheduleAll cancels every registration of the patient and schedules the
// medications again from scratch.
func (s *Scheduler) ScheduleAll(ctx context.Context, meds []model.Medication, prefs model.NotificationPreferences) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summary Summary
	if err := s.cancelAllLocked(ctx); err != nil {
		return summary, err
	}

	if !prefs.MedicationReminders.Enabled {
		s.log.Debug("medication reminders disabled", "patient_id", s.patientID)
		return summary, nil
	}

	if err := s.ensurePermissionLocked(ctx); err != nil {
		return summary, err
	}

	for _, med := range meds {
		if !med.Schedulable() {
			continue
		}
		n, err := s.scheduleLocked(ctx, med, prefs.MedicationReminders)
		summary.Registrations += n
		if err != nil {
			s.log.Error(err, "failed to schedule medication reminder",
				"patient_id", s.patientID, "medication_id", med.ID)
			s.recordFailure(med, err)
			summary.Failures = append(summary.Failures, Failure{MedicationID: med.ID, Message: err.Error(), Err: err})
			continue
		}
		summary.Medications++
	}

	s.log.Info("medication reminders scheduled",
		"patient_id", s.patientID,
		"medications", summary.Medications,
		"registrations", summary.Registrations,
		"failures", len(summary.Failures))
	return summary, nil
}

// ScheduleOne (re)registers the reminders of a single medication, replacing
// any it already had.
func (s *Scheduler) ScheduleOne(ctx context.Context, med model.Medication, prefs model.NotificationPreferences) error {
	if !med.Schedulable() {
		return ErrNotSchedulable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensurePermissionLocked(ctx); err != nil {
		return err
	}
	if err := s.cancelOneLocked(ctx, med.ID); err != nil {
		return err
	}
	_, err := s.scheduleLocked(ctx, med, prefs.MedicationReminders)
	if err != nil {
		s.recordFailure(med, err)
	}
	return err
}

// CancelOne cancels the medication's registration and every per-weekday
// registration it has.
func (s *Scheduler) CancelOne(ctx context.Context, medicationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelOneLocked(ctx, medicationID)
}

func (s *Scheduler) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelAllLocked(ctx)
}

// Handles returns a snapshot of the handle map ordered by medication.
func (s *Scheduler) Handles() []model.ScheduledHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ScheduledHandle, 0, len(s.handles))
	for key, handle := range s.handles {
		h := model.ScheduledHandle{MedicationID: key.MedicationID, Handle: handle}
		if key.PerWeekday {
			h.Weekday = strings.ToLower(key.Weekday.String())
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MedicationID != out[j].MedicationID {
			return out[i].MedicationID < out[j].MedicationID
		}
		return out[i].Weekday < out[j].Weekday
	})
	return out
}

// SetPermission records the patient's answer on the platform and forgets the
// cached decision.
func (s *Scheduler) SetPermission(ctx context.Context, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.notifier.SetPermission(ctx, granted); err != nil {
		return fmt.Errorf("failed to store notification permission: %w", err)
	}
	s.permission = permissionUnknown
	return nil
}

// ResetPermission forgets a previous denial so the next pass asks again.
func (s *Scheduler) ResetPermission() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permission = permissionUnknown
}

func (s *Scheduler) scheduleLocked(ctx context.Context, med model.Medication, prefs model.MedicationReminderPreferences) (int, error) {
	planned, err := planTriggers(med, prefs.AdvanceNotice.Minutes(), s.now().In(s.loc))
	if err != nil {
		return 0, fmt.Errorf("medication %s: %w", med.ID, err)
	}

	registered := 0
	var errs []error
	for _, p := range planned {
		req := buildRequest(med, s.firstName, prefs, p.trigger)
		handle, err := s.notifier.Schedule(ctx, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("medication %s: %w", p.key, err))
			continue
		}
		s.handles[p.key] = handle
		registered++
		s.log.Debug("reminder registered",
			"patient_id", s.patientID,
			"key", p.key.String(),
			"handle", handle,
			"kind", string(p.trigger.Kind))
	}

	if s.metrics != nil {
		s.metrics.RemindersScheduled.WithLabelValues(string(med.Frequency)).Add(float64(registered))
		s.metrics.ActiveHandles.Add(float64(registered))
	}
	return registered, errors.Join(errs...)
}

func (s *Scheduler) cancelOneLocked(ctx context.Context, medicationID string) error {
	var errs []error
	for key, handle := range s.handles {
		if key.MedicationID != medicationID {
			continue
		}
		if err := s.notifier.Cancel(ctx, handle); err != nil && !errors.Is(err, notifier.ErrUnknownHandle) {
			errs = append(errs, fmt.Errorf("cancel %s: %w", key, err))
			continue
		}
		delete(s.handles, key)
		s.countCanceled(1)
	}
	return errors.Join(errs...)
}

func (s *Scheduler) cancelAllLocked(ctx context.Context) error {
	if err := s.notifier.CancelAll(ctx); err != nil {
		return fmt.Errorf("failed to cancel reminders: %w", err)
	}
	s.countCanceled(len(s.handles))
	s.handles = make(map[model.HandleKey]string)
	return nil
}

func (s *Scheduler) ensurePermissionLocked(ctx context.Context) error {
	switch s.permission {
	case permissionGranted:
		return nil
	case permissionDenied:
		return ErrPermissionDenied
	}

	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("failed to request notification permission: %w", err)
	}
	if granted {
		s.permission = permissionGranted
		return nil
	}

	s.permission = permissionDenied
	s.log.Warn("notification permission denied", "patient_id", s.patientID)
	if s.toaster != nil {
		s.toaster.Show(permissionWarning, toast.KindWarning, 0)
	}
	return ErrPermissionDenied
}

func (s *Scheduler) recordFailure(med model.Medication, err error) {
	if s.metrics == nil {
		return
	}
	reason := "invalid"
	if errors.Is(err, notifier.ErrTriggerInPast) {
		reason = "past"
	} else if _, _, perr := model.ParseClock(med.Time); perr == nil {
		reason = "platform"
	}
	s.metrics.ScheduleFailures.WithLabelValues(reason).Inc()
}

func (s *Scheduler) countCanceled(n int) {
	if s.metrics == nil || n == 0 {
		return
	}
	s.metrics.RemindersCanceled.Add(float64(n))
	s.metrics.ActiveHandles.Sub(float64(n))
}

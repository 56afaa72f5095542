package reminder

import (
	"sync"
	"time"

	"github.com/jwalitptl/patient-companion/internal/notifier"
	"github.com/jwalitptl/patient-companion/internal/toast"
	"github.com/jwalitptl/patient-companion/pkg/logger"
	"github.com/jwalitptl/patient-companion/pkg/metrics"
)

// Session is the per-patient state kept between requests.
type Session struct {
	Scheduler *Scheduler
	Toasts    *toast.Manager
}

type RegistryConfig struct {
	Notifiers notifier.Factory
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Location  *time.Location
	Now       func() time.Time
	Toast     toast.Options
}

// Registry lazily creates one session per patient.
type Registry struct {
	mu       sync.Mutex
	cfg      RegistryConfig
	sessions map[string]*Session
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Registry{cfg: cfg, sessions: make(map[string]*Session)}
}

func (r *Registry) Session(patientID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[patientID]; ok {
		return s
	}

	toasts := toast.NewManager(r.cfg.Toast)
	s := &Session{
		Toasts: toasts,
		Scheduler: NewScheduler(Config{
			PatientID: patientID,
			Notifier:  r.cfg.Notifiers(patientID),
			Toaster:   toasts,
			Logger:    r.cfg.Logger.WithFields(map[string]interface{}{"patient_id": patientID}),
			Metrics:   r.cfg.Metrics,
			Location:  r.cfg.Location,
			Now:       r.cfg.Now,
		}),
	}
	r.sessions[patientID] = s
	return s
}

// Drop forgets the patient's session; registrations stay on the platform.
func (r *Registry) Drop(patientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, patientID)
}

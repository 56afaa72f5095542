package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/notifier"
)

type registration struct {
	patientID string
	request   model.NotificationRequest
	next      time.Time
}

// Platform keeps registrations in process memory. It backs local mode and tests.
type Platform struct {
	mu          sync.Mutex
	regs        map[string]*registration
	denied      map[string]bool
	permissions map[string]int
	now         func() time.Time
}

func NewPlatform(now func() time.Time) *Platform {
	if now == nil {
		now = time.Now
	}
	return &Platform{
		regs:        make(map[string]*registration),
		denied:      make(map[string]bool),
		permissions: make(map[string]int),
		now:         now,
	}
}

// Factory hands out patient-scoped notifiers sharing this platform.
func (p *Platform) Factory() notifier.Factory {
	return func(patientID string) notifier.Notifier {
		return &patientNotifier{platform: p, patientID: patientID}
	}
}

// Registrations returns the patient's active requests keyed by handle.
func (p *Platform) Registrations(patientID string) map[string]model.NotificationRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]model.NotificationRequest)
	for handle, r := range p.regs {
		if r.patientID == patientID {
			out[handle] = r.request
		}
	}
	return out
}

// PermissionRequests counts how often the patient was asked for permission.
func (p *Platform) PermissionRequests(patientID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permissions[patientID]
}

// Due returns registrations whose next fire instant is at or before now.
func (p *Platform) Due(_ context.Context, now time.Time, limit int) ([]notifier.Due, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var due []notifier.Due
	for handle, r := range p.regs {
		if !r.next.After(now) {
			due = append(due, notifier.Due{PatientID: r.patientID, Handle: handle, DueAt: r.next, Request: r.request})
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DueAt.Before(due[j].DueAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// Rearm moves a repeating registration to its next occurrence and drops one-shots.
func (p *Platform) Rearm(_ context.Context, d notifier.Due, firedAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.regs[d.Handle]
	if !ok {
		return nil
	}
	if !r.request.Trigger.Repeats {
		delete(p.regs, d.Handle)
		return nil
	}
	after := firedAt
	if d.DueAt.After(after) {
		after = d.DueAt
	}
	next, ok := r.request.Trigger.Next(after)
	if !ok {
		delete(p.regs, d.Handle)
		return nil
	}
	r.next = next
	return nil
}

type patientNotifier struct {
	platform  *Platform
	patientID string
}

func (n *patientNotifier) RequestPermission(_ context.Context) (bool, error) {
	n.platform.mu.Lock()
	defer n.platform.mu.Unlock()
	n.platform.permissions[n.patientID]++
	return !n.platform.denied[n.patientID], nil
}

func (n *patientNotifier) SetPermission(_ context.Context, granted bool) error {
	n.platform.mu.Lock()
	defer n.platform.mu.Unlock()
	n.platform.denied[n.patientID] = !granted
	return nil
}

func (n *patientNotifier) Schedule(_ context.Context, req model.NotificationRequest) (string, error) {
	now := n.platform.now()
	next, ok := req.Trigger.Next(now)
	if !ok {
		return "", notifier.ErrTriggerInPast
	}

	n.platform.mu.Lock()
	defer n.platform.mu.Unlock()

	handle := uuid.NewString()
	n.platform.regs[handle] = &registration{patientID: n.patientID, request: req, next: next}
	return handle, nil
}

func (n *patientNotifier) Cancel(_ context.Context, handle string) error {
	n.platform.mu.Lock()
	defer n.platform.mu.Unlock()

	r, ok := n.platform.regs[handle]
	if !ok || r.patientID != n.patientID {
		return notifier.ErrUnknownHandle
	}
	delete(n.platform.regs, handle)
	return nil
}

func (n *patientNotifier) CancelAll(_ context.Context) error {
	n.platform.mu.Lock()
	defer n.platform.mu.Unlock()

	for handle, r := range n.platform.regs {
		if r.patientID == n.patientID {
			delete(n.platform.regs, handle)
		}
	}
	return nil
}

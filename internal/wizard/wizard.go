package wizard

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/patient-companion/internal/model"
)

var (
	ErrLastStep         = errors.New("already on the last step")
	ErrNotLastStep      = errors.New("submit is only allowed from the last step")
	ErrAlreadySubmitted = errors.New("form already submitted")
	ErrUnknownFile      = errors.New("unknown file field")
)

var validate = validator.New()

// Field is one input of a step. Rule is a validator tag applied to non-empty values.
type Field struct {
	Name     string
	Label    string
	Required bool
	Rule     string
}

type FileField struct {
	Name     string
	Label    string
	Required bool
}

// Declaration is a checkbox that must be ticked before submitting.
type Declaration struct {
	Name  string
	Label string
}

type Step struct {
	Title        string
	Fields       []Field
	Files        []FileField
	Declarations []Declaration
}

type Definition struct {
	Kind  string
	Steps []Step
}

// MissingError lists what blocks leaving a step or submitting.
type MissingError struct {
	Step    int      `json:"step"`
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

func (e *MissingError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "please provide: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "please correct: "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("step %d incomplete: %s", e.Step, strings.Join(parts, "; "))
}

// State is a snapshot of a wizard for display.
type State struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Step      int               `json:"step"`
	Total     int               `json:"total"`
	Title     string            `json:"title"`
	Values    map[string]string `json:"values"`
	Files     []string          `json:"files"`
	Submitted bool              `json:"submitted"`
}

// Values is what a completed wizard hands to the form builders.
type Values struct {
	Fields map[string]string
	Files  map[string]*model.File
}

// Wizard walks a Definition one step at a time. Steps are numbered from 1.
type Wizard struct {
	mu        sync.Mutex
	id        string
	owner     string
	def       *Definition
	current   int
	values    map[string]string
	files     map[string]*model.File
	submitted bool
}

func New(def *Definition, owner string) *Wizard {
	return &Wizard{
		id:      uuid.NewString(),
		owner:   owner,
		def:     def,
		current: 1,
		values:  make(map[string]string),
		files:   make(map[string]*model.File),
	}
}

func (w *Wizard) ID() string    { return w.id }
func (w *Wizard) Owner() string { return w.owner }

func (w *Wizard) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Set merges field values. Blank values clear the field.
func (w *Wizard) Set(values map[string]string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			delete(w.values, k)
			continue
		}
		w.values[k] = v
	}
}

// Attach stores a picked file under one of the definition's file fields.
func (w *Wizard) Attach(name string, f *model.File) error {
	if !w.def.hasFile(name) {
		return fmt.Errorf("%w: %s", ErrUnknownFile, name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !f.Present() {
		delete(w.files, name)
		return nil
	}
	w.files[name] = f
	return nil
}

// Next moves forward only when the current step is complete.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current >= len(w.def.Steps) {
		return ErrLastStep
	}
	if err := w.checkStepLocked(w.current, false); err != nil {
		return err
	}
	w.current++
	return nil
}

// Previous always succeeds and stays put on the first step.
func (w *Wizard) Previous() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current > 1 {
		w.current--
	}
}

// Complete checks every step including declarations and returns the
// collected values. It only works from the last step.
func (w *Wizard) Complete() (Values, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted {
		return Values{}, ErrAlreadySubmitted
	}
	if w.current != len(w.def.Steps) {
		return Values{}, ErrNotLastStep
	}
	for i := 1; i <= len(w.def.Steps); i++ {
		if err := w.checkStepLocked(i, true); err != nil {
			return Values{}, err
		}
	}

	v := Values{Fields: make(map[string]string, len(w.values)), Files: make(map[string]*model.File, len(w.files))}
	for k, val := range w.values {
		v.Fields[k] = val
	}
	for k, f := range w.files {
		v.Files[k] = f
	}
	return v, nil
}

func (w *Wizard) MarkSubmitted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitted = true
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	values := make(map[string]string, len(w.values))
	for k, v := range w.values {
		values[k] = v
	}
	files := make([]string, 0, len(w.files))
	for _, step := range w.def.Steps {
		for _, f := range step.Files {
			if _, ok := w.files[f.Name]; ok {
				files = append(files, f.Name)
			}
		}
	}
	return State{
		ID:        w.id,
		Kind:      w.def.Kind,
		Step:      w.current,
		Total:     len(w.def.Steps),
		Title:     w.def.Steps[w.current-1].Title,
		Values:    values,
		Files:     files,
		Submitted: w.submitted,
	}
}

func (w *Wizard) checkStepLocked(n int, withDeclarations bool) error {
	step := w.def.Steps[n-1]
	missing := &MissingError{Step: n}

	for _, f := range step.Fields {
		v, ok := w.values[f.Name]
		if !ok {
			if f.Required {
				missing.Missing = append(missing.Missing, f.Label)
			}
			continue
		}
		if f.Rule != "" {
			if err := validate.Var(v, f.Rule); err != nil {
				missing.Invalid = append(missing.Invalid, f.Label)
			}
		}
	}
	for _, f := range step.Files {
		if f.Required && !w.files[f.Name].Present() {
			missing.Missing = append(missing.Missing, f.Label)
		}
	}
	if withDeclarations {
		for _, d := range step.Declarations {
			if w.values[d.Name] != "true" {
				missing.Missing = append(missing.Missing, d.Label)
			}
		}
	}

	if len(missing.Missing) > 0 || len(missing.Invalid) > 0 {
		return missing
	}
	return nil
}

func (d *Definition) hasFile(name string) bool {
	for _, s := range d.Steps {
		for _, f := range s.Files {
			if f.Name == name {
				return true
			}
		}
	}
	return false
}

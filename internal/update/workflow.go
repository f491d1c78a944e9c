package update

import (
	"errors"
	"fmt"
	"sync"

	"github.com/avoelk/gamekeeper/internal/model"
)

// State is one phase of the two-phase update protocol.
type State string

const (
	StateIdle       State = "idle"
	StatePreviewing State = "previewing"
	StateReady      State = "ready"
	StateUpdating   State = "updating"
	StateDone       State = "done"
	StateError      State = "error"
)

// ErrInvalidTransition is returned for out-of-order workflow calls.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// Workflow enforces the preview → commit protocol for one game:
//
//	idle → previewing → ready → updating → {done | error}
//
// ready → idle ("back") discards the preview; error/done → idle allows a
// retry. Updating is never re-entered without a fresh preview pass.
type Workflow struct {
	mu      sync.Mutex
	updater *Updater

	state   State
	exe     string
	source  string
	preview *model.UpdatePreview
}

// NewWorkflow wraps an Updater in the two-phase protocol.
func NewWorkflow(u *Updater) *Workflow {
	return &Workflow{updater: u, state: StateIdle}
}

// State returns the current phase.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Planned returns the preview computed by the last successful Preview call,
// nil outside the ready state.
func (w *Workflow) Planned() *model.UpdatePreview {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.preview
}

// Preview computes a plan and moves idle → ready. A preview failure returns
// to idle with nothing changed.
func (w *Workflow) Preview(exePath, sourcePath string) (model.UpdatePreview, error) {
	w.mu.Lock()
	if w.state != StateIdle {
		state := w.state
		w.mu.Unlock()
		return model.UpdatePreview{}, fmt.Errorf("%w: preview from %s", ErrInvalidTransition, state)
	}
	w.state = StatePreviewing
	w.mu.Unlock()

	p, err := w.updater.Preview(exePath, sourcePath)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateIdle
		return model.UpdatePreview{}, err
	}
	w.state = StateReady
	w.exe = exePath
	w.source = sourcePath
	w.preview = &p
	return p, nil
}

// Apply commits the previously previewed plan, moving ready → updating →
// done or error. The applier recomputes protection itself; the stored
// preview only pins which game and source were confirmed.
func (w *Workflow) Apply() (model.UpdateResult, error) {
	w.mu.Lock()
	if w.state != StateReady {
		state := w.state
		w.mu.Unlock()
		return model.UpdateResult{}, fmt.Errorf("%w: apply from %s", ErrInvalidTransition, state)
	}
	w.state = StateUpdating
	exe, source := w.exe, w.source
	w.mu.Unlock()

	res, err := w.updater.Apply(exe, source)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.preview = nil
	if err != nil {
		w.state = StateError
		return res, err
	}
	w.state = StateDone
	return res, nil
}

// Back discards the preview, ready → idle.
func (w *Workflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateReady {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, w.state)
	}
	w.state = StateIdle
	w.preview = nil
	w.exe, w.source = "", ""
	return nil
}

// Reset returns to idle from a terminal state so a fresh preview can run.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateDone && w.state != StateError {
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, w.state)
	}
	w.state = StateIdle
	w.preview = nil
	w.exe, w.source = "", ""
	return nil
}

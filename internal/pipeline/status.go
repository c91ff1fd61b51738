package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Phase is the stage a Session is in.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseReading  Phase = "reading"
	PhaseAligning Phase = "aligning"
	PhaseWriting  Phase = "writing"
	PhaseDone     Phase = "done"
	PhaseFailed   Phase = "failed"
)

// Status is a point-in-time snapshot of a run, served on the status endpoint.
type Status struct {
	Phase     Phase     `json:"phase"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	Aligned   int       `json:"aligned"`
	Skipped   int       `json:"skipped"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type tracker struct {
	mu     sync.RWMutex
	status Status
}

func newTracker() *tracker {
	return &tracker{status: Status{Phase: PhaseIdle, UpdatedAt: time.Now().UTC()}}
}

func (t *tracker) update(fn func(*Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.status)
	t.status.UpdatedAt = time.Now().UTC()
}

func (t *tracker) enter(p Phase) {
	t.update(func(s *Status) { s.Phase = p })
}

func (t *tracker) fail(err error) {
	t.update(func(s *Status) {
		s.Phase = PhaseFailed
		s.Error = err.Error()
	})
}

func (t *tracker) snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Status returns the current run status.
func (s *Session) Status() Status {
	return s.status.snapshot()
}

// CheckReadiness reports ready once the aligned output has been written.
func (s *Session) CheckReadiness(_ context.Context) error {
	st := s.status.snapshot()
	switch st.Phase {
	case PhaseDone:
		return nil
	case PhaseFailed:
		return errors.New("alignment failed: " + st.Error)
	default:
		return fmt.Errorf("alignment %s", st.Phase)
	}
}

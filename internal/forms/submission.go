package forms

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	Submitting
	Success
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "submitting":
		*s = Submitting
	case "success":
		*s = Success
	default:
		return fmt.Errorf("forms: unknown state %q", b)
	}
	return nil
}

// DefaultDelay is the artificial latency of a submission.
const DefaultDelay = 1200 * time.Millisecond

// Submission is the Idle -> Submitting -> Success lifecycle of one form.
// Success is terminal.
type Submission struct {
	mu    sync.Mutex
	state State
	delay time.Duration
}

func NewSubmission(delay time.Duration) *Submission {
	return &Submission{delay: delay}
}

func (s *Submission) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit moves the form to Submitting when check passes, waits the fixed
// delay, runs commit and lands in Success. A failed check leaves the form
// Idle. Submitting twice returns ErrAlreadySubmitted. A commit error puts
// the form back to Idle.
func (s *Submission) Submit(ctx context.Context, check func() error, commit func(context.Context) error) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrAlreadySubmitted
	}
	if err := check(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = Submitting
	s.mu.Unlock()

	// in-flight submissions cannot be aborted
	ctx = context.WithoutCancel(ctx)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	err := commit(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Idle
		return err
	}
	s.state = Success
	return nil
}

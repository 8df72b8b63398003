package report

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is a step of the report interaction.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateRejected    State = "rejected"
	StateResolving   State = "resolving"
	StateClassifying State = "classifying"
	StateReady       State = "ready"
)

// Snapshot is a point-in-time view of a Session.
type Snapshot struct {
	State  State   `json:"state"`
	Report *Report `json:"report,omitempty"`
	Err    error   `json:"-"`
}

// Session owns the single "current report" slot of one user. Submissions are
// serialized: a new Submit cancels the one in flight, and only the latest
// submission may write the slot.
type Session struct {
	assembler *Assembler

	mu      sync.Mutex
	state   State
	gen     uint64
	cancel  context.CancelFunc
	current *Report
	lastErr error
}

// NewSession creates an idle Session.
func NewSession(a *Assembler) *Session {
	return &Session{assembler: a, state: StateIdle}
}

// Submit validates, resolves and classifies req. An invalid req is rejected
// without touching the submission in flight. It returns ErrSuperseded if a
// newer valid submission started before this one finished.
func (s *Session) Submit(ctx context.Context, req Request) (*Report, error) {
	if err := Validate(req); err != nil {
		s.reject(err)
		return nil, err
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateValidating
	s.lastErr = nil
	s.mu.Unlock()
	defer cancel()

	if !s.advance(gen, StateResolving) {
		return nil, ErrSuperseded
	}
	target := s.assembler.Resolve(req)

	if !s.advance(gen, StateClassifying) {
		return nil, ErrSuperseded
	}
	rep := s.assembler.Complete(ctx, req.City, target)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		zap.L().Debug("report: dropping superseded result", zap.String("sector", target.Name))
		return nil, ErrSuperseded
	}
	s.cancel = nil
	if err := ctx.Err(); err != nil {
		s.state = StateIdle
		s.lastErr = err
		return nil, eris.Wrap(err, "report: submission canceled")
	}
	s.state = StateReady
	s.current = rep
	return rep, nil
}

// InputChanged records an edit of the form. A rejected session returns to
// idle, and a busy one forgets the rejection; other states are unaffected.
func (s *Session) InputChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateRejected:
		s.state = StateIdle
		s.lastErr = nil
	case s.cancel != nil:
		s.lastErr = nil
	}
}

// Snapshot returns the current state, report and last rejection.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Report: s.current, Err: s.lastErr}
}

func (s *Session) advance(gen uint64, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.state = to
	return true
}

// reject records a validation failure. A submission still in flight is left
// running and keeps the busy state; only an idle session becomes Rejected.
func (s *Session) reject(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if s.cancel == nil {
		s.state = StateRejected
	}
}

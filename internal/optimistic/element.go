// Package optimistic keeps a locally rendered interaction state ahead of the
// server and reconciles it when the authoritative answer arrives.
package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/imoto-rec-git/sns-like-app/internal/logging"
)

// State is what a like or follow button renders.
type State struct {
	Present bool `json:"present"`
	Count   int  `json:"count"`
}

func (s State) flipped() State {
	s.Present = !s.Present
	if s.Present {
		s.Count++
	} else if s.Count > 0 {
		s.Count--
	}
	return s
}

type Phase int

const (
	Confirmed Phase = iota
	Pending
)

func (p Phase) String() string {
	if p == Pending {
		return "pending"
	}
	return "confirmed"
}

type Outcome int

const (
	// OutcomeConfirmed means the server agreed with the speculation.
	OutcomeConfirmed Outcome = iota
	// OutcomeDiverged means the server succeeded with a different state,
	// which replaced the rendered one.
	OutcomeDiverged
	// OutcomeReverted means the call failed and the rendered state went back
	// to the last confirmed one.
	OutcomeReverted
	// OutcomeSuperseded means a newer response or a Refresh had already been
	// applied.
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeDiverged:
		return "diverged"
	case OutcomeReverted:
		return "reverted"
	case OutcomeSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Result reports how one Act call settled. State is the server's answer, or
// the restored confirmed state when Err is set.
type Result struct {
	Outcome Outcome
	State   State
	Err     error
}

// ToggleFunc performs the server side toggle and returns the authoritative
// state.
type ToggleFunc func(ctx context.Context) (State, error)

type Snapshot struct {
	Phase     Phase
	Rendered  State
	Confirmed State
	InFlight  int
}

type Option func(*Element)

// WithOnChange registers a render hook. It runs with the element locked and
// must not call back into the element.
func WithOnChange(fn func(Snapshot)) Option {
	return func(e *Element) { e.onChange = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Element) {
		if logger != nil {
			e.logger = logger
		}
	}
}

type Element struct {
	mu        sync.Mutex
	confirmed State
	rendered  State
	inFlight  int
	seq       uint64
	applied   uint64

	toggle   ToggleFunc
	onChange func(Snapshot)
	logger   *slog.Logger
}

func NewElement(initial State, toggle ToggleFunc, opts ...Option) *Element {
	e := &Element{
		confirmed: initial,
		rendered:  initial,
		toggle:    toggle,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Act flips the rendered state immediately and dispatches the toggle. The
// returned channel receives exactly one Result and is then closed. Acting
// again while a toggle is in flight is allowed.
func (e *Element) Act(ctx context.Context) <-chan Result {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	expected := e.rendered.flipped()
	e.rendered = expected
	e.inFlight++
	e.changedLocked()
	e.mu.Unlock()

	out := make(chan Result, 1)
	go func() {
		defer close(out)
		state, err := e.toggle(ctx)
		out <- e.settle(seq, expected, state, err)
	}()
	return out
}

func (e *Element) settle(seq uint64, expected, state State, err error) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inFlight--
	var res Result
	switch {
	case err != nil:
		e.logger.Warn("toggle failed, reverting", "seq", seq, "error", err)
		e.rendered = e.confirmed
		res = Result{Outcome: OutcomeReverted, State: e.confirmed, Err: err}
	case seq <= e.applied:
		res = Result{Outcome: OutcomeSuperseded, State: state}
	default:
		e.applied = seq
		e.confirmed = state
		res = Result{Outcome: OutcomeConfirmed, State: state}
		if state != expected {
			e.logger.Info("server state diverged", "seq", seq, "expected", expected, "got", state)
			e.rendered = state
			res.Outcome = OutcomeDiverged
		}
	}
	if e.inFlight == 0 {
		e.rendered = e.confirmed
	}
	e.changedLocked()
	return res
}

// Refresh replaces the confirmed state with one read from the server, for
// example after an invalidation push. A pending speculation stays rendered,
// but responses to toggles dispatched before the refresh no longer replace
// the confirmed state.
func (e *Element) Refresh(state State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applied = e.seq
	e.confirmed = state
	if e.inFlight == 0 {
		e.rendered = state
	}
	e.changedLocked()
}

func (e *Element) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Element) snapshotLocked() Snapshot {
	phase := Confirmed
	if e.inFlight > 0 {
		phase = Pending
	}
	return Snapshot{Phase: phase, Rendered: e.rendered, Confirmed: e.confirmed, InFlight: e.inFlight}
}

func (e *Element) changedLocked() {
	if e.onChange != nil {
		e.onChange(e.snapshotLocked())
	}
}

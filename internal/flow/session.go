package flow

import (
	"context"
	"sync"
	"sync/atomic"

	"dcrclient/internal/authstate"
	"dcrclient/internal/config"
	"dcrclient/internal/metrics"
	"dcrclient/pkg/logging"
)

// Name identifies one of the three flows.
type Name string

const (
	NameRegistration    Name = "registration"
	NameUnauthenticated Name = "unauthenticated"
	NameAuthenticated   Name = "authenticated"
)

// Flow is the capability shared by the three flow variants.
type Flow interface {
	ErrorReporter
	Name() Name
}

const (
	defaultEventBuffer    = 32
	defaultDispatchBuffer = 64
)

// Session wires the state store, transport and claims reader to the three
// flows and runs them on a Dispatcher.
//
// Flow methods may be called from any goroutine except the dispatcher's
// own. They check preconditions synchronously, then run network work in
// the background and apply the results on the dispatcher. Outcomes are
// reported on Events.
//
// Flows are expected to be invoked one at a time. The state checks reject
// overlapping operations, but the store itself gives no cross-call
// atomicity.
type Session struct {
	cfg        config.Config
	store      *authstate.Store
	transport  Transport
	claims     ClaimsReader
	metrics    *metrics.Metrics
	dispatcher *Dispatcher

	softwareVersion string

	state  atomic.Int32
	events chan Event

	background sync.WaitGroup

	registration    *RegistrationFlow
	unauthenticated *UnauthenticatedFlow
	authenticated   *AuthenticatedFlow
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSoftwareVersion sets the software_version sent when registering.
func WithSoftwareVersion(version string) SessionOption {
	return func(s *Session) {
		s.softwareVersion = version
	}
}

// WithMetrics records flow outcomes on m.
func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(n int) SessionOption {
	return func(s *Session) {
		s.events = make(chan Event, n)
	}
}

// NewSession creates a session. Its initial state is StateRegistered when
// the store holds a registration and StateUnregistered otherwise. Call Run
// to start processing.
func NewSession(cfg config.Config, store *authstate.Store, transport Transport, claims ClaimsReader, opts ...SessionOption) *Session {
	s := &Session{
		cfg:        cfg,
		store:      store,
		transport:  transport,
		claims:     claims,
		dispatcher: NewDispatcher(defaultDispatchBuffer),
		events:     make(chan Event, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}

	initial := StateUnregistered
	if store.Registration() != nil {
		initial = StateRegistered
	}
	s.state.Store(int32(initial))

	s.registration = &RegistrationFlow{session: s}
	s.unauthenticated = &UnauthenticatedFlow{session: s}
	s.authenticated = &AuthenticatedFlow{session: s}
	return s
}

// Run processes dispatcher tasks until ctx is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) {
	logging.Debug("Flow", "Session started in state %s", s.State())
	s.dispatcher.Run(ctx)
	logging.Debug("Flow", "Session stopped")
}

// Close stops the session. Background operations still in flight finish
// but their results are dropped.
func (s *Session) Close() {
	s.dispatcher.Close()
}

// Wait blocks until all background operations have finished.
func (s *Session) Wait() {
	s.background.Wait()
}

// Events returns the channel on which the session reports outcomes. It
// must be drained; emission blocks when it is full.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Store returns the session's state store.
func (s *Session) Store() *authstate.Store {
	return s.store
}

func (s *Session) Registration() *RegistrationFlow       { return s.registration }
func (s *Session) Unauthenticated() *UnauthenticatedFlow { return s.unauthenticated }
func (s *Session) Authenticated() *AuthenticatedFlow     { return s.authenticated }

// Current returns the flow that owns the current state.
func (s *Session) Current() Flow {
	switch s.State() {
	case StateUnregistered, StateRegistering:
		return s.registration
	case StateRegistered, StateLoggingIn:
		return s.unauthenticated
	default:
		return s.authenticated
	}
}

// call runs fn on the dispatcher and waits for its result.
func (s *Session) call(fn func() error) error {
	result := make(chan error, 1)
	if !s.dispatcher.Post(func() { result <- fn() }) {
		return ErrSessionClosed
	}
	select {
	case err := <-result:
		return err
	case <-s.dispatcher.Done():
		return ErrSessionClosed
	}
}

// runAsync runs work off the dispatcher, then applies its result with
// apply on the dispatcher.
func runAsync[T any](s *Session, ctx context.Context, work func(context.Context) (T, error), apply func(T, error)) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		v, err := work(ctx)
		if !s.dispatcher.Post(func() { apply(v, err) }) {
			logging.Debug("Flow", "Dropped background result after session close")
		}
	}()
}

// The methods below must only run on the dispatcher.

func (s *Session) require(allowed ...State) error {
	current := s.State()
	for _, st := range allowed {
		if current == st {
			return nil
		}
	}
	return ErrInvalidState
}

func (s *Session) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev != next {
		logging.Debug("Flow", "State %s -> %s", prev, next)
	}
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.dispatcher.Done():
	}
}

// fail records err on holder, moves to next and emits EventError.
func (s *Session) fail(holder *errorHolder, flow Name, operation string, err error, next State) {
	details := detailsFromError(err)
	holder.set(details)
	s.setState(next)
	s.metrics.IncFlowOperation(string(flow), operation, metrics.OutcomeFailure)
	logging.Warn("Flow", "%s %s failed: %s: %s", flow, operation, details.Title, details.Description)

	ev := newEvent(EventError, flow, next)
	ev.Error = &details
	s.emit(ev)
}

func (s *Session) succeed(flow Name, operation string) {
	s.metrics.IncFlowOperation(string(flow), operation, metrics.OutcomeSuccess)
}

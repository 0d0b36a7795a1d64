// Package subscribe orchestrates joining an event: it gates on the session,
// parks the intent for unauthenticated users so registration can resume it,
// and reconciles duplicate-subscription responses into success.
package subscribe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pkt.systems/fotodrop/internal/session"
	"pkt.systems/fotodrop/schema"
	"pkt.systems/pslog"
)

// State is the flow's position in its lifecycle.
type State int

const (
	// StateInit is the constructed, unresolved flow.
	StateInit State = iota
	// StateAwaitingAuth means the intent is parked and registration must
	// happen before this flow can proceed; a new flow resumes it.
	StateAwaitingAuth
	// StateLoading means the target event is being fetched.
	StateLoading
	// StateReady means the event is loaded and a subscribe action is valid.
	StateReady
	// StateSubscribing means a subscribe request is in flight.
	StateSubscribing
	// StateDone is terminal for the attempt; Err distinguishes success.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAwaitingAuth:
		return "awaiting-auth"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubscribing:
		return "subscribing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// API is the backend surface the flow needs. *client.Client satisfies it.
type API interface {
	Event(ctx context.Context, id schema.EventID) (schema.Event, error)
	Subscribe(ctx context.Context, id schema.EventID) error
}

// Session reports authentication state. *session.Store satisfies it.
type Session interface {
	Status() session.Status
	UserID() schema.UserID
}

// Intents is the deferred intent slot. *intent.Store satisfies it.
type Intents interface {
	Park(eventID schema.EventID) error
	Peek() (schema.EventID, bool)
	Take() (schema.EventID, bool)
}

// Flow is a single subscription attempt's state machine.
type Flow struct {
	api     API
	session Session
	intents Intents
	log     pslog.Logger

	mu         sync.Mutex
	state      State
	eventID    schema.EventID
	event      schema.Event
	subscribed bool
	err        error
}

// New constructs a flow targeting the given event.
func New(eventID schema.EventID, api API, sess Session, intents Intents, logger pslog.Logger) *Flow {
	if logger != nil && eventID != "" {
		logger = logger.With("event", eventID)
	}
	return &Flow{
		api:     api,
		session: sess,
		intents: intents,
		log:     logger,
		state:   StateInit,
		eventID: eventID,
	}
}

// Resolve drives the flow from Init as far as the session allows: to
// AwaitingAuth with a parked intent for unauthenticated callers, to Done for
// users already subscribed, to Ready otherwise.
func (f *Flow) Resolve(ctx context.Context) (State, error) {
	f.mu.Lock()
	if f.state != StateInit {
		state := f.state
		f.mu.Unlock()
		return state, f.err
	}
	if f.eventID == "" {
		f.state = StateDone
		f.err = schema.ErrNoEventID
		f.mu.Unlock()
		return StateDone, schema.ErrNoEventID
	}
	f.mu.Unlock()

	status, err := f.waitSession(ctx)
	if err != nil {
		return f.fail(err)
	}
	if !status.IsAuthenticated {
		if err := f.intents.Park(f.eventID); err != nil {
			return f.fail(err)
		}
		f.mu.Lock()
		f.state = StateAwaitingAuth
		f.mu.Unlock()
		if f.log != nil {
			f.log.Info("subscription parked until registration")
		}
		return StateAwaitingAuth, nil
	}

	f.mu.Lock()
	f.state = StateLoading
	f.mu.Unlock()
	event, err := f.api.Event(ctx, f.eventID)
	if err != nil {
		return f.fail(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.event = event
	if event.IsSubscribed(f.session.UserID()) {
		// Already a member: land in Done(Success) without a subscribe call.
		f.subscribed = true
		f.state = StateDone
		f.intents.Take()
		if f.log != nil {
			f.log.Debug("already subscribed on load")
		}
		return StateDone, nil
	}
	f.state = StateReady
	return StateReady, nil
}

// SubscribeNow issues the subscribe request. It is valid from Ready and,
// for retries, from Done(Error). A call while a request is in flight is a
// no-op; only one request is ever outstanding.
func (f *Flow) SubscribeNow(ctx context.Context) (State, error) {
	f.mu.Lock()
	switch {
	case f.state == StateSubscribing:
		f.mu.Unlock()
		return StateSubscribing, nil
	case f.state == StateDone && f.err == nil:
		f.mu.Unlock()
		return StateDone, nil
	case f.state == StateReady, f.state == StateDone && f.err != nil:
		f.state = StateSubscribing
		f.err = nil
		f.mu.Unlock()
	default:
		state := f.state
		f.mu.Unlock()
		return state, fmt.Errorf("subscribe is not available in state %s", state)
	}

	err := f.api.Subscribe(ctx, f.eventID)
	if errors.Is(err, schema.ErrAlreadySubscribed) {
		// The backend says we are a member; that is the outcome we wanted.
		if f.log != nil {
			f.log.Debug("duplicate subscription reclassified as success")
		}
		err = nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateDone
	if err != nil {
		f.err = err
		if f.log != nil {
			f.log.Warn("subscribe failed", "err", err)
		}
		return StateDone, err
	}
	f.subscribed = true
	f.err = nil
	f.intents.Take()
	if f.log != nil {
		f.log.Info("subscribed")
	}
	return StateDone, nil
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Event returns the loaded event; zero until Resolve fetched it.
func (f *Flow) Event() schema.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.event
}

// Subscribed reports whether the user is a member of the event.
func (f *Flow) Subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed
}

// Err returns the failure that ended the attempt, if any.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Success reports whether the flow is Done without error.
func (f *Flow) Success() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateDone && f.err == nil && f.subscribed
}

func (f *Flow) fail(err error) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateDone
	f.err = err
	return StateDone, err
}

// waitSession blocks until the session finished loading its credential.
func (f *Flow) waitSession(ctx context.Context) (session.Status, error) {
	for {
		status := f.session.Status()
		if !status.IsLoading {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return session.Status{}, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// ResumeParked runs a flow for a previously parked intent, if one exists.
// The intent stays parked until the subscription succeeds, so an interrupted
// resume can run again.
func ResumeParked(ctx context.Context, api API, sess Session, intents Intents, logger pslog.Logger) (*Flow, bool, error) {
	eventID, ok := intents.Peek()
	if !ok {
		return nil, false, nil
	}
	flow := New(eventID, api, sess, intents, logger)
	state, err := flow.Resolve(ctx)
	if err != nil {
		return flow, true, err
	}
	if state == StateReady {
		_, err = flow.SubscribeNow(ctx)
	}
	return flow, true, err
}

//
// state.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/otpool/p2p"
	"github.com/markkurossi/otpool/pool"
)

// Phase defines the lifecycle phase of an actor.
type Phase int

// Actor phases.
const (
	PhaseInitialized Phase = iota
	PhaseSetup
	PhaseReady
	PhaseError
	PhaseClosed
)

var phaseNames = map[Phase]string{
	PhaseInitialized: "initialized",
	PhaseSetup:       "setup",
	PhaseReady:       "ready",
	PhaseError:       "error",
	PhaseClosed:      "closed",
}

func (p Phase) String() string {
	name, ok := phaseNames[p]
	if ok {
		return name
	}
	return fmt.Sprintf("{Phase %d}", p)
}

// Status describes an actor at one point of time.
type Status struct {
	Phase       Phase
	Total       int
	Consumed    int
	Available   int
	Allocations []pool.Allocation

	// InFlight is the number of running split exchanges.
	InFlight int

	// Pending is the number of unrevealed records on the sender and
	// the number of unclaimed assignments on the receiver.
	Pending int

	// Err holds the fault that moved the actor to PhaseError.
	Err error
}

// state is the tagged lifecycle state of an actor. The actor owns its
// state value and replaces it as a whole on every transition.
type state interface {
	phase() Phase
}

type initState struct{}

func (initState) phase() Phase {
	return PhaseInitialized
}

// settingUp is the state while the engine setup runs in a worker
// task. The actor answers req when the worker finishes.
type settingUp struct {
	req  *setupReq
	conn *p2p.Conn
}

func (*settingUp) phase() Phase {
	return PhaseSetup
}

// abortSetup interrupts a running setup and fails its request with
// err.
func abortSetup(st state, err error) {
	s, ok := st.(*settingUp)
	if !ok {
		return
	}
	s.conn.Interrupt()
	s.req.reply <- result{err: err}
}

type failedState struct {
	err error
}

func (failedState) phase() Phase {
	return PhaseError
}

type closedState struct{}

func (closedState) phase() Phase {
	return PhaseClosed
}

var errInTransition = errors.Wrap(ErrWrongState, "state transition in progress")

// take returns the current state and leaves a placeholder in its
// place until the caller installs the next state.
func take(st *state) state {
	s := *st
	*st = failedState{
		err: errInTransition,
	}
	return s
}

// stateError returns the error for operations requiring the ready
// state.
func stateError(st state) error {
	switch s := st.(type) {
	case initState:
		return errors.Wrap(ErrWrongState, "not set up")
	case failedState:
		return errors.Mark(s.err, ErrWrongState)
	case closedState:
		return ErrClosed
	default:
		return errors.Wrapf(ErrWrongState, "phase %s", st.phase())
	}
}

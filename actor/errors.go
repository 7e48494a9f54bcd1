//
// errors.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/otpool/config"
	"github.com/markkurossi/otpool/pool"
)

var (
	// ErrSpawn is returned when the executor cannot start a task.
	ErrSpawn = errors.New("actor: spawn failed")

	// ErrOT marks errors returned by the OT engine. The original
	// engine error remains in the chain.
	ErrOT = errors.New("actor: OT engine error")

	// ErrAlreadySetup is returned when Setup is called twice.
	ErrAlreadySetup = errors.New("actor: already set up")

	// ErrNotCommitted is returned for Reveal and Verify on pools
	// without the committed mode.
	ErrNotCommitted = errors.New("actor: pool is not committed")

	// ErrWrongState is returned when an operation is not valid in the
	// actor's current state.
	ErrWrongState = errors.New("actor: wrong state")

	// ErrLengthMismatch is returned when the number of choices or
	// inputs does not match the assigned range.
	ErrLengthMismatch = errors.New("actor: length mismatch")

	// ErrVerificationFailed is returned when a committed transfer does
	// not match the sender's revealed inputs.
	ErrVerificationFailed = errors.New("actor: verification failed")

	// ErrClosed is returned for calls on a closed actor.
	ErrClosed = errors.New("actor: closed")

	// ErrTransport is returned when the control channel fails.
	ErrTransport = errors.New("actor: transport error")

	// ErrUnknownSession is returned for sessions the actor has never
	// seen.
	ErrUnknownSession = errors.New("actor: unknown session")

	// ErrInsufficientPool is returned when a split exceeds the
	// remaining pool.
	ErrInsufficientPool = pool.ErrInsufficientPool

	// ErrOrderMismatch is returned when the receiver's calls do not
	// follow the sender's assignment order.
	ErrOrderMismatch = pool.ErrOrderMismatch
)

// Error classes.
const (
	ClassOK        = "ok"
	ClassConfig    = "config"
	ClassSpawn     = "spawn"
	ClassPool      = "pool"
	ClassOrder     = "order"
	ClassLength    = "length"
	ClassEngine    = "engine"
	ClassVerify    = "verify"
	ClassState     = "state"
	ClassTransport = "transport"
	ClassClosed    = "closed"
	ClassCanceled  = "canceled"
	ClassOther     = "other"
)

// Classify maps the error to its class for logs and metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return ClassOK
	case errors.Is(err, ErrVerificationFailed):
		return ClassVerify
	case errors.Is(err, ErrOrderMismatch):
		return ClassOrder
	case errors.Is(err, ErrLengthMismatch),
		errors.Is(err, pool.ErrInvalidLength):
		return ClassLength
	case errors.Is(err, ErrInsufficientPool),
		errors.Is(err, pool.ErrSessionExists):
		return ClassPool
	case errors.Is(err, ErrSpawn):
		return ClassSpawn
	case errors.Is(err, ErrOT):
		return ClassEngine
	case errors.Is(err, ErrTransport):
		return ClassTransport
	case errors.Is(err, ErrClosed):
		return ClassClosed
	case errors.Is(err, ErrWrongState),
		errors.Is(err, ErrAlreadySetup),
		errors.Is(err, ErrNotCommitted),
		errors.Is(err, ErrUnknownSession):
		return ClassState
	case errors.Is(err, config.ErrConfig):
		return ClassConfig
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ClassCanceled
	default:
		return ClassOther
	}
}

func engineError(err error, format string, args ...interface{}) error {
	return errors.Wrapf(errors.Mark(err, ErrOT), format, args...)
}

//
// options.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"crypto/rand"
	"io"

	"github.com/markkurossi/otpool/log"
	"github.com/markkurossi/otpool/ot"
)

// SenderEngine implements the sender half of a pool of OTs.
// *ot.PoolSender implements it.
type SenderEngine interface {
	Setup(io ot.IO, n int) error
	Send(io ot.IO, offset int, wires []ot.Wire) error
	Reveal(offset, n int) ([]ot.Wire, error)
}

// ReceiverEngine implements the receiver half of a pool of OTs.
// *ot.PoolReceiver implements it.
type ReceiverEngine interface {
	Setup(io ot.IO, n int) error
	Receive(io ot.IO, offset int, flags []bool) ([]ot.Label, error)
	Verify(offset int, revealed, data []ot.Wire) error
}

// Option configures actors at creation.
type Option func(o *options)

type options struct {
	log            log.Logger
	metrics        *Metrics
	senderEngine   SenderEngine
	receiverEngine ReceiverEngine
	rand           io.Reader
}

// WithLogger sets the actor logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMetrics sets the actor metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSenderEngine sets the sender's OT engine.
func WithSenderEngine(e SenderEngine) Option {
	return func(o *options) {
		o.senderEngine = e
	}
}

// WithReceiverEngine sets the receiver's OT engine.
func WithReceiverEngine(e ReceiverEngine) Option {
	return func(o *options) {
		o.receiverEngine = e
	}
}

// WithRand sets the randomness source of the default engines.
func WithRand(r io.Reader) Option {
	return func(o *options) {
		o.rand = r
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		log:  log.Nop(),
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

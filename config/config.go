//
// config.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package config implements the validated configurations of the OT
// pool actors.
package config

import (
	"github.com/cockroachdb/errors"
)

// MaxInitialCount is the largest supported pool size.
const MaxInitialCount = 1 << 24

// ErrConfig is returned for invalid configuration values.
var ErrConfig = errors.New("config: invalid configuration")

// Sender defines the configuration of the sender actor.
type Sender struct {
	id           string
	initialCount int
	committed    bool
}

// ID returns the namespace of the actor's channels.
func (c Sender) ID() string {
	return c.id
}

// InitialCount returns the number of OTs provisioned at setup.
func (c Sender) InitialCount() int {
	return c.initialCount
}

// Committed tells if the pool supports reveal and verify.
func (c Sender) Committed() bool {
	return c.committed
}

// Receiver defines the configuration of the receiver actor.
type Receiver struct {
	id           string
	initialCount int
	committed    bool
}

// ID returns the namespace of the actor's channels.
func (c Receiver) ID() string {
	return c.id
}

// InitialCount returns the number of OTs provisioned at setup.
func (c Receiver) InitialCount() int {
	return c.initialCount
}

// Committed tells if the pool supports reveal and verify.
func (c Receiver) Committed() bool {
	return c.committed
}

// SenderBuilder builds sender configurations.
type SenderBuilder struct {
	cfg Sender
}

// NewSenderBuilder creates a new sender configuration builder.
func NewSenderBuilder() *SenderBuilder {
	return new(SenderBuilder)
}

// ID sets the channel namespace.
func (b *SenderBuilder) ID(id string) *SenderBuilder {
	b.cfg.id = id
	return b
}

// InitialCount sets the pool size.
func (b *SenderBuilder) InitialCount(n int) *SenderBuilder {
	b.cfg.initialCount = n
	return b
}

// Committed enables the committed mode.
func (b *SenderBuilder) Committed() *SenderBuilder {
	b.cfg.committed = true
	return b
}

// Build validates and returns the configuration.
func (b *SenderBuilder) Build() (Sender, error) {
	if err := validate("sender", b.cfg.id, b.cfg.initialCount); err != nil {
		return Sender{}, err
	}
	return b.cfg, nil
}

// ReceiverBuilder builds receiver configurations.
type ReceiverBuilder struct {
	cfg Receiver
}

// NewReceiverBuilder creates a new receiver configuration builder.
func NewReceiverBuilder() *ReceiverBuilder {
	return new(ReceiverBuilder)
}

// ID sets the channel namespace.
func (b *ReceiverBuilder) ID(id string) *ReceiverBuilder {
	b.cfg.id = id
	return b
}

// InitialCount sets the pool size.
func (b *ReceiverBuilder) InitialCount(n int) *ReceiverBuilder {
	b.cfg.initialCount = n
	return b
}

// Committed enables the committed mode.
func (b *ReceiverBuilder) Committed() *ReceiverBuilder {
	b.cfg.committed = true
	return b
}

// Build validates and returns the configuration.
func (b *ReceiverBuilder) Build() (Receiver, error) {
	if err := validate("receiver", b.cfg.id, b.cfg.initialCount); err != nil {
		return Receiver{}, err
	}
	return b.cfg, nil
}

func validate(role, id string, count int) error {
	if len(id) == 0 {
		return errors.Wrapf(ErrConfig, "%s: empty id", role)
	}
	if count <= 0 {
		return errors.Wrapf(ErrConfig, "%s: invalid initial count %d",
			role, count)
	}
	if count > MaxInitialCount {
		return errors.Wrapf(ErrConfig, "%s: initial count %d exceeds %d",
			role, count, MaxInitialCount)
	}
	return nil
}

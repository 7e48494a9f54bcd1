//
// mux.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrChannelInUse is returned when a channel id is opened more than
// twice.
var ErrChannelInUse = errors.New("p2p: channel already connected")

// Factory opens named channels to the peer. Both parties open a
// channel with the same id to get the two ends of one connection.
type Factory interface {
	Open(ctx context.Context, id string) (*Conn, error)
}

// MockFactory implements an in-memory Factory. Both parties share the
// same factory: the first Open of an id creates a pipe and returns its
// first end, the second Open returns the other end.
type MockFactory struct {
	m       sync.Mutex
	pending map[string]*Conn
	used    map[string]bool
	fail    map[string]error
	conns   []*Conn
}

// NewMockFactory creates a new in-memory channel factory.
func NewMockFactory() *MockFactory {
	return &MockFactory{
		pending: make(map[string]*Conn),
		used:    make(map[string]bool),
		fail:    make(map[string]error),
	}
}

// Open implements Factory.Open.
func (f *MockFactory) Open(ctx context.Context, id string) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.m.Lock()
	defer f.m.Unlock()

	if err, ok := f.fail[id]; ok {
		return nil, errors.Wrapf(err, "p2p: open %s", id)
	}
	if c, ok := f.pending[id]; ok {
		delete(f.pending, id)
		f.used[id] = true
		return c, nil
	}
	if f.used[id] {
		return nil, errors.Wrapf(ErrChannelInUse, "p2p: open %s", id)
	}
	c0, c1 := Pipe()
	f.pending[id] = c1
	f.conns = append(f.conns, c0, c1)

	return c0, nil
}

// Fail makes all future opens of the channel id fail with err.
func (f *MockFactory) Fail(id string, err error) {
	f.m.Lock()
	f.fail[id] = err
	f.m.Unlock()
}

// Stats returns the sum of the I/O statistics of all connections the
// factory has created. Since the factory holds both ends of each
// connection, every byte is counted once as sent and once as
// received.
func (f *MockFactory) Stats() IOStats {
	f.m.Lock()
	defer f.m.Unlock()

	result := NewIOStats()
	for _, c := range f.conns {
		result = result.Add(c.Stats)
	}
	return result
}

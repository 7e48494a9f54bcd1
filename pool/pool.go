//
// pool.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package pool implements the bookkeeping of a pre-provisioned pool of
// OT correlations. The leader reserves ranges with Reserve and the
// follower mirrors the leader's decisions with Apply.
package pool

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInsufficientPool is returned when a request exceeds the
	// remaining pool capacity.
	ErrInsufficientPool = errors.New("pool: insufficient OT pool")

	// ErrOrderMismatch is returned when the follower is asked to apply
	// an assignment out of the leader's order.
	ErrOrderMismatch = errors.New("pool: assignment order mismatch")

	// ErrSessionExists is returned when a session id is reserved twice.
	ErrSessionExists = errors.New("pool: session already allocated")

	// ErrInvalidLength is returned for empty or negative reservations.
	ErrInvalidLength = errors.New("pool: invalid length")
)

// Range defines a half-open range [Start, End) of pool positions.
type Range struct {
	Start int
	End   int
}

// Len returns the number of positions in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Allocation binds a session id to its range.
type Allocation struct {
	ID    string
	Range Range
}

// Pool tracks the consumption of a pool of total positions. The
// consumption cursor only advances. Pool is not safe for concurrent
// use.
type Pool struct {
	total       int
	consumed    int
	allocations []Allocation
	byID        map[string]int
}

// New creates a new pool of total positions.
func New(total int) *Pool {
	return &Pool{
		total: total,
		byID:  make(map[string]int),
	}
}

// Total returns the pool size.
func (p *Pool) Total() int {
	return p.total
}

// Consumed returns the number of consumed positions.
func (p *Pool) Consumed() int {
	return p.consumed
}

// Available returns the number of unconsumed positions.
func (p *Pool) Available() int {
	return p.total - p.consumed
}

// Lookup returns the range of the session id.
func (p *Pool) Lookup(id string) (Range, bool) {
	idx, ok := p.byID[id]
	if !ok {
		return Range{}, false
	}
	return p.allocations[idx].Range, true
}

// Allocations returns the allocations in reservation order.
func (p *Pool) Allocations() []Allocation {
	result := make([]Allocation, len(p.allocations))
	copy(result, p.allocations)
	return result
}

// Reserve reserves the next n positions for the session id. On error
// the pool is unchanged.
func (p *Pool) Reserve(id string, n int) (Range, error) {
	if n <= 0 {
		return Range{}, errors.Wrapf(ErrInvalidLength,
			"session %q: length %d", id, n)
	}
	if _, ok := p.byID[id]; ok {
		return Range{}, errors.Wrapf(ErrSessionExists, "session %q", id)
	}
	if n > p.Available() {
		return Range{}, errors.Wrapf(ErrInsufficientPool,
			"session %q: requested %d, available %d", id, n, p.Available())
	}
	r := Range{
		Start: p.consumed,
		End:   p.consumed + n,
	}
	p.add(id, r)
	return r, nil
}

// Apply records the leader's assignment of r to the session id. The
// range must start at the current cursor. On error the pool is
// unchanged.
func (p *Pool) Apply(id string, r Range) error {
	if r.Start != p.consumed {
		return errors.Wrapf(ErrOrderMismatch,
			"session %q: range %v, expected start %d", id, r, p.consumed)
	}
	if _, ok := p.byID[id]; ok {
		return errors.Wrapf(ErrOrderMismatch, "session %q reassigned", id)
	}
	if r.Len() <= 0 {
		return errors.Wrapf(ErrInvalidLength, "session %q: range %v", id, r)
	}
	if r.End > p.total {
		return errors.Wrapf(ErrInsufficientPool,
			"session %q: range %v beyond pool of %d", id, r, p.total)
	}
	p.add(id, r)
	return nil
}

func (p *Pool) add(id string, r Range) {
	p.byID[id] = len(p.allocations)
	p.allocations = append(p.allocations, Allocation{
		ID:    id,
		Range: r,
	})
	p.consumed = r.End
}

//
// pool_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package pool

import (
	"fmt"
	"testing"
	"testing/quick"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve(t *testing.T) {
	p := New(100)
	for i := 0; i < 10; i++ {
		r, err := p.Reserve(fmt.Sprintf("s%d", i), 10)
		require.NoError(t, err)
		assert.Equal(t, Range{Start: i * 10, End: i*10 + 10}, r)
	}
	assert.Equal(t, 100, p.Consumed())
	assert.Equal(t, 0, p.Available())

	_, err := p.Reserve("extra", 1)
	assert.True(t, errors.Is(err, ErrInsufficientPool))
	assert.Equal(t, 100, p.Consumed())

	r, ok := p.Lookup("s3")
	assert.True(t, ok)
	assert.Equal(t, "[30,40)", r.String())
	_, ok = p.Lookup("extra")
	assert.False(t, ok)
}

func TestReserveErrors(t *testing.T) {
	p := New(10)

	_, err := p.Reserve("a", 0)
	assert.True(t, errors.Is(err, ErrInvalidLength))

	_, err = p.Reserve("a", 11)
	assert.True(t, errors.Is(err, ErrInsufficientPool))
	assert.Equal(t, 0, p.Consumed())

	_, err = p.Reserve("a", 4)
	require.NoError(t, err)
	_, err = p.Reserve("a", 4)
	assert.True(t, errors.Is(err, ErrSessionExists))
	assert.Equal(t, 4, p.Consumed())
}

func TestApply(t *testing.T) {
	p := New(10)

	require.NoError(t, p.Apply("a", Range{0, 4}))

	err := p.Apply("b", Range{5, 6})
	assert.True(t, errors.Is(err, ErrOrderMismatch))

	err = p.Apply("a", Range{4, 6})
	assert.True(t, errors.Is(err, ErrOrderMismatch))

	err = p.Apply("b", Range{4, 4})
	assert.True(t, errors.Is(err, ErrInvalidLength))

	err = p.Apply("b", Range{4, 11})
	assert.True(t, errors.Is(err, ErrInsufficientPool))
	assert.Equal(t, 4, p.Consumed())

	require.NoError(t, p.Apply("b", Range{4, 10}))
	assert.Equal(t, []Allocation{
		{ID: "a", Range: Range{0, 4}},
		{ID: "b", Range: Range{4, 10}},
	}, p.Allocations())
}

func TestDisjoint(t *testing.T) {
	f := func(total uint16, lengths []uint8) bool {
		leader := New(int(total))
		follower := New(int(total))

		var sum int
		for i, l := range lengths {
			id := fmt.Sprintf("s%d", i)
			r, err := leader.Reserve(id, int(l))
			if err != nil {
				if l == 0 {
					if !errors.Is(err, ErrInvalidLength) {
						return false
					}
				} else if !errors.Is(err, ErrInsufficientPool) {
					return false
				}
				continue
			}
			if r.Start != sum || r.Len() != int(l) {
				return false
			}
			sum += int(l)
			if follower.Apply(id, r) != nil {
				return false
			}
		}
		if leader.Consumed() != sum || follower.Consumed() != sum {
			return false
		}

		var prev int
		for _, a := range leader.Allocations() {
			if a.Range.Start != prev {
				return false
			}
			prev = a.Range.End
		}
		return prev <= leader.Total()
	}
	require.NoError(t, quick.Check(f, nil))
}

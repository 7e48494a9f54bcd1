//
// iknp_test.go
//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func runExtension(t testing.TB, n int) ([]Wire, []bool, []Label) {
	pipe, rPipe := NewPipe()

	type result struct {
		choices []bool
		labels  []Label
		err     error
	}
	done := make(chan result, 1)

	go func() {
		choices, labels, err := ExtendReceive(rPipe, NewCO(nil),
			rand.Reader, n)
		if err != nil {
			rPipe.Close()
		}
		done <- result{choices, labels, err}
	}()

	pads, err := ExtendSend(pipe, NewCO(nil), rand.Reader, n)
	require.NoError(t, err)

	r := <-done
	require.NoError(t, r.err)
	return pads, r.choices, r.labels
}

func TestIKNP(t *testing.T) {
	for _, n := range []int{1, 7, 8, 200, 1021} {
		pads, choices, labels := runExtension(t, n)
		require.Len(t, pads, n)
		require.Len(t, choices, n)
		require.Len(t, labels, n)

		var ones int
		for j := 0; j < n; j++ {
			require.Truef(t, labels[j].Equal(pads[j].Select(choices[j])),
				"n=%d: label %d does not match choice %v", n, j, choices[j])
			require.Falsef(t, pads[j].L0.Equal(pads[j].L1),
				"n=%d: pair %d is degenerate", n, j)
			if choices[j] {
				ones++
			}
		}
		if n >= 200 {
			require.Greater(t, ones, 0)
			require.Less(t, ones, n)
		}
	}
}

func TestIKNPInvalidCount(t *testing.T) {
	pipe, _ := NewPipe()
	_, err := ExtendSend(pipe, NewCO(nil), rand.Reader, 0)
	require.Error(t, err)
	_, _, err = ExtendReceive(pipe, NewCO(nil), rand.Reader, -1)
	require.Error(t, err)
}

func BenchmarkIKNP(b *testing.B) {
	for i := 0; i < b.N; i++ {
		runExtension(b, 1<<14)
	}
}

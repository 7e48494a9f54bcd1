//
// bench_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/markkurossi/otpool/actor"
	"github.com/markkurossi/otpool/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBench(t *testing.T) {
	for _, committed := range []bool{false, true} {
		cfg, err := config.Parse([]byte(fmt.Sprintf(`
[sender]
id = "bench"
initial_count = 256
committed = %[1]v

[receiver]
id = "bench"
initial_count = 256
committed = %[1]v
`, committed)))
		require.NoError(t, err)

		b := &bench{
			cfg:    cfg,
			splits: 4,
			size:   50,
		}
		rep, err := b.run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, actor.PhaseReady, rep.sender.Phase)
		assert.Equal(t, 200, rep.sender.Consumed)
		assert.Equal(t, 56, rep.receiver.Available)
		assert.Len(t, rep.receiver.Allocations, 4)
		assert.NotZero(t, rep.stats.Sum())

		var buf bytes.Buffer
		rep.Print(&buf)
		assert.Contains(t, buf.String(), "Splits")
		if committed {
			assert.Contains(t, buf.String(), "Verify")
		} else {
			assert.NotContains(t, buf.String(), "Verify")
		}
	}
}

func TestBenchInsufficientPool(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[sender]
id = "bench"
initial_count = 64

[receiver]
id = "bench"
initial_count = 64
`))
	require.NoError(t, err)

	b := &bench{
		cfg:    cfg,
		splits: 2,
		size:   40,
	}
	_, err = b.run(context.Background())
	assert.ErrorIs(t, err, actor.ErrInsufficientPool)

	b.splits = 0
	_, err = b.run(context.Background())
	assert.Error(t, err)
}

func TestPrintConfig(t *testing.T) {
	cfg, err := config.Load("pool.toml")
	require.NoError(t, err)

	var buf bytes.Buffer
	printConfig(&buf, cfg)
	assert.Contains(t, buf.String(), "demo")
	assert.Contains(t, buf.String(), "16384")
}

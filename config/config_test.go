//
// config_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilders(t *testing.T) {
	s, err := NewSenderBuilder().ID("x").InitialCount(10).Committed().Build()
	require.NoError(t, err)
	assert.Equal(t, "x", s.ID())
	assert.Equal(t, 10, s.InitialCount())
	assert.True(t, s.Committed())

	r, err := NewReceiverBuilder().ID("x").InitialCount(10).Build()
	require.NoError(t, err)
	assert.Equal(t, "x", r.ID())
	assert.Equal(t, 10, r.InitialCount())
	assert.False(t, r.Committed())
}

func TestBuilderErrors(t *testing.T) {
	_, err := NewSenderBuilder().InitialCount(10).Build()
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = NewSenderBuilder().ID("x").Build()
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = NewReceiverBuilder().ID("x").InitialCount(-1).Build()
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = NewReceiverBuilder().ID("x").InitialCount(MaxInitialCount + 1).
		Build()
	assert.True(t, errors.Is(err, ErrConfig))
}

const testConfig = `
[sender]
id = "demo"
initial_count = 1000
committed = true

[receiver]
id = "demo"
initial_count = 1000
committed = true
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", f.Sender.ID())
	assert.Equal(t, 1000, f.Sender.InitialCount())
	assert.True(t, f.Sender.Committed())
	assert.Equal(t, "demo", f.Receiver.ID())
	assert.True(t, f.Receiver.Committed())

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	for _, data := range []string{
		`[sender`,
		`[sender]
id = "a"
initial_count = 1`,
		`[sender]
id = "a"
initial_count = 1
[receiver]
id = "a"
initial_count = 0`,
		`[sender]
id = "a"
initial_count = 1
size = 2
[receiver]
id = "a"
initial_count = 1`,
	} {
		_, err := Parse([]byte(data))
		assert.Truef(t, errors.Is(err, ErrConfig), "%q: %v", data, err)
	}
}

//
// log_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLogger(t *testing.T) {
	var b bytes.Buffer
	logger := New(zapcore.AddSync(&b), InfoLevel).
		Named("sender").With("actor", "demo")

	logger.Debugw("hidden", "range", "[0,10)")
	assert.Empty(t, b.String())

	logger.Infow("split sent", "session", "s0")
	out := b.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "sender")
	assert.Contains(t, out, "split sent")
	assert.Contains(t, out, `"actor": "demo"`)
	assert.Contains(t, out, `"session": "s0"`)

	b.Reset()
	logger.Errorw("verification failed", "class", "verify")
	assert.Contains(t, b.String(), "ERROR")
}

func TestNop(t *testing.T) {
	logger := Nop().With("k", "v").Named("x")
	logger.Warnw("dropped")
}

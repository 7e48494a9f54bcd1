//
// metrics_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/otpool/config"
	"github.com/markkurossi/otpool/pool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.Same(t, m.requests, NewMetrics(reg).requests)

	sender, receiver := newSetupPair(t, 20, true, WithMetrics(m))
	ctx := context.Background()

	data := testData(10)
	_, serr, rerr := transfer(sender, receiver, "a", data, "a", testChoices)
	require.NoError(t, serr)
	require.NoError(t, rerr)
	require.NoError(t, sender.Reveal(ctx))

	tampered := testData(10)
	tampered[0].L1 = tampered[0].L0
	require.Error(t, receiver.Verify(ctx, "a", tampered))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requests.WithLabelValues(roleSender, "send", ClassOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requests.WithLabelValues(roleReceiver, "receive", ClassOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requests.WithLabelValues(roleReceiver, "verify", ClassVerify)))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.verifyFailures.WithLabelValues(roleReceiver)))
	assert.Equal(t, 20.0, testutil.ToFloat64(
		m.total.WithLabelValues(roleSender, "test")))
	assert.Equal(t, 10.0, testutil.ToFloat64(
		m.consumed.WithLabelValues(roleReceiver, "test")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err   error
		class string
	}{
		{nil, ClassOK},
		{errors.Wrap(config.ErrConfig, "x"), ClassConfig},
		{errors.Wrap(ErrSpawn, "x"), ClassSpawn},
		{pool.ErrInsufficientPool, ClassPool},
		{pool.ErrSessionExists, ClassPool},
		{pool.ErrInvalidLength, ClassLength},
		{ErrOrderMismatch, ClassOrder},
		{errors.Mark(ErrOrderMismatch, ErrWrongState), ClassOrder},
		{ErrLengthMismatch, ClassLength},
		{engineError(errors.New("eof"), "x"), ClassEngine},
		{ErrVerificationFailed, ClassVerify},
		{ErrNotCommitted, ClassState},
		{ErrAlreadySetup, ClassState},
		{ErrUnknownSession, ClassState},
		{ErrTransport, ClassTransport},
		{ErrClosed, ClassClosed},
		{context.DeadlineExceeded, ClassCanceled},
		{errors.New("other"), ClassOther},
	}
	for _, test := range tests {
		assert.Equal(t, test.class, Classify(test.err), "%v", test.err)
	}
}

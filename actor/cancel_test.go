//
// cancel_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/otpool/p2p"
	"github.com/markkurossi/otpool/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func senderIdle(t *testing.T, sender SenderControl) {
	assert.Eventually(t, func() bool {
		status, err := sender.Status(context.Background())
		return err == nil && status.InFlight == 0
	}, waitFor, tick)
}

// splitFailFactory fails the opens of split channels. The first count
// opens fail; a negative count fails all of them.
type splitFailFactory struct {
	p2p.Factory
	m     sync.Mutex
	count int
	err   error
}

func (f *splitFailFactory) Open(ctx context.Context, id string) (
	*p2p.Conn, error) {

	if strings.Contains(id, "/ot/split/") {
		f.m.Lock()
		fail := f.count != 0
		if f.count > 0 {
			f.count--
		}
		f.m.Unlock()
		if fail {
			return nil, f.err
		}
	}
	return f.Factory.Open(ctx, id)
}

func newSplitFailPair(t *testing.T, count int) (
	SenderControl, ReceiverControl) {

	scfg, rcfg := testConfigs(t, 30, false)
	mux := p2p.NewMockFactory()
	rmux := &splitFailFactory{
		Factory: mux,
		count:   count,
		err:     errors.New("link down"),
	}
	ctx := context.Background()

	sender, receiver, err := CreatePair(ctx, GoExecutor{}, mux, rmux,
		scfg, rcfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		sender.Close(ctx)
		receiver.Close(ctx)
	})
	setupPair(t, sender, receiver)
	return sender, receiver
}

func TestActorSplitOpenError(t *testing.T) {
	sender, receiver := newSplitFailPair(t, 1)
	ctx := context.Background()

	_, serr, rerr := transfer(sender, receiver, "a", testData(10), "a",
		testChoices)
	assert.True(t, errors.Is(rerr, ErrTransport), "%v", rerr)
	assert.ErrorContains(t, rerr, "link down")
	assert.True(t, errors.Is(serr, ErrOT), "%v", serr)

	status, err := sender.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.InFlight)
	assert.Equal(t, 10, status.Consumed)

	data := testData(10)
	labels, serr, rerr := transfer(sender, receiver, "b", data, "b",
		testChoices)
	require.NoError(t, serr)
	require.NoError(t, rerr)
	assert.Equal(t, expected(data, testChoices), labels)
}

func TestActorSplitOpenDown(t *testing.T) {
	sender, receiver := newSplitFailPair(t, -1)

	errc := make(chan error, 1)
	go func() {
		_, err := receiver.Receive(context.Background(), "a", testChoices)
		errc <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(),
		200*time.Millisecond)
	defer cancel()
	err := sender.Send(ctx, "a", testData(10))
	assert.True(t, errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrOT), "%v", err)

	err = <-errc
	assert.True(t, errors.Is(err, ErrTransport), "%v", err)

	// The deadline releases the exchange.
	senderIdle(t, sender)
}

func TestActorSendCanceled(t *testing.T) {
	sender, receiver := newSetupPair(t, 30, false)
	bg := context.Background()

	ctx, cancel := context.WithCancel(bg)
	errc := make(chan error, 1)
	go func() {
		errc <- sender.Send(ctx, "a", testData(10))
	}()

	asg, err := receiver.NextAssignment(bg)
	require.NoError(t, err)
	require.Equal(t, "a", asg.ID)
	require.Equal(t, pool.Range{Start: 0, End: 10}, asg.Range())

	cancel()
	err = <-errc
	assert.True(t, errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrOT), "%v", err)
	senderIdle(t, sender)

	// The range stays consumed and the receiver follows the sender.
	status, err := sender.Status(bg)
	require.NoError(t, err)
	assert.Equal(t, 10, status.Consumed)

	_, err = receiver.Receive(bg, "a", testChoices)
	assert.True(t, errors.Is(err, ErrOT), "%v", err)

	data := testData(10)
	labels, serr, rerr := transfer(sender, receiver, "b", data, "b",
		testChoices)
	require.NoError(t, serr)
	require.NoError(t, rerr)
	assert.Equal(t, expected(data, testChoices), labels)

	for _, ctl := range []interface {
		Status(context.Context) (Status, error)
	}{sender, receiver} {
		status, err := ctl.Status(bg)
		require.NoError(t, err)
		assert.Equal(t, PhaseReady, status.Phase)
		assert.Equal(t, 20, status.Consumed)
		require.Len(t, status.Allocations, 2)
		assert.Equal(t, pool.Range{Start: 10, End: 20},
			status.Allocations[1].Range)
	}
}

func TestActorSetupCanceled(t *testing.T) {
	sender, receiver := newPair(t, 10, false)
	bg := context.Background()

	ctx, cancel := context.WithTimeout(bg, 200*time.Millisecond)
	defer cancel()
	err := sender.Setup(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrOT), "%v", err)

	// The actor keeps serving requests and fails the interrupted setup.
	assert.Eventually(t, func() bool {
		status, err := sender.Status(bg)
		return err == nil && status.Phase == PhaseError
	}, waitFor, tick)
	status, err := sender.Status(bg)
	require.NoError(t, err)
	assert.True(t, errors.Is(status.Err, ErrOT), "%v", status.Err)

	status, err = receiver.Status(bg)
	require.NoError(t, err)
	assert.Equal(t, PhaseInitialized, status.Phase)

	require.NoError(t, sender.Close(bg))
	require.NoError(t, receiver.Close(bg))
}

func TestActorSetupClose(t *testing.T) {
	sender, _ := newPair(t, 10, false)
	bg := context.Background()

	errc := make(chan error, 1)
	go func() {
		errc <- sender.Setup(bg)
	}()
	assert.Eventually(t, func() bool {
		status, err := sender.Status(bg)
		return err == nil && status.Phase == PhaseSetup
	}, waitFor, tick)
	assert.True(t, errors.Is(sender.Setup(bg), ErrAlreadySetup))

	require.NoError(t, sender.Close(bg))
	err := <-errc
	assert.True(t, errors.Is(err, ErrClosed), "%v", err)
}

//
// pool_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func newPoolPair(t *testing.T, n int) (*PoolSender, *PoolReceiver) {
	sender := NewPoolSender(nil, nil)
	receiver := NewPoolReceiver(nil, nil)

	pipe, rPipe := NewPipe()
	done := make(chan error, 1)
	go func() {
		err := receiver.Setup(rPipe, n)
		if err != nil {
			rPipe.Close()
		}
		done <- err
	}()
	require.NoError(t, sender.Setup(pipe, n))
	require.NoError(t, <-done)
	require.Equal(t, n, sender.Size())
	require.Equal(t, n, receiver.Size())

	return sender, receiver
}

func transfer(t *testing.T, sender *PoolSender, receiver *PoolReceiver,
	offset int, wires []Wire, flags []bool) []Label {

	pipe, rPipe := NewPipe()
	done := make(chan error, 1)
	go func() {
		done <- sender.Send(pipe, offset, wires)
	}()
	result, err := receiver.Receive(rPipe, offset, flags)
	require.NoError(t, err)
	require.NoError(t, <-done)
	return result
}

func TestPoolTransfer(t *testing.T) {
	sender, receiver := newPoolPair(t, 40)

	flags := []bool{
		false, false, true, true, false, true, true, false, true, false,
	}
	for offset := 0; offset < 40; offset += len(flags) {
		wires := randomWires(t, len(flags))
		result := transfer(t, sender, receiver, offset, wires, flags)
		for i := range flags {
			require.True(t, result[i].Equal(wires[i].Select(flags[i])))
		}
	}
}

func TestPoolVerify(t *testing.T) {
	sender, receiver := newPoolPair(t, 20)

	wires := randomWires(t, 10)
	flags := []bool{
		true, false, true, true, false, true, true, false, true, false,
	}
	transfer(t, sender, receiver, 10, wires, flags)

	revealed, err := sender.Reveal(10, 10)
	require.NoError(t, err)
	require.NoError(t, receiver.Verify(10, revealed, wires))

	// Tampering the unselected input is detected too.
	for i := range wires {
		tampered := make([]Wire, len(wires))
		copy(tampered, wires)
		if flags[i] {
			tampered[i].L0.Xor(NewBlock(1))
		} else {
			tampered[i].L1.Xor(NewBlock(1))
		}
		err = receiver.Verify(10, revealed, tampered)
		require.Truef(t, errors.Is(err, ErrVerify), "position %d: %v", i, err)
	}

	badReveal := make([]Wire, len(revealed))
	copy(badReveal, revealed)
	badReveal[3].L0.Xor(NewBlock(1))
	badReveal[3].L1.Xor(NewBlock(1))
	err = receiver.Verify(10, badReveal, wires)
	require.True(t, errors.Is(err, ErrVerify))
}

func TestPoolVerifyUntransferred(t *testing.T) {
	sender, receiver := newPoolPair(t, 8)

	revealed, err := sender.Reveal(0, 4)
	require.NoError(t, err)
	err = receiver.Verify(0, revealed, randomWires(t, 4))
	require.ErrorContains(t, err, "not transferred")
}

func TestPoolRange(t *testing.T) {
	sender, receiver := newPoolPair(t, 8)

	pipe, _ := NewPipe()
	require.Error(t, sender.Send(pipe, 4, randomWires(t, 5)))
	_, err := receiver.Receive(pipe, -1, []bool{true})
	require.Error(t, err)
	_, err = sender.Reveal(0, 9)
	require.Error(t, err)

	require.True(t, errors.Is(sender.Setup(pipe, 8), ErrSetup))
	require.True(t, errors.Is(receiver.Setup(pipe, 8), ErrSetup))
}

func TestPoolNotSetup(t *testing.T) {
	pipe, _ := NewPipe()
	err := NewPoolSender(nil, nil).Send(pipe, 0, randomWires(t, 1))
	require.True(t, errors.Is(err, ErrSetup))
}

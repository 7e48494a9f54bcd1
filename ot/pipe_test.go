//
// pipe_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipe(t *testing.T) {
	pipe, rPipe := NewPipe()
	done := make(chan error, 1)

	label := NewBlock(0xdeadbeef)

	go func() {
		var ld LabelData
		err := pipe.SendUint32(42)
		if err == nil {
			err = pipe.SendData([]byte("Hello, world!"))
		}
		if err == nil {
			err = pipe.SendLabel(label, &ld)
		}
		if err == nil {
			err = SendBits(pipe, []bool{true, false, true})
		}
		done <- err
	}()

	v, err := rPipe.ReceiveUint32()
	require.NoError(t, err)
	require.Equal(t, 42, v)

	data, err := rPipe.ReceiveData()
	require.NoError(t, err)
	require.Equal(t, "Hello, world!", string(data))

	var l Label
	var ld LabelData
	require.NoError(t, rPipe.ReceiveLabel(&l, &ld))
	require.True(t, l.Equal(label))

	bits, err := ReceiveBits(rPipe)
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, true}, bits)

	require.NoError(t, <-done)
}

func TestPipeClose(t *testing.T) {
	pipe, rPipe := NewPipe()
	require.NoError(t, pipe.Close())

	_, err := rPipe.ReceiveData()
	require.Error(t, err)
}

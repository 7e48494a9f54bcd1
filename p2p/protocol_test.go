//
// protocol_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"fmt"
	"io"
	"testing"

	"github.com/markkurossi/otpool/ot"
	"github.com/stretchr/testify/require"
)

var tests = []interface{}{
	uint32(44),
	"Hello, world!",
	make([]byte, 1024),
	make([]byte, 2*1024*1024),
	make([]byte, 9*1024*1024),
	ot.NewBlock(0x0102030405060708),
}

func writer(c *Conn) error {
	var ld ot.LabelData
	for _, test := range tests {
		var err error
		switch d := test.(type) {
		case uint32:
			err = c.SendUint32(int(d))
		case string:
			err = ot.SendString(c, d)
		case []byte:
			err = c.SendData(d)
		case ot.Label:
			err = c.SendLabel(d, &ld)
		default:
			err = fmt.Errorf("writer: invalid data: %v(%T)", test, test)
		}
		if err != nil {
			return err
		}
	}
	return c.Flush()
}

func TestProtocol(t *testing.T) {
	cw, c := Pipe()

	done := make(chan error, 1)
	go func() {
		done <- writer(cw)
	}()

	for _, test := range tests {
		switch d := test.(type) {
		case uint32:
			v, err := c.ReceiveUint32()
			require.NoError(t, err)
			require.Equal(t, int(d), v)

		case string:
			v, err := ot.ReceiveString(c)
			require.NoError(t, err)
			require.Equal(t, d, v)

		case []byte:
			v, err := c.ReceiveData()
			require.NoError(t, err)
			require.Len(t, v, len(d))

		case ot.Label:
			var l ot.Label
			var ld ot.LabelData
			require.NoError(t, c.ReceiveLabel(&l, &ld))
			require.True(t, l.Equal(d))

		default:
			t.Fatalf("invalid value: %v(%T)", test, test)
		}
	}
	require.NoError(t, <-done)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	require.Greater(t, cw.Stats.Sent.Load(), uint64(11*1024*1024))
	require.Equal(t, cw.Stats.Sent.Load(), c.Stats.Recvd.Load())
}

func TestConnPeerClose(t *testing.T) {
	c0, c1 := Pipe()
	require.NoError(t, c1.Close())

	_, err := c0.ReceiveData()
	require.ErrorIs(t, err, io.EOF)

	// Write errors surface at the latest when the writer drains.
	require.NoError(t, c0.SendUint32(1))
	c0.Flush()
	require.Error(t, c0.Close())
}

func TestConnShortRead(t *testing.T) {
	c0, c1 := Pipe()
	go func() {
		c0.SendUint32(100)
		c0.SendUint32(1)
		c0.Close()
	}()
	_, err := c1.ReceiveData()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestConnInterrupt(t *testing.T) {
	c0, c1 := Pipe()
	defer c1.Close()

	done := make(chan error, 1)
	go func() {
		_, err := c0.ReceiveData()
		done <- err
	}()
	require.NoError(t, c0.Interrupt())
	require.Error(t, <-done)
	c0.Close()

	// The peer sees the interrupted end as closed.
	_, err := c1.ReceiveData()
	require.ErrorIs(t, err, io.EOF)
}

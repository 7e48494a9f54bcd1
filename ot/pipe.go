//
// pipe.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.

package ot

import (
	"encoding/binary"
	"io"
)

var (
	bo    = binary.BigEndian
	_  IO = &Pipe{}
)

// Pipe implements the IO interface with in-memory io.Pipe. It is
// unbuffered: every send blocks until the peer reads it.
type Pipe struct {
	buf [4]byte
	r   *io.PipeReader
	w   *io.PipeWriter
}

// NewPipe creates a new in-memory pipe.
func NewPipe() (*Pipe, *Pipe) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()

	return &Pipe{
			r: ar,
			w: bw,
		}, &Pipe{
			r: br,
			w: aw,
		}
}

// SendData sends binary data.
func (p *Pipe) SendData(val []byte) error {
	if err := p.SendUint32(len(val)); err != nil {
		return err
	}
	_, err := p.w.Write(val)
	return err
}

// SendUint32 sends an uint32 value.
func (p *Pipe) SendUint32(val int) error {
	bo.PutUint32(p.buf[:], uint32(val))
	_, err := p.w.Write(p.buf[:])
	return err
}

// SendLabel sends an OT label.
func (p *Pipe) SendLabel(val Label, data *LabelData) error {
	_, err := p.w.Write(val.Bytes(data))
	return err
}

// Flush flushed any pending data in the connection.
func (p *Pipe) Flush() error {
	return nil
}

// Close closes the pipe.
func (p *Pipe) Close() error {
	if err := p.r.Close(); err != nil {
		return err
	}
	return p.w.Close()
}

// ReceiveData receives binary data.
func (p *Pipe) ReceiveData() ([]byte, error) {
	l, err := p.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	result := make([]byte, l)
	_, err = io.ReadFull(p.r, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReceiveUint32 receives an uint32 value.
func (p *Pipe) ReceiveUint32() (int, error) {
	var buf [4]byte
	_, err := io.ReadFull(p.r, buf[:])
	if err != nil {
		return 0, err
	}
	return int(bo.Uint32(buf[:])), nil
}

// ReceiveLabel receives an OT label.
func (p *Pipe) ReceiveLabel(val *Label, data *LabelData) error {
	_, err := io.ReadFull(p.r, data[:])
	if err != nil {
		return err
	}
	val.SetData(data)
	return nil
}

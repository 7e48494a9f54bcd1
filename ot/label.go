//
// label.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package ot implements oblivious transfer protocols: the base OT,
// IKNP extension and a pool of random OTs that is split between
// sessions.
package ot

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Wire holds the two messages of one 1-out-of-2 OT instance.
type Wire struct {
	L0 Label
	L1 Label
}

func (w Wire) String() string {
	return fmt.Sprintf("%s/%s", w.L0, w.L1)
}

// Select returns L1 if bit is set and L0 otherwise.
func (w Wire) Select(bit bool) Label {
	if bit {
		return w.L1
	}
	return w.L0
}

// Label implements a 128 bit block. It is the unit of data
// transferred by one OT instance.
type Label struct {
	D0 uint64
	D1 uint64
}

// LabelData contains label data as byte array.
type LabelData [16]byte

// NewBlock creates a label holding the value v in its low 64 bits.
func NewBlock(v uint64) Label {
	return Label{
		D1: v,
	}
}

// NewLabel creates a new random label.
func NewLabel(rand io.Reader) (Label, error) {
	var buf LabelData
	var label Label

	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return label, err
	}
	label.SetData(&buf)
	return label, nil
}

func (l Label) String() string {
	return fmt.Sprintf("%016x%016x", l.D0, l.D1)
}

// Equal tests if the labels are equal.
func (l Label) Equal(o Label) bool {
	return l.D0 == o.D0 && l.D1 == o.D1
}

// Xor xors the label with the argument label.
func (l *Label) Xor(o Label) {
	l.D0 ^= o.D0
	l.D1 ^= o.D1
}

// Bit returns the bit i of the label's byte representation. Bit 0 is
// the least significant bit of the first byte.
func (l Label) Bit(i int) bool {
	var d LabelData
	l.GetData(&d)
	return (d[i/8]>>uint(i%8))&1 == 1
}

// GetData gets the labels as label data.
func (l Label) GetData(buf *LabelData) {
	binary.BigEndian.PutUint64(buf[0:8], l.D0)
	binary.BigEndian.PutUint64(buf[8:16], l.D1)
}

// SetData sets the labels from label data.
func (l *Label) SetData(data *LabelData) {
	l.D0 = binary.BigEndian.Uint64((*data)[0:8])
	l.D1 = binary.BigEndian.Uint64((*data)[8:16])
}

// Bytes returns the label data as bytes.
func (l Label) Bytes(buf *LabelData) []byte {
	l.GetData(buf)
	return buf[:]
}

// SetBytes sets the label data from bytes.
func (l *Label) SetBytes(data []byte) {
	l.D0 = binary.BigEndian.Uint64(data[0:8])
	l.D1 = binary.BigEndian.Uint64(data[8:16])
}

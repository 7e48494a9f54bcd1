//
// pool.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rand"
	"io"

	"github.com/cockroachdb/errors"
)

var (
	// ErrVerify is returned when a revealed transfer does not match
	// the receiver's transcript.
	ErrVerify = errors.New("ot: verification failed")

	// ErrSetup is returned when a pool engine is set up twice or used
	// before setup.
	ErrSetup = errors.New("ot: invalid setup state")
)

// PoolSender holds the sender half of a pool of random OTs. The pool
// is created once with Setup and then consumed in disjoint ranges
// with Send. Send on disjoint ranges may run concurrently.
type PoolSender struct {
	base BaseOT
	rand io.Reader
	pads []Wire
}

// NewPoolSender creates a new pool sender. If base is nil, the pool
// uses the CO base OT. If r is nil, crypto/rand is used.
func NewPoolSender(base BaseOT, r io.Reader) *PoolSender {
	if r == nil {
		r = rand.Reader
	}
	if base == nil {
		base = NewCO(r)
	}
	return &PoolSender{
		base: base,
		rand: r,
	}
}

// Setup provisions n random OTs.
func (s *PoolSender) Setup(io IO, n int) error {
	if s.pads != nil {
		return errors.Wrap(ErrSetup, "pool sender already set up")
	}
	pads, err := ExtendSend(io, s.base, s.rand, n)
	if err != nil {
		return err
	}
	s.pads = pads
	return nil
}

// Size returns the number of OTs in the pool.
func (s *PoolSender) Size() int {
	return len(s.pads)
}

// Send transfers wires using the random OTs starting at offset. The
// receiver sends the bits flipping its random choices into its real
// choices and the sender answers with the masked wire labels.
func (s *PoolSender) Send(io IO, offset int, wires []Wire) error {
	if err := checkRange(len(s.pads), offset, len(wires)); err != nil {
		return err
	}
	flips, err := ReceiveBits(io)
	if err != nil {
		return err
	}
	if len(flips) != len(wires) {
		return errors.Newf("ot: got %d choice corrections, expected %d",
			len(flips), len(wires))
	}

	var ld LabelData
	for i, w := range wires {
		pad := s.pads[offset+i]
		e0 := w.L0
		e1 := w.L1
		e0.Xor(pad.Select(flips[i]))
		e1.Xor(pad.Select(!flips[i]))

		if err := io.SendLabel(e0, &ld); err != nil {
			return err
		}
		if err := io.SendLabel(e1, &ld); err != nil {
			return err
		}
	}
	return io.Flush()
}

// Reveal returns the random pairs of the range [offset, offset+n).
func (s *PoolSender) Reveal(offset, n int) ([]Wire, error) {
	if err := checkRange(len(s.pads), offset, n); err != nil {
		return nil, err
	}
	result := make([]Wire, n)
	copy(result, s.pads[offset:offset+n])
	return result, nil
}

// PoolReceiver holds the receiver half of a pool of random OTs. It
// records the transcript of each transfer so that a later reveal can
// be verified.
type PoolReceiver struct {
	base    BaseOT
	rand    io.Reader
	choices []bool
	pads    []Label

	// Transcript, indexed by pool position.
	done    []bool
	flips   []bool
	flags   []bool
	ciphers []Wire
	results []Label
}

// NewPoolReceiver creates a new pool receiver. If base is nil, the
// pool uses the CO base OT. If r is nil, crypto/rand is used.
func NewPoolReceiver(base BaseOT, r io.Reader) *PoolReceiver {
	if r == nil {
		r = rand.Reader
	}
	if base == nil {
		base = NewCO(r)
	}
	return &PoolReceiver{
		base: base,
		rand: r,
	}
}

// Setup provisions n random OTs.
func (r *PoolReceiver) Setup(io IO, n int) error {
	if r.pads != nil {
		return errors.Wrap(ErrSetup, "pool receiver already set up")
	}
	choices, pads, err := ExtendReceive(io, r.base, r.rand, n)
	if err != nil {
		return err
	}
	r.choices = choices
	r.pads = pads
	r.done = make([]bool, n)
	r.flips = make([]bool, n)
	r.flags = make([]bool, n)
	r.ciphers = make([]Wire, n)
	r.results = make([]Label, n)
	return nil
}

// Size returns the number of OTs in the pool.
func (r *PoolReceiver) Size() int {
	return len(r.pads)
}

// Receive receives one label per flag using the random OTs starting
// at offset.
func (r *PoolReceiver) Receive(io IO, offset int, flags []bool) (
	[]Label, error) {

	if err := checkRange(len(r.pads), offset, len(flags)); err != nil {
		return nil, err
	}
	flips := make([]bool, len(flags))
	for i, flag := range flags {
		flips[i] = flag != r.choices[offset+i]
	}
	if err := SendBits(io, flips); err != nil {
		return nil, err
	}
	if err := io.Flush(); err != nil {
		return nil, err
	}

	result := make([]Label, len(flags))
	var ld LabelData
	for i, flag := range flags {
		var c Wire
		if err := io.ReceiveLabel(&c.L0, &ld); err != nil {
			return nil, err
		}
		if err := io.ReceiveLabel(&c.L1, &ld); err != nil {
			return nil, err
		}
		m := c.Select(flag)
		m.Xor(r.pads[offset+i])
		result[i] = m

		k := offset + i
		r.flips[k] = flips[i]
		r.flags[k] = flag
		r.ciphers[k] = c
		r.results[k] = m
		r.done[k] = true
	}
	return result, nil
}

// Verify checks the transfers of the range starting at offset
// against the sender's revealed random pairs and the claimed sender
// inputs.
func (r *PoolReceiver) Verify(offset int, revealed, data []Wire) error {
	if err := checkRange(len(r.pads), offset, len(data)); err != nil {
		return err
	}
	if len(revealed) != len(data) {
		return errors.Wrapf(ErrVerify, "revealed %d pairs, expected %d",
			len(revealed), len(data))
	}
	for i := range data {
		k := offset + i
		if !r.done[k] {
			return errors.Newf("ot: position %d not transferred", k)
		}
		if !revealed[i].Select(r.choices[k]).Equal(r.pads[k]) {
			return errors.Wrapf(ErrVerify, "position %d: revealed pad", k)
		}
		m0 := r.ciphers[k].L0
		m0.Xor(revealed[i].Select(r.flips[k]))
		m1 := r.ciphers[k].L1
		m1.Xor(revealed[i].Select(!r.flips[k]))
		if !m0.Equal(data[i].L0) || !m1.Equal(data[i].L1) {
			return errors.Wrapf(ErrVerify, "position %d: sender input", k)
		}
		if !r.results[k].Equal(data[i].Select(r.flags[k])) {
			return errors.Wrapf(ErrVerify, "position %d: received label", k)
		}
	}
	return nil
}

func checkRange(size, offset, n int) error {
	if size == 0 {
		return errors.Wrap(ErrSetup, "pool not set up")
	}
	if n <= 0 || offset < 0 || offset+n > size {
		return errors.Newf("ot: range [%d,%d) outside pool of %d",
			offset, offset+n, size)
	}
	return nil
}

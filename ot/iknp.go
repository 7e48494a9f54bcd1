//
// iknp.go
//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//
// IKNP OT Extension:
//
// Extending oblivious transfers efficiently
//  - https://www.iacr.org/archive/crypto2003/27290145/27290145.pdf

package ot

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"
)

const (
	// K defines the IKNP security parameter k; the number of base
	// OTs.
	K = 128

	hashDomain = "otpool/iknp/v1"
)

// ExtendSend runs the sender side of the IKNP extension and returns
// n random OT pairs. The extension sender acts as the base OT
// receiver.
func ExtendSend(io IO, base BaseOT, r io.Reader, n int) ([]Wire, error) {
	if n <= 0 {
		return nil, errors.Newf("iknp: invalid count %d", n)
	}
	rowBytes := (n + 7) / 8

	var s LabelData
	if _, err := readFull(r, s[:]); err != nil {
		return nil, err
	}
	var sBits [K]bool
	for i := 0; i < K; i++ {
		sBits[i] = (s[i/8]>>uint(i%8))&1 == 1
	}

	var keys [K]Label
	if err := base.Receive(io, sBits[:], keys[:]); err != nil {
		return nil, errors.Wrap(err, "iknp: base OT")
	}

	u, err := io.ReceiveData()
	if err != nil {
		return nil, err
	}
	if len(u) != K*rowBytes {
		return nil, errors.Newf("iknp: invalid U matrix: got %d bytes, expected %d",
			len(u), K*rowBytes)
	}

	rows := make([][]byte, K)
	for i := 0; i < K; i++ {
		rows[i], err = prg(keys[i], rowBytes)
		if err != nil {
			return nil, err
		}
		if sBits[i] {
			urow := u[i*rowBytes : (i+1)*rowBytes]
			for j := range rows[i] {
				rows[i][j] ^= urow[j]
			}
		}
	}

	result := make([]Wire, n)
	for j := 0; j < n; j++ {
		q := column(rows, j)
		result[j].L0 = correlationHash(uint64(j), &q)
		for b := range q {
			q[b] ^= s[b]
		}
		result[j].L1 = correlationHash(uint64(j), &q)
	}
	return result, nil
}

// ExtendReceive runs the receiver side of the IKNP extension for n
// random OTs. It returns the random choice bits and the labels
// selected by them. The extension receiver acts as the base OT
// sender.
func ExtendReceive(io IO, base BaseOT, r io.Reader, n int) (
	[]bool, []Label, error) {

	if n <= 0 {
		return nil, nil, errors.Newf("iknp: invalid count %d", n)
	}
	rowBytes := (n + 7) / 8

	choiceBytes := make([]byte, rowBytes)
	if _, err := readFull(r, choiceBytes); err != nil {
		return nil, nil, err
	}
	// Clear the padding bits of the last byte so they never leak
	// through U.
	if rem := n % 8; rem != 0 {
		choiceBytes[rowBytes-1] &= byte(1<<uint(rem)) - 1
	}

	seeds := make([]Wire, K)
	for i := 0; i < K; i++ {
		var err error
		seeds[i].L0, err = NewLabel(r)
		if err != nil {
			return nil, nil, err
		}
		seeds[i].L1, err = NewLabel(r)
		if err != nil {
			return nil, nil, err
		}
	}
	if err := base.Send(io, seeds); err != nil {
		return nil, nil, errors.Wrap(err, "iknp: base OT")
	}

	rows := make([][]byte, K)
	u := make([]byte, K*rowBytes)
	for i := 0; i < K; i++ {
		t, err := prg(seeds[i].L0, rowBytes)
		if err != nil {
			return nil, nil, err
		}
		t1, err := prg(seeds[i].L1, rowBytes)
		if err != nil {
			return nil, nil, err
		}
		urow := u[i*rowBytes : (i+1)*rowBytes]
		for j := range urow {
			urow[j] = t[j] ^ t1[j] ^ choiceBytes[j]
		}
		rows[i] = t
	}
	if err := io.SendData(u); err != nil {
		return nil, nil, err
	}
	if err := io.Flush(); err != nil {
		return nil, nil, err
	}

	choices := UnpackBits(choiceBytes, n)
	labels := make([]Label, n)
	for j := 0; j < n; j++ {
		t := column(rows, j)
		labels[j] = correlationHash(uint64(j), &t)
	}
	return choices, labels, nil
}

// column extracts the column j of the K-row bit matrix.
func column(rows [][]byte, j int) LabelData {
	var col LabelData
	byteIdx := j / 8
	bitPos := uint(j % 8)
	for i := 0; i < K; i++ {
		if (rows[i][byteIdx]>>bitPos)&1 == 1 {
			col[i/8] |= 1 << uint(i%8)
		}
	}
	return col
}

// prg expands the seed into n pseudorandom bytes.
func prg(seed Label, n int) ([]byte, error) {
	var ld LabelData
	key := blake3.Sum256(seed.Bytes(&ld))
	var nonce [chacha20.NonceSize]byte

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	c.XORKeyStream(out, out)
	return out, nil
}

// correlationHash breaks the correlation between the pairs of one
// OT instance.
func correlationHash(ctr uint64, data *LabelData) Label {
	var tmp [8]byte
	bo.PutUint64(tmp[:], ctr)

	h := blake3.New()
	h.Write([]byte(hashDomain))
	h.Write(tmp[:])
	h.Write(data[:])

	var out LabelData
	h.Digest().Read(out[:])

	var l Label
	l.SetData(&out)
	return l
}

func readFull(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return n, errors.Wrap(err, "iknp: random source")
	}
	return n, nil
}

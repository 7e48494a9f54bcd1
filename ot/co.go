//
// co.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//
// Chou Orlandi OT - The Simplest Protocol for Oblivious Transfer.
//  - https://eprint.iacr.org/2015/267.pdf

package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
)

// BaseOT defines the 1-out-of-2 base OT used to seed the OT
// extension. The sender and receiver must run Send and Receive with
// the same number of instances over a connected IO pair.
type BaseOT interface {
	// Send transfers the wires. The receiver learns one label of each
	// wire.
	Send(io IO, wires []Wire) error

	// Receive receives one label per flag into result.
	Receive(io IO, flags []bool, result []Label) error
}

var (
	_ BaseOT = &CO{}
)

// CO implements the Chou-Orlandi OT on the P-256 curve.
type CO struct {
	curve elliptic.Curve
	rand  io.Reader
}

// NewCO creates a new CO OT that draws its randomness from r.
func NewCO(r io.Reader) *CO {
	if r == nil {
		r = rand.Reader
	}
	return &CO{
		curve: elliptic.P256(),
		rand:  r,
	}
}

// Send implements BaseOT.Send.
func (co *CO) Send(io IO, wires []Wire) error {
	if err := SendString(io, co.curve.Params().Name); err != nil {
		return err
	}
	curveParams := co.curve.Params()

	// a <- Zp
	a, err := rand.Int(co.rand, curveParams.N)
	if err != nil {
		return err
	}
	aBytes := a.Bytes()

	// A = G^a
	Ax, Ay := co.curve.ScalarBaseMult(aBytes)
	if err := io.SendData(Ax.Bytes()); err != nil {
		return err
	}
	if err := io.SendData(Ay.Bytes()); err != nil {
		return err
	}
	if err := io.Flush(); err != nil {
		return err
	}

	// AaInv = -(A^a)
	Aax, Aay := co.curve.ScalarMult(Ax, Ay, aBytes)
	AaInvx := big.NewInt(0).Set(Aax)
	AaInvy := big.NewInt(0).Sub(curveParams.P, Aay)

	keys := make([][2][]byte, len(wires))
	for i := range wires {
		Bx, err := ReceiveBigInt(io)
		if err != nil {
			return err
		}
		By, err := ReceiveBigInt(io)
		if err != nil {
			return err
		}
		if !co.curve.IsOnCurve(Bx, By) {
			return errors.Newf("co: point %d not on curve", i)
		}
		Bax, Bay := co.curve.ScalarMult(Bx, By, aBytes)
		Bbx, Bby := co.curve.Add(Bax, Bay, AaInvx, AaInvy)

		keys[i][0] = kdf(Bax, Bay, uint64(i))
		keys[i][1] = kdf(Bbx, Bby, uint64(i))
	}

	var ld LabelData
	for i, w := range wires {
		e0 := xor(keys[i][0], w.L0.Bytes(&ld))
		if err := io.SendData(e0); err != nil {
			return err
		}
		e1 := xor(keys[i][1], w.L1.Bytes(&ld))
		if err := io.SendData(e1); err != nil {
			return err
		}
	}
	return io.Flush()
}

// Receive implements BaseOT.Receive.
func (co *CO) Receive(io IO, flags []bool, result []Label) error {
	if len(result) < len(flags) {
		return errors.Newf("co: result too short: %d < %d",
			len(result), len(flags))
	}
	name, err := ReceiveString(io)
	if err != nil {
		return err
	}
	if name != co.curve.Params().Name {
		return errors.Newf("co: invalid curve %s, expected %s",
			name, co.curve.Params().Name)
	}
	curveParams := co.curve.Params()

	Ax, err := ReceiveBigInt(io)
	if err != nil {
		return err
	}
	Ay, err := ReceiveBigInt(io)
	if err != nil {
		return err
	}
	if !co.curve.IsOnCurve(Ax, Ay) {
		return errors.New("co: sender point not on curve")
	}

	bs := make([][]byte, len(flags))
	for i, flag := range flags {
		// b <- Zp
		b, err := rand.Int(co.rand, curveParams.N)
		if err != nil {
			return err
		}
		bs[i] = b.Bytes()

		Bx, By := co.curve.ScalarBaseMult(bs[i])
		if flag {
			Bx, By = co.curve.Add(Bx, By, Ax, Ay)
		}
		if err := io.SendData(Bx.Bytes()); err != nil {
			return err
		}
		if err := io.SendData(By.Bytes()); err != nil {
			return err
		}
	}
	if err := io.Flush(); err != nil {
		return err
	}

	for i, flag := range flags {
		Asx, Asy := co.curve.ScalarMult(Ax, Ay, bs[i])
		key := kdf(Asx, Asy, uint64(i))

		e0, err := io.ReceiveData()
		if err != nil {
			return err
		}
		e1, err := io.ReceiveData()
		if err != nil {
			return err
		}
		e := e0
		if flag {
			e = e1
		}
		if len(e) != len(LabelData{}) {
			return errors.Newf("co: invalid ciphertext length %d", len(e))
		}
		result[i].SetBytes(xor(key, e))
	}
	return nil
}

func kdf(x, y *big.Int, id uint64) []byte {
	hash := sha256.New()
	hash.Write(x.Bytes())
	hash.Write(y.Bytes())

	var tmp [8]byte
	bo.PutUint64(tmp[:], id)
	hash.Write(tmp[:])

	return hash.Sum(nil)
}

func xor(a, b []byte) []byte {
	l := len(a)
	if len(b) < l {
		l = len(b)
	}
	for i := 0; i < l; i++ {
		a[i] ^= b[i]
	}
	return a[:l]
}

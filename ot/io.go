//
// io.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.

package ot

import (
	"math/big"

	"github.com/cockroachdb/errors"
)

// IO defines an I/O interface to communicate between peers.
type IO interface {
	// SendData sends binary data.
	SendData(val []byte) error

	// SendUint32 sends an uint32 value.
	SendUint32(val int) error

	// SendLabel sends an OT label.
	SendLabel(val Label, data *LabelData) error

	// Flush flushed any pending data in the connection.
	Flush() error

	// ReceiveData receives binary data.
	ReceiveData() ([]byte, error)

	// ReceiveUint32 receives an uint32 value.
	ReceiveUint32() (int, error)

	// ReceiveLabel receives an OT label.
	ReceiveLabel(val *Label, data *LabelData) error
}

// SendString sends a string value.
func SendString(io IO, str string) error {
	return io.SendData([]byte(str))
}

// ReceiveString receives a string value.
func ReceiveString(io IO) (string, error) {
	data, err := io.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReceiveBigInt receives a big.Int from the connection.
func ReceiveBigInt(io IO) (*big.Int, error) {
	data, err := io.ReceiveData()
	if err != nil {
		return nil, err
	}
	return big.NewInt(0).SetBytes(data), nil
}

// SendBits sends the bit vector packed into bytes, least significant
// bit first.
func SendBits(io IO, bits []bool) error {
	if err := io.SendUint32(len(bits)); err != nil {
		return err
	}
	return io.SendData(PackBits(bits))
}

// ReceiveBits receives a bit vector sent with SendBits.
func ReceiveBits(io IO) ([]bool, error) {
	n, err := io.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	data, err := io.ReceiveData()
	if err != nil {
		return nil, err
	}
	if len(data) != (n+7)/8 {
		return nil, errInvalidBits(n, len(data))
	}
	return UnpackBits(data, n), nil
}

// PackBits packs bits into bytes, least significant bit first.
func PackBits(bits []bool) []byte {
	result := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			result[i/8] |= 1 << uint(i%8)
		}
	}
	return result
}

// UnpackBits unpacks n bits from data.
func UnpackBits(data []byte, n int) []bool {
	result := make([]bool, n)
	for i := 0; i < n; i++ {
		result[i] = (data[i/8]>>uint(i%8))&1 == 1
	}
	return result
}

func errInvalidBits(n, l int) error {
	return errors.Newf("ot: invalid bit vector: %d bits in %d bytes", n, l)
}

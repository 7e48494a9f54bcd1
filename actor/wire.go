//
// wire.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/markkurossi/otpool/ot"
	"github.com/markkurossi/otpool/pool"
)

// Assignment is the sender's decision to use the range [Start, End)
// of the pool for the session ID. Seq numbers the assignments of a
// pairing starting from 1.
type Assignment struct {
	Seq        uint64 `cbor:"1,keyasint"`
	ID         string `cbor:"2,keyasint"`
	Start      int    `cbor:"3,keyasint"`
	End        int    `cbor:"4,keyasint"`
	Commitment []byte `cbor:"5,keyasint,omitempty"`
}

// Range returns the assigned pool range.
func (a Assignment) Range() pool.Range {
	return pool.Range{
		Start: a.Start,
		End:   a.End,
	}
}

func (a Assignment) String() string {
	return fmt.Sprintf("#%d %q%v", a.Seq, a.ID, a.Range())
}

// Reveal opens the sender's committed inputs.
type Reveal struct {
	Entries []RevealEntry `cbor:"1,keyasint"`
}

// RevealEntry holds the random pool pairs and the sender inputs of one
// session. Pads and Data are encoded with encodeWires.
type RevealEntry struct {
	ID    string `cbor:"1,keyasint"`
	Start int    `cbor:"2,keyasint"`
	End   int    `cbor:"3,keyasint"`
	Pads  []byte `cbor:"4,keyasint"`
	Data  []byte `cbor:"5,keyasint"`
}

// message is the envelope of the control channel records. Exactly one
// field is set.
type message struct {
	Assignment *Assignment `cbor:"1,keyasint,omitempty"`
	Reveal     *Reveal     `cbor:"2,keyasint,omitempty"`
}

func writeMessage(io ot.IO, msg *message) error {
	data, err := cbor.Marshal(msg)
	if err != nil {
		return err
	}
	if err := io.SendData(data); err != nil {
		return err
	}
	return io.Flush()
}

func readMessage(io ot.IO) (*message, error) {
	data, err := io.ReceiveData()
	if err != nil {
		return nil, err
	}
	msg := new(message)
	if err := cbor.Unmarshal(data, msg); err != nil {
		return nil, errors.Wrap(err, "invalid control message")
	}
	if (msg.Assignment == nil) == (msg.Reveal == nil) {
		return nil, errors.New("invalid control message envelope")
	}
	return msg, nil
}

const wireSize = 2 * len(ot.LabelData{})

func encodeWires(wires []ot.Wire) []byte {
	result := make([]byte, 0, len(wires)*wireSize)
	var ld ot.LabelData
	for _, w := range wires {
		result = append(result, w.L0.Bytes(&ld)...)
		result = append(result, w.L1.Bytes(&ld)...)
	}
	return result
}

func decodeWires(data []byte) ([]ot.Wire, error) {
	if len(data)%wireSize != 0 {
		return nil, errors.Newf("invalid wire data length %d", len(data))
	}
	result := make([]ot.Wire, len(data)/wireSize)
	for i := range result {
		ofs := i * wireSize
		result[i].L0.SetBytes(data[ofs:])
		result[i].L1.SetBytes(data[ofs+wireSize/2:])
	}
	return result, nil
}

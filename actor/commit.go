//
// commit.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"encoding/binary"

	"github.com/markkurossi/otpool/ot"
	"github.com/markkurossi/otpool/pool"
	"github.com/zeebo/blake3"
)

const commitDomain = "otpool/commit/v1"

// commitment binds the sender inputs of a session to its id and
// range.
func commitment(id string, r pool.Range, data []ot.Wire) []byte {
	var tmp [8]byte

	h := blake3.New()
	h.Write([]byte(commitDomain))

	binary.BigEndian.PutUint64(tmp[:], uint64(len(id)))
	h.Write(tmp[:])
	h.Write([]byte(id))

	binary.BigEndian.PutUint64(tmp[:], uint64(r.Start))
	h.Write(tmp[:])
	binary.BigEndian.PutUint64(tmp[:], uint64(r.End))
	h.Write(tmp[:])

	h.Write(encodeWires(data))

	return h.Sum(nil)
}

func equalWires(a, b []ot.Wire) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].L0.Equal(b[i].L0) || !a[i].L1.Equal(b[i].L1) {
			return false
		}
	}
	return true
}

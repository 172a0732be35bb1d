package matrix

import (
	"encoding/binary"
	"slices"
	"strconv"
	"strings"
)

// Signature is the canonical identity of a combination or a persisted
// variant: its attribute ids, sorted ascending and without duplicates.
type Signature []int64

// Key is a comparable form of a Signature, usable as a map key. Each id is
// encoded as 8 fixed-width bytes so no two distinct signatures share a key.
type Key string

func NewSignature(ids []int64) Signature {
	s := slices.Clone(ids)
	slices.Sort(s)
	return slices.Compact(s)
}

func (s Signature) Key() Key {
	buf := make([]byte, 8*len(s))
	for i, id := range s {
		binary.BigEndian.PutUint64(buf[i*8:], uint64(id))
	}
	return Key(buf)
}

func (s Signature) Equal(other Signature) bool {
	return slices.Equal(s, other)
}

func (s Signature) Contains(id int64) bool {
	_, found := slices.BinarySearch(s, id)
	return found
}

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, id := range s {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

package bytestore

import (
	"github.com/google/btree"
)

// Change is one overlay record. A record either holds a run of logical bytes
// that stand in for the original byte at its key, or marks that original
// byte as deleted.
type Change struct {
	Deleted bool
	Bytes   []byte
}

// Len is the number of address slots the record spans during translation.
func (c *Change) Len() uint64 {
	if c.Deleted {
		return 1
	}
	return uint64(len(c.Bytes))
}

// Address is the result of translating a logical address.
// When InRun is false the byte lives in the backing file at File.
// Otherwise it is Bytes[RunOffset] of the run stored under RunKey.
type Address struct {
	InRun     bool
	File      uint64
	RunKey    uint64
	RunOffset uint64
}

type entry struct {
	key    uint64
	change *Change
}

func entryLess(a, b entry) bool {
	return a.key < b.key
}

func newOverlay() *btree.BTreeG[entry] {
	return btree.NewG[entry](16, entryLess)
}

// Translate maps a logical address onto the backing file or an overlay run.
// The overlay is walked in key order on every call; it only grows with user
// edits, so no translation table is cached.
func (s *Store) Translate(address uint64) Address {
	result := Address{}
	found := false
	s.overlay.Ascend(func(e entry) bool {
		if address < e.key {
			return false
		}
		if e.change.Deleted {
			address++
			return true
		}
		n := e.change.Len()
		if address <= e.key+n-1 {
			result = Address{InRun: true, RunKey: e.key, RunOffset: address - e.key}
			found = true
			return false
		}
		address -= n - 1
		return true
	})
	if found {
		return result
	}
	return Address{File: address}
}

func (s *Store) change(key uint64) (*Change, bool) {
	e, ok := s.overlay.Get(entry{key: key})
	if !ok {
		return nil, false
	}
	return e.change, true
}

func (s *Store) setChange(key uint64, c *Change) {
	s.overlay.ReplaceOrInsert(entry{key: key, change: c})
}

// segment is a contiguous piece of the logical view, either a file range or
// an overlay run.
type segment struct {
	logical uint64
	file    uint64
	length  uint64
	run     []byte
}

// segments walks the logical view front to back. fn returning false stops
// the walk.
func (s *Store) segments(fn func(seg segment) bool) {
	var pos, logical uint64
	stopped := false
	emitFile := func(end uint64) bool {
		end = min(end, s.originalSize)
		if end <= pos {
			return true
		}
		seg := segment{logical: logical, file: pos, length: end - pos}
		logical += seg.length
		return fn(seg)
	}
	s.overlay.Ascend(func(e entry) bool {
		if !emitFile(e.key) {
			stopped = true
			return false
		}
		pos = e.key + 1
		if e.change.Deleted {
			return true
		}
		seg := segment{logical: logical, length: uint64(len(e.change.Bytes)), run: e.change.Bytes}
		logical += seg.length
		if !fn(seg) {
			stopped = true
			return false
		}
		return true
	})
	if stopped {
		return
	}
	emitFile(s.originalSize)
}

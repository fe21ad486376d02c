// Package search finds byte patterns in the logical view of a file and
// keeps the resulting set of matches.
package search

import (
	"bytes"
	"cmp"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

const chunkSize = 64 << 10

var ErrEmptyPattern = errors.New("empty search pattern")

// Match is one occurrence of a pattern.
type Match struct {
	Address uint64
	Length  int
}

// Results is an ordered set of matches. A nil *Results is an empty set.
type Results struct {
	matches []Match
	longest int
}

// Jumper moves the view to an address.
type Jumper interface {
	JumpTo(address uint64)
}

func newResults(matches []Match) *Results {
	if len(matches) == 0 {
		return nil
	}
	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(a.Address, b.Address); c != 0 {
			return c
		}
		return cmp.Compare(b.Length, a.Length)
	})
	// Keep the longest match per address.
	matches = slices.CompactFunc(matches, func(a, b Match) bool {
		return a.Address == b.Address
	})
	r := &Results{matches: matches}
	for _, m := range matches {
		r.longest = max(r.longest, m.Length)
	}
	return r
}

func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.matches)
}

// Matches returns the matches in ascending address order.
func (r *Results) Matches() []Match {
	if r == nil {
		return nil
	}
	return r.matches
}

// PatternLength is the length of the longest match, used as highlight width.
func (r *Results) PatternLength() int {
	if r == nil {
		return 0
	}
	return r.longest
}

// Index returns the position of the match starting at address.
func (r *Results) Index(address uint64) (int, bool) {
	if r == nil {
		return 0, false
	}
	return slices.BinarySearchFunc(r.matches, address, func(m Match, a uint64) int {
		return cmp.Compare(m.Address, a)
	})
}

// Next returns the first match address strictly after current.
func (r *Results) Next(current uint64) (uint64, bool) {
	if r == nil {
		return 0, false
	}
	i, found := r.Index(current)
	if found {
		i++
	}
	if i >= len(r.matches) {
		return 0, false
	}
	return r.matches[i].Address, true
}

// Previous returns the last match address strictly before current.
func (r *Results) Previous(current uint64) (uint64, bool) {
	if r == nil {
		return 0, false
	}
	i, _ := r.Index(current)
	if i == 0 {
		return 0, false
	}
	return r.matches[i-1].Address, true
}

// GoToNext jumps to the match after current. It reports false and leaves
// the view alone when there is none.
func (r *Results) GoToNext(j Jumper, current uint64) bool {
	addr, ok := r.Next(current)
	if ok {
		j.JumpTo(addr)
	}
	return ok
}

func (r *Results) GoToPrevious(j Jumper, current uint64) bool {
	addr, ok := r.Previous(current)
	if ok {
		j.JumpTo(addr)
	}
	return ok
}

// Contains reports whether address falls inside any match.
func (r *Results) Contains(address uint64) bool {
	if r == nil {
		return false
	}
	i, found := r.Index(address)
	if found {
		return true
	}
	for i--; i >= 0; i-- {
		m := r.matches[i]
		if address < m.Address+uint64(m.Length) {
			return true
		}
		if address-m.Address >= uint64(r.longest) {
			break
		}
	}
	return false
}

// ASCII searches for the literal text.
func ASCII(ctx context.Context, r io.ReaderAt, size uint64, text string) (*Results, error) {
	var matches []Match
	err := scan(ctx, r, size, []byte(text), func(addr uint64) {
		matches = append(matches, Match{Address: addr, Length: len(text)})
	})
	if err != nil {
		return nil, err
	}
	return newResults(matches), nil
}

// Hex searches for needle.
func Hex(ctx context.Context, r io.ReaderAt, size uint64, needle []byte) (*Results, error) {
	var matches []Match
	err := scan(ctx, r, size, needle, func(addr uint64) {
		matches = append(matches, Match{Address: addr, Length: len(needle)})
	})
	if err != nil {
		return nil, err
	}
	return newResults(matches), nil
}

// HexReverse searches for needle with its byte order reversed, so that a
// big-endian spelling finds little-endian values.
func HexReverse(ctx context.Context, r io.ReaderAt, size uint64, needle []byte) (*Results, error) {
	reversed := slices.Clone(needle)
	slices.Reverse(reversed)
	return Hex(ctx, r, size, reversed)
}

// HexASCII searches for both the bytes spelled by the hex text and the text
// itself.
func HexASCII(ctx context.Context, r io.ReaderAt, size uint64, text string, needle []byte) (*Results, error) {
	var matches []Match
	add := func(length int) func(uint64) {
		return func(addr uint64) {
			matches = append(matches, Match{Address: addr, Length: length})
		}
	}
	if err := scan(ctx, r, size, needle, add(len(needle))); err != nil {
		return nil, err
	}
	if err := scan(ctx, r, size, []byte(text), add(len(text))); err != nil {
		return nil, err
	}
	return newResults(matches), nil
}

// ParseHex decodes an even-length string of hex digits. Spaces are ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, ErrEmptyPattern
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd number of hex digits in %q", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

// IsHex reports whether s is a non-empty, even-length string of hex digits.
func IsHex(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// scan reads the view in chunks that overlap by len(needle)-1 bytes, so a
// match straddling two chunks is reported once, by the chunk it starts in.
func scan(ctx context.Context, r io.ReaderAt, size uint64, needle []byte, found func(uint64)) error {
	if len(needle) == 0 {
		return ErrEmptyPattern
	}
	n := uint64(len(needle))
	buf := make([]byte, chunkSize+len(needle)-1)
	for pos := uint64(0); pos+n <= size; pos += chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		want := min(uint64(len(buf)), size-pos)
		m, err := r.ReadAt(buf[:want], int64(pos))
		if uint64(m) < want {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("read at 0x%x: %w", pos, err)
		}
		chunk := buf[:m]
		for i := 0; ; {
			j := bytes.Index(chunk[i:], needle)
			if j < 0 {
				break
			}
			found(pos + uint64(i+j))
			i += j + 1
		}
	}
	return nil
}

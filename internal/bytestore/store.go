package bytestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/google/btree"

	"github.com/kobzarvs/hexed/internal/logger"
)

// LineWidth is the number of bytes shown on one display line.
const LineWidth = 16

var (
	ErrNotFound = errors.New("address out of range")
	ErrEmpty    = errors.New("file is empty")
	ErrReadOnly = errors.New("file is read-only")
	ErrRead     = errors.New("read failed")
)

// Mode selects how writes treat the byte under the cursor.
type Mode int

const (
	Overwrite Mode = iota
	Insert
)

func (m Mode) String() string {
	if m == Insert {
		return "INSERT"
	}
	return "OVERWRITE"
}

// Store is the logical view of one file: the bytes on disk plus a sparse
// overlay of pending edits. Nothing reaches the disk before Save.
type Store struct {
	path         string
	file         *os.File
	readOnly     bool
	originalSize uint64
	size         uint64
	overlay      *btree.BTreeG[entry]
	lastRead     uint64

	diskSize    int64
	diskModTime time.Time
}

// Open opens path for editing. When the file cannot be opened for writing
// because of permissions it is opened read-only; edits are still possible
// but Save reports ErrReadOnly.
func Open(path string) (*Store, error) {
	readOnly := false
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, fs.ErrPermission) {
		f, err = os.Open(path)
		readOnly = true
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	s := &Store{
		path:         path,
		file:         f,
		readOnly:     readOnly,
		originalSize: uint64(info.Size()),
		size:         uint64(info.Size()),
		overlay:      newOverlay(),
		diskSize:     info.Size(),
		diskModTime:  info.ModTime(),
	}
	logger.Info("file opened", "path", path, "size", s.size, "readOnly", readOnly)
	return s, nil
}

func (s *Store) Path() string        { return s.path }
func (s *Store) ReadOnly() bool      { return s.readOnly }
func (s *Store) Len() uint64         { return s.size }
func (s *Store) OriginalLen() uint64 { return s.originalSize }

// Modified reports whether there are edits not yet written to disk.
func (s *Store) Modified() bool {
	return s.overlay.Len() > 0
}

// Close releases the file handle.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// ByteAt returns the logical byte at address.
func (s *Store) ByteAt(address uint64) (byte, error) {
	if address >= s.size {
		return 0, fmt.Errorf("%w: 0x%x", ErrNotFound, address)
	}
	a := s.Translate(address)
	if !a.InRun {
		return s.FileByteAt(a.File)
	}
	c, ok := s.change(a.RunKey)
	if !ok || c.Deleted || a.RunOffset >= uint64(len(c.Bytes)) {
		logger.Panic("translated into a missing or deleted run", "address", address, "run", a.RunKey, "offset", a.RunOffset)
	}
	return c.Bytes[a.RunOffset], nil
}

// FileByteAt returns the byte at address in the file as it is on disk,
// ignoring the overlay.
func (s *Store) FileByteAt(address uint64) (byte, error) {
	if address >= s.originalSize {
		return 0, fmt.Errorf("%w: file offset 0x%x", ErrNotFound, address)
	}
	var buf [1]byte
	if _, err := s.file.ReadAt(buf[:], int64(address)); err != nil {
		return 0, fmt.Errorf("%w: file offset 0x%x: %w", ErrRead, address, err)
	}
	return buf[0], nil
}

// IsModified reports whether the logical byte at address comes from the overlay.
func (s *Store) IsModified(address uint64) bool {
	if address >= s.size {
		return false
	}
	return s.Translate(address).InRun
}

// PutByte writes value at address. Overwrite replaces the logical byte in
// place; Insert places value before it (or appends when address is at the
// end) and grows the file by one.
func (s *Store) PutByte(address uint64, value byte, mode Mode) error {
	if mode == Overwrite {
		return s.overwrite(address, value)
	}
	return s.insert(address, value)
}

func (s *Store) overwrite(address uint64, value byte) error {
	if address >= s.size {
		return fmt.Errorf("%w: 0x%x", ErrNotFound, address)
	}
	a := s.Translate(address)
	if a.InRun {
		c, ok := s.change(a.RunKey)
		if !ok || c.Deleted {
			logger.Panic("overwrite translated into a missing or deleted run", "address", address, "run", a.RunKey)
		}
		c.Bytes[a.RunOffset] = value
		return nil
	}
	// Translation never lands on an existing key, tombstone or not.
	if c, ok := s.change(a.File); ok && c.Deleted {
		logger.Panic("overwrite of a deleted byte", "address", address, "file", a.File)
	}
	s.setChange(a.File, &Change{Bytes: []byte{value}})
	return nil
}

func (s *Store) insert(address uint64, value byte) error {
	if address > s.size {
		return fmt.Errorf("%w: 0x%x", ErrNotFound, address)
	}
	a := s.Translate(address)
	switch {
	case address == s.size:
		s.setChange(a.File, &Change{Bytes: []byte{value}})
	case a.InRun:
		c, _ := s.change(a.RunKey)
		c.Bytes = slices.Insert(c.Bytes, int(a.RunOffset), value)
	default:
		if c, ok := s.change(a.File); ok {
			if c.Deleted {
				s.setChange(a.File, &Change{Bytes: []byte{value}})
			} else {
				c.Bytes = slices.Insert(c.Bytes, 0, value)
			}
			break
		}
		original, err := s.FileByteAt(a.File)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			original = 0
		}
		s.setChange(a.File, &Change{Bytes: []byte{value, original}})
	}
	s.size++
	return nil
}

// DeleteByte removes the logical byte at address.
func (s *Store) DeleteByte(address uint64) error {
	if s.size == 0 {
		return ErrEmpty
	}
	if address >= s.size {
		return fmt.Errorf("%w: 0x%x", ErrNotFound, address)
	}
	a := s.Translate(address)
	if a.InRun {
		c, _ := s.change(a.RunKey)
		c.Bytes = slices.Delete(c.Bytes, int(a.RunOffset), int(a.RunOffset)+1)
		if len(c.Bytes) == 0 {
			c.Deleted = true
			c.Bytes = nil
		}
	} else {
		s.setChange(a.File, &Change{Deleted: true})
	}
	s.size--
	return nil
}

// ResetRead positions the line reader at address.
func (s *Store) ResetRead(address uint64) {
	s.lastRead = address
}

// ReadLine returns the next LineWidth logical bytes from the line reader and
// how many of them are valid.
func (s *Store) ReadLine() ([LineWidth]byte, int) {
	var buf [LineWidth]byte
	if s.lastRead >= s.size {
		return buf, 0
	}
	n, _ := s.ReadAt(buf[:], int64(s.lastRead))
	s.lastRead += uint64(n)
	return buf, n
}

// ReadAt implements io.ReaderAt over the logical view.
func (s *Store) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset", ErrNotFound)
	}
	start := uint64(off)
	if start >= s.size {
		return 0, io.EOF
	}
	want := min(uint64(len(p)), s.size-start)
	end := start + want
	var n uint64
	var readErr error
	s.segments(func(seg segment) bool {
		segEnd := seg.logical + seg.length
		if segEnd <= start {
			return true
		}
		if seg.logical >= end {
			return false
		}
		from := max(start, seg.logical)
		to := min(end, segEnd)
		dst := p[from-start : to-start]
		if seg.run != nil {
			copy(dst, seg.run[from-seg.logical:to-seg.logical])
		} else if _, err := s.file.ReadAt(dst, int64(seg.file+from-seg.logical)); err != nil {
			readErr = err
			return false
		}
		n = to - start
		return to < end
	})
	if readErr != nil {
		return int(n), readErr
	}
	if n < uint64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

// WriteTo streams the whole logical view to w.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	var written int64
	var writeErr error
	s.segments(func(seg segment) bool {
		var n int64
		if seg.run != nil {
			var m int
			m, writeErr = w.Write(seg.run)
			n = int64(m)
		} else {
			n, writeErr = io.Copy(w, io.NewSectionReader(s.file, int64(seg.file), int64(seg.length)))
		}
		written += n
		return writeErr == nil
	})
	return written, writeErr
}

// ChangedOnDisk reports whether the file on disk no longer matches what
// was seen at open or at the last save.
func (s *Store) ChangedOnDisk() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return true
	}
	return info.Size() != s.diskSize || !info.ModTime().Equal(s.diskModTime)
}

func (s *Store) recordDiskState() {
	if info, err := os.Stat(s.path); err == nil {
		s.diskSize = info.Size()
		s.diskModTime = info.ModTime()
	}
}

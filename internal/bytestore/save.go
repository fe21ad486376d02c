package bytestore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/kobzarvs/hexed/internal/logger"
)

// SavePath tells which strategy the last Save used.
type SavePath int

const (
	SaveNone SavePath = iota
	SaveInPlace
	SaveRewrite
)

func (p SavePath) String() string {
	switch p {
	case SaveInPlace:
		return "in-place"
	case SaveRewrite:
		return "rewrite"
	default:
		return "none"
	}
}

// Save writes pending edits to disk. Pure overwrites are written back at
// their own offsets. Anything that changes the file size rewrites the file
// through a temporary file renamed over the original. On failure the
// overlay is kept so the save can be retried.
func (s *Store) Save() (SavePath, error) {
	if !s.Modified() {
		return SaveNone, nil
	}
	if s.readOnly {
		return SaveNone, ErrReadOnly
	}
	start := time.Now()
	path := SaveRewrite
	var err error
	if s.overwritesOnly() {
		path = SaveInPlace
		err = s.saveInPlace()
	} else {
		err = s.saveRewrite()
	}
	if err != nil {
		logger.Error("save failed", "path", s.path, "strategy", path.String(), "err", err)
		return path, err
	}
	s.recordDiskState()
	logger.Info("saved", "path", s.path, "strategy", path.String(), "size", s.size, "took", time.Since(start))
	return path, nil
}

func (s *Store) overwritesOnly() bool {
	if s.size != s.originalSize {
		return false
	}
	only := true
	s.overlay.Ascend(func(e entry) bool {
		if e.change.Deleted || len(e.change.Bytes) != 1 || e.key >= s.originalSize {
			only = false
			return false
		}
		return true
	})
	return only
}

func (s *Store) saveInPlace() error {
	var err error
	s.overlay.Ascend(func(e entry) bool {
		_, err = s.file.WriteAt(e.change.Bytes, int64(e.key))
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("write in place: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	s.overlay.Clear(false)
	return nil
}

func (s *Store) saveRewrite() (err error) {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".hexed-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	closed, renamed := false, false
	defer func() {
		if err == nil || renamed {
			return
		}
		var cleanup error
		if !closed {
			cleanup = tmp.Close()
		}
		cleanup = multierr.Append(cleanup, os.Remove(tmpName))
		if cleanup != nil {
			logger.Warn("temp file cleanup failed", "tmp", tmpName, "err", cleanup)
		}
	}()

	bw := bufio.NewWriterSize(tmp, 64<<10)
	n, err := s.WriteTo(bw)
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if uint64(n) != s.size {
		err = fmt.Errorf("write temp file: wrote %d bytes, want %d", n, s.size)
		return err
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	renamed = true

	// The old handle still reads the replaced inode, so until the reopen
	// succeeds the overlay keeps describing the logical view correctly.
	f, openErr := os.OpenFile(s.path, os.O_RDWR, 0)
	if openErr != nil {
		return fmt.Errorf("reopen %s: %w", s.path, openErr)
	}
	if closeErr := s.file.Close(); closeErr != nil {
		logger.Warn("closing replaced file", "path", s.path, "err", closeErr)
	}
	s.file = f
	s.originalSize = s.size
	s.overlay.Clear(false)
	return nil
}

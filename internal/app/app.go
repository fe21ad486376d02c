package app

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/multierr"

	"github.com/kobzarvs/hexed/internal/config"
	"github.com/kobzarvs/hexed/internal/editor"
	"github.com/kobzarvs/hexed/internal/logger"
	"github.com/kobzarvs/hexed/internal/session"
	"github.com/kobzarvs/hexed/internal/watcher"
)

var errUsage = errors.New("usage: hexed [--] FILE")

// App is the top-level runtime for hexed.
type App struct {
	args []string
}

func New(args []string) *App {
	return &App{args: args}
}

func (a *App) Run() (err error) {
	if len(a.args) != 1 {
		return errUsage
	}
	path := a.args[0]

	runtime.LockOSThread()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if logErr := logger.Init(cfg.Editor.Debug || os.Getenv("HEXED_DEBUG") != ""); logErr == nil {
		defer logger.Close()
	}

	ed := editor.New(cfg)
	if err := ed.OpenFile(path); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, ed.Close()) }()
	ed.LoadCmdHistory()

	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}
	var sm *session.Manager
	if cfg.Editor.RestoreSession {
		var smErr error
		if sm, smErr = session.NewManager(); smErr != nil {
			logger.Warn("session unavailable", "error", smErr)
			sm = nil
		}
	}
	if sm != nil {
		if st, ok := sm.GetFileState(absPath); ok && !ed.Restore(st) {
			logger.Debug("session state does not fit the file", "path", absPath)
		}
		defer func() {
			sm.SetFileState(absPath, ed.State())
			err = multierr.Append(err, sm.Stop())
		}()
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	if cfg.Editor.WatchFile {
		w, werr := watcher.New(absPath, func(ev watcher.Event) {
			_ = s.PostEvent(tcell.NewEventInterrupt(ev))
		})
		if werr != nil {
			logger.Warn("file watch unavailable", "path", absPath, "error", werr)
		} else {
			defer func() { err = multierr.Append(err, w.Close()) }()
		}
	}

	ed.Render(s)
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			if ed.HandleKey(ev) {
				return nil
			}
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventInterrupt:
			if fe, ok := ev.Data().(watcher.Event); ok {
				logger.Info("file event", "path", fe.Path, "op", fe.Op)
				ed.HandleFileEvent(fe)
			}
		}
		if sm != nil {
			sm.SetFileState(absPath, ed.State())
		}
		ed.Render(s)
	}
}

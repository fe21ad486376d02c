package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/hexed/internal/command"
	"github.com/kobzarvs/hexed/internal/config"
	"github.com/kobzarvs/hexed/internal/logger"
	"github.com/kobzarvs/hexed/internal/search"
)

const maxHistory = 1000

func (e *Editor) enterCommandMode(prefix rune) {
	e.mode = ModeCommand
	e.cmdPrefix = prefix
	e.cmd = e.cmd[:0]
	e.cmdCursor = 0
	e.cmdHistoryIndex = -1
}

func (e *Editor) leaveCommandMode() {
	e.mode = ModeNormal
	e.cmd = e.cmd[:0]
	e.cmdCursor = 0
	e.cmdHistoryIndex = -1
}

// commandLine is the full text of the command bar, prefix included.
func (e *Editor) commandLine() string {
	return string(e.cmdPrefix) + string(e.cmd)
}

func (e *Editor) handleCommand(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		e.leaveCommandMode()
		return false
	case tcell.KeyEnter:
		if e.cmdPrefix == ':' && len(e.cmd) == 0 {
			e.leaveCommandMode()
			return false
		}
		line := e.commandLine()
		if len(e.cmd) > 0 && (len(e.cmdHistory) == 0 || e.cmdHistory[len(e.cmdHistory)-1] != line) {
			e.cmdHistory = append(e.cmdHistory, line)
			e.saveCmdHistory()
		}
		e.leaveCommandMode()
		e.statusMessage = ""
		return e.execCommand(line)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(e.cmd) == 0 {
			e.leaveCommandMode()
			return false
		}
		if e.cmdCursor > 0 {
			e.cmd = append(e.cmd[:e.cmdCursor-1], e.cmd[e.cmdCursor:]...)
			e.cmdCursor--
			e.cmdHistoryIndex = -1
		}
		return false
	case tcell.KeyDelete:
		if e.cmdCursor < len(e.cmd) {
			e.cmd = append(e.cmd[:e.cmdCursor], e.cmd[e.cmdCursor+1:]...)
			e.cmdHistoryIndex = -1
		}
		return false
	case tcell.KeyLeft, tcell.KeyCtrlB:
		if e.cmdCursor > 0 {
			e.cmdCursor--
		}
		return false
	case tcell.KeyRight, tcell.KeyCtrlF:
		if e.cmdCursor < len(e.cmd) {
			e.cmdCursor++
		}
		return false
	case tcell.KeyHome, tcell.KeyCtrlA:
		e.cmdCursor = 0
		return false
	case tcell.KeyEnd, tcell.KeyCtrlE:
		e.cmdCursor = len(e.cmd)
		return false
	case tcell.KeyUp, tcell.KeyCtrlP:
		e.cmdHistoryUp()
		return false
	case tcell.KeyDown, tcell.KeyCtrlN:
		e.cmdHistoryDown()
		return false
	case tcell.KeyCtrlU:
		e.cmd = e.cmd[:0]
		e.cmdCursor = 0
		e.cmdHistoryIndex = -1
		return false
	case tcell.KeyCtrlK:
		e.cmd = e.cmd[:e.cmdCursor]
		e.cmdHistoryIndex = -1
		return false
	case tcell.KeyCtrlW:
		if e.cmdCursor > 0 {
			i := e.cmdCursor - 1
			for i > 0 && e.cmd[i-1] == ' ' {
				i--
			}
			for i > 0 && e.cmd[i-1] != ' ' {
				i--
			}
			e.cmd = append(e.cmd[:i], e.cmd[e.cmdCursor:]...)
			e.cmdCursor = i
			e.cmdHistoryIndex = -1
		}
		return false
	case tcell.KeyRune:
		e.cmd = append(e.cmd[:e.cmdCursor], append([]rune{ev.Rune()}, e.cmd[e.cmdCursor:]...)...)
		e.cmdCursor++
		e.cmdHistoryIndex = -1
		return false
	}
	return false
}

// cmdHistoryUp recalls the previous history entry that starts with the
// prefix and the text typed before browsing began.
func (e *Editor) cmdHistoryUp() {
	if len(e.cmdHistory) == 0 {
		return
	}
	if e.cmdHistoryIndex == -1 {
		e.cmdHistoryPrefix = e.commandLine()
		e.cmdHistoryIndex = len(e.cmdHistory)
	}
	for i := e.cmdHistoryIndex - 1; i >= 0; i-- {
		if strings.HasPrefix(e.cmdHistory[i], e.cmdHistoryPrefix) {
			e.cmdHistoryIndex = i
			e.setCommandLine(e.cmdHistory[i])
			return
		}
	}
}

func (e *Editor) cmdHistoryDown() {
	if e.cmdHistoryIndex == -1 {
		return
	}
	for i := e.cmdHistoryIndex + 1; i < len(e.cmdHistory); i++ {
		if strings.HasPrefix(e.cmdHistory[i], e.cmdHistoryPrefix) {
			e.cmdHistoryIndex = i
			e.setCommandLine(e.cmdHistory[i])
			return
		}
	}
	e.cmdHistoryIndex = -1
	e.setCommandLine(e.cmdHistoryPrefix)
}

func (e *Editor) setCommandLine(line string) {
	runes := []rune(line)
	if len(runes) > 0 {
		e.cmdPrefix = runes[0]
		runes = runes[1:]
	}
	e.cmd = runes
	e.cmdCursor = len(e.cmd)
}

func historyFilePath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// LoadCmdHistory reads the command history kept between runs.
func (e *Editor) LoadCmdHistory() {
	path, err := historyFilePath()
	if err != nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			e.cmdHistory = append(e.cmdHistory, line)
		}
	}
}

func (e *Editor) saveCmdHistory() {
	path, err := historyFilePath()
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	lines := e.cmdHistory
	if len(lines) > maxHistory {
		lines = lines[len(lines)-maxHistory:]
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		logger.Warn("save command history", "path", path, "error", err)
	}
}

func (e *Editor) execCommand(line string) bool {
	cmd, err := command.Parse(line)
	if err != nil {
		if errors.Is(err, command.ErrUnknown) {
			e.setStatus(LevelWarning, "unknown command: "+strings.TrimSpace(line))
		} else {
			e.setStatus(LevelError, err.Error())
		}
		return false
	}

	switch cmd.Kind {
	case command.Quit:
		return e.quit(false)
	case command.ForceQuit:
		return e.quit(true)
	case command.Write:
		e.save()
	case command.WriteQuit:
		return e.save()
	case command.Jump:
		e.view.JumpTo(cmd.Address)
		if size := e.store.Len(); cmd.Address >= size {
			e.setStatus(LevelWarning, fmt.Sprintf("0x%x is past the end of the file (0x%x)", cmd.Address, size))
		}
	case command.ClearSearch:
		e.results = nil
	case command.ToggleMode:
		e.view.ToggleMode()
	case command.UndoAll:
		e.undoAll()
	default:
		if cmd.IsSearch() {
			e.runSearch(cmd)
		}
	}
	return false
}

// runSearch replaces the results with a new search over the logical view
// and jumps to the first match.
func (e *Editor) runSearch(cmd command.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), e.searchTimeout)
	defer cancel()

	start := time.Now()
	size := e.store.Len()
	var (
		res *search.Results
		err error
	)
	switch cmd.Kind {
	case command.SearchASCII:
		res, err = search.ASCII(ctx, e.store, size, cmd.Text)
	case command.SearchHex:
		res, err = search.Hex(ctx, e.store, size, cmd.Needle)
	case command.SearchHexReverse:
		res, err = search.HexReverse(ctx, e.store, size, cmd.Needle)
	case command.SearchHexASCII:
		res, err = search.HexASCII(ctx, e.store, size, cmd.Text, cmd.Needle)
	}
	if err != nil {
		logger.Warn("search failed", "kind", cmd.Kind, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			e.setStatus(LevelWarning, "search timed out")
		} else {
			e.setStatus(LevelError, "search: "+err.Error())
		}
		return
	}
	logger.Info("search", "kind", cmd.Kind, "matches", res.Len(), "duration", time.Since(start))

	e.results = res
	if res.Len() == 0 {
		e.setStatus(LevelWarning, "pattern not found")
		return
	}
	e.view.JumpTo(res.Matches()[0].Address)
	e.setStatus(LevelInfo, fmt.Sprintf("%d matches", res.Len()))
}

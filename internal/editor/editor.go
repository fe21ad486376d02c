// Package editor turns key events into edits and navigation on one open
// file and draws the two-pane hex view.
package editor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/hexed/internal/bytestore"
	"github.com/kobzarvs/hexed/internal/config"
	"github.com/kobzarvs/hexed/internal/history"
	"github.com/kobzarvs/hexed/internal/logger"
	"github.com/kobzarvs/hexed/internal/search"
	"github.com/kobzarvs/hexed/internal/session"
	"github.com/kobzarvs/hexed/internal/viewport"
	"github.com/kobzarvs/hexed/internal/watcher"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeCommand
)

// Pane is the half of the view that receives typed data.
type Pane int

const (
	PaneHex Pane = iota
	PaneASCII
)

func (p Pane) String() string {
	if p == PaneASCII {
		return "ASCII"
	}
	return "HEX"
}

// Level grades a status message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

const (
	lineNibbles = bytestore.LineWidth * 2
	// ctrl+left/right move by half a line.
	jumpNibbles = bytestore.LineWidth
)

var clipboardWrite = clipboard.WriteAll

type keymapSet struct {
	hex   map[string]string
	ascii map[string]string
}

type Editor struct {
	store   *bytestore.Store
	history *history.History
	view    *viewport.Viewport
	results *search.Results

	mode          Mode
	pane          Pane
	keymap        keymapSet
	searchTimeout time.Duration
	uppercase     bool
	// savePoint is the undo depth matching the file on disk, -1 once that
	// state can no longer be reached by undo.
	savePoint int

	cmdPrefix        rune
	cmd              []rune
	cmdCursor        int
	cmdHistory       []string
	cmdHistoryIndex  int
	cmdHistoryPrefix string

	statusMessage string
	statusLevel   Level
	lastKeyCombo  string

	styles styles

	actionHook func(action string)
}

func New(cfg config.Config) *Editor {
	copyMap := func(src map[string]string) map[string]string {
		dst := make(map[string]string, len(src))
		for k, v := range src {
			dst[k] = v
		}
		return dst
	}
	e := &Editor{
		history:         history.New(),
		keymap:          keymapSet{hex: copyMap(cfg.Keymap.Hex), ascii: copyMap(cfg.Keymap.Ascii)},
		searchTimeout:   cfg.Editor.SearchTimeoutDuration(),
		uppercase:       cfg.Editor.UppercaseHex,
		cmdHistoryIndex: -1,
		styles:          newStyles(cfg.Theme),
	}
	if strings.EqualFold(cfg.Editor.StartPane, "ascii") {
		e.pane = PaneASCII
	}
	e.view = viewport.New(sizer{e})
	e.view.SetMode(parseMode(cfg.Editor.StartMode))
	return e
}

// sizer lets the viewport follow the store even before a file is open.
type sizer struct{ e *Editor }

func (s sizer) Len() uint64 {
	if s.e.store == nil {
		return 0
	}
	return s.e.store.Len()
}

func parseMode(s string) bytestore.Mode {
	if strings.EqualFold(s, "insert") {
		return bytestore.Insert
	}
	return bytestore.Overwrite
}

// OpenFile opens path, replacing any file that was open.
func (e *Editor) OpenFile(path string) error {
	store, err := bytestore.Open(path)
	if err != nil {
		return err
	}
	if e.store != nil {
		_ = e.store.Close()
	}
	e.store = store
	e.history.Clear()
	e.savePoint = 0
	e.results = nil
	e.view.ClearSelection()
	e.view.FileStart()
	e.view.Clamp()
	e.statusMessage = ""
	if store.ReadOnly() {
		e.setStatus(LevelWarning, "file is read-only")
	}
	return nil
}

// Close releases the open file.
func (e *Editor) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

func (e *Editor) Store() *bytestore.Store     { return e.store }
func (e *Editor) View() *viewport.Viewport    { return e.view }
func (e *Editor) Results() *search.Results    { return e.results }
func (e *Editor) Mode() Mode                  { return e.mode }
func (e *Editor) Pane() Pane                  { return e.pane }
func (e *Editor) Status() (string, Level)     { return e.statusMessage, e.statusLevel }
func (e *Editor) History() *history.History   { return e.history }
func (e *Editor) Filename() string            { return e.store.Path() }
func (e *Editor) setStatus(l Level, m string) { e.statusMessage, e.statusLevel = m, l }

// Dirty reports whether the file differs from what was last saved.
func (e *Editor) Dirty() bool {
	return e.history.UndoLen() != e.savePoint
}

// State captures the position to remember for the next session.
func (e *Editor) State() session.FileState {
	return session.FileState{
		Cursor: e.view.Cursor(),
		Offset: e.view.Offset(),
		Mode:   strings.ToLower(e.view.Mode().String()),
		Pane:   strings.ToLower(e.pane.String()),
		Size:   e.store.Len(),
	}
}

// Restore applies a remembered position. It is ignored when the file size
// changed since the state was taken.
func (e *Editor) Restore(st session.FileState) bool {
	if st.Size != e.store.Len() {
		return false
	}
	e.view.SetMode(parseMode(st.Mode))
	if st.Cursor > e.view.MaxCursor() {
		return false
	}
	if strings.EqualFold(st.Pane, "ascii") {
		e.pane = PaneASCII
	} else {
		e.pane = PaneHex
	}
	e.view.SetCursor(st.Cursor)
	e.view.ChangeOffset(int64(st.Offset) - int64(e.view.Offset()))
	return true
}

// HandleKey processes one key event and reports whether the editor should
// quit.
func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	if e.mode != ModeCommand {
		e.statusMessage = ""
	}
	e.lastKeyCombo = keyStringDisplay(ev)
	if e.mode == ModeCommand {
		return e.handleCommand(ev)
	}
	return e.handleNormal(ev)
}

// HandleFileEvent reacts to a change of the file on disk.
func (e *Editor) HandleFileEvent(ev watcher.Event) {
	switch {
	case ev.Op == watcher.Removed:
		e.setStatus(LevelWarning, "file removed on disk")
	case e.store.ChangedOnDisk():
		e.setStatus(LevelWarning, "file changed on disk")
	}
}

func (e *Editor) handleNormal(ev *tcell.EventKey) bool {
	keymap := e.keymap.hex
	if e.pane == PaneASCII {
		keymap = e.keymap.ascii
	}
	if action, ok := keymap[keyStringForMap(ev, keymap)]; ok {
		return e.execAction(action)
	}
	if ev.Key() != tcell.KeyRune {
		return false
	}
	r := ev.Rune()
	switch {
	case e.pane == PaneHex && isHexDigit(r):
		e.typeNibble(hexValue(r))
	case e.pane == PaneASCII && r >= 0x20 && r < 0x7f:
		e.typeByte(byte(r))
	}
	return false
}

func (e *Editor) execAction(action string) bool {
	if e.actionHook != nil {
		e.actionHook(action)
	}
	switch action {
	case actionMoveLeft:
		e.view.ChangeCursor(-e.step())
	case actionMoveRight:
		e.view.ChangeCursor(e.step())
	case actionMoveUp:
		e.view.ChangeCursor(-lineNibbles)
	case actionMoveDown:
		e.view.ChangeCursor(lineNibbles)
	case actionJumpLeft:
		e.view.ChangeCursor(-jumpNibbles)
	case actionJumpRight:
		e.view.ChangeCursor(jumpNibbles)
	case actionLineStart:
		e.view.LineStart()
	case actionLineEnd:
		e.view.LineEnd()
	case actionFileStart:
		e.view.FileStart()
	case actionFileEnd:
		e.view.FileEnd()
	case actionPageUp:
		e.view.Page(-e.pageLines())
	case actionPageDown:
		e.view.Page(e.pageLines())
	case actionScrollUp:
		e.view.Scroll(-1)
	case actionScrollDown:
		e.view.Scroll(1)
	case actionDeleteByte:
		e.deleteAt(e.view.Address())
	case actionBackspace:
		e.backspace()
	case actionUndo:
		e.undo()
	case actionRedo:
		e.redo()
	case actionToggleMode:
		e.view.ToggleMode()
	case actionSwitchPane:
		if e.pane == PaneHex {
			e.pane = PaneASCII
		} else {
			e.pane = PaneHex
		}
	case actionEnterCommand:
		e.enterCommandMode(':')
	case actionEnterSearch:
		e.enterCommandMode('/')
	case actionSearchNext:
		if !e.results.GoToNext(e.view, e.view.Address()) {
			e.setStatus(LevelInfo, e.noMatchMessage("next"))
		}
	case actionSearchPrev:
		if !e.results.GoToPrevious(e.view, e.view.Address()) {
			e.setStatus(LevelInfo, e.noMatchMessage("previous"))
		}
	case actionToggleSelect:
		if e.view.Selecting() {
			e.view.ClearSelection()
		} else {
			e.view.StartSelection()
		}
	case actionClearSelection:
		e.view.ClearSelection()
	case actionSelectLeft:
		e.extendSelection(-e.step())
	case actionSelectRight:
		e.extendSelection(e.step())
	case actionSelectUp:
		e.extendSelection(-lineNibbles)
	case actionSelectDown:
		e.extendSelection(lineNibbles)
	case actionMoveSelectionLeft:
		e.moveSelection(-2)
	case actionMoveSelectionRight:
		e.moveSelection(2)
	case actionCopy:
		e.copySelection()
	case actionSave:
		e.save()
	case actionQuit:
		return e.quit(false)
	default:
		logger.Warn("unknown action", "action", action)
		e.setStatus(LevelWarning, "unknown action: "+action)
	}
	return false
}

// step is one cell of the active pane: a nibble in hex, a byte in ascii.
func (e *Editor) step() int64 {
	if e.pane == PaneASCII {
		return 2
	}
	return 1
}

func (e *Editor) pageLines() int64 {
	return int64(max(e.view.Lines()-1, 1))
}

func (e *Editor) noMatchMessage(dir string) string {
	if e.results.Len() == 0 {
		return "no search results"
	}
	return "no " + dir + " match"
}

// record notes an edit in the history before it is applied. An edit made
// after undoing past the save point makes the saved state unreachable.
func (e *Editor) record(kind history.Kind, address uint64) bool {
	if e.history.UndoLen() < e.savePoint {
		e.savePoint = -1
	}
	if err := e.history.Record(e.store, kind, address); err != nil {
		e.setStatus(LevelError, err.Error())
		return false
	}
	return true
}

func (e *Editor) typeNibble(digit byte) {
	addr := e.view.Address()
	high := e.view.Cursor()%2 == 0
	if e.view.Mode() == bytestore.Insert && high {
		if !e.record(history.Insertion, addr) {
			return
		}
		if err := e.store.PutByte(addr, digit<<4, bytestore.Insert); err != nil {
			e.setStatus(LevelError, err.Error())
			return
		}
		e.advance(1)
		return
	}
	cur, err := e.store.ByteAt(addr)
	if errors.Is(err, bytestore.ErrNotFound) {
		e.setStatus(LevelWarning, "nothing to overwrite")
		return
	}
	if err != nil {
		logger.Error("read byte failed", "address", addr, "error", err)
		e.setStatus(LevelError, err.Error())
		return
	}
	v := cur&0xf0 | digit
	if high {
		v = cur&0x0f | digit<<4
	}
	if !e.record(history.Modification, addr) {
		return
	}
	if err := e.store.PutByte(addr, v, bytestore.Overwrite); err != nil {
		e.setStatus(LevelError, err.Error())
		return
	}
	e.advance(1)
}

// advance moves the cursor past a completed edit and remembers where it
// landed for redo.
func (e *Editor) advance(nibbles int64) {
	e.view.ChangeCursor(nibbles)
	e.history.MarkCursor(e.view.Cursor())
}

func (e *Editor) typeByte(b byte) {
	addr := e.view.Address()
	kind := history.Modification
	if e.view.Mode() == bytestore.Insert {
		kind = history.Insertion
	} else if addr >= e.store.Len() {
		e.setStatus(LevelWarning, "nothing to overwrite")
		return
	}
	if !e.record(kind, addr) {
		return
	}
	if err := e.store.PutByte(addr, b, e.view.Mode()); err != nil {
		e.setStatus(LevelError, err.Error())
		return
	}
	e.advance(2)
}

func (e *Editor) deleteAt(addr uint64) bool {
	if e.store.Len() == 0 {
		e.setStatus(LevelWarning, "nothing to delete")
		return false
	}
	if addr >= e.store.Len() {
		return false
	}
	if !e.record(history.Deletion, addr) {
		return false
	}
	if err := e.store.DeleteByte(addr); err != nil {
		e.setStatus(LevelError, err.Error())
		return false
	}
	e.view.Clamp()
	e.history.MarkCursor(e.view.Cursor())
	return true
}

// backspace steps left in Overwrite mode and removes the byte before the
// cursor in Insert mode.
func (e *Editor) backspace() {
	if e.view.Mode() == bytestore.Overwrite {
		e.view.ChangeCursor(-e.step())
		return
	}
	addr := e.view.Address()
	if addr == 0 {
		if e.store.Len() == 0 {
			e.setStatus(LevelWarning, "nothing to delete")
		}
		return
	}
	// The cursor stays on the byte it was on, which is now one address
	// lower. At the append position that is the new end of the file.
	cursor := e.view.Cursor()
	if e.deleteAt(addr - 1) {
		e.view.SetCursor(cursor - 2)
		e.history.MarkCursor(e.view.Cursor())
	}
}

func (e *Editor) undo() {
	err := e.history.Undo(e.store, e.view)
	switch {
	case errors.Is(err, history.ErrNothingToUndo):
		e.setStatus(LevelInfo, "already at oldest change")
	case err != nil:
		logger.Error("undo failed", "error", err)
		e.setStatus(LevelError, err.Error())
	}
	e.view.Clamp()
}

func (e *Editor) redo() {
	err := e.history.Redo(e.store, e.view)
	switch {
	case errors.Is(err, history.ErrNothingToRedo):
		e.setStatus(LevelInfo, "already at newest change")
	case err != nil:
		logger.Error("redo failed", "error", err)
		e.setStatus(LevelError, err.Error())
	}
	e.view.Clamp()
}

func (e *Editor) undoAll() {
	if e.history.UndoLen() == 0 {
		e.setStatus(LevelInfo, "no changes")
		return
	}
	if err := e.history.UndoAll(e.store, e.view); err != nil {
		logger.Error("undo all failed", "error", err)
		e.setStatus(LevelError, err.Error())
		return
	}
	e.view.Clamp()
	e.setStatus(LevelInfo, "all changes undone")
}

func (e *Editor) extendSelection(delta int64) {
	if !e.view.Selecting() {
		e.view.StartSelection()
	}
	e.view.ChangeCursor(delta)
}

func (e *Editor) moveSelection(delta int64) {
	if !e.view.MoveSelection(delta) {
		e.setStatus(LevelInfo, "selection is at the end of the file")
	}
}

// copySelection puts the selected bytes on the system clipboard: as hex
// text from the hex pane, raw from the ascii pane.
func (e *Editor) copySelection() {
	start, end, ok := e.view.Selection()
	if !ok {
		e.setStatus(LevelWarning, "nothing selected")
		return
	}
	buf := make([]byte, end-start+1)
	n, err := e.store.ReadAt(buf, int64(start))
	if n < len(buf) {
		e.setStatus(LevelError, fmt.Sprintf("read selection: %v", err))
		return
	}
	text := string(buf)
	if e.pane == PaneHex {
		text = fmt.Sprintf("% x", buf)
		if e.uppercase {
			text = strings.ToUpper(text)
		}
	}
	if err := clipboardWrite(text); err != nil {
		logger.Warn("clipboard write failed", "error", err)
		e.setStatus(LevelError, "clipboard: "+err.Error())
		return
	}
	e.setStatus(LevelInfo, fmt.Sprintf("copied %d bytes", len(buf)))
}

func (e *Editor) save() bool {
	path, err := e.store.Save()
	if err != nil {
		logger.Error("save failed", "path", e.store.Path(), "error", err)
		e.setStatus(LevelError, "failed to save changes: "+err.Error())
		return false
	}
	e.savePoint = e.history.UndoLen()
	if path == bytestore.SaveNone {
		e.setStatus(LevelInfo, "no changes to write")
		return true
	}
	e.setStatus(LevelInfo, fmt.Sprintf("written %s (0x%x bytes, %s)", filepath.Base(e.store.Path()), e.store.Len(), path))
	return true
}

func (e *Editor) quit(force bool) bool {
	if !force && e.Dirty() {
		e.setStatus(LevelWarning, "unsaved changes (use :q!)")
		return false
	}
	return true
}

func isHexDigit(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

func hexValue(r rune) byte {
	switch {
	case r >= 'a':
		return byte(r-'a') + 10
	case r >= 'A':
		return byte(r-'A') + 10
	default:
		return byte(r - '0')
	}
}

package editor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/hexed/internal/bytestore"
	"github.com/kobzarvs/hexed/internal/config"
	"github.com/kobzarvs/hexed/internal/watcher"
)

func newTestEditorWith(t *testing.T, cfg config.Config, data []byte) *Editor {
	t.Helper()
	t.Setenv("HEXED_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := New(cfg)
	if err := e.OpenFile(path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func newTestEditor(t *testing.T, data ...byte) *Editor {
	t.Helper()
	return newTestEditorWith(t, config.Default(), data)
}

func keyRune(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, 0)
}

func keyEnter() *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyEnter, 0, 0)
}

func typeKeys(e *Editor, keys string) bool {
	quit := false
	for _, r := range keys {
		quit = e.HandleKey(keyRune(r))
	}
	return quit
}

// runCommand types line into the command bar and presses enter.
func runCommand(e *Editor, line string) bool {
	typeKeys(e, line)
	return e.HandleKey(keyEnter())
}

func contents(t *testing.T, e *Editor) []byte {
	t.Helper()
	var buf bytes.Buffer
	if _, err := e.store.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func onDisk(t *testing.T, e *Editor) []byte {
	t.Helper()
	data, err := os.ReadFile(e.Filename())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func assertStatus(t *testing.T, e *Editor, level Level, msg string) {
	t.Helper()
	got, gotLevel := e.Status()
	if got != msg || gotLevel != level {
		t.Fatalf("status = %q (level %d), want %q (level %d)", got, gotLevel, msg, level)
	}
}

func TestOverwriteNibbleAndSave(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0xEF)

	typeKeys(e, "c")
	if got := contents(t, e); !bytes.Equal(got, []byte{0xCE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("contents = % x", got)
	}
	if e.view.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", e.view.Cursor())
	}
	if !e.Dirty() {
		t.Fatal("edit did not mark the file dirty")
	}

	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlS, 0, tcell.ModCtrl))
	if got := onDisk(t, e); !bytes.Equal(got, []byte{0xCE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("disk = % x", got)
	}
	if e.Dirty() {
		t.Fatal("still dirty after save")
	}
}

func TestOverwriteLowNibble(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD)
	typeKeys(e, "l3F")
	if got := contents(t, e); !bytes.Equal(got, []byte{0xD3, 0xFD}) {
		t.Fatalf("contents = % x, want d3 fd", got)
	}
	if e.view.Cursor() != 3 {
		t.Fatalf("cursor = %d, want 3", e.view.Cursor())
	}
}

func TestInsertByteAndSave(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0xEF)

	typeKeys(e, "i")
	if e.view.Mode() != bytestore.Insert {
		t.Fatalf("mode = %v, want INSERT", e.view.Mode())
	}
	typeKeys(e, "llll")
	typeKeys(e, "ff")

	want := []byte{0xDE, 0xAD, 0xFF, 0xBE, 0xEF}
	if got := contents(t, e); !bytes.Equal(got, want) {
		t.Fatalf("contents = % x, want % x", got, want)
	}
	if e.store.Len() != 5 {
		t.Fatalf("Len = %d, want 5", e.store.Len())
	}
	if e.view.Cursor() != 6 {
		t.Fatalf("cursor = %d, want 6", e.view.Cursor())
	}

	if quit := runCommand(e, ":w"); quit {
		t.Fatal(":w quit")
	}
	if got := onDisk(t, e); !bytes.Equal(got, want) {
		t.Fatalf("disk = % x, want % x", got, want)
	}
}

func TestTypingIntoEmptyFile(t *testing.T) {
	e := newTestEditor(t)

	typeKeys(e, "4")
	assertStatus(t, e, LevelWarning, "nothing to overwrite")

	typeKeys(e, "i41")
	if got := contents(t, e); !bytes.Equal(got, []byte{0x41}) {
		t.Fatalf("contents = % x, want 41", got)
	}
}

func TestDeleteAndUndo(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0xEF)

	typeKeys(e, "llx")
	if e.store.Len() != 3 {
		t.Fatalf("Len = %d, want 3", e.store.Len())
	}
	if b, _ := e.store.ByteAt(1); b != 0xBE {
		t.Fatalf("ByteAt(1) = %02x, want be", b)
	}

	typeKeys(e, "u")
	if e.store.Len() != 4 {
		t.Fatalf("Len after undo = %d, want 4", e.store.Len())
	}
	if b, _ := e.store.ByteAt(1); b != 0xAD {
		t.Fatalf("ByteAt(1) after undo = %02x, want ad", b)
	}
	if e.view.Cursor() != 2 {
		t.Fatalf("cursor after undo = %d, want 2", e.view.Cursor())
	}
	if e.Dirty() {
		t.Fatal("dirty after undoing the only edit")
	}
}

func TestDeleteInEmptyFile(t *testing.T) {
	e := newTestEditor(t)
	e.HandleKey(tcell.NewEventKey(tcell.KeyDelete, 0, 0))
	assertStatus(t, e, LevelWarning, "nothing to delete")
}

func TestDeleteLastByteClampsCursor(t *testing.T) {
	e := newTestEditor(t, 0x01, 0x02)
	typeKeys(e, "G")
	if e.view.Cursor() != 3 {
		t.Fatalf("cursor = %d, want 3", e.view.Cursor())
	}
	typeKeys(e, "x")
	if e.view.Cursor() != 1 {
		t.Fatalf("cursor after delete = %d, want 1", e.view.Cursor())
	}
}

func TestBackspace(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0xEF)
	backspace := tcell.NewEventKey(tcell.KeyBackspace2, 0, 0)

	typeKeys(e, "llll")
	e.HandleKey(backspace)
	if e.view.Cursor() != 3 || e.store.Len() != 4 {
		t.Fatalf("overwrite backspace: cursor %d len %d, want 3 and 4", e.view.Cursor(), e.store.Len())
	}

	typeKeys(e, "li")
	e.HandleKey(backspace)
	if got := contents(t, e); !bytes.Equal(got, []byte{0xDE, 0xBE, 0xEF}) {
		t.Fatalf("contents = % x, want de be ef", got)
	}
	if e.view.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", e.view.Cursor())
	}
}

func TestBackspaceAtAppendPosition(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0xEF)
	backspace := tcell.NewEventKey(tcell.KeyBackspace2, 0, 0)

	typeKeys(e, "iG")
	if e.view.Cursor() != 8 {
		t.Fatalf("cursor = %d, want the append position 8", e.view.Cursor())
	}
	e.HandleKey(backspace)
	if got := contents(t, e); !bytes.Equal(got, []byte{0xDE, 0xAD, 0xBE}) {
		t.Fatalf("contents = % x, want de ad be", got)
	}
	if e.view.Cursor() != 6 {
		t.Fatalf("cursor = %d, want 6", e.view.Cursor())
	}

	e.HandleKey(backspace)
	if got := contents(t, e); !bytes.Equal(got, []byte{0xDE, 0xAD}) {
		t.Fatalf("contents = % x, want de ad", got)
	}
	if e.view.Cursor() != 4 {
		t.Fatalf("cursor = %d, want 4", e.view.Cursor())
	}

	typeKeys(e, "uU")
	if e.view.Cursor() != 4 {
		t.Fatalf("cursor after undo and redo = %d, want 4", e.view.Cursor())
	}
}

func TestASCIIPaneTyping(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0xEF)

	e.HandleKey(tcell.NewEventKey(tcell.KeyTab, 0, 0))
	if e.pane != PaneASCII {
		t.Fatalf("pane = %v, want ASCII", e.pane)
	}
	// Letters are data in the ascii pane, not shortcuts.
	typeKeys(e, "i")
	if e.view.Mode() != bytestore.Overwrite {
		t.Fatal("'i' toggled the mode in the ascii pane")
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyInsert, 0, 0))
	typeKeys(e, "Z")

	want := []byte{'i', 'Z', 0xAD, 0xBE, 0xEF}
	if got := contents(t, e); !bytes.Equal(got, want) {
		t.Fatalf("contents = % x, want % x", got, want)
	}
	if e.view.Cursor() != 4 {
		t.Fatalf("cursor = %d, want 4", e.view.Cursor())
	}
}

func TestUndoRedoKeys(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD)

	typeKeys(e, "c")
	typeKeys(e, "u")
	if got := contents(t, e); !bytes.Equal(got, []byte{0xDE, 0xAD}) {
		t.Fatalf("after undo = % x", got)
	}
	if e.view.Cursor() != 0 {
		t.Fatalf("cursor after undo = %d, want 0", e.view.Cursor())
	}

	typeKeys(e, "U")
	if got := contents(t, e); !bytes.Equal(got, []byte{0xCE, 0xAD}) {
		t.Fatalf("after redo = % x", got)
	}
	if e.view.Cursor() != 1 {
		t.Fatalf("cursor after redo = %d, want 1", e.view.Cursor())
	}

	typeKeys(e, "U")
	assertStatus(t, e, LevelInfo, "already at newest change")
}

func TestRedoPutsCursorWhereTheEditLeftIt(t *testing.T) {
	undo := tcell.NewEventKey(tcell.KeyCtrlZ, 0, 0)
	redo := tcell.NewEventKey(tcell.KeyCtrlR, 0, 0)

	e := newTestEditor(t, 0xDE, 0xAD)
	e.HandleKey(tcell.NewEventKey(tcell.KeyTab, 0, 0))
	typeKeys(e, "A")
	if e.view.Cursor() != 2 {
		t.Fatalf("ascii cursor after typing = %d, want 2", e.view.Cursor())
	}
	e.HandleKey(undo)
	e.HandleKey(redo)
	if got := contents(t, e); !bytes.Equal(got, []byte{'A', 0xAD}) {
		t.Fatalf("after redo = % x", got)
	}
	if e.view.Cursor() != 2 {
		t.Fatalf("ascii cursor after redo = %d, want 2", e.view.Cursor())
	}

	e = newTestEditor(t, 0xDE, 0xAD, 0xBE)
	typeKeys(e, "lllx")
	if e.view.Cursor() != 3 {
		t.Fatalf("cursor after delete = %d, want 3", e.view.Cursor())
	}
	typeKeys(e, "uU")
	if got := contents(t, e); !bytes.Equal(got, []byte{0xDE, 0xBE}) {
		t.Fatalf("after redo = % x", got)
	}
	if e.view.Cursor() != 3 {
		t.Fatalf("cursor after redo = %d, want 3", e.view.Cursor())
	}
}

func TestEditAfterUndoPastSavePointStaysDirty(t *testing.T) {
	e := newTestEditor(t, 0x00, 0x00)

	typeKeys(e, "1")
	runCommand(e, ":w")
	typeKeys(e, "u")
	if !e.Dirty() {
		t.Fatal("undo past the save point should be dirty")
	}
	typeKeys(e, "2")
	if !e.Dirty() {
		t.Fatal("new edit at the saved depth should still be dirty")
	}
}

func TestQuitRefusedWhenDirty(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD)

	typeKeys(e, "c")
	if quit := typeKeys(e, "q"); quit {
		t.Fatal("q quit with unsaved changes")
	}
	assertStatus(t, e, LevelWarning, "unsaved changes (use :q!)")

	if quit := runCommand(e, ":q"); quit {
		t.Fatal(":q quit with unsaved changes")
	}
	if quit := runCommand(e, ":q!"); !quit {
		t.Fatal(":q! did not quit")
	}
}

func TestWriteQuit(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD)
	typeKeys(e, "c")
	if quit := runCommand(e, ":wq"); !quit {
		t.Fatal(":wq did not quit")
	}
	if got := onDisk(t, e); !bytes.Equal(got, []byte{0xCE, 0xAD}) {
		t.Fatalf("disk = % x", got)
	}
}

func TestUndoAllCommand(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0xEF)

	typeKeys(e, "12")
	typeKeys(e, "x")
	typeKeys(e, "i77")
	runCommand(e, ":e!")

	if got := contents(t, e); !bytes.Equal(got, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("contents = % x", got)
	}
	assertStatus(t, e, LevelInfo, "all changes undone")
	if e.Dirty() {
		t.Fatal("dirty after undoing everything")
	}
	if quit := runCommand(e, ":q"); !quit {
		t.Fatal(":q refused after :e!")
	}
}

func TestJumpCommand(t *testing.T) {
	e := newTestEditor(t, make([]byte, 64)...)

	runCommand(e, ":0x21")
	if e.view.Address() != 0x21 || e.view.Cursor() != 0x42 {
		t.Fatalf("address %x cursor %x, want 21 and 42", e.view.Address(), e.view.Cursor())
	}

	runCommand(e, ":0x100")
	if e.view.Address() != 0x3f {
		t.Fatalf("address = %x, want 3f", e.view.Address())
	}
	assertStatus(t, e, LevelWarning, "0x100 is past the end of the file (0x40)")
}

func TestToggleModeCommand(t *testing.T) {
	e := newTestEditor(t, 0x00)
	runCommand(e, ":i")
	if e.view.Mode() != bytestore.Insert {
		t.Fatalf("mode = %v, want INSERT", e.view.Mode())
	}
}

func TestUnknownCommand(t *testing.T) {
	e := newTestEditor(t, 0x00)
	if quit := runCommand(e, ":nope"); quit {
		t.Fatal("unknown command quit")
	}
	if e.mode != ModeNormal {
		t.Fatalf("mode = %v, want normal", e.mode)
	}
	assertStatus(t, e, LevelWarning, "unknown command: :nope")
}

func TestSearchAndNavigate(t *testing.T) {
	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0xEF, 0xBE)

	runCommand(e, "/BE")
	if e.results.Len() != 2 {
		t.Fatalf("results = %d, want 2", e.results.Len())
	}
	if e.view.Address() != 2 {
		t.Fatalf("address after search = %d, want 2", e.view.Address())
	}
	assertStatus(t, e, LevelInfo, "2 matches")

	typeKeys(e, "n")
	if e.view.Address() != 4 {
		t.Fatalf("address after n = %d, want 4", e.view.Address())
	}
	typeKeys(e, "n")
	if e.view.Address() != 4 {
		t.Fatalf("n past the last match moved to %d", e.view.Address())
	}
	assertStatus(t, e, LevelInfo, "no next match")

	typeKeys(e, "N")
	if e.view.Address() != 2 {
		t.Fatalf("address after N = %d, want 2", e.view.Address())
	}

	runCommand(e, "/")
	if e.results.Len() != 0 {
		t.Fatal("/ did not clear the results")
	}
	typeKeys(e, "n")
	assertStatus(t, e, LevelInfo, "no search results")
}

func TestSearchKinds(t *testing.T) {
	data := []byte("\x00\x34\x12AB\x12\x34")
	tests := []struct {
		line string
		want uint64
	}{
		{":s/AB", 3},
		{":x/1234", 5},
		{":xi/1234", 1},
	}
	for _, tc := range tests {
		e := newTestEditor(t, data...)
		runCommand(e, tc.line)
		if e.results.Len() != 1 || e.view.Address() != tc.want {
			t.Fatalf("%s: %d results at %d, want 1 at %d", tc.line, e.results.Len(), e.view.Address(), tc.want)
		}
	}
}

func TestSearchNotFound(t *testing.T) {
	e := newTestEditor(t, []byte("hello")...)
	runCommand(e, "/zz")
	if e.results.Len() != 0 {
		t.Fatalf("results = %d, want 0", e.results.Len())
	}
	assertStatus(t, e, LevelWarning, "pattern not found")
}

func TestCommandModeEditingKeys(t *testing.T) {
	e := newTestEditor(t, 0x00)
	e.enterCommandMode(':')
	e.cmd = []rune("hello world")
	e.cmdCursor = 11

	e.handleCommand(tcell.NewEventKey(tcell.KeyCtrlB, 0, 0))
	if e.cmdCursor != 10 {
		t.Fatalf("ctrl+b cursor = %d, want 10", e.cmdCursor)
	}
	e.handleCommand(tcell.NewEventKey(tcell.KeyCtrlF, 0, 0))
	if e.cmdCursor != 11 {
		t.Fatalf("ctrl+f cursor = %d, want 11", e.cmdCursor)
	}
	e.handleCommand(tcell.NewEventKey(tcell.KeyHome, 0, 0))
	if e.cmdCursor != 0 {
		t.Fatalf("home cursor = %d, want 0", e.cmdCursor)
	}
	e.handleCommand(tcell.NewEventKey(tcell.KeyEnd, 0, 0))
	if e.cmdCursor != len(e.cmd) {
		t.Fatalf("end cursor = %d, want %d", e.cmdCursor, len(e.cmd))
	}

	e.cmdCursor = 5
	e.handleCommand(tcell.NewEventKey(tcell.KeyBackspace, 0, 0))
	if string(e.cmd) != "hell world" {
		t.Fatalf("backspace cmd = %q, want %q", string(e.cmd), "hell world")
	}
	e.handleCommand(tcell.NewEventKey(tcell.KeyDelete, 0, 0))
	if string(e.cmd) != "hellworld" {
		t.Fatalf("delete cmd = %q, want %q", string(e.cmd), "hellworld")
	}

	e.handleCommand(tcell.NewEventKey(tcell.KeyCtrlW, 0, 0))
	if string(e.cmd) != "world" || e.cmdCursor != 0 {
		t.Fatalf("ctrl+w cmd=%q cursor=%d, want %q/0", string(e.cmd), e.cmdCursor, "world")
	}

	e.cmdCursor = 1
	e.handleCommand(tcell.NewEventKey(tcell.KeyCtrlK, 0, 0))
	if string(e.cmd) != "w" {
		t.Fatalf("ctrl+k cmd = %q, want %q", string(e.cmd), "w")
	}

	e.handleCommand(tcell.NewEventKey(tcell.KeyCtrlU, 0, 0))
	if len(e.cmd) != 0 || e.cmdCursor != 0 {
		t.Fatalf("ctrl+u cmd=%q cursor=%d, want empty/0", string(e.cmd), e.cmdCursor)
	}

	// Backspace on an empty line leaves the command bar.
	e.handleCommand(tcell.NewEventKey(tcell.KeyBackspace2, 0, 0))
	if e.mode != ModeNormal {
		t.Fatalf("mode = %v, want normal", e.mode)
	}
}

func TestCommandHistory(t *testing.T) {
	e := newTestEditor(t, 0x00)

	runCommand(e, ":i")
	runCommand(e, "/00")
	runCommand(e, ":0x0")

	typeKeys(e, ":")
	e.handleCommand(tcell.NewEventKey(tcell.KeyUp, 0, 0))
	if e.commandLine() != ":0x0" {
		t.Fatalf("up = %q, want %q", e.commandLine(), ":0x0")
	}
	// Filtering by the typed prefix skips the search.
	e.handleCommand(tcell.NewEventKey(tcell.KeyCtrlP, 0, 0))
	if e.commandLine() != ":i" {
		t.Fatalf("ctrl+p = %q, want %q", e.commandLine(), ":i")
	}
	e.handleCommand(tcell.NewEventKey(tcell.KeyDown, 0, 0))
	if e.commandLine() != ":0x0" {
		t.Fatalf("down = %q, want %q", e.commandLine(), ":0x0")
	}
	e.handleCommand(tcell.NewEventKey(tcell.KeyCtrlN, 0, 0))
	if e.commandLine() != ":" {
		t.Fatalf("ctrl+n = %q, want %q", e.commandLine(), ":")
	}
	e.handleCommand(tcell.NewEventKey(tcell.KeyEscape, 0, 0))

	// History survives into a new editor.
	other := New(config.Default())
	other.LoadCmdHistory()
	if len(other.cmdHistory) != 3 || other.cmdHistory[1] != "/00" {
		t.Fatalf("loaded history = %q", other.cmdHistory)
	}
}

func TestSelectionAndCopy(t *testing.T) {
	var copied string
	old := clipboardWrite
	clipboardWrite = func(text string) error {
		copied = text
		return nil
	}
	defer func() { clipboardWrite = old }()

	e := newTestEditor(t, 0xDE, 0xAD, 0xBE, 0x41)
	typeKeys(e, "y")
	assertStatus(t, e, LevelWarning, "nothing selected")

	typeKeys(e, "vllll")
	start, end, ok := e.view.Selection()
	if !ok || start != 0 || end != 2 {
		t.Fatalf("selection = %d..%d ok=%v, want 0..2", start, end, ok)
	}
	typeKeys(e, "y")
	if copied != "de ad be" {
		t.Fatalf("copied = %q, want %q", copied, "de ad be")
	}
	assertStatus(t, e, LevelInfo, "copied 3 bytes")

	e.HandleKey(tcell.NewEventKey(tcell.KeyEscape, 0, 0))
	if e.view.Selecting() {
		t.Fatal("esc kept the selection")
	}

	// The ascii pane copies raw bytes.
	e.HandleKey(tcell.NewEventKey(tcell.KeyTab, 0, 0))
	e.HandleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModShift))
	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlO, 0, tcell.ModCtrl))
	if copied != "\xbe\x41" {
		t.Fatalf("copied = %q, want %q", copied, "\xbe\x41")
	}
}

func TestCopyUppercaseAndFailure(t *testing.T) {
	old := clipboardWrite
	defer func() { clipboardWrite = old }()
	var copied string
	clipboardWrite = func(text string) error {
		copied = text
		return nil
	}

	cfg := config.Default()
	cfg.Editor.UppercaseHex = true
	e := newTestEditorWith(t, cfg, []byte{0xab, 0xcd})
	typeKeys(e, "vll")
	typeKeys(e, "y")
	if copied != "AB CD" {
		t.Fatalf("copied = %q, want %q", copied, "AB CD")
	}

	clipboardWrite = func(string) error { return errors.New("no display") }
	typeKeys(e, "y")
	assertStatus(t, e, LevelError, "clipboard: no display")
}

func TestMoveSelection(t *testing.T) {
	e := newTestEditor(t, 0x00, 0x01, 0x02, 0x03)
	altLeft := tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModAlt)
	altRight := tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModAlt)

	typeKeys(e, "vll")
	e.HandleKey(altRight)
	if start, end, _ := e.view.Selection(); start != 1 || end != 2 {
		t.Fatalf("selection = %d..%d, want 1..2", start, end)
	}
	e.HandleKey(altLeft)
	e.HandleKey(altLeft)
	if start, end, _ := e.view.Selection(); start != 0 || end != 1 {
		t.Fatalf("selection = %d..%d, want 0..1", start, end)
	}
	assertStatus(t, e, LevelInfo, "selection is at the end of the file")
}

func TestMovementKeys(t *testing.T) {
	e := newTestEditor(t, make([]byte, 64)...)

	typeKeys(e, "j")
	if e.view.Cursor() != 32 {
		t.Fatalf("j cursor = %d, want 32", e.view.Cursor())
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyEnd, 0, 0))
	if e.view.Cursor() != 63 {
		t.Fatalf("end cursor = %d, want 63", e.view.Cursor())
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyHome, 0, 0))
	if e.view.Cursor() != 32 {
		t.Fatalf("home cursor = %d, want 32", e.view.Cursor())
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModCtrl))
	if e.view.Cursor() != 48 {
		t.Fatalf("ctrl+right cursor = %d, want 48", e.view.Cursor())
	}
	typeKeys(e, "G")
	if e.view.Cursor() != 127 {
		t.Fatalf("G cursor = %d, want 127", e.view.Cursor())
	}
	typeKeys(e, "g")
	if e.view.Cursor() != 0 || e.view.Offset() != 0 {
		t.Fatalf("g cursor %d offset %d, want 0 and 0", e.view.Cursor(), e.view.Offset())
	}
}

func TestHandleFileEvent(t *testing.T) {
	e := newTestEditor(t, 0x01, 0x02)

	e.HandleFileEvent(watcher.Event{Path: e.Filename(), Op: watcher.Changed})
	if msg, _ := e.Status(); msg != "" {
		t.Fatalf("unchanged file produced %q", msg)
	}

	if err := os.WriteFile(e.Filename(), []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	e.HandleFileEvent(watcher.Event{Path: e.Filename(), Op: watcher.Changed})
	assertStatus(t, e, LevelWarning, "file changed on disk")

	e.HandleFileEvent(watcher.Event{Path: e.Filename(), Op: watcher.Removed})
	assertStatus(t, e, LevelWarning, "file removed on disk")
}

func TestSessionState(t *testing.T) {
	e := newTestEditor(t, make([]byte, 40)...)
	typeKeys(e, "ijjl")
	e.HandleKey(tcell.NewEventKey(tcell.KeyTab, 0, 0))
	st := e.State()
	if st.Cursor != 65 || st.Mode != "insert" || st.Pane != "ascii" || st.Size != 40 {
		t.Fatalf("state = %+v", st)
	}

	other := New(config.Default())
	if err := other.OpenFile(e.Filename()); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer other.Close()
	if !other.Restore(st) {
		t.Fatal("Restore refused a matching state")
	}
	if other.view.Cursor() != 65 || other.view.Mode() != bytestore.Insert || other.pane != PaneASCII {
		t.Fatalf("restored cursor %d mode %v pane %v", other.view.Cursor(), other.view.Mode(), other.pane)
	}

	st.Size = 41
	if other.Restore(st) {
		t.Fatal("Restore accepted a state for a different size")
	}
}

// Package viewport tracks the cursor, scroll offset and selection of the
// hex view.
//
// The cursor counts nibbles: byte n occupies cursor positions 2n and 2n+1.
// The offset counts bytes and is always aligned to a display line.
package viewport

import (
	"github.com/kobzarvs/hexed/internal/bytestore"
)

const (
	lineBytes   = bytestore.LineWidth
	lineNibbles = lineBytes * 2
)

// Sizer reports the current logical size of the edited file.
type Sizer interface {
	Len() uint64
}

type Viewport struct {
	src    Sizer
	cursor uint64
	offset uint64
	lines  uint64
	mode   bytestore.Mode

	selecting bool
	selStart  uint64
}

func New(src Sizer) *Viewport {
	return &Viewport{src: src, lines: 1}
}

func (v *Viewport) Cursor() uint64       { return v.cursor }
func (v *Viewport) Offset() uint64       { return v.offset }
func (v *Viewport) Address() uint64      { return v.cursor / 2 }
func (v *Viewport) Lines() int           { return int(v.lines) }
func (v *Viewport) Mode() bytestore.Mode { return v.mode }

// SetLines sets the viewport height. Heights below one line are raised to one.
func (v *Viewport) SetLines(n int) {
	v.lines = uint64(max(n, 1))
	v.follow()
}

func (v *Viewport) SetMode(m bytestore.Mode) {
	v.mode = m
	v.Clamp()
}

func (v *Viewport) ToggleMode() {
	if v.mode == bytestore.Insert {
		v.SetMode(bytestore.Overwrite)
		return
	}
	v.SetMode(bytestore.Insert)
}

// MaxCursor is the largest legal cursor. Insert mode allows one position
// past the last byte so that bytes can be appended.
func (v *Viewport) MaxCursor() uint64 {
	size := v.src.Len()
	switch {
	case size == 0:
		return 0
	case v.mode == bytestore.Insert:
		return size * 2
	default:
		return size*2 - 1
	}
}

// lastLine is the byte offset of the line holding MaxCursor.
func (v *Viewport) lastLine() uint64 {
	return v.MaxCursor() / lineNibbles * lineBytes
}

func (v *Viewport) cursorLine() uint64 {
	return v.cursor / lineNibbles * lineBytes
}

// Clamp pulls the cursor, selection and offset back inside the file after
// it shrank or the mode changed.
func (v *Viewport) Clamp() {
	limit := v.MaxCursor()
	v.cursor = min(v.cursor, limit)
	v.selStart = min(v.selStart, limit)
	v.ChangeOffset(0)
}

// SetCursor places the cursor at nibble n, clamped to the file.
func (v *Viewport) SetCursor(n uint64) {
	v.cursor = min(n, v.MaxCursor())
	v.follow()
}

// ChangeCursor moves the cursor by delta nibbles. Moving past either end of
// the file keeps the cursor's column where possible.
func (v *Viewport) ChangeCursor(delta int64) {
	limit := v.MaxCursor()
	col := v.cursor % lineNibbles
	next := int64(v.cursor) + delta
	switch {
	case next < 0:
		v.cursor = min(col, limit)
	case uint64(next) > limit:
		last := limit / lineNibbles * lineNibbles
		switch {
		case last+col <= limit:
			v.cursor = last + col
		case last >= lineNibbles:
			v.cursor = last - lineNibbles + col
		default:
			v.cursor = limit
		}
	default:
		v.cursor = uint64(next)
	}
	v.follow()
}

// follow scrolls the least amount needed to show the cursor's line.
func (v *Viewport) follow() {
	line := v.cursorLine()
	if line < v.offset {
		v.offset = line
		return
	}
	if span := v.lines * lineBytes; line >= v.offset+span {
		v.offset = line - (v.lines-1)*lineBytes
	}
}

// ChangeOffset scrolls the view by delta bytes. The offset stays aligned,
// never starts past the last line and never scrolls the cursor out of view.
func (v *Viewport) ChangeOffset(delta int64) {
	next := max(int64(v.offset)+delta, 0)
	off := min(uint64(next)/lineBytes*lineBytes, v.lastLine())

	line := v.cursorLine()
	off = min(off, line)
	if span := (v.lines - 1) * lineBytes; line > span {
		off = max(off, line-span)
	}
	v.offset = off
}

// Scroll moves the view by n lines. A cursor that would leave the view is
// dragged along, keeping its column.
func (v *Viewport) Scroll(n int64) {
	next := max(int64(v.offset)+n*lineBytes, 0)
	off := min(uint64(next), v.lastLine())
	if off == v.offset {
		return
	}
	v.offset = off
	line := v.cursorLine()
	bottom := off + (v.lines-1)*lineBytes
	switch {
	case line < off:
		v.cursor += (off - line) / lineBytes * lineNibbles
	case line > bottom:
		v.cursor -= (line - bottom) / lineBytes * lineNibbles
	}
	// The last line may be short.
	v.cursor = min(v.cursor, v.MaxCursor())
}

// JumpTo moves the cursor to the high nibble of address. If address is
// already on screen only the cursor moves; otherwise the view is centred
// on it.
func (v *Viewport) JumpTo(address uint64) {
	size := v.src.Len()
	if size == 0 {
		v.cursor, v.offset = 0, 0
		return
	}
	v.jump(min(address, size-1))
}

// JumpToNibble is JumpTo for a nibble position.
func (v *Viewport) JumpToNibble(n uint64) {
	n = min(n, v.MaxCursor())
	v.jump(n / 2)
	v.cursor = n
}

func (v *Viewport) jump(address uint64) {
	v.cursor = address * 2
	if address >= v.offset && address < v.offset+v.lines*lineBytes {
		return
	}
	half := v.lines / 2 * lineBytes
	if address > half {
		v.offset = (address - half) / lineBytes * lineBytes
	} else {
		v.offset = 0
	}
}

// Page moves the cursor and the view by n lines, keeping the cursor on the
// same screen row.
func (v *Viewport) Page(n int64) {
	row := (v.cursorLine() - v.offset) / lineBytes
	v.ChangeCursor(n * lineNibbles)
	line := v.cursorLine()
	if line >= row*lineBytes {
		v.offset = line - row*lineBytes
	} else {
		v.offset = 0
	}
	v.ChangeOffset(0)
}

func (v *Viewport) LineStart() {
	v.cursor -= v.cursor % lineNibbles
}

func (v *Viewport) LineEnd() {
	v.cursor = min(v.cursor-v.cursor%lineNibbles+lineNibbles-1, v.MaxCursor())
}

func (v *Viewport) FileStart() {
	v.cursor, v.offset = 0, 0
}

func (v *Viewport) FileEnd() {
	v.cursor = v.MaxCursor()
	v.follow()
}

// StartSelection anchors a selection at the cursor.
func (v *Viewport) StartSelection() {
	v.selecting = true
	v.selStart = v.cursor
}

func (v *Viewport) ClearSelection() {
	v.selecting = false
}

func (v *Viewport) Selecting() bool { return v.selecting }

// Selection returns the selected byte range, both ends inclusive.
func (v *Viewport) Selection() (start, end uint64, ok bool) {
	size := v.src.Len()
	if !v.selecting || size == 0 {
		return 0, 0, false
	}
	a, b := v.selStart/2, v.cursor/2
	if a > b {
		a, b = b, a
	}
	return min(a, size-1), min(b, size-1), true
}

func (v *Viewport) InSelection(address uint64) bool {
	start, end, ok := v.Selection()
	return ok && address >= start && address <= end
}

// MoveSelection shifts both ends of the selection by delta nibbles. The move
// is refused when either end would leave the file. Without a selection it
// moves the cursor.
func (v *Viewport) MoveSelection(delta int64) bool {
	if !v.selecting {
		v.ChangeCursor(delta)
		return true
	}
	limit := int64(v.MaxCursor())
	c, s := int64(v.cursor)+delta, int64(v.selStart)+delta
	if c < 0 || s < 0 || c > limit || s > limit {
		return false
	}
	v.cursor, v.selStart = uint64(c), uint64(s)
	v.follow()
	return true
}

package editor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/hexed/internal/bytestore"
	"github.com/kobzarvs/hexed/internal/config"
)

// Screen layout of one line:
//
//	00000010  de ad be ef 00 01 02 03  04 05 06 07 08 09 0a 0b  ....abcdefghijkl
const (
	hexStart   = 10
	asciiStart = hexStart + bytestore.LineWidth*3 + 2
)

// hexCol is the screen column of the high nibble of byte i in a line.
func hexCol(i int) int {
	return hexStart + i*3 + i/8
}

type styles struct {
	main         tcell.Style
	address      tcell.Style
	status       tcell.Style
	command      tcell.Style
	cursor       tcell.Style
	selection    tcell.Style
	searchMatch  tcell.Style
	modified     tcell.Style
	levelInfo    tcell.Style
	levelWarning tcell.Style
	levelError   tcell.Style
	classes      [classNonASCII + 1]tcell.Style
}

func newStyles(t config.Theme) styles {
	mainFg := parseColor(t.Foreground, tcell.ColorWhite)
	mainBg := parseColor(t.Background, tcell.ColorBlack)
	statusFg := parseColor(t.StatuslineForeground, tcell.ColorBlack)
	statusBg := parseColor(t.StatuslineBackground, tcell.ColorGray)
	commandFg := parseColor(t.CommandlineForeground, statusFg)
	commandBg := parseColor(t.CommandlineBackground, statusBg)
	fg := func(name string, fallback tcell.Color) tcell.Style {
		return tcell.StyleDefault.Foreground(parseColor(name, fallback)).Background(mainBg)
	}
	whitespace := fg(t.WhitespaceForeground, tcell.ColorGreen)
	return styles{
		main:         tcell.StyleDefault.Foreground(mainFg).Background(mainBg),
		address:      tcell.StyleDefault.Foreground(parseColor(t.AddressForeground, tcell.ColorGray)).Background(mainBg),
		status:       tcell.StyleDefault.Foreground(statusFg).Background(statusBg),
		command:      tcell.StyleDefault.Foreground(commandFg).Background(commandBg),
		cursor:       tcell.StyleDefault.Foreground(parseColor(t.CursorForeground, tcell.ColorBlack)).Background(parseColor(t.CursorBackground, tcell.ColorYellow)),
		selection:    tcell.StyleDefault.Foreground(parseColor(t.SelectionForeground, mainFg)).Background(parseColor(t.SelectionBackground, tcell.ColorNavy)),
		searchMatch:  tcell.StyleDefault.Foreground(parseColor(t.SearchMatchForeground, tcell.ColorBlack)).Background(parseColor(t.SearchMatchBackground, tcell.ColorYellow)),
		modified:     tcell.StyleDefault.Foreground(parseColor(t.ModifiedForeground, tcell.ColorRed)).Background(mainBg),
		levelInfo:    tcell.StyleDefault.Foreground(parseColor(t.InfoForeground, statusFg)).Background(statusBg),
		levelWarning: tcell.StyleDefault.Foreground(parseColor(t.WarningForeground, tcell.ColorYellow)).Background(statusBg),
		levelError:   tcell.StyleDefault.Foreground(parseColor(t.ErrorForeground, tcell.ColorRed)).Background(statusBg),
		classes: [...]tcell.Style{
			classNull:       fg(t.NullForeground, tcell.ColorDarkGray),
			classSpace:      whitespace,
			classWhitespace: whitespace,
			classPrintable:  fg(t.PrintableForeground, tcell.ColorLightCyan),
			classControl:    fg(t.ControlForeground, tcell.ColorFuchsia),
			classNonASCII:   fg(t.NonASCIIForeground, tcell.ColorYellow),
		},
	}
}

func (e *Editor) Render(s tcell.Screen) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	viewHeight := max(h-2, 0)
	e.view.SetLines(viewHeight)

	s.SetStyle(e.styles.main)
	s.Clear()

	cx, cy := -1, -1
	if e.store != nil {
		cx, cy = e.renderLines(s, viewHeight)
		if h >= 2 {
			e.renderStatusline(s, w, h-2)
		}
	}
	cmdCursor := e.renderCommandline(s, w, h-1)
	if e.mode == ModeCommand {
		cx, cy = cmdCursor, h-1
	}
	if cx < 0 || cy < 0 || cx >= w {
		s.HideCursor()
		s.Show()
		return
	}
	s.SetCursorStyle(tcell.CursorStyleSteadyBlock)
	s.ShowCursor(cx, cy)
	s.Show()
}

// renderLines draws the visible lines and returns the screen position of
// the cursor, or -1 when it is off screen.
func (e *Editor) renderLines(s tcell.Screen, rows int) (int, int) {
	cx, cy := -1, -1
	size := e.store.Len()
	cursorAddr := e.view.Address()
	offset := e.view.Offset()
	e.store.ResetRead(offset)
	for y := 0; y < rows; y++ {
		addr := offset + uint64(y)*bytestore.LineWidth
		buf, n := e.store.ReadLine()
		onLine := cursorAddr >= addr && cursorAddr < addr+bytestore.LineWidth
		if n == 0 && !onLine {
			break
		}
		drawString(s, 0, y, fmt.Sprintf("%08x", addr), e.styles.address)
		for i := 0; i < n; i++ {
			e.drawByte(s, y, i, addr+uint64(i), buf[i])
		}
		if onLine {
			i := int(cursorAddr - addr)
			if cursorAddr >= size {
				// Append position in Insert mode.
				s.SetContent(hexCol(i), y, ' ', nil, e.styles.cursor)
				s.SetContent(asciiStart+i, y, ' ', nil, e.styles.cursor)
			}
			cx, cy = asciiStart+i, y
			if e.pane == PaneHex {
				cx = hexCol(i) + int(e.view.Cursor()%2)
			}
		}
	}
	return cx, cy
}

type highlight int

const (
	highlightNone highlight = iota
	highlightModified
	highlightMatch
	highlightSelection
)

func (e *Editor) drawByte(s tcell.Screen, y, i int, addr uint64, b byte) {
	hl := e.highlightAt(addr)
	style := e.highlightStyle(hl)
	if hl == highlightNone {
		style = e.styles.classes[classify(b)]
	}
	digits := "0123456789abcdef"
	if e.uppercase {
		digits = "0123456789ABCDEF"
	}
	hi, lo := style, style
	ascii := style
	if addr == e.view.Address() {
		if e.pane == PaneHex {
			if e.view.Cursor()%2 == 0 {
				hi = e.styles.cursor
			} else {
				lo = e.styles.cursor
			}
			ascii = style.Underline(true)
		} else {
			hi, lo = style.Underline(true), style.Underline(true)
			ascii = e.styles.cursor
		}
	}
	x := hexCol(i)
	s.SetContent(x, y, rune(digits[b>>4]), nil, hi)
	s.SetContent(x+1, y, rune(digits[b&0x0f]), nil, lo)
	// Fill the gap between two bytes of the same selection or match.
	if i%8 != 7 && hl >= highlightMatch && e.highlightAt(addr+1) == hl {
		s.SetContent(x+2, y, ' ', nil, style)
	}
	s.SetContent(asciiStart+i, y, placeholder(b), nil, ascii)
}

// highlightAt ranks selection over search match over modified.
func (e *Editor) highlightAt(addr uint64) highlight {
	switch {
	case e.view.InSelection(addr):
		return highlightSelection
	case e.results.Contains(addr):
		return highlightMatch
	case addr < e.store.Len() && e.store.IsModified(addr):
		return highlightModified
	}
	return highlightNone
}

func (e *Editor) highlightStyle(hl highlight) tcell.Style {
	switch hl {
	case highlightSelection:
		return e.styles.selection
	case highlightMatch:
		return e.styles.searchMatch
	case highlightModified:
		return e.styles.modified
	}
	return e.styles.main
}

type byteClass int

const (
	classNull byteClass = iota
	classSpace
	classWhitespace
	classPrintable
	classControl
	classNonASCII
)

func classify(b byte) byteClass {
	switch {
	case b == 0x00:
		return classNull
	case b == ' ':
		return classSpace
	case b == '\t', b == '\n', b == '\f', b == '\r':
		return classWhitespace
	case b > 0x20 && b < 0x7f:
		return classPrintable
	case b < 0x80:
		return classControl
	}
	return classNonASCII
}

// placeholder is what the ascii pane shows for b. Bytes without a glyph
// get a marker for their class.
func placeholder(b byte) rune {
	switch classify(b) {
	case classNull:
		return '0'
	case classWhitespace:
		return '_'
	case classControl:
		return '•'
	case classNonASCII:
		return 'x'
	}
	return rune(b)
}

func (e *Editor) renderStatusline(s tcell.Screen, w, y int) {
	name := filepath.Base(e.store.Path())
	if e.Dirty() {
		name += "*"
	}
	if e.store.ReadOnly() {
		name += " [RO]"
	}
	prefix := fmt.Sprintf(" %s | %s | %s ", e.view.Mode(), e.pane, name)
	left := prefix
	if e.statusMessage != "" {
		left = prefix + "| " + e.statusMessage + " "
	}
	right := fmt.Sprintf(" 0x%x / 0x%x ", e.view.Address(), e.store.Len())
	if start, end, ok := e.view.Selection(); ok {
		right = fmt.Sprintf(" sel 0x%x |%s", end-start+1, right)
	}

	msgStyle := e.styles.levelInfo
	switch e.statusLevel {
	case LevelWarning:
		msgStyle = e.styles.levelWarning
	case LevelError:
		msgStyle = e.styles.levelError
	}
	msgStart := runewidth.StringWidth(prefix) + 2
	msgEnd := msgStart + runewidth.StringWidth(e.statusMessage)

	line := composeStatusLine(left, right, w)
	x := 0
	for _, r := range line {
		style := e.styles.status
		if e.statusMessage != "" && x >= msgStart && x < msgEnd {
			style = msgStyle
		}
		s.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
}

// renderCommandline draws the command bar and returns the column of its
// edit cursor.
func (e *Editor) renderCommandline(s tcell.Screen, w, y int) int {
	clearLine(s, y, w, e.styles.command)
	if e.mode == ModeCommand {
		drawString(s, 0, y, e.commandLine(), e.styles.command)
		return runewidth.StringWidth(string(e.cmdPrefix) + string(e.cmd[:e.cmdCursor]))
	}

	var right string
	if n := e.results.Len(); n > 0 && e.store != nil {
		if i, found := e.results.Index(e.view.Address()); found {
			right = fmt.Sprintf(" [%d/%d]", i+1, n)
		} else {
			right = fmt.Sprintf(" [%d matches]", n)
		}
	}
	if e.lastKeyCombo != "" {
		right += " " + e.lastKeyCombo
	}
	if right != "" {
		right += " "
		drawString(s, max(w-runewidth.StringWidth(right), 0), y, right, e.styles.command)
	}
	return 0
}

func drawString(s tcell.Screen, x, y int, str string, style tcell.Style) int {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
	return x
}

func clearLine(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

// composeStatusLine pads left and right to exactly width columns. Left is
// cut first when both do not fit.
func composeStatusLine(left, right string, width int) string {
	if width <= 0 {
		return ""
	}
	rw := runewidth.StringWidth(right)
	if rw >= width {
		return runewidth.Truncate(right, width, "")
	}
	left = runewidth.Truncate(left, width-rw, "…")
	pad := width - rw - runewidth.StringWidth(left)
	return left + strings.Repeat(" ", pad) + right
}

func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		r, err1 := strconv.ParseInt(name[1:3], 16, 32)
		g, err2 := strconv.ParseInt(name[3:5], 16, 32)
		b, err3 := strconv.ParseInt(name[5:7], 16, 32)
		if err1 == nil && err2 == nil && err3 == nil {
			return tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
		return fallback
	}
	name = strings.ToLower(name)
	if name == "default" {
		return tcell.ColorDefault
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}

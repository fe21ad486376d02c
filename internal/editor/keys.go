package editor

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

const (
	actionMoveLeft           = "move_left"
	actionMoveRight          = "move_right"
	actionMoveUp             = "move_up"
	actionMoveDown           = "move_down"
	actionJumpLeft           = "jump_left"
	actionJumpRight          = "jump_right"
	actionLineStart          = "line_start"
	actionLineEnd            = "line_end"
	actionFileStart          = "file_start"
	actionFileEnd            = "file_end"
	actionPageUp             = "page_up"
	actionPageDown           = "page_down"
	actionScrollUp           = "scroll_up"
	actionScrollDown         = "scroll_down"
	actionDeleteByte         = "delete_byte"
	actionBackspace          = "backspace"
	actionUndo               = "undo"
	actionRedo               = "redo"
	actionToggleMode         = "toggle_mode"
	actionSwitchPane         = "switch_pane"
	actionEnterCommand       = "enter_command"
	actionEnterSearch        = "enter_search"
	actionSearchNext         = "search_next"
	actionSearchPrev         = "search_prev"
	actionToggleSelect       = "toggle_select"
	actionClearSelection     = "clear_selection"
	actionSelectLeft         = "select_left"
	actionSelectRight        = "select_right"
	actionSelectUp           = "select_up"
	actionSelectDown         = "select_down"
	actionMoveSelectionLeft  = "move_selection_left"
	actionMoveSelectionRight = "move_selection_right"
	actionCopy               = "copy"
	actionSave               = "save"
	actionQuit               = "quit"
)

func keyString(ev *tcell.EventKey) string {
	mods := ev.Modifiers()
	if arrow := arrowName(ev.Key()); arrow != "" {
		switch {
		case mods&tcell.ModAlt != 0 && mods&tcell.ModShift != 0:
			return "alt+shift+" + arrow
		case mods&tcell.ModAlt != 0:
			return "alt+" + arrow
		case mods&tcell.ModCtrl != 0:
			return "ctrl+" + arrow
		case mods&tcell.ModShift != 0:
			return "shift+" + arrow
		}
		return arrow
	}
	if mods&tcell.ModCtrl != 0 {
		switch ev.Key() {
		case tcell.KeyHome:
			return "ctrl+home"
		case tcell.KeyEnd:
			return "ctrl+end"
		}
	}
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		name := string(r)
		if r == ' ' {
			name = "space"
		}
		if mods&tcell.ModAlt != 0 {
			return "alt+" + name
		}
		return name
	}
	// Enter, Tab and Backspace share codes with ctrl+m, ctrl+i and ctrl+h,
	// so they are named before the control keys.
	switch ev.Key() {
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyTab:
		if mods&tcell.ModShift != 0 {
			return "shift+tab"
		}
		return "tab"
	case tcell.KeyBacktab:
		return "shift+tab"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "backspace"
	case tcell.KeyEscape:
		return "esc"
	}
	if name := ctrlKeyName(ev.Key()); name != "" {
		return name
	}
	switch ev.Key() {
	case tcell.KeyPgUp:
		return "pgup"
	case tcell.KeyPgDn:
		return "pgdn"
	case tcell.KeyHome:
		return "home"
	case tcell.KeyEnd:
		return "end"
	case tcell.KeyInsert:
		return "insert"
	case tcell.KeyDelete:
		return "del"
	}
	return ""
}

func arrowName(k tcell.Key) string {
	switch k {
	case tcell.KeyUp:
		return "up"
	case tcell.KeyDown:
		return "down"
	case tcell.KeyLeft:
		return "left"
	case tcell.KeyRight:
		return "right"
	}
	return ""
}

// keyStringForMap names ev for a keymap lookup. A modified chord the keymap
// does not bind falls back to the bare key, so shift+home still means home.
func keyStringForMap(ev *tcell.EventKey, keymap map[string]string) string {
	name := keyString(ev)
	if _, ok := keymap[name]; ok || ev.Modifiers() == tcell.ModNone {
		return name
	}
	plain := keyString(tcell.NewEventKey(ev.Key(), ev.Rune(), tcell.ModNone))
	if _, ok := keymap[plain]; ok {
		return plain
	}
	return name
}

func ctrlKeyName(key tcell.Key) string {
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return fmt.Sprintf("ctrl+%c", 'a'+rune(key-tcell.KeyCtrlA))
	}
	return ""
}

// keyStringDisplay is the upper-case form shown in the command line hint.
func keyStringDisplay(ev *tcell.EventKey) string {
	name := keyString(ev)
	if name == "" {
		return fmt.Sprintf("KEY%d", ev.Key())
	}
	if len(name) == 1 {
		return name
	}
	return strings.ToUpper(strings.ReplaceAll(name, "+", "-"))
}

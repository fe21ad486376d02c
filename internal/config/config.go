package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Keymap struct {
	Hex   map[string]string `toml:"hex"`
	Ascii map[string]string `toml:"ascii"`
}

type EditorOptions struct {
	Debug          bool   `toml:"debug"`
	StartMode      string `toml:"start-mode"`
	StartPane      string `toml:"start-pane"`
	SearchTimeout  string `toml:"search-timeout"`
	RestoreSession bool   `toml:"restore-session"`
	WatchFile      bool   `toml:"watch-file"`
	UppercaseHex   bool   `toml:"uppercase-hex"`
}

// SearchTimeoutDuration parses SearchTimeout, falling back to the default
// when it is empty or malformed.
func (o EditorOptions) SearchTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(o.SearchTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

type Theme struct {
	Theme                 string `toml:"theme"`
	Foreground            string `toml:"foreground"`
	Background            string `toml:"background"`
	AddressForeground     string `toml:"address-foreground"`
	StatuslineForeground  string `toml:"statusline-foreground"`
	StatuslineBackground  string `toml:"statusline-background"`
	CommandlineForeground string `toml:"commandline-foreground"`
	CommandlineBackground string `toml:"commandline-background"`
	CursorForeground      string `toml:"cursor-foreground"`
	CursorBackground      string `toml:"cursor-background"`
	SelectionForeground   string `toml:"selection-foreground"`
	SelectionBackground   string `toml:"selection-background"`
	SearchMatchForeground string `toml:"search-foreground"`
	SearchMatchBackground string `toml:"search-background"`
	ModifiedForeground    string `toml:"modified-foreground"`
	InfoForeground        string `toml:"info-foreground"`
	WarningForeground     string `toml:"warning-foreground"`
	ErrorForeground       string `toml:"error-foreground"`

	// Byte classes, used for both panes when a byte is not highlighted.
	NullForeground       string `toml:"null-foreground"`
	WhitespaceForeground string `toml:"whitespace-foreground"`
	PrintableForeground  string `toml:"printable-foreground"`
	ControlForeground    string `toml:"control-foreground"`
	NonASCIIForeground   string `toml:"non-ascii-foreground"`
}

type Config struct {
	Editor EditorOptions `toml:"editor"`
	Theme  Theme         `toml:"theme"`
	Keymap Keymap        `toml:"keymap"`
}

func Default() Config {
	return Config{
		Editor: EditorOptions{
			StartMode:      "overwrite",
			StartPane:      "hex",
			SearchTimeout:  "30s",
			RestoreSession: true,
			WatchFile:      true,
		},
		Theme: Theme{
			Theme:                 "",
			Foreground:            "#B3B1AD",
			Background:            "#0A0E14",
			AddressForeground:     "#3E4B59",
			StatuslineForeground:  "#B3B1AD",
			StatuslineBackground:  "#0F1419",
			CommandlineForeground: "#B3B1AD",
			CommandlineBackground: "#0F1419",
			CursorForeground:      "#0A0E14",
			CursorBackground:      "#E6B450",
			SelectionForeground:   "#B3B1AD",
			SelectionBackground:   "#27425A",
			SearchMatchForeground: "#000000",
			SearchMatchBackground: "#FFD700",
			ModifiedForeground:    "#F07178",
			InfoForeground:        "#B3B1AD",
			WarningForeground:     "#FFB454",
			ErrorForeground:       "#FF3333",
			NullForeground:        "#3E4B59",
			WhitespaceForeground:  "#91B362",
			PrintableForeground:   "#95E6CB",
			ControlForeground:     "#D2A6FF",
			NonASCIIForeground:    "#E6B450",
		},
		Keymap: Keymap{
			Hex: map[string]string{
				"h":           "move_left",
				"j":           "move_down",
				"k":           "move_up",
				"l":           "move_right",
				"left":        "move_left",
				"down":        "move_down",
				"up":          "move_up",
				"right":       "move_right",
				"ctrl+left":   "jump_left",
				"ctrl+right":  "jump_right",
				"home":        "line_start",
				"end":         "line_end",
				"g":           "file_start",
				"G":           "file_end",
				"ctrl+home":   "file_start",
				"ctrl+end":    "file_end",
				"pgup":        "page_up",
				"pgdn":        "page_down",
				"ctrl+y":      "scroll_up",
				"ctrl+e":      "scroll_down",
				"del":         "delete_byte",
				"x":           "delete_byte",
				"backspace":   "backspace",
				"u":           "undo",
				"U":           "redo",
				"ctrl+z":      "undo",
				"ctrl+r":      "redo",
				"i":           "toggle_mode",
				"insert":      "toggle_mode",
				"tab":         "switch_pane",
				":":           "enter_command",
				"/":           "enter_search",
				"n":           "search_next",
				"N":           "search_prev",
				"v":           "toggle_select",
				"shift+left":  "select_left",
				"shift+right": "select_right",
				"shift+up":    "select_up",
				"shift+down":  "select_down",
				"esc":         "clear_selection",
				"alt+left":    "move_selection_left",
				"alt+right":   "move_selection_right",
				"y":           "copy",
				"ctrl+s":      "save",
				"q":           "quit",
				"ctrl+q":      "quit",
				"ctrl+c":      "quit",
			},
			Ascii: map[string]string{
				"left":        "move_left",
				"down":        "move_down",
				"up":          "move_up",
				"right":       "move_right",
				"ctrl+left":   "jump_left",
				"ctrl+right":  "jump_right",
				"home":        "line_start",
				"end":         "line_end",
				"ctrl+home":   "file_start",
				"ctrl+end":    "file_end",
				"pgup":        "page_up",
				"pgdn":        "page_down",
				"ctrl+y":      "scroll_up",
				"ctrl+e":      "scroll_down",
				"del":         "delete_byte",
				"backspace":   "backspace",
				"ctrl+z":      "undo",
				"ctrl+r":      "redo",
				"insert":      "toggle_mode",
				"tab":         "switch_pane",
				"esc":         "switch_pane",
				"ctrl+n":      "search_next",
				"ctrl+p":      "search_prev",
				"ctrl+v":      "toggle_select",
				"shift+left":  "select_left",
				"shift+right": "select_right",
				"shift+up":    "select_up",
				"shift+down":  "select_down",
				"alt+left":    "move_selection_left",
				"alt+right":   "move_selection_right",
				"ctrl+o":      "copy",
				"ctrl+s":      "save",
				"ctrl+q":      "quit",
				"ctrl+c":      "quit",
			},
		},
	}
}

func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	md, err := toml.Decode(string(data), &userCfg)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	if userCfg.Editor.Debug {
		cfg.Editor.Debug = true
	}
	if userCfg.Editor.StartMode != "" {
		cfg.Editor.StartMode = userCfg.Editor.StartMode
	}
	if userCfg.Editor.StartPane != "" {
		cfg.Editor.StartPane = userCfg.Editor.StartPane
	}
	if userCfg.Editor.SearchTimeout != "" {
		cfg.Editor.SearchTimeout = userCfg.Editor.SearchTimeout
	}
	if md.IsDefined("editor", "restore-session") {
		cfg.Editor.RestoreSession = userCfg.Editor.RestoreSession
	}
	if md.IsDefined("editor", "watch-file") {
		cfg.Editor.WatchFile = userCfg.Editor.WatchFile
	}
	if userCfg.Editor.UppercaseHex {
		cfg.Editor.UppercaseHex = true
	}
	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
	}
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)
	for k, v := range userCfg.Keymap.Hex {
		cfg.Keymap.Hex[k] = v
	}
	for k, v := range userCfg.Keymap.Ascii {
		cfg.Keymap.Ascii[k] = v
	}

	return cfg, nil
}

func mergeTheme(dst *Theme, src Theme) {
	if src.Foreground != "" {
		dst.Foreground = src.Foreground
	}
	if src.Background != "" {
		dst.Background = src.Background
	}
	if src.AddressForeground != "" {
		dst.AddressForeground = src.AddressForeground
	}
	if src.StatuslineForeground != "" {
		dst.StatuslineForeground = src.StatuslineForeground
	}
	if src.StatuslineBackground != "" {
		dst.StatuslineBackground = src.StatuslineBackground
	}
	if src.CommandlineForeground != "" {
		dst.CommandlineForeground = src.CommandlineForeground
	}
	if src.CommandlineBackground != "" {
		dst.CommandlineBackground = src.CommandlineBackground
	}
	if src.CursorForeground != "" {
		dst.CursorForeground = src.CursorForeground
	}
	if src.CursorBackground != "" {
		dst.CursorBackground = src.CursorBackground
	}
	if src.SelectionForeground != "" {
		dst.SelectionForeground = src.SelectionForeground
	}
	if src.SelectionBackground != "" {
		dst.SelectionBackground = src.SelectionBackground
	}
	if src.SearchMatchForeground != "" {
		dst.SearchMatchForeground = src.SearchMatchForeground
	}
	if src.SearchMatchBackground != "" {
		dst.SearchMatchBackground = src.SearchMatchBackground
	}
	if src.ModifiedForeground != "" {
		dst.ModifiedForeground = src.ModifiedForeground
	}
	if src.InfoForeground != "" {
		dst.InfoForeground = src.InfoForeground
	}
	if src.WarningForeground != "" {
		dst.WarningForeground = src.WarningForeground
	}
	if src.ErrorForeground != "" {
		dst.ErrorForeground = src.ErrorForeground
	}
	if src.NullForeground != "" {
		dst.NullForeground = src.NullForeground
	}
	if src.WhitespaceForeground != "" {
		dst.WhitespaceForeground = src.WhitespaceForeground
	}
	if src.PrintableForeground != "" {
		dst.PrintableForeground = src.PrintableForeground
	}
	if src.ControlForeground != "" {
		dst.ControlForeground = src.ControlForeground
	}
	if src.NonASCIIForeground != "" {
		dst.NonASCIIForeground = src.NonASCIIForeground
	}
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

// LoadTheme reads theme/<name>.toml. The file may hold the keys at top
// level or under a [theme] table.
func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err == nil {
		return t, nil
	}
	var wrap struct {
		Theme Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err != nil {
		return Theme{}, fmt.Errorf("theme %s: %w", name, err)
	}
	return wrap.Theme, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("HEXED_CONFIG_HOME"); v != "" {
		return filepath.Join(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "hexed"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hexed"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

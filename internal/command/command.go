// Package command parses the command line typed after ':' or '/'.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kobzarvs/hexed/internal/search"
)

var ErrUnknown = errors.New("unknown command")

type Kind int

const (
	Quit Kind = iota
	ForceQuit
	Write
	WriteQuit
	Jump
	SearchASCII
	SearchHex
	SearchHexReverse
	SearchHexASCII
	ClearSearch
	ToggleMode
	UndoAll
)

var kindNames = [...]string{
	Quit:             "quit",
	ForceQuit:        "force-quit",
	Write:            "write",
	WriteQuit:        "write-quit",
	Jump:             "jump",
	SearchASCII:      "search-ascii",
	SearchHex:        "search-hex",
	SearchHexReverse: "search-hex-reverse",
	SearchHexASCII:   "search-hex-ascii",
	ClearSearch:      "clear-search",
	ToggleMode:       "toggle-mode",
	UndoAll:          "undo-all",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Command is a parsed command line. Address is set for Jump; Text holds the
// literal search text and Needle the decoded bytes for hex searches.
type Command struct {
	Kind    Kind
	Address uint64
	Text    string
	Needle  []byte
}

// IsSearch reports whether the command starts a new search.
func (c Command) IsSearch() bool {
	switch c.Kind {
	case SearchASCII, SearchHex, SearchHexReverse, SearchHexASCII:
		return true
	}
	return false
}

var (
	reQuit       = regexp.MustCompile(`^:\s*q\s*$`)
	reForceQuit  = regexp.MustCompile(`^:\s*q!\s*$`)
	reWrite      = regexp.MustCompile(`^:\s*w\s*$`)
	reWriteQuit  = regexp.MustCompile(`^:\s*(?:wq|x)\s*$`)
	reJump       = regexp.MustCompile(`^:\s*0[xX]([0-9a-fA-F]+)\s*$`)
	reHex        = regexp.MustCompile(`^:\s*x\s*/\s*((?:[0-9a-fA-F]{2})+)\s*$`)
	reHexReverse = regexp.MustCompile(`^:\s*xi\s*/\s*((?:[0-9a-fA-F]{2})+)\s*$`)
	reASCII      = regexp.MustCompile(`^:\s*s\s*/(.+)$`)
	reClear      = regexp.MustCompile(`^:?\s*/\s*$`)
	reSearch     = regexp.MustCompile(`^:?\s*/(.+)$`)
	reToggle     = regexp.MustCompile(`^:\s*i\s*$`)
	reUndoAll    = regexp.MustCompile(`^:\s*e!\s*$`)
)

// Parse turns a command line, including its leading ':' or '/', into a
// Command. Unrecognised input yields ErrUnknown.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case reQuit.MatchString(line):
		return Command{Kind: Quit}, nil
	case reForceQuit.MatchString(line):
		return Command{Kind: ForceQuit}, nil
	case reWrite.MatchString(line):
		return Command{Kind: Write}, nil
	case reWriteQuit.MatchString(line):
		return Command{Kind: WriteQuit}, nil
	case reToggle.MatchString(line):
		return Command{Kind: ToggleMode}, nil
	case reUndoAll.MatchString(line):
		return Command{Kind: UndoAll}, nil
	case reClear.MatchString(line):
		return Command{Kind: ClearSearch}, nil
	}

	if m := reJump.FindStringSubmatch(line); m != nil {
		addr, err := strconv.ParseUint(m[1], 16, 64)
		if err != nil {
			return Command{}, fmt.Errorf("bad address 0x%s: %w", m[1], err)
		}
		return Command{Kind: Jump, Address: addr}, nil
	}
	if m := reHexReverse.FindStringSubmatch(line); m != nil {
		return hexCommand(SearchHexReverse, m[1])
	}
	if m := reHex.FindStringSubmatch(line); m != nil {
		return hexCommand(SearchHex, m[1])
	}
	if m := reASCII.FindStringSubmatch(line); m != nil {
		return Command{Kind: SearchASCII, Text: m[1]}, nil
	}
	if m := reSearch.FindStringSubmatch(line); m != nil {
		text := m[1]
		if search.IsHex(text) {
			cmd, err := hexCommand(SearchHexASCII, text)
			cmd.Text = text
			return cmd, err
		}
		return Command{Kind: SearchASCII, Text: text}, nil
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknown, strings.TrimSpace(line))
}

func hexCommand(kind Kind, digits string) (Command, error) {
	needle, err := search.ParseHex(digits)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: kind, Needle: needle}, nil
}

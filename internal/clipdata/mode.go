package clipdata

import "fmt"

// Mode selects one of the two independent clipboard instances.
type Mode int

const (
	// Clipboard is the copy/paste clipboard.
	Clipboard Mode = iota
	// Selection is the X11 primary selection, pasted with a middle click.
	Selection
)

// Modes lists every valid Mode.
var Modes = []Mode{Clipboard, Selection}

func (m Mode) String() string {
	switch m {
	case Clipboard:
		return "clipboard"
	case Selection:
		return "selection"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name back into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "clipboard", "":
		return Clipboard, nil
	case "selection", "primary":
		return Selection, nil
	default:
		return 0, fmt.Errorf("unknown clipboard mode %q", s)
	}
}

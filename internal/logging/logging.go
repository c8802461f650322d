// Package logging configures the global slog logger for clipfs.
//
// Setup installs the handler as the slog default, which also routes the
// standard log package through it, so go-fuse request traces (--debug-fuse)
// land in the same stream as clipfs's own records.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a string to a Format, returning FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel converts a string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Options mirrors the --log-format, --log-level and --no-background flags.
type Options struct {
	Format string
	Level  string

	// Interactive makes an empty Level mean debug instead of info. A mount
	// run from a terminal wants to see every clipboard item.
	Interactive bool
}

func (o Options) level() slog.Level {
	if o.Level == "" && o.Interactive {
		return slog.LevelDebug
	}
	return ParseLevel(o.Level)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// NewHandler builds the handler for w: tinter when w is a terminal or the
// text format is forced, JSON otherwise. Colour is only used on terminals.
func NewHandler(w io.Writer, o Options) slog.Handler {
	format := ParseFormat(o.Format)
	tty := IsTTY(w)
	if format == FormatText || (format == FormatAuto && tty) {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      o.level(),
			TimeFormat: "15:04:05.000",
			NoColor:    !tty,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.level()})
}

// Setup installs a stderr handler as the slog default. Call once after
// flag/viper parsing.
func Setup(o Options) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, o)))
}

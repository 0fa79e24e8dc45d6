// The MIT License (MIT)
//
// Copyright (c) 2019 West Damron
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package logging provides the levelled trace logger used by the resolver and the inference
// engine. A nil *Logger is valid and logs nothing.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Level controls which messages a Logger writes.
type Level int

// Enumeration of the different log levels
const (
	LevelSilent  Level = iota // no output at all
	LevelError                // terminal resolution errors
	LevelWarn                 // errors and recovered anomalies (fallback instantiation)
	LevelVerbose              // errors, warnings, and one line per resolved call
	LevelTrace                // every phase, candidate, incorporation round and solver step
)

var levelNames = [...]string{
	LevelSilent:  "silent",
	LevelError:   "error",
	LevelWarn:    "warn",
	LevelVerbose: "verbose",
	LevelTrace:   "trace",
}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel returns the level with the given name. The empty name is LevelSilent.
func ParseLevel(name string) (Level, error) {
	if name == "" {
		return LevelSilent, nil
	}
	for l, n := range levelNames {
		if strings.EqualFold(n, name) {
			return Level(l), nil
		}
	}
	return LevelSilent, fmt.Errorf("Unknown log level %q", name)
}

var (
	ErrorStyle   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	WarnStyle    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	VerboseStyle = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	TraceStyle   = pterm.NewStyle(pterm.FgGray)
)

// Logger writes levelled messages to an io.Writer. Tags are colored only when the writer is
// a terminal.
//
// A Logger cannot be used concurrently.
type Logger struct {
	level Level
	out   io.Writer
	color bool
	// nesting depth of the current resolution, used for indentation
	depth int
}

// New creates a logger writing messages up to level to out.
func New(out io.Writer, level Level) *Logger {
	return &Logger{level: level, out: out, color: IsTerminal(out)}
}

// IsTerminal reports whether w is a terminal (or a Cygwin/MSYS pseudo-terminal).
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Level returns the most detailed level written by l.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelSilent
	}
	return l.level
}

// Enabled reports whether messages of the given level are written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level != LevelSilent && level <= l.level
}

// Enter increases the indentation of subsequent messages (for nested resolutions).
func (l *Logger) Enter() {
	if l != nil {
		l.depth++
	}
}

// Leave undoes Enter.
func (l *Logger) Leave() {
	if l != nil && l.depth > 0 {
		l.depth--
	}
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, ErrorStyle, "error", format, args)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(LevelWarn, WarnStyle, "warn", format, args)
}

func (l *Logger) Verbosef(format string, args ...interface{}) {
	l.logf(LevelVerbose, VerboseStyle, "info", format, args)
}

func (l *Logger) Tracef(format string, args ...interface{}) {
	l.logf(LevelTrace, TraceStyle, "trace", format, args)
}

func (l *Logger) logf(level Level, style *pterm.Style, tag, format string, args []interface{}) {
	if !l.Enabled(level) {
		return
	}
	var sb strings.Builder
	for i := 0; i < l.depth; i++ {
		sb.WriteString("  ")
	}
	if l.color {
		sb.WriteString(style.Sprint(tag))
	} else {
		sb.WriteByte('[')
		sb.WriteString(tag)
		sb.WriteByte(']')
	}
	sb.WriteByte(' ')
	fmt.Fprintf(&sb, format, args...)
	sb.WriteByte('\n')
	io.WriteString(l.out, sb.String())
}

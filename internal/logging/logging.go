// Package logging builds the leveled logger shared by the HTTP server and
// the background workers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

// New returns a gommon logger writing to w (stdout when nil) at the level
// named by level.  Unknown names fall back to INFO.
func New(prefix, level string, w io.Writer) *log.Logger {
	l := log.New(prefix)
	if w == nil {
		w = os.Stdout
	}
	l.SetOutput(w)
	l.SetLevel(ParseLevel(level))
	l.SetHeader(`${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`)
	return l
}

// ParseLevel maps "debug", "info", "warn", "error" and "off" to gommon levels.
func ParseLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// Package logging builds the file-backed loggers used across starcharts.
// Grounded on Vitadek-OwnWorld's utils.go:setupLogging — a log.Logger pair
// with distinct prefixes writing to files under a log directory — but
// constructed explicitly and injected rather than stashed in package
// globals (see Design Notes §9 on preferring DI over global state).
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Level is the configured verbosity floor; messages below it are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Loggers bundles the level-tagged loggers a component needs. Unlike the
// teacher's package-global InfoLog/ErrorLog, this is constructed once at
// bootstrap and threaded through the dispatcher and its components.
type Loggers struct {
	level  Level
	info   *log.Logger
	warn   *log.Logger
	error_ *log.Logger
	debug  *log.Logger
}

// New builds loggers writing to dir/server.log and dir/error.log, matching
// the teacher's two-file split. If dir is empty, everything writes to
// os.Stdout/os.Stderr instead (used by the CLI and by tests).
func New(dir string, level Level) (*Loggers, error) {
	var infoW, errW io.Writer = os.Stdout, os.Stderr
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: create dir: %w", err)
		}
		infoFile, err := os.OpenFile(filepath.Join(dir, "server.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open server.log: %w", err)
		}
		errFile, err := os.OpenFile(filepath.Join(dir, "error.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open error.log: %w", err)
		}
		infoW, errW = infoFile, errFile
	}
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Loggers{
		level:  level,
		debug:  log.New(infoW, "DEBUG: ", flags),
		info:   log.New(infoW, "INFO: ", flags),
		warn:   log.New(infoW, "WARN: ", flags),
		error_: log.New(errW, "ERROR: ", flags),
	}, nil
}

// NewDiscard builds loggers that drop everything; useful for unit tests
// that don't care about log output.
func NewDiscard() *Loggers {
	l := log.New(io.Discard, "", 0)
	return &Loggers{level: LevelError + 1, debug: l, info: l, warn: l, error_: l}
}

func (l *Loggers) Debugf(format string, args ...any) {
	if l.level <= LevelDebug {
		l.debug.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *Loggers) Infof(format string, args ...any) {
	if l.level <= LevelInfo {
		l.info.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *Loggers) Warnf(format string, args ...any) {
	if l.level <= LevelWarn {
		l.warn.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *Loggers) Errorf(format string, args ...any) {
	if l.level <= LevelError {
		l.error_.Output(2, fmt.Sprintf(format, args...))
	}
}

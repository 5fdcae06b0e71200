// Package logger provides the subsystem-tagged, rotating-file logging
// backend shared by the indexer and API processes.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jrick/logrotate/rotator"
)

// Level is a logging severity level.
type Level uint8

// Supported levels, ordered from most to least verbose.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelStrings = map[Level]string{
	LevelTrace:    "TRC",
	LevelDebug:    "DBG",
	LevelInfo:     "INF",
	LevelWarn:     "WRN",
	LevelError:    "ERR",
	LevelCritical: "CRT",
	LevelOff:      "OFF",
}

func levelFromString(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "critical":
		return LevelCritical, true
	case "off":
		return LevelOff, true
	}
	return LevelInfo, false
}

// Logger writes leveled, subsystem-tagged lines to the shared backend.
type Logger struct {
	tag   string
	level *uint32Level
}

type uint32Level struct {
	mu sync.RWMutex
	l  Level
}

func (u *uint32Level) get() Level {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.l
}

func (u *uint32Level) set(l Level) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.l = l
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level.get() {
		return
	}
	ts := time.Now().UTC().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] %s %s\n", ts, levelStrings[level], l.tag, msg)
	writeLine(level, line)
}

// Tracef logs at trace level.
func (l *Logger) Tracef(format string, args ...interface{}) { l.log(LevelTrace, format, args...) }

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// Criticalf logs at critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.log(LevelCritical, format, args...)
}

// SetLevel changes the logger's minimum emitted level.
func (l *Logger) SetLevel(level Level) { l.level.set(level) }

// Subsystem tags, one per package that logs. Mirrors the teacher's
// ADXR/AMGR/... convention but renamed to this service's components.
const (
	TagNode  = "NODE" // nodeclient
	TagPrep  = "PREP" // indexer preprocessor
	TagProc  = "PROC" // indexer processor / pipeline
	TagStore = "STOR" // store
	TagNtfy  = "NTFY" // notify listener/publisher
	TagGQL   = "GQL"  // graphql
	TagCnfg  = "CNFG" // config
)

var (
	mu         sync.Mutex
	subsystems = map[string]*Logger{}

	outW    io.Writer = os.Stdout
	fileW   io.Writer = io.Discard
	initted bool

	// Rotator is the active log file rotator, non-nil once InitLogRotator
	// has been called. It should be closed on shutdown.
	Rotator *rotator.Rotator
)

type multiWriter struct{}

func (multiWriter) Write(p []byte) (int, error) {
	outW.Write(p) //nolint:errcheck
	return fileW.Write(p)
}

func writeLine(_ Level, line string) {
	mw := multiWriter{}
	io.WriteString(mw, line) //nolint:errcheck
}

// InitLogRotator creates the rotating file backend at logFile. Must be
// called once during process startup before any Logger is used if file
// output is desired; otherwise loggers write to stdout only.
func InitLogRotator(logFile string) error {
	mu.Lock()
	defer mu.Unlock()
	if initted {
		return nil
	}
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	r, err := rotator.New(logFile, 10*1024*1024, false, 3)
	if err != nil {
		return fmt.Errorf("create file rotator: %w", err)
	}
	Rotator = r
	fileW = r
	initted = true
	return nil
}

// Get returns (creating if necessary) the Logger for the given subsystem
// tag, defaulting to info level.
func Get(tag string) *Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := subsystems[tag]; ok {
		return l
	}
	l := &Logger{tag: tag, level: &uint32Level{l: LevelInfo}}
	subsystems[tag] = l
	return l
}

// SetLevels sets every known subsystem's level, dynamically creating
// loggers for the well-known tags if they don't exist yet.
func SetLevels(level string) error {
	lvl, ok := levelFromString(level)
	if !ok {
		return fmt.Errorf("invalid log level %q", level)
	}
	for _, tag := range []string{TagNode, TagPrep, TagProc, TagStore, TagNtfy, TagGQL, TagCnfg} {
		Get(tag).SetLevel(lvl)
	}
	return nil
}

// SupportedSubsystems returns the sorted list of known subsystem tags.
func SupportedSubsystems() []string {
	mu.Lock()
	defer mu.Unlock()
	tags := make([]string, 0, len(subsystems))
	for t := range subsystems {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

package log

import (
	"fmt"
	"strings"
)

// Config declaratively describes a logger.
type Config struct {
	// Level is one of debug, info, warn, error, fatal. Empty means info.
	Level string
	// Format is "json" or "text". Empty means json.
	Format string
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// ApplyConfig builds a logger from cfg. Unknown values fall back to defaults
// with an error returned alongside a usable logger.
func ApplyConfig(cfg Config) (Logger, error) {
	level, lerr := ParseLevel(cfg.Level)

	var formatter Formatter
	var ferr error
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		formatter = &JSONFormatter{}
	case "text":
		formatter = &TextFormatter{}
	default:
		formatter = &JSONFormatter{}
		ferr = fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	l := NewLogger(WithLevel(level), WithFormatter(formatter), WithOutput(NewConsoleOutput()))
	if lerr != nil {
		return l, lerr
	}
	return l, ferr
}

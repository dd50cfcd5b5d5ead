// Package logging builds the CLI's zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/codewiresh/gsapi/internal/terminal"
)

// Environment variables read by FromEnv.
const (
	EnvLevel     = "GSAPI_LOG_LEVEL"
	EnvTimestamp = "GSAPI_LOG_TIMESTAMP"
	EnvNoColor   = "GSAPI_LOG_NOCOLOR"
)

// DefaultLevel applies when no level is configured.
const DefaultLevel = zerolog.WarnLevel

// Options controls logger construction.
type Options struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

// FromEnv reads Options from the environment. An empty or unknown level
// falls back to DefaultLevel and reports the parse error.
func FromEnv() (Options, error) {
	opts := Options{
		Level:     DefaultLevel,
		Timestamp: envBool(EnvTimestamp),
		NoColor:   envBool(EnvNoColor),
	}
	if v := os.Getenv(EnvLevel); v != "" {
		lvl, err := ParseLevel(v)
		if err != nil {
			return opts, err
		}
		opts.Level = lvl
	}
	return opts, nil
}

// ParseLevel accepts zerolog level names, case-insensitively.
func ParseLevel(s string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return DefaultLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// New returns a human-readable logger writing to w. Colour is disabled when
// requested or when w is not a terminal.
func New(w io.Writer, opts Options) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor || !terminal.IsTerminal(w),
	}
	if !opts.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(output).Level(opts.Level).With()
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

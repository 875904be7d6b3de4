// Package logging builds the zap logger handed to every gasync component.
//
// Two cores are tee'd together: a console core writing short human-readable
// lines to stderr, and a DailyCore appending markdown entries to one file per
// calendar day. Errors skip the console core; commands print them once
// themselves. The logger is constructed once per process and passed down
// explicitly; nothing in this package keeps global state.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunIDKey is the field name carrying the per-invocation correlation id.
const RunIDKey = "run"

// Options configures New.
type Options struct {
	// Level is the console threshold: debug, info or warn. Defaults to
	// warn. Error entries never reach the console.
	Level string
	// Dir is the daily log directory. Empty disables the markdown core.
	Dir string
	// FileLevel is the markdown threshold. Defaults to info.
	FileLevel string
	// Console receives console output. Defaults to os.Stderr.
	Console io.Writer
	// RunID correlates every entry of one invocation. Generated when empty.
	RunID string
}

// New builds the tee'd logger described by opts. The returned logger already
// carries the run id field.
func New(opts Options) (*zap.Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.NameKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	consoleLevel, err := parseLevel(opts.Level, zapcore.WarnLevel)
	if err != nil {
		return nil, err
	}
	fileLevel, err := parseLevel(opts.FileLevel, zapcore.InfoLevel)
	if err != nil {
		return nil, err
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(zapcore.AddSync(console)),
			zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= consoleLevel && l < zapcore.ErrorLevel
			}),
		),
	}
	if opts.Dir != "" {
		cores = append(cores, NewDailyCore(opts.Dir, fileLevel))
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return zap.New(zapcore.NewTee(cores...)).With(zap.String(RunIDKey, runID)), nil
}

// Nop returns a logger that discards everything. Tests and library callers
// without a configured logger use it.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// parseLevel decodes a level name, returning fallback when text is empty.
func parseLevel(text string, fallback zapcore.Level) (zapcore.Level, error) {
	if text == "" {
		return fallback, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return fallback, fmt.Errorf("invalid log level %q: %w", text, err)
	}
	return level, nil
}

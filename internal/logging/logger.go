package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Level overrides the default level ("debug", "info", "warn", "error").
	// Ignored when empty or invalid.
	Level string
	// JSON switches from the console encoder to JSON lines.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a zap logger that writes to stderr so stdout stays reserved for
// command output.
func New(opts Options) *zap.Logger {
	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	switch strings.ToLower(strings.TrimSpace(opts.Level)) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	return zap.New(core)
}

// Nop returns a logger that drops everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

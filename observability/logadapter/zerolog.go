package logadapter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Swind/go-avvio/core"
)

// ZerologLogger writes core log calls to a zerolog.Logger.
type ZerologLogger struct {
	l zerolog.Logger
}

var _ core.Logger = (*ZerologLogger)(nil)

// Zerolog wraps l.
func Zerolog(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

func (z *ZerologLogger) Debug(msg string, fields ...core.Field) { z.write(z.l.Debug(), msg, fields) }
func (z *ZerologLogger) Info(msg string, fields ...core.Field)  { z.write(z.l.Info(), msg, fields) }
func (z *ZerologLogger) Warn(msg string, fields ...core.Field)  { z.write(z.l.Warn(), msg, fields) }
func (z *ZerologLogger) Error(msg string, fields ...core.Field) { z.write(z.l.Error(), msg, fields) }

func (z *ZerologLogger) write(ev *zerolog.Event, msg string, fields []core.Field) {
	// nil when the level is disabled
	if ev == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case error:
			ev = ev.AnErr(f.Key, v)
		case string:
			ev = ev.Str(f.Key, v)
		case time.Duration:
			ev = ev.Dur(f.Key, v)
		default:
			ev = ev.Interface(f.Key, v)
		}
	}
	ev.Msg(msg)
}

// New builds a core.Logger writing to w. format is "zap" (JSON), "console"
// (zerolog console writer), "json" (zerolog JSON), "text" (core.DefaultLogger
// plain lines) or "none". level is one of
// debug, info, warn or error; empty means info.
func New(format, level string, w io.Writer) (core.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("logadapter: invalid level %q: %w", level, err)
	}
	if level == "" {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(format) {
	case "", "console":
		out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return Zerolog(zerolog.New(out).Level(lvl).With().Timestamp().Logger()), nil
	case "json":
		return Zerolog(zerolog.New(w).Level(lvl).With().Timestamp().Logger()), nil
	case "zap":
		zl, err := zapcore.ParseLevel(lvl.String())
		if err != nil {
			return nil, fmt.Errorf("logadapter: invalid level %q: %w", level, err)
		}
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		return Zap(zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zl))), nil
	case "text":
		return core.NewDefaultLogger(w, textLevel(lvl)), nil
	case "none":
		return core.NewNoOpLogger(), nil
	default:
		return nil, fmt.Errorf("logadapter: unknown format %q", format)
	}
}

func textLevel(lvl zerolog.Level) core.Level {
	switch {
	case lvl <= zerolog.DebugLevel:
		return core.LevelDebug
	case lvl == zerolog.InfoLevel:
		return core.LevelInfo
	case lvl == zerolog.WarnLevel:
		return core.LevelWarn
	default:
		return core.LevelError
	}
}

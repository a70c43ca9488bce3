package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonny/aegis-ratings/pkg/config"
)

// Logger is a structured logger wrapper around zerolog
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
}

// New creates a Logger from config, writing to stdout
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func New(cfg *config.Config) *Logger {
	var output io.Writer = os.Stdout
	if cfg.LogFormat == "console" || cfg.LogFormat == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	return &Logger{
		zlog: zerolog.New(output).With().
			Timestamp().
			Str("service", "aegis-ratings").
			Str("env", cfg.Env).
			Logger(),
	}
}

// NewWithWriter creates a JSON logger on an arbitrary writer.
// The level applies to this logger only.
func NewWithWriter(w io.Writer, level string) *Logger {
	return &Logger{
		zlog: zerolog.New(w).Level(parseLogLevel(level)).With().Timestamp().Logger(),
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// parseLogLevel converts string log level to zerolog.Level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs and exits
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.zlog.Fatal().Msgf(format, args...) }

// WithField returns a child logger carrying one more field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger carrying several fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a child logger carrying err
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// Zerolog returns the underlying zerolog.Logger
// 외부 패키지에서 zerolog 기능이 필요할 때 사용
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

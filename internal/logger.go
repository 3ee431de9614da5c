package internal

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logLevel = LogLevelInfo
	logger   = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().
		Timestamp().
		Logger().
		Level(zerologLevel(logLevel))
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logLevel = level
	logger = logger.Level(zerologLevel(level))
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output, mostly for tests.
func SetLogOutput(w io.Writer) {
	logger = newLogger(w)
}

// ParseLogLevel maps a config string onto a LogLevel; unknown values map to info.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarn
	case "debug", "trace":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Error().Msg(fmt.Sprintf(format, args...))
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logger.Warn().Msg(fmt.Sprintf(format, args...))
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Info().Msg(fmt.Sprintf(format, args...))
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.Debug().Msg(fmt.Sprintf(format, args...))
}

// LogSend records an outbound chat message.
func LogSend(message, sessionID string, isAudio bool) {
	kind := "text"
	if isAudio {
		kind = "audio"
	}
	logger.Info().
		Str("event", "send").
		Str("session_id", sessionID).
		Str("type", kind).
		Int("length", len(message)).
		Msg("sending message to webhook")
	logger.Debug().Str("event", "send").Str("message", message).Msg("payload")
}

// LogReceive records a decoded webhook reply.
func LogReceive(data interface{}) {
	logger.Info().
		Str("event", "receive").
		Interface("data", data).
		Msg("webhook replied")
}

// LogFailure records a failure that was absorbed by the delivery path.
func LogFailure(message string, err error) {
	ev := logger.Error().Str("event", "error").Err(err)
	if kind := KindOf(err); kind != KindUnknown {
		ev = ev.Stringer("kind", kind)
	}
	ev.Msg(message)
}

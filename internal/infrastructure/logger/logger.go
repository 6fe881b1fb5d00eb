package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	globalLogger zerolog.Logger
	initialized  bool
	mu           sync.Mutex
)

// Init configures the global zerolog logger. Unknown levels fall back to
// info and unknown formats to json, so a misconfigured environment still
// produces logs.
func Init(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	switch strings.ToLower(format) {
	case "console":
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	default:
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(lvl)

	mu.Lock()
	globalLogger = logger.Level(lvl)
	initialized = true
	mu.Unlock()

	log.Logger = globalLogger
}

// GetLogger returns the global logger instance
func GetLogger() zerolog.Logger {
	mu.Lock()
	ready := initialized
	mu.Unlock()

	if !ready {
		Init("info", "json")
	}
	return globalLogger
}

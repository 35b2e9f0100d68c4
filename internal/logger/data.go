package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// Logger provides structured logging with levels

type Logger struct {
	MinLevel LogLevel
	mu       sync.Mutex
	zl       *zerolog.Logger
}

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config selects where and how log lines are written.
type Config struct {
	Level  string
	Format string // "console" or "json"
	Color  bool   // ANSI colors in console format
}

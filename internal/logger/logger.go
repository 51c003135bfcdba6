// Package logger provides structured logging using Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.Mutex
	sugar *zap.SugaredLogger
)

// Init initializes the global logger for the given environment.
// "production" uses a JSON encoder, "test" discards output, and every other
// value uses a human-readable console encoder. Only the first call wins.
func Init(env string) {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		return
	}

	var base *zap.Logger
	var err error
	switch env {
	case "production":
		base, err = zap.NewProduction()
	case "test":
		base = zap.NewNop()
	default:
		base, err = zap.NewDevelopment()
	}
	if err != nil {
		// Fallback to nop logger if initialization fails.
		base = zap.NewNop()
	}

	sugar = base.Sugar()
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	mu.Lock()
	s := sugar
	mu.Unlock()
	if s == nil {
		Init("development")
		mu.Lock()
		s = sugar
		mu.Unlock()
	}
	return s
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		_ = sugar.Sync()
	}
}

// Package logger provides structured logging with zap.
package logger

import "go.uber.org/zap"

// New creates a zap.Logger for the runtime environment: JSON output at info
// level in production, human-readable output with debug enabled otherwise.
func New(env string) *zap.Logger {
	if env == "production" {
		log, _ := zap.NewProduction()
		return log
	}
	log, _ := zap.NewDevelopment()
	return log
}

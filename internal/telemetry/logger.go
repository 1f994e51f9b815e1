// Package telemetry builds the service logger and Prometheus metrics.
package telemetry

import "go.uber.org/zap"

// NewLogger returns a JSON production logger for env "production" and a
// human-readable development logger otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewQuietLogger returns a production logger that only emits warnings and
// errors, for interactive commands sharing the terminal with the player.
func NewQuietLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

package config

import "go.uber.org/zap"

// NewLogger returns a human-readable development logger for APP_ENV=dev
// and a JSON production logger otherwise.
func NewLogger(cfg Config) (*zap.Logger, error) {
	if cfg.Dev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

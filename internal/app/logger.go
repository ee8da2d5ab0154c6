package app

import (
	"strings"

	"github.com/hamzarao/carsaaz/pkg/logger"
)

const defaultLogLevel = "info"

// ConfigureLogging initialises the global logger from the configured level.
func ConfigureLogging(level string) error {
	if level = strings.TrimSpace(level); level == "" {
		level = defaultLogLevel
	}
	return logger.Init(level)
}

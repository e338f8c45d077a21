package main

import (
	"os"

	"github.com/matsen/refmerge/internal/config"
	"github.com/sirupsen/logrus"
)

// newLogger builds the server logger from config. Logs go to stderr so
// stdout stays reserved for command output.
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

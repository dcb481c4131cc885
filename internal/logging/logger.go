package logging

import (
	"os"
	"strings"

	"github.com/k-code-yt/paystack-payments/internal/config"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. debug forces the debug level and caller reporting.
func New(cfg config.LogConfig, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	if debug {
		level = logrus.DebugLevel
		logger.SetReportCaller(true)
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

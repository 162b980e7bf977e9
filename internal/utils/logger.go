package utils

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// NewLogger returns the diagnostics logger. Results never go through it;
// it only carries skipped-probe details, config notes and failures.
func NewLogger(w io.Writer, debug bool, noColor bool) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{
		DisableColors:   noColor,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	logger.SetLevel(log.InfoLevel)
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

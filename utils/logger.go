package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// InitLogger sends info to stdout and errors to stderr. LOG_FORMAT=json
// switches both to JSON lines and LOG_LEVEL raises or lowers the info
// logger's threshold. It runs before config.Load, so it reads the
// environment directly.
func InitLogger() {
	InfoLogger = newLogger(os.Stdout, os.Getenv("LOG_FORMAT"))
	ErrorLogger = newLogger(os.Stderr, os.Getenv("LOG_FORMAT"))

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	InfoLogger.SetLevel(level)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}

func newLogger(out io.Writer, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// SilenceLogger discards all output; tests call it to keep runs quiet.
func SilenceLogger() {
	InfoLogger.SetOutput(io.Discard)
	ErrorLogger.SetOutput(io.Discard)
}

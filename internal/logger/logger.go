package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. JSON output in production, text when
// APP_ENV is dev; level from LOG_LEVEL.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if os.Getenv("APP_ENV") == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

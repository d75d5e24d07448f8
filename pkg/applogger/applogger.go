package applogger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logrusOnce sync.Once
	logrusLog  *logrus.Logger
)

// GetLogrus returns the shared application logger, configured once with a
// JSON formatter writing to stdout.
func GetLogrus() *logrus.Logger {
	logrusOnce.Do(func() {
		logrusLog = logrus.New()
		logrusLog.SetOutput(os.Stdout)
		logrusLog.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		logrusLog.SetReportCaller(true)

		if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
			logrusLog.SetLevel(level)
		}
	})

	return logrusLog
}

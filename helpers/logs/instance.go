package logs

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	instance *logrus.Logger
	once     sync.Once
)

// GetLogger returns a singleton instance of logrus.Logger
func GetLogger() *logrus.Logger {
	once.Do(func() {
		instance = logrus.New()
		level := logrus.InfoLevel
		if parsed, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
			level = parsed
		}
		instance.SetLevel(level)
		instance.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	})
	return instance
}

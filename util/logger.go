package util

import (
	"os"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/zjx20/gemini-relay/config"
)

var loggerOnce sync.Once

// InitLogger configures the standard logrus logger and keeps its level in
// sync with the config.
func InitLogger() {
	loggerOnce.Do(func() {
		log.SetLevel(config.GetLogLevel())
		log.SetOutput(os.Stdout)
		log.SetFormatter(&log.TextFormatter{
			DisableColors:   runtime.GOOS == "windows",
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		config.AddConfigChangeCallback(func() {
			log.SetLevel(config.GetLogLevel())
		})
	})
}

package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the shared structured logger. It is usable before Init so library
// code and tests never trip over a nil logger.
var Log = logrus.New()

// Init configures the shared logger for the given environment.
func Init(environment string) {
	Log.Out = os.Stdout
	Log.SetFormatter(&logrus.JSONFormatter{})

	if environment == "dev" {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}

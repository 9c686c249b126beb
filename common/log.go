package common

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the package-wide structured logger, used instead of fmt.Printf.
// Two events get a line: the disk manager's file opens (debug level) and
// the catalog's database opens (info level). The buffer pool, replacer and
// record manager do not log, so cache hits, misses and evictions are
// silent.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}

// Component returns a logger scoped to one storage-core component, e.g.
// common.Component("buffer").WithField("page_id", id).Debug("miss")
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// SetLevel lets callers (mainly tests) turn up verbosity.
func SetLevel(level logrus.Level) {
	Log.SetLevel(level)
}

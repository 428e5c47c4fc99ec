// logging.go wires the scheduler core's diagnostics through logiface, the
// structured-logging facade eventloop and its sibling packages
// standardize on, backed by stumpy (logiface's own JSON writer).
//
// Design Decision: a single package-level logger, set once via SetLogger,
// is appropriate because every ThreadPool/Processor in a process shares one
// diagnostic stream — this mirrors eventloop's package-level
// SetStructuredLogger, just against logiface's Logger instead of a
// hand-rolled Logger interface.
package kernel

import (
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/logiface-stumpy"
)

var globalLogger struct {
	sync.RWMutex
	logger *logiface.Logger[logiface.Event]
}

func init() {
	SetLogger(defaultLogger())
}

// defaultLogger builds the out-of-the-box logger: stumpy writing JSON lines
// to stderr at Informational level, matching eventloop's NewDefaultLogger
// default of stdout/Info but aimed at stderr (diagnostics, not program
// output) as is conventional for logiface-based services.
func defaultLogger() *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(logiface.LevelInformational),
	).Logger()
}

// SetLogger replaces the package-level logger. A ThreadPool copies the
// package-level logger when it is created (unless given one via
// WithLogger), so pools created earlier keep their old logger; the
// diagnostics in processor.go and futex.go read the current one on each
// call. Passing nil restores the default.
func SetLogger(l *logiface.Logger[logiface.Event]) {
	if l == nil {
		l = defaultLogger()
	}
	globalLogger.Lock()
	globalLogger.logger = l
	globalLogger.Unlock()
}

func currentLogger() *logiface.Logger[logiface.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

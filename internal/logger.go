// Logging for the library and the CLI.
//
// The library proper logs only at debug level: the counts are meant to be
// queried from arbitrary native code and failures are absorbed silently.

package numcpus_internal

import (
	"github.com/bgp59/logrusx"
	"github.com/sirupsen/logrus"
)

var RootLogger = logrusx.NewCollectableLogger()

// Public access to the root logger, needed for testing:
func GetRootLogger() *logrusx.CollectableLogger { return RootLogger }

func init() {
	// The module root is 1 dir up from here.
	RootLogger.AddCallerSrcPathPrefix(1)
}

// Set the logger based on config:
func SetLogger(logCfg *logrusx.LoggerConfig) error {
	return RootLogger.SetLogger(logCfg)
}

func NewCompLogger(compName string) *logrus.Entry {
	return RootLogger.NewCompLogger(compName)
}

// Package logutil carries the one small logging convention every role
// shares: a toggleable debug sink layered on top of go-kit's Logger,
// mirroring the teacher's server.DebugLog.
package logutil

import "github.com/go-kit/kit/log"

// DebugLogFunc matches log.Logger's variadic Log signature so DebugLog can
// be swapped for a real sink (e.g. from a -debug flag) without touching
// every call site.
type DebugLogFunc func(log.Logger, ...interface{})

// DebugLog is a no-op by default; set it to a function that calls
// logger.Log(keyvals...) to enable debug-level output.
var DebugLog = DebugLogFunc(func(log.Logger, ...interface{}) {})

// EnableDebug turns DebugLog into an active logger call.
func EnableDebug() {
	DebugLog = func(logger log.Logger, keyvals ...interface{}) {
		logger.Log(keyvals...)
	}
}

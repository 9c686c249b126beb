package common

import (
	"fmt"

	"github.com/devlights/gomy/output"
)

// Assert panics with msg if condition is false. Used at invariant
// boundaries (e.g. the record manager's page-numbering and free-list
// checks) where a violation means a bug in the storage core itself, not a
// caller error to be returned.
func Assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}

// Assertf is Assert with a formatted message.
func Assertf(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf(format, args...))
	}
}

// Dump prints a labeled diagnostic line to stdout. Used by the buffer
// pool's DumpState debug helper; never on a hot path.
func Dump(label string, v interface{}) {
	output.Stdoutl(label, fmt.Sprintf("%+v", v))
}

package utils

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang-headline-signal/pkg/logger"
)

// GoSafe runs fn in a new goroutine and recovers from panics so a single bad
// job cannot take the process down.
func GoSafe(log *logger.Logger, fn func()) {
	go RunSafe(log, fn)
}

// RunSafe runs fn on the calling goroutine. A panic is logged and swallowed
// and RunSafe reports false.
func RunSafe(log *logger.Logger, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if log != nil {
				log.Error("Recovered from panic",
					logger.StringField("panic", fmt.Sprint(r)),
					logger.StringField("stack", string(debug.Stack())),
				)
			}
		}
	}()
	fn()
	return true
}

// ShouldContinue reports whether ctx is still live, logging the reason when
// it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Warn("Context done, stopping", logger.StringField("reason", fmt.Sprint(ctx.Err())))
		return false
	default:
		return true
	}
}

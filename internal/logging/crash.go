package logging

import (
	"context"
	"runtime"
	"runtime/debug"
)

// LogPanic logs a panic with its stack trace and re-panics. Call it with
// defer at the top of main and of long-lived goroutines.
func LogPanic(ctx context.Context) {
	r := recover()
	if r == nil {
		return
	}
	FromContext(ctx).Error().
		Interface("panic", r).
		Str("go_version", runtime.Version()).
		Str("os", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Int("goroutines", runtime.NumGoroutine()).
		Str("stack", string(debug.Stack())).
		Msg("PANIC")
	panic(r)
}

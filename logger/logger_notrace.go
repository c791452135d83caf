//go:build !debug_trace
// +build !debug_trace

// logger_notrace.go turns the hot-path trace logging into no-ops unless built with debug_trace.

package logger

import (
	"context"
)

// Tracef is a no-op without the debug_trace build tag: Submit and the
// input source log on every access unit.
func Tracef(ctx context.Context, format string, args ...any) {}

//go:build debug_trace
// +build debug_trace

// logger_trace.go enables the per-access-unit trace logging.

package logger

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Tracef logs at the trace level; Submit, GetPicture and the input source
// call it on every access unit.
func Tracef(ctx context.Context, format string, args ...any) {
	logger.Tracef(ctx, format, args...)
}

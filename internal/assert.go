// Package internal contains helpers shared by the packages of this module.
package internal

import (
	"context"

	"github.com/xaionaro-go/hwvideodecoder/logger"
)

// Assert panics (through the logger, so the message reaches the log sink
// first) if mustBeTrue is false.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panic(ctx, "assertion failed", extraArgs)
}

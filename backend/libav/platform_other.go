//go:build !android
// +build !android

package libav

import (
	"context"

	"github.com/xaionaro-go/hwvideodecoder/logger"
)

func platformSpecificHWSanityChecks(ctx context.Context, mimeType string) {
	logger.Tracef(ctx, "platformSpecificHWSanityChecks(ctx, '%s')", mimeType)
}

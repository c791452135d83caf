//go:build android
// +build android

package libav

import (
	"context"
	"encoding/json"

	"github.com/xaionaro-go/androidetc"
	"github.com/xaionaro-go/hwvideodecoder/logger"
	"github.com/xaionaro-go/xsync"
)

var (
	mediaCodecsInfoLocker xsync.Mutex
	mediaCodecsInfo       androidetc.MediaCodecsDescriptors
)

// platformSpecificHWSanityChecks warns if the device does not declare any
// hardware decoder for the MIME type.
func platformSpecificHWSanityChecks(ctx context.Context, mimeType string) {
	logger.Tracef(ctx, "platformSpecificHWSanityChecks")
	defer func() { logger.Tracef(ctx, "/platformSpecificHWSanityChecks") }()

	mediaCodecsInfoLocker.Do(ctx, func() {
		if mediaCodecsInfo == nil {
			var err error
			mediaCodecsInfo, err = androidetc.ParseMediaCodecs()
			if err != nil {
				logger.Warnf(ctx, "failed to parse media codecs info: %v", err)
				return
			}
		}

		for _, codecInfo := range mediaCodecsInfo {
			for _, codec := range codecInfo.Decoders {
				if !codec.IsHardware() || !supportsType(codec, mimeType) {
					continue
				}
				b, _ := json.Marshal(codec)
				logger.Tracef(ctx, "found fitting hardware decoder: %s", string(b))
				return
			}
		}

		logger.Warnf(ctx, "no fitting hardware decoder found for '%s'", mimeType)
	})
}

func supportsType(codec androidetc.MediaCodec, mimeType string) bool {
	if codec.Type == mimeType {
		return true
	}
	for _, typ := range codec.Types {
		if typ.Name == mimeType {
			return true
		}
	}
	return false
}

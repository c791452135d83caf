//go:build mediacodec
// +build mediacodec

package libav

import (
	"context"
	"fmt"
	"strings"

	xastiav "github.com/xaionaro-go/avcommon/astiav"
	"github.com/xaionaro-go/avmediacodec"
	"github.com/xaionaro-go/hwvideodecoder/logger"
	"github.com/xaionaro-go/xsync"
)

func (d *decoder) setLowLatency(
	ctx context.Context,
	v bool,
) error {
	if !strings.HasSuffix(d.codec.Name(), "_mediacodec") {
		return fmt.Errorf("'%s' is not a MediaCodec decoder", d.codec.Name())
	}
	logger.Infof(ctx, "SetLowLatency (MediaCodec): %v", v)
	i := int32(0)
	if v {
		i = 1
	}
	return xsync.DoR1(ctx, &d.locker, func() error {
		return d.mediaCodecFormatSetInt32(ctx, "low-latency", i)
	})
}

func (d *decoder) mediaCodecFormatSetInt32(
	ctx context.Context,
	key string,
	value int32,
) error {
	mediaCodec := avmediacodec.WrapAVCodecContext(
		xastiav.CFromAVCodecContext(d.codecContext),
	).PrivData().Codec()

	mediaCodecFmt := mediaCodec.Format()
	mediaCodecFmt.SetInt32(key, value)
	result, err := mediaCodecFmt.GetInt32(key)
	if err != nil {
		return fmt.Errorf("unable to get the current value of '%s': %w", key, err)
	}
	logger.Tracef(ctx, "resulting value: %d", result)
	if result != value {
		return fmt.Errorf("verification failed: requested value is %d, but the resulting value is %d", value, result)
	}
	if err := mediaCodec.SetParametersNDK(mediaCodecFmt); err != nil {
		return fmt.Errorf("unable to SetParameters: %w", err)
	}
	return nil
}

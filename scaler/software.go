package scaler

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/hwvideodecoder/helpers/closuresignaler"
	"github.com/xaionaro-go/hwvideodecoder/logger"
)

type Software struct {
	*astiav.SoftwareScaleContext
	*closuresignaler.ClosureSignaler
}

var _ Scaler = (*Software)(nil)

func NewSoftware(
	ctx context.Context,
	srcWidth, srcHeight int,
	srcPixFmt astiav.PixelFormat,
	dstWidth, dstHeight int,
	dstPixFmt astiav.PixelFormat,
	opts ...astiav.SoftwareScaleContextFlag,
) (*Software, error) {
	logger.Debugf(ctx, "NewSoftware: %dx%d:%s -> %dx%d:%s", srcWidth, srcHeight, srcPixFmt, dstWidth, dstHeight, dstPixFmt)
	swSCtx, err := astiav.CreateSoftwareScaleContext(
		srcWidth,
		srcHeight,
		srcPixFmt,
		dstWidth,
		dstHeight,
		dstPixFmt,
		astiav.NewSoftwareScaleContextFlags(opts...),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create a software scale context: %w", err)
	}
	return &Software{
		SoftwareScaleContext: swSCtx,
		ClosureSignaler:      closuresignaler.New(),
	}, nil
}

func (s *Software) String() string {
	return fmt.Sprintf(
		"SoftwareScaler(%dx%d:%s -> %dx%d:%s)",
		s.SoftwareScaleContext.SourceWidth(),
		s.SoftwareScaleContext.SourceHeight(),
		s.SoftwareScaleContext.SourcePixelFormat(),
		s.SoftwareScaleContext.DestinationWidth(),
		s.SoftwareScaleContext.DestinationHeight(),
		s.SoftwareScaleContext.DestinationPixelFormat(),
	)
}

func (s *Software) Close(ctx context.Context) error {
	logger.Tracef(ctx, "Close")
	defer logger.Tracef(ctx, "/Close")
	if s.ClosureSignaler.Close(ctx) {
		s.SoftwareScaleContext.Free()
	}
	return nil
}

func (s *Software) ScaleFrame(
	ctx context.Context,
	src *astiav.Frame,
	dst *astiav.Frame,
) (_err error) {
	logger.Tracef(ctx, "ScaleFrame")
	defer func() { logger.Tracef(ctx, "/ScaleFrame: %v", _err) }()
	if s.IsClosed() {
		return fmt.Errorf("scaler is closed")
	}
	if err := s.SoftwareScaleContext.ScaleFrame(src, dst); err != nil {
		return fmt.Errorf("unable to scale a frame: %w", err)
	}
	return nil
}

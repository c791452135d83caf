package libav

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/hwvideodecoder/logger"
	"go.uber.org/atomic"
)

type client struct {
	backend   *Backend
	connected atomic.Bool
}

var _ hwcodec.Client = (*client)(nil)

func (c *client) Connect(ctx context.Context) error {
	if !c.connected.CompareAndSwap(false, true) {
		return fmt.Errorf("already connected")
	}
	return nil
}

func (c *client) Disconnect(ctx context.Context) error {
	if !c.connected.CompareAndSwap(true, false) {
		return fmt.Errorf("not connected")
	}
	return nil
}

func (c *client) CreateDecoder(
	ctx context.Context,
	format hwcodec.Format,
	source hwcodec.Source,
	flags hwcodec.CreateFlags,
) (_ret hwcodec.Decoder, _err error) {
	logger.Tracef(ctx, "CreateDecoder(ctx, %s, %s)", format, flags)
	defer func() { logger.Tracef(ctx, "/CreateDecoder(ctx, %s, %s): %v", format, flags, _err) }()
	if !c.connected.Load() {
		return nil, fmt.Errorf("not connected")
	}
	return newDecoder(ctx, c.backend.Config, format, source, flags)
}

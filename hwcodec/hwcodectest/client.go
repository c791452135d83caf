package hwcodectest

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"go.uber.org/atomic"
)

type Client struct {
	Backend *Backend

	ConnectCalls    atomic.Int64
	DisconnectCalls atomic.Int64
	Connected       atomic.Bool
}

var _ hwcodec.Client = (*Client)(nil)

func (c *Client) Connect(ctx context.Context) error {
	c.ConnectCalls.Inc()
	if err := c.Backend.Config.ConnectError; err != nil {
		return err
	}
	c.Connected.Store(true)
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.DisconnectCalls.Inc()
	if !c.Connected.CompareAndSwap(true, false) {
		return fmt.Errorf("not connected")
	}
	return nil
}

func (c *Client) CreateDecoder(
	ctx context.Context,
	format hwcodec.Format,
	source hwcodec.Source,
	flags hwcodec.CreateFlags,
) (hwcodec.Decoder, error) {
	if !c.Connected.Load() {
		return nil, fmt.Errorf("the client is not connected")
	}
	cfg := c.Backend.Config
	if cfg.CreateError != nil {
		return nil, cfg.CreateError
	}

	outFormat := format
	outFormat.CodecSpecificData = nil
	outFormat.DecoderComponent = cfg.DecoderComponent
	outFormat.ColorFormat = cfg.ColorFormat
	if outFormat.ColorFormat == hwcodec.ColorFormatUnknown {
		outFormat.ColorFormat = hwcodec.ColorFormatYUV420Planar
	}
	if cfg.OutputWidth != 0 {
		outFormat.Width = cfg.OutputWidth
	}
	if cfg.OutputHeight != 0 {
		outFormat.Height = cfg.OutputHeight
	}

	d := &Decoder{
		Client:      c,
		InputFormat: format,
		Source:      source,
		Flags:       flags,
		Pool:        buffer.NewPool(0),
		format:      outFormat,
	}
	c.Backend.addDecoder(d)
	return d, nil
}

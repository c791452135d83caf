package hwvideodecoder

import (
	"context"
	"time"

	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"github.com/xaionaro-go/hwvideodecoder/frame"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/hwvideodecoder/logger"
)

// inputSource feeds the decoder from the session's input queue.
type inputSource struct {
	format      hwcodec.Format
	queue       *frame.Queue
	readTimeout time.Duration
}

var _ hwcodec.Source = (*inputSource)(nil)

func newInputSource(
	format hwcodec.Format,
	queue *frame.Queue,
	readTimeout time.Duration,
) *inputSource {
	return &inputSource{
		format:      format,
		queue:       queue,
		readTimeout: readTimeout,
	}
}

func (src *inputSource) Format() hwcodec.Format {
	return src.format
}

func (src *inputSource) Start(ctx context.Context) error {
	logger.Debugf(ctx, "input source started")
	return nil
}

func (src *inputSource) Stop(ctx context.Context) error {
	logger.Debugf(ctx, "input source stopped")
	return nil
}

// Read returns the next queued input buffer, or StatusEndOfStream if
// nothing was submitted (within the read timeout, if any). The returned
// buffer is a reference owned by the caller.
func (src *inputSource) Read(
	ctx context.Context,
) (_ret *buffer.Buffer, _status hwcodec.Status) {
	logger.Tracef(ctx, "Read")
	defer func() { logger.Tracef(ctx, "/Read: %s %s", _ret, _status) }()

	rec := src.queue.PopWait(ctx, src.readTimeout)
	if rec == nil {
		return nil, hwcodec.StatusEndOfStream
	}

	status := rec.Status
	var out *buffer.Buffer
	if rec.Buffer != nil && status == hwcodec.StatusOK {
		out = rec.Buffer.Clone()
	}
	rec.Release()
	return out, status
}

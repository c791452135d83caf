// Package hwvideodecoder adapts a hardware video decoder (a pull-based
// decoder reading encoded buffers from a Source) to a push-based player
// codec: encoded packets are submitted one by one and decoded pictures
// are retrieved when available.
package hwvideodecoder

import (
	"context"
	"fmt"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/google/uuid"
	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"github.com/xaionaro-go/hwvideodecoder/codec"
	"github.com/xaionaro-go/hwvideodecoder/extradata"
	"github.com/xaionaro-go/hwvideodecoder/frame"
	"github.com/xaionaro-go/hwvideodecoder/helpers/closuresignaler"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/hwvideodecoder/logger"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// StreamHints describes the stream to be decoded.
type StreamHints struct {
	CodecID   astiav.CodecID
	Width     int
	Height    int
	ExtraData []byte
}

func (h StreamHints) String() string {
	return fmt.Sprintf("%s %dx%d extradata:%d bytes", h.CodecID, h.Width, h.Height, len(h.ExtraData))
}

// Session is an open hardware decode session. It is safe for concurrent
// use, but the intended usage is a single player goroutine calling
// Submit/GetPicture/ClearPicture in a loop.
type Session struct {
	ID          string
	Config      Config
	Backend     hwcodec.Backend
	InputFormat hwcodec.Format

	locker     xsync.Mutex
	closer     *astikit.Closer
	closed     *closuresignaler.ClosureSignaler
	inputPool  *buffer.Pool
	inputQueue *frame.Queue
	source     *inputSource
	client     hwcodec.Client
	decoder    hwcodec.Decoder
	component  string
	quirks     codec.Quirks
	dropState  atomic.Bool

	// current is decoded and waits for GetPicture; previous was handed
	// out by GetPicture and waits for ClearPicture.
	current  *frame.Record
	previous *frame.Record

	stats statisticsCounters
}

// Open starts a hardware decode session for the stream. On failure
// everything acquired so far is released before returning.
func Open(
	ctx context.Context,
	backend hwcodec.Backend,
	hints StreamHints,
	opts ...Option,
) (_ret *Session, _err error) {
	logger.Tracef(ctx, "Open(ctx, %s, %s)", backend, hints)
	defer func() { logger.Tracef(ctx, "/Open(ctx, %s, %s): %v", backend, hints, _err) }()

	if hints.Width <= 0 || hints.Height <= 0 {
		return nil, ErrInvalidInput{Reason: fmt.Sprintf("invalid dimensions %dx%d", hints.Width, hints.Height)}
	}
	mimeType, ok := codec.AndroidMIMEType(hints.CodecID)
	if !ok {
		return nil, ErrUnsupportedCodec{CodecID: hints.CodecID}
	}

	cfg := Options(opts).Config()
	if err := cfg.validate(); err != nil {
		return nil, ErrInvalidInput{Reason: err.Error()}
	}

	s := &Session{
		ID:      uuid.NewString(),
		Config:  cfg,
		Backend: backend,
		InputFormat: hwcodec.Format{
			MIMEType:          mimeType,
			Width:             hints.Width,
			Height:            hints.Height,
			CodecSpecificData: append([]byte(nil), hints.ExtraData...),
		},
		closer:     astikit.NewCloser(),
		closed:     closuresignaler.New(),
		inputPool:  buffer.NewPool(cfg.MaxInputBytes),
		inputQueue: frame.NewQueue(),
	}
	ctx = belt.WithField(ctx, "session_id", s.ID)
	ctx = belt.WithField(ctx, "mime_type", mimeType)
	if len(hints.ExtraData) > 0 {
		logger.Debugf(ctx, "codec specific data: %s", extradata.Raw(hints.ExtraData))
	}
	defer func() {
		if _err != nil {
			s.releaseResources(ctx)
		}
	}()

	if err := backend.StartThreadPool(ctx); err != nil {
		return nil, ErrConnection{Err: fmt.Errorf("unable to start the thread pool of %s: %w", backend, err)}
	}

	s.source = newInputSource(s.InputFormat, s.inputQueue, cfg.InputReadTimeout)

	client, err := backend.NewClient(ctx)
	if err != nil {
		return nil, ErrConnection{Err: fmt.Errorf("unable to initialize a client: %w", err)}
	}
	if err := client.Connect(ctx); err != nil {
		return nil, ErrConnection{Err: err}
	}
	s.client = client
	s.closer.Add(func() {
		if err := client.Disconnect(ctx); err != nil {
			logger.Errorf(ctx, "unable to disconnect: %v", err)
		}
	})
	s.closer.Add(func() {
		s.drain(ctx)
	})

	flags := hwcodec.CreateFlagClientNeedsFramebuffer
	if !cfg.AllowSoftwareDecoders {
		flags |= hwcodec.CreateFlagHardwareCodecsOnly
	}
	decoder, err := client.CreateDecoder(ctx, s.InputFormat, s.source, flags)
	if err != nil {
		return nil, ErrDecoderStart{Err: fmt.Errorf("unable to create a decoder for %s: %w", s.InputFormat, err)}
	}
	s.closer.Add(func() {
		if err := decoder.Stop(ctx); err != nil {
			logger.Errorf(ctx, "unable to stop the decoder: %v", err)
		}
	})
	if err := decoder.Start(ctx); err != nil {
		return nil, ErrDecoderStart{Err: err}
	}
	s.decoder = decoder

	outFormat := decoder.Format()
	logger.Debugf(ctx, "output format: %s", spew.Sdump(outFormat))
	if outFormat.ColorFormat != hwcodec.ColorFormatYUV420Planar {
		return nil, ErrUnsupportedColorFormat{ColorFormat: outFormat.ColorFormat}
	}

	s.component = outFormat.DecoderComponent
	if !cfg.DisableQuirks {
		s.quirks = codec.QuirksForDecoderComponent(s.component)
	}
	logger.Infof(ctx, "opened a decoder '%s' for %s (quirks: '%s')", s.component, s.InputFormat, s.quirks)
	return s, nil
}

func (s *Session) String() string {
	return fmt.Sprintf("Session(%s)", s.ID)
}

// DecoderComponent returns the name of the decoder implementation chosen
// by the hardware codec service.
func (s *Session) DecoderComponent() string {
	return s.component
}

func (s *Session) Quirks() codec.Quirks {
	return s.quirks
}

func (s *Session) ctx(ctx context.Context) context.Context {
	return belt.WithField(ctx, "session_id", s.ID)
}

// Close stops the decoder, releases every buffer still held by the session
// and disconnects from the service. It is safe to call it multiple times.
func (s *Session) Close(ctx context.Context) (_err error) {
	ctx = s.ctx(xcontext.DetachDone(ctx))
	logger.Tracef(ctx, "Close")
	defer func() { logger.Tracef(ctx, "/Close: %v", _err) }()

	if !s.closed.Close(ctx) {
		return nil
	}
	defer belt.Flush(ctx)
	s.locker.Do(ctx, func() {
		s.releaseResources(ctx)
	})
	logger.Debugf(ctx, "closed; statistics: %s", s.Stats())
	return nil
}

// releaseResources runs the registered cleanups in reverse order:
// decoder stop, buffers drain, client disconnect.
func (s *Session) releaseResources(ctx context.Context) {
	if err := s.closer.Close(); err != nil {
		logger.Errorf(ctx, "unable to release the resources: %v", err)
	}
}

func (s *Session) drain(ctx context.Context) {
	queued := s.inputQueue.Drain(ctx)
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}
	if s.previous != nil {
		s.previous.Release()
		s.previous = nil
	}
	stats := s.inputPool.Stats()
	logger.Debugf(ctx, "drained %d queued records; input buffers: %s", queued, stats)
	if stats.Outstanding != 0 {
		logger.Errorf(ctx, "%d input buffers are still held after the decoder was stopped: %s", stats.Outstanding, stats)
	}
}

// SetDropState switches the mode in which decoded pictures are discarded
// right after decoding (keeping only their metadata).
func (s *Session) SetDropState(drop bool) {
	s.dropState.Store(drop)
}

func (s *Session) DropState() bool {
	return s.dropState.Load()
}

// Reset waits for Config.ResetSettleDelay; it does not flush anything.
func (s *Session) Reset(ctx context.Context) (_err error) {
	ctx = s.ctx(ctx)
	logger.Tracef(ctx, "Reset")
	defer func() { logger.Tracef(ctx, "/Reset: %v", _err) }()

	if s.closed.IsClosed() {
		return ErrClosed{}
	}
	if s.Config.ResetSettleDelay <= 0 {
		return nil
	}

	t := time.NewTimer(s.Config.ResetSettleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Session) QueueLength(ctx context.Context) int {
	return s.inputQueue.Len(ctx)
}

func (s *Session) Stats() Statistics {
	stats := s.stats.Convert()
	stats.InputBuffers = s.inputPool.Stats()
	return stats
}

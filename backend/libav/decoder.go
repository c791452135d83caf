package libav

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"github.com/xaionaro-go/hwvideodecoder/codec"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/hwvideodecoder/logger"
	"github.com/xaionaro-go/hwvideodecoder/scaler"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
)

const (
	// statusUnknownError is returned for libav errors that have no own status.
	statusUnknownError = hwcodec.Status(-2147483648)

	// statusWorkerStopped (AVERROR(EPIPE)) is returned by Read once the
	// feeding worker is gone.
	statusWorkerStopped = hwcodec.Status(-32)
)

// timeBase is the unit of the buffer time metadata: microseconds.
var timeBase = astiav.NewRational(1, 1000000)

type decoder struct {
	config Config
	source hwcodec.Source
	format hwcodec.Format

	locker       xsync.Mutex
	codec        *astiav.Codec
	codecContext *astiav.CodecContext
	frame        *astiav.Frame
	planarFrame  *astiav.Frame
	scaler       scaler.Scaler
	outputPool   *buffer.Pool
	closer       *astikit.Closer

	gotFrame    bool
	feedRequest chan struct{}
	feedResult  chan hwcodec.Status
	workerDone  chan struct{}
	cancelFn    context.CancelFunc
	workerWG    sync.WaitGroup
}

var _ hwcodec.Decoder = (*decoder)(nil)

func newDecoder(
	ctx context.Context,
	cfg Config,
	format hwcodec.Format,
	source hwcodec.Source,
	flags hwcodec.CreateFlags,
) (_ret *decoder, _err error) {
	codecID, ok := codec.CodecIDFromAndroidMIMEType(format.MIMEType)
	if !ok {
		return nil, fmt.Errorf("unsupported MIME type '%s'", format.MIMEType)
	}

	d := &decoder{
		config:      cfg,
		source:      source,
		format:      format,
		outputPool:  buffer.NewPool(0),
		closer:      astikit.NewCloser(),
		feedRequest: make(chan struct{}),
		feedResult:  make(chan hwcodec.Status),
		workerDone:  make(chan struct{}),
	}
	defer func() {
		if _err != nil {
			_ = d.closer.Close()
		}
	}()

	d.codec = findDecoder(ctx, codecID, flags.Has(hwcodec.CreateFlagHardwareCodecsOnly))
	if d.codec == nil {
		return nil, fmt.Errorf("unable to find a decoder for %s (hardware only: %t)", codecID, flags.Has(hwcodec.CreateFlagHardwareCodecsOnly))
	}
	ctx = belt.WithField(ctx, "codec_name", d.codec.Name())
	platformSpecificHWSanityChecks(ctx, format.MIMEType)

	d.codecContext = astiav.AllocCodecContext(d.codec)
	if d.codecContext == nil {
		return nil, fmt.Errorf("unable to allocate a codec context")
	}
	d.closer.Add(d.codecContext.Free)

	d.codecContext.SetWidth(format.Width)
	d.codecContext.SetHeight(format.Height)
	d.codecContext.SetTimeBase(timeBase)
	if cfg.ThreadCount > 0 {
		d.codecContext.SetThreadCount(cfg.ThreadCount)
	}
	if len(format.CodecSpecificData) > 0 {
		if err := d.codecContext.SetExtraData(format.CodecSpecificData); err != nil {
			return nil, fmt.Errorf("unable to set the extra data: %w", err)
		}
	}

	d.frame = astiav.AllocFrame()
	d.closer.Add(d.frame.Free)
	d.planarFrame = astiav.AllocFrame()
	d.closer.Add(d.planarFrame.Free)

	d.format.DecoderComponent = d.codec.Name()
	d.format.CodecSpecificData = nil
	d.format.ColorFormat = hwcodec.ColorFormatYUV420Planar
	if cfg.KeepPixelFormat {
		d.format.ColorFormat = ColorFormatFromPixelFormat(d.codecContext.PixelFormat())
	}
	return d, nil
}

func findDecoder(
	ctx context.Context,
	codecID astiav.CodecID,
	hardwareOnly bool,
) *astiav.Codec {
	if name, ok := mediaCodecDecoderName(codecID); ok {
		if c := astiav.FindDecoderByName(name); c != nil {
			return c
		}
		logger.Debugf(ctx, "decoder '%s' is not available", name)
	}
	if hardwareOnly {
		return nil
	}
	return astiav.FindDecoder(codecID)
}

func mediaCodecDecoderName(codecID astiav.CodecID) (string, bool) {
	switch codecID {
	case astiav.CodecIDH264:
		return "h264_mediacodec", true
	case astiav.CodecIDMpeg2Video:
		return "mpeg2_mediacodec", true
	case astiav.CodecIDMpeg4:
		return "mpeg4_mediacodec", true
	case astiav.CodecIDVp8:
		return "vp8_mediacodec", true
	}
	return "", false
}

func (d *decoder) String() string {
	return fmt.Sprintf("Decoder(%s)", d.codec.Name())
}

func (d *decoder) Start(ctx context.Context) (_err error) {
	ctx = belt.WithField(ctx, "codec_name", d.codec.Name())
	logger.Tracef(ctx, "Start")
	defer func() { logger.Tracef(ctx, "/Start: %v", _err) }()

	if err := d.codecContext.Open(d.codec, nil); err != nil {
		return fmt.Errorf("unable to open the codec context: %w", err)
	}
	if d.config.LowLatency {
		if err := d.setLowLatency(ctx, true); err != nil {
			logger.Warnf(ctx, "unable to enable the low-latency mode: %v", err)
		}
	}
	if err := d.source.Start(ctx); err != nil {
		return fmt.Errorf("unable to start the source: %w", err)
	}

	// the worker lives until Stop, not until the ctx of the caller of Start
	ctx, cancelFn := context.WithCancel(xcontext.DetachDone(ctx))
	d.cancelFn = cancelFn
	d.workerWG.Add(1)
	observability.Go(ctx, func(ctx context.Context) {
		defer d.workerWG.Done()
		defer close(d.workerDone)
		d.feedLoop(ctx)
	})
	return nil
}

// Stop stops the feeding worker and frees the codec; after it returns no
// input buffer is held by the decoder. On a decoder that was never started
// (or failed to start) it only frees the codec.
func (d *decoder) Stop(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "Stop")
	defer func() { logger.Tracef(ctx, "/Stop: %v", _err) }()

	var errs []error
	if d.cancelFn != nil {
		d.cancelFn()
		d.workerWG.Wait()
		if err := d.source.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to stop the source: %w", err))
		}
	}
	if d.scaler != nil {
		if err := d.scaler.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.closer.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *decoder) Format() hwcodec.Format {
	return xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &d.locker, func() hwcodec.Format {
		return d.format
	})
}

// feedLoop sends one input buffer to the codec per request.
func (d *decoder) feedLoop(ctx context.Context) {
	logger.Debugf(ctx, "feedLoop")
	defer logger.Debugf(ctx, "/feedLoop")
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.feedRequest:
		}

		status := d.feedOne(ctx)
		select {
		case <-ctx.Done():
			return
		case d.feedResult <- status:
		}
	}
}

func (d *decoder) feedOne(ctx context.Context) hwcodec.Status {
	buf, status := d.source.Read(ctx)
	if status != hwcodec.StatusOK {
		return status
	}
	defer buf.Release()

	pkt := astiav.AllocPacket()
	defer pkt.Free()
	if err := pkt.FromData(buf.Bytes()); err != nil {
		logger.Errorf(ctx, "unable to fill a packet: %v", err)
		return statusUnknownError
	}
	if t, ok := buf.Meta().FindTime(); ok {
		pkt.SetPts(t)
		pkt.SetDts(t)
	}

	err := xsync.DoR1(xsync.WithNoLogging(ctx, true), &d.locker, func() error {
		return d.codecContext.SendPacket(pkt)
	})
	if err != nil {
		logger.Errorf(ctx, "unable to send a packet: %v", err)
		return statusFromError(err)
	}
	return hwcodec.StatusOK
}

// Read returns the next decoded picture, feeding the codec with input
// buffers until it produces one or the source runs dry.
func (d *decoder) Read(ctx context.Context) (_ret *buffer.Buffer, _status hwcodec.Status) {
	logger.Tracef(ctx, "Read")
	defer func() { logger.Tracef(ctx, "/Read: %s %s", _ret, _status) }()

	for {
		buf, status, needInput := d.receive(ctx)
		if !needInput {
			return buf, status
		}

		select {
		case <-ctx.Done():
			return nil, hwcodec.StatusEndOfStream
		case <-d.workerDone:
			return nil, statusWorkerStopped
		case d.feedRequest <- struct{}{}:
		}
		select {
		case <-ctx.Done():
			return nil, hwcodec.StatusEndOfStream
		case <-d.workerDone:
			return nil, statusWorkerStopped
		case status := <-d.feedResult:
			if status != hwcodec.StatusOK {
				return nil, status
			}
		}
	}
}

func (d *decoder) receive(ctx context.Context) (_ret *buffer.Buffer, _status hwcodec.Status, _needInput bool) {
	d.locker.ManualLock(ctx)
	defer d.locker.ManualUnlock(ctx)

	err := d.codecContext.ReceiveFrame(d.frame)
	switch {
	case err == nil:
	case errors.Is(err, astiav.ErrEagain):
		return nil, hwcodec.StatusOK, true
	default:
		return nil, statusFromError(err), false
	}
	defer d.frame.Unref()

	formatChanged := d.updateFormat(ctx)

	buf, err := d.pack(ctx, d.frame)
	if err != nil {
		logger.Errorf(ctx, "unable to pack the frame: %v", err)
		return nil, statusUnknownError, false
	}
	if formatChanged {
		// the picture is lost, the same way hardware decoders drop the
		// buffer that reports a format change
		buf.Release()
		return nil, hwcodec.StatusFormatChanged, false
	}
	return buf, hwcodec.StatusOK, false
}

// updateFormat must be called with the locker held.
func (d *decoder) updateFormat(ctx context.Context) bool {
	colorFormat := hwcodec.ColorFormatYUV420Planar
	if d.config.KeepPixelFormat {
		colorFormat = ColorFormatFromPixelFormat(d.frame.PixelFormat())
	}
	w, h := d.frame.Width(), d.frame.Height()
	first := !d.gotFrame
	d.gotFrame = true
	if w == d.format.Width && h == d.format.Height && colorFormat == d.format.ColorFormat {
		return false
	}
	logger.Debugf(ctx, "output format: %dx%d %s (%s)", w, h, colorFormat, d.frame.PixelFormat())
	d.format.Width, d.format.Height, d.format.ColorFormat = w, h, colorFormat
	return !first
}

// pack copies the picture planes of the frame into a pooled buffer,
// converting it to planar YUV 4:2:0 if needed.
func (d *decoder) pack(ctx context.Context, f *astiav.Frame) (*buffer.Buffer, error) {
	if !d.config.KeepPixelFormat && f.PixelFormat() != astiav.PixelFormatYuv420P {
		planar, err := d.toPlanar(ctx, f)
		if err != nil {
			return nil, err
		}
		defer planar.Unref()
		f = planar
	}

	size, err := f.ImageBufferSize(1)
	if err != nil {
		return nil, fmt.Errorf("unable to get the image size: %w", err)
	}
	buf, err := d.outputPool.Get(ctx, size)
	if err != nil {
		return nil, err
	}
	if _, err := f.ImageCopyToBuffer(buf.Bytes(), 1); err != nil {
		buf.Release()
		return nil, fmt.Errorf("unable to copy the image: %w", err)
	}
	if pts := f.Pts(); pts != astiav.NoPtsValue {
		buf.Meta().SetTime(pts)
	}
	return buf, nil
}

func (d *decoder) toPlanar(ctx context.Context, f *astiav.Frame) (*astiav.Frame, error) {
	w, h := f.Width(), f.Height()
	if d.scaler == nil || !scaler.Matches(d.scaler, w, h, f.PixelFormat()) {
		if d.scaler != nil {
			_ = d.scaler.Close(ctx)
		}
		s, err := scaler.NewSoftware(ctx, w, h, f.PixelFormat(), w, h, astiav.PixelFormatYuv420P)
		if err != nil {
			return nil, err
		}
		d.scaler = s
	}

	dst := d.planarFrame
	dst.SetWidth(w)
	dst.SetHeight(h)
	dst.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err := dst.AllocBuffer(0); err != nil {
		return nil, fmt.Errorf("unable to allocate a frame buffer: %w", err)
	}
	if err := d.scaler.ScaleFrame(ctx, f, dst); err != nil {
		dst.Unref()
		return nil, err
	}
	dst.SetPts(f.Pts())
	return dst, nil
}

func statusFromError(err error) hwcodec.Status {
	var avErr astiav.Error
	switch {
	case errors.Is(err, astiav.ErrEof):
		return hwcodec.StatusEndOfStream
	case errors.As(err, &avErr):
		return hwcodec.Status(avErr)
	}
	return statusUnknownError
}

func ColorFormatFromPixelFormat(pixFmt astiav.PixelFormat) hwcodec.ColorFormat {
	switch pixFmt {
	case astiav.PixelFormatYuv420P:
		return hwcodec.ColorFormatYUV420Planar
	case astiav.PixelFormatNv12:
		return hwcodec.ColorFormatYUV420SemiPlanar
	}
	return hwcodec.ColorFormatUnknown
}

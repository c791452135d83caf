// Package libav implements hwcodec.Backend on top of FFmpeg (through
// go-astiav). Hardware decoding is done by the "*_mediacodec" decoders,
// so hardware-only sessions work only on Android builds of FFmpeg;
// elsewhere the software decoders may be allowed instead.
package libav

import (
	"context"
	"strings"
	"sync"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/hwvideodecoder/logger"
)

type Config struct {
	// KeepPixelFormat disables the conversion of decoded frames into
	// planar YUV 4:2:0; the output format is then reported as is.
	KeepPixelFormat bool

	// ThreadCount is passed to the codec context; zero means "auto".
	ThreadCount int

	// LowLatency asks MediaCodec decoders for the low-latency mode
	// (only in builds with the "mediacodec" tag).
	LowLatency bool
}

type Backend struct {
	Config Config

	threadPoolOnce sync.Once
}

var _ hwcodec.Backend = (*Backend)(nil)

func New(cfg Config) *Backend {
	return &Backend{Config: cfg}
}

func (b *Backend) String() string {
	return "libav"
}

// StartThreadPool routes the libav logs to the logger from ctx. Only the
// first call has an effect.
func (b *Backend) StartThreadPool(ctx context.Context) error {
	b.threadPoolOnce.Do(func() {
		l := logger.FromCtx(ctx)
		astiav.SetLogLevel(LogLevelToAstiav(l.Level()))
		astiav.SetLogCallback(func(c astiav.Classer, level astiav.LogLevel, fmt, msg string) {
			var cs string
			if c != nil {
				if cl := c.Class(); cl != nil {
					cs = " - class: " + cl.String()
				}
			}
			l.Logf(
				LogLevelFromAstiav(level),
				"%s%s",
				strings.TrimSpace(msg), cs,
			)
		})
		logger.Debugf(ctx, "libav log level: %s", l.Level())
	})
	return nil
}

func (b *Backend) NewClient(ctx context.Context) (hwcodec.Client, error) {
	return &client{backend: b}, nil
}

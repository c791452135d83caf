// Package hwcodectest provides an in-memory hwcodec.Backend whose decoders
// echo every encoded buffer back as a "decoded" one. Failures and special
// statuses can be scripted, which makes it suitable for testing the session
// without any hardware.
package hwcodectest

import (
	"context"

	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type Config struct {
	// DecoderComponent is reported in the output format.
	DecoderComponent string

	// OutputWidth and OutputHeight are reported in the output format;
	// zero means "same as the input format".
	OutputWidth  int
	OutputHeight int

	// ColorFormat is reported in the output format; zero means YUV420Planar.
	ColorFormat hwcodec.ColorFormat

	// SynchronousRelease makes the decoder release consumed input buffers
	// inside Read instead of on a separate goroutine.
	SynchronousRelease bool

	ThreadPoolError error
	NewClientError  error
	ConnectError    error
	CreateError     error
	StartError      error
}

type Backend struct {
	Config Config

	ThreadPoolStarts atomic.Int64

	locker   xsync.Mutex
	clients  []*Client
	decoders []*Decoder
}

var _ hwcodec.Backend = (*Backend)(nil)

func New(cfg Config) *Backend {
	return &Backend{Config: cfg}
}

func (b *Backend) String() string {
	return "hwcodectest"
}

func (b *Backend) StartThreadPool(ctx context.Context) error {
	if b.Config.ThreadPoolError != nil {
		return b.Config.ThreadPoolError
	}
	b.ThreadPoolStarts.Inc()
	return nil
}

func (b *Backend) NewClient(ctx context.Context) (hwcodec.Client, error) {
	if b.Config.NewClientError != nil {
		return nil, b.Config.NewClientError
	}
	c := &Client{Backend: b}
	b.locker.Do(ctx, func() {
		b.clients = append(b.clients, c)
	})
	return c, nil
}

func (b *Backend) Clients() []*Client {
	return xsync.DoR1(lockCtx(), &b.locker, func() []*Client {
		return append([]*Client(nil), b.clients...)
	})
}

func (b *Backend) Decoders() []*Decoder {
	return xsync.DoR1(lockCtx(), &b.locker, func() []*Decoder {
		return append([]*Decoder(nil), b.decoders...)
	})
}

// LastDecoder returns the most recently created decoder, or nil.
func (b *Backend) LastDecoder() *Decoder {
	return xsync.DoR1(lockCtx(), &b.locker, func() *Decoder {
		if len(b.decoders) == 0 {
			return nil
		}
		return b.decoders[len(b.decoders)-1]
	})
}

// ConnectCalls is the total amount of Connect calls over all clients.
func (b *Backend) ConnectCalls() int64 {
	var total int64
	for _, c := range b.Clients() {
		total += c.ConnectCalls.Load()
	}
	return total
}

func (b *Backend) addDecoder(d *Decoder) {
	b.locker.Do(lockCtx(), func() {
		b.decoders = append(b.decoders, d)
	})
}

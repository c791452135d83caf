package libav

import (
	"context"
	"testing"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"github.com/xaionaro-go/hwvideodecoder/codec"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"go.uber.org/atomic"
)

type emptySource struct {
	format hwcodec.Format
	reads  atomic.Int64
}

func (s *emptySource) Format() hwcodec.Format          { return s.format }
func (s *emptySource) Start(ctx context.Context) error { return nil }
func (s *emptySource) Stop(ctx context.Context) error  { return nil }
func (s *emptySource) Read(ctx context.Context) (*buffer.Buffer, hwcodec.Status) {
	s.reads.Inc()
	return nil, hwcodec.StatusEndOfStream
}

func newTestDecoder(t *testing.T, ctx context.Context) (*decoder, *emptySource) {
	mimeType, ok := codec.AndroidMIMEType(astiav.CodecIDMpeg4)
	require.True(t, ok)
	src := &emptySource{format: hwcodec.Format{MIMEType: mimeType, Width: 64, Height: 48}}
	d, err := newDecoder(ctx, Config{}, src.format, src, 0)
	if err != nil {
		t.Skipf("no MPEG-4 decoder in this libav build: %v", err)
	}
	return d, src
}

func testLoggerCtx() context.Context {
	l := logrus.Default().WithLevel(logger.LevelWarning)
	return logger.CtxWithLogger(context.Background(), l)
}

func readWithDeadline(t *testing.T, d *decoder) hwcodec.Status {
	type result struct {
		buf    *buffer.Buffer
		status hwcodec.Status
	}
	ch := make(chan result, 1)
	go func() {
		buf, status := d.Read(testLoggerCtx())
		ch <- result{buf, status}
	}()
	select {
	case r := <-ch:
		require.Nil(t, r.buf)
		return r.status
	case <-time.After(10 * time.Second):
		t.Fatal("Read did not return")
		return 0
	}
}

func TestDecoderOutlivesStartContext(t *testing.T) {
	startCtx, cancelFn := context.WithCancel(testLoggerCtx())
	d, src := newTestDecoder(t, startCtx)
	require.NoError(t, d.Start(startCtx))
	defer func() { require.NoError(t, d.Stop(testLoggerCtx())) }()

	cancelFn()

	require.Equal(t, hwcodec.StatusEndOfStream, readWithDeadline(t, d))
	require.Equal(t, int64(1), src.reads.Load())
}

func TestDecoderReadAfterWorkerExit(t *testing.T) {
	ctx := testLoggerCtx()
	d, _ := newTestDecoder(t, ctx)
	require.NoError(t, d.Start(ctx))
	defer func() { require.NoError(t, d.Stop(ctx)) }()

	d.cancelFn()
	d.workerWG.Wait()

	status := readWithDeadline(t, d)
	require.Equal(t, statusWorkerStopped, status)
	require.True(t, status.IsError())
}

func TestDecoderStopWithoutStart(t *testing.T) {
	ctx := testLoggerCtx()
	d, src := newTestDecoder(t, ctx)
	require.NoError(t, d.Stop(ctx))
	require.Zero(t, src.reads.Load())
}

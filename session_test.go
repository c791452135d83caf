package hwvideodecoder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec/hwcodectest"
)

func testCtx(t *testing.T) context.Context {
	l := logrus.Default().WithLevel(logger.LevelWarning)
	ctx := logger.CtxWithLogger(context.Background(), l)
	t.Cleanup(func() { belt.Flush(ctx) })
	return ctx
}

func testHints(width, height int) StreamHints {
	return StreamHints{
		CodecID: astiav.CodecIDH264,
		Width:   width,
		Height:  height,
	}
}

func testPayload(size int, seed byte) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func openTestSession(
	t *testing.T,
	cfg hwcodectest.Config,
	hints StreamHints,
	opts ...Option,
) (context.Context, *Session, *hwcodectest.Backend) {
	ctx := testCtx(t)
	backend := hwcodectest.New(cfg)
	s, err := Open(ctx, backend, hints, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close(ctx)) })
	return ctx, s, backend
}

func TestOpenInvalidDimensions(t *testing.T) {
	ctx := testCtx(t)
	for _, hints := range []StreamHints{testHints(0, 240), testHints(320, 0), testHints(0, 0), testHints(-1, 240)} {
		t.Run(fmt.Sprintf("%dx%d", hints.Width, hints.Height), func(t *testing.T) {
			backend := hwcodectest.New(hwcodectest.Config{})
			s, err := Open(ctx, backend, hints)
			require.Nil(t, s)
			require.ErrorAs(t, err, &ErrInvalidInput{})
			require.Zero(t, backend.ThreadPoolStarts.Load())
			require.Empty(t, backend.Clients())
			require.Zero(t, backend.ConnectCalls())
		})
	}
}

func TestOpenUnsupportedCodec(t *testing.T) {
	ctx := testCtx(t)
	backend := hwcodectest.New(hwcodectest.Config{})
	_, err := Open(ctx, backend, StreamHints{CodecID: astiav.CodecIDHevc, Width: 320, Height: 240})
	var errUnsupported ErrUnsupportedCodec
	require.ErrorAs(t, err, &errUnsupported)
	require.Equal(t, astiav.CodecIDHevc, errUnsupported.CodecID)
	require.Empty(t, backend.Clients())
}

func TestOpenInputFormat(t *testing.T) {
	extraData := []byte{1, 0x42, 0xC0, 0x1E, 0xFF, 0xE0, 0}
	_, s, backend := openTestSession(t, hwcodectest.Config{DecoderComponent: "OMX.google.h264.decoder"}, StreamHints{
		CodecID:   astiav.CodecIDH264,
		Width:     320,
		Height:    240,
		ExtraData: extraData,
	})

	d := backend.LastDecoder()
	require.NotNil(t, d)
	require.Equal(t, "video/avc", d.InputFormat.MIMEType)
	require.Equal(t, 320, d.InputFormat.Width)
	require.Equal(t, 240, d.InputFormat.Height)
	require.Equal(t, extraData, d.InputFormat.CodecSpecificData)
	require.True(t, d.Flags.Has(hwcodec.CreateFlagClientNeedsFramebuffer|hwcodec.CreateFlagHardwareCodecsOnly))
	require.True(t, d.Started.Load())
	require.Equal(t, int64(1), backend.ThreadPoolStarts.Load())
	require.Equal(t, "OMX.google.h264.decoder", s.DecoderComponent())
	require.Zero(t, s.Quirks())
}

func TestOpenFailureCleanup(t *testing.T) {
	errTest := errors.New("test error")
	type testCase struct {
		Config              hwcodectest.Config
		ExpectedErr         any
		ExpectedClients     int
		ExpectedDisconnects int64
		ExpectDecoder       bool
	}
	for name, tc := range map[string]testCase{
		"thread_pool": {
			Config:      hwcodectest.Config{ThreadPoolError: errTest},
			ExpectedErr: &ErrConnection{},
		},
		"new_client": {
			Config:      hwcodectest.Config{NewClientError: errTest},
			ExpectedErr: &ErrConnection{},
		},
		"connect": {
			Config:          hwcodectest.Config{ConnectError: errTest},
			ExpectedErr:     &ErrConnection{},
			ExpectedClients: 1,
		},
		"create": {
			Config:              hwcodectest.Config{CreateError: errTest},
			ExpectedErr:         &ErrDecoderStart{},
			ExpectedClients:     1,
			ExpectedDisconnects: 1,
		},
		"start": {
			Config:              hwcodectest.Config{StartError: errTest},
			ExpectedErr:         &ErrDecoderStart{},
			ExpectedClients:     1,
			ExpectedDisconnects: 1,
			ExpectDecoder:       true,
		},
		"color_format": {
			Config:              hwcodectest.Config{ColorFormat: hwcodec.ColorFormatYUV420SemiPlanar},
			ExpectedErr:         &ErrUnsupportedColorFormat{},
			ExpectedClients:     1,
			ExpectedDisconnects: 1,
			ExpectDecoder:       true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := testCtx(t)
			backend := hwcodectest.New(tc.Config)
			s, err := Open(ctx, backend, testHints(320, 240))
			require.Nil(t, s)
			require.ErrorAs(t, err, tc.ExpectedErr)

			clients := backend.Clients()
			require.Len(t, clients, tc.ExpectedClients)
			for _, c := range clients {
				require.Equal(t, tc.ExpectedDisconnects, c.DisconnectCalls.Load())
				require.False(t, c.Connected.Load())
			}

			d := backend.LastDecoder()
			if !tc.ExpectDecoder {
				require.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			require.True(t, d.Stopped.Load(), "the created decoder must be released")
			require.Zero(t, d.Pool.Stats().Outstanding)
		})
	}
}

func TestOpenErrorUnwrap(t *testing.T) {
	errTest := errors.New("test error")
	ctx := testCtx(t)
	_, err := Open(ctx, hwcodectest.New(hwcodectest.Config{ConnectError: errTest}), testHints(320, 240))
	require.ErrorIs(t, err, errTest)
}

func TestCloseIdempotent(t *testing.T) {
	ctx := testCtx(t)
	backend := hwcodectest.New(hwcodectest.Config{})
	s, err := Open(ctx, backend, testHints(4, 4), OptionFillThreshold(1))
	require.NoError(t, err)

	_, err = s.Submit(ctx, testPayload(24, 0), 1, NoPTS)
	require.NoError(t, err)
	_, err = s.Submit(ctx, testPayload(24, 0), 2, NoPTS)
	require.ErrorAs(t, err, &ErrPictureNotRetrieved{})
	require.Zero(t, s.QueueLength(ctx))

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))

	client := backend.Clients()[0]
	require.Equal(t, int64(1), client.DisconnectCalls.Load())
	d := backend.LastDecoder()
	require.True(t, d.Stopped.Load())
	require.Zero(t, d.Pool.Stats().Outstanding)
	require.Zero(t, s.Stats().InputBuffers.Outstanding)
	require.Zero(t, s.QueueLength(ctx))

	_, err = s.Submit(ctx, testPayload(24, 0), 3, NoPTS)
	require.ErrorAs(t, err, &ErrClosed{})
	_, err = s.GetPicture(ctx)
	require.ErrorAs(t, err, &ErrClosed{})
	require.ErrorAs(t, s.ClearPicture(ctx), &ErrClosed{})
	require.ErrorAs(t, s.Reset(ctx), &ErrClosed{})
}

func TestCloseCanceledContext(t *testing.T) {
	ctx := testCtx(t)
	backend := hwcodectest.New(hwcodectest.Config{})
	s, err := Open(ctx, backend, testHints(4, 4))
	require.NoError(t, err)

	canceledCtx, cancelFn := context.WithCancel(ctx)
	cancelFn()
	require.NoError(t, s.Close(canceledCtx))
	require.Equal(t, int64(1), backend.Clients()[0].DisconnectCalls.Load())
}

func TestSetDropStateAndReset(t *testing.T) {
	ctx, s, _ := openTestSession(t, hwcodectest.Config{}, testHints(4, 4), OptionResetSettleDelay(20*time.Millisecond))

	require.False(t, s.DropState())
	s.SetDropState(true)
	require.True(t, s.DropState())

	start := time.Now()
	require.NoError(t, s.Reset(ctx))
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	canceledCtx, cancelFn := context.WithCancel(ctx)
	cancelFn()
	require.ErrorIs(t, s.Reset(canceledCtx), context.Canceled)
}

func TestCloseWithHeldInputBuffer(t *testing.T) {
	ctx := testCtx(t)
	s, err := Open(ctx, hwcodectest.New(hwcodectest.Config{}), testHints(4, 4))
	require.NoError(t, err)

	held, err := s.inputPool.Get(ctx, 16)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		require.NoError(t, s.Close(ctx))
	})
	require.Equal(t, uint64(1), s.inputPool.Stats().Outstanding)
	held.Release()
	require.Zero(t, s.inputPool.Stats().Outstanding)
}

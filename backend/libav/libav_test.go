package libav

import (
	"context"
	"errors"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/hwvideodecoder"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
)

func TestLogLevelConversion(t *testing.T) {
	for _, level := range []logger.Level{
		logger.LevelFatal,
		logger.LevelPanic,
		logger.LevelError,
		logger.LevelWarning,
		logger.LevelInfo,
		logger.LevelTrace,
	} {
		require.Equal(t, level, LogLevelFromAstiav(LogLevelToAstiav(level)), level.String())
	}
	require.Equal(t, logger.LevelDebug, LogLevelFromAstiav(astiav.LogLevelDebug))
	require.Equal(t, logger.LevelDebug, LogLevelFromAstiav(LogLevelToAstiav(logger.LevelDebug)))
}

func TestColorFormatFromPixelFormat(t *testing.T) {
	require.Equal(t, hwcodec.ColorFormatYUV420Planar, ColorFormatFromPixelFormat(astiav.PixelFormatYuv420P))
	require.Equal(t, hwcodec.ColorFormatYUV420SemiPlanar, ColorFormatFromPixelFormat(astiav.PixelFormatNv12))
	require.Equal(t, hwcodec.ColorFormatUnknown, ColorFormatFromPixelFormat(astiav.PixelFormatRgba))
}

func TestMediaCodecDecoderName(t *testing.T) {
	name, ok := mediaCodecDecoderName(astiav.CodecIDH264)
	require.True(t, ok)
	require.Equal(t, "h264_mediacodec", name)

	_, ok = mediaCodecDecoderName(astiav.CodecIDVc1)
	require.False(t, ok)
}

func TestStatusFromError(t *testing.T) {
	require.Equal(t, hwcodec.StatusEndOfStream, statusFromError(astiav.ErrEof))
	require.Equal(t, hwcodec.Status(astiav.ErrEinval), statusFromError(astiav.ErrEinval))
	require.True(t, statusFromError(context.Canceled).IsError())
}

func encodeTestStream(t *testing.T, width, height, count int) [][]byte {
	enc := astiav.FindEncoder(astiav.CodecIDMpeg4)
	if enc == nil {
		t.Skip("no MPEG-4 encoder in this libav build")
	}
	encCtx := astiav.AllocCodecContext(enc)
	require.NotNil(t, encCtx)
	defer encCtx.Free()
	encCtx.SetWidth(width)
	encCtx.SetHeight(height)
	encCtx.SetPixelFormat(astiav.PixelFormatYuv420P)
	encCtx.SetTimeBase(astiav.NewRational(1, 25))
	encCtx.SetFramerate(astiav.NewRational(25, 1))
	encCtx.SetGopSize(5)
	require.NoError(t, encCtx.Open(enc, nil))

	f := astiav.AllocFrame()
	defer f.Free()
	pkt := astiav.AllocPacket()
	defer pkt.Free()

	var packets [][]byte
	receive := func() {
		for {
			if err := encCtx.ReceivePacket(pkt); err != nil {
				return
			}
			packets = append(packets, append([]byte(nil), pkt.Data()...))
			pkt.Unref()
		}
	}
	for i := 0; i < count; i++ {
		f.SetWidth(width)
		f.SetHeight(height)
		f.SetPixelFormat(astiav.PixelFormatYuv420P)
		require.NoError(t, f.AllocBuffer(0))
		require.NoError(t, f.ImageFillBlack())
		f.SetPts(int64(i))
		require.NoError(t, encCtx.SendFrame(f))
		f.Unref()
		receive()
	}
	require.NoError(t, encCtx.SendFrame(nil))
	receive()
	return packets
}

func TestSoftwareDecodeSession(t *testing.T) {
	const width, height = 64, 48
	l := logrus.Default().WithLevel(logger.LevelWarning)
	ctx := logger.CtxWithLogger(context.Background(), l)

	packets := encodeTestStream(t, width, height, 10)
	require.NotEmpty(t, packets)

	backend := New(Config{})
	s, err := hwvideodecoder.Open(ctx, backend, hwvideodecoder.StreamHints{
		CodecID: astiav.CodecIDMpeg4,
		Width:   width,
		Height:  height,
	}, hwvideodecoder.OptionAllowSoftwareDecoders(true), hwvideodecoder.OptionFillThreshold(1))
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close(ctx)) }()

	pictures := 0
	for i, data := range packets {
		result, err := s.Submit(ctx, data, float64(i*40000), hwvideodecoder.NoPTS)
		var errDecode hwvideodecoder.ErrDecode
		if errors.As(err, &errDecode) && errDecode.Status == hwcodec.StatusEndOfStream {
			// the decoder wants more than one packet before the first picture
			continue
		}
		require.NoError(t, err)
		if !result.Has(hwvideodecoder.ResultPicture) {
			continue
		}
		pic, err := s.GetPicture(ctx)
		require.NoError(t, err)
		require.Equal(t, width, pic.Width)
		require.Equal(t, height, pic.Height)
		require.Len(t, pic.Data[0], width*height)
		require.Len(t, pic.Data[1], width*height/4)
		require.NotNil(t, pic.Image())
		require.NoError(t, s.ClearPicture(ctx))
		pictures++
	}
	require.NotZero(t, pictures)
	require.Equal(t, uint64(len(packets)), s.Stats().BuffersEnqueued)
}

package hwvideodecoder

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/hwvideodecoder/frame"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/hwvideodecoder/logger"
	"github.com/xaionaro-go/xsync"
)

type PictureFlags uint32

const (
	PictureFlagAllocated PictureFlags = 1 << iota
	PictureFlagDropped
)

func (f PictureFlags) Has(flag PictureFlags) bool {
	return f&flag == flag
}

func (f PictureFlags) String() string {
	var s []string
	if f.Has(PictureFlagAllocated) {
		s = append(s, "allocated")
	}
	if f.Has(PictureFlagDropped) {
		s = append(s, "dropped")
	}
	return strings.Join(s, "|")
}

const (
	ColorRangeDefault   = 0
	ColorMatrixBT601    = 4
	planarPictureFormat = astiav.PixelFormatYuv420P
)

// Picture is a decoded YUV 4:2:0 planar picture. Data points into the
// decoder's buffer and stays valid until the next ClearPicture (or Close).
type Picture struct {
	Format        astiav.PixelFormat
	PTS           float64
	DTS           float64
	ColorRange    int
	ColorMatrix   int
	Flags         PictureFlags
	Width         int
	Height        int
	DisplayWidth  int
	DisplayHeight int
	LineSize      [4]int
	Data          [4][]byte
}

func (p *Picture) String() string {
	return fmt.Sprintf("%s %dx%d pts:%v flags:%s", p.Format, p.Width, p.Height, p.PTS, p.Flags)
}

// Image returns a view of the picture (sharing the memory); nil if the
// picture was dropped.
func (p *Picture) Image() *image.YCbCr {
	if p.Flags.Has(PictureFlagDropped) || p.Data[0] == nil {
		return nil
	}
	return &image.YCbCr{
		Y:              p.Data[0],
		Cb:             p.Data[1],
		Cr:             p.Data[2],
		YStride:        p.LineSize[0],
		CStride:        p.LineSize[1],
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, p.Width&^1, p.Height&^1),
	}
}

func newPicture(rec *frame.Record) (*Picture, error) {
	w, h := rec.Width, rec.Height
	pic := &Picture{
		Format:        planarPictureFormat,
		PTS:           PTSFromInt(rec.PTS),
		DTS:           NoPTS,
		ColorRange:    ColorRangeDefault,
		ColorMatrix:   ColorMatrixBT601,
		Flags:         PictureFlagAllocated,
		Width:         w,
		Height:        h,
		DisplayWidth:  w,
		DisplayHeight: h,
		LineSize:      [4]int{w, w / 2, w / 2, 0},
	}
	if rec.Buffer == nil {
		pic.Flags |= PictureFlagDropped
		return pic, nil
	}

	lumaSize := w * h
	chromaSize := (w / 2) * (h / 2)
	b := rec.Buffer.Bytes()
	if required := lumaSize + 2*chromaSize; len(b) < required {
		return nil, ErrShortBuffer{Required: required, Actual: len(b)}
	}
	pic.Data[0] = b[:lumaSize:lumaSize]
	pic.Data[1] = b[lumaSize : lumaSize+chromaSize : lumaSize+chromaSize]
	pic.Data[2] = b[lumaSize+chromaSize : lumaSize+2*chromaSize : lumaSize+2*chromaSize]
	return pic, nil
}

// GetPicture returns the picture produced by the last Submit that
// reported ResultPicture.
func (s *Session) GetPicture(ctx context.Context) (_ret *Picture, _err error) {
	ctx = s.ctx(ctx)
	logger.Tracef(ctx, "GetPicture")
	defer func() { logger.Tracef(ctx, "/GetPicture: %v %v", _ret, _err) }()

	return xsync.DoR2(ctx, &s.locker, func() (*Picture, error) {
		return s.getPictureLocked(ctx)
	})
}

func (s *Session) getPictureLocked(ctx context.Context) (*Picture, error) {
	if s.closed.IsClosed() {
		return nil, ErrClosed{}
	}

	rec := s.current
	if rec == nil {
		return nil, ErrNoPicture{}
	}
	s.current = nil

	if status := rec.Status; status != hwcodec.StatusOK {
		logger.Errorf(ctx, "unable to get a picture from a record with status %s", status)
		rec.Release()
		return nil, ErrPictureStatus{Status: status}
	}

	pic, err := newPicture(rec)
	if err != nil {
		rec.Release()
		return nil, err
	}

	if s.previous != nil {
		logger.Warnf(ctx, "the previous picture was not cleared; releasing it")
		s.previous.Release()
	}
	s.previous = rec
	return pic, nil
}

// ClearPicture releases the picture returned by the last GetPicture; it is
// a no-op if there is none.
func (s *Session) ClearPicture(ctx context.Context) (_err error) {
	ctx = s.ctx(ctx)
	logger.Tracef(ctx, "ClearPicture")
	defer func() { logger.Tracef(ctx, "/ClearPicture: %v", _err) }()

	return xsync.DoR1(ctx, &s.locker, func() error {
		if s.closed.IsClosed() {
			return ErrClosed{}
		}
		if s.previous == nil {
			return nil
		}
		s.previous.Release()
		s.previous = nil
		return nil
	})
}

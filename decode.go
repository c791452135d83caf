package hwvideodecoder

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaionaro-go/hwvideodecoder/codec"
	"github.com/xaionaro-go/hwvideodecoder/frame"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/hwvideodecoder/logger"
	"github.com/xaionaro-go/xsync"
)

type DecodeResult uint8

const (
	// ResultBuffer: the decoder wants more input.
	ResultBuffer DecodeResult = 1 << iota
	// ResultPicture: a picture is ready to be retrieved with GetPicture.
	ResultPicture
)

func (r DecodeResult) Has(flag DecodeResult) bool {
	return r&flag == flag
}

func (r DecodeResult) String() string {
	var s []string
	if r.Has(ResultBuffer) {
		s = append(s, "buffer")
	}
	if r.Has(ResultPicture) {
		s = append(s, "picture")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, "|")
}

// Submit enqueues the encoded packet (if data is not nil) and, once enough
// input is queued, pulls exactly one result from the decoder.
//
// Timestamps are in microseconds; NoPTS marks an absent one.
func (s *Session) Submit(
	ctx context.Context,
	data []byte,
	dts, pts float64,
) (_ret DecodeResult, _err error) {
	ctx = s.ctx(ctx)
	logger.Tracef(ctx, "Submit(ctx, %d bytes, %v, %v)", len(data), dts, pts)
	defer func() { logger.Tracef(ctx, "/Submit(ctx, %d bytes, %v, %v): %s, %v", len(data), dts, pts, _ret, _err) }()

	return xsync.DoR2(ctx, &s.locker, func() (DecodeResult, error) {
		return s.submitLocked(ctx, data, dts, pts)
	})
}

func (s *Session) submitLocked(
	ctx context.Context,
	data []byte,
	dts, pts float64,
) (DecodeResult, error) {
	if s.closed.IsClosed() {
		return 0, ErrClosed{}
	}

	queued := s.inputQueue.Len(ctx)
	if data != nil {
		queued++
	}
	pullDue := queued >= s.Config.FillThreshold
	if pullDue && s.current != nil {
		// nothing is enqueued: the caller may retry with the same packet
		return 0, ErrPictureNotRetrieved{}
	}

	if data != nil {
		if err := s.enqueue(ctx, data, dts, pts); err != nil {
			return 0, err
		}
	}
	if !pullDue {
		return ResultBuffer, nil
	}
	return s.decodeOne(ctx)
}

func (s *Session) enqueue(
	ctx context.Context,
	data []byte,
	dts, pts float64,
) error {
	buf, err := s.inputPool.Get(ctx, len(data))
	if err != nil {
		return fmt.Errorf("unable to get a buffer for the %d-byte packet: %w", len(data), err)
	}
	copy(buf.Bytes(), data)

	ts := inputTimestamp(dts, pts)
	buf.Meta().Clear()
	buf.Meta().SetTime(ts)

	s.inputQueue.Push(ctx, frame.New(hwcodec.StatusOK, 0, 0, ts, buf))
	s.stats.BytesSubmitted.Add(uint64(len(data)))
	s.stats.BuffersEnqueued.Inc()
	return nil
}

// decodeOne must be called with the locker held and the current slot empty.
func (s *Session) decodeOne(ctx context.Context) (DecodeResult, error) {
	assert(ctx, s.current == nil, "the current picture slot is occupied", s.current)

	s.stats.DecodePulls.Inc()
	buf, status := s.decoder.Read(ctx)
	rec := frame.New(status, 0, 0, 0, buf)

	switch status {
	case hwcodec.StatusOK:
	case hwcodec.StatusFormatChanged:
		rec.Release()
		s.stats.FormatChanges.Inc()
		logger.Debugf(ctx, "the output format changed: %s", s.decoder.Format())
		return ResultBuffer, nil
	default:
		rec.Release()
		s.stats.DecodeErrors.Inc()
		logger.Errorf(ctx, "decoding error: %s", status)
		return 0, ErrDecode{Status: status}
	}

	format := s.decoder.Format()
	rec.Width, rec.Height = format.Width, format.Height
	if buf != nil {
		if s.quirks.HasAll(codec.QuirkUnroundedDimensions) {
			w, h := codec.FixUnroundedDimensions(rec.Width, rec.Height, buf.RangeLength())
			if w != rec.Width || h != rec.Height {
				logger.Tracef(ctx, "the decoder reported %dx%d, but the buffer is %dx%d", rec.Width, rec.Height, w, h)
			}
			rec.Width, rec.Height = w, h
		}
		if t, ok := buf.Meta().FindTime(); ok {
			rec.PTS = t
		}
		if s.dropState.Load() {
			rec.DropBuffer()
			s.stats.PicturesDropped.Inc()
		}
	} else {
		logger.Warnf(ctx, "the decoder returned OK without a buffer")
	}

	s.current = rec
	s.stats.Pictures.Inc()
	return ResultBuffer | ResultPicture, nil
}

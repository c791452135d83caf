package hwvideodecoder

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"go.uber.org/atomic"
)

type Statistics struct {
	BytesSubmitted  uint64
	BuffersEnqueued uint64
	DecodePulls     uint64
	Pictures        uint64
	PicturesDropped uint64
	FormatChanges   uint64
	DecodeErrors    uint64
	InputBuffers    buffer.PoolStats
}

func (s Statistics) String() string {
	return fmt.Sprintf(
		"submitted:%s enqueued:%d pulls:%d pictures:%d dropped:%d format_changes:%d errors:%d inputs:{%s}",
		humanize.Bytes(s.BytesSubmitted), s.BuffersEnqueued, s.DecodePulls,
		s.Pictures, s.PicturesDropped, s.FormatChanges, s.DecodeErrors, s.InputBuffers,
	)
}

type statisticsCounters struct {
	BytesSubmitted  atomic.Uint64
	BuffersEnqueued atomic.Uint64
	DecodePulls     atomic.Uint64
	Pictures        atomic.Uint64
	PicturesDropped atomic.Uint64
	FormatChanges   atomic.Uint64
	DecodeErrors    atomic.Uint64
}

func (stats *statisticsCounters) Convert() Statistics {
	return Statistics{
		BytesSubmitted:  stats.BytesSubmitted.Load(),
		BuffersEnqueued: stats.BuffersEnqueued.Load(),
		DecodePulls:     stats.DecodePulls.Load(),
		Pictures:        stats.Pictures.Load(),
		PicturesDropped: stats.PicturesDropped.Load(),
		FormatChanges:   stats.FormatChanges.Load(),
		DecodeErrors:    stats.DecodeErrors.Load(),
	}
}

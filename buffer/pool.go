// pool.go implements the buffer allocator that also acts as the release observer.

package buffer

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/hwvideodecoder/logger"
	"github.com/xaionaro-go/hwvideodecoder/pool"
	"go.uber.org/atomic"
)

// ErrOutOfMemory is returned when an allocation would exceed the pool limit.
type ErrOutOfMemory struct {
	Requested uint64
	Limit     uint64
}

func (e ErrOutOfMemory) Error() string {
	return fmt.Sprintf(
		"out of memory: unable to allocate %s, the limit is %s",
		humanize.Bytes(e.Requested), humanize.Bytes(e.Limit),
	)
}

// Pool allocates buffers and reclaims their storage once the last reference
// is released.
type Pool struct {
	// MaxOutstandingBytes limits the total size of not yet returned storages;
	// zero means no limit.
	MaxOutstandingBytes uint64

	storages *pool.Pool[storage]

	allocatedCount   atomic.Uint64
	returnedCount    atomic.Uint64
	outstandingBytes atomic.Int64
}

var _ Observer = (*Pool)(nil)

func NewPool(maxOutstandingBytes uint64) *Pool {
	return &Pool{
		MaxOutstandingBytes: maxOutstandingBytes,
		storages: pool.NewPool(
			func() *storage { return &storage{} },
			func(s *storage) {
				s.data = s.data[:0]
				s.refCount.Store(0)
				s.observer = nil
			},
		),
	}
}

// Get returns a buffer of the given size with one reference owned by the
// caller. The content of the buffer is undefined.
func (p *Pool) Get(
	ctx context.Context,
	size int,
) (_ret *Buffer, _err error) {
	logger.Tracef(ctx, "Get(ctx, %d)", size)
	defer func() { logger.Tracef(ctx, "/Get(ctx, %d): %v %v", size, _ret, _err) }()
	if size < 0 {
		return nil, fmt.Errorf("negative buffer size: %d", size)
	}

	outstanding := p.outstandingBytes.Add(int64(size))
	if p.MaxOutstandingBytes > 0 && uint64(outstanding) > p.MaxOutstandingBytes {
		p.outstandingBytes.Sub(int64(size))
		return nil, ErrOutOfMemory{
			Requested: uint64(size),
			Limit:     p.MaxOutstandingBytes,
		}
	}

	s := p.storages.Get()
	if cap(s.data) < size {
		s.data = make([]byte, size)
	} else {
		s.data = s.data[:size]
	}
	s.observer = p
	s.refCount.Store(1)
	p.allocatedCount.Inc()
	return &Buffer{
		storage:     s,
		rangeLength: size,
	}, nil
}

// SignalBufferReturned implements Observer.
func (p *Pool) SignalBufferReturned(b *Buffer) {
	s := b.storage
	p.outstandingBytes.Sub(int64(len(s.data)))
	p.returnedCount.Inc()
	p.storages.Put(s)
}

type PoolStats struct {
	Allocated        uint64
	Returned         uint64
	Outstanding      uint64
	OutstandingBytes uint64
}

func (s PoolStats) String() string {
	return fmt.Sprintf(
		"allocated:%d returned:%d outstanding:%d (%s)",
		s.Allocated, s.Returned, s.Outstanding, humanize.Bytes(s.OutstandingBytes),
	)
}

func (p *Pool) Stats() PoolStats {
	returned := p.returnedCount.Load()
	allocated := p.allocatedCount.Load()
	return PoolStats{
		Allocated:        allocated,
		Returned:         returned,
		Outstanding:      allocated - returned,
		OutstandingBytes: uint64(p.outstandingBytes.Load()),
	}
}

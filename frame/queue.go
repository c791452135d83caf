package frame

import (
	"context"
	"time"

	"github.com/xaionaro-go/xsync"
)

// Queue is a FIFO of records shared between the producer (the session)
// and the consumer (the decoder reading its input).
type Queue struct {
	locker  xsync.Mutex
	records []*Record
	pushed  chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		pushed: make(chan struct{}, 1),
	}
}

// Push appends the record to the tail and wakes up a waiting consumer.
func (q *Queue) Push(ctx context.Context, r *Record) int {
	l := xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() int {
		q.records = append(q.records, r)
		return len(q.records)
	})
	select {
	case q.pushed <- struct{}{}:
	default:
	}
	return l
}

// Pop removes the head record; returns nil if the queue is empty.
func (q *Queue) Pop(ctx context.Context) *Record {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, q.popLocked)
}

func (q *Queue) popLocked() *Record {
	if len(q.records) == 0 {
		return nil
	}
	r := q.records[0]
	q.records[0] = nil
	q.records = q.records[1:]
	return r
}

// PopWait is Pop which waits up to timeout for a record to be pushed.
func (q *Queue) PopWait(ctx context.Context, timeout time.Duration) *Record {
	if r := q.Pop(ctx); r != nil || timeout <= 0 {
		return r
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			return q.Pop(ctx)
		case <-q.pushed:
			if r := q.Pop(ctx); r != nil {
				return r
			}
		}
	}
}

func (q *Queue) Len(ctx context.Context) int {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() int {
		return len(q.records)
	})
}

// Drain releases every queued record and returns how many there were.
func (q *Queue) Drain(ctx context.Context) int {
	records := xsync.DoR1(ctx, &q.locker, func() []*Record {
		records := q.records
		q.records = nil
		return records
	})
	for _, r := range records {
		r.Release()
	}
	return len(records)
}

// Package frame contains the records flowing between the session and the
// hardware decoder: encoded buffers waiting in the input queue and decoded
// buffers waiting to be retrieved as pictures.
package frame

import (
	"fmt"

	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"go.uber.org/atomic"
)

// Record is a unit of data together with its status. A record with a
// non-nil Buffer owns exactly one reference to it, and Release drops that
// reference together with the record itself.
type Record struct {
	Status hwcodec.Status
	Width  int
	Height int
	PTS    int64
	Buffer *buffer.Buffer

	inUse atomic.Bool
}

type ErrDoubleRelease struct {
	Record *Record
}

func (e ErrDoubleRelease) Error() string {
	return fmt.Sprintf("record %p is released twice", e.Record)
}

// New returns a record from the pool; it takes over the reference of buf
// (which may be nil).
func New(
	status hwcodec.Status,
	width, height int,
	pts int64,
	buf *buffer.Buffer,
) *Record {
	r := Pool.Get()
	r.Status = status
	r.Width = width
	r.Height = height
	r.PTS = pts
	r.Buffer = buf
	r.inUse.Store(true)
	return r
}

func (r *Record) String() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %dx%d pts:%d buf:%s", r.Status, r.Width, r.Height, r.PTS, r.Buffer)
}

// DropBuffer releases the buffer but keeps the record (its metadata is
// still meaningful, e.g. for a dropped picture).
func (r *Record) DropBuffer() {
	if r.Buffer == nil {
		return
	}
	r.Buffer.Release()
	r.Buffer = nil
}

// Release drops the buffer reference (if any) and returns the record to
// the pool. The record must not be used afterwards.
func (r *Record) Release() {
	if !r.inUse.CompareAndSwap(true, false) {
		panic(ErrDoubleRelease{Record: r})
	}
	r.DropBuffer()
	Pool.Put(r)
}

// buffer.go implements reference-counted buffer handles.

// Package buffer implements reference-counted byte buffers shared between
// the session and a hardware decoder. A Buffer is a handle that owns exactly
// one reference to a storage; the storage is reclaimed by its Observer when
// the last reference is released, whichever goroutine does that.
package buffer

import (
	"fmt"

	"go.uber.org/atomic"
)

// Observer is notified exactly once per storage, when its last reference is
// released. The handle passed is the one whose Release dropped the count to
// zero.
type Observer interface {
	SignalBufferReturned(b *Buffer)
}

type storage struct {
	data     []byte
	refCount atomic.Int32
	observer Observer
}

type Buffer struct {
	storage     *storage
	rangeOffset int
	rangeLength int
	meta        Meta
	released    atomic.Bool
}

// ErrDoubleRelease is the panic value when a handle is released twice.
type ErrDoubleRelease struct {
	Buffer *Buffer
}

func (e ErrDoubleRelease) Error() string {
	return fmt.Sprintf("buffer %p is released twice", e.Buffer)
}

// ErrNegativeRefCount is the panic value when a storage gets released more
// times than it was referenced.
type ErrNegativeRefCount struct {
	RefCount int32
}

func (e ErrNegativeRefCount) Error() string {
	return fmt.Sprintf("buffer reference count went negative: %d", e.RefCount)
}

// Wrap creates a handle (reference count 1) around externally owned data.
// The observer may be nil, then the storage is left to the garbage collector.
func Wrap(data []byte, observer Observer) *Buffer {
	s := &storage{
		data:     data,
		observer: observer,
	}
	s.refCount.Store(1)
	return &Buffer{
		storage:     s,
		rangeLength: len(data),
	}
}

func (b *Buffer) String() string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Buffer(%p; range:%d+%d; refs:%d)", b, b.rangeOffset, b.rangeLength, b.storage.refCount.Load())
}

// Data returns the whole underlying storage, ignoring the range.
func (b *Buffer) Data() []byte {
	if b.released.Load() {
		return nil
	}
	return b.storage.data
}

// Bytes returns the [RangeOffset, RangeOffset+RangeLength) part of the storage.
func (b *Buffer) Bytes() []byte {
	if b.released.Load() {
		return nil
	}
	return b.storage.data[b.rangeOffset : b.rangeOffset+b.rangeLength]
}

func (b *Buffer) Size() int {
	return len(b.storage.data)
}

func (b *Buffer) RangeOffset() int {
	return b.rangeOffset
}

func (b *Buffer) RangeLength() int {
	return b.rangeLength
}

func (b *Buffer) SetRange(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(b.storage.data) {
		return fmt.Errorf("range %d+%d is out of the buffer size %d", offset, length, len(b.storage.data))
	}
	b.rangeOffset = offset
	b.rangeLength = length
	return nil
}

func (b *Buffer) Meta() *Meta {
	return &b.meta
}

// RefCount returns the amount of live references to the storage.
func (b *Buffer) RefCount() int32 {
	return b.storage.refCount.Load()
}

func (b *Buffer) IsReleased() bool {
	return b.released.Load()
}

// Clone returns a new handle to the same storage (with a copy of the range
// and the metadata). The clone owns its own reference and has to be
// released independently of b.
func (b *Buffer) Clone() *Buffer {
	if b.released.Load() {
		panic(fmt.Errorf("cloning a released buffer %p", b))
	}
	b.storage.refCount.Inc()
	return &Buffer{
		storage:     b.storage,
		rangeOffset: b.rangeOffset,
		rangeLength: b.rangeLength,
		meta:        b.meta,
	}
}

// Release drops the reference owned by this handle. It is safe to call from
// any goroutine, but only once per handle.
func (b *Buffer) Release() {
	if !b.released.CompareAndSwap(false, true) {
		panic(ErrDoubleRelease{Buffer: b})
	}
	s := b.storage
	refs := s.refCount.Dec()
	switch {
	case refs > 0:
		return
	case refs < 0:
		panic(ErrNegativeRefCount{RefCount: refs})
	}
	if s.observer != nil {
		s.observer.SignalBufferReturned(b)
	}
}

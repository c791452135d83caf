package buffer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferCloneAndRelease(t *testing.T) {
	ctx := context.Background()
	p := NewPool(0)

	b, err := p.Get(ctx, 16)
	require.NoError(t, err)
	copy(b.Bytes(), []byte("0123456789abcdef"))
	b.Meta().SetTime(42)
	require.Equal(t, int32(1), b.RefCount())

	c := b.Clone()
	require.Equal(t, int32(2), b.RefCount())
	require.Equal(t, b.Bytes(), c.Bytes())
	ts, ok := c.Meta().FindTime()
	require.True(t, ok)
	require.Equal(t, int64(42), ts)

	b.Release()
	require.Nil(t, b.Bytes())
	require.Equal(t, []byte("0123456789abcdef"), c.Bytes())
	require.Equal(t, uint64(1), p.Stats().Outstanding)

	c.Release()
	stats := p.Stats()
	require.Equal(t, uint64(1), stats.Allocated)
	require.Equal(t, uint64(1), stats.Returned)
	require.Zero(t, stats.Outstanding)
	require.Zero(t, stats.OutstandingBytes)
}

func TestBufferDoubleReleasePanics(t *testing.T) {
	b, err := NewPool(0).Get(context.Background(), 1)
	require.NoError(t, err)
	b.Release()
	require.PanicsWithValue(t, ErrDoubleRelease{Buffer: b}, b.Release)
}

func TestBufferSetRange(t *testing.T) {
	b := Wrap([]byte("xxhelloxx"), nil)
	require.NoError(t, b.SetRange(2, 5))
	require.Equal(t, []byte("hello"), b.Bytes())
	require.Equal(t, 2, b.RangeOffset())
	require.Equal(t, 5, b.RangeLength())
	require.Error(t, b.SetRange(5, 5))
	b.Release()
}

func TestPoolOutOfMemory(t *testing.T) {
	ctx := context.Background()
	p := NewPool(100)

	b0, err := p.Get(ctx, 60)
	require.NoError(t, err)

	_, err = p.Get(ctx, 60)
	require.ErrorAs(t, err, &ErrOutOfMemory{})
	require.Equal(t, uint64(60), p.Stats().OutstandingBytes)

	b0.Release()
	b1, err := p.Get(ctx, 60)
	require.NoError(t, err)
	b1.Release()
	require.Zero(t, p.Stats().Outstanding)
}

func TestPoolConcurrentRelease(t *testing.T) {
	ctx := context.Background()
	p := NewPool(0)

	const buffers = 100
	const clones = 8

	var wg sync.WaitGroup
	for i := 0; i < buffers; i++ {
		b, err := p.Get(ctx, 32)
		require.NoError(t, err)
		for j := 0; j < clones; j++ {
			c := b.Clone()
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Release()
			}()
		}
		b.Release()
	}
	wg.Wait()

	stats := p.Stats()
	require.Equal(t, uint64(buffers), stats.Allocated)
	require.Equal(t, uint64(buffers), stats.Returned)
	require.Zero(t, stats.OutstandingBytes)
}

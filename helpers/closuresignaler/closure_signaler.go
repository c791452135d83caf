// closure_signaler.go provides a one-shot "closed" signal.

// Package closuresignaler provides a one-shot "closed" signal that can be
// both polled and waited on.
package closuresignaler

import (
	"context"
	"sync"

	"github.com/xaionaro-go/hwvideodecoder/logger"
)

type ClosureSignaler struct {
	closeOnce sync.Once
	c         chan struct{}
}

func New() *ClosureSignaler {
	return &ClosureSignaler{
		c: make(chan struct{}),
	}
}

func (c *ClosureSignaler) CloseChan() <-chan struct{} {
	return c.c
}

// Close marks the signaler closed and reports whether this call was the one
// that closed it.
func (c *ClosureSignaler) Close(ctx context.Context) (closedNow bool) {
	logger.Tracef(ctx, "Close")
	defer func() { logger.Tracef(ctx, "/Close: %t", closedNow) }()
	c.closeOnce.Do(func() {
		close(c.c)
		closedNow = true
	})
	return
}

func (c *ClosureSignaler) IsClosed() bool {
	select {
	case <-c.c:
		return true
	default:
		return false
	}
}

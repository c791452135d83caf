package hwcodec

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/hwvideodecoder/buffer"
)

// Source is the pull contract a Decoder reads encoded buffers from. Read
// never returns a buffer together with a non-OK status; a returned buffer is
// owned by the caller of Read.
type Source interface {
	Format() Format
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Read(ctx context.Context) (*buffer.Buffer, Status)
}

// Decoder is a started hardware decode session.
//
// Read blocks for as long as the decoder needs to produce one decoded
// buffer (or a status). The decoder may release the buffers it got from the
// Source on any goroutine; Stop must not return before those releases are
// done.
//
// Stop also releases everything acquired by CreateDecoder, so it is called
// even if Start failed.
type Decoder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Read(ctx context.Context) (*buffer.Buffer, Status)
	Format() Format
}

// Client is a connection to the hardware codec broker.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	CreateDecoder(
		ctx context.Context,
		format Format,
		source Source,
		flags CreateFlags,
	) (Decoder, error)
}

// Backend is a platform implementation of the hardware codec stack.
type Backend interface {
	fmt.Stringer

	// StartThreadPool starts the process-wide service threads required
	// before any Client is used. Implementations must make repeated calls
	// cheap no-ops.
	StartThreadPool(ctx context.Context) error
	NewClient(ctx context.Context) (Client, error)
}

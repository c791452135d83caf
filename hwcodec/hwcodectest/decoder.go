package hwcodectest

import (
	"context"
	"fmt"
	"sync"

	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// ScriptedRead is a Read result to return instead of echoing the source.
type ScriptedRead struct {
	Status hwcodec.Status

	// Payload, if not nil, is returned as a buffer along with Status.
	Payload []byte
}

// Decoder echoes each buffer read from the Source as a decoded buffer with
// the same bytes and the same time metadata.
type Decoder struct {
	Client      *Client
	InputFormat hwcodec.Format
	Source      hwcodec.Source
	Flags       hwcodec.CreateFlags
	Pool        *buffer.Pool

	ReadCalls     atomic.Int64
	InputsRead    atomic.Int64
	InputReleases atomic.Int64
	Started       atomic.Bool
	Stopped       atomic.Bool

	locker   xsync.Mutex
	format   hwcodec.Format
	script   []ScriptedRead
	releases sync.WaitGroup
}

var _ hwcodec.Decoder = (*Decoder)(nil)

func (d *Decoder) Start(ctx context.Context) error {
	if err := d.Client.Backend.Config.StartError; err != nil {
		return err
	}
	if err := d.Source.Start(ctx); err != nil {
		return fmt.Errorf("unable to start the source: %w", err)
	}
	d.Started.Store(true)
	return nil
}

// Stop waits until every consumed input buffer is released. It may be
// called on a decoder that failed to start.
func (d *Decoder) Stop(ctx context.Context) error {
	if d.Stopped.Swap(true) {
		return fmt.Errorf("already stopped")
	}
	if !d.Started.Load() {
		return nil
	}
	d.releases.Wait()
	return d.Source.Stop(ctx)
}

func lockCtx() context.Context {
	return xsync.WithNoLogging(context.Background(), true)
}

func (d *Decoder) Format() hwcodec.Format {
	return xsync.DoR1(lockCtx(), &d.locker, func() hwcodec.Format {
		return d.format
	})
}

// SetFormat changes the output format reported from now on.
func (d *Decoder) SetFormat(fn func(*hwcodec.Format)) {
	d.locker.Do(lockCtx(), func() {
		fn(&d.format)
	})
}

// Enqueue schedules results to be returned by the next Read calls, before
// the decoder goes back to echoing the source.
func (d *Decoder) Enqueue(reads ...ScriptedRead) {
	d.locker.Do(lockCtx(), func() {
		d.script = append(d.script, reads...)
	})
}

// WaitReleases blocks until the asynchronous input releases issued so far
// are done.
func (d *Decoder) WaitReleases() {
	d.releases.Wait()
}

func (d *Decoder) Read(ctx context.Context) (*buffer.Buffer, hwcodec.Status) {
	d.ReadCalls.Inc()
	if d.Stopped.Load() {
		return nil, hwcodec.StatusEndOfStream
	}

	if scripted, ok := d.popScript(); ok {
		if scripted.Payload == nil {
			return nil, scripted.Status
		}
		out, err := d.Pool.Get(ctx, len(scripted.Payload))
		if err != nil {
			return nil, hwcodec.Status(-12)
		}
		copy(out.Bytes(), scripted.Payload)
		return out, scripted.Status
	}

	in, status := d.Source.Read(ctx)
	if status != hwcodec.StatusOK {
		return nil, status
	}
	d.InputsRead.Inc()

	out, err := d.Pool.Get(ctx, in.RangeLength())
	if err != nil {
		d.release(in)
		return nil, hwcodec.Status(-12)
	}
	copy(out.Bytes(), in.Bytes())
	out.Meta().Time = in.Meta().Time
	d.release(in)
	return out, hwcodec.StatusOK
}

func (d *Decoder) popScript() (ScriptedRead, bool) {
	return xsync.DoR2(lockCtx(), &d.locker, func() (ScriptedRead, bool) {
		if len(d.script) == 0 {
			return ScriptedRead{}, false
		}
		r := d.script[0]
		d.script = d.script[1:]
		return r, true
	})
}

func (d *Decoder) release(in *buffer.Buffer) {
	if d.Client.Backend.Config.SynchronousRelease {
		in.Release()
		d.InputReleases.Inc()
		return
	}
	d.releases.Add(1)
	go func() {
		defer d.releases.Done()
		in.Release()
		d.InputReleases.Inc()
	}()
}

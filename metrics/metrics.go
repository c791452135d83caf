// Package metrics exposes the statistics of decode sessions as Prometheus
// metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xaionaro-go/hwvideodecoder"
	"github.com/xaionaro-go/xsync"
)

const namespace = "hwvideodecoder"

// Session is the part of *hwvideodecoder.Session the collector needs.
type Session interface {
	Stats() hwvideodecoder.Statistics
	QueueLength(ctx context.Context) int
	DecoderComponent() string
}

type counterDesc struct {
	desc  *prometheus.Desc
	value func(hwvideodecoder.Statistics) float64
}

// Collector is a prometheus.Collector reporting the statistics of the
// sessions added to it. Sessions are labeled with "session" (an arbitrary
// name given on Add) and "component" (the decoder component name).
type Collector struct {
	locker   xsync.Mutex
	sessions map[string]Session

	counters      []counterDesc
	queueLength   *prometheus.Desc
	inputBytes    *prometheus.Desc
	inputOutstand *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector() *Collector {
	labels := []string{"session", "component"}
	newDesc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	newCounter := func(name, help string, value func(hwvideodecoder.Statistics) float64) counterDesc {
		return counterDesc{desc: newDesc(name, help), value: value}
	}
	return &Collector{
		sessions: map[string]Session{},
		counters: []counterDesc{
			newCounter("submitted_bytes_total", "Total size of the submitted encoded packets",
				func(s hwvideodecoder.Statistics) float64 { return float64(s.BytesSubmitted) }),
			newCounter("enqueued_buffers_total", "Total amount of encoded packets queued for the decoder",
				func(s hwvideodecoder.Statistics) float64 { return float64(s.BuffersEnqueued) }),
			newCounter("decode_pulls_total", "Total amount of reads from the decoder",
				func(s hwvideodecoder.Statistics) float64 { return float64(s.DecodePulls) }),
			newCounter("pictures_total", "Total amount of decoded pictures",
				func(s hwvideodecoder.Statistics) float64 { return float64(s.Pictures) }),
			newCounter("pictures_dropped_total", "Total amount of pictures dropped right after decoding",
				func(s hwvideodecoder.Statistics) float64 { return float64(s.PicturesDropped) }),
			newCounter("format_changes_total", "Total amount of output format changes",
				func(s hwvideodecoder.Statistics) float64 { return float64(s.FormatChanges) }),
			newCounter("decode_errors_total", "Total amount of decoding errors",
				func(s hwvideodecoder.Statistics) float64 { return float64(s.DecodeErrors) }),
		},
		queueLength:   newDesc("input_queue_length", "Amount of encoded packets waiting for the decoder"),
		inputBytes:    newDesc("input_outstanding_bytes", "Size of the input buffers not returned to the pool yet"),
		inputOutstand: newDesc("input_outstanding_buffers", "Amount of the input buffers not returned to the pool yet"),
	}
}

func lockCtx() context.Context {
	return xsync.WithNoLogging(context.Background(), true)
}

func (c *Collector) Add(name string, s Session) {
	c.locker.Do(lockCtx(), func() {
		c.sessions[name] = s
	})
}

func (c *Collector) Remove(name string) {
	c.locker.Do(lockCtx(), func() {
		delete(c.sessions, name)
	})
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, counter := range c.counters {
		ch <- counter.desc
	}
	ch <- c.queueLength
	ch <- c.inputBytes
	ch <- c.inputOutstand
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx := lockCtx()
	sessions := xsync.DoR1(ctx, &c.locker, func() map[string]Session {
		sessions := make(map[string]Session, len(c.sessions))
		for name, s := range c.sessions {
			sessions[name] = s
		}
		return sessions
	})

	for name, s := range sessions {
		stats := s.Stats()
		labels := []string{name, s.DecoderComponent()}
		for _, counter := range c.counters {
			ch <- prometheus.MustNewConstMetric(counter.desc, prometheus.CounterValue, counter.value(stats), labels...)
		}
		ch <- prometheus.MustNewConstMetric(c.queueLength, prometheus.GaugeValue, float64(s.QueueLength(ctx)), labels...)
		ch <- prometheus.MustNewConstMetric(c.inputBytes, prometheus.GaugeValue, float64(stats.InputBuffers.OutstandingBytes), labels...)
		ch <- prometheus.MustNewConstMetric(c.inputOutstand, prometheus.GaugeValue, float64(stats.InputBuffers.Outstanding), labels...)
	}
}

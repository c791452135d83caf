package metrics

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/hwvideodecoder"
	"github.com/xaionaro-go/hwvideodecoder/buffer"
)

type fakeSession struct {
	stats hwvideodecoder.Statistics
	queue int
}

func (s *fakeSession) Stats() hwvideodecoder.Statistics { return s.stats }

func (s *fakeSession) QueueLength(ctx context.Context) int { return s.queue }

func (s *fakeSession) DecoderComponent() string { return "OMX.test.decoder" }

func TestCollector(t *testing.T) {
	c := NewCollector()
	require.Equal(t, 0, testutil.CollectAndCount(c))

	c.Add("main", &fakeSession{
		stats: hwvideodecoder.Statistics{
			BytesSubmitted: 1000,
			Pictures:       7,
			DecodeErrors:   1,
			InputBuffers:   buffer.PoolStats{Outstanding: 3, OutstandingBytes: 300},
		},
		queue: 2,
	})
	require.Equal(t, 10, testutil.CollectAndCount(c))

	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(c))
	families, err := registry.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[family.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[family.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	require.Equal(t, float64(1000), values["hwvideodecoder_submitted_bytes_total"])
	require.Equal(t, float64(7), values["hwvideodecoder_pictures_total"])
	require.Equal(t, float64(1), values["hwvideodecoder_decode_errors_total"])
	require.Equal(t, float64(2), values["hwvideodecoder_input_queue_length"])
	require.Equal(t, float64(300), values["hwvideodecoder_input_outstanding_bytes"])
	require.Equal(t, float64(3), values["hwvideodecoder_input_outstanding_buffers"])

	c.Remove("main")
	require.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestCollectorConcurrentUpdates(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("session-%d", i)
			for j := 0; j < 100; j++ {
				c.Add(name, &fakeSession{})
				_ = testutil.CollectAndCount(c)
				c.Remove(name)
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, 0, testutil.CollectAndCount(c))
}

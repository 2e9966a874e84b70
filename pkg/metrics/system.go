package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RuntimeGauges tracks Go runtime statistics for the bridge process.
var RuntimeGauges = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "klarna_bridge_runtime_stats",
		Help: "Go runtime statistics",
	},
	[]string{"type"},
)

// CollectRuntimeMetrics samples runtime statistics on the given interval
// until the context is cancelled.
func CollectRuntimeMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)

			RuntimeGauges.WithLabelValues("goroutines").Set(float64(runtime.NumGoroutine()))
			RuntimeGauges.WithLabelValues("heap_alloc_bytes").Set(float64(stats.HeapAlloc))
			RuntimeGauges.WithLabelValues("heap_inuse_bytes").Set(float64(stats.HeapInuse))
			RuntimeGauges.WithLabelValues("gc_runs").Set(float64(stats.NumGC))
		}
	}
}

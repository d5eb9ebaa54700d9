package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// PerfStatsInterval is how often process stats are sampled.
const PerfStatsInterval = 30 * time.Second

type perfGauges struct {
	cpu         metric.Float64Gauge
	memory      metric.Int64Gauge
	liveObjects metric.Int64Gauge
	goroutines  metric.Int64Gauge
}

func newPerfGauges() perfGauges {
	meter := otel.Meter("go.perf_stats")
	var g perfGauges
	g.cpu, _ = meter.Float64Gauge("cpu_usage")
	g.memory, _ = meter.Int64Gauge("allocated_mb")
	g.liveObjects, _ = meter.Int64Gauge("live_objects")
	g.goroutines, _ = meter.Int64Gauge("goroutine_count")
	return g
}

// InstrumentPerfStats samples process stats until ctx is done, the gauges are
// resolved here so they bind to the meter provider installed by Setup.
func InstrumentPerfStats(ctx context.Context) {
	gauges := newPerfGauges()
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(PerfStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, time.Second, false)
				if err == nil && len(cpuUsage) > 0 {
					gauges.cpu.Record(ctx, cpuUsage[0])
				} else if err != nil {
					slog.Debug("failed to read cpu usage", "err", err)
				}

				gauges.memory.Record(ctx, int64(memStats.Alloc/1_000_000))
				gauges.liveObjects.Record(ctx, int64(memStats.Mallocs)-int64(memStats.Frees))
				gauges.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
			case <-ctx.Done():
				return
			}
		}
	}()
}

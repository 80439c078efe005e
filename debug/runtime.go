// Package debug logs runtime diagnostics while --debug is set: goroutine
// count, stack and heap usage, and the process resident set size.
package debug

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// DefaultInterval is used when Start is given a non-positive interval.
const DefaultInterval = 2 * time.Second

// Start logs runtime stats every interval until ctx is done.
func Start(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		logger.Warn("debug: process handle unavailable, rss disabled", "error", err)
		proc = nil
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			attrs, rssErr := Sample(ctx, proc)
			if rssErr != nil && !rssErrLogged {
				logger.Warn("debug: rss query failed", "error", rssErr)
				rssErrLogged = true
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "runtime", attrs...)
		}
	}()
}

// Sample collects one set of runtime stats. proc may be nil, in which case
// rss is reported as 0.
func Sample(ctx context.Context, proc *process.Process) ([]slog.Attr, error) {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var goroutines uint64
	if samples[0].Value.Kind() == metrics.KindUint64 {
		goroutines = samples[0].Value.Uint64()
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	var rss uint64
	var err error
	if proc != nil {
		var mem *process.MemoryInfoStat
		if mem, err = proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			rss = mem.RSS
		}
	}
	return []slog.Attr{
		slog.Uint64("goroutines", goroutines),
		slog.Uint64("stack_inuse", ms.StackInuse),
		slog.Uint64("heap_alloc", ms.HeapAlloc),
		slog.Uint64("heap_inuse", ms.HeapInuse),
		slog.Uint64("heap_sys", ms.HeapSys),
		slog.Uint64("next_gc", ms.NextGC),
		slog.Uint64("num_gc", uint64(ms.NumGC)),
		slog.Uint64("rss", rss),
	}, err
}

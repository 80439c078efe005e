package macro

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/soocke/pixel-macro-go/domain/capture"
)

const watchStatsLogInterval = 5 * time.Second

// WatchOptions configures a Watcher.
type WatchOptions struct {
	Threshold float64
	Interval  time.Duration
	// SkipUnchanged reuses the previous result when the captured region is
	// identical to the previous frame.
	SkipUnchanged bool
	// OnResult is called after every iteration.
	OnResult func(Result)
}

// Snapshot is the most recent watch result.
type Snapshot struct {
	Result   Result
	At       time.Time
	Sequence uint64
}

// WatchStats summarises watch loop behaviour.
type WatchStats struct {
	Runs        uint64
	Hits        uint64
	Misses      uint64
	Reused      uint64
	AvgDuration time.Duration
	Last        Snapshot
}

// Watcher repeatedly searches for one template until its context ends.
type Watcher struct {
	m    *Macro
	path string
	opts WatchOptions

	runs     atomic.Uint64
	hits     atomic.Uint64
	misses   atomic.Uint64
	reused   atomic.Uint64
	nanos    atomic.Uint64
	sequence atomic.Uint64
	latest   atomic.Pointer[Snapshot]

	lastHash *goimagehash.ImageHash
	lastRect image.Rectangle
	lastPix  []byte
	lastRes  Result
}

// NewWatcher returns a Watcher for the template at path.
func (m *Macro) NewWatcher(path string, opts WatchOptions) *Watcher {
	return &Watcher{m: m, path: path, opts: opts}
}

// Latest returns the most recent result.
func (w *Watcher) Latest() Snapshot {
	if s := w.latest.Load(); s != nil {
		return *s
	}
	return Snapshot{}
}

// Stats returns counters accumulated so far.
func (w *Watcher) Stats() WatchStats {
	runs := w.runs.Load()
	var avg time.Duration
	if runs > 0 {
		avg = time.Duration(w.nanos.Load() / runs)
	}
	return WatchStats{
		Runs:        runs,
		Hits:        w.hits.Load(),
		Misses:      w.misses.Load(),
		Reused:      w.reused.Load(),
		AvgDuration: avg,
		Last:        w.Latest(),
	}
}

// Run searches, reports and sleeps Interval until ctx is cancelled. Only a
// template that cannot be loaded ends the loop with an error.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.m.logger
	lastLog := time.Now()
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := w.step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		w.record(res)
		if w.opts.OnResult != nil {
			w.opts.OnResult(res)
		}
		if time.Since(lastLog) >= watchStatsLogInterval {
			st := w.Stats()
			logger.Info("watch stats",
				slog.Uint64("runs", st.Runs),
				slog.Uint64("hits", st.Hits),
				slog.Uint64("misses", st.Misses),
				slog.Uint64("reused", st.Reused),
				slog.Duration("avg", st.AvgDuration),
			)
			lastLog = time.Now()
		}
		if err := sleep(ctx, w.opts.Interval); err != nil {
			return nil
		}
	}
}

// step performs one search.
func (w *Watcher) step(ctx context.Context) (Result, error) {
	m := w.m
	start := time.Now()
	tpl, err := m.templates.Get(w.path)
	if err != nil {
		return Result{}, err
	}
	frame, rect, err := m.grab(ctx, tpl.ROI)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if isClientErr(err) {
			return Result{}, err
		}
		m.logger.Error("capture failed", "template", w.path, "rect", rect, "error", err)
		w.lastHash = nil
		return Result{Duration: time.Since(start)}, nil
	}
	defer capture.RecycleFrame(frame)

	if w.opts.SkipUnchanged {
		hash, herr := goimagehash.DifferenceHash(frame)
		if herr == nil && w.unchanged(hash, rect, frame) {
			w.reused.Add(1)
			res := w.lastRes
			res.Duration = time.Since(start)
			return res, nil
		}
		if herr == nil {
			w.lastHash, w.lastRect = hash, rect
			w.lastPix = append(w.lastPix[:0], frame.Pix...)
		} else {
			w.lastHash = nil
		}
	}

	res := evaluate(frame, rect, tpl, m.matchOptions(w.opts.Threshold))
	res.Duration = time.Since(start)
	w.lastRes = res
	return res, nil
}

// unchanged reports whether frame equals the previous frame. The hash is a
// cheap prefilter; a small change inside a large region can keep the
// difference hash identical, so equal hashes are confirmed on the pixels.
func (w *Watcher) unchanged(hash *goimagehash.ImageHash, rect image.Rectangle, frame *image.RGBA) bool {
	if w.lastHash == nil || rect != w.lastRect {
		return false
	}
	if d, err := hash.Distance(w.lastHash); err != nil || d != 0 {
		return false
	}
	return bytes.Equal(w.lastPix, frame.Pix)
}

func (w *Watcher) record(res Result) {
	w.runs.Add(1)
	w.nanos.Add(uint64(res.Duration))
	if res.Found {
		w.hits.Add(1)
	} else {
		w.misses.Add(1)
	}
	w.latest.Store(&Snapshot{Result: res, At: time.Now(), Sequence: w.sequence.Add(1)})
}

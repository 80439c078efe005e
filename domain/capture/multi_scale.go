package capture

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// maxScales caps the number of generated scale factors.
const maxScales = 200

// scaleFactors expands opts into the list of factors to evaluate.
func scaleFactors(opts MatchOptions) []float64 {
	if len(opts.Scales) > 0 {
		out := make([]float64, 0, len(opts.Scales))
		for _, s := range opts.Scales {
			if s.Factor > 0 {
				out = append(out, s.Factor)
			}
		}
		return out
	}
	if opts.MinScale > 0 && opts.MaxScale > opts.MinScale && opts.ScaleStep > 0 {
		steps := 1 + int((opts.MaxScale-opts.MinScale)/opts.ScaleStep+0.5)
		out := make([]float64, 0, min(steps, maxScales))
		for s := opts.MinScale; s <= opts.MaxScale+1e-9 && len(out) < maxScales; s += opts.ScaleStep {
			out = append(out, s)
		}
		return out
	}
	if opts.MinScale > 0 && opts.MinScale == opts.MaxScale {
		return []float64{opts.MinScale}
	}
	return []float64{1.0}
}

// Match finds pattern inside frame. With a single scale (the default) this
// is one NCC pass; with several scales they are evaluated in parallel and
// the best result wins, optionally stopping early once a scale reaches
// StopOnScore.
func Match(frame *image.RGBA, pattern *Pattern, opts MatchOptions) MatchResult {
	if frame == nil || pattern == nil {
		return MatchResult{Score: -1}
	}
	start := time.Now()
	fp := buildPlaneSet(frame, opts.Color)
	factors := scaleFactors(opts)

	if len(factors) == 1 {
		res := matchPrepared(fp, pattern.at(factors[0], opts.Color), opts)
		res.Scale = factors[0]
		res.ScalesEvaluated = 1
		res.Duration = time.Since(start)
		return res
	}

	var earlyStop atomic.Bool
	var evaluated atomic.Int64
	results := make(chan MatchResult, len(factors))
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())

	for _, factor := range factors {
		wg.Add(1)
		sem <- struct{}{}
		go func(factor float64) {
			defer wg.Done()
			defer func() { <-sem }()
			if earlyStop.Load() {
				return
			}
			pc := pattern.at(factor, opts.Color)
			if pc == nil {
				return
			}
			res := matchPrepared(fp, pc, opts)
			res.Scale = factor
			evaluated.Add(1)
			if opts.StopOnScore > 0 && res.Score >= opts.StopOnScore {
				earlyStop.Store(true)
			}
			results <- res
		}(factor)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	best := MatchResult{Score: -1, Scale: 1}
	for r := range results {
		if r.Score > best.Score {
			best = r
		}
	}
	best.Found = best.Score >= opts.threshold()
	best.ScalesEvaluated = int(evaluated.Load())
	best.Duration = time.Since(start)
	return best
}

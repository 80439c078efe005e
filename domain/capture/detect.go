package capture

import (
	"errors"
	"image"

	"github.com/soocke/pixel-macro-go/config"
)

// ErrNoInput is returned by Detect when the frame or pattern is missing.
var ErrNoInput = errors.New("capture: missing frame or template")

// OptionsFromConfig maps the match section of cfg onto MatchOptions. A nil
// cfg yields the defaults.
func OptionsFromConfig(cfg *config.Config) MatchOptions {
	var local config.Config
	if cfg == nil {
		local = *config.DefaultConfig()
	} else {
		local = *cfg
	}
	_ = local.Validate()
	m := local.Match
	return MatchOptions{
		Threshold:   m.Threshold,
		Stride:      m.Stride,
		Refine:      m.Refine,
		Color:       m.UseRGB,
		MinScale:    m.MinScale,
		MaxScale:    m.MaxScale,
		ScaleStep:   m.ScaleStep,
		StopOnScore: m.StopOnScore,
	}
}

// Detect matches pattern against frame using the configured options.
func Detect(frame *image.RGBA, pattern *Pattern, cfg *config.Config) (MatchResult, error) {
	if frame == nil || pattern == nil {
		return MatchResult{Score: -1}, ErrNoInput
	}
	return Match(frame, pattern, OptionsFromConfig(cfg)), nil
}

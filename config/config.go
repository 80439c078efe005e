package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MACRO_MATCH_THRESHOLD.
const EnvPrefix = "MACRO"

// Config holds runtime configuration for capture, matching and the ROI tool.
// Fields may be loaded from a JSON/YAML/TOML file, environment variables and
// command-line flags.
type Config struct {
	Debug     bool   `json:"debug" mapstructure:"debug"`
	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogFormat string `json:"log_format" mapstructure:"log_format"`

	Window  WindowConfig  `json:"window" mapstructure:"window"`
	Capture CaptureConfig `json:"capture" mapstructure:"capture"`
	Match   MatchConfig   `json:"match" mapstructure:"match"`
	Action  ActionConfig  `json:"action" mapstructure:"action"`
	Watch   WatchConfig   `json:"watch" mapstructure:"watch"`
	ROITool ROIToolConfig `json:"roi_tool" mapstructure:"roi_tool"`
}

// WindowConfig selects the target window.
type WindowConfig struct {
	Title      string `json:"title" mapstructure:"title"`
	Process    string `json:"process" mapstructure:"process"`
	SettleMs   int    `json:"settle_ms" mapstructure:"settle_ms"`
	DPIAware   bool   `json:"dpi_aware" mapstructure:"dpi_aware"`
	NoActivate bool   `json:"no_activate" mapstructure:"no_activate"`
}

// CaptureConfig picks the frame grabber.
type CaptureConfig struct {
	Backend      string `json:"backend" mapstructure:"backend"`
	Retries      int    `json:"retries" mapstructure:"retries"`
	RetryDelayMs int    `json:"retry_delay_ms" mapstructure:"retry_delay_ms"`
}

// MatchConfig holds detection parameters.
type MatchConfig struct {
	Threshold   float64 `json:"threshold" mapstructure:"threshold"`
	Stride      int     `json:"stride" mapstructure:"stride"`
	Refine      bool    `json:"refine" mapstructure:"refine"`
	UseRGB      bool    `json:"use_rgb" mapstructure:"use_rgb"`
	MinScale    float64 `json:"min_scale" mapstructure:"min_scale"`
	MaxScale    float64 `json:"max_scale" mapstructure:"max_scale"`
	ScaleStep   float64 `json:"scale_step" mapstructure:"scale_step"`
	StopOnScore float64 `json:"stop_on_score" mapstructure:"stop_on_score"`
}

// ActionConfig controls input injected at a match.
type ActionConfig struct {
	Button      string `json:"button" mapstructure:"button"`
	PreDelayMs  int    `json:"pre_delay_ms" mapstructure:"pre_delay_ms"`
	PostDelayMs int    `json:"post_delay_ms" mapstructure:"post_delay_ms"`
}

// WatchConfig controls the polling loop.
type WatchConfig struct {
	IntervalMs    int  `json:"interval_ms" mapstructure:"interval_ms"`
	SkipUnchanged bool `json:"skip_unchanged" mapstructure:"skip_unchanged"`
}

// ROIToolConfig holds the ROI tool window and zoom settings.
type ROIToolConfig struct {
	Width      int     `json:"width" mapstructure:"width"`
	Height     int     `json:"height" mapstructure:"height"`
	MinZoom    float64 `json:"min_zoom" mapstructure:"min_zoom"`
	MaxZoom    float64 `json:"max_zoom" mapstructure:"max_zoom"`
	ZoomStep   float64 `json:"zoom_step" mapstructure:"zoom_step"`
	MaxDisplay int     `json:"max_display" mapstructure:"max_display"`
	Dark       bool    `json:"dark" mapstructure:"dark"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:     false,
		LogLevel:  "info",
		LogFormat: "json",
		Window: WindowConfig{
			SettleMs: 500,
		},
		Capture: CaptureConfig{
			Backend:      "gdi",
			Retries:      1,
			RetryDelayMs: 20,
		},
		Match: MatchConfig{
			Threshold:   0.80,
			Stride:      1,
			Refine:      true,
			UseRGB:      true,
			MinScale:    1.0,
			MaxScale:    1.0,
			ScaleStep:   0.05,
			StopOnScore: 0,
		},
		Action: ActionConfig{
			Button: "left",
		},
		Watch: WatchConfig{
			IntervalMs: 200,
		},
		ROITool: ROIToolConfig{
			Width:      1200,
			Height:     800,
			MinZoom:    0.1,
			MaxZoom:    10.0,
			ZoomStep:   0.1,
			MaxDisplay: 0,
		},
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	def := DefaultConfig()
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat != "json" && c.LogFormat != "text" {
		c.LogFormat = def.LogFormat
	}
	if c.Window.SettleMs < 0 {
		c.Window.SettleMs = def.Window.SettleMs
	}
	c.Capture.Backend = strings.ToLower(strings.TrimSpace(c.Capture.Backend))
	if c.Capture.Backend == "" {
		c.Capture.Backend = def.Capture.Backend
	}
	if c.Capture.Retries < 0 {
		c.Capture.Retries = 0
	}
	if c.Capture.RetryDelayMs < 0 {
		c.Capture.RetryDelayMs = def.Capture.RetryDelayMs
	}
	if c.Match.Threshold <= 0 || c.Match.Threshold > 1 {
		c.Match.Threshold = def.Match.Threshold
	}
	if c.Match.Stride <= 0 {
		c.Match.Stride = 1
	}
	if c.Match.MinScale <= 0 {
		c.Match.MinScale = def.Match.MinScale
	}
	if c.Match.MaxScale <= 0 || c.Match.MaxScale < c.Match.MinScale {
		c.Match.MaxScale = c.Match.MinScale
	}
	if c.Match.ScaleStep <= 0 {
		c.Match.ScaleStep = def.Match.ScaleStep
	}
	if span := c.Match.MaxScale - c.Match.MinScale; span > 0 && c.Match.ScaleStep > span {
		c.Match.ScaleStep = span / 4
	}
	if c.Match.StopOnScore < 0 || c.Match.StopOnScore > 1 {
		c.Match.StopOnScore = 0
	}
	if c.Action.Button == "" {
		c.Action.Button = def.Action.Button
	}
	if c.Action.PreDelayMs < 0 {
		c.Action.PreDelayMs = 0
	}
	if c.Action.PostDelayMs < 0 {
		c.Action.PostDelayMs = 0
	}
	if c.Watch.IntervalMs < 0 {
		c.Watch.IntervalMs = def.Watch.IntervalMs
	}
	if c.ROITool.Width <= 0 {
		c.ROITool.Width = def.ROITool.Width
	}
	if c.ROITool.Height <= 0 {
		c.ROITool.Height = def.ROITool.Height
	}
	if c.ROITool.MinZoom <= 0 {
		c.ROITool.MinZoom = def.ROITool.MinZoom
	}
	if c.ROITool.MaxZoom < c.ROITool.MinZoom {
		c.ROITool.MaxZoom = def.ROITool.MaxZoom
		if c.ROITool.MaxZoom < c.ROITool.MinZoom {
			c.ROITool.MaxZoom = c.ROITool.MinZoom
		}
	}
	if c.ROITool.ZoomStep <= 0 || c.ROITool.ZoomStep >= 1 {
		c.ROITool.ZoomStep = def.ROITool.ZoomStep
	}
	if c.ROITool.MaxDisplay < 0 {
		c.ROITool.MaxDisplay = 0
	}
	return nil
}

// newViper returns a viper instance primed with defaults and environment
// overrides.
func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	defaults := map[string]any{
		"debug":                  def.Debug,
		"log_level":              def.LogLevel,
		"log_format":             def.LogFormat,
		"window.title":           def.Window.Title,
		"window.process":         def.Window.Process,
		"window.settle_ms":       def.Window.SettleMs,
		"window.dpi_aware":       def.Window.DPIAware,
		"window.no_activate":     def.Window.NoActivate,
		"capture.backend":        def.Capture.Backend,
		"capture.retries":        def.Capture.Retries,
		"capture.retry_delay_ms": def.Capture.RetryDelayMs,
		"match.threshold":        def.Match.Threshold,
		"match.stride":           def.Match.Stride,
		"match.refine":           def.Match.Refine,
		"match.use_rgb":          def.Match.UseRGB,
		"match.min_scale":        def.Match.MinScale,
		"match.max_scale":        def.Match.MaxScale,
		"match.scale_step":       def.Match.ScaleStep,
		"match.stop_on_score":    def.Match.StopOnScore,
		"action.button":          def.Action.Button,
		"action.pre_delay_ms":    def.Action.PreDelayMs,
		"action.post_delay_ms":   def.Action.PostDelayMs,
		"watch.interval_ms":      def.Watch.IntervalMs,
		"watch.skip_unchanged":   def.Watch.SkipUnchanged,
		"roi_tool.width":         def.ROITool.Width,
		"roi_tool.height":        def.ROITool.Height,
		"roi_tool.min_zoom":      def.ROITool.MinZoom,
		"roi_tool.max_zoom":      def.ROITool.MaxZoom,
		"roi_tool.zoom_step":     def.ROITool.ZoomStep,
		"roi_tool.max_display":   def.ROITool.MaxDisplay,
		"roi_tool.dark":          def.ROITool.Dark,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from path, layered over defaults and under
// MACRO_* environment overrides. An empty path or a missing file yields the
// defaults (plus environment). On a parse error it returns defaults with the
// error.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
				v.SetConfigType(ext)
			}
			if err := v.ReadInConfig(); err != nil {
				return DefaultConfig(), err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), err
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soocke/pixel-macro-go/app"
	"github.com/soocke/pixel-macro-go/config"
	"github.com/soocke/pixel-macro-go/domain/action"
	"github.com/soocke/pixel-macro-go/domain/macro"
	"github.com/soocke/pixel-macro-go/domain/roi"
	"github.com/soocke/pixel-macro-go/domain/window"
)

var (
	foundColor = color.New(color.FgGreen, color.Bold)
	missColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	dimColor   = color.New(color.Faint)
)

// targetFlags override the window, capture and match settings per command.
type targetFlags struct {
	title      string
	process    string
	backend    string
	threshold  float64
	noActivate bool
}

func (f *targetFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.title, "title", "t", "", "target window title (case-insensitive substring)")
	fs.StringVarP(&f.process, "process", "p", "", "target process name, e.g. game.exe")
	fs.StringVar(&f.backend, "backend", "", "capture backend: gdi, window, screenshot, display")
	fs.Float64Var(&f.threshold, "threshold", 0, "match threshold in (0,1]")
	fs.BoolVar(&f.noActivate, "no-activate", false, "do not bring the window to the foreground")
}

func (f *targetFlags) apply(cmd *cobra.Command, c *config.Config) error {
	fs := cmd.Flags()
	if fs.Changed("title") {
		c.Window.Title = f.title
	}
	if fs.Changed("process") {
		c.Window.Process = f.process
	}
	if fs.Changed("backend") {
		c.Capture.Backend = f.backend
	}
	if fs.Changed("threshold") {
		if f.threshold <= 0 || f.threshold > 1 {
			return fmt.Errorf("--threshold %v: want a value in (0,1]", f.threshold)
		}
		c.Match.Threshold = f.threshold
	}
	if fs.Changed("no-activate") {
		c.Window.NoActivate = f.noActivate
	}
	return c.Validate()
}

var (
	findFlags targetFlags
	findCmd   = &cobra.Command{
		Use:   "find <template>",
		Short: "Search the window for a template and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := findFlags.apply(cmd, cfg); err != nil {
				return err
			}
			c, err := app.BuildMacro(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			res, err := c.Macro.FindImage(cmd.Context(), args[0], cfg.Match.Threshold)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), args[0], res)
			return nil
		},
	}
)

var (
	clickFlags targetFlags
	clickKey   string
	clickCmd   = &cobra.Command{
		Use:   "click <template>",
		Short: "Click the centre of a template, or press --key there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clickFlags.apply(cmd, cfg); err != nil {
				return err
			}
			var vk byte
			if clickKey != "" {
				var err error
				if vk, err = action.ParseVK(clickKey); err != nil {
					return err
				}
			}
			c, err := app.BuildMacro(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			var res macro.Result
			if clickKey != "" {
				res, err = c.Macro.PressOnImage(cmd.Context(), args[0], cfg.Match.Threshold, vk)
			} else {
				res, err = c.Macro.ClickImage(cmd.Context(), args[0], cfg.Match.Threshold)
			}
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), args[0], res)
			return nil
		},
	}
)

var (
	watchFlags    targetFlags
	watchInterval time.Duration
	watchSkip     bool
	watchCmd      = &cobra.Command{
		Use:   "watch <template>",
		Short: "Search for a template repeatedly until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := watchFlags.apply(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				cfg.Watch.IntervalMs = int(watchInterval / time.Millisecond)
			}
			if cmd.Flags().Changed("skip-unchanged") {
				cfg.Watch.SkipUnchanged = watchSkip
			}
			c, err := app.BuildMacro(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w := c.Macro.NewWatcher(args[0], macro.WatchOptions{
				Threshold:     cfg.Match.Threshold,
				Interval:      time.Duration(cfg.Watch.IntervalMs) * time.Millisecond,
				SkipUnchanged: cfg.Watch.SkipUnchanged,
				OnResult:      func(r macro.Result) { printResult(out, args[0], r) },
			})
			err = w.Run(cmd.Context())
			s := w.Stats()
			dimColor.Fprintf(out, "runs=%d hits=%d misses=%d reused=%d avg=%s\n", s.Runs, s.Hits, s.Misses, s.Reused, s.AvgDuration)
			return err
		},
	}
)

var (
	captureFlags targetFlags
	captureROI   string
	captureOut   string
	captureCmd   = &cobra.Command{
		Use:   "capture",
		Short: "Capture the client area (or --roi of it) to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := captureFlags.apply(cmd, cfg); err != nil {
				return err
			}
			r, err := parseROI(captureROI)
			if err != nil {
				return err
			}
			c, err := app.BuildMacro(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			img, err := c.Macro.Capture(cmd.Context(), macro.CaptureOptions{ROI: r, SavePath: captureOut})
			if err != nil {
				return err
			}
			foundColor.Fprint(cmd.OutOrStdout(), "SAVED ")
			fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d\n", captureOut, img.Bounds().Dx(), img.Bounds().Dy())
			return nil
		},
	}
)

var (
	windowsFilter string
	windowsCmd    = &cobra.Command{
		Use:   "windows",
		Short: "List visible top-level windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := window.List()
			if err != nil {
				return err
			}
			printWindows(cmd.OutOrStdout(), infos, windowsFilter)
			return nil
		},
	}
)

var roiCmd = &cobra.Command{
	Use:   "roi [image]",
	Short: "Open the ROI tool to cut templates out of a screenshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		}
		return app.RunROITool(cfg, logger, path)
	},
}

func init() {
	findFlags.register(findCmd)
	clickFlags.register(clickCmd)
	clickCmd.Flags().StringVarP(&clickKey, "key", "k", "", "press this key (e.g. F5, SPACE, A) instead of clicking")
	watchFlags.register(watchCmd)
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 200*time.Millisecond, "pause between searches")
	watchCmd.Flags().BoolVar(&watchSkip, "skip-unchanged", false, "reuse the last result while the region is unchanged")
	captureFlags.register(captureCmd)
	captureCmd.Flags().StringVar(&captureROI, "roi", "", "region of the client area as x,y,w,h")
	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "capture.png", "output file; the format follows the extension")
	windowsCmd.Flags().StringVarP(&windowsFilter, "filter", "f", "", "only list titles containing this text")

	rootCmd.AddCommand(findCmd, clickCmd, watchCmd, captureCmd, windowsCmd, roiCmd)
}

// parseROI parses "x,y,w,h". An empty string is the zero ROI.
func parseROI(s string) (roi.ROI, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return roi.ROI{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return roi.ROI{}, fmt.Errorf("roi %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return roi.ROI{}, fmt.Errorf("roi %q: %q is not a non-negative integer", s, p)
		}
		v[i] = n
	}
	return roi.ROI{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

func printResult(w io.Writer, path string, r macro.Result) {
	if r.Found {
		foundColor.Fprint(w, "FOUND")
		fmt.Fprintf(w, " %s at (%d, %d) score=%.3f", path, r.Point.X, r.Point.Y, r.Score)
	} else {
		missColor.Fprint(w, "MISS")
		fmt.Fprintf(w, " %s score=%.3f", path, r.Score)
	}
	dimColor.Fprintf(w, " %s\n", r.Duration.Round(time.Microsecond))
}

func printWindows(w io.Writer, infos []window.Info, filter string) {
	filter = strings.ToLower(filter)
	for _, info := range infos {
		if filter != "" && !strings.Contains(strings.ToLower(info.Title), filter) {
			continue
		}
		dimColor.Fprintf(w, "%#010x %6d ", info.Handle, info.PID)
		fmt.Fprintln(w, info.Title)
	}
}

package theme

// Palette and ttk styles for the ROI tool window.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
const (
	ColorBg        = "#f7f9fb" // app background
	ColorSurface   = "#ffffff"
	ColorPrimary   = "#2563eb" // buttons, accents
	ColorDanger    = "#dc2626"
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"
	ColorCanvas    = "#202020" // behind the image viewport
)

// PaletteSnapshot holds resolved colors for the active mode.
type PaletteSnapshot struct {
	AppBg   string
	Surface string
	Primary string
	Danger  string
	Text    string
	Muted   string
	Canvas  string
}

// style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleStatusLabel   = "status.TLabel"
)

var darkMode bool

// CurrentPalette returns colors for the current dark/light mode.
func CurrentPalette() PaletteSnapshot {
	if darkMode {
		return PaletteSnapshot{
			AppBg:   "#0f172a",
			Surface: "#1e293b",
			Primary: "#3b82f6",
			Danger:  "#ef4444",
			Text:    "#f1f5f9",
			Muted:   "#94a3b8",
			Canvas:  "#000000",
		}
	}
	return PaletteSnapshot{
		AppBg:   ColorBg,
		Surface: ColorSurface,
		Primary: ColorPrimary,
		Danger:  ColorDanger,
		Text:    ColorText,
		Muted:   ColorTextMuted,
		Canvas:  ColorCanvas,
	}
}

// Init selects the mode and applies the styles. Must run on the Tk thread.
func Init(dark bool) {
	darkMode = dark
	p := CurrentPalette()
	App.Configure(Background(p.AppBg))

	StyleConfigure(StylePrimaryButton,
		Background(p.Primary),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleDangerButton,
		Background(p.Danger),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleStatusLabel,
		Foreground(p.Muted),
		Background(p.Surface),
		Padding("4p 2p"),
	)
}

// IsDark reports current mode.
func IsDark() bool { return darkMode }

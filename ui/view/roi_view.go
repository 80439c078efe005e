package view

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/soocke/pixel-macro-go/ui/images"
	"github.com/soocke/pixel-macro-go/ui/model"
	"github.com/soocke/pixel-macro-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ROIHandlers receives user actions from the ROI window.
type ROIHandlers struct {
	Open        func()
	Reset       func()
	Export      func()
	Resize      func(w, h int)
	PointerDown func(b model.Button, x, y int)
	PointerMove func(x, y int)
	PointerUp   func(b model.Button, x, y int)
	Wheel       func(x, y, delta int, ctrl bool)
}

// ROIView is the Tk window of the ROI tool: an image viewport, the action
// buttons and a status line.
type ROIView struct {
	logger *slog.Logger

	imageLabel  *LabelWidget
	statusLabel *TLabelWidget
	photo       *Img
	lastStatus  string
}

func NewROIView(logger *slog.Logger) *ROIView {
	if logger == nil {
		logger = slog.Default()
	}
	return &ROIView{logger: logger}
}

// Build lays out the window and binds h. It must run on the Tk thread.
func (v *ROIView) Build(title string, width, height int, h ROIHandlers) {
	App.WmTitle(title)
	WmGeometry(App, fmt.Sprintf("%dx%d", width, height))
	WmProtocol(App, "WM_DELETE_WINDOW", func() { Destroy(App) })
	GridColumnConfigure(App, 0, Weight(1))
	GridRowConfigure(App, 1, Weight(1))

	bar := Frame()
	Grid(bar, Row(0), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	openBtn := TButton(Txt("Open"), Style(theme.StylePrimaryButton), Command(h.Open))
	Grid(openBtn, In(bar), Row(0), Column(0), Padx("0.2m"), Pady("0.2m"))
	resetBtn := TButton(Txt("Reset ROI"), Style(theme.StyleDangerButton), Command(h.Reset))
	Grid(resetBtn, In(bar), Row(0), Column(1), Padx("0.2m"), Pady("0.2m"))
	exportBtn := TButton(Txt("Export ROI"), Style(theme.StylePrimaryButton), Command(h.Export))
	Grid(exportBtn, In(bar), Row(0), Column(2), Padx("0.2m"), Pady("0.2m"))

	placeholder := image.NewRGBA(image.Rect(0, 0, 1, 1))
	v.photo = NewPhoto(Data(images.EncodePNG(placeholder)))
	v.imageLabel = Label(Image(v.photo), Background(theme.CurrentPalette().Canvas), Anchor("nw"), Borderwidth(0))
	Grid(v.imageLabel, Row(1), Column(0), Sticky("nsew"))

	v.statusLabel = TLabel(Txt(model.StatusIdle), Style(theme.StyleStatusLabel), Anchor("w"))
	Grid(v.statusLabel, Row(2), Column(0), Sticky("we"))

	bindPointer(v.imageLabel, h)
}

// SetImage shows img in the viewport; nil clears it.
func (v *ROIView) SetImage(img image.Image) {
	if v.imageLabel == nil {
		return
	}
	if img == nil {
		img = image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	// Replace previous photo to avoid retaining obsolete pixel buffers.
	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(images.EncodePNG(img)))
	v.imageLabel.Configure(Image(v.photo))
}

func (v *ROIView) SetStatus(text string) {
	if v.statusLabel == nil || text == v.lastStatus {
		return
	}
	v.lastStatus = text
	v.statusLabel.Configure(Txt(text))
}

func (v *ROIView) AskOpenPath() string {
	paths := GetOpenFile(Title("Open image"))
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

func (v *ROIView) AskSavePath(initial string) string {
	opts := []Opt{Title("Export ROI"), Defaultextension(".png")}
	if initial != "" {
		opts = append(opts, Initialdir(filepath.Dir(initial)), Initialfile(filepath.Base(initial)))
	}
	return GetSaveFile(opts...)
}

func (v *ROIView) ShowInfo(msg string)    { v.message("info", "Success", msg) }
func (v *ROIView) ShowWarning(msg string) { v.message("warning", "Warning", msg) }
func (v *ROIView) ShowError(msg string)   { v.message("error", "Error", msg) }

func (v *ROIView) message(icon, title, msg string) {
	v.logger.Debug("roi tool: message", "kind", icon, "msg", msg)
	MessageBox(Icon(icon), Title(title), Msg(msg))
}

// Run enters the Tk main loop until the window is closed.
func (v *ROIView) Run() { App.Wait() }

package view

import (
	"strconv"

	"github.com/soocke/pixel-macro-go/ui/model"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// bindPointer routes mouse and resize events of w to h. Coordinates are
// widget relative pixels.
func bindPointer(w *LabelWidget, h ROIHandlers) {
	Bind(w, "<ButtonPress-1>", Command(func(e *Event) { call3(h.PointerDown, model.ButtonLeft, e) }))
	Bind(w, "<ButtonPress-3>", Command(func(e *Event) { call3(h.PointerDown, model.ButtonRight, e) }))
	Bind(w, "<ButtonRelease-1>", Command(func(e *Event) { call3(h.PointerUp, model.ButtonLeft, e) }))
	Bind(w, "<ButtonRelease-3>", Command(func(e *Event) { call3(h.PointerUp, model.ButtonRight, e) }))
	Bind(w, "<Motion>", Command(func(e *Event) {
		if h.PointerMove != nil {
			h.PointerMove(e.X, e.Y)
		}
	}))
	Bind(w, "<MouseWheel>", Command(func(e *Event) { wheel(h, e, false) }))
	Bind(w, "<Control-MouseWheel>", Command(func(e *Event) { wheel(h, e, true) }))
	Bind(w, "<Configure>", Command(func(e *Event) {
		if h.Resize != nil {
			w, _ := strconv.Atoi(e.Width)
			ht, _ := strconv.Atoi(e.Height)
			h.Resize(w, ht)
		}
	}))
}

func call3(fn func(model.Button, int, int), b model.Button, e *Event) {
	if fn != nil {
		fn(b, e.X, e.Y)
	}
}

func wheel(h ROIHandlers, e *Event, ctrl bool) {
	if h.Wheel != nil {
		h.Wheel(e.X, e.Y, e.Delta, ctrl)
	}
}

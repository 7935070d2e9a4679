// Package eventloop runs the single interactive goroutine that owns all
// session state. Hotkey presses, tray clicks, overlay input and streamed
// translation events all funnel into one select loop; the loop drives the
// state machine, the renderer and the layout engine, and pushes complete
// frames to the overlay surface.
package eventloop

import (
	"context"
	"image"
	"log"
	"strings"

	"screen-translate-llm/clipboard"
	"screen-translate-llm/config"
	"screen-translate-llm/hotkey"
	"screen-translate-llm/layout"
	"screen-translate-llm/overlay"
	"screen-translate-llm/render"
	"screen-translate-llm/selection"
	"screen-translate-llm/snapshot"
	"screen-translate-llm/translate"
	"screen-translate-llm/tray"
	"screen-translate-llm/worker"
)

const (
	instructionText = "Drag to select an area. Enter translates, Esc cancels."
	waitingText     = "Translating..."

	// Rough text metrics for layout; the surface wraps within the box.
	charWidth  = 9
	lineHeight = 24
)

// Loop is the interactive coordinator.
type Loop struct {
	cfg      *config.Config
	ctrl     *selection.Controller
	renderer *render.Renderer
	pool     *worker.Pool
	surface  overlay.Surface

	hotkeyCh chan struct{}
	inputCh  chan func()
	events   chan translate.Event

	copyFunc func(string) error
	visible  bool
}

// New wires the loop to a display surface. The translation worker streams
// through translate.Stream; tests swap the surface and the stream function.
func New(cfg *config.Config, surface overlay.Surface) *Loop {
	return NewWithStream(cfg, surface, translate.Stream)
}

func NewWithStream(cfg *config.Config, surface overlay.Surface, stream worker.StreamFunc) *Loop {
	l := &Loop{
		cfg:      cfg,
		renderer: render.New(),
		pool:     worker.New(stream),
		surface:  surface,
		hotkeyCh: make(chan struct{}, 4),
		inputCh:  make(chan func(), 256),
		events:   make(chan translate.Event, 64),
		copyFunc: clipboard.Write,
	}
	l.ctrl = selection.NewController(snapshot.Freeze, func(ctx context.Context, token uint64, png []byte) bool {
		return l.pool.Submit(ctx, token, png, l.events)
	})
	return l
}

// Trigger requests a new session. Safe from any goroutine; bursts beyond the
// small buffer are dropped, which matches pressing the hotkey while the
// overlay is already up.
func (l *Loop) Trigger() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
	}
}

// StartHotkey registers combo globally, falling back to the alternate
// combination when combo does not parse.
func (l *Loop) StartHotkey(combo string) {
	if combo == "" {
		return
	}
	if err := hotkey.Listen(combo, l.Trigger); err != nil {
		log.Printf("Eventloop: hotkey %q rejected (%v), using %s", combo, err, config.FallbackHotkey)
		if err := hotkey.Listen(config.FallbackHotkey, l.Trigger); err != nil {
			log.Printf("Eventloop: fallback hotkey failed: %v", err)
		}
	}
}

// Run processes events until ctx is cancelled. It must be the only goroutine
// touching the controller and renderer.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	defer l.surface.Close()

	for {
		select {
		case <-ctx.Done():
			l.dismiss()
			return ctx.Err()
		case <-l.hotkeyCh:
			l.handleTrigger()
		case fn := <-l.inputCh:
			fn()
		case ev := <-l.events:
			l.handleEvent(ev)
		}
	}
}

// post marshals a surface callback onto the loop goroutine.
func (l *Loop) post(fn func()) {
	select {
	case l.inputCh <- fn:
	default:
		log.Printf("Eventloop: input queue full, dropping event")
	}
}

// handler adapts the overlay input contract to loop-posted calls.
type handler struct{ l *Loop }

func (h handler) PointerDown(p image.Point) {
	h.l.post(func() { h.l.ctrl.PointerDown(p); h.l.apply() })
}
func (h handler) PointerMove(p image.Point) {
	h.l.post(func() { h.l.ctrl.PointerMove(p); h.l.apply() })
}
func (h handler) PointerUp(p image.Point) {
	h.l.post(func() { h.l.ctrl.PointerUp(p); h.l.apply() })
}
func (h handler) Confirm() { h.l.post(h.l.handleConfirm) }
func (h handler) Cancel()  { h.l.post(h.l.dismiss) }

func (l *Loop) handleTrigger() {
	if !l.ctrl.Trigger() {
		return
	}
	l.renderer.Reset()

	if err := l.surface.Show(l.ctrl.Snapshot(), handler{l}); err != nil {
		log.Printf("Eventloop: overlay unavailable: %v", err)
		l.ctrl.Cancel()
		return
	}
	l.visible = true
	tray.UpdateTooltip("Screen Translate: select a region")
	l.apply()
}

func (l *Loop) handleConfirm() {
	if l.ctrl.State() != selection.Selecting {
		return
	}
	if !l.ctrl.Confirm(context.Background()) {
		return
	}
	tray.UpdateTooltip("Screen Translate: translating...")
	l.apply()
}

func (l *Loop) handleEvent(ev translate.Event) {
	switch ev.Kind {
	case translate.EventChunk:
		if !l.ctrl.OnChunk(ev.Token) {
			return
		}
		l.renderer.Append(ev.Text)
		l.apply()

	case translate.EventDone:
		if !l.ctrl.OnDone(ev.Token) {
			return
		}
		tray.UpdateTooltip("")
		l.deliverResult()

	case translate.EventError:
		if !l.ctrl.OnError(ev.Token) {
			return
		}
		log.Printf("Eventloop: translation failed: %s", ev.Text)
		tray.UpdateTooltip("")
		l.renderer.RenderError(ev.Text)
		l.apply()
	}
}

// deliverResult copies the finished translation to the clipboard when
// configured. The overlay stays up until the user dismisses it.
func (l *Loop) deliverResult() {
	if !l.cfg.CopyResult {
		return
	}
	text := l.renderer.Plain()
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := l.copyFunc(text); err != nil {
		log.Printf("Eventloop: clipboard write failed: %v", err)
	}
}

// dismiss ends the session from any state and hides the overlay.
func (l *Loop) dismiss() {
	l.ctrl.Cancel()
	l.renderer.Reset()
	if l.visible {
		l.surface.Hide()
		l.visible = false
	}
	tray.UpdateTooltip("")
}

// apply rebuilds the frame for the current state and hands it to the surface.
func (l *Loop) apply() {
	st := l.ctrl.State()
	if st == selection.Idle {
		return
	}

	geo := l.geometry()
	local := func(r image.Rectangle) image.Rectangle { return r.Sub(geo.Virtual.Min) }

	in := layout.Input{
		Bounds:  image.Rect(0, 0, geo.Virtual.Dx(), geo.Virtual.Dy()),
		Primary: local(geo.Primary()),

		ShowInstruction: st == selection.Selecting,
		ShowWaiting:     st == selection.Waiting,
		ShowResult:      st == selection.Result,
		ShowPreview:     st == selection.Waiting || st == selection.Result,

		InstructionSize: measureText(instructionText),
		WaitingSize:     measureText(waitingText),
	}
	if preview := l.ctrl.Preview(); preview != nil {
		in.PreviewSize = preview.Bounds().Size()
	} else {
		in.ShowPreview = false
	}
	in.StatusRect, in.HaveStatus = l.ctrl.StatusRect()

	out := layout.Compute(in)
	if out.HaveStatus {
		l.ctrl.SetStatusRect(out.StatusRect)
	}

	frame := overlay.Frame{
		State:     st,
		Selection: l.ctrl.Selection(),
		Dragging:  l.ctrl.Dragging(),

		Instruction:     overlay.Region{Rect: out.Instruction, Visible: in.ShowInstruction},
		InstructionText: instructionText,

		Waiting:     overlay.Region{Rect: out.Waiting, Visible: in.ShowWaiting},
		WaitingText: waitingText,

		Preview: overlay.Region{Rect: out.Preview, Visible: in.ShowPreview && !out.Preview.Empty()},

		Result: overlay.Region{Rect: out.Result, Visible: in.ShowResult},
	}
	if frame.Preview.Visible {
		frame.PreviewImage = layout.ScaleThumbnail(l.ctrl.Preview(), out.Preview)
	}
	if in.ShowResult {
		frame.ResultHTML = l.renderer.HTML()
		frame.ResultText = l.renderer.Plain()
		if l.renderer.Failed() {
			text := l.renderer.Plain()
			if text != "" {
				text += "\n\n"
			}
			frame.ResultText = text + "Error: " + l.renderer.ErrorText()
		}
	}

	l.surface.Apply(frame)
}

// geometry prefers the frozen snapshot so overlay coordinates stay consistent
// even when displays change mid-session. A failed capture falls back to live
// display bounds, and as a last resort to a single nominal display.
func (l *Loop) geometry() snapshot.Geometry {
	if snap := l.ctrl.Snapshot(); snap != nil {
		return snap.Geometry
	}
	if geo, err := snapshot.CurrentGeometry(); err == nil {
		return geo
	}
	full := image.Rect(0, 0, 1920, 1080)
	return snapshot.Geometry{Virtual: full, Displays: []image.Rectangle{full}}
}

func measureText(s string) image.Point {
	longest := 0
	lines := 0
	for _, line := range strings.Split(s, "\n") {
		lines++
		if len(line) > longest {
			longest = len(line)
		}
	}
	return image.Pt(longest*charWidth, lines*lineHeight)
}

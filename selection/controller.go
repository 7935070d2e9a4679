// Package selection drives the overlay session state machine:
//
//	Idle -> Selecting -> Waiting -> Result -> Idle
//
// One session is active at a time. The controller owns the frozen snapshot,
// the selection rectangle, the StatusRect memo and the session token; all of
// its methods must be called from the single interactive goroutine.
package selection

import (
	"context"
	"image"
	"log"

	"screen-translate-llm/snapshot"
)

type State int

const (
	Idle State = iota
	Selecting
	Waiting
	Result
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Waiting:
		return "waiting"
	case Result:
		return "result"
	}
	return "unknown"
}

// Freezer captures the virtual desktop at session start.
type Freezer func() (*snapshot.Snapshot, error)

// Launcher starts the streaming translation for the given session token and
// PNG payload. It reports false when no pipeline slot is free.
type Launcher func(ctx context.Context, token uint64, png []byte) bool

// Controller is the session state machine.
type Controller struct {
	freeze Freezer
	launch Launcher

	state   State
	token   uint64
	snap    *snapshot.Snapshot
	preview *image.RGBA

	dragging bool
	anchor   image.Point
	sel      image.Rectangle // normalized, global coordinates

	statusRect image.Rectangle
	haveStatus bool

	cancel context.CancelFunc
}

func NewController(freeze Freezer, launch Launcher) *Controller {
	return &Controller{freeze: freeze, launch: launch}
}

func (c *Controller) State() State   { return c.state }
func (c *Controller) Token() uint64  { return c.token }
func (c *Controller) Dragging() bool { return c.dragging }
func (c *Controller) HasSelection() bool {
	return c.state != Idle && !c.sel.Empty()
}

// Selection returns the current normalized rectangle in global coordinates.
func (c *Controller) Selection() image.Rectangle { return c.sel }

// Snapshot returns the frozen desktop for the active session, nil when Idle
// or when the capture failed (solid-background fallback).
func (c *Controller) Snapshot() *snapshot.Snapshot { return c.snap }

// Preview returns the cropped selection shown as a thumbnail while waiting.
func (c *Controller) Preview() *image.RGBA { return c.preview }

// StatusRect returns the memoized waiting-box footprint, if any.
func (c *Controller) StatusRect() (image.Rectangle, bool) {
	return c.statusRect, c.haveStatus
}

// SetStatusRect records the layout engine's waiting-box footprint so the
// result box can reuse it across the Waiting to Result transition.
func (c *Controller) SetStatusRect(r image.Rectangle) {
	c.statusRect = r
	c.haveStatus = true
}

// Trigger begins a new session. It is a no-op unless the controller is Idle;
// re-entrant triggers while a session is visible are ignored. A capture
// failure still enters Selecting with a nil snapshot (solid background).
func (c *Controller) Trigger() bool {
	if c.state != Idle {
		log.Printf("Selection: trigger ignored in state %s", c.state)
		return false
	}

	snap, err := c.freeze()
	if err != nil {
		log.Printf("Selection: desktop capture failed, using solid background: %v", err)
		snap = nil
	}

	c.token++
	c.snap = snap
	c.preview = nil
	c.sel = image.Rectangle{}
	c.dragging = false
	c.haveStatus = false
	c.statusRect = image.Rectangle{}
	c.state = Selecting
	return true
}

// PointerDown anchors a new drag. Re-dragging over an already finalized
// rectangle starts over, which lets the user adjust before confirming.
func (c *Controller) PointerDown(global image.Point) {
	if c.state != Selecting {
		return
	}
	c.dragging = true
	c.anchor = global
	c.sel = normalizedRect(c.anchor, global)
}

// PointerMove extends the live rectangle from the anchor to the cursor.
func (c *Controller) PointerMove(global image.Point) {
	if c.state != Selecting || !c.dragging {
		return
	}
	c.sel = normalizedRect(c.anchor, global)
}

// PointerUp finalizes the drag but stays in Selecting so the selection can be
// redrawn before confirming.
func (c *Controller) PointerUp(global image.Point) {
	if c.state != Selecting || !c.dragging {
		return
	}
	c.dragging = false
	c.sel = normalizedRect(c.anchor, global)
}

// Confirm crops the frozen snapshot to the selection and launches the
// translation pipeline. Confirming an empty selection, or confirming outside
// Selecting, changes nothing.
func (c *Controller) Confirm(parent context.Context) bool {
	if c.state != Selecting || c.sel.Empty() {
		return false
	}

	var crop *image.RGBA
	if c.snap != nil {
		crop = c.snap.Crop(c.sel)
	} else {
		// Capture failed at trigger time; translate a black crop of the
		// selected size rather than refusing the action.
		crop = (&snapshot.Snapshot{Geometry: snapshot.Geometry{Virtual: c.sel.Canon()}}).Crop(c.sel)
	}

	png, err := snapshot.EncodePNG(crop)
	if err != nil {
		log.Printf("Selection: crop encode failed: %v", err)
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	if !c.launch(ctx, c.token, png) {
		cancel()
		log.Printf("Selection: pipeline busy, confirm dropped")
		return false
	}

	c.cancel = cancel
	c.preview = crop
	c.state = Waiting
	return true
}

// Accept reports whether an event tagged with token belongs to the visible
// session. Late events from a superseded session are dropped by this check.
func (c *Controller) Accept(token uint64) bool {
	return token == c.token && (c.state == Waiting || c.state == Result)
}

// OnChunk moves Waiting to Result on the first streamed increment. Returns
// false for stale tokens.
func (c *Controller) OnChunk(token uint64) bool {
	if !c.Accept(token) {
		return false
	}
	c.state = Result
	return true
}

// OnDone handles the terminal success signal. The session stays in Result
// until the user dismisses it.
func (c *Controller) OnDone(token uint64) bool {
	if !c.Accept(token) {
		return false
	}
	c.releasePipeline()
	return true
}

// OnError lands in Result as well, with the renderer showing the error text
// instead of translated content.
func (c *Controller) OnError(token uint64) bool {
	if !c.Accept(token) {
		return false
	}
	c.releasePipeline()
	c.state = Result
	return true
}

// Cancel returns to Idle from any state, releasing the snapshot and all
// session assets. An in-flight pipeline call is cancelled; whatever still
// arrives carries a stale token and is dropped.
func (c *Controller) Cancel() {
	c.releasePipeline()
	c.snap = nil
	c.preview = nil
	c.sel = image.Rectangle{}
	c.dragging = false
	c.haveStatus = false
	c.statusRect = image.Rectangle{}
	c.state = Idle
}

func (c *Controller) releasePipeline() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func normalizedRect(a, b image.Point) image.Rectangle {
	return image.Rect(a.X, a.Y, b.X, b.Y).Canon()
}

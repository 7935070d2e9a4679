// Package overlay defines the display-surface collaborator: a borderless,
// always-on-top window covering the whole virtual desktop that shows the
// frozen snapshot, the drag rectangle and the floating regions, and feeds
// user input back to the event loop.
package overlay

import (
	"errors"
	"image"

	"screen-translate-llm/selection"
	"screen-translate-llm/snapshot"
)

// ErrUnsupported is returned by Show on platforms without an implementation.
// The portable core (state machine, pipeline, renderer, layout) still runs
// and tests everywhere.
var ErrUnsupported = errors.New("overlay: no surface implementation for this platform")

// Handler receives user input from the surface. Implementations marshal the
// calls onto the interactive goroutine; the surface may invoke them from its
// own message-loop thread.
type Handler interface {
	PointerDown(global image.Point)
	PointerMove(global image.Point)
	PointerUp(global image.Point)
	Confirm() // Enter
	Cancel()  // Escape
}

// Region is one floating area of the overlay.
type Region struct {
	Rect    image.Rectangle // widget-local coordinates
	Visible bool
}

// Frame is a complete description of what the surface should display. The
// event loop builds a fresh Frame on every state change or streamed chunk.
type Frame struct {
	State     selection.State
	Selection image.Rectangle // global coordinates; drawn while selecting
	Dragging  bool

	Instruction     Region
	InstructionText string

	Waiting     Region
	WaitingText string

	Preview      Region
	PreviewImage image.Image // already scaled to the preview rect

	Result     Region
	ResultHTML string // themed document from the renderer
	ResultText string // plain fallback for surfaces without HTML support
}

// Surface is the platform display collaborator.
type Surface interface {
	// Show covers the virtual desktop with the frozen snapshot (nil snapshot
	// means solid black) and grabs the keyboard until Hide.
	Show(snap *snapshot.Snapshot, handler Handler) error
	// Apply replaces the displayed frame and schedules a redraw. Safe to call
	// only between Show and Hide.
	Apply(frame Frame)
	// Hide releases the keyboard and dismisses the window.
	Hide()
	// Close releases platform resources. The surface is unusable afterwards.
	Close()
}

// New returns the platform surface implementation.
func New() Surface { return newPlatformSurface() }

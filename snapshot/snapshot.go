package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"

	"github.com/kbinani/screenshot"
)

// Geometry describes the virtual desktop at freeze time: the bounding rectangle
// of all displays plus the rectangle each display occupies, all in global
// coordinates. Secondary displays can sit at negative offsets.
type Geometry struct {
	Virtual  image.Rectangle
	Displays []image.Rectangle
}

// Snapshot is an immutable stitched capture of the whole virtual desktop.
// Image may be nil after a capture failure; all methods then degrade to a
// solid black background instead of failing.
type Snapshot struct {
	Image    *image.RGBA
	Geometry Geometry
}

// Freeze captures every active display and composites the captures into one
// bitmap covering the union of all display bounds. A display whose individual
// capture fails is left black; only the absence of any display is an error.
func Freeze() (*Snapshot, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}

	geom := currentGeometry(n)

	canvas := image.NewRGBA(image.Rect(0, 0, geom.Virtual.Dx(), geom.Virtual.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)

	for i, b := range geom.Displays {
		img, err := screenshot.CaptureRect(b)
		if err != nil {
			log.Printf("Snapshot: display %d capture failed, leaving black: %v", i, err)
			continue
		}
		dst := b.Sub(geom.Virtual.Min)
		draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Src)
	}

	return &Snapshot{Image: canvas, Geometry: geom}, nil
}

// CurrentGeometry enumerates display bounds without capturing pixels. Used as
// a fallback when the session has no frozen snapshot.
func CurrentGeometry() (Geometry, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return Geometry{}, fmt.Errorf("no active displays found")
	}
	return currentGeometry(n), nil
}

func currentGeometry(n int) Geometry {
	geom := Geometry{Displays: make([]image.Rectangle, 0, n)}
	geom.Virtual = screenshot.GetDisplayBounds(0)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		geom.Displays = append(geom.Displays, b)
		geom.Virtual = geom.Virtual.Union(b)
	}
	return geom
}

// New builds a snapshot from pre-captured display images. Used by tests and by
// platforms that capture outside this package. Displays and images are matched
// by index; a nil image leaves its display area black.
func New(displays []image.Rectangle, images []*image.RGBA) *Snapshot {
	if len(displays) == 0 {
		return &Snapshot{}
	}
	geom := Geometry{Displays: displays, Virtual: displays[0]}
	for _, b := range displays[1:] {
		geom.Virtual = geom.Virtual.Union(b)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, geom.Virtual.Dx(), geom.Virtual.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)
	for i, b := range displays {
		if i >= len(images) || images[i] == nil {
			continue
		}
		img := images[i]
		draw.Draw(canvas, b.Sub(geom.Virtual.Min), img, img.Bounds().Min, draw.Src)
	}
	return &Snapshot{Image: canvas, Geometry: geom}
}

// ToLocal converts a point in global desktop coordinates to snapshot-local
// coordinates.
func (g Geometry) ToLocal(global image.Point) image.Point {
	return global.Sub(g.Virtual.Min)
}

// ToGlobal converts a snapshot-local point back to global desktop coordinates.
func (g Geometry) ToGlobal(local image.Point) image.Point {
	return local.Add(g.Virtual.Min)
}

// ToLocalRect translates a global rectangle into snapshot-local space.
func (g Geometry) ToLocalRect(global image.Rectangle) image.Rectangle {
	return global.Sub(g.Virtual.Min)
}

// Primary returns the bounds of the primary display (display 0), or the
// virtual bounds when no per-display geometry is known.
func (g Geometry) Primary() image.Rectangle {
	if len(g.Displays) > 0 {
		return g.Displays[0]
	}
	return g.Virtual
}

// Crop returns the sub-image for a rectangle given in global coordinates. The
// rectangle is clamped into snapshot bounds and never collapses below 1x1, so
// a selection that extends past the captured area still yields a valid image.
// On a failed capture (nil Image) the result is solid black.
func (s *Snapshot) Crop(global image.Rectangle) *image.RGBA {
	local := s.Geometry.ToLocalRect(global.Canon())

	w := s.Geometry.Virtual.Dx()
	h := s.Geometry.Virtual.Dy()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x := clamp(local.Min.X, 0, w-1)
	y := clamp(local.Min.Y, 0, h-1)
	cw := clamp(local.Dx(), 1, w-x)
	ch := clamp(local.Dy(), 1, h-y)

	out := image.NewRGBA(image.Rect(0, 0, cw, ch))
	if s.Image == nil {
		draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)
		return out
	}
	draw.Draw(out, out.Bounds(), s.Image, image.Pt(x, y), draw.Src)
	return out
}

// EncodePNG serializes an image to PNG bytes for the translation request.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

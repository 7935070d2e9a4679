// Package layout computes the placement of the floating overlay regions:
// instruction text, waiting indicator, preview thumbnail and result box. All
// computation is pure over image.Rectangle in overlay-widget coordinates; the
// only state carried between calls is the caller-owned StatusRect memo.
package layout

import (
	"image"

	"github.com/nfnt/resize"
)

const (
	instructionMargin = 20
	statusPadding     = 16
	previewSpacing    = 16
	previewTopMargin  = 60
	previewBotMargin  = 40
	minPreviewSpace   = 120 // vertical units required to place the preview above
	resultWidthFrac   = 0.7
	resultHeightFrac  = 0.4
	previewCapFrac    = 0.5 // preview never exceeds half the primary display
	defaultAspect     = 1.6
)

// Input is everything a layout pass depends on. Same Input, same Output.
type Input struct {
	Bounds  image.Rectangle // whole overlay widget area (virtual desktop, local)
	Primary image.Rectangle // primary display in widget coordinates

	ShowInstruction bool
	ShowWaiting     bool
	ShowPreview     bool
	ShowResult      bool

	InstructionSize image.Point // natural size of the instruction text
	WaitingSize     image.Point // natural size of the waiting indicator
	PreviewSize     image.Point // source crop size, for aspect ratio

	StatusRect image.Rectangle // memo from the previous pass
	HaveStatus bool
}

// Output carries one rectangle per visible region plus the updated StatusRect
// memo. Rectangles of hidden regions are zero.
type Output struct {
	Instruction image.Rectangle
	Waiting     image.Rectangle
	Preview     image.Rectangle
	Result      image.Rectangle

	StatusRect image.Rectangle
	HaveStatus bool
}

// Compute lays out all visible floating regions.
//
// The waiting indicator is centered on the primary display and its rectangle
// becomes the StatusRect. The result box reuses the memoized StatusRect so the
// transition from "working" to "result" does not jump; without a memo it falls
// back to a centered fraction of the primary display. The preview goes above
// the status box when enough room remains, otherwise below.
func Compute(in Input) Output {
	out := Output{StatusRect: in.StatusRect, HaveStatus: in.HaveStatus}

	center := image.Pt(
		in.Primary.Min.X+in.Primary.Dx()/2,
		in.Primary.Min.Y+in.Primary.Dy()/2,
	)

	if in.ShowInstruction {
		out.Instruction = image.Rect(0, 0, in.InstructionSize.X, in.InstructionSize.Y).
			Add(in.Primary.Min.Add(image.Pt(instructionMargin, instructionMargin)))
	}

	var statusRect image.Rectangle
	haveBox := false

	if in.ShowWaiting {
		w := in.WaitingSize.X + statusPadding*2
		h := in.WaitingSize.Y + statusPadding*2
		statusRect = centered(center, w, h)
		out.Waiting = statusRect
		out.StatusRect = statusRect
		out.HaveStatus = true
		haveBox = true
	}

	if in.ShowResult {
		if in.HaveStatus {
			statusRect = in.StatusRect
		} else {
			w := int(float64(in.Primary.Dx()) * resultWidthFrac)
			h := int(float64(in.Primary.Dy()) * resultHeightFrac)
			statusRect = centered(center, w, h)
			out.StatusRect = statusRect
			out.HaveStatus = true
		}
		out.Result = statusRect
		haveBox = true
	}

	if in.ShowPreview {
		out.Preview = previewRect(in, center, statusRect, haveBox)
	}

	return out
}

func previewRect(in Input, center image.Point, statusRect image.Rectangle, haveBox bool) image.Rectangle {
	naturalMaxW := int(float64(in.Primary.Dx()) * previewCapFrac)
	naturalMaxH := int(float64(in.Primary.Dy()) * previewCapFrac)

	aspect := defaultAspect
	if in.PreviewSize.X > 0 && in.PreviewSize.Y > 0 {
		aspect = float64(in.PreviewSize.X) / float64(in.PreviewSize.Y)
	}

	placeAbove := true
	maxH := naturalMaxH
	if haveBox {
		availAbove := statusRect.Min.Y - previewTopMargin - previewSpacing
		if availAbove < 0 {
			availAbove = 0
		}
		primaryBottom := center.Y + in.Primary.Dy()/2
		availBelow := primaryBottom - statusRect.Max.Y - previewBotMargin - previewSpacing
		if availBelow < 0 {
			availBelow = 0
		}
		placeAbove = availAbove >= minPreviewSpace
		if placeAbove {
			maxH = min(naturalMaxH, availAbove)
		} else {
			maxH = min(naturalMaxH, availBelow)
		}
	}
	if maxH < minPreviewSpace {
		maxH = minPreviewSpace
	}
	maxW := min(naturalMaxW, int(float64(maxH)*aspect))

	pw, ph := fitAspect(in.PreviewSize, maxW, maxH)

	px := center.X - pw/2
	var py int
	switch {
	case haveBox && placeAbove:
		py = max(previewTopMargin, statusRect.Min.Y-previewSpacing-ph)
	case haveBox:
		py = min(in.Bounds.Max.Y-previewBotMargin-ph, statusRect.Max.Y+previewSpacing)
	default:
		py = max(previewTopMargin, center.Y-in.Primary.Dy()/4-ph/2)
	}

	return image.Rect(px, py, px+pw, py+ph)
}

// fitAspect scales src to fit within maxW x maxH preserving aspect ratio. A
// degenerate source uses the box itself.
func fitAspect(src image.Point, maxW, maxH int) (int, int) {
	if src.X <= 0 || src.Y <= 0 {
		return maxW, maxH
	}
	w, h := src.X, src.Y
	if w > maxW {
		h = h * maxW / w
		w = maxW
	}
	if h > maxH {
		w = w * maxH / h
		h = maxH
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// ScaleThumbnail resizes the cropped selection to the preview rectangle size.
func ScaleThumbnail(img image.Image, box image.Rectangle) image.Image {
	if img == nil || box.Dx() < 1 || box.Dy() < 1 {
		return img
	}
	return resize.Thumbnail(uint(box.Dx()), uint(box.Dy()), img, resize.Bilinear)
}

func centered(center image.Point, w, h int) image.Rectangle {
	x := center.X - w/2
	y := center.Y - h/2
	return image.Rect(x, y, x+w, y+h)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

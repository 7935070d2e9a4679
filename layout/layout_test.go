package layout

import (
	"image"
	"testing"
)

var primary = image.Rect(0, 0, 1920, 1080)

func baseInput() Input {
	return Input{
		Bounds:  image.Rect(0, 0, 1920, 1080),
		Primary: primary,
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	in := baseInput()
	in.ShowWaiting = true
	in.ShowPreview = true
	in.WaitingSize = image.Pt(140, 32)
	in.PreviewSize = image.Pt(300, 200)

	first := Compute(in)
	second := Compute(in)

	if first != second {
		t.Errorf("same input produced different outputs:\n%+v\n%+v", first, second)
	}
}

func TestInstructionAnchorsTopLeftOfPrimary(t *testing.T) {
	in := baseInput()
	in.Primary = image.Rect(200, 100, 2120, 1180) // primary not at widget origin
	in.ShowInstruction = true
	in.InstructionSize = image.Pt(400, 30)

	out := Compute(in)

	want := image.Pt(220, 120)
	if out.Instruction.Min != want {
		t.Errorf("instruction at %v, want %v", out.Instruction.Min, want)
	}
	if out.Instruction.Dx() != 400 || out.Instruction.Dy() != 30 {
		t.Errorf("instruction size %v, want natural size", out.Instruction.Size())
	}
}

func TestWaitingCenteredAndMemoized(t *testing.T) {
	in := baseInput()
	in.ShowWaiting = true
	in.WaitingSize = image.Pt(140, 32)

	out := Compute(in)

	wantW := 140 + statusPadding*2
	wantH := 32 + statusPadding*2
	if out.Waiting.Dx() != wantW || out.Waiting.Dy() != wantH {
		t.Errorf("waiting size %v, want %dx%d", out.Waiting.Size(), wantW, wantH)
	}
	wantCenter := image.Pt(960, 540)
	gotCenter := image.Pt(
		out.Waiting.Min.X+out.Waiting.Dx()/2,
		out.Waiting.Min.Y+out.Waiting.Dy()/2,
	)
	if gotCenter != wantCenter {
		t.Errorf("waiting centered at %v, want %v", gotCenter, wantCenter)
	}
	if !out.HaveStatus || out.StatusRect != out.Waiting {
		t.Error("waiting rectangle must be memoized as StatusRect")
	}
}

func TestResultReusesStatusRect(t *testing.T) {
	// Waiting pass computes the memo...
	in := baseInput()
	in.ShowWaiting = true
	in.WaitingSize = image.Pt(140, 32)
	waitingOut := Compute(in)

	// ...and the result pass must land on the exact same footprint.
	in = baseInput()
	in.ShowResult = true
	in.StatusRect = waitingOut.StatusRect
	in.HaveStatus = true
	resultOut := Compute(in)

	if resultOut.Result != waitingOut.StatusRect {
		t.Errorf("result box %v does not reuse StatusRect %v", resultOut.Result, waitingOut.StatusRect)
	}
	if resultOut.StatusRect != waitingOut.StatusRect {
		t.Error("memo must survive the waiting to result transition")
	}
}

func TestResultFallbackWithoutMemo(t *testing.T) {
	in := baseInput()
	in.ShowResult = true

	out := Compute(in)

	wantW := int(float64(primary.Dx()) * resultWidthFrac)
	wantH := int(float64(primary.Dy()) * resultHeightFrac)
	if out.Result.Dx() != wantW || out.Result.Dy() != wantH {
		t.Errorf("fallback result size %v, want %dx%d", out.Result.Size(), wantW, wantH)
	}
	if !out.HaveStatus {
		t.Error("fallback rectangle becomes the new memo")
	}
}

func TestPreviewPlacedAboveWhenRoomExists(t *testing.T) {
	in := baseInput()
	in.ShowWaiting = true
	in.ShowPreview = true
	in.WaitingSize = image.Pt(140, 32)
	in.PreviewSize = image.Pt(400, 300)

	out := Compute(in)

	// The waiting box sits at the center of a 1080-high display, so far more
	// than 120 units remain above it.
	if out.Preview.Max.Y > out.Waiting.Min.Y {
		t.Errorf("preview %v should be above waiting box %v", out.Preview, out.Waiting)
	}
}

func TestPreviewPlacedBelowWhenNoRoomAbove(t *testing.T) {
	in := baseInput()
	in.ShowResult = true
	in.ShowPreview = true
	in.PreviewSize = image.Pt(400, 300)
	// Status box pinned near the top edge leaves < 120 units above it.
	in.StatusRect = image.Rect(700, 80, 1200, 300)
	in.HaveStatus = true

	out := Compute(in)

	if out.Preview.Min.Y < out.Result.Max.Y {
		t.Errorf("preview %v should be below result box %v", out.Preview, out.Result)
	}
}

func TestPreviewCappedAtHalfPrimary(t *testing.T) {
	in := baseInput()
	in.ShowPreview = true
	in.PreviewSize = image.Pt(4000, 3000) // huge crop

	out := Compute(in)

	if out.Preview.Dx() > primary.Dx()/2 {
		t.Errorf("preview width %d exceeds half primary width", out.Preview.Dx())
	}
	if out.Preview.Dy() > primary.Dy()/2 {
		t.Errorf("preview height %d exceeds half primary height", out.Preview.Dy())
	}
}

func TestPreviewKeepsAspectRatio(t *testing.T) {
	in := baseInput()
	in.ShowWaiting = true
	in.ShowPreview = true
	in.WaitingSize = image.Pt(140, 32)
	in.PreviewSize = image.Pt(800, 200) // 4:1

	out := Compute(in)

	gotAspect := float64(out.Preview.Dx()) / float64(out.Preview.Dy())
	if gotAspect < 3.8 || gotAspect > 4.2 {
		t.Errorf("preview aspect %.2f drifted from source 4.0", gotAspect)
	}
}

func TestHiddenRegionsAreZero(t *testing.T) {
	out := Compute(baseInput())

	zero := image.Rectangle{}
	if out.Instruction != zero || out.Waiting != zero || out.Preview != zero || out.Result != zero {
		t.Errorf("hidden regions must be zero rectangles: %+v", out)
	}
}

func TestFitAspect(t *testing.T) {
	tests := []struct {
		name       string
		src        image.Point
		maxW, maxH int
		w, h       int
	}{
		{"fits unchanged", image.Pt(100, 50), 200, 200, 100, 50},
		{"width bound", image.Pt(400, 100), 200, 200, 200, 50},
		{"height bound", image.Pt(100, 400), 200, 200, 50, 200},
		{"degenerate source uses box", image.Pt(0, 0), 200, 120, 200, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitAspect(tt.src, tt.maxW, tt.maxH)
			if w != tt.w || h != tt.h {
				t.Errorf("fitAspect(%v) = %dx%d, want %dx%d", tt.src, w, h, tt.w, tt.h)
			}
		})
	}
}

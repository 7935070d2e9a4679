//go:build windows

package overlay

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"screen-translate-llm/selection"
	"screen-translate-llm/snapshot"
)

var (
	gdi32DLL      = windows.NewLazySystemDLL("gdi32.dll")
	procCreatePen = gdi32DLL.NewProc("CreatePen")
	procRectangle = gdi32DLL.NewProc("Rectangle")

	user32DLL                    = windows.NewLazySystemDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
)

const (
	psDash = 1 // PS_DASH

	dimAlphaSelecting = 100
	dimAlphaResult    = 150
	regionAlpha       = 150
)

// activeSurface lets the window procedure reach the surface owning the
// window. Only one overlay window exists at a time (the state machine allows
// a single session).
var (
	activeMu      sync.Mutex
	activeSurface *winSurface
)

type winSurface struct {
	mu      sync.Mutex
	frame   Frame
	handler Handler
	snap    *snapshot.Snapshot

	hwnd    win.HWND
	virtual image.Rectangle
	shown   bool
	quit    chan struct{}
}

func newPlatformSurface() Surface { return &winSurface{} }

func (s *winSurface) Show(snap *snapshot.Snapshot, handler Handler) error {
	s.mu.Lock()
	if s.shown {
		s.mu.Unlock()
		return fmt.Errorf("overlay already shown")
	}
	s.snap = snap
	s.handler = handler
	if snap != nil {
		s.virtual = snap.Geometry.Virtual
	} else {
		vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
		vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
		vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
		vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
		s.virtual = image.Rect(int(vx), int(vy), int(vx+vw), int(vy+vh))
	}
	s.shown = true
	s.quit = make(chan struct{})
	s.mu.Unlock()

	activeMu.Lock()
	activeSurface = s
	activeMu.Unlock()

	ready := make(chan error, 1)
	go s.messageLoop(ready)
	if err := <-ready; err != nil {
		s.mu.Lock()
		s.shown = false
		s.snap = nil
		s.mu.Unlock()
		activeMu.Lock()
		if activeSurface == s {
			activeSurface = nil
		}
		activeMu.Unlock()
		return err
	}
	return nil
}

// messageLoop creates the window and pumps messages on a dedicated goroutine.
// Handler callbacks run on this goroutine; the event loop marshals them onto
// the interactive one.
func (s *winSurface) messageLoop(ready chan<- error) {
	// Window handles are thread-affine; the whole life of the window stays
	// on this OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	classNameStr := fmt.Sprintf("TranslateOverlay_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)

	crossCursor := win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       crossCursor,
		HbrBackground: 0, // painted entirely by WM_PAINT
		LpszClassName: className,
	}
	if atom := win.RegisterClassEx(&wndClass); atom == 0 {
		ready <- fmt.Errorf("failed to register overlay window class")
		return
	}
	defer win.UnregisterClass(className)

	v := s.virtual
	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr("Drag to select. Enter translates, Esc cancels."),
		win.WS_POPUP|win.WS_VISIBLE,
		int32(v.Min.X), int32(v.Min.Y), int32(v.Dx()), int32(v.Dy()),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		ready <- fmt.Errorf("failed to create overlay window")
		return
	}

	s.mu.Lock()
	s.hwnd = hwnd
	s.mu.Unlock()

	win.ShowWindow(hwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(windows.GetCurrentProcessId()))
	win.SetForegroundWindow(hwnd)
	win.BringWindowToTop(hwnd)
	win.SetFocus(hwnd)
	win.UpdateWindow(hwnd)

	ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}

	win.DestroyWindow(hwnd)
	s.mu.Lock()
	s.hwnd = 0
	s.mu.Unlock()
	close(s.quit)
}

func (s *winSurface) Apply(frame Frame) {
	s.mu.Lock()
	s.frame = frame
	hwnd := s.hwnd
	s.mu.Unlock()
	if hwnd != 0 {
		win.InvalidateRect(hwnd, nil, false)
	}
}

func (s *winSurface) Hide() {
	s.mu.Lock()
	hwnd := s.hwnd
	quit := s.quit
	shown := s.shown
	s.shown = false
	s.snap = nil
	s.mu.Unlock()

	if !shown {
		return
	}
	if hwnd != 0 {
		win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
	}
	if quit != nil {
		<-quit
	}

	activeMu.Lock()
	if activeSurface == s {
		activeSurface = nil
	}
	activeMu.Unlock()
}

func (s *winSurface) Close() { s.Hide() }

// toGlobal converts window-client coordinates to global desktop coordinates.
func (s *winSurface) toGlobal(x, y int32) image.Point {
	return image.Pt(int(x)+s.virtual.Min.X, int(y)+s.virtual.Min.Y)
}

// toClient converts a widget-local rectangle to win.RECT.
func toRECT(r image.Rectangle) win.RECT {
	return win.RECT{
		Left: int32(r.Min.X), Top: int32(r.Min.Y),
		Right: int32(r.Max.X), Bottom: int32(r.Max.Y),
	}
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	activeMu.Lock()
	s := activeSurface
	activeMu.Unlock()
	if s == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case win.WM_LBUTTONDOWN:
		x := int32(win.LOWORD(uint32(lParam)))
		y := int32(win.HIWORD(uint32(lParam)))
		win.SetCapture(hwnd)
		if h := s.currentHandler(); h != nil {
			h.PointerDown(s.toGlobal(x, y))
		}
		return 0

	case win.WM_MOUSEMOVE:
		x := int32(win.LOWORD(uint32(lParam)))
		y := int32(win.HIWORD(uint32(lParam)))
		if h := s.currentHandler(); h != nil {
			h.PointerMove(s.toGlobal(x, y))
		}
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		x := int32(win.LOWORD(uint32(lParam)))
		y := int32(win.HIWORD(uint32(lParam)))
		if h := s.currentHandler(); h != nil {
			h.PointerUp(s.toGlobal(x, y))
		}
		return 0

	case win.WM_KEYDOWN:
		switch wParam {
		case uintptr(win.VK_RETURN):
			if h := s.currentHandler(); h != nil {
				h.Confirm()
			}
		case uintptr(win.VK_ESCAPE):
			if h := s.currentHandler(); h != nil {
				h.Cancel()
			}
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		s.paint(hdc)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_NCHITTEST:
		// Everything is client area so mouse events always arrive.
		return uintptr(win.HTCLIENT)

	case win.WM_CLOSE:
		win.PostQuitMessage(0)
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (s *winSurface) currentHandler() Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler
}

func (s *winSurface) paint(hdc win.HDC) {
	s.mu.Lock()
	frame := s.frame
	snap := s.snap
	v := s.virtual
	s.mu.Unlock()

	width, height := int32(v.Dx()), int32(v.Dy())

	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)
	backBmp := win.CreateCompatibleBitmap(hdc, width, height)
	defer win.DeleteObject(win.HGDIOBJ(backBmp))
	oldBack := win.SelectObject(memDC, win.HGDIOBJ(backBmp))
	defer win.SelectObject(memDC, oldBack)

	// Frozen desktop (or black when capture failed), then the dim layer.
	black := win.GetStockObject(win.BLACK_BRUSH)
	full := win.RECT{Left: 0, Top: 0, Right: width, Bottom: height}
	win.FillRect(memDC, &full, win.HBRUSH(black))

	var snapDC win.HDC
	if snap != nil && snap.Image != nil {
		snapDC = win.CreateCompatibleDC(hdc)
		defer win.DeleteDC(snapDC)
		snapBmp := dibFromRGBA(snapDC, snap.Image)
		if snapBmp != 0 {
			defer win.DeleteObject(win.HGDIOBJ(snapBmp))
			oldSnap := win.SelectObject(snapDC, win.HGDIOBJ(snapBmp))
			defer win.SelectObject(snapDC, oldSnap)
			win.BitBlt(memDC, 0, 0, width, height, snapDC, 0, 0, win.SRCCOPY)
		}
	}

	alpha := byte(dimAlphaResult)
	if frame.State == selection.Selecting {
		alpha = dimAlphaSelecting
	}
	alphaFill(hdc, memDC, image.Rect(0, 0, int(width), int(height)), alpha)

	// Unshade the live selection and outline it.
	if frame.State == selection.Selecting && !frame.Selection.Empty() && snapDC != 0 {
		local := frame.Selection.Sub(v.Min)
		win.BitBlt(memDC,
			int32(local.Min.X), int32(local.Min.Y), int32(local.Dx()), int32(local.Dy()),
			snapDC, int32(local.Min.X), int32(local.Min.Y), win.SRCCOPY)
		drawDashedRect(memDC, local)
	}

	if frame.Instruction.Visible {
		drawTextRegion(hdc, memDC, frame.Instruction.Rect, frame.InstructionText)
	}
	if frame.Waiting.Visible {
		drawTextRegion(hdc, memDC, frame.Waiting.Rect, frame.WaitingText)
	}
	if frame.Result.Visible {
		drawTextRegion(hdc, memDC, frame.Result.Rect, frame.ResultText)
	}
	if frame.Preview.Visible && frame.PreviewImage != nil {
		drawPreview(hdc, memDC, frame.Preview.Rect, frame.PreviewImage)
	}

	win.BitBlt(hdc, 0, 0, width, height, memDC, 0, 0, win.SRCCOPY)
}

// alphaFill blends constant-alpha black over dst within r.
func alphaFill(refDC, dst win.HDC, r image.Rectangle, alpha byte) {
	srcDC := win.CreateCompatibleDC(refDC)
	defer win.DeleteDC(srcDC)
	srcBmp := win.CreateCompatibleBitmap(refDC, 1, 1)
	if srcBmp == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(srcBmp))
	old := win.SelectObject(srcDC, win.HGDIOBJ(srcBmp))
	defer win.SelectObject(srcDC, old)

	px := win.RECT{Left: 0, Top: 0, Right: 1, Bottom: 1}
	win.FillRect(srcDC, &px, win.HBRUSH(win.GetStockObject(win.BLACK_BRUSH)))

	blend := win.BLENDFUNCTION{
		BlendOp:             win.AC_SRC_OVER,
		SourceConstantAlpha: alpha,
	}
	win.AlphaBlend(dst,
		int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()),
		srcDC, 0, 0, 1, 1, blend)
}

func drawDashedRect(hdc win.HDC, r image.Rectangle) {
	pen, _, _ := procCreatePen.Call(psDash, 1, 0x00FFFFFF) // white
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))
	procRectangle.Call(uintptr(hdc),
		uintptr(r.Min.X), uintptr(r.Min.Y), uintptr(r.Max.X), uintptr(r.Max.Y))
	win.SelectObject(hdc, oldBrush)
	win.SelectObject(hdc, oldPen)
	win.DeleteObject(win.HGDIOBJ(pen))
}

func drawTextRegion(refDC, hdc win.HDC, r image.Rectangle, text string) {
	if text == "" || r.Empty() {
		return
	}
	alphaFill(refDC, hdc, r, regionAlpha)

	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFFFF))

	utf16, err := syscall.UTF16FromString(text)
	if err != nil {
		return
	}
	inner := toRECT(r.Inset(8))
	win.DrawTextEx(hdc, &utf16[0], int32(len(utf16)-1), &inner,
		win.DT_CENTER|win.DT_WORDBREAK|win.DT_NOPREFIX, nil)
}

func drawPreview(refDC, hdc win.HDC, r image.Rectangle, img image.Image) {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	srcDC := win.CreateCompatibleDC(refDC)
	defer win.DeleteDC(srcDC)
	bmp := dibFromRGBA(srcDC, rgba)
	if bmp == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(bmp))
	old := win.SelectObject(srcDC, win.HGDIOBJ(bmp))
	defer win.SelectObject(srcDC, old)

	b := rgba.Bounds()
	win.StretchBlt(hdc,
		int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()),
		srcDC, 0, 0, int32(b.Dx()), int32(b.Dy()), win.SRCCOPY)
}

// dibFromRGBA creates a top-down 32bpp DIB section holding the image pixels
// in BGRA order.
func dibFromRGBA(dc win.HDC, img *image.RGBA) win.HBITMAP {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 1 || height < 1 {
		return 0
	}

	bi := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height), // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}

	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(dc, &bi.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		log.Printf("Overlay: CreateDIBSection failed for %dx%d", width, height)
		return 0
	}

	dst := unsafe.Slice((*byte)(pBits), width*height*4)
	for y := 0; y < height; y++ {
		srcRow := img.Pix[(y)*img.Stride : (y)*img.Stride+width*4]
		dstRow := dst[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			dstRow[x*4+0] = srcRow[x*4+2] // B
			dstRow[x*4+1] = srcRow[x*4+1] // G
			dstRow[x*4+2] = srcRow[x*4+0] // R
			dstRow[x*4+3] = srcRow[x*4+3] // A
		}
	}
	return hBitmap
}

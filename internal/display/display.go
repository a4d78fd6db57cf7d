// Package display provides the screen-content abstraction consumed by
// internal/framebuffer: something that can be captured into BGRX pixels and
// that accepts injected keyboard/pointer events. Simulated is a
// self-contained deterministic display useful for demos and tests; Real
// adapts an embedder-supplied capture/injection hook into the same
// interface.
package display

import (
	"fmt"
	"image"
)

// Display is the capture/input surface for one screen.
type Display interface {
	// Size returns the display's current width and height in pixels.
	Size() (width, height int)

	// CaptureFull returns the entire screen as BGRX rows (4 bytes per
	// pixel, blue-green-red-unused), the internal sample format that
	// internal/framebuffer converts to each client's PixelFormat.
	CaptureFull() ([]byte, error)

	// CaptureRegion returns a sub-rectangle of the screen in the same BGRX
	// layout as CaptureFull.
	CaptureRegion(x, y, w, h int) ([]byte, error)

	// InjectKey delivers a keyboard event identified by an X11 keysym.
	InjectKey(keysym uint32, down bool)

	// InjectPointer delivers an absolute pointer position and button mask.
	InjectPointer(x, y int, buttonMask uint8)
}

// ErrOutOfBounds is returned by CaptureRegion when the requested rectangle
// falls outside the display.
type ErrOutOfBounds struct {
	X, Y, W, H    int
	Width, Height int
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("display: region (%d,%d,%d,%d) out of bounds for %dx%d display",
		e.X, e.Y, e.W, e.H, e.Width, e.Height)
}

// rgbaToBGRX converts the visible pixels of img into tightly packed BGRX
// rows, the internal sample format described on Display.CaptureFull.
func rgbaToBGRX(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	i := 0
	for y := 0; y < h; y++ {
		rowOff := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[rowOff : rowOff+w*4]
		for x := 0; x < w; x++ {
			r, g, bl, _ := row[x*4+0], row[x*4+1], row[x*4+2], row[x*4+3]
			out[i+0] = bl
			out[i+1] = g
			out[i+2] = r
			out[i+3] = 0
			i += 4
		}
	}
	return out
}

func cropRGBA(img *image.RGBA, x, y, w, h int) (*image.RGBA, error) {
	b := img.Bounds()
	if x < 0 || y < 0 || x+w > b.Dx() || y+h > b.Dy() {
		return nil, &ErrOutOfBounds{X: x, Y: y, W: w, H: h, Width: b.Dx(), Height: b.Dy()}
	}
	rect := image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+w, b.Min.Y+y+h)
	return img.SubImage(rect).(*image.RGBA), nil
}

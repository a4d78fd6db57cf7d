package display

import (
	"fmt"
	"image"
	"sync"

	"github.com/nfnt/resize"
)

// CaptureFunc grabs a full-screen snapshot. Real has no platform-specific
// capture implementation of its own (out of scope, per SPEC_FULL.md's
// display non-goals); the embedder supplies one.
type CaptureFunc func() (*image.RGBA, error)

// InjectKeyFunc delivers a keyboard event to the embedder's platform.
type InjectKeyFunc func(keysym uint32, down bool)

// InjectPointerFunc delivers a pointer event to the embedder's platform.
type InjectPointerFunc func(x, y int, buttonMask uint8)

// Real adapts an embedder-supplied capture/injection hook set into a
// Display. If the embedder's native resolution differs from the configured
// screen size, captured frames are scaled to fit using Lanczos resampling.
type Real struct {
	width, height int

	capture       CaptureFunc
	injectKey     InjectKeyFunc
	injectPointer InjectPointerFunc

	mu   sync.Mutex
	last *image.RGBA
}

// NewReal constructs a Real display. capture is required; injectKey and
// injectPointer may be nil, in which case the corresponding Inject method is
// a no-op (useful for read-only/view-only deployments).
func NewReal(width, height int, capture CaptureFunc, injectKey InjectKeyFunc, injectPointer InjectPointerFunc) (*Real, error) {
	if capture == nil {
		return nil, fmt.Errorf("display: Real requires a non-nil CaptureFunc")
	}
	return &Real{
		width: width, height: height,
		capture: capture, injectKey: injectKey, injectPointer: injectPointer,
	}, nil
}

func (r *Real) Size() (int, int) {
	return r.width, r.height
}

func (r *Real) captureScaled() (*image.RGBA, error) {
	img, err := r.capture()
	if err != nil {
		return nil, fmt.Errorf("display: capture: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == r.width && b.Dy() == r.height {
		return img, nil
	}
	scaled := resize.Resize(uint(r.width), uint(r.height), img, resize.Lanczos3)
	out, ok := scaled.(*image.RGBA)
	if !ok {
		out = image.NewRGBA(image.Rect(0, 0, r.width, r.height))
		for y := 0; y < r.height; y++ {
			for x := 0; x < r.width; x++ {
				out.Set(x, y, scaled.At(x, y))
			}
		}
	}
	return out, nil
}

func (r *Real) CaptureFull() ([]byte, error) {
	img, err := r.captureScaled()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.last = img
	r.mu.Unlock()
	return rgbaToBGRX(img), nil
}

func (r *Real) CaptureRegion(x, y, w, h int) ([]byte, error) {
	img, err := r.captureScaled()
	if err != nil {
		return nil, err
	}
	cropped, err := cropRGBA(img, x, y, w, h)
	if err != nil {
		return nil, err
	}
	return rgbaToBGRX(cropped), nil
}

func (r *Real) InjectKey(keysym uint32, down bool) {
	if r.injectKey != nil {
		r.injectKey(keysym, down)
	}
}

func (r *Real) InjectPointer(x, y int, buttonMask uint8) {
	if r.injectPointer != nil {
		r.injectPointer(x, y, buttonMask)
	}
}

var _ Display = (*Real)(nil)

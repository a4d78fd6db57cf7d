// Package framebuffer owns the capture loop: it polls a display.Display at
// a configured rate, publishes immutable samples for connections to read
// without blocking the capturer, and turns the diff between two samples
// into RFB FramebufferUpdate rectangles.
package framebuffer

import (
	"context"
	"image"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/openrfb/rfbd/internal/display"
)

// Sample is one immutable capture of the framebuffer. Engine publishes new
// samples via an atomic.Pointer; readers never block the capture goroutine.
type Sample struct {
	Version    uint64
	Width      int
	Height     int
	Pix        []byte // BGRX, width*height*4 bytes
	CapturedAt time.Time
}

// blockSize is the granularity of dirty-region detection.
const blockSize = 32

// Engine runs the capture loop for one display and publishes Samples.
type Engine struct {
	disp display.Display
	rate time.Duration
	log  zerolog.Logger

	current atomic.Pointer[Sample]
	version atomic.Uint64

	changed chan struct{} // broadcast-style: closed+replaced on each new sample

	stop   chan struct{}
	done   chan struct{}
	onTick func() // test hook, called after each capture
}

// NewEngine constructs an Engine. rate is the interval between captures; a
// non-positive rate defaults to time.Second/30 (30Hz).
func NewEngine(disp display.Display, rate time.Duration, log zerolog.Logger) *Engine {
	if rate <= 0 {
		rate = time.Second / 30
	}
	e := &Engine{
		disp:    disp,
		rate:    rate,
		log:     log,
		changed: make(chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	return e
}

// Start runs the capture loop until ctx is canceled or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	go e.loop(ctx)
}

// Stop halts the capture loop and blocks until it has exited.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.rate)
	defer ticker.Stop()

	e.captureOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		case <-ticker.C:
			e.captureOnce()
		}
	}
}

func (e *Engine) captureOnce() {
	if sim, ok := e.disp.(*display.Simulated); ok {
		sim.Advance()
	}
	w, h := e.disp.Size()
	pix, err := e.disp.CaptureFull()
	if err != nil {
		e.log.Error().Err(&CaptureError{Err: err}).Msg("framebuffer: publishing blank frame")
		pix = make([]byte, w*h*4)
	}

	v := e.version.Add(1)
	sample := &Sample{Version: v, Width: w, Height: h, Pix: pix, CapturedAt: time.Now()}
	e.current.Store(sample)

	old := e.changed
	e.changed = make(chan struct{})
	close(old)

	if e.onTick != nil {
		e.onTick()
	}
}

// Current returns the most recently published sample, or nil if capture
// hasn't produced one yet.
func (e *Engine) Current() *Sample {
	return e.current.Load()
}

// Changed returns a channel that is closed when a new sample is published
// after the call to Changed. Callers re-call Changed after each wake to
// wait for the next change.
func (e *Engine) Changed() <-chan struct{} {
	return e.changed
}

// Resize is called when the embedder changes the underlying display's
// resolution out of band (the Display implementation itself owns the
// resize; Engine just needs to know a DesktopSize pseudo-rectangle is due).
// It forces an immediate recapture so the new size is reflected promptly.
func (e *Engine) Resize() {
	e.captureOnce()
}

// dirtyBlocks compares two same-sized BGRX samples and returns the set of
// blockSize x blockSize blocks (in image coordinates) that differ, or nil if
// prev is nil or the sizes don't match (forcing a full-frame update).
func dirtyBlocks(prev, cur *Sample) []image.Point {
	if prev == nil || prev.Width != cur.Width || prev.Height != cur.Height {
		return nil
	}
	w, h := cur.Width, cur.Height
	var blocks []image.Point
	for by := 0; by < h; by += blockSize {
		bh := blockSize
		if by+bh > h {
			bh = h - by
		}
		for bx := 0; bx < w; bx += blockSize {
			bw := blockSize
			if bx+bw > w {
				bw = w - bx
			}
			if blockDiffers(prev, cur, bx, by, bw, bh) {
				blocks = append(blocks, image.Pt(bx, by))
			}
		}
	}
	return blocks
}

func blockDiffers(prev, cur *Sample, x, y, w, h int) bool {
	stride := cur.Width * 4
	for row := 0; row < h; row++ {
		off := (y+row)*stride + x*4
		n := w * 4
		if !bytesEqual(prev.Pix[off:off+n], cur.Pix[off:off+n]) {
			return true
		}
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// coalesceRects merges dirty blocks into larger rectangles: first merging
// contiguous blocks within a row, then merging rows with identical column
// spans into a single rectangle, which keeps the client-visible rectangle
// count low without a generalized max-rectangle search.
func coalesceRects(blocks []image.Point, width, height int) []image.Rectangle {
	if len(blocks) == 0 {
		return nil
	}

	byRow := make(map[int][]int) // y -> sorted x list
	for _, b := range blocks {
		byRow[b.Y] = append(byRow[b.Y], b.X)
	}

	var spans []dirtySpan
	for y, xs := range byRow {
		sortInts(xs)
		i := 0
		for i < len(xs) {
			start := xs[i]
			end := start + blockSize
			j := i + 1
			for j < len(xs) && xs[j] == end {
				end += blockSize
				j++
			}
			if end > width {
				end = width
			}
			spans = append(spans, dirtySpan{x0: start, x1: end, y: y})
			i = j
		}
	}

	sortSpans(spans)

	used := make([]bool, len(spans))
	var rects []image.Rectangle
	for i, s := range spans {
		if used[i] {
			continue
		}
		y0 := s.y
		y1 := s.y + blockSize
		for {
			merged := false
			for j := i + 1; j < len(spans); j++ {
				if used[j] {
					continue
				}
				if spans[j].x0 == s.x0 && spans[j].x1 == s.x1 && spans[j].y == y1 {
					y1 += blockSize
					used[j] = true
					merged = true
					break
				}
			}
			if !merged {
				break
			}
		}
		if y1 > height {
			y1 = height
		}
		rects = append(rects, image.Rect(s.x0, y0, s.x1, y1))
	}
	return rects
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// dirtySpan is a contiguous run of dirty blocks within one block-row.
type dirtySpan struct{ x0, x1, y int }

func sortSpans(spans []dirtySpan) {
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && (spans[j-1].y > spans[j].y || (spans[j-1].y == spans[j].y && spans[j-1].x0 > spans[j].x0)); j-- {
			spans[j-1], spans[j] = spans[j], spans[j-1]
		}
	}
}

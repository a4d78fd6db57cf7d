package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Simulated is a deterministic, self-contained Display: an animated gradient
// with a frame counter and connected-client count rendered as text. It needs
// no platform screen-capture support, making it suitable for demos, the
// reference cmd/rfbd binary (which always serves a Simulated display), and
// tests.
type Simulated struct {
	mu      sync.Mutex
	width   int
	height  int
	frame   uint64
	clients int

	lastKeysym  uint32
	lastKeyDown bool
	lastPtrX    int
	lastPtrY    int
	lastButtons uint8
}

// NewSimulated constructs a Simulated display of the given size.
func NewSimulated(width, height int) *Simulated {
	return &Simulated{width: width, height: height}
}

func (s *Simulated) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// SetConnectedClients updates the count shown in the status overlay. The
// framebuffer engine's server calls this whenever a connection is accepted
// or closed.
func (s *Simulated) SetConnectedClients(n int) {
	s.mu.Lock()
	s.clients = n
	s.mu.Unlock()
}

// Advance moves the animation forward by one frame. The framebuffer engine
// calls this once per capture tick.
func (s *Simulated) Advance() {
	s.mu.Lock()
	s.frame++
	s.mu.Unlock()
}

func (s *Simulated) render() *image.RGBA {
	s.mu.Lock()
	w, h, frame, clients := s.width, s.height, s.frame, s.clients
	keysym, keyDown, ptrX, ptrY, buttons := s.lastKeysym, s.lastKeyDown, s.lastPtrX, s.lastPtrY, s.lastButtons
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := uint8((x + int(frame)) % 256)
			g := uint8((y + int(frame)/2) % 256)
			b := uint8((x + y + int(frame)/3) % 256)
			img.SetRGBA(x, y, color.RGBA{r, g, b, 0xff})
		}
	}

	draw.Draw(img, image.Rect(4, 4, w-4, 20), image.NewUniform(color.Black), image.Point{}, draw.Src)
	label(img, fmt.Sprintf("frame %d  clients: %d", frame, clients), image.Pt(8, 16))

	if keysym != 0 || buttons != 0 {
		status := fmt.Sprintf("key=%#x down=%v ptr=(%d,%d) buttons=%#x", keysym, keyDown, ptrX, ptrY, buttons)
		draw.Draw(img, image.Rect(4, 24, w-4, 40), image.NewUniform(color.Black), image.Point{}, draw.Src)
		label(img, status, image.Pt(8, 36))
	}

	return img
}

func label(img draw.Image, text string, at image.Point) {
	fd := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(at.X), Y: fixed.I(at.Y)},
	}
	fd.DrawString(text)
}

func (s *Simulated) CaptureFull() ([]byte, error) {
	return rgbaToBGRX(s.render()), nil
}

func (s *Simulated) CaptureRegion(x, y, w, h int) ([]byte, error) {
	full := s.render()
	cropped, err := cropRGBA(full, x, y, w, h)
	if err != nil {
		return nil, err
	}
	return rgbaToBGRX(cropped), nil
}

func (s *Simulated) InjectKey(keysym uint32, down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKeysym = keysym
	s.lastKeyDown = down
}

func (s *Simulated) InjectPointer(x, y int, buttonMask uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPtrX = x
	s.lastPtrY = y
	s.lastButtons = buttonMask
}

// LastPointerEvent reports the most recently injected pointer state, for
// tests that assert input delivery.
func (s *Simulated) LastPointerEvent() (x, y int, buttonMask uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPtrX, s.lastPtrY, s.lastButtons
}

// LastKeyEvent reports the most recently injected key state.
func (s *Simulated) LastKeyEvent() (keysym uint32, down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKeysym, s.lastKeyDown
}

var _ Display = (*Simulated)(nil)

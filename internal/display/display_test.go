package display

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimulatedSizeAndCapture(t *testing.T) {
	s := NewSimulated(64, 48)
	w, h := s.Size()
	require.Equal(t, 64, w)
	require.Equal(t, 48, h)

	pix, err := s.CaptureFull()
	require.NoError(t, err)
	require.Len(t, pix, 64*48*4)
}

func TestSimulatedAdvanceChangesFrame(t *testing.T) {
	s := NewSimulated(16, 16)
	first, err := s.CaptureFull()
	require.NoError(t, err)

	s.Advance()
	second, err := s.CaptureFull()
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestSimulatedCaptureRegionBounds(t *testing.T) {
	s := NewSimulated(32, 32)
	_, err := s.CaptureRegion(0, 0, 32, 32)
	require.NoError(t, err)

	_, err = s.CaptureRegion(16, 16, 32, 32)
	require.Error(t, err)
	var oob *ErrOutOfBounds
	require.True(t, errors.As(err, &oob))
}

func TestSimulatedInjectRecordsLastEvent(t *testing.T) {
	s := NewSimulated(16, 16)
	s.InjectKey(KeysymReturn, true)
	sym, down := s.LastKeyEvent()
	require.Equal(t, KeysymReturn, sym)
	require.True(t, down)

	s.InjectPointer(3, 4, ButtonLeft)
	x, y, mask := s.LastPointerEvent()
	require.Equal(t, 3, x)
	require.Equal(t, 4, y)
	require.Equal(t, ButtonLeft, mask)
}

func TestIsKnownKeysym(t *testing.T) {
	require.True(t, IsKnownKeysym(KeysymEscape))
	require.True(t, IsKnownKeysym('a'))
	require.False(t, IsKnownKeysym(0xdead))
}

func TestRealScalesToConfiguredSize(t *testing.T) {
	native := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			native.SetRGBA(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 0, 0xff})
		}
	}

	var injectedKey uint32
	var injectedDown bool
	var injectedX, injectedY int
	var injectedMask uint8

	r, err := NewReal(320, 240,
		func() (*image.RGBA, error) { return native, nil },
		func(keysym uint32, down bool) { injectedKey, injectedDown = keysym, down },
		func(x, y int, mask uint8) { injectedX, injectedY, injectedMask = x, y, mask },
	)
	require.NoError(t, err)

	pix, err := r.CaptureFull()
	require.NoError(t, err)
	require.Len(t, pix, 320*240*4)

	r.InjectKey(KeysymTab, true)
	require.Equal(t, KeysymTab, injectedKey)
	require.True(t, injectedDown)

	r.InjectPointer(10, 20, ButtonRight)
	require.Equal(t, 10, injectedX)
	require.Equal(t, 20, injectedY)
	require.Equal(t, ButtonRight, injectedMask)
}

func TestRealRequiresCaptureFunc(t *testing.T) {
	_, err := NewReal(100, 100, nil, nil, nil)
	require.Error(t, err)
}

package framebuffer

import (
	"image"

	"github.com/openrfb/rfbd/rfb"
)

// ClientState is the subset of per-connection negotiated state BuildUpdate
// needs: the client's requested pixel format and its encoding preference
// order (as sent in SetEncodings, defaulting to Raw-only).
type ClientState struct {
	PixelFormat         rfb.PixelFormat
	PreferredEncs       []int32
	SupportsDesktopSize bool
}

// BuildUpdate diffs prev against cur (prev may be nil, forcing a full-frame
// update) and returns the FramebufferUpdate the client should receive, or
// nil if nothing changed. region restricts the comparison and output to a
// single requested rectangle (typically the whole screen); pass the zero
// Rectangle to mean "the whole sample".
func BuildUpdate(prev, cur *Sample, region image.Rectangle, client ClientState) *rfb.FramebufferUpdateMessage {
	full := image.Rect(0, 0, cur.Width, cur.Height)
	if region == (image.Rectangle{}) {
		region = full
	} else {
		region = region.Intersect(full)
	}

	var blocks []image.Point
	if prev == nil || prev.Width != cur.Width || prev.Height != cur.Height {
		for by := 0; by < cur.Height; by += blockSize {
			for bx := 0; bx < cur.Width; bx += blockSize {
				blocks = append(blocks, image.Pt(bx, by))
			}
		}
	} else {
		blocks = dirtyBlocks(prev, cur)
	}

	rects := coalesceRects(blocks, cur.Width, cur.Height)

	var msg rfb.FramebufferUpdateMessage
	candidates := rects
	for _, r := range rects {
		r = r.Intersect(region)
		if r.Empty() {
			continue
		}
		encID, payload := selectEncoding(client.PreferredEncs, prev, cur, r, client.PixelFormat, candidates)
		msg.Rectangles = append(msg.Rectangles, &rfb.FramebufferUpdateRect{
			X: uint16(r.Min.X), Y: uint16(r.Min.Y),
			Width: uint16(r.Dx()), Height: uint16(r.Dy()),
			EncodingType: encID,
			PixelData:    payload,
		})
	}

	if prev != nil && (prev.Width != cur.Width || prev.Height != cur.Height) && client.SupportsDesktopSize {
		msg.Rectangles = append(msg.Rectangles, &rfb.FramebufferUpdateRect{
			Width: uint16(cur.Width), Height: uint16(cur.Height),
			EncodingType: rfb.EncodingPseudoDesktopSize,
		})
	}

	if len(msg.Rectangles) == 0 {
		return nil
	}
	return &msg
}

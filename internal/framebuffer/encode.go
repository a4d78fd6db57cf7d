package framebuffer

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/openrfb/rfbd/rfb"
)

// encodeRaw renders one rectangle of a BGRX sample into the wire bytes for
// the given client PixelFormat using rfb.PixelFormatImage, the same
// shift/mask conversion the server's canonical format is defined in terms
// of. pf is assumed valid; dispatch rejects any SetPixelFormat the client
// sends that rfb.NewPixelFormatImage can't construct.
func encodeRaw(sample *Sample, rect image.Rectangle, pf rfb.PixelFormat) []byte {
	img, err := rfb.NewPixelFormatImage(pf, image.Rect(0, 0, rect.Dx(), rect.Dy()))
	if err != nil {
		img, _ = rfb.NewPixelFormatImage(rfb.ServerCanonicalPixelFormat(), image.Rect(0, 0, rect.Dx(), rect.Dy()))
	}

	stride := sample.Width * 4
	for y := 0; y < rect.Dy(); y++ {
		rowOff := (rect.Min.Y+y)*stride + rect.Min.X*4
		row := sample.Pix[rowOff : rowOff+rect.Dx()*4]
		for x := 0; x < rect.Dx(); x++ {
			img.Set(x, y, color.RGBA{R: row[x*4+2], G: row[x*4+1], B: row[x*4+0], A: 0xff})
		}
	}
	return img.Pix
}

// encodeCopyRect looks for a same-size, same-content region in prev at a
// different offset than rect in cur, which lets the client reuse pixels it
// already has instead of retransmitting them. The search is bounded to the
// previous sample's own dirty candidates to keep cost proportional to the
// update size rather than the whole framebuffer.
func encodeCopyRect(prev, cur *Sample, rect image.Rectangle, candidates []image.Rectangle) (srcX, srcY uint16, ok bool) {
	if prev == nil || prev.Width != cur.Width || prev.Height != cur.Height {
		return 0, 0, false
	}
	for _, cand := range candidates {
		if cand.Dx() != rect.Dx() || cand.Dy() != rect.Dy() || cand == rect {
			continue
		}
		if regionsEqual(prev, cur, cand, rect) {
			return uint16(cand.Min.X), uint16(cand.Min.Y), true
		}
	}
	return 0, 0, false
}

func regionsEqual(prev, cur *Sample, srcRect, dstRect image.Rectangle) bool {
	stride := cur.Width * 4
	rowBytes := dstRect.Dx() * 4
	for row := 0; row < dstRect.Dy(); row++ {
		srcOff := (srcRect.Min.Y+row)*stride + srcRect.Min.X*4
		dstOff := (dstRect.Min.Y+row)*stride + dstRect.Min.X*4
		if !bytesEqual(prev.Pix[srcOff:srcOff+rowBytes], cur.Pix[dstOff:dstOff+rowBytes]) {
			return false
		}
	}
	return true
}

const maxRRESubrects = 64

// encodeRRE greedily merges same-color horizontal runs within each row into
// subrectangles. If the background color (the most common pixel) doesn't
// compress the rectangle into at most maxRRESubrects subrects, it returns ok=false
// so the caller falls back to Raw.
func encodeRRE(sample *Sample, rect image.Rectangle, pf rfb.PixelFormat) (data []byte, ok bool) {
	bo := pf.ByteOrder()
	bpp := int(pf.BitsPerPixel) / 8
	stride := sample.Width * 4

	scratch, err := rfb.NewPixelFormatImage(pf, image.Rect(0, 0, 1, 1))
	if err != nil {
		scratch, _ = rfb.NewPixelFormatImage(rfb.ServerCanonicalPixelFormat(), image.Rect(0, 0, 1, 1))
	}
	pixelAt := func(x, y int) uint32 {
		off := y*stride + x*4
		scratch.Set(0, 0, color.RGBA{R: sample.Pix[off+2], G: sample.Pix[off+1], B: sample.Pix[off+0], A: 0xff})
		switch bpp {
		case 1:
			return uint32(scratch.Pix[0])
		case 2:
			return uint32(bo.Uint16(scratch.Pix))
		default:
			return bo.Uint32(scratch.Pix)
		}
	}

	counts := make(map[uint32]int)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			counts[pixelAt(x, y)]++
		}
	}
	var bg uint32
	best := -1
	for p, n := range counts {
		if n > best {
			best, bg = n, p
		}
	}

	type subrect struct {
		pixel      uint32
		x, y, w, h uint16
	}
	var subs []subrect
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		x := rect.Min.X
		for x < rect.Max.X {
			p := pixelAt(x, y)
			if p == bg {
				x++
				continue
			}
			runStart := x
			for x < rect.Max.X && pixelAt(x, y) == p {
				x++
			}
			subs = append(subs, subrect{
				pixel: p,
				x:     uint16(runStart - rect.Min.X),
				y:     uint16(y - rect.Min.Y),
				w:     uint16(x - runStart),
				h:     1,
			})
			if len(subs) > maxRRESubrects {
				return nil, false
			}
		}
	}

	buf := make([]byte, 0, 4+bpp+len(subs)*(bpp+8))
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(subs)))
	buf = append(buf, hdr[:]...)

	bgBytes := make([]byte, bpp)
	putPixel(bgBytes, bg, bo, bpp)
	buf = append(buf, bgBytes...)

	for _, s := range subs {
		px := make([]byte, bpp)
		putPixel(px, s.pixel, bo, bpp)
		buf = append(buf, px...)
		var geom [8]byte
		binary.BigEndian.PutUint16(geom[0:], s.x)
		binary.BigEndian.PutUint16(geom[2:], s.y)
		binary.BigEndian.PutUint16(geom[4:], s.w)
		binary.BigEndian.PutUint16(geom[6:], s.h)
		buf = append(buf, geom[:]...)
	}
	return buf, true
}

func putPixel(dst []byte, pixel uint32, bo binary.ByteOrder, bpp int) {
	switch bpp {
	case 1:
		dst[0] = uint8(pixel)
	case 2:
		bo.PutUint16(dst, uint16(pixel))
	case 4:
		bo.PutUint32(dst, pixel)
	}
}

// minCompressionRatio is the spec-mandated threshold: a non-Raw encoding is
// only used if it is at least this much smaller than Raw would be.
const minCompressionRatio = 0.125

// selectEncoding picks the first client-preferred encoding (in the order the
// client listed them in SetEncodings) that beats Raw by at least
// minCompressionRatio, falling back to Raw otherwise. It returns the chosen
// encoding id and its already-encoded payload.
func selectEncoding(preferred []int32, prev, cur *Sample, rect image.Rectangle, pf rfb.PixelFormat, copyRectCandidates []image.Rectangle) (int32, []byte) {
	raw := encodeRaw(cur, rect, pf)

	if prev == nil {
		// First update (or a non-incremental request, which BuildUpdate's
		// caller signals the same way): always send Raw regardless of the
		// client's encoding preferences.
		return rfb.EncodingRaw, raw
	}

	for _, enc := range preferred {
		switch enc {
		case rfb.EncodingCopyRect:
			if x, y, ok := encodeCopyRect(prev, cur, rect, copyRectCandidates); ok {
				payload := make([]byte, 4)
				binary.BigEndian.PutUint16(payload[0:], x)
				binary.BigEndian.PutUint16(payload[2:], y)
				return rfb.EncodingCopyRect, payload
			}
		case rfb.EncodingRRE:
			if data, ok := encodeRRE(cur, rect, pf); ok && smallerBy(len(data), len(raw), minCompressionRatio) {
				return rfb.EncodingRRE, data
			}
		}
	}
	return rfb.EncodingRaw, raw
}

func smallerBy(n, rawLen int, ratio float64) bool {
	if rawLen == 0 {
		return false
	}
	return float64(rawLen-n)/float64(rawLen) >= ratio
}

/*
Package rfb defines representations and serialization for messages in the RFB
(Remote Framebuffer) protocol, which is used for VNC.

Types that do not have a protocol version suffix are appropriate for use with
all versions of the RFB protocol covered here (3.3, 3.7, 3.8). See the RFC,
but the initial handshake goes like this:

	server sends ProtocolVersionMessage
	client sends ProtocolVersionMessage
	[3.3] server sends SecurityTypeMessage33
	[3.7/3.8] server sends SecurityTypesMessage, client sends SecurityTypeChoiceMessage
		If SecurityTypeVNC:
			server sends VNCAuthenticationChallengeMessage
			client sends VNCAuthenticationResponseMessage
		server sends SecurityResultMessage
	client sends ClientInitialisationMessage
	server sends ServerInitialisationMessage

Thereafter, client and server enter message processing loops. The first byte
identifies the message type, which dictates the length of the payload, so all
clients and servers must process all event types.

Clients may send:

	Type 0	SetPixelFormatMessage
	Type 2	SetEncodingsMessage
	Type 3	FramebufferUpdateRequestMessage
	Type 4	KeyEventMessage
	Type 5	PointerEventMessage
	Type 6	ClientCutTextMessage

Servers may send:

	Type 0	FramebufferUpdateMessage
	Type 2	BellMessage
	Type 3	ServerCutTextMessage
*/
package rfb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// ErrProtocol is wrapped by any error produced by a malformed or
// out-of-sequence wire message.
var ErrProtocol = errors.New("rfb: protocol error")

// ReadExact reads exactly n bytes, blocking until they've all arrived or the
// peer closes the connection. It distinguishes a clean close (io.EOF) from a
// truncated read (io.ErrUnexpectedEOF) by delegating to io.ReadFull, whose
// documented behavior already makes this distinction.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteAll writes every byte of buf or returns an error.
func WriteAll(w io.Writer, buf []byte) error {
	_, err := w.Write(buf)
	return err
}

// Client message type ids.
const (
	MessageSetPixelFormat           = 0
	MessageSetEncodings             = 2
	MessageFramebufferUpdateRequest = 3
	MessageKeyEvent                 = 4
	MessagePointerEvent             = 5
	MessageClientCutText            = 6
)

// Server message type ids.
const (
	MessageFramebufferUpdate = 0
	MessageBell              = 2
	MessageServerCutText     = 3
)

// Encoding ids, per spec §4.1.
const (
	EncodingRaw               = int32(0)
	EncodingCopyRect          = int32(1)
	EncodingRRE               = int32(2)
	EncodingHextile           = int32(5)
	EncodingZRLE              = int32(16)
	EncodingPseudoCursor      = int32(-239)
	EncodingPseudoDesktopSize = int32(-223)
)

// ProtocolVersionMessage is the 12-byte "RFB XXX.YYY\n" version string sent
// by both ends at the start of the handshake.
type ProtocolVersionMessage struct {
	Major, Minor int
}

func (m *ProtocolVersionMessage) Read(r io.Reader) error {
	buf, err := ReadExact(r, 12)
	if err != nil {
		return err
	}
	if _, err := fmt.Sscanf(string(buf), "RFB %03d.%03d\n", &m.Major, &m.Minor); err != nil {
		return fmt.Errorf("%w: parse protocol version: %v", ErrProtocol, err)
	}
	return nil
}

func (m *ProtocolVersionMessage) Write(w io.Writer) error {
	buf := []byte(fmt.Sprintf("RFB %03d.%03d\n", m.Major, m.Minor))
	if len(buf) != 12 {
		return fmt.Errorf("expected formatted message to be 12 bytes, but %q is %d", string(buf), len(buf))
	}
	return WriteAll(w, buf)
}

// Supported reports whether this version is one of the three this server
// negotiates down to: 3.3, 3.7, 3.8.
func (m *ProtocolVersionMessage) Supported() bool {
	if m.Major != 3 {
		return false
	}
	switch m.Minor {
	case 3, 7, 8:
		return true
	default:
		return false
	}
}

// Security type ids.
const (
	SecurityTypeInvalid = 0
	SecurityTypeNone    = 1
	SecurityTypeVNC     = 2
)

// SecurityTypeMessage33 is the single 4-byte security scheme the 3.3 server
// announces unilaterally (no client choice).
type SecurityTypeMessage33 struct {
	Type uint32
}

func (m *SecurityTypeMessage33) Read(r io.Reader, bo binary.ByteOrder) error {
	buf, err := ReadExact(r, 4)
	if err != nil {
		return err
	}
	m.Type = bo.Uint32(buf)
	return nil
}

func (m *SecurityTypeMessage33) Write(w io.Writer, bo binary.ByteOrder) error {
	var buf [4]byte
	bo.PutUint32(buf[:], m.Type)
	return WriteAll(w, buf[:])
}

// SecurityTypesMessage is the 3.7/3.8 server->client list of acceptable
// security types, or a failure (count=0, followed by a reason string).
type SecurityTypesMessage struct {
	Types  []uint8
	Reason string // only set (and only sent) when len(Types) == 0
}

func (m *SecurityTypesMessage) Write(w io.Writer) error {
	if len(m.Types) == 0 {
		var buf [1]byte
		if err := WriteAll(w, buf[:]); err != nil {
			return err
		}
		reason := []byte(m.Reason)
		var lenbuf [4]byte
		binary.BigEndian.PutUint32(lenbuf[:], uint32(len(reason)))
		if err := WriteAll(w, lenbuf[:]); err != nil {
			return err
		}
		return WriteAll(w, reason)
	}
	buf := make([]byte, 1+len(m.Types))
	buf[0] = uint8(len(m.Types))
	copy(buf[1:], m.Types)
	return WriteAll(w, buf)
}

func (m *SecurityTypesMessage) Read(r io.Reader) error {
	countBuf, err := ReadExact(r, 1)
	if err != nil {
		return err
	}
	count := countBuf[0]
	if count == 0 {
		lenBuf, err := ReadExact(r, 4)
		if err != nil {
			return err
		}
		n := binary.BigEndian.Uint32(lenBuf)
		reason, err := ReadExact(r, int(n))
		if err != nil {
			return err
		}
		m.Types = nil
		m.Reason = string(reason)
		return nil
	}
	types, err := ReadExact(r, int(count))
	if err != nil {
		return err
	}
	m.Types = append([]uint8(nil), types...)
	return nil
}

// SecurityTypeChoiceMessage is the single byte the 3.7/3.8 client sends back
// to pick one of the offered security types.
type SecurityTypeChoiceMessage struct {
	Type uint8
}

func (m *SecurityTypeChoiceMessage) Read(r io.Reader) error {
	buf, err := ReadExact(r, 1)
	if err != nil {
		return err
	}
	m.Type = buf[0]
	return nil
}

func (m *SecurityTypeChoiceMessage) Write(w io.Writer) error {
	return WriteAll(w, []byte{m.Type})
}

// SecurityResultMessage is the 4-byte (plus, for 3.8 failures, a reason
// string) outcome of the security handshake.
type SecurityResultMessage struct {
	OK     bool
	Reason string // only meaningful, and only sent for version>=3.8, when !OK
}

func (m *SecurityResultMessage) Write(w io.Writer, bo binary.ByteOrder, minorVersion int) error {
	var buf [4]byte
	if !m.OK {
		bo.PutUint32(buf[:], 1)
	}
	if err := WriteAll(w, buf[:]); err != nil {
		return err
	}
	if !m.OK && minorVersion >= 8 {
		reason := []byte(m.Reason)
		var lenbuf [4]byte
		bo.PutUint32(lenbuf[:], uint32(len(reason)))
		if err := WriteAll(w, lenbuf[:]); err != nil {
			return err
		}
		return WriteAll(w, reason)
	}
	return nil
}

func (m *SecurityResultMessage) Read(r io.Reader, bo binary.ByteOrder, minorVersion int) error {
	buf, err := ReadExact(r, 4)
	if err != nil {
		return err
	}
	m.OK = bo.Uint32(buf) == 0
	if !m.OK && minorVersion >= 8 {
		lenBuf, err := ReadExact(r, 4)
		if err != nil {
			return err
		}
		n := bo.Uint32(lenBuf)
		reason, err := ReadExact(r, int(n))
		if err != nil {
			return err
		}
		m.Reason = string(reason)
	}
	return nil
}

// VNCAuthenticationChallengeMessage is the 16-byte server->client random
// challenge sent when SecurityTypeVNC is chosen.
type VNCAuthenticationChallengeMessage [16]byte

func (m *VNCAuthenticationChallengeMessage) Read(r io.Reader) error {
	buf, err := ReadExact(r, 16)
	if err != nil {
		return err
	}
	copy(m[:], buf)
	return nil
}

func (m *VNCAuthenticationChallengeMessage) Write(w io.Writer) error {
	return WriteAll(w, m[:])
}

// VNCAuthenticationResponseMessage is the 16-byte client->server encrypted
// response to the challenge.
type VNCAuthenticationResponseMessage [16]byte

func (m *VNCAuthenticationResponseMessage) Read(r io.Reader) error {
	buf, err := ReadExact(r, 16)
	if err != nil {
		return err
	}
	copy(m[:], buf)
	return nil
}

func (m *VNCAuthenticationResponseMessage) Write(w io.Writer) error {
	return WriteAll(w, m[:])
}

// ClientInitialisationMessage is the 1-byte client->server shared-desktop
// flag.
type ClientInitialisationMessage struct {
	// If true, share the desktop with other clients.
	// If false, disconnect all other clients. This server always shares
	// regardless of this flag (see spec §4.5 item 4).
	Shared bool
}

func (m *ClientInitialisationMessage) Read(r io.Reader) error {
	buf, err := ReadExact(r, 1)
	if err != nil {
		return err
	}
	m.Shared = buf[0] != 0
	return nil
}

func (m *ClientInitialisationMessage) Write(w io.Writer) error {
	var buf [1]byte
	if m.Shared {
		buf[0] = 1
	}
	return WriteAll(w, buf[:])
}

// ServerInitialisationMessage is the server->client framebuffer dimensions,
// default PixelFormat, and desktop name.
type ServerInitialisationMessage struct {
	FramebufferWidth  uint16
	FramebufferHeight uint16
	PixelFormat       PixelFormat
	Name              string
}

const maxServerInitNameLength = 1 << 16

func (m *ServerInitialisationMessage) Read(r io.Reader, bo binary.ByteOrder) error {
	head, err := ReadExact(r, 24)
	if err != nil {
		return err
	}
	m.FramebufferWidth = bo.Uint16(head[0:])
	m.FramebufferHeight = bo.Uint16(head[2:])
	m.PixelFormat.Read(head[4:], bo)
	nameLength := bo.Uint32(head[20:])
	if nameLength > maxServerInitNameLength {
		return fmt.Errorf("%w: name is too long: %d > %d", ErrProtocol, nameLength, maxServerInitNameLength)
	}
	name, err := ReadExact(r, int(nameLength))
	if err != nil {
		return err
	}
	m.Name = string(name)
	return nil
}

func (m *ServerInitialisationMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	nameBytes := []byte(m.Name)
	if len(nameBytes) > maxServerInitNameLength {
		return fmt.Errorf("name too long: %d > %d", len(nameBytes), maxServerInitNameLength)
	}
	var buf [24]byte
	bo.PutUint16(buf[0:], m.FramebufferWidth)
	bo.PutUint16(buf[2:], m.FramebufferHeight)
	m.PixelFormat.Write(buf[4:], bo)
	bo.PutUint32(buf[20:], uint32(len(nameBytes)))
	if err := WriteAll(w, buf[:]); err != nil {
		return err
	}
	return WriteAll(w, nameBytes)
}

// SetPixelFormatMessage is sent by the client to change the PixelFormat it
// wants subsequent FramebufferUpdates encoded in.
type SetPixelFormatMessage struct {
	PixelFormat PixelFormat
}

func (m *SetPixelFormatMessage) Read(r io.Reader, bo binary.ByteOrder) error {
	buf, err := ReadExact(r, 19)
	if err != nil {
		return err
	}
	// buf[0:3] are padding.
	m.PixelFormat.Read(buf[3:], bo)
	return nil
}

func (m *SetPixelFormatMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	var buf [20]byte
	buf[0] = MessageSetPixelFormat
	m.PixelFormat.Write(buf[4:], bo)
	return WriteAll(w, buf[:])
}

// SetEncodingsMessage is the client's ordered list of acceptable encodings,
// most preferred first.
type SetEncodingsMessage struct {
	EncodingTypes []int32
}

func (m *SetEncodingsMessage) Read(r io.Reader, bo binary.ByteOrder) error {
	head, err := ReadExact(r, 3)
	if err != nil {
		return err
	}
	count := bo.Uint16(head[1:])
	body, err := ReadExact(r, int(count)*4)
	if err != nil {
		return err
	}
	m.EncodingTypes = make([]int32, count)
	for i := range m.EncodingTypes {
		m.EncodingTypes[i] = int32(bo.Uint32(body[i*4:]))
	}
	return nil
}

func (m *SetEncodingsMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	buf := make([]byte, 4+4*len(m.EncodingTypes))
	buf[0] = MessageSetEncodings
	bo.PutUint16(buf[2:], uint16(len(m.EncodingTypes)))
	for idx, encodingType := range m.EncodingTypes {
		bo.PutUint32(buf[4+idx*4:], uint32(encodingType))
	}
	return WriteAll(w, buf)
}

// FramebufferUpdateRequestMessage asks the server for an update, optionally
// restricted to only the changes since the client's last request for the
// same region.
type FramebufferUpdateRequestMessage struct {
	Incremental bool
	X, Y        uint16
	Width       uint16
	Height      uint16
}

func (m *FramebufferUpdateRequestMessage) Read(r io.Reader, bo binary.ByteOrder) error {
	buf, err := ReadExact(r, 9)
	if err != nil {
		return err
	}
	m.Incremental = buf[0] != 0
	m.X = bo.Uint16(buf[1:])
	m.Y = bo.Uint16(buf[3:])
	m.Width = bo.Uint16(buf[5:])
	m.Height = bo.Uint16(buf[7:])
	return nil
}

func (m *FramebufferUpdateRequestMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	var buf [10]byte
	buf[0] = MessageFramebufferUpdateRequest
	if m.Incremental {
		buf[1] = 1
	}
	bo.PutUint16(buf[2:], m.X)
	bo.PutUint16(buf[4:], m.Y)
	bo.PutUint16(buf[6:], m.Width)
	bo.PutUint16(buf[8:], m.Height)
	return WriteAll(w, buf[:])
}

// KeyEventMessage is a client->server key press/release.
type KeyEventMessage struct {
	Pressed bool
	KeySym  uint32 // Defined in Xlib Reference Manual and <X11/keysymdef.h>
}

func (m *KeyEventMessage) Read(r io.Reader, bo binary.ByteOrder) error {
	buf, err := ReadExact(r, 7)
	if err != nil {
		return err
	}
	m.Pressed = buf[0] != 0
	// buf[1:3] are padding.
	m.KeySym = bo.Uint32(buf[3:])
	return nil
}

func (m *KeyEventMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	var buf [8]byte
	buf[0] = MessageKeyEvent
	if m.Pressed {
		buf[1] = 1
	}
	bo.PutUint32(buf[4:], m.KeySym)
	return WriteAll(w, buf[:])
}

// PointerEventMessage is a client->server mouse move/button event.
type PointerEventMessage struct {
	ButtonMask uint8
	X, Y       uint16
}

func (m *PointerEventMessage) Read(r io.Reader, bo binary.ByteOrder) error {
	buf, err := ReadExact(r, 5)
	if err != nil {
		return err
	}
	m.ButtonMask = buf[0]
	m.X = bo.Uint16(buf[1:])
	m.Y = bo.Uint16(buf[3:])
	return nil
}

func (m *PointerEventMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	var buf [6]byte
	buf[0] = MessagePointerEvent
	buf[1] = m.ButtonMask
	bo.PutUint16(buf[2:], m.X)
	bo.PutUint16(buf[4:], m.Y)
	return WriteAll(w, buf[:])
}

// ClientCutTextMessage is a best-effort clipboard pass-through from the
// client. Text is Latin-1 (ISO-8859-1) on the wire, per the RFB spec.
type ClientCutTextMessage struct {
	Text string
}

func (m *ClientCutTextMessage) Read(r io.Reader, bo binary.ByteOrder) error {
	head, err := ReadExact(r, 7)
	if err != nil {
		return err
	}
	textLength := bo.Uint32(head[3:])
	raw, err := ReadExact(r, int(textLength))
	if err != nil {
		return err
	}
	converted, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return fmt.Errorf("decode ClientCutText: %v", err)
	}
	m.Text = string(converted)
	return nil
}

func (m *ClientCutTextMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	converted, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(m.Text))
	if err != nil {
		return fmt.Errorf("encode text: %v", err)
	}
	buf := make([]byte, 8+len(converted))
	buf[0] = MessageClientCutText
	bo.PutUint32(buf[4:], uint32(len(converted)))
	copy(buf[8:], converted)
	return WriteAll(w, buf)
}

// ServerCutTextMessage is the server->client clipboard pass-through.
type ServerCutTextMessage struct {
	Text string
}

func (m *ServerCutTextMessage) Read(r io.Reader, bo binary.ByteOrder) error {
	head, err := ReadExact(r, 7)
	if err != nil {
		return err
	}
	textLength := bo.Uint32(head[3:])
	raw, err := ReadExact(r, int(textLength))
	if err != nil {
		return err
	}
	converted, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return fmt.Errorf("decode ServerCutText: %v", err)
	}
	m.Text = string(converted)
	return nil
}

func (m *ServerCutTextMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	converted, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(m.Text))
	if err != nil {
		return fmt.Errorf("encode text: %v", err)
	}
	buf := make([]byte, 8+len(converted))
	buf[0] = MessageServerCutText
	bo.PutUint32(buf[4:], uint32(len(converted)))
	copy(buf[8:], converted)
	return WriteAll(w, buf)
}

// BellMessage is the header-only server->client bell.
type BellMessage struct{}

func (m *BellMessage) Write(w io.Writer) error {
	return WriteAll(w, []byte{MessageBell})
}

// FramebufferUpdateRect is one rectangle of a FramebufferUpdateMessage: a
// position, size, encoding id, and the already-encoded payload for that
// encoding.
type FramebufferUpdateRect struct {
	X, Y         uint16
	Width        uint16
	Height       uint16
	EncodingType int32
	PixelData    []byte
}

func (rect *FramebufferUpdateRect) Write(w io.Writer, bo binary.ByteOrder) error {
	var buf [12]byte
	bo.PutUint16(buf[0:], rect.X)
	bo.PutUint16(buf[2:], rect.Y)
	bo.PutUint16(buf[4:], rect.Width)
	bo.PutUint16(buf[6:], rect.Height)
	bo.PutUint32(buf[8:], uint32(rect.EncodingType))
	if err := WriteAll(w, buf[:]); err != nil {
		return err
	}
	return WriteAll(w, rect.PixelData)
}

// Read only supports the Raw encoding; it exists for tests that exercise
// this server as a black box and need to decode what it sent.
func (rect *FramebufferUpdateRect) Read(r io.Reader, bo binary.ByteOrder, pf PixelFormat) error {
	buf, err := ReadExact(r, 12)
	if err != nil {
		return err
	}
	rect.X = bo.Uint16(buf[0:])
	rect.Y = bo.Uint16(buf[2:])
	rect.Width = bo.Uint16(buf[4:])
	rect.Height = bo.Uint16(buf[6:])
	rect.EncodingType = int32(bo.Uint32(buf[8:]))
	if rect.EncodingType != EncodingRaw {
		return fmt.Errorf("FramebufferUpdateRect.Read only supports Raw, but found %d", rect.EncodingType)
	}
	pixelData, err := ReadExact(r, int(pf.BitsPerPixel/8)*int(rect.Width)*int(rect.Height))
	if err != nil {
		return err
	}
	rect.PixelData = pixelData
	return nil
}

// FramebufferUpdateMessage is the server->client pixel update, one or more
// rectangles.
type FramebufferUpdateMessage struct {
	Rectangles []*FramebufferUpdateRect
}

func (m *FramebufferUpdateMessage) Write(w io.Writer, bo binary.ByteOrder) error {
	var buf [4]byte
	buf[0] = MessageFramebufferUpdate
	bo.PutUint16(buf[2:], uint16(len(m.Rectangles)))
	if err := WriteAll(w, buf[:]); err != nil {
		return err
	}
	for _, rect := range m.Rectangles {
		if err := rect.Write(w, bo); err != nil {
			return err
		}
	}
	return nil
}

func (m *FramebufferUpdateMessage) Read(r io.Reader, bo binary.ByteOrder, pf PixelFormat) error {
	head, err := ReadExact(r, 3)
	if err != nil {
		return err
	}
	count := bo.Uint16(head[1:])
	m.Rectangles = nil
	for i := uint16(0); i < count; i++ {
		rect := &FramebufferUpdateRect{}
		if err := rect.Read(r, bo, pf); err != nil {
			return err
		}
		m.Rectangles = append(m.Rectangles, rect)
	}
	return nil
}

// PixelFormat describes how a pixel is laid out on the wire.
type PixelFormat struct {
	BitsPerPixel uint8
	BitDepth     uint8
	BigEndian    bool

	// RGB definitions below are used if true.
	// If false, palette mode is used, which is unsupported by this library.
	TrueColor bool

	RedMax     uint16
	GreenMax   uint16
	BlueMax    uint16
	RedShift   uint8
	GreenShift uint8
	BlueShift  uint8
}

// ByteOrder returns the byte order this format's wire pixels are packed in.
func (pf PixelFormat) ByteOrder() binary.ByteOrder {
	if pf.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Read unpacks pf from a 16-byte PixelFormat wire block.
func (pf *PixelFormat) Read(buf []byte, bo binary.ByteOrder) {
	pf.BitsPerPixel = buf[0]
	pf.BitDepth = buf[1]
	pf.BigEndian = buf[2] != 0
	pf.TrueColor = buf[3] != 0

	pf.RedMax = bo.Uint16(buf[4:])
	pf.GreenMax = bo.Uint16(buf[6:])
	pf.BlueMax = bo.Uint16(buf[8:])
	pf.RedShift = buf[10]
	pf.GreenShift = buf[11]
	pf.BlueShift = buf[12]
	// buf[13:16] are padding.
}

// Write packs pf into a 16-byte PixelFormat wire block.
func (pf *PixelFormat) Write(buf []byte, bo binary.ByteOrder) {
	buf[0] = pf.BitsPerPixel
	buf[1] = pf.BitDepth
	if pf.BigEndian {
		buf[2] = 1
	} else {
		buf[2] = 0
	}
	if pf.TrueColor {
		buf[3] = 1
	} else {
		buf[3] = 0
	}
	bo.PutUint16(buf[4:], pf.RedMax)
	bo.PutUint16(buf[6:], pf.GreenMax)
	bo.PutUint16(buf[8:], pf.BlueMax)
	buf[10] = pf.RedShift
	buf[11] = pf.GreenShift
	buf[12] = pf.BlueShift
	buf[13], buf[14], buf[15] = 0, 0, 0
}

// ServerCanonicalPixelFormat is the 32-bit true-color format this server
// advertises in ServerInitialisationMessage (distinct from the internal
// BGRX sample format; see package framebuffer for the conversion).
func ServerCanonicalPixelFormat() PixelFormat {
	return PixelFormat{
		BitsPerPixel: 32,
		BitDepth:     24,
		BigEndian:    true,
		TrueColor:    true,
		RedMax:       255,
		GreenMax:     255,
		BlueMax:      255,
		RedShift:     16,
		GreenShift:   8,
		BlueShift:    0,
	}
}

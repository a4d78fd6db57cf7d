package rfbserver

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"image"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/openrfb/rfbd/internal/display"
	"github.com/openrfb/rfbd/internal/framebuffer"
	"github.com/openrfb/rfbd/rfb"
)

// connState is the handshake stage, tracked only for diagnostics; the
// message loop itself is a simple read-dispatch-repeat once it reaches
// stateNormal.
type connState int

const (
	stateHandshake connState = iota
	stateSecurity
	stateInit
	stateNormal
	stateClosed
)

// Connection is one accepted RFB client. Two goroutines serve it: readLoop
// (handshake + client message dispatch) and dispatchLoop (delivers
// FramebufferUpdates whenever the engine publishes a changed sample and the
// client has an outstanding request).
type Connection struct {
	conn    net.Conn
	server  *Server
	log     zerolog.Logger
	address string

	bo binary.ByteOrder
	r  *bufio.Reader
	w  *bufio.Writer

	mu              sync.Mutex
	state           connState
	pixelFormat     rfb.PixelFormat
	preferredEncs   []int32
	supportsDesktop bool
	pendingRequest  *rfb.FramebufferUpdateRequestMessage
	lastSent        *framebuffer.Sample

	minorVersion int

	wakeCh        chan struct{}
	closeOnce     sync.Once
	closed        chan struct{}
	forced        atomic.Bool
	authenticated atomic.Bool
}

func (s connState) String() string {
	switch s {
	case stateHandshake:
		return "handshake"
	case stateSecurity:
		return "security"
	case stateInit:
		return "init"
	case stateNormal:
		return "normal"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// status reports a point-in-time snapshot for the admin surface.
func (c *Connection) status() ConnectionStatus {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	return ConnectionStatus{
		Address:       c.address,
		Authenticated: c.authenticated.Load(),
		State:         st.String(),
	}
}

func newConnection(conn net.Conn, srv *Server) *Connection {
	return &Connection{
		conn:        conn,
		server:      srv,
		log:         srv.log.With().Str("remote", conn.RemoteAddr().String()).Logger(),
		address:     conn.RemoteAddr().String(),
		bo:          binary.BigEndian,
		wakeCh:      make(chan struct{}, 1),
		r:           bufio.NewReader(conn),
		w:           bufio.NewWriter(conn),
		pixelFormat: rfb.ServerCanonicalPixelFormat(),
		closed:      make(chan struct{}),
	}
}

// serve runs the handshake and then both loops, blocking until the
// connection ends. Panics within are recovered and logged so one bad
// connection can never take down the acceptor.
func (c *Connection) serve() {
	defer c.recoverPanic()
	defer c.close()

	if err := c.handshake(); err != nil {
		c.log.Warn().Err(err).Msg("handshake failed")
		return
	}

	go c.dispatchLoop()
	c.readLoop()
}

func (c *Connection) recoverPanic() {
	if r := recover(); r != nil {
		c.log.Error().Interface("panic", r).Msg("connection goroutine panicked, recovered")
	}
}

// markForced flags this connection as being torn down by an admin Kick
// rather than ending on its own, so the disconnect event it logs on close
// carries the right kind.
func (c *Connection) markForced() {
	c.forced.Store(true)
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
		c.server.forgetConnection(c)
	})
}

func (c *Connection) handshake() error {
	c.mu.Lock()
	c.state = stateHandshake
	c.mu.Unlock()

	serverVersion := rfb.ProtocolVersionMessage{Major: 3, Minor: 8}
	if err := serverVersion.Write(c.conn); err != nil {
		return &ProtocolError{Stage: "write ProtocolVersion", Err: err}
	}
	var clientVersion rfb.ProtocolVersionMessage
	if err := clientVersion.Read(c.conn); err != nil {
		return &ProtocolError{Stage: "read ProtocolVersion", Err: err}
	}
	if !clientVersion.Supported() {
		return &ProtocolError{Stage: "ProtocolVersion", Err: fmt.Errorf("unsupported version %d.%d", clientVersion.Major, clientVersion.Minor)}
	}
	minor := clientVersion.Minor
	if minor > 8 {
		minor = 8
	}
	c.minorVersion = minor

	c.mu.Lock()
	c.state = stateSecurity
	c.mu.Unlock()

	if err := c.negotiateSecurity(minor); err != nil {
		return err
	}

	c.mu.Lock()
	c.state = stateInit
	c.mu.Unlock()

	var clientInit rfb.ClientInitialisationMessage
	if err := clientInit.Read(c.conn); err != nil {
		return &ProtocolError{Stage: "read ClientInitialisation", Err: err}
	}

	w, h := c.server.display.Size()
	if cur := c.server.engine.Current(); cur != nil {
		w, h = cur.Width, cur.Height
	}
	serverInit := rfb.ServerInitialisationMessage{
		FramebufferWidth:  uint16(w),
		FramebufferHeight: uint16(h),
		PixelFormat:       c.currentPixelFormat(),
		Name:              "RFB Server",
	}
	if err := serverInit.Write(c.conn, c.bo); err != nil {
		return &ProtocolError{Stage: "write ServerInitialisation", Err: err}
	}
	if err := c.w.Flush(); err != nil {
		return &IOError{Err: err}
	}

	c.mu.Lock()
	c.state = stateNormal
	c.mu.Unlock()

	c.server.events.add(EventLogEntry{Time: time.Now(), Address: c.address, Kind: KindClientConnect})
	return nil
}

func (c *Connection) currentPixelFormat() rfb.PixelFormat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pixelFormat
}

// clampToFramebuffer pulls a pointer event's coordinates back inside the
// current framebuffer bounds instead of forwarding out-of-range values to
// the display.
func (c *Connection) clampToFramebuffer(x, y int) (int, int) {
	w, h := c.server.display.Size()
	if cur := c.server.engine.Current(); cur != nil {
		w, h = cur.Width, cur.Height
	}
	switch {
	case x < 0:
		x = 0
	case x >= w:
		x = w - 1
	}
	switch {
	case y < 0:
		y = 0
	case y >= h:
		y = h - 1
	}
	return x, y
}

func (c *Connection) negotiateSecurity(minor int) error {
	if minor == 3 {
		return c.negotiateSecurity33()
	}

	types := []uint8{rfb.SecurityTypeNone}
	if c.server.authRequired() {
		types = []uint8{rfb.SecurityTypeVNC}
	}
	msg := rfb.SecurityTypesMessage{Types: types}
	if err := msg.Write(c.conn); err != nil {
		return &ProtocolError{Stage: "write SecurityTypes", Err: err}
	}

	var choice rfb.SecurityTypeChoiceMessage
	if err := choice.Read(c.conn); err != nil {
		return &ProtocolError{Stage: "read SecurityTypeChoice", Err: err}
	}

	var authErr error
	switch choice.Type {
	case rfb.SecurityTypeNone:
		if c.server.authRequired() {
			authErr = fmt.Errorf("client chose None but authentication is required")
		}
	case rfb.SecurityTypeVNC:
		authErr = c.runVNCAuth()
	default:
		authErr = fmt.Errorf("unsupported security type %d", choice.Type)
	}

	result := rfb.SecurityResultMessage{OK: authErr == nil}
	if authErr != nil {
		result.Reason = authErr.Error()
	}
	if err := result.Write(c.conn, c.bo, minor); err != nil {
		return &ProtocolError{Stage: "write SecurityResult", Err: err}
	}
	if err := c.flushRaw(); err != nil {
		return &IOError{Err: err}
	}
	if authErr != nil {
		return &AuthError{Reason: authErr.Error()}
	}
	return nil
}

// negotiateSecurity33 implements the 3.3 single-scheme form, where the
// server unilaterally picks the scheme instead of offering a list.
func (c *Connection) negotiateSecurity33() error {
	scheme := rfb.SecurityTypeNone
	if c.server.authRequired() {
		scheme = rfb.SecurityTypeVNC
	}
	msg := rfb.SecurityTypeMessage33{Type: uint32(scheme)}
	if err := msg.Write(c.conn, c.bo); err != nil {
		return &ProtocolError{Stage: "write SecurityType (3.3)", Err: err}
	}

	var authErr error
	if scheme == rfb.SecurityTypeVNC {
		authErr = c.runVNCAuth()
	}
	result := rfb.SecurityResultMessage{OK: authErr == nil}
	if err := result.Write(c.conn, c.bo, 3); err != nil {
		return &ProtocolError{Stage: "write SecurityResult (3.3)", Err: err}
	}
	if err := c.flushRaw(); err != nil {
		return &IOError{Err: err}
	}
	if authErr != nil {
		return &AuthError{Reason: authErr.Error()}
	}
	return nil
}

func (c *Connection) flushRaw() error {
	// Security negotiation writes directly to c.conn (not the buffered
	// writer) so the client sees each step immediately; nothing buffered
	// needs flushing here, but keep a single choke point in case that
	// changes.
	return nil
}

func (c *Connection) runVNCAuth() error {
	var challenge rfb.VNCAuthenticationChallengeMessage
	if _, err := rand.Read(challenge[:]); err != nil {
		return fmt.Errorf("generate challenge: %w", err)
	}
	if err := challenge.Write(c.conn); err != nil {
		return fmt.Errorf("write challenge: %w", err)
	}
	var response rfb.VNCAuthenticationResponseMessage
	if err := response.Read(c.conn); err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	store := c.server.auth
	if store == nil {
		return fmt.Errorf("authentication required but no user store configured")
	}
	var lastErr error
	for _, username := range store.Usernames() {
		if err := store.VerifyChallenge(username, [16]byte(challenge), [16]byte(response)); err == nil {
			c.authenticated.Store(true)
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no users configured")
	}
	c.server.events.add(EventLogEntry{Time: time.Now(), Address: c.address, Kind: KindAuthFailure, Detail: lastErr.Error()})
	return lastErr
}

func (c *Connection) readLoop() {
	idleTimeout := c.server.cfg.IdleTimeout
	c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	for {
		msgType, err := c.r.ReadByte()
		if err != nil {
			c.log.Debug().Err(err).Msg("connection read loop ending")
			return
		}
		if err := c.dispatch(msgType); err != nil {
			c.log.Warn().Err(err).Msg("dispatch error, closing connection")
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}
}

func (c *Connection) dispatch(msgType byte) error {
	switch msgType {
	case rfb.MessageSetPixelFormat:
		var m rfb.SetPixelFormatMessage
		if err := m.Read(c.r, c.bo); err != nil {
			return &ProtocolError{Stage: "SetPixelFormat", Err: err}
		}
		if _, err := rfb.NewPixelFormatImage(m.PixelFormat, image.Rect(0, 0, 1, 1)); err != nil {
			c.log.Warn().Err(err).Msg("client sent unusable pixel format, keeping previous one")
			break
		}
		c.mu.Lock()
		c.pixelFormat = m.PixelFormat
		c.lastSent = nil
		c.mu.Unlock()

	case rfb.MessageSetEncodings:
		var m rfb.SetEncodingsMessage
		if err := m.Read(c.r, c.bo); err != nil {
			return &ProtocolError{Stage: "SetEncodings", Err: err}
		}
		c.mu.Lock()
		c.preferredEncs = m.EncodingTypes
		c.supportsDesktop = false
		for _, e := range m.EncodingTypes {
			if e == rfb.EncodingPseudoDesktopSize {
				c.supportsDesktop = true
			}
		}
		c.mu.Unlock()

	case rfb.MessageFramebufferUpdateRequest:
		var m rfb.FramebufferUpdateRequestMessage
		if err := m.Read(c.r, c.bo); err != nil {
			return &ProtocolError{Stage: "FramebufferUpdateRequest", Err: err}
		}
		c.mu.Lock()
		c.pendingRequest = &m
		if !m.Incremental {
			c.lastSent = nil
		}
		c.mu.Unlock()
		c.wake()

	case rfb.MessageKeyEvent:
		var m rfb.KeyEventMessage
		if err := m.Read(c.r, c.bo); err != nil {
			return &ProtocolError{Stage: "KeyEvent", Err: err}
		}
		if display.IsKnownKeysym(m.KeySym) {
			c.server.display.InjectKey(m.KeySym, m.Pressed)
		}

	case rfb.MessagePointerEvent:
		var m rfb.PointerEventMessage
		if err := m.Read(c.r, c.bo); err != nil {
			return &ProtocolError{Stage: "PointerEvent", Err: err}
		}
		x, y := c.clampToFramebuffer(int(m.X), int(m.Y))
		c.server.display.InjectPointer(x, y, m.ButtonMask)

	case rfb.MessageClientCutText:
		var m rfb.ClientCutTextMessage
		if err := m.Read(c.r, c.bo); err != nil {
			return &ProtocolError{Stage: "ClientCutText", Err: err}
		}

	default:
		return &ProtocolError{Stage: "dispatch", Err: fmt.Errorf("unrecognized message type %d", msgType)}
	}
	return nil
}

// wake signals this connection's dispatch loop that new client state (a
// pending request) might now be satisfiable.
func (c *Connection) wake() {
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
}

func (c *Connection) dispatchLoop() {
	defer c.recoverPanic()

	for {
		changed := c.server.engine.Changed()
		select {
		case <-c.closed:
			return
		case <-changed:
			c.trySend()
		case <-c.wakeCh:
			c.trySend()
		}
	}
}

func (c *Connection) trySend() {
	c.mu.Lock()
	req := c.pendingRequest
	prev := c.lastSent
	client := framebuffer.ClientState{
		PixelFormat:         c.pixelFormat,
		PreferredEncs:       c.preferredEncs,
		SupportsDesktopSize: c.supportsDesktop,
	}
	c.mu.Unlock()

	if req == nil {
		return
	}

	cur := c.server.engine.Current()
	if cur == nil {
		return
	}
	if req.Incremental && prev != nil && cur.Version == prev.Version {
		return
	}
	if !req.Incremental {
		prev = nil
	}

	region := image.Rect(int(req.X), int(req.Y), int(req.X)+int(req.Width), int(req.Y)+int(req.Height))
	update := framebuffer.BuildUpdate(prev, cur, region, client)
	if update == nil {
		return
	}

	if err := update.Write(c.w, c.bo); err != nil {
		c.log.Warn().Err(err).Msg("write FramebufferUpdate failed")
		c.close()
		return
	}
	if err := c.w.Flush(); err != nil {
		c.log.Warn().Err(err).Msg("flush FramebufferUpdate failed")
		c.close()
		return
	}

	c.mu.Lock()
	c.lastSent = cur
	c.pendingRequest = nil
	c.mu.Unlock()
}

package rfbserver

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/openrfb/rfbd/internal/auth"
	"github.com/openrfb/rfbd/internal/config"
	"github.com/openrfb/rfbd/internal/display"
	"github.com/openrfb/rfbd/rfb"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Port = freePort(t)
	cfg.ScreenWidth, cfg.ScreenHeight = 64, 64
	cfg.FrameRate = 60
	return cfg
}

func freePort(t *testing.T) int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func startServer(t *testing.T, cfg config.Config, store *auth.Store) *Server {
	disp := display.NewSimulated(cfg.ScreenWidth, cfg.ScreenHeight)
	srv, err := New(cfg, disp, store, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(srv.Stop)
	return srv
}

// handshakeNoAuth dials the server, completes the 3.8 handshake assuming
// SecurityTypeNone, and returns the connection positioned to send/receive
// normal-phase messages.
func handshakeNoAuth(t *testing.T, addr string) net.Conn {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)

	var serverVersion rfb.ProtocolVersionMessage
	require.NoError(t, serverVersion.Read(conn))
	require.NoError(t, (&rfb.ProtocolVersionMessage{Major: 3, Minor: 8}).Write(conn))

	var types rfb.SecurityTypesMessage
	require.NoError(t, types.Read(conn))
	require.Contains(t, types.Types, uint8(rfb.SecurityTypeNone))

	choice := rfb.SecurityTypeChoiceMessage{Type: rfb.SecurityTypeNone}
	require.NoError(t, choice.Write(conn))

	var result rfb.SecurityResultMessage
	require.NoError(t, result.Read(conn, binary.BigEndian, 8))
	require.True(t, result.OK)

	require.NoError(t, (&rfb.ClientInitialisationMessage{Shared: true}).Write(conn))

	var serverInit rfb.ServerInitialisationMessage
	require.NoError(t, serverInit.Read(conn, binary.BigEndian))
	require.Equal(t, "RFB Server", serverInit.Name)

	return conn
}

func TestHandshakeWithoutAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthRequired = false
	srv := startServer(t, cfg, nil)

	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()
}

func TestHandshakeWithAuthWrongPassword(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthRequired = true
	cfg.UserFile = "users.txt" // required by Validate; the store below is in-memory
	store, err := auth.NewStore("")
	require.NoError(t, err)
	require.NoError(t, store.Add("alice", "correct horse"))
	srv := startServer(t, cfg, store)

	conn, err := net.DialTimeout("tcp", srv.listener.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	var serverVersion rfb.ProtocolVersionMessage
	require.NoError(t, serverVersion.Read(conn))
	require.NoError(t, (&rfb.ProtocolVersionMessage{Major: 3, Minor: 8}).Write(conn))

	var types rfb.SecurityTypesMessage
	require.NoError(t, types.Read(conn))
	require.Contains(t, types.Types, uint8(rfb.SecurityTypeVNC))

	choice := rfb.SecurityTypeChoiceMessage{Type: rfb.SecurityTypeVNC}
	require.NoError(t, choice.Write(conn))

	var challenge rfb.VNCAuthenticationChallengeMessage
	require.NoError(t, challenge.Read(conn))

	var response rfb.VNCAuthenticationResponseMessage // all zero: wrong
	require.NoError(t, response.Write(conn))

	var result rfb.SecurityResultMessage
	require.NoError(t, result.Read(conn, binary.BigEndian, 8))
	require.False(t, result.OK)
	require.NotEmpty(t, result.Reason)
}

func TestMaxConnectionsRejection(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxConnections = 1
	srv := startServer(t, cfg, nil)

	first := handshakeNoAuth(t, srv.listener.Addr().String())
	defer first.Close()

	require.Eventually(t, func() bool { return srv.connectionCount() == 1 }, time.Second, 10*time.Millisecond)

	second, err := net.DialTimeout("tcp", srv.listener.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	defer second.Close()

	buf := make([]byte, 1)
	second.SetReadDeadline(time.Now().Add(time.Second))
	n, err := second.Read(buf)
	require.Equal(t, 0, n)
	require.Error(t, err) // connection closed without writing ProtocolVersion
}

func TestFirstFramebufferUpdateIsFullFrame(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)
	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()

	req := rfb.FramebufferUpdateRequestMessage{Incremental: false, X: 0, Y: 0, Width: uint16(cfg.ScreenWidth), Height: uint16(cfg.ScreenHeight)}
	require.NoError(t, req.Write(conn, binary.BigEndian))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType := make([]byte, 1)
	_, err := conn.Read(msgType)
	require.NoError(t, err)
	require.Equal(t, byte(rfb.MessageFramebufferUpdate), msgType[0])
}

func TestStatusReflectsConnectionCount(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)
	require.Equal(t, 0, srv.Status().ConnectionCount)

	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.Status().ConnectionCount == 1 }, time.Second, 10*time.Millisecond)
}

func TestKickClosesConnection(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)
	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.connectionCount() == 1 }, time.Second, 10*time.Millisecond)

	conns := srv.snapshotConnections()
	require.Len(t, conns, 1)
	require.NoError(t, srv.Kick(conns[0].address))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	require.Error(t, err)

	require.Eventually(t, func() bool {
		for _, e := range srv.RecentEvents(0) {
			if e.Kind == KindClientForcedDisconnect {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestStatusIncludesPerConnection(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)
	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()

	require.Eventually(t, func() bool { return len(srv.Status().PerConnection) == 1 }, time.Second, 10*time.Millisecond)

	entry := srv.Status().PerConnection[0]
	require.Equal(t, "normal", entry.State)
	require.False(t, entry.Authenticated) // no auth scheme was used
}

func TestServerStartAndStopAreLogged(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)

	var sawStart bool
	for _, e := range srv.RecentEvents(0) {
		if e.Kind == KindServerStart {
			sawStart = true
		}
	}
	require.True(t, sawStart)

	srv.Stop()
	var sawStop bool
	for _, e := range srv.RecentEvents(0) {
		if e.Kind == KindServerStop {
			sawStop = true
		}
	}
	require.True(t, sawStop)
}

func TestClientConnectIsLogged(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)
	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()

	require.Eventually(t, func() bool {
		for _, e := range srv.RecentEvents(0) {
			if e.Kind == KindClientConnect {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestPointerEventIsClampedToFramebuffer(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)
	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()

	sim := srv.display.(*display.Simulated)
	ptr := rfb.PointerEventMessage{ButtonMask: 1, X: 9000, Y: 9000}
	require.NoError(t, ptr.Write(conn, binary.BigEndian))

	require.Eventually(t, func() bool {
		x, y, _ := sim.LastPointerEvent()
		return x == cfg.ScreenWidth-1 && y == cfg.ScreenHeight-1
	}, time.Second, 10*time.Millisecond)
}

func TestKeyEventDropsUnknownKeysym(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)
	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()

	sim := srv.display.(*display.Simulated)

	unknown := rfb.KeyEventMessage{Pressed: true, KeySym: 0xfee1dead}
	require.NoError(t, unknown.Write(conn, binary.BigEndian))

	known := rfb.KeyEventMessage{Pressed: true, KeySym: display.KeysymReturn}
	require.NoError(t, known.Write(conn, binary.BigEndian))

	require.Eventually(t, func() bool {
		keysym, _ := sim.LastKeyEvent()
		return keysym == display.KeysymReturn
	}, time.Second, 10*time.Millisecond)

	keysym, _ := sim.LastKeyEvent()
	require.NotEqual(t, uint32(0xfee1dead), keysym)
}

func TestSetPixelFormatForcesFullRefresh(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg, nil)
	conn := handshakeNoAuth(t, srv.listener.Addr().String())
	defer conn.Close()

	req := rfb.FramebufferUpdateRequestMessage{Incremental: false, Width: uint16(cfg.ScreenWidth), Height: uint16(cfg.ScreenHeight)}
	require.NoError(t, req.Write(conn, binary.BigEndian))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType := make([]byte, 1)
	_, err := conn.Read(msgType)
	require.NoError(t, err)
	require.Equal(t, byte(rfb.MessageFramebufferUpdate), msgType[0])
	var firstUpdate rfb.FramebufferUpdateMessage
	require.NoError(t, firstUpdate.Read(conn, binary.BigEndian, rfb.ServerCanonicalPixelFormat()))

	newFormat := rfb.PixelFormat{BitsPerPixel: 16, BitDepth: 16, TrueColor: true, RedMax: 31, GreenMax: 63, BlueMax: 31, RedShift: 11, GreenShift: 5, BlueShift: 0}
	setFormat := rfb.SetPixelFormatMessage{PixelFormat: newFormat}
	require.NoError(t, setFormat.Write(conn, binary.BigEndian))

	incReq := rfb.FramebufferUpdateRequestMessage{Incremental: true, Width: uint16(cfg.ScreenWidth), Height: uint16(cfg.ScreenHeight)}
	require.NoError(t, incReq.Write(conn, binary.BigEndian))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Read(msgType)
	require.NoError(t, err)
	require.Equal(t, byte(rfb.MessageFramebufferUpdate), msgType[0])
	var secondUpdate rfb.FramebufferUpdateMessage
	require.NoError(t, secondUpdate.Read(conn, binary.BigEndian, newFormat))
	require.NotEmpty(t, secondUpdate.Rectangles)
	require.Equal(t, rfb.EncodingRaw, secondUpdate.Rectangles[0].EncodingType)
}

// Package rfbserver wires a display.Display and an optional auth.Store into
// a listening RFB server: the accept loop, per-connection handshake and
// message dispatch, and the admin surface for status/kick/user management.
package rfbserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openrfb/rfbd/internal/auth"
	"github.com/openrfb/rfbd/internal/config"
	"github.com/openrfb/rfbd/internal/display"
	"github.com/openrfb/rfbd/internal/framebuffer"
)

// Server is an RFB server: one listener, one framebuffer engine, and the
// set of currently-connected clients.
type Server struct {
	cfg     config.Config
	display display.Display
	engine  *framebuffer.Engine
	auth    *auth.Store
	log     zerolog.Logger

	events *eventLog

	mu          sync.RWMutex
	connections map[string]*Connection

	listener net.Listener
	stopOnce sync.Once
	stopped  chan struct{}
	wg       sync.WaitGroup

	cancel context.CancelFunc
}

// New constructs a Server. store may be nil if cfg.AuthRequired is false.
func New(cfg config.Config, disp display.Display, store *auth.Store, log zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.AuthRequired && store == nil {
		return nil, &config.ConfigError{Field: "AuthRequired", Reason: "set but no auth.Store was provided"}
	}

	engine := framebuffer.NewEngine(disp, time.Second/time.Duration(cfg.FrameRate), log)
	return &Server{
		cfg:         cfg,
		display:     disp,
		engine:      engine,
		auth:        store,
		log:         log,
		events:      newEventLog(),
		connections: make(map[string]*Connection),
		stopped:     make(chan struct{}),
	}, nil
}

func (s *Server) authRequired() bool { return s.cfg.AuthRequired }

// Start binds the listener, launches the capture engine, and runs the
// accept loop in a background goroutine. It returns once the listener is
// bound (or binding fails).
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("rfbserver: listen: %w", err)
	}
	s.listener = ln

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.engine.Start(ctx)

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	s.events.add(EventLogEntry{Time: time.Now(), Address: ln.Addr().String(), Kind: KindServerStart})
	s.log.Info().Str("addr", ln.Addr().String()).Msg("rfbserver: listening")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.log.Error().Err(err).Msg("rfbserver: accept failed")
			return
		}

		if s.connectionCount() >= s.cfg.MaxConnections {
			s.log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("rfbserver: rejecting connection, at capacity")
			conn.Close()
			continue
		}

		c := newConnection(conn, s)
		s.addConnection(c)
		if sim, ok := s.display.(*display.Simulated); ok {
			sim.SetConnectedClients(s.connectionCount())
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve()
		}()
	}
}

// Stop closes the listener, every connection, and the capture engine, then
// waits for all goroutines to exit.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		addr := ""
		if s.listener != nil {
			addr = s.listener.Addr().String()
		}
		close(s.stopped)
		if s.cancel != nil {
			s.cancel()
		}
		if s.listener != nil {
			s.listener.Close()
		}
		for _, c := range s.snapshotConnections() {
			c.close()
		}
		s.engine.Stop()
		s.wg.Wait()
		s.events.add(EventLogEntry{Time: time.Now(), Address: addr, Kind: KindServerStop})
	})
}

func (s *Server) addConnection(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[c.address] = c
}

func (s *Server) forgetConnection(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c.address)
	count := len(s.connections)
	s.mu.Unlock()

	kind := KindClientDisconnect
	if c.forced.Load() {
		kind = KindClientForcedDisconnect
	}
	s.events.add(EventLogEntry{Time: time.Now(), Address: c.address, Kind: kind})
	if sim, ok := s.display.(*display.Simulated); ok {
		sim.SetConnectedClients(count)
	}
}

func (s *Server) connectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) snapshotConnections() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Connection, 0, len(s.connections))
	for _, c := range s.connections {
		out = append(out, c)
	}
	return out
}

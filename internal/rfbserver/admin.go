package rfbserver

import (
	"fmt"

	"github.com/openrfb/rfbd/internal/auth"
)

// ConnectionStatus is a snapshot of one connected client for the admin
// surface, modeled on the original server's get_status() connections list.
type ConnectionStatus struct {
	Address       string
	Authenticated bool
	State         string
}

// Status is a snapshot of server health for the admin surface.
type Status struct {
	Listening       bool
	Address         string
	ConnectionCount int
	MaxConnections  int
	ScreenWidth     int
	ScreenHeight    int
	AuthRequired    bool
	PerConnection   []ConnectionStatus
}

// Status returns a point-in-time snapshot of the server.
func (s *Server) Status() Status {
	w, h := s.display.Size()
	addr := ""
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	conns := s.snapshotConnections()
	perConn := make([]ConnectionStatus, 0, len(conns))
	for _, c := range conns {
		perConn = append(perConn, c.status())
	}
	return Status{
		Listening:       s.listener != nil,
		Address:         addr,
		ConnectionCount: len(conns),
		MaxConnections:  s.cfg.MaxConnections,
		ScreenWidth:     w,
		ScreenHeight:    h,
		AuthRequired:    s.cfg.AuthRequired,
		PerConnection:   perConn,
	}
}

// Kick forcibly disconnects the client at the given remote address.
func (s *Server) Kick(address string) error {
	s.mu.RLock()
	c, ok := s.connections[address]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("rfbserver: no connection from %s", address)
	}
	c.markForced()
	c.close()
	return nil
}

// AddUser delegates to the configured auth.Store.
func (s *Server) AddUser(username, password string) error {
	if s.auth == nil {
		return fmt.Errorf("rfbserver: no auth store configured")
	}
	return s.auth.Add(username, password)
}

// RemoveUser delegates to the configured auth.Store.
func (s *Server) RemoveUser(username string) error {
	if s.auth == nil {
		return fmt.Errorf("rfbserver: no auth store configured")
	}
	return s.auth.Remove(username)
}

// ListUsers delegates to the configured auth.Store.
func (s *Server) ListUsers() (map[string]auth.UserInfo, error) {
	if s.auth == nil {
		return nil, fmt.Errorf("rfbserver: no auth store configured")
	}
	return s.auth.List(), nil
}

// RecentEvents returns up to limit of the most recent connection/admin
// events, most recent first. limit <= 0 returns everything retained.
func (s *Server) RecentEvents(limit int) []EventLogEntry {
	return s.events.recent(limit)
}

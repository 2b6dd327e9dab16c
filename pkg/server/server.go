package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/gambaserver/pkg/logging"
)

// shutdownGrace bounds how long Shutdown waits for session goroutines
// after their sockets close.
const shutdownGrace = 2 * time.Second

// Server owns the listener, the registries and the liveness monitor, and
// runs one session goroutine per accepted connection.
type Server struct {
	cfg *Config

	log     slog.Logger
	sessLog slog.Logger

	players *PlayerRegistry
	rooms   *RoomRegistry
	disp    *dispatcher
	monitor *Monitor

	listener net.Listener

	mu       sync.Mutex
	conns    map[*socket]struct{}
	shutdown bool

	wg sync.WaitGroup
}

// NewServer wires the registries, dispatcher and monitor together from
// cfg, pulling per-subsystem loggers from the backend.
func NewServer(cfg *Config, logBackend *logging.LogBackend) *Server {
	s := &Server{
		cfg:     cfg,
		log:     logBackend.Logger("SRVR"),
		sessLog: logBackend.Logger("SESS"),
		conns:   make(map[*socket]struct{}),
	}
	s.players = NewPlayerRegistry(logBackend.Logger("PLYR"))
	s.rooms = NewRoomRegistry(cfg, logBackend.Logger("ROOM"))
	s.disp = newDispatcher(s.players, s.log)
	s.monitor = NewMonitor(cfg, s.players, s.rooms, s.disp, logBackend.Logger("MNTR"))
	return s
}

// Listen binds the configured address and starts the liveness monitor.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return err
	}
	s.listener = l
	s.monitor.Start()
	s.log.Infof("listening on %s", l.Addr())
	return nil
}

// Addr returns the bound address, nil before Listen. With port 0 this is
// where the kernel actually put us.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown closes the listener, running
// one session goroutine per connection. It returns nil on a shutdown-
// induced exit.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Errorf("accept: %v", err)
			continue
		}

		sock := newSocket(conn)
		if !s.trackConn(sock) {
			sock.close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			newSession(s, sock).run()
		}()
	}
}

func (s *Server) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// trackConn registers a socket for shutdown teardown. It refuses once
// shutdown began; the caller closes the socket instead.
func (s *Server) trackConn(sock *socket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	s.conns[sock] = struct{}{}
	return true
}

// dropConn forgets a socket once its session is torn down.
func (s *Server) dropConn(sock *socket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, sock)
}

// Shutdown stops accepting, halts the monitor, closes every live
// connection to unblock its reader, and waits up to shutdownGrace for the
// session goroutines to drain. Stragglers are abandoned; process exit
// reclaims them.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	socks := make([]*socket, 0, len(s.conns))
	for sock := range s.conns {
		socks = append(socks, sock)
	}
	s.mu.Unlock()

	s.log.Infof("shutting down")
	if s.listener != nil {
		s.listener.Close()
	}
	s.monitor.Stop()
	for _, sock := range socks {
		sock.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Infof("all sessions drained")
	case <-time.After(shutdownGrace):
		s.mu.Lock()
		n := len(s.conns)
		s.mu.Unlock()
		s.log.Warnf("shutdown grace expired, abandoning %d sessions", n)
	}
}

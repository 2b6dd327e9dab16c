package server

import (
	"bytes"
	"io"
	"net"
	"sync"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/vctt94/gambaserver/pkg/protocol"
)

// Inbound framing limits. A connection that buffers more than
// maxBufferedBytes without completing a frame is cut off.
const (
	maxBufferedBytes = 8 * 1024
	readChunkSize    = 1024
)

// socket wraps a net.Conn with a short session id for logs and a write
// mutex, so the session handler and the liveness monitor never interleave
// partial frames on the same connection.
type socket struct {
	conn net.Conn
	id   string

	writeMu sync.Mutex
}

func newSocket(conn net.Conn) *socket {
	return &socket{conn: conn, id: uuid.New().String()[:8]}
}

// writeFrame puts one serialized frame and its terminating newline on the
// wire.
func (s *socket) writeFrame(msg *protocol.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write([]byte(msg.Serialize() + "\n"))
	return err
}

func (s *socket) close() {
	s.conn.Close()
}

// session runs the read loop for one accepted connection.
type session struct {
	srv  *Server
	sock *socket
	log  slog.Logger

	invalid int // consecutive invalid frames
}

func newSession(srv *Server, sock *socket) *session {
	return &session{srv: srv, sock: sock, log: srv.sessLog}
}

// run reads frames until the connection dies, routing each through the
// server and dispatching whatever comes back.
func (s *session) run() {
	defer s.teardown()

	s.log.Debugf("session %s opened from %s", s.sock.id, s.sock.conn.RemoteAddr())

	buf := make([]byte, 0, maxBufferedBytes)
	chunk := make([]byte, readChunkSize)
	for {
		n, err := s.sock.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				nl := bytes.IndexByte(buf, '\n')
				if nl < 0 {
					break
				}
				line := string(bytes.TrimSuffix(buf[:nl], []byte{'\r'}))
				buf = buf[nl+1:]
				if line == "" {
					continue
				}
				if !s.handle(line) {
					return
				}
			}
			if len(buf) > maxBufferedBytes {
				s.log.Warnf("session %s buffered %d bytes without a frame, closing", s.sock.id, len(buf))
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				s.log.Debugf("session %s read: %v", s.sock.id, err)
			}
			return
		}
	}
}

// handle routes one wire line and dispatches the result. It returns false
// once the connection should close.
func (s *session) handle(line string) bool {
	res := s.process(line)
	if res.invalid {
		s.invalid++
	} else {
		s.invalid = 0
	}

	if len(res.frames) > 0 {
		origin := s.srv.players.BySocket(s.sock)
		s.srv.disp.dispatch(s.sock, origin, res.frames)
	}

	if res.close || wantsDisconnect(res.frames) {
		return false
	}
	if s.invalid >= s.srv.cfg.InvalidMessageLimit {
		s.log.Warnf("session %s sent %d consecutive invalid frames, closing", s.sock.id, s.invalid)
		return false
	}
	return true
}

// process parses one line into a frame and routes it. Unparseable lines
// and types clients may not send get no reply; they only count against
// the invalid limit.
func (s *session) process(line string) handlerResult {
	msg, err := protocol.Parse(line)
	if err != nil {
		s.log.Debugf("session %s: dropping unparseable frame: %v", s.sock.id, err)
		return handlerResult{invalid: true}
	}
	if !msg.Type.Inbound() {
		s.log.Debugf("session %s: dropping frame with unhandled type %d", s.sock.id, int(msg.Type))
		return handlerResult{invalid: true}
	}
	return s.srv.route(s, msg)
}

// wantsDisconnect reports whether a handler asked for the connection to
// close after dispatch via the disconnect=true data key.
func wantsDisconnect(frames []outbound) bool {
	for _, f := range frames {
		if f.msg.Get("disconnect") == "true" {
			return true
		}
	}
	return false
}

// teardown detaches the session's player, tells the room, and closes the
// socket. The player record itself survives until the reconnection window
// expires, so a fresh socket can reclaim the name with RECONNECT.
func (s *session) teardown() {
	name := s.srv.players.BySocket(s.sock)
	if name != "" {
		roomID := s.srv.players.RoomOf(name)
		s.srv.players.Detach(name)
		if roomID != "" {
			notices := disconnectNotices(s.srv.rooms, roomID, name, "temporarily_disconnected")
			s.srv.disp.dispatch(nil, "", notices)
		}
		s.log.Infof("session %s (%s) disconnected", s.sock.id, name)
	} else {
		s.log.Debugf("session %s closed", s.sock.id)
	}
	s.sock.close()
	s.srv.dropConn(s.sock)
}

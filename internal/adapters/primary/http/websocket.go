package http

import (
	"encoding/json"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tobogganhq/toboggan/internal/core/kernel"
	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// registerDeadline bounds how long a client has to send its Register
	// frame after upgrade before the session is dropped.
	registerDeadline = 10 * time.Second

	// maxMessageSize bounds an incoming frame.
	maxMessageSize = 4096
)

// heartbeatInterval is the configured ping period, defaulting to 30s.
func (s *Server) heartbeatInterval() time.Duration {
	return s.client.HeartbeatInterval()
}

// connectionTimeout is the configured pong deadline, defaulting to 60s.
func (s *Server) connectionTimeout() time.Duration {
	return s.client.ConnectionTimeout()
}

func (s *Server) createUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.isValidOrigin,
	}
}

// handleWebSocket upgrades the connection and runs its session:
// [Accepted] --register cmd--> [Registered] --cmd|notif--> [Registered],
// closing on any error or explicit unregister. The first inbound frame
// must be a Register command; anything else, or a registration timeout,
// closes the connection without ever starting the reader/writer/heartbeat
// trio.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.createUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	correlationID := uuid.New().String()
	conn.SetReadLimit(maxMessageSize)

	_ = conn.SetReadDeadline(time.Now().Add(registerDeadline))
	_, message, err := conn.ReadMessage()
	if err != nil {
		s.logger.Warn("session %s failed to read Register frame: %v", correlationID, err)
		_ = conn.Close()
		return
	}

	var cmd entities.Command
	if err := json.Unmarshal(message, &cmd); err != nil || cmd.Kind != entities.CmdRegister {
		s.logger.Warn("session %s first frame was not Register, closing", correlationID)
		_ = conn.Close()
		return
	}

	session := s.kernel.NewSession()
	notif, err := session.Register(cmd.Name, remoteAddr(r))
	if err != nil {
		s.logger.Warn("session %s registration rejected: %v", correlationID, err)
		_ = conn.WriteJSON(entities.NotifyErrorOf(err.Error()))
		_ = conn.Close()
		return
	}
	s.logger.Info("session %s registered as %q (id=%s)", correlationID, cmd.Name, notif.ClientID)

	_ = conn.SetReadDeadline(time.Now().Add(s.connectionTimeout()))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(s.connectionTimeout()))
		return nil
	})

	closer := newCloser(conn)

	if err := conn.WriteJSON(notif); err != nil {
		s.logger.Debug("session %s failed to send Registered ack: %v", correlationID, err)
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(conn, session, closer, correlationID)
	}()
	go s.heartbeatPump(conn, closer)

	s.readPump(conn, session, correlationID)

	session.Unregister()
	closer.do()
	<-writerDone
	s.logger.Debug("session %s closed", correlationID)
}

// readPump decodes incoming frames into commands and drives them through
// the same command pipeline as the HTTP surface, until the connection
// errors or closes.
func (s *Server) readPump(conn *websocket.Conn, session *kernel.Session, correlationID string) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("session %s read error: %v", correlationID, err)
			}
			return
		}

		var cmd entities.Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			s.logger.Warn("session %s sent invalid command: %v", correlationID, err)
			continue
		}

		if _, err := session.Handle(cmd); err != nil {
			s.logger.Debug("session %s command %s failed: %v", correlationID, cmd.Kind, err)
		}
		if cmd.Kind == entities.CmdUnregister {
			return
		}
	}
}

// writePump reads from the session's notification sink and encodes each
// notification as an outgoing frame, until the session's closer fires; a
// write error fires the closer, which closes the socket.
func (s *Server) writePump(conn *websocket.Conn, session *kernel.Session, closer *connCloser, correlationID string) {
	for {
		select {
		case <-closer.done:
			return
		case <-session.Sink.Wake():
			notif, ok := session.Sink.Latest()
			if !ok {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(notif); err != nil {
				s.logger.Debug("session %s write error: %v", correlationID, err)
				closer.do()
				return
			}
		}
	}
}

// heartbeatPump emits a ping every heartbeatInterval until the connection
// closes or a write fails.
func (s *Server) heartbeatPump(conn *websocket.Conn, closer *connCloser) {
	ticker := time.NewTicker(s.heartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-closer.done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				closer.do()
				return
			}
		}
	}
}

// connCloser ensures the underlying connection is closed exactly once
// across the reader/writer/heartbeat goroutines.
type connCloser struct {
	conn *websocket.Conn
	done chan struct{}
}

func newCloser(conn *websocket.Conn) *connCloser {
	return &connCloser{conn: conn, done: make(chan struct{})}
}

func (c *connCloser) do() {
	select {
	case <-c.done:
	default:
		close(c.done)
		_ = c.conn.Close()
	}
}

// remoteAddr best-effort parses the connection's remote address into a
// netip.Addr for ClientInfo, returning the zero value if it cannot.
func remoteAddr(r *http.Request) netip.Addr {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return netip.Addr{}
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr
}

package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// safeConn serializes writes to a gorilla connection. The write pump and the
// join-failure path can both touch the same socket, and gorilla permits only
// one concurrent writer. Reads stay unlocked since the read pump is the sole
// reader.
type safeConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newSafeConn(conn *websocket.Conn) *safeConn {
	return &safeConn{conn: conn}
}

func (s *safeConn) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeConn) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *safeConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

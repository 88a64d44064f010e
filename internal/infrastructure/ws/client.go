package ws

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lienzo-games/lienzo/internal/game"
)

// InboundMessage is the envelope clients send over the socket.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (m InboundMessage) Decode(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

type Client struct {
	conn     *safeConn
	Send     chan *game.Event
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
	Name     string `json:"name"`

	logger *zap.SugaredLogger
}

func NewClient(conn *websocket.Conn, playerID, roomID, name string, logger *zap.SugaredLogger) *Client {
	return &Client{
		conn:     newSafeConn(conn),
		Send:     make(chan *game.Event, 64), // buffered to avoid dead-locks on slow clients
		PlayerID: playerID,
		RoomID:   roomID,
		Name:     name,
		logger:   logger,
	}
}

// ReadPump consumes inbound frames until the socket closes, invoking handle
// for each decoded message and onClose exactly once on exit.
func (c *Client) ReadPump(handle func(msg InboundMessage), onClose func()) {
	defer func() {
		onClose()
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warnw("ws read error", "player_id", c.PlayerID, "error", err)
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Debugw("dropping malformed ws frame", "player_id", c.PlayerID, "error", err)
			continue
		}

		handle(msg)
	}
}

// WritePump drains the Send channel onto the socket. It exits when the
// channel is closed or a write fails.
func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for event := range c.Send {
		if err := c.conn.WriteJSON(event); err != nil {
			c.logger.Warnw("ws write error", "player_id", c.PlayerID, "error", err)
			break
		}
	}
}

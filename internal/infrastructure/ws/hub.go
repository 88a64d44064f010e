package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lienzo-games/lienzo/internal/game"
)

// Hub tracks the live sockets of every room and fans game events out to
// them. It implements game.Broadcaster; sends never block, a slow client
// simply misses events.
type Hub struct {
	rooms  map[string]map[string]*Client // roomID -> playerID -> client
	mu     sync.RWMutex
	logger *zap.SugaredLogger

	upgrader websocket.Upgrader
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]*Client),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return h.upgrader.Upgrade(w, r, nil)
}

// AddClient registers a client under its room. A reconnecting player
// replaces their previous socket, which is closed.
func (h *Hub) AddClient(cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[cl.RoomID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[cl.RoomID] = room
	}

	if prev, exists := room[cl.PlayerID]; exists && prev != cl {
		close(prev.Send)
	}
	room[cl.PlayerID] = cl
}

// RemoveClient drops the client if it is still the registered socket for
// its player. Stale sockets replaced by a reconnect are ignored.
func (h *Hub) RemoveClient(cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[cl.RoomID]
	if !ok {
		return
	}

	if current, exists := room[cl.PlayerID]; exists && current == cl {
		delete(room, cl.PlayerID)
		close(cl.Send)

		if len(room) == 0 {
			delete(h.rooms, cl.RoomID)
		}
	}
}

func (h *Hub) BroadcastToRoom(roomID string, event *game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, cl := range h.rooms[roomID] {
		select {
		case cl.Send <- event:
		default:
			h.logger.Warnw("client buffer full, dropping event",
				"room_id", roomID, "player_id", cl.PlayerID, "type", event.Type)
		}
	}
}

func (h *Hub) SendToPlayer(roomID, playerID string, event *game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cl, ok := h.rooms[roomID][playerID]
	if !ok {
		return
	}

	select {
	case cl.Send <- event:
	default:
		h.logger.Warnw("client buffer full, dropping event",
			"room_id", roomID, "player_id", playerID, "type", event.Type)
	}
}

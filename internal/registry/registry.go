// Package registry owns the set of live rooms: creation, membership,
// connectivity and passive expiry. Phase and round fields are the game
// orchestrator's business; both sides serialize on the same per-room lock.
package registry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lienzo-games/lienzo/internal/domain"
)

type Config struct {
	RoomTTL       time.Duration // refreshed on create/join
	AbandonedTTL  time.Duration // once no player is connected
	EmptyTTL      time.Duration // once no player remains at all
	SweepInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.RoomTTL == 0 {
		c.RoomTTL = 30 * time.Minute
	}
	if c.AbandonedTTL == 0 {
		c.AbandonedTTL = 5 * time.Minute
	}
	if c.EmptyTTL == 0 {
		c.EmptyTTL = time.Minute
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Minute
	}
}

type Stats struct {
	TotalRooms            int `json:"totalRooms"`
	ActiveRooms           int `json:"activeRooms"`
	TotalConnectedPlayers int `json:"totalConnectedPlayers"`
}

type Registry struct {
	rooms  map[string]*domain.Room // room code -> room
	cfg    Config
	logger *zap.SugaredLogger
	mu     sync.RWMutex
}

func New(logger *zap.SugaredLogger, cfg Config) *Registry {
	cfg.applyDefaults()
	return &Registry{
		rooms:  make(map[string]*domain.Room),
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRoom makes a room with a fresh unique code and its host player. The
// host is created disconnected; their websocket join re-attaches them.
func (reg *Registry) CreateRoom(hostName string, mode domain.Mode, maxRounds int) (*domain.Room, error) {
	host := domain.NewPlayer(hostName, true)
	host.IsConnected = false

	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		c, err := domain.GenerateRoomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := reg.rooms[c]; !taken {
			code = c
			break
		}
	}

	room := domain.NewRoom(code, host, mode, maxRounds)
	room.ExpiresAt = time.Now().Add(reg.cfg.RoomTTL)
	reg.rooms[code] = room

	reg.logger.Infow("room created", "room", code, "host", hostName, "mode", mode)
	return room, nil
}

// Get returns a live room. Expired rooms that the sweeper has not reaped yet
// are already unreachable. ExpiresAt is rewritten under the room lock by the
// join and connectivity paths, so the expiry check takes it too.
func (reg *Registry) Get(roomID string) (*domain.Room, error) {
	reg.mu.RLock()
	room, ok := reg.rooms[roomID]
	reg.mu.RUnlock()

	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	room.Lock()
	expired := time.Now().After(room.ExpiresAt)
	room.Unlock()

	if expired {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// JoinRoom adds a player to a lobby-phase room and refreshes its expiry.
// Joining with the name of a currently disconnected player re-attaches that
// player instead, so a dropped connection can resume mid-game.
func (reg *Registry) JoinRoom(roomID, playerName string) (*domain.Room, *domain.Player, error) {
	room, err := reg.Get(roomID)
	if err != nil {
		return nil, nil, err
	}

	room.Lock()
	defer room.Unlock()

	if existing := room.FindPlayerByName(playerName); existing != nil && !existing.IsConnected {
		existing.IsConnected = true
		room.ExpiresAt = time.Now().Add(reg.cfg.RoomTTL)
		reg.logger.Infow("player reconnected", "room", roomID, "player", playerName)
		return room, existing, nil
	}

	player, err := room.AddPlayer(playerName)
	if err != nil {
		return nil, nil, err
	}
	room.ExpiresAt = time.Now().Add(reg.cfg.RoomTTL)

	reg.logger.Infow("player joined", "room", roomID, "player", playerName)
	return room, player, nil
}

// SetConnectivity flips a player's connected flag. A room left with zero
// connected players gets its expiry shortened for a fast reap.
func (reg *Registry) SetConnectivity(roomID, playerID string, connected bool) (*domain.Room, error) {
	room, err := reg.Get(roomID)
	if err != nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()

	player := room.FindPlayer(playerID)
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	player.IsConnected = connected

	if !connected {
		// Only connected non-drawers may hold a pending guess; a dropped
		// player's guess must not count toward the round-end threshold.
		delete(room.Guesses, playerID)

		if len(room.ConnectedPlayers()) == 0 {
			room.ExpiresAt = time.Now().Add(reg.cfg.AbandonedTTL)
		}
	}
	return room, nil
}

// RemovePlayer drops a player for good, transferring host if needed. An
// emptied room is kept around briefly in case its code gets reused by a
// late client, then swept.
func (reg *Registry) RemovePlayer(roomID, playerID string) (*domain.Room, error) {
	room, err := reg.Get(roomID)
	if err != nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()

	removed, err := room.RemovePlayer(playerID)
	if err != nil {
		return nil, err
	}

	if len(room.Players) == 0 {
		room.ExpiresAt = time.Now().Add(reg.cfg.EmptyTTL)
	}

	reg.logger.Infow("player removed", "room", roomID, "player", removed.Name)
	return room, nil
}

// SweepExpired deletes every room whose expiry has elapsed, stopping any
// timer it still had armed. Returns how many rooms were reaped.
func (reg *Registry) SweepExpired(now time.Time) int {
	reg.mu.Lock()
	var expired []*domain.Room
	for id, room := range reg.rooms {
		room.Lock()
		dead := !room.ExpiresAt.After(now)
		room.Unlock()

		if dead {
			expired = append(expired, room)
			delete(reg.rooms, id)
		}
	}
	reg.mu.Unlock()

	for _, room := range expired {
		room.Lock()
		room.StopTimer()
		room.Unlock()
	}

	if len(expired) > 0 {
		reg.logger.Infow("swept expired rooms", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps on a fixed interval until the context is cancelled.
func (reg *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(reg.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reg.SweepExpired(now)
		}
	}
}

func (reg *Registry) Stats() Stats {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	stats := Stats{TotalRooms: len(reg.rooms)}
	for _, room := range reg.rooms {
		room.Lock()
		connected := len(room.ConnectedPlayers())
		room.Unlock()

		stats.TotalConnectedPlayers += connected
		if connected > 0 {
			stats.ActiveRooms++
		}
	}
	return stats
}

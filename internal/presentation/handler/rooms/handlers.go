// Package rooms exposes the room lifecycle over HTTP and hands joined
// players off to a websocket session that drives the game.
package rooms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lienzo-games/lienzo/internal/domain"
	"github.com/lienzo-games/lienzo/internal/game"
	"github.com/lienzo-games/lienzo/internal/infrastructure/json"
	"github.com/lienzo-games/lienzo/internal/infrastructure/validate"
	"github.com/lienzo-games/lienzo/internal/infrastructure/ws"
	"github.com/lienzo-games/lienzo/internal/registry"
)

const (
	maxPlayerNameLength = 24
	maxRoundsLimit      = 20
)

type Handler struct {
	registry         *registry.Registry
	orchestrator     *game.Orchestrator
	hub              *ws.Hub
	logger           *zap.SugaredLogger
	defaultMaxRounds int
}

func NewHandler(
	reg *registry.Registry,
	orchestrator *game.Orchestrator,
	hub *ws.Hub,
	logger *zap.SugaredLogger,
	defaultMaxRounds int,
) *Handler {
	return &Handler{
		registry:         reg,
		orchestrator:     orchestrator,
		hub:              hub,
		logger:           logger,
		defaultMaxRounds: defaultMaxRounds,
	}
}

var validatePlayerName = validate.Field("playerName",
	validate.Required(),
	validate.MaxLength(maxPlayerNameLength),
)

func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validatePlayerName(req.PlayerName); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	mode := domain.Mode(req.Mode)
	if req.Mode == "" {
		mode = domain.ModeClassic
	}
	if !mode.Valid() {
		json.WriteBadRequestError(w, "unknown game mode")
		return
	}

	maxRounds := req.MaxRounds
	if maxRounds == 0 {
		maxRounds = h.defaultMaxRounds
	}
	if maxRounds < 1 || maxRounds > maxRoundsLimit {
		json.WriteBadRequestError(w, "maxRounds out of range")
		return
	}

	difficulty := domain.Difficulty(req.Difficulty)
	if req.Difficulty != "" && !difficulty.Valid() {
		json.WriteBadRequestError(w, "unknown difficulty")
		return
	}

	room, err := h.registry.CreateRoom(req.PlayerName, mode, maxRounds)
	if err != nil {
		h.logger.Errorw("failed to create room", "error", err)
		json.WriteInternalError(w, err)
		return
	}

	room.Lock()
	room.Difficulty = difficulty
	snap := room.Snapshot()
	hostID := room.Players[0].ID
	room.Unlock()

	json.Write(w, http.StatusCreated, createRoomResponse{Room: snap, PlayerID: hostID})
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	room, err := h.registry.Get(roomID)
	if err != nil {
		json.WriteError(w, http.StatusNotFound, err, "Room not found")
		return
	}

	room.Lock()
	snap := room.Snapshot()
	room.Unlock()

	json.Write(w, http.StatusOK, roomResponse{Room: snap})
}

// JoinRoomHandler upgrades to a websocket, joins (or re-attaches) the
// player, then serves the session until the socket closes. Join failures
// after the upgrade are reported as an error event on the socket itself.
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	name := r.URL.Query().Get("name")
	if err := validatePlayerName(name); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	conn, err := h.hub.Upgrade(w, r)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "room", roomID, "error", err)
		return
	}

	room, player, err := h.registry.JoinRoom(roomID, name)
	if err != nil {
		_ = conn.WriteJSON(game.NewError(roomID, joinErrorMessage(err)))
		_ = conn.Close()
		return
	}

	client := ws.NewClient(conn, player.ID, room.ID, player.Name, h.logger)
	h.hub.AddClient(client)
	go client.WritePump()

	room.Lock()
	snap := room.Snapshot()
	room.Unlock()

	h.hub.SendToPlayer(room.ID, player.ID, game.NewRoomJoined(snap, player.ID))
	h.hub.BroadcastToRoom(room.ID, game.NewRoomUpdate(snap))

	client.ReadPump(
		func(msg ws.InboundMessage) { h.dispatch(r.Context(), client, msg) },
		func() { h.onDisconnect(client) },
	)
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, h.registry.Stats())
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, domain.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, domain.ErrNameTaken):
		return "That name is already taken"
	case errors.Is(err, domain.ErrGameInProgress):
		return "Game already in progress"
	default:
		return "Cannot join room"
	}
}

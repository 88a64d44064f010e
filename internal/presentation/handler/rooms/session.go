package rooms

import (
	"context"
	"errors"

	"github.com/lienzo-games/lienzo/internal/domain"
	"github.com/lienzo-games/lienzo/internal/game"
	"github.com/lienzo-games/lienzo/internal/infrastructure/ws"
)

var errUnknownMessage = errors.New("unknown message type")

// dispatch routes one inbound socket message to the orchestrator. Failures
// go back to the sender only; successful operations broadcast their own
// events from inside the orchestrator.
func (h *Handler) dispatch(ctx context.Context, cl *ws.Client, msg ws.InboundMessage) {
	var err error

	switch msg.Type {
	case MsgStartRound:
		err = h.orchestrator.StartRound(cl.RoomID, cl.PlayerID)

	case MsgSubmitDrawing:
		var body submitDrawingMessage
		if err = msg.Decode(&body); err == nil {
			err = h.orchestrator.SubmitDrawing(ctx, cl.RoomID, cl.PlayerID, body.ImageBase64, body.IsSequenceComplete)
		}

	case MsgSubmitText:
		var body submitTextMessage
		if err = msg.Decode(&body); err == nil {
			err = h.orchestrator.SubmitText(ctx, cl.RoomID, cl.PlayerID, body.Text)
		}

	case MsgSubmitGuess:
		var body submitGuessMessage
		if err = msg.Decode(&body); err == nil {
			err = h.orchestrator.SubmitGuess(cl.RoomID, cl.PlayerID, body.Guess)
		}

	case MsgLeaveRoom:
		h.leaveRoom(cl)
		return

	default:
		err = errUnknownMessage
	}

	if err != nil {
		h.logger.Debugw("rejected message",
			"room", cl.RoomID, "player", cl.PlayerID, "type", msg.Type, "error", err)
		h.hub.SendToPlayer(cl.RoomID, cl.PlayerID, game.NewError(cl.RoomID, err.Error()))
	}
}

func (h *Handler) leaveRoom(cl *ws.Client) {
	room, err := h.registry.RemovePlayer(cl.RoomID, cl.PlayerID)
	if err != nil {
		return
	}

	room.Lock()
	snap := room.Snapshot()
	room.Unlock()

	h.hub.BroadcastToRoom(cl.RoomID, game.NewRoomUpdate(snap))
}

// onDisconnect marks the player disconnected but keeps them in the room so
// they can re-attach by rejoining with the same name.
func (h *Handler) onDisconnect(cl *ws.Client) {
	h.hub.RemoveClient(cl)

	room, err := h.registry.SetConnectivity(cl.RoomID, cl.PlayerID, false)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) && !errors.Is(err, domain.ErrPlayerNotFound) {
			h.logger.Warnw("disconnect bookkeeping failed",
				"room", cl.RoomID, "player", cl.PlayerID, "error", err)
		}
		return
	}

	room.Lock()
	snap := room.Snapshot()
	room.Unlock()

	h.hub.BroadcastToRoom(cl.RoomID, game.NewRoomUpdate(snap))
}

package rooms

import "github.com/lienzo-games/lienzo/internal/domain"

// Message types accepted over the room websocket.
const (
	MsgStartRound    = "round:start"
	MsgSubmitDrawing = "drawing:submit"
	MsgSubmitText    = "text:submit"
	MsgSubmitGuess   = "guess:submit"
	MsgLeaveRoom     = "room:leave"
)

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
	Mode       string `json:"mode,omitempty"`       // defaults to CLASSIC
	MaxRounds  int    `json:"maxRounds,omitempty"`  // defaults from config
	Difficulty string `json:"difficulty,omitempty"` // empty means any
}

type createRoomResponse struct {
	Room     domain.Snapshot `json:"room"`
	PlayerID string          `json:"playerId"`
}

type roomResponse struct {
	Room domain.Snapshot `json:"room"`
}

type submitDrawingMessage struct {
	ImageBase64        string `json:"imageBase64"`
	IsSequenceComplete bool   `json:"isSequenceComplete,omitempty"`
}

type submitTextMessage struct {
	Text string `json:"text"`
}

type submitGuessMessage struct {
	Guess string `json:"guess"`
}

package game

import "github.com/lienzo-games/lienzo/internal/domain"

// Event types observed by clients.
const (
	EventRoomUpdate = "room:update"
	EventRoomJoined = "room:joined"
	EventGamePhase  = "game:phase"
	EventTimer      = "timer"
	EventReveal     = "reveal"
	EventError      = "error"
)

type Event struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Data   any    `json:"data"`
}

// Broadcaster is the outbound port. Implementations must not block: a slow
// consumer is the transport's problem, never the orchestrator's. Events are
// emitted while the room lock is held, so delivery order per room matches
// the state transitions they describe.
type Broadcaster interface {
	BroadcastToRoom(roomID string, event *Event)
	SendToPlayer(roomID, playerID string, event *Event)
}

type RoomUpdatePayload struct {
	Room domain.Snapshot `json:"room"`
}

type RoomJoinedPayload struct {
	Room     domain.Snapshot `json:"room"`
	PlayerID string          `json:"playerId"`
}

// GamePhasePayload announces a phase transition. HiddenWord is only ever set
// on the copy addressed to the current drawer.
type GamePhasePayload struct {
	Phase       domain.Phase `json:"phase"`
	DrawerID    string       `json:"drawerId,omitempty"`
	DrawerName  string       `json:"drawerName,omitempty"`
	Prompt      string       `json:"prompt,omitempty"`
	HiddenWord  string       `json:"hiddenWord,omitempty"`
	RoundNumber int          `json:"roundNumber"`
	MaxRounds   int          `json:"maxRounds"`
	SecondsLeft int          `json:"secondsLeft"`
}

type TimerPayload struct {
	SecondsLeft  int `json:"secondsLeft"`
	TotalSeconds int `json:"totalSeconds"`
}

type RevealPayload struct {
	Result       *domain.GameResult   `json:"result"`
	NextDrawerID string               `json:"nextDrawerId,omitempty"`
	GameEnded    bool                 `json:"gameEnded"`
	FinalScores  []domain.PlayerScore `json:"finalScores,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewRoomUpdate(room domain.Snapshot) *Event {
	return &Event{Type: EventRoomUpdate, RoomID: room.ID, Data: RoomUpdatePayload{Room: room}}
}

func NewRoomJoined(room domain.Snapshot, playerID string) *Event {
	return &Event{Type: EventRoomJoined, RoomID: room.ID, Data: RoomJoinedPayload{Room: room, PlayerID: playerID}}
}

func NewError(roomID, message string) *Event {
	return &Event{Type: EventError, RoomID: roomID, Data: ErrorPayload{Message: message}}
}

package domain

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"
)

const (
	// MaxPlayers caps how many people fit in one room.
	MaxPlayers = 6
	// MaxSequenceDrawings caps the SEQUENCE mode drawing list.
	MaxSequenceDrawings = 5

	roomCodeLength = 4
	roomCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var (
	charsetLen = big.NewInt(int64(len(roomCodeChars)))

	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrGameInProgress    = errors.New("game already in progress")
	ErrNameTaken         = errors.New("name already taken")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrNotHost           = errors.New("only the host can do that")
	ErrNotDrawer         = errors.New("only the drawer can do that")
	ErrDrawerCannotGuess = errors.New("the drawer cannot guess")
	ErrWrongPhase        = errors.New("operation not allowed in this phase")
	ErrNotEnoughPlayers  = errors.New("not enough connected players")
)

// TimerHandle is the cancellable handle of the single logical timer a room may
// have armed. The orchestrator owns arming; the registry stops it on sweep.
type TimerHandle interface {
	Stop()
}

// Room is one isolated game session. All fields except ID, Mode and CreatedAt
// are mutated after creation and must only be touched under the room lock;
// operations on different rooms never contend.
type Room struct {
	ID        string    `json:"id"`
	Players   []*Player `json:"players"` // join order, drives drawer rotation
	Phase     Phase     `json:"phase"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`

	// Difficulty filters the prompt pool when set. Empty means any.
	Difficulty Difficulty

	Prompt         string
	HiddenWord     string // WORDWRAP only, never broadcast to non-drawers
	DrawerID       string
	CurrentDrawing string
	Drawings       []string          // SEQUENCE mode, capped at MaxSequenceDrawings
	Guesses        map[string]string // playerID -> normalized guess
	AIGuess        string
	AIGuesses      []string

	RoundNumber int
	// RoundGeneration counts every round ever started in this room and never
	// resets, unlike RoundNumber which returns to zero after a game. A judge
	// verdict is matched against it so a slow response cannot land on a
	// later game's same-numbered round.
	RoundGeneration int

	MaxRounds      int
	PhaseStartedAt time.Time
	ExpiresAt      time.Time

	// AwaitingJudge is set while a judge call for this round is in flight;
	// further drawer submissions are rejected until the response is applied
	// or discarded as stale.
	AwaitingJudge bool

	// Timer is the currently armed phase timer, nil when idle. A handle that
	// finds itself replaced here must treat its fire as stale.
	Timer TimerHandle

	mu sync.Mutex
}

func NewRoom(code string, host *Player, mode Mode, maxRounds int) *Room {
	now := time.Now()
	return &Room{
		ID:        code,
		Players:   []*Player{host},
		Phase:     PhaseLobby,
		Mode:      mode,
		Guesses:   make(map[string]string),
		MaxRounds: maxRounds,
		ExpiresAt: now.Add(30 * time.Minute),
		CreatedAt: now,
	}
}

// GenerateRoomCode returns a short human-relayable code. Uniqueness against
// live rooms is the registry's job.
func GenerateRoomCode() (string, error) {
	var sb strings.Builder
	sb.Grow(roomCodeLength)

	for i := 0; i < roomCodeLength; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(roomCodeChars[n.Int64()])
	}

	return sb.String(), nil
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// StopTimer stops and clears the armed timer, if any. Caller holds the lock.
func (r *Room) StopTimer() {
	if r.Timer != nil {
		r.Timer.Stop()
		r.Timer = nil
	}
}

// AddPlayer appends a non-host player. Caller holds the lock.
func (r *Room) AddPlayer(name string) (*Player, error) {
	if r.Phase != PhaseLobby {
		return nil, ErrGameInProgress
	}
	if len(r.Players) >= MaxPlayers {
		return nil, ErrRoomFull
	}
	for _, p := range r.Players {
		if p.Name == name {
			return nil, ErrNameTaken
		}
	}

	player := NewPlayer(name, false)
	r.Players = append(r.Players, player)
	return player, nil
}

func (r *Room) FindPlayer(playerID string) *Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) FindPlayerByName(name string) *Player {
	for _, p := range r.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// RemovePlayer drops a player preserving join order. When the host leaves and
// players remain, the earliest-joined remaining player becomes host.
// Caller holds the lock.
func (r *Room) RemovePlayer(playerID string) (*Player, error) {
	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrPlayerNotFound
	}

	removed := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	delete(r.Guesses, playerID)

	if removed.IsHost && len(r.Players) > 0 {
		r.Players[0].IsHost = true
	}
	return removed, nil
}

func (r *Room) ConnectedPlayers() []*Player {
	connected := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsConnected {
			connected = append(connected, p)
		}
	}
	return connected
}

// ConnectedNonDrawers are the players eligible to submit a guess this round.
func (r *Room) ConnectedNonDrawers() []*Player {
	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsConnected && p.ID != r.DrawerID {
			players = append(players, p)
		}
	}
	return players
}

// NextDrawerID rotates the drawer round-robin over currently connected
// players in join order. With no previous drawer (or one that has since
// left or disconnected) the first connected player is picked.
func (r *Room) NextDrawerID() string {
	connected := r.ConnectedPlayers()
	if len(connected) == 0 {
		return ""
	}

	current := -1
	for i, p := range connected {
		if p.ID == r.DrawerID {
			current = i
			break
		}
	}
	return connected[(current+1)%len(connected)].ID
}

// GuessStatus is the redacted view of a submitted guess: who guessed, never
// what they guessed. Guess text only appears in the reveal result.
type GuessStatus struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	HasGuessed bool   `json:"hasGuessed"`
}

// Snapshot is what every client in the room is allowed to see at any time.
// The prompt, the hidden word and raw guess text are deliberately absent.
type Snapshot struct {
	ID             string        `json:"id"`
	Players        []Player      `json:"players"`
	Phase          Phase         `json:"phase"`
	Mode           Mode          `json:"mode"`
	Difficulty     Difficulty    `json:"difficulty,omitempty"`
	RoundNumber    int           `json:"roundNumber"`
	MaxRounds      int           `json:"maxRounds"`
	DrawerID       string        `json:"drawerId,omitempty"`
	CurrentDrawing string        `json:"currentDrawing,omitempty"`
	DrawingCount   int           `json:"drawingCount"`
	Guesses        []GuessStatus `json:"guesses"`
}

// Snapshot projects the room into its broadcastable form. Caller holds the lock.
func (r *Room) Snapshot() Snapshot {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = *p
	}

	guesses := make([]GuessStatus, 0, len(r.Guesses))
	for _, p := range r.Players {
		if _, ok := r.Guesses[p.ID]; ok {
			guesses = append(guesses, GuessStatus{
				PlayerID:   p.ID,
				PlayerName: p.Name,
				HasGuessed: true,
			})
		}
	}

	return Snapshot{
		ID:             r.ID,
		Players:        players,
		Phase:          r.Phase,
		Mode:           r.Mode,
		Difficulty:     r.Difficulty,
		RoundNumber:    r.RoundNumber,
		MaxRounds:      r.MaxRounds,
		DrawerID:       r.DrawerID,
		CurrentDrawing: r.CurrentDrawing,
		DrawingCount:   len(r.Drawings),
		Guesses:        guesses,
	}
}

// FinalScores lists every player's score for the end-of-game scoreboard.
// Caller holds the lock.
func (r *Room) FinalScores() []PlayerScore {
	scores := make([]PlayerScore, len(r.Players))
	for i, p := range r.Players {
		scores[i] = PlayerScore{PlayerID: p.ID, PlayerName: p.Name, Score: p.Score}
	}
	return scores
}

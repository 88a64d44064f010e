package domain

// Phase is the round state a room is currently in.
type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseDrawing  Phase = "DRAWING"
	PhaseGuessing Phase = "GUESSING"
	PhaseReveal   Phase = "REVEAL"
)

// Mode selects what the drawer produces and how the judge is consulted.
type Mode string

const (
	// ModeClassic is a single drawing that everyone guesses.
	ModeClassic Mode = "CLASSIC"
	// ModeSequence is up to five drawings telling a situation.
	ModeSequence Mode = "SEQUENCE"
	// ModeWordwrap is a text description of a hidden word.
	ModeWordwrap Mode = "WORDWRAP"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeClassic, ModeSequence, ModeWordwrap:
		return true
	}
	return false
}

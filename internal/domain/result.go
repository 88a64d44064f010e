package domain

// Winner is who took the round: the humans, the AI judge, or neither side
// cleanly (both right, or both wrong).
type Winner string

const (
	WinnerHumans Winner = "HUMANS"
	WinnerAI     Winner = "AI"
	WinnerTie    Winner = "TIE"
)

type HumanGuess struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Guess      string `json:"guess"`
	Correct    bool   `json:"correct"`
}

// GameResult is the outcome of a single round, shown during REVEAL.
type GameResult struct {
	Winner              Winner       `json:"winner"`
	Prompt              string       `json:"prompt"`
	AIGuess             string       `json:"aiGuess"`
	HumanGuesses        []HumanGuess `json:"humanGuesses"`
	CorrectHumanGuesses int          `json:"correctHumanGuesses"`
	AIWasCorrect        bool         `json:"aiWasCorrect"`
	Drawings            []string     `json:"drawings"`
}

type PlayerScore struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

package domain

// PromptPayload is the round content handed out by the prompt source. Exactly
// one of the three variants is non-nil, matching the room's mode.
type PromptPayload struct {
	Classic  *ClassicPrompt
	Sequence *SequencePrompt
	Wordwrap *WordwrapPrompt
}

// ClassicPrompt is a single word to draw.
type ClassicPrompt struct {
	Word       string
	Category   string
	Difficulty Difficulty
}

// SequencePrompt is a situation told through up to five drawings.
type SequencePrompt struct {
	Situation string
	Steps     []string
}

// WordwrapPrompt is a word to describe without naming it. Context is shown to
// everyone; the word itself only ever reaches the drawer.
type WordwrapPrompt struct {
	HiddenWord string
	Context    string
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Package judge is the boundary to the automated guesser. The orchestrator
// only sees the Client interface; failures come back as ordinary errors and
// are substituted with fallback guesses by the caller, never surfaced to
// players as faults.
package judge

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("judge unavailable")

// GuessResponse is a ranked list of guesses with per-guess confidence.
type GuessResponse struct {
	TopGuesses []string  `json:"topGuesses"`
	Confidence []float64 `json:"confidence"`
	Reasoning  string    `json:"reasoning,omitempty"`
}

// SituationResponse describes what a drawing sequence appears to depict.
type SituationResponse struct {
	Situation string `json:"situation"`
	Context   string `json:"context"`
}

type Client interface {
	// GuessFromImage ranks guesses for a single drawing.
	GuessFromImage(ctx context.Context, imageBase64 string) (*GuessResponse, error)

	// GuessFromText ranks guesses for a free-text description. With a
	// hidden word set it instead verifies whether the description matches
	// it: the top guess is the hidden word itself on a match.
	GuessFromText(ctx context.Context, text, hiddenWord string) (*GuessResponse, error)

	// GuessFromSequence infers the situation a drawing sequence tells.
	GuessFromSequence(ctx context.Context, imagesBase64 []string) (*SituationResponse, error)
}

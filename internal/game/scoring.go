package game

import (
	"strings"

	"github.com/lienzo-games/lienzo/internal/domain"
)

const (
	guesserPoints     = 10
	drawerBonusPoints = 5
)

// roundTarget is what guesses are matched against: the hidden word for
// WORDWRAP, the prompt otherwise, case-normalized.
func roundTarget(room *domain.Room) string {
	target := room.Prompt
	if room.Mode == domain.ModeWordwrap {
		target = room.HiddenWord
	}
	return strings.ToLower(strings.TrimSpace(target))
}

// calculateResult evaluates the collected guesses and the judge's guess
// against the round target. Pure with respect to scores; applyScores mutates.
// Caller holds the room lock.
func calculateResult(room *domain.Room) *domain.GameResult {
	target := roundTarget(room)

	humanGuesses := make([]domain.HumanGuess, 0, len(room.Guesses))
	correct := 0
	for _, p := range room.Players {
		guess, ok := room.Guesses[p.ID]
		if !ok {
			continue
		}
		isCorrect := guess == target
		if isCorrect {
			correct++
		}
		humanGuesses = append(humanGuesses, domain.HumanGuess{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Guess:      guess,
			Correct:    isCorrect,
		})
	}

	aiWasCorrect := strings.ToLower(strings.TrimSpace(room.AIGuess)) == target && target != ""

	var winner domain.Winner
	switch {
	case correct > 0 && !aiWasCorrect:
		winner = domain.WinnerHumans
	case correct == 0 && aiWasCorrect:
		winner = domain.WinnerAI
	default:
		winner = domain.WinnerTie
	}

	drawings := room.Drawings
	if room.Mode != domain.ModeSequence {
		drawings = []string{room.CurrentDrawing}
	}

	return &domain.GameResult{
		Winner:              winner,
		Prompt:              room.Prompt,
		AIGuess:             room.AIGuess,
		HumanGuesses:        humanGuesses,
		CorrectHumanGuesses: correct,
		AIWasCorrect:        aiWasCorrect,
		Drawings:            drawings,
	}
}

// applyScores awards points for the round: every correct guesser scores, and
// the drawer gets a bonus only when the humans won outright.
// Caller holds the room lock.
func applyScores(room *domain.Room, result *domain.GameResult) {
	for _, g := range result.HumanGuesses {
		if !g.Correct {
			continue
		}
		if p := room.FindPlayer(g.PlayerID); p != nil {
			p.Score += guesserPoints
		}
	}

	if result.Winner == domain.WinnerHumans {
		if drawer := room.FindPlayer(room.DrawerID); drawer != nil {
			drawer.Score += drawerBonusPoints
		}
	}
}

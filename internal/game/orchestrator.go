// Package game owns the per-room round state machine: phase transitions,
// drawer rotation, timers, guess arbitration and scoring. Every mutation of a
// room happens under that room's lock; the only suspend point is the judge
// call, which runs outside the lock and re-validates the round on return.
package game

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lienzo-games/lienzo/internal/domain"
	"github.com/lienzo-games/lienzo/internal/judge"
	"github.com/lienzo-games/lienzo/internal/registry"
)

const minPlayersToStart = 2

// PromptSource supplies round content. It must never return an empty payload
// for a valid mode; on error the orchestrator falls back to a fixed prompt.
type PromptSource interface {
	NextPrompt(mode domain.Mode, difficulty domain.Difficulty) (domain.PromptPayload, error)
}

// Timings are the phase windows. Zero values get the defaults.
type Timings struct {
	Drawing    time.Duration
	Guessing   time.Duration
	Reveal     time.Duration
	Scoreboard time.Duration
}

func (t *Timings) applyDefaults() {
	if t.Drawing == 0 {
		t.Drawing = 120 * time.Second
	}
	if t.Guessing == 0 {
		t.Guessing = 60 * time.Second
	}
	if t.Reveal == 0 {
		t.Reveal = 5 * time.Second
	}
	if t.Scoreboard == 0 {
		t.Scoreboard = 10 * time.Second
	}
}

type Orchestrator struct {
	registry    *registry.Registry
	prompts     PromptSource
	judge       judge.Client
	broadcaster Broadcaster
	timings     Timings
	logger      *zap.SugaredLogger
}

func NewOrchestrator(
	reg *registry.Registry,
	prompts PromptSource,
	judgeClient judge.Client,
	broadcaster Broadcaster,
	logger *zap.SugaredLogger,
	timings Timings,
) *Orchestrator {
	timings.applyDefaults()
	return &Orchestrator{
		registry:    reg,
		prompts:     prompts,
		judge:       judgeClient,
		broadcaster: broadcaster,
		timings:     timings,
		logger:      logger,
	}
}

// StartRound moves a lobby-phase room into DRAWING: bumps the round counter,
// rotates the drawer over connected players, fetches a prompt and arms the
// drawing timer. Host only, at least two connected players.
func (o *Orchestrator) StartRound(roomID, requesterID string) error {
	room, err := o.registry.Get(roomID)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	requester := room.FindPlayer(requesterID)
	if requester == nil {
		return domain.ErrPlayerNotFound
	}
	if !requester.IsHost {
		return domain.ErrNotHost
	}
	if room.Phase != domain.PhaseLobby {
		return domain.ErrWrongPhase
	}
	if len(room.ConnectedPlayers()) < minPlayersToStart {
		return domain.ErrNotEnoughPlayers
	}

	room.RoundNumber++
	room.RoundGeneration++
	room.DrawerID = room.NextDrawerID()

	payload, err := o.prompts.NextPrompt(room.Mode, room.Difficulty)
	if err != nil {
		o.logger.Warnw("prompt source failed, using fallback", "room", roomID, "error", err)
		payload = fallbackPrompt(room.Mode)
	}

	room.HiddenWord = ""
	switch room.Mode {
	case domain.ModeSequence:
		room.Prompt = payload.Sequence.Situation
		room.Drawings = nil
	case domain.ModeWordwrap:
		room.Prompt = payload.Wordwrap.Context
		room.HiddenWord = payload.Wordwrap.HiddenWord
	default:
		room.Prompt = payload.Classic.Word
	}

	room.Guesses = make(map[string]string)
	room.AIGuess = ""
	room.AIGuesses = nil
	room.CurrentDrawing = ""
	room.AwaitingJudge = false
	room.Phase = domain.PhaseDrawing
	room.PhaseStartedAt = time.Now()

	o.armTimer(room, o.timings.Drawing, o.onDrawingTimeout)
	o.emitGamePhase(room)
	o.emitRoomUpdate(room)

	o.logger.Infow("round started",
		"room", roomID, "round", room.RoundNumber, "drawer", room.DrawerID, "mode", room.Mode)
	return nil
}

// SubmitDrawing takes the drawer's drawing. In CLASSIC a single submission
// triggers the judge and the move to GUESSING. In SEQUENCE submissions
// accumulate; only the one flagged complete, or the fifth, triggers the judge
// over the whole sequence.
func (o *Orchestrator) SubmitDrawing(ctx context.Context, roomID, playerID, imageBase64 string, sequenceComplete bool) error {
	room, err := o.registry.Get(roomID)
	if err != nil {
		return err
	}

	room.Lock()

	if room.Phase != domain.PhaseDrawing || room.AwaitingJudge {
		room.Unlock()
		return domain.ErrWrongPhase
	}
	if room.DrawerID != playerID {
		room.Unlock()
		return domain.ErrNotDrawer
	}
	if room.Mode == domain.ModeWordwrap {
		// WORDWRAP rounds are described, not drawn.
		room.Unlock()
		return domain.ErrWrongPhase
	}

	gen := room.RoundGeneration

	if room.Mode == domain.ModeSequence {
		room.Drawings = append(room.Drawings, imageBase64)
		room.CurrentDrawing = imageBase64

		if !sequenceComplete && len(room.Drawings) < domain.MaxSequenceDrawings {
			// Preview update only; the round stays in DRAWING.
			o.emitRoomUpdate(room)
			room.Unlock()
			return nil
		}

		images := slices.Clone(room.Drawings)
		room.AwaitingJudge = true
		o.emitRoomUpdate(room)
		room.Unlock()

		aiGuess, aiGuesses := "Secuencia de eventos", []string{"Secuencia de eventos"}
		if resp, err := o.judge.GuessFromSequence(ctx, images); err != nil {
			o.logger.Warnw("judge failed on sequence, using fallback", "room", roomID, "error", err)
		} else {
			aiGuess = resp.Situation
			aiGuesses = []string{resp.Situation, resp.Context}
		}

		o.applyJudgeResult(room, gen, aiGuess, aiGuesses)
		return nil
	}

	room.CurrentDrawing = imageBase64
	room.AwaitingJudge = true
	o.emitRoomUpdate(room)
	room.Unlock()

	aiGuess, aiGuesses := "dibujo", []string{"dibujo", "imagen", "arte"}
	if resp, err := o.judge.GuessFromImage(ctx, imageBase64); err != nil || len(resp.TopGuesses) == 0 {
		o.logger.Warnw("judge failed on drawing, using fallback", "room", roomID, "error", err)
	} else {
		aiGuess = resp.TopGuesses[0]
		aiGuesses = resp.TopGuesses
	}

	o.applyJudgeResult(room, gen, aiGuess, aiGuesses)
	return nil
}

// SubmitText takes the drawer's description in WORDWRAP mode and asks the
// judge whether it gives the hidden word away.
func (o *Orchestrator) SubmitText(ctx context.Context, roomID, playerID, text string) error {
	room, err := o.registry.Get(roomID)
	if err != nil {
		return err
	}

	room.Lock()

	if room.Mode != domain.ModeWordwrap {
		room.Unlock()
		return domain.ErrWrongPhase
	}
	if room.Phase != domain.PhaseDrawing || room.AwaitingJudge {
		room.Unlock()
		return domain.ErrWrongPhase
	}
	if room.DrawerID != playerID {
		room.Unlock()
		return domain.ErrNotDrawer
	}

	gen := room.RoundGeneration
	hiddenWord := room.HiddenWord
	room.CurrentDrawing = text
	room.AwaitingJudge = true
	o.emitRoomUpdate(room)
	room.Unlock()

	aiGuess, aiGuesses := "descripción", []string{"descripción"}
	if resp, err := o.judge.GuessFromText(ctx, text, hiddenWord); err != nil || len(resp.TopGuesses) == 0 {
		o.logger.Warnw("judge failed on text, using fallback", "room", roomID, "error", err)
	} else {
		aiGuess = resp.TopGuesses[0]
		aiGuesses = resp.TopGuesses
	}

	o.applyJudgeResult(room, gen, aiGuess, aiGuesses)
	return nil
}

// applyJudgeResult moves the room into GUESSING with the judge's verdict,
// unless the round has moved on while the call was in flight. The generation
// check catches both a late response racing a timeout and a response that
// outlived a whole game reset.
func (o *Orchestrator) applyJudgeResult(room *domain.Room, generation int, aiGuess string, aiGuesses []string) {
	room.Lock()
	defer room.Unlock()

	room.AwaitingJudge = false
	if room.Phase != domain.PhaseDrawing || room.RoundGeneration != generation {
		o.logger.Debugw("dropping stale judge response", "room", room.ID, "generation", generation)
		return
	}

	room.AIGuess = aiGuess
	room.AIGuesses = aiGuesses
	room.Guesses = make(map[string]string)
	room.Phase = domain.PhaseGuessing
	room.PhaseStartedAt = time.Now()

	o.armTimer(room, o.timings.Guessing, o.endRoundLocked)
	o.emitGamePhase(room)
	o.emitRoomUpdate(room)
}

// SubmitGuess records a non-drawer's guess, overwriting any previous one.
// When every connected non-drawer has guessed the round ends immediately.
func (o *Orchestrator) SubmitGuess(roomID, playerID, guess string) error {
	room, err := o.registry.Get(roomID)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	if room.Phase != domain.PhaseGuessing {
		return domain.ErrWrongPhase
	}
	if playerID == room.DrawerID {
		return domain.ErrDrawerCannotGuess
	}
	player := room.FindPlayer(playerID)
	if player == nil || !player.IsConnected {
		return domain.ErrPlayerNotFound
	}

	room.Guesses[playerID] = strings.ToLower(strings.TrimSpace(guess))
	o.emitRoomUpdate(room)

	if nonDrawers := len(room.ConnectedNonDrawers()); nonDrawers > 0 && len(room.Guesses) >= nonDrawers {
		o.endRoundLocked(room)
	}
	return nil
}

// endRoundLocked is the single authoritative round end. Both triggers, the
// last guesser and the guessing timer, funnel here; the phase check makes
// whichever arrives second a no-op. Caller holds the lock.
func (o *Orchestrator) endRoundLocked(room *domain.Room) {
	if room.Phase != domain.PhaseGuessing {
		return
	}
	room.StopTimer()

	result := calculateResult(room)
	applyScores(room, result)

	room.Phase = domain.PhaseReveal
	room.PhaseStartedAt = time.Now()

	gameEnded := room.RoundNumber >= room.MaxRounds
	reveal := RevealPayload{
		Result:       result,
		NextDrawerID: room.NextDrawerID(),
		GameEnded:    gameEnded,
	}
	if gameEnded {
		reveal.FinalScores = room.FinalScores()
	}

	o.broadcaster.BroadcastToRoom(room.ID, &Event{Type: EventReveal, RoomID: room.ID, Data: reveal})
	o.emitGamePhase(room)
	o.emitRoomUpdate(room)

	o.armTimer(room, o.timings.Reveal, o.advanceAfterRound)

	o.logger.Infow("round ended",
		"room", room.ID, "round", room.RoundNumber, "winner", result.Winner,
		"correctGuesses", result.CorrectHumanGuesses, "aiCorrect", result.AIWasCorrect)
}

// onDrawingTimeout fires when the drawer never finished: the round is skipped
// without scoring. Caller holds the lock.
func (o *Orchestrator) onDrawingTimeout(room *domain.Room) {
	if room.Phase != domain.PhaseDrawing {
		return
	}
	o.logger.Infow("drawing phase timed out", "room", room.ID, "round", room.RoundNumber)
	o.advanceAfterRound(room)
}

// advanceAfterRound returns the room to LOBBY for the next round, or into the
// final scoreboard when the configured rounds are played out.
// Caller holds the lock.
func (o *Orchestrator) advanceAfterRound(room *domain.Room) {
	if room.RoundNumber >= room.MaxRounds {
		o.endGameLocked(room)
		return
	}

	room.Phase = domain.PhaseLobby
	room.PhaseStartedAt = time.Now()
	o.emitGamePhase(room)
	o.emitRoomUpdate(room)
}

// endGameLocked keeps the room on the REVEAL scoreboard for a longer window,
// then resets it to a fresh lobby. Caller holds the lock.
func (o *Orchestrator) endGameLocked(room *domain.Room) {
	room.Phase = domain.PhaseReveal
	room.PhaseStartedAt = time.Now()
	o.emitGamePhase(room)
	o.emitRoomUpdate(room)

	o.armTimer(room, o.timings.Scoreboard, func(room *domain.Room) {
		room.Phase = domain.PhaseLobby
		room.RoundNumber = 0
		room.DrawerID = ""
		// A fresh game starts from a clean scoreboard.
		for _, p := range room.Players {
			p.Score = 0
		}
		o.emitGamePhase(room)
		o.emitRoomUpdate(room)
	})

	o.logger.Infow("game ended", "room", room.ID)
}

func (o *Orchestrator) emitRoomUpdate(room *domain.Room) {
	o.broadcaster.BroadcastToRoom(room.ID, NewRoomUpdate(room.Snapshot()))
}

// emitGamePhase broadcasts the transition. The prompt is what everyone else
// is trying to guess, so it rides only on the drawer's private copy; the one
// exception is WORDWRAP, whose context is public while the hidden word stays
// with the drawer.
func (o *Orchestrator) emitGamePhase(room *domain.Room) {
	payload := GamePhasePayload{
		Phase:       room.Phase,
		DrawerID:    room.DrawerID,
		RoundNumber: room.RoundNumber,
		MaxRounds:   room.MaxRounds,
		SecondsLeft: o.secondsLeft(room),
	}
	if drawer := room.FindPlayer(room.DrawerID); drawer != nil {
		payload.DrawerName = drawer.Name
	}

	inRound := room.Phase == domain.PhaseDrawing || room.Phase == domain.PhaseGuessing
	if inRound && room.Mode == domain.ModeWordwrap {
		payload.Prompt = room.Prompt
	}

	o.broadcaster.BroadcastToRoom(room.ID, &Event{Type: EventGamePhase, RoomID: room.ID, Data: payload})

	if room.Phase == domain.PhaseDrawing && room.DrawerID != "" {
		private := payload
		private.Prompt = room.Prompt
		private.HiddenWord = room.HiddenWord
		o.broadcaster.SendToPlayer(room.ID, room.DrawerID, &Event{Type: EventGamePhase, RoomID: room.ID, Data: private})
	}
}

func (o *Orchestrator) secondsLeft(room *domain.Room) int {
	var total time.Duration
	switch room.Phase {
	case domain.PhaseDrawing:
		total = o.timings.Drawing
	case domain.PhaseGuessing:
		total = o.timings.Guessing
	default:
		return 0
	}

	left := total - time.Since(room.PhaseStartedAt)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

func fallbackPrompt(mode domain.Mode) domain.PromptPayload {
	switch mode {
	case domain.ModeSequence:
		return domain.PromptPayload{Sequence: &domain.SequencePrompt{Situation: "Preparar el desayuno"}}
	case domain.ModeWordwrap:
		return domain.PromptPayload{Wordwrap: &domain.WordwrapPrompt{
			HiddenWord: "amistad",
			Context:    "Describe una relación especial entre personas sin usar la palabra directamente",
		}}
	default:
		return domain.PromptPayload{Classic: &domain.ClassicPrompt{Word: "gato"}}
	}
}

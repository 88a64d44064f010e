package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lienzo-games/lienzo/internal/domain"
	"github.com/lienzo-games/lienzo/internal/judge"
	"github.com/lienzo-games/lienzo/internal/registry"
)

// recBroadcaster records every emitted event so tests can assert on the
// stream without a real transport.
type recBroadcaster struct {
	mu        sync.Mutex
	broadcast []*Event
	direct    map[string][]*Event
}

func newRecBroadcaster() *recBroadcaster {
	return &recBroadcaster{direct: make(map[string][]*Event)}
}

func (b *recBroadcaster) BroadcastToRoom(roomID string, event *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast = append(b.broadcast, event)
}

func (b *recBroadcaster) SendToPlayer(roomID, playerID string, event *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.direct[playerID] = append(b.direct[playerID], event)
}

func (b *recBroadcaster) byType(eventType string) []*Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Event
	for _, e := range b.broadcast {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (b *recBroadcaster) directByType(playerID, eventType string) []*Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Event
	for _, e := range b.direct[playerID] {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeJudge answers from canned responses, or errors when none are set.
type fakeJudge struct {
	image    *judge.GuessResponse
	text     *judge.GuessResponse
	sequence *judge.SituationResponse
	calls    int
}

func (f *fakeJudge) GuessFromImage(ctx context.Context, imageBase64 string) (*judge.GuessResponse, error) {
	f.calls++
	if f.image == nil {
		return nil, judge.ErrUnavailable
	}
	return f.image, nil
}

func (f *fakeJudge) GuessFromText(ctx context.Context, text, hiddenWord string) (*judge.GuessResponse, error) {
	f.calls++
	if f.text == nil {
		return nil, judge.ErrUnavailable
	}
	return f.text, nil
}

func (f *fakeJudge) GuessFromSequence(ctx context.Context, imagesBase64 []string) (*judge.SituationResponse, error) {
	f.calls++
	if f.sequence == nil {
		return nil, judge.ErrUnavailable
	}
	return f.sequence, nil
}

// stubPrompts serves a fixed prompt per mode so rounds are deterministic.
type stubPrompts struct{ err error }

func (s stubPrompts) NextPrompt(mode domain.Mode, difficulty domain.Difficulty) (domain.PromptPayload, error) {
	if s.err != nil {
		return domain.PromptPayload{}, s.err
	}
	switch mode {
	case domain.ModeSequence:
		return domain.PromptPayload{Sequence: &domain.SequencePrompt{Situation: "Plantar un árbol"}}, nil
	case domain.ModeWordwrap:
		return domain.PromptPayload{Wordwrap: &domain.WordwrapPrompt{HiddenWord: "amistad", Context: "Describe una relación"}}, nil
	default:
		return domain.PromptPayload{Classic: &domain.ClassicPrompt{Word: "gato"}}, nil
	}
}

type fixture struct {
	reg     *registry.Registry
	orch    *Orchestrator
	judge   *fakeJudge
	bus     *recBroadcaster
	room    *domain.Room
	players []*domain.Player // host first, all connected
}

func newFixture(t *testing.T, mode domain.Mode, maxRounds int, names ...string) *fixture {
	t.Helper()
	require.NotEmpty(t, names)

	logger := zap.NewNop().Sugar()
	reg := registry.New(logger, registry.Config{})
	bus := newRecBroadcaster()
	fj := &fakeJudge{}

	orch := NewOrchestrator(reg, stubPrompts{}, fj, bus, logger, Timings{})

	room, err := reg.CreateRoom(names[0], mode, maxRounds)
	require.NoError(t, err)

	players := make([]*domain.Player, 0, len(names))
	for _, name := range names {
		_, p, err := reg.JoinRoom(room.ID, name)
		require.NoError(t, err)
		players = append(players, p)
	}

	t.Cleanup(func() {
		room.Lock()
		room.StopTimer()
		room.Unlock()
	})

	return &fixture{reg: reg, orch: orch, judge: fj, bus: bus, room: room, players: players}
}

func (f *fixture) phase(t *testing.T) domain.Phase {
	t.Helper()
	f.room.Lock()
	defer f.room.Unlock()
	return f.room.Phase
}

func TestStartRoundRejections(t *testing.T) {
	t.Run("only the host", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		err := f.orch.StartRound(f.room.ID, f.players[1].ID)
		assert.ErrorIs(t, err, domain.ErrNotHost)
	})

	t.Run("needs two connected players", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana")
		err := f.orch.StartRound(f.room.ID, f.players[0].ID)
		assert.ErrorIs(t, err, domain.ErrNotEnoughPlayers)
	})

	t.Run("lobby phase only", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))
		err := f.orch.StartRound(f.room.ID, f.players[0].ID)
		assert.ErrorIs(t, err, domain.ErrWrongPhase)
	})

	t.Run("unknown room", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		err := f.orch.StartRound("ZZZZ", f.players[0].ID)
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})
}

func TestStartRoundEntersDrawing(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")

	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	f.room.Lock()
	assert.Equal(t, domain.PhaseDrawing, f.room.Phase)
	assert.Equal(t, 1, f.room.RoundNumber)
	assert.Equal(t, f.players[0].ID, f.room.DrawerID, "first round goes to the earliest joiner")
	assert.Equal(t, "gato", f.room.Prompt)
	assert.NotNil(t, f.room.Timer)
	f.room.Unlock()

	phases := f.bus.byType(EventGamePhase)
	require.Len(t, phases, 1)
	public := phases[0].Data.(GamePhasePayload)
	assert.Empty(t, public.Prompt, "the word must not reach guessers")

	private := f.bus.directByType(f.players[0].ID, EventGamePhase)
	require.Len(t, private, 1)
	assert.Equal(t, "gato", private[0].Data.(GamePhasePayload).Prompt)
}

func TestStartRoundFallsBackOnPromptError(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
	f.orch.prompts = stubPrompts{err: assert.AnError}

	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	f.room.Lock()
	defer f.room.Unlock()
	assert.Equal(t, domain.PhaseDrawing, f.room.Phase)
	assert.NotEmpty(t, f.room.Prompt)
}

func TestSubmitDrawing(t *testing.T) {
	t.Run("moves to guessing with the judge verdict", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		f.judge.image = &judge.GuessResponse{TopGuesses: []string{"perro", "lobo"}}
		require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

		err := f.orch.SubmitDrawing(context.Background(), f.room.ID, f.players[0].ID, "img-data", false)
		require.NoError(t, err)

		f.room.Lock()
		defer f.room.Unlock()
		assert.Equal(t, domain.PhaseGuessing, f.room.Phase)
		assert.Equal(t, "perro", f.room.AIGuess)
		assert.Equal(t, []string{"perro", "lobo"}, f.room.AIGuesses)
		assert.False(t, f.room.AwaitingJudge)
	})

	t.Run("judge failure falls back, never blocks the round", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

		err := f.orch.SubmitDrawing(context.Background(), f.room.ID, f.players[0].ID, "img-data", false)
		require.NoError(t, err)

		f.room.Lock()
		defer f.room.Unlock()
		assert.Equal(t, domain.PhaseGuessing, f.room.Phase)
		assert.Equal(t, "dibujo", f.room.AIGuess)
	})

	t.Run("non-drawer is rejected", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

		err := f.orch.SubmitDrawing(context.Background(), f.room.ID, f.players[1].ID, "img-data", false)
		assert.ErrorIs(t, err, domain.ErrNotDrawer)
	})

	t.Run("rejected outside the drawing phase", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		err := f.orch.SubmitDrawing(context.Background(), f.room.ID, f.players[0].ID, "img-data", false)
		assert.ErrorIs(t, err, domain.ErrWrongPhase)
	})

	t.Run("rejected while a judge call is in flight", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

		f.room.Lock()
		f.room.AwaitingJudge = true
		f.room.Unlock()

		err := f.orch.SubmitDrawing(context.Background(), f.room.ID, f.players[0].ID, "img-data", false)
		assert.ErrorIs(t, err, domain.ErrWrongPhase)
	})

	t.Run("rejected in wordwrap mode", func(t *testing.T) {
		f := newFixture(t, domain.ModeWordwrap, 5, "ana", "luis")
		require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

		err := f.orch.SubmitDrawing(context.Background(), f.room.ID, f.players[0].ID, "img-data", false)
		assert.ErrorIs(t, err, domain.ErrWrongPhase)
	})
}

func TestSequenceAccumulatesDrawings(t *testing.T) {
	f := newFixture(t, domain.ModeSequence, 5, "ana", "luis")
	f.judge.sequence = &judge.SituationResponse{Situation: "Plantar un árbol", Context: "jardín"}
	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	ctx := context.Background()
	require.NoError(t, f.orch.SubmitDrawing(ctx, f.room.ID, f.players[0].ID, "img-1", false))
	require.NoError(t, f.orch.SubmitDrawing(ctx, f.room.ID, f.players[0].ID, "img-2", false))

	assert.Zero(t, f.judge.calls, "incomplete sequence must not hit the judge")
	assert.Equal(t, domain.PhaseDrawing, f.phase(t))

	require.NoError(t, f.orch.SubmitDrawing(ctx, f.room.ID, f.players[0].ID, "img-3", true))

	assert.Equal(t, 1, f.judge.calls)
	f.room.Lock()
	defer f.room.Unlock()
	assert.Equal(t, domain.PhaseGuessing, f.room.Phase)
	assert.Len(t, f.room.Drawings, 3)
	assert.Equal(t, "Plantar un árbol", f.room.AIGuess)
}

func TestSequenceFifthDrawingForcesJudge(t *testing.T) {
	f := newFixture(t, domain.ModeSequence, 5, "ana", "luis")
	f.judge.sequence = &judge.SituationResponse{Situation: "algo", Context: "ctx"}
	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	ctx := context.Background()
	for i := 0; i < domain.MaxSequenceDrawings; i++ {
		require.NoError(t, f.orch.SubmitDrawing(ctx, f.room.ID, f.players[0].ID, "img", false))
	}

	assert.Equal(t, 1, f.judge.calls)
	assert.Equal(t, domain.PhaseGuessing, f.phase(t))
}

func TestSubmitTextWordwrap(t *testing.T) {
	f := newFixture(t, domain.ModeWordwrap, 5, "ana", "luis")
	f.judge.text = &judge.GuessResponse{TopGuesses: []string{"amistad"}}
	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	err := f.orch.SubmitText(context.Background(), f.room.ID, f.players[0].ID, "una relación entre personas")
	require.NoError(t, err)

	f.room.Lock()
	defer f.room.Unlock()
	assert.Equal(t, domain.PhaseGuessing, f.room.Phase)
	assert.Equal(t, "amistad", f.room.AIGuess)
}

func TestSubmitTextRejectedOutsideWordwrap(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	err := f.orch.SubmitText(context.Background(), f.room.ID, f.players[0].ID, "texto")
	assert.ErrorIs(t, err, domain.ErrWrongPhase)
}

func TestStaleJudgeResultIsDropped(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	// A verdict for an earlier round generation arrives after the round
	// moved on.
	f.orch.applyJudgeResult(f.room, 0, "gato", []string{"gato"})

	f.room.Lock()
	defer f.room.Unlock()
	assert.Equal(t, domain.PhaseDrawing, f.room.Phase, "stale verdict must not advance the phase")
	assert.Empty(t, f.room.AIGuess)
}

func TestJudgeVerdictFromPreviousGameIsDropped(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 1, "ana", "luis")
	f.orch.timings.Scoreboard = time.Second

	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	f.room.Lock()
	stale := f.room.RoundGeneration
	// The drawer never finishes; the only round times out and the game ends.
	f.orch.onDrawingTimeout(f.room)
	f.room.Unlock()

	require.Eventually(t, func() bool {
		return f.phase(t) == domain.PhaseLobby
	}, 5*time.Second, 50*time.Millisecond)

	// Round one of the next game carries the same round number as before.
	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	f.orch.applyJudgeResult(f.room, stale, "gato", []string{"gato"})

	f.room.Lock()
	defer f.room.Unlock()
	assert.Equal(t, 1, f.room.RoundNumber)
	assert.Equal(t, domain.PhaseDrawing, f.room.Phase,
		"a verdict from a previous game must not advance the new round")
	assert.Empty(t, f.room.AIGuess)
}

func toGuessing(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))
	require.NoError(t, f.orch.SubmitDrawing(context.Background(), f.room.ID, f.players[0].ID, "img", false))
	require.Equal(t, domain.PhaseGuessing, f.phase(t))
}

func TestSubmitGuess(t *testing.T) {
	t.Run("drawer cannot guess", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		toGuessing(t, f)

		err := f.orch.SubmitGuess(f.room.ID, f.players[0].ID, "gato")
		assert.ErrorIs(t, err, domain.ErrDrawerCannotGuess)
	})

	t.Run("rejected outside guessing phase", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
		err := f.orch.SubmitGuess(f.room.ID, f.players[1].ID, "gato")
		assert.ErrorIs(t, err, domain.ErrWrongPhase)
	})

	t.Run("disconnected player cannot guess", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis", "carla")
		toGuessing(t, f)

		_, err := f.reg.SetConnectivity(f.room.ID, f.players[2].ID, false)
		require.NoError(t, err)

		err = f.orch.SubmitGuess(f.room.ID, f.players[2].ID, "gato")
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("last guesser ends the round", func(t *testing.T) {
		f := newFixture(t, domain.ModeClassic, 5, "ana", "luis", "carla")
		toGuessing(t, f)

		require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[1].ID, "  GATO "))
		assert.Equal(t, domain.PhaseGuessing, f.phase(t), "one of two guessers is not enough")

		require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[2].ID, "perro"))
		assert.Equal(t, domain.PhaseReveal, f.phase(t))

		reveals := f.bus.byType(EventReveal)
		require.Len(t, reveals, 1)
		reveal := reveals[0].Data.(RevealPayload)
		require.NotNil(t, reveal.Result)
		assert.Equal(t, domain.WinnerHumans, reveal.Result.Winner)
		assert.Equal(t, 1, reveal.Result.CorrectHumanGuesses)
		assert.False(t, reveal.GameEnded)
		assert.Equal(t, f.players[1].ID, reveal.NextDrawerID)

		// Guess normalization: "  GATO " counted as correct and scored.
		assert.Equal(t, guesserPoints, f.players[1].Score)
		assert.Equal(t, drawerBonusPoints, f.players[0].Score)
		assert.Zero(t, f.players[2].Score)
	})
}

func TestDisconnectedGuesserDoesNotCount(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis", "carla")
	toGuessing(t, f)

	require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[1].ID, "gato"))
	_, err := f.reg.SetConnectivity(f.room.ID, f.players[1].ID, false)
	require.NoError(t, err)

	f.room.Lock()
	assert.NotContains(t, f.room.Guesses, f.players[1].ID,
		"a dropped guesser leaves the guess map")
	f.room.Unlock()

	// carla is now the only eligible guesser, so her guess ends the round.
	require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[2].ID, "perro"))
	assert.Equal(t, domain.PhaseReveal, f.phase(t))

	f.room.Lock()
	defer f.room.Unlock()
	assert.Zero(t, f.room.Players[1].Score, "a pruned guess is never scored")
}

func TestRoundEndsExactlyOnce(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
	toGuessing(t, f)

	require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[1].ID, "gato"))
	require.Equal(t, domain.PhaseReveal, f.phase(t))

	// The guessing timer firing late must be a no-op.
	f.room.Lock()
	f.orch.endRoundLocked(f.room)
	f.room.Unlock()

	assert.Len(t, f.bus.byType(EventReveal), 1)
	assert.Equal(t, guesserPoints, f.players[1].Score, "no double scoring")
}

func TestDrawingTimeoutSkipsScoring(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")
	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	f.room.Lock()
	f.orch.onDrawingTimeout(f.room)
	f.room.Unlock()

	assert.Equal(t, domain.PhaseLobby, f.phase(t))
	assert.Empty(t, f.bus.byType(EventReveal))
	assert.Zero(t, f.players[0].Score)
	assert.Zero(t, f.players[1].Score)
}

func TestFinalRoundEndsGame(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 1, "ana", "luis")
	toGuessing(t, f)

	require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[1].ID, "gato"))

	reveals := f.bus.byType(EventReveal)
	require.Len(t, reveals, 1)
	reveal := reveals[0].Data.(RevealPayload)
	assert.True(t, reveal.GameEnded)
	require.Len(t, reveal.FinalScores, 2)

	assert.Equal(t, domain.PhaseReveal, f.phase(t), "scoreboard stays up until the reset timer")
}

func TestGameResetClearsScores(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 1, "ana", "luis")
	f.orch.timings.Reveal = time.Second
	f.orch.timings.Scoreboard = time.Second

	toGuessing(t, f)
	require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[1].ID, "gato"))
	require.Equal(t, domain.PhaseReveal, f.phase(t))

	f.room.Lock()
	require.Equal(t, guesserPoints, f.room.Players[1].Score)
	f.room.Unlock()

	// The reveal and scoreboard windows elapse and the room resets itself.
	require.Eventually(t, func() bool {
		return f.phase(t) == domain.PhaseLobby
	}, 6*time.Second, 50*time.Millisecond)

	f.room.Lock()
	defer f.room.Unlock()
	assert.Zero(t, f.room.RoundNumber)
	assert.Empty(t, f.room.DrawerID)
	for _, p := range f.room.Players {
		assert.Zero(t, p.Score)
	}
}

func TestTimerCountsDownAndExpires(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")

	fired := make(chan struct{})
	f.room.Lock()
	f.orch.armTimer(f.room, 2*time.Second, func(room *domain.Room) {
		close(fired)
	})
	f.room.Unlock()

	select {
	case <-fired:
	case <-time.After(4 * time.Second):
		t.Fatal("timer never fired")
	}

	f.room.Lock()
	assert.Nil(t, f.room.Timer, "expired timer must clear its handle")
	f.room.Unlock()

	ticks := f.bus.byType(EventTimer)
	require.NotEmpty(t, ticks)
	tick := ticks[0].Data.(TimerPayload)
	assert.Equal(t, 2, tick.TotalSeconds)
	assert.Equal(t, 1, tick.SecondsLeft)
}

func TestRearmedTimerCancelsPrevious(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis")

	firstFired := make(chan struct{})
	secondFired := make(chan struct{})

	f.room.Lock()
	f.orch.armTimer(f.room, time.Second, func(room *domain.Room) { close(firstFired) })
	f.orch.armTimer(f.room, 2*time.Second, func(room *domain.Room) { close(secondFired) })
	f.room.Unlock()

	select {
	case <-firstFired:
		t.Fatal("replaced timer must not fire")
	case <-secondFired:
	case <-time.After(4 * time.Second):
		t.Fatal("second timer never fired")
	}
}

func TestDrawerRotationSkipsDisconnected(t *testing.T) {
	f := newFixture(t, domain.ModeClassic, 5, "ana", "luis", "carla")
	toGuessing(t, f)
	require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[1].ID, "x"))
	require.NoError(t, f.orch.SubmitGuess(f.room.ID, f.players[2].ID, "y"))
	require.Equal(t, domain.PhaseReveal, f.phase(t))

	// Back to lobby for round two, with luis gone.
	f.room.Lock()
	f.room.StopTimer()
	f.room.Phase = domain.PhaseLobby
	f.room.Unlock()

	_, err := f.reg.SetConnectivity(f.room.ID, f.players[1].ID, false)
	require.NoError(t, err)

	require.NoError(t, f.orch.StartRound(f.room.ID, f.players[0].ID))

	f.room.Lock()
	defer f.room.Unlock()
	assert.Equal(t, 2, f.room.RoundNumber)
	assert.Equal(t, f.players[2].ID, f.room.DrawerID, "rotation skips the disconnected player")
}

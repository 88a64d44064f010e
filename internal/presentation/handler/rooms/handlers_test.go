package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lienzo-games/lienzo/internal/domain"
	"github.com/lienzo-games/lienzo/internal/game"
	"github.com/lienzo-games/lienzo/internal/infrastructure/ws"
	"github.com/lienzo-games/lienzo/internal/judge"
	"github.com/lienzo-games/lienzo/internal/registry"
)

type noopJudge struct{}

func (noopJudge) GuessFromImage(ctx context.Context, imageBase64 string) (*judge.GuessResponse, error) {
	return &judge.GuessResponse{TopGuesses: []string{"algo"}}, nil
}

func (noopJudge) GuessFromText(ctx context.Context, text, hiddenWord string) (*judge.GuessResponse, error) {
	return &judge.GuessResponse{TopGuesses: []string{"algo"}}, nil
}

func (noopJudge) GuessFromSequence(ctx context.Context, imagesBase64 []string) (*judge.SituationResponse, error) {
	return &judge.SituationResponse{Situation: "algo"}, nil
}

type fixedPrompts struct{}

func (fixedPrompts) NextPrompt(mode domain.Mode, difficulty domain.Difficulty) (domain.PromptPayload, error) {
	return domain.PromptPayload{Classic: &domain.ClassicPrompt{Word: "gato"}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	t.Helper()

	logger := zap.NewNop().Sugar()
	reg := registry.New(logger, registry.Config{})
	hub := ws.NewHub(logger)
	orch := game.NewOrchestrator(reg, fixedPrompts{}, noopJudge{}, hub, logger, game.Timings{})
	h := NewHandler(reg, orch, hub, logger, 5)

	r := chi.NewRouter()
	r.Post("/api/rooms", h.CreateRoomHandler)
	r.Get("/api/rooms/stats", h.StatsHandler)
	r.Get("/api/rooms/{roomId}", h.GetRoomHandler)
	r.Get("/api/rooms/{roomId}/join", h.JoinRoomHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, reg
}

func createRoom(t *testing.T, srv *httptest.Server, body string) createRoomResponse {
	t.Helper()

	resp, err := http.Post(srv.URL+"/api/rooms", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out createRoomResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateRoomHandler(t *testing.T) {
	t.Run("creates a lobby with the host seated", func(t *testing.T) {
		srv, _ := newTestServer(t)

		out := createRoom(t, srv, `{"playerName":"ana"}`)

		assert.Len(t, out.Room.ID, 4)
		assert.Equal(t, domain.PhaseLobby, out.Room.Phase)
		assert.Equal(t, domain.ModeClassic, out.Room.Mode)
		assert.Equal(t, 5, out.Room.MaxRounds)
		require.Len(t, out.Room.Players, 1)
		assert.Equal(t, out.Room.Players[0].ID, out.PlayerID)
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp, err := http.Post(srv.URL+"/api/rooms", "application/json",
			bytes.NewBufferString(`{"playerName":"  "}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects an unknown mode", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp, err := http.Post(srv.URL+"/api/rooms", "application/json",
			bytes.NewBufferString(`{"playerName":"ana","mode":"TRIVIA"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("honours mode and maxRounds", func(t *testing.T) {
		srv, _ := newTestServer(t)

		out := createRoom(t, srv, `{"playerName":"ana","mode":"SEQUENCE","maxRounds":3}`)
		assert.Equal(t, domain.ModeSequence, out.Room.Mode)
		assert.Equal(t, 3, out.Room.MaxRounds)
	})

	t.Run("honours an optional difficulty", func(t *testing.T) {
		srv, _ := newTestServer(t)

		out := createRoom(t, srv, `{"playerName":"ana","difficulty":"HARD"}`)
		assert.Equal(t, domain.DifficultyHard, out.Room.Difficulty)
	})

	t.Run("rejects an unknown difficulty", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp, err := http.Post(srv.URL+"/api/rooms", "application/json",
			bytes.NewBufferString(`{"playerName":"ana","difficulty":"brutal"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetRoomHandler(t *testing.T) {
	srv, _ := newTestServer(t)
	out := createRoom(t, srv, `{"playerName":"ana"}`)

	resp, err := http.Get(srv.URL + "/api/rooms/" + out.Room.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got roomResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, out.Room.ID, got.Room.ID)

	missing, err := http.Get(srv.URL + "/api/rooms/ZZZZ")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestStatsHandler(t *testing.T) {
	srv, _ := newTestServer(t)
	createRoom(t, srv, `{"playerName":"ana"}`)

	resp, err := http.Get(srv.URL + "/api/rooms/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats registry.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalRooms)
}

func dialRoom(t *testing.T, srv *httptest.Server, roomID, name string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/rooms/" + roomID + "/join?name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) game.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event game.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestJoinRoomOverWebsocket(t *testing.T) {
	srv, _ := newTestServer(t)
	out := createRoom(t, srv, `{"playerName":"ana"}`)

	conn := dialRoom(t, srv, out.Room.ID, "ana")

	joined := readEvent(t, conn)
	assert.Equal(t, game.EventRoomJoined, joined.Type)
	assert.Equal(t, out.Room.ID, joined.RoomID)

	update := readEvent(t, conn)
	assert.Equal(t, game.EventRoomUpdate, update.Type)
}

func TestJoinUnknownRoomReportsErrorOverSocket(t *testing.T) {
	srv, _ := newTestServer(t)

	conn := dialRoom(t, srv, "ZZZZ", "ana")

	event := readEvent(t, conn)
	assert.Equal(t, game.EventError, event.Type)
}

func TestDuplicateNameReportsErrorOverSocket(t *testing.T) {
	srv, _ := newTestServer(t)
	out := createRoom(t, srv, `{"playerName":"ana"}`)

	first := dialRoom(t, srv, out.Room.ID, "ana")
	_ = readEvent(t, first) // room:joined

	second := dialRoom(t, srv, out.Room.ID, "ana")
	event := readEvent(t, second)
	assert.Equal(t, game.EventError, event.Type)
}

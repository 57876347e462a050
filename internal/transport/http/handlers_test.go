package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizrally/internal/app"
	"quizrally/internal/config"
	"quizrally/internal/domain"
	"quizrally/internal/quiz"
)

type fixedCatalog struct{}

func (fixedCatalog) AllowedKeys(int64) map[string]bool {
	return map[string]bool{"tanuki.png": true, "marmot.png": true}
}

func newTestServer(t *testing.T) (*Server, *app.Hub, *app.MatchQueue) {
	t.Helper()
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	src := quiz.SourceFunc(func(int) (domain.Question, error) {
		return domain.Question{QID: "Q1", Stem: "stem", Choices: []string{"a", "b", "c", "d"}}, nil
	})
	hub := app.NewHub(cfg, src, fixedCatalog{}, logger)
	t.Cleanup(hub.Close)
	queue := app.NewMatchQueue(hub, config.MatchConfig{GroupSize: 4, GracePeriod: 10 * time.Second}, logger)
	t.Cleanup(queue.Close)

	return NewServer(cfg, hub, queue, fixedCatalog{}, logger), hub, queue
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleCreateRoom(t *testing.T) {
	s, hub, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/rooms", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	code := data["roomCode"].(string)
	assert.Len(t, code, 6)
	assert.Equal(t, string(domain.ModeFriend), data["mode"])
	assert.Contains(t, data["inviteLink"], "/join/"+code)
	assert.Equal(t, 1, hub.RoomCount())
}

func TestHandleCreateRoom_ChallengeMode(t *testing.T) {
	s, hub, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/rooms", `{"mode":"challenge","challenge_level":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, string(domain.ModeChallenge), data["mode"])

	room, err := hub.GetRoom(data["roomCode"].(string))
	require.NoError(t, err)
	assert.Equal(t, 3, room.Info().ChallengeLevel)
}

func TestHandleCreateRoom_RandomModeRejected(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/rooms", `{"mode":"random"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_MODE", resp.Error.Code)
}

func TestHandleGetRoom(t *testing.T) {
	s, hub, _ := newTestServer(t)
	room, err := hub.CreateRoom(domain.ModeFriend, 0)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodGet, "/api/rooms/"+strings.ToLower(room.Code()), "")

	require.Equal(t, http.StatusOK, rec.Code, "room codes are case insensitive")
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, room.Code(), data["roomCode"])
	assert.Equal(t, string(domain.StateLobby), data["state"])
}

func TestHandleGetRoom_NotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/rooms/NOPE99", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ROOM_NOT_FOUND", resp.Error.Code)
}

func TestHandleRoomExists(t *testing.T) {
	s, hub, _ := newTestServer(t)
	room, err := hub.CreateRoom(domain.ModeFriend, 0)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodGet, "/api/rooms/"+room.Code()+"/exists", "")
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, true, data["exists"])

	rec = doRequest(s, http.MethodGet, "/api/rooms/NOPE99/exists", "")
	data = decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, false, data["exists"])
}

func TestHandleRoomQR(t *testing.T) {
	s, hub, _ := newTestServer(t)
	room, err := hub.CreateRoom(domain.ModeFriend, 0)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodGet, "/api/rooms/"+room.Code()+"/qr", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestHandleMatchJoin(t *testing.T) {
	s, _, queue := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/matchmaking/join", `{"user_id":42,"name":"alice"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, queue.WaitingCount())
}

func TestHandleMatchJoin_MissingUser(t *testing.T) {
	s, _, queue := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/matchmaking/join", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, queue.WaitingCount())
}

func TestHandleMatchCancel(t *testing.T) {
	s, _, queue := newTestServer(t)
	queue.Join(42, "alice")

	rec := doRequest(s, http.MethodPost, "/api/matchmaking/cancel", `{"user_id":42}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, queue.WaitingCount())
}

func TestHandleMatchPoll_Unassigned(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/matchmaking/poll?user_id=42", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestHandleStampList(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/quiz/stamps?user_id=42", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	stamps := data["stamps"].([]interface{})
	assert.Equal(t, []interface{}{"marmot.png", "tanuki.png"}, stamps, "keys come back sorted")
}

func TestHandleHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestHandleStats(t *testing.T) {
	s, hub, queue := newTestServer(t)
	_, err := hub.CreateRoom(domain.ModeFriend, 0)
	require.NoError(t, err)
	queue.Join(1, "alice")

	rec := doRequest(s, http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["activeRooms"])
	assert.Equal(t, float64(1), data["waiting"])
}

func TestMiddleware_CORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodOptions, "/api/rooms", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGuestName(t *testing.T) {
	assert.Equal(t, "Guest0042", guestName(42))
	assert.Equal(t, "Guest2345", guestName(912345))
	assert.Equal(t, "Guest0007", guestName(-7))
}
